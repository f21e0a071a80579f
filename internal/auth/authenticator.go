package auth

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials indicates an unknown username or a wrong password.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "invalid username or password")
	// ErrInvalidCapability indicates a missing, foreign or logged-out capability.
	ErrInvalidCapability = apperrors.New(apperrors.CodeInvalidCapability, "invalid or expired capability")
)

// UserStore is the account lookup the authenticator needs.
type UserStore interface {
	GetUser(ctx context.Context, username string) (*models.Account, error)
}

// Session is the server-held record that a username is logged in.
type Session struct {
	ID       uuid.UUID
	OpenedAt time.Time
}

// Authenticator owns the process-wide table of live sessions.
type Authenticator struct {
	users     UserStore
	hasher    PasswordHasher
	validator *jwt.Validator
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewAuthenticator creates an Authenticator with an empty session table.
func NewAuthenticator(users UserStore, hasher PasswordHasher) *Authenticator {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Authenticator{
		users:     users,
		hasher:    hasher,
		validator: jwt.NewValidator(jwt.WithIssuer(Issuer)),
		now:       time.Now,
		sessions:  make(map[string]Session),
	}
}

// Hasher returns the password hasher used for stored credentials.
func (a *Authenticator) Hasher() PasswordHasher {
	return a.hasher
}

// Login checks the credentials and opens (or replaces) the session for username.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Capability, error) {
	account, err := a.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Capability{}, ErrInvalidCredentials
		}
		return Capability{}, apperrors.Storage("load account", err)
	}
	if !a.hasher.Check(password, account.PasswordHash) {
		return Capability{}, ErrInvalidCredentials
	}

	session := Session{ID: uuid.New(), OpenedAt: a.now()}
	a.mu.Lock()
	_, replaced := a.sessions[username]
	a.sessions[username] = session
	a.mu.Unlock()

	if replaced {
		log.Printf("session %s replaces the previous session of %s", session.ID, username)
	}
	return NewCapability(username), nil
}

// Verify returns the username a capability stands for. It fails unless the
// issuer matches and a live session exists for that username.
func (a *Authenticator) Verify(c Capability) (string, error) {
	if c.Username == "" {
		return "", ErrInvalidCapability
	}
	if err := a.validator.Validate(c); err != nil {
		return "", ErrInvalidCapability
	}

	a.mu.RLock()
	_, ok := a.sessions[c.Username]
	a.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCapability
	}
	return c.Username, nil
}

// Logout verifies the capability and drops its session.
func (a *Authenticator) Logout(c Capability) error {
	username, err := a.Verify(c)
	if err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.sessions, username)
	a.mu.Unlock()
	return nil
}

// Session returns the live session for username, if any.
func (a *Authenticator) Session(username string) (Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[username]
	return s, ok
}
