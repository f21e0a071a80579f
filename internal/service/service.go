// Package service implements the account and parcel operations on top of the
// authenticator, the ledger and the query engine.
package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/auth"
	"parcel-tracker/internal/ledger"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/query"
	"parcel-tracker/internal/storage"
)

var (
	ErrInvalidUsername            = apperrors.New(apperrors.CodeInvalidUsername, "username must be 1 to 10 characters")
	ErrInvalidPassword            = apperrors.New(apperrors.CodeInvalidPassword, "password must not be empty")
	ErrAdminRegistrationForbidden = apperrors.New(apperrors.CodeAdminRegistrationForbidden, "administrator accounts cannot be registered")
	ErrUsernameTaken              = apperrors.New(apperrors.CodeUsernameTaken, "username already exists")
	ErrInvalidDate                = apperrors.New(apperrors.CodeInvalidDate, "invalid sending date")
	ErrParcelNotFound             = apperrors.New(apperrors.CodeParcelNotFound, "parcel does not exist")
	ErrParcelNotPending           = apperrors.New(apperrors.CodeParcelNotPending, "parcel was already received")
	ErrNotRecipient               = apperrors.New(apperrors.CodeNotRecipient, "only the recipient may receive a parcel")
	ErrAdministratorOnly          = apperrors.New(apperrors.CodePermissionDenied, "only the administrator may do this")
)

// Store is everything the service and its collaborators persist through.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string, role models.Role, balance int64) (*models.Account, error)
	GetUser(ctx context.Context, username string) (*models.Account, error)
	GetAdministrator(ctx context.Context) (*models.Account, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	SetBalances(ctx context.Context, updates ...storage.BalanceUpdate) error

	CreateParcel(ctx context.Context, p models.Parcel) (*models.Parcel, error)
	GetParcel(ctx context.Context, id int64) (*models.Parcel, error)
	MarkReceived(ctx context.Context, id int64, on models.Date) error
	ListParcels(ctx context.Context, f models.ParcelFilter) ([]models.Parcel, error)
}

// Calendar is the logistics date the service stamps parcels with.
type Calendar interface {
	Today() models.Date
	AddDays(days int) (models.Date, error)
}

// Service is the single entry point of the shell.
type Service struct {
	store    Store
	auth     *auth.Authenticator
	ledger   *ledger.Ledger
	engine   *query.Engine
	calendar Calendar

	// serializes password changes
	passwordMu sync.Mutex
}

// New wires a Service over store. A nil hasher means bcrypt.
func New(store Store, hasher auth.PasswordHasher, calendar Calendar) *Service {
	return &Service{
		store:    store,
		auth:     auth.NewAuthenticator(store, hasher),
		ledger:   ledger.New(store),
		engine:   query.NewEngine(store),
		calendar: calendar,
	}
}

// Register creates a customer account with a zero balance.
func (s *Service) Register(ctx context.Context, username, password string, role models.Role) error {
	input := registration{Username: username, Role: role, Password: password}
	if err := validateInput(input, registrationFields); err != nil {
		return err
	}
	return s.createAccount(ctx, username, password, role)
}

// HasAdministrator reports whether the administrator account exists.
func (s *Service) HasAdministrator(ctx context.Context) (bool, error) {
	_, err := s.store.GetAdministrator(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Storage("look up administrator", err)
	}
	return true, nil
}

// SeedAdministrator creates the administrator account unless one exists.
// It reports whether an account was created.
func (s *Service) SeedAdministrator(ctx context.Context, username, password string) (bool, error) {
	exists, err := s.HasAdministrator(ctx)
	if err != nil || exists {
		return false, err
	}
	if err := validateInput(credentials{Username: username, Password: password}, credentialFields); err != nil {
		return false, err
	}
	if err := s.createAccount(ctx, username, password, models.RoleAdministrator); err != nil {
		return false, err
	}
	log.Printf("created administrator account %s", username)
	return true, nil
}

func (s *Service) createAccount(ctx context.Context, username, password string, role models.Role) error {
	hash, err := s.auth.Hasher().Hash(password)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "hash password", err)
	}
	_, err = s.store.CreateUser(ctx, username, hash, role, 0)
	if errors.Is(err, storage.ErrDuplicate) {
		return ErrUsernameTaken
	}
	return apperrors.Storage("create account", err)
}

// Login opens a session and returns its capability.
func (s *Service) Login(ctx context.Context, username, password string) (auth.Capability, error) {
	return s.auth.Login(ctx, username, password)
}

// Logout closes the session behind c.
func (s *Service) Logout(c auth.Capability) error {
	return s.auth.Logout(c)
}

// ChangePassword replaces the password of the caller.
func (s *Service) ChangePassword(ctx context.Context, c auth.Capability, password string) error {
	username, err := s.auth.Verify(c)
	if err != nil {
		return err
	}
	if password == "" {
		return ErrInvalidPassword
	}

	hash, err := s.auth.Hasher().Hash(password)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "hash password", err)
	}

	s.passwordMu.Lock()
	defer s.passwordMu.Unlock()
	if err := s.store.UpdatePassword(ctx, username, hash); err != nil {
		return apperrors.Storage("update password", err)
	}
	return nil
}

// GetInfo returns the caller's username, role and balance.
func (s *Service) GetInfo(ctx context.Context, c auth.Capability) (models.AccountInfo, error) {
	account, err := s.caller(ctx, c)
	if err != nil {
		return models.AccountInfo{}, err
	}
	balance, err := s.ledger.Balance(ctx, account.Username)
	if err != nil {
		return models.AccountInfo{}, err
	}
	return models.AccountInfo{
		Username: account.Username,
		Role:     account.Role,
		Balance:  balance,
	}, nil
}

// AddBalance changes the caller's balance by delta.
func (s *Service) AddBalance(ctx context.Context, c auth.Capability, delta int64) error {
	username, err := s.auth.Verify(c)
	if err != nil {
		return err
	}
	return s.ledger.AddBalance(ctx, username, delta)
}

// Transfer moves amount from the caller to counterparty.
func (s *Service) Transfer(ctx context.Context, c auth.Capability, amount int64, counterparty string) error {
	username, err := s.auth.Verify(c)
	if err != nil {
		return err
	}
	return s.ledger.Transfer(ctx, username, amount, counterparty)
}

// caller verifies c and loads the account it stands for.
func (s *Service) caller(ctx context.Context, c auth.Capability) (*models.Account, error) {
	username, err := s.auth.Verify(c)
	if err != nil {
		return nil, err
	}
	account, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, auth.ErrInvalidCapability
		}
		return nil, apperrors.Storage("load account", err)
	}
	return account, nil
}

// Session returns the live session behind c.
func (s *Service) Session(c auth.Capability) (auth.Session, error) {
	username, err := s.auth.Verify(c)
	if err != nil {
		return auth.Session{}, err
	}
	session, ok := s.auth.Session(username)
	if !ok {
		return auth.Session{}, auth.ErrInvalidCapability
	}
	return session, nil
}
