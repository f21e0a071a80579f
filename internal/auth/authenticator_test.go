package auth

import (
	"context"
	"errors"
	"testing"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// AuthenticatorTestSuite provides a test suite for session handling
type AuthenticatorTestSuite struct {
	suite.Suite
	db   *storage.DB
	auth *Authenticator
	ctx  context.Context
}

// SetupTest runs before each test
func (suite *AuthenticatorTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()

	hasher := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash("testpass")
	require.NoError(suite.T(), err, "failed to hash password")
	_, err = db.CreateUser(suite.ctx, "testuser", hash, models.RoleCustomer, 0)
	require.NoError(suite.T(), err, "failed to create test user")

	suite.auth = NewAuthenticator(db, hasher)
}

// TearDownTest runs after each test
func (suite *AuthenticatorTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *AuthenticatorTestSuite) TestLoginAndVerify() {
	capability, err := suite.auth.Login(suite.ctx, "testuser", "testpass")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), Issuer, capability.Issuer)

	username, err := suite.auth.Verify(capability)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "testuser", username)

	session, ok := suite.auth.Session("testuser")
	assert.True(suite.T(), ok)
	assert.NotEmpty(suite.T(), session.ID.String())
}

func (suite *AuthenticatorTestSuite) TestLoginWrongPassword() {
	_, err := suite.auth.Login(suite.ctx, "testuser", "nope")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthenticatorTestSuite) TestLoginUnknownUser() {
	_, err := suite.auth.Login(suite.ctx, "ghost", "testpass")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
	assert.Equal(suite.T(), apperrors.KindAuth, apperrors.KindOf(err))
}

func (suite *AuthenticatorTestSuite) TestVerifyRejectsForeignIssuer() {
	_, err := suite.auth.Login(suite.ctx, "testuser", "testpass")
	require.NoError(suite.T(), err)

	forged := NewCapability("testuser")
	forged.Issuer = "someone-else"
	_, err = suite.auth.Verify(forged)
	assert.ErrorIs(suite.T(), err, ErrInvalidCapability)

	forged.Issuer = ""
	_, err = suite.auth.Verify(forged)
	assert.ErrorIs(suite.T(), err, ErrInvalidCapability)
}

func (suite *AuthenticatorTestSuite) TestVerifyWithoutSession() {
	_, err := suite.auth.Verify(NewCapability("testuser"))
	assert.ErrorIs(suite.T(), err, ErrInvalidCapability)

	_, err = suite.auth.Verify(Capability{})
	assert.ErrorIs(suite.T(), err, ErrInvalidCapability)
}

func (suite *AuthenticatorTestSuite) TestLogoutInvalidatesCapability() {
	capability, err := suite.auth.Login(suite.ctx, "testuser", "testpass")
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.auth.Logout(capability))

	_, err = suite.auth.Verify(capability)
	assert.ErrorIs(suite.T(), err, ErrInvalidCapability)

	// A second logout has nothing to close
	assert.ErrorIs(suite.T(), suite.auth.Logout(capability), ErrInvalidCapability)
}

func (suite *AuthenticatorTestSuite) TestSecondLoginReplacesSession() {
	first, err := suite.auth.Login(suite.ctx, "testuser", "testpass")
	require.NoError(suite.T(), err)
	before, _ := suite.auth.Session("testuser")

	second, err := suite.auth.Login(suite.ctx, "testuser", "testpass")
	require.NoError(suite.T(), err)
	after, _ := suite.auth.Session("testuser")

	assert.NotEqual(suite.T(), before.ID, after.ID)
	// Both handles name the same live session
	_, err = suite.auth.Verify(first)
	assert.NoError(suite.T(), err)
	_, err = suite.auth.Verify(second)
	assert.NoError(suite.T(), err)
}

type failingStore struct{}

func (failingStore) GetUser(context.Context, string) (*models.Account, error) {
	return nil, errors.New("disk unavailable")
}

func TestLoginSurfacesStorageFailure(t *testing.T) {
	a := NewAuthenticator(failingStore{}, PlainHasher{})
	_, err := a.Login(context.Background(), "alice", "pw")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeStorage, apperrors.CodeOf(err))
}

func TestCapabilityWireShape(t *testing.T) {
	encoded, err := NewCapability("alice").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"iss":"parcel-tracker","username":"alice"}`, encoded)

	decoded, err := DecodeCapability([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, NewCapability("alice"), decoded)

	_, err = DecodeCapability([]byte("{"))
	assert.Error(t, err)
}

func TestHashers(t *testing.T) {
	plain, err := NewHasher("plain")
	require.NoError(t, err)
	stored, err := plain.Hash("secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", stored)
	assert.True(t, plain.Check("secret", stored))
	assert.False(t, plain.Check("Secret", stored))

	strong, err := NewHasher("bcrypt")
	require.NoError(t, err)
	hashed, err := strong.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hashed)
	assert.True(t, strong.Check("secret", hashed))
	assert.False(t, strong.Check("other", hashed))

	_, err = NewHasher("md5")
	assert.Error(t, err)
}

func TestAuthenticatorSuite(t *testing.T) {
	suite.Run(t, new(AuthenticatorTestSuite))
}
