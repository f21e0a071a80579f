package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"parcel-tracker/internal/apperrors"
	"parcel-tracker/internal/auth"
	"parcel-tracker/internal/clock"
	"parcel-tracker/internal/ledger"
	"parcel-tracker/internal/models"
	"parcel-tracker/internal/query"
	"parcel-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

var startDate = time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)

// ServiceTestSuite provides a test suite for account and parcel operations
type ServiceTestSuite struct {
	suite.Suite
	db      *storage.DB
	service *Service
	ctx     context.Context
}

// SetupTest runs before each test
func (suite *ServiceTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
	suite.service = New(db, auth.PlainHasher{}, clock.NewCalendar(startDate))

	created, err := suite.service.SeedAdministrator(suite.ctx, "admin", "root")
	require.NoError(suite.T(), err)
	require.True(suite.T(), created)
}

// TearDownTest runs after each test
func (suite *ServiceTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

// customer registers username, funds it with balance and logs it in.
func (suite *ServiceTestSuite) customer(username string, balance int64) auth.Capability {
	require.NoError(suite.T(), suite.service.Register(suite.ctx, username, "pw", models.RoleCustomer))
	c, err := suite.service.Login(suite.ctx, username, "pw")
	require.NoError(suite.T(), err)
	if balance > 0 {
		require.NoError(suite.T(), suite.service.AddBalance(suite.ctx, c, balance))
	}
	return c
}

func (suite *ServiceTestSuite) admin() auth.Capability {
	c, err := suite.service.Login(suite.ctx, "admin", "root")
	require.NoError(suite.T(), err)
	return c
}

func (suite *ServiceTestSuite) info(c auth.Capability) models.AccountInfo {
	info, err := suite.service.GetInfo(suite.ctx, c)
	require.NoError(suite.T(), err)
	return info
}

func (suite *ServiceTestSuite) TestRegister() {
	require.NoError(suite.T(), suite.service.Register(suite.ctx, "abcdefghij", "pw", models.RoleCustomer))

	c, err := suite.service.Login(suite.ctx, "abcdefghij", "pw")
	require.NoError(suite.T(), err)
	info := suite.info(c)
	assert.Equal(suite.T(), models.RoleCustomer, info.Role)
	assert.Equal(suite.T(), int64(0), info.Balance)
}

func (suite *ServiceTestSuite) TestRegisterValidation() {
	tests := []struct {
		name     string
		username string
		password string
		role     models.Role
		want     error
	}{
		{"empty username", "", "pw", models.RoleCustomer, ErrInvalidUsername},
		{"username too long", "abcdefghijk", "pw", models.RoleCustomer, ErrInvalidUsername},
		{"administrator role", "eve", "pw", models.RoleAdministrator, ErrAdminRegistrationForbidden},
		{"length checked before role", "abcdefghijk", "pw", models.RoleAdministrator, ErrInvalidUsername},
		{"empty password", "eve", "", models.RoleCustomer, ErrInvalidPassword},
		{"taken", "admin", "pw", models.RoleCustomer, ErrUsernameTaken},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := suite.service.Register(suite.ctx, tt.username, tt.password, tt.role)
			assert.ErrorIs(suite.T(), err, tt.want)
		})
	}

	err := suite.service.Register(suite.ctx, "admin", "pw", models.RoleCustomer)
	assert.Equal(suite.T(), apperrors.KindConflict, apperrors.KindOf(err))
	err = suite.service.Register(suite.ctx, "eve", "pw", models.RoleAdministrator)
	assert.Equal(suite.T(), apperrors.KindValidation, apperrors.KindOf(err))
}

func (suite *ServiceTestSuite) TestSeedAdministratorIsIdempotent() {
	created, err := suite.service.SeedAdministrator(suite.ctx, "other", "pw")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), created)

	exists, err := suite.service.HasAdministrator(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), exists)
}

func (suite *ServiceTestSuite) TestLoginLogout() {
	c := suite.customer("alice", 0)

	require.NoError(suite.T(), suite.service.Logout(c))
	_, err := suite.service.GetInfo(suite.ctx, c)
	assert.ErrorIs(suite.T(), err, auth.ErrInvalidCapability)
	assert.ErrorIs(suite.T(), suite.service.Logout(c), auth.ErrInvalidCapability)

	_, err = suite.service.Login(suite.ctx, "alice", "wrong")
	assert.ErrorIs(suite.T(), err, auth.ErrInvalidCredentials)
}

func (suite *ServiceTestSuite) TestChangePassword() {
	c := suite.customer("alice", 0)

	require.NoError(suite.T(), suite.service.ChangePassword(suite.ctx, c, "fresh"))
	assert.ErrorIs(suite.T(), suite.service.ChangePassword(suite.ctx, c, ""), ErrInvalidPassword)
	require.NoError(suite.T(), suite.service.Logout(c))

	_, err := suite.service.Login(suite.ctx, "alice", "pw")
	assert.ErrorIs(suite.T(), err, auth.ErrInvalidCredentials)
	_, err = suite.service.Login(suite.ctx, "alice", "fresh")
	assert.NoError(suite.T(), err)

	err = suite.service.ChangePassword(suite.ctx, auth.NewCapability("ghost"), "x")
	assert.ErrorIs(suite.T(), err, auth.ErrInvalidCapability)
}

func (suite *ServiceTestSuite) TestAddBalanceBounds() {
	c := suite.customer("alice", 100)

	assert.ErrorIs(suite.T(), suite.service.AddBalance(suite.ctx, c, -101), ledger.ErrBalanceOutOfRange)
	assert.ErrorIs(suite.T(), suite.service.AddBalance(suite.ctx, c, 1_000_000_001), ledger.ErrDeltaOutOfRange)
	require.NoError(suite.T(), suite.service.AddBalance(suite.ctx, c, 999_999_900))
	assert.Equal(suite.T(), models.MaxBalance, suite.info(c).Balance)
	assert.ErrorIs(suite.T(), suite.service.AddBalance(suite.ctx, c, 1), ledger.ErrBalanceOutOfRange)
}

func (suite *ServiceTestSuite) TestTransfer() {
	alice := suite.customer("alice", 100)
	bob := suite.customer("bob", 0)

	require.NoError(suite.T(), suite.service.Transfer(suite.ctx, alice, 40, "bob"))
	assert.Equal(suite.T(), int64(60), suite.info(alice).Balance)
	assert.Equal(suite.T(), int64(40), suite.info(bob).Balance)

	err := suite.service.Transfer(suite.ctx, alice, 61, "bob")
	assert.ErrorIs(suite.T(), err, ledger.ErrBalanceOutOfRange)

	err = suite.service.Transfer(suite.ctx, alice, 1, "ghost")
	assert.ErrorIs(suite.T(), err, ledger.ErrUnknownAccount)
	assert.Equal(suite.T(), int64(60), suite.info(alice).Balance)
}

func (suite *ServiceTestSuite) TestSendParcelChargesFlatRate() {
	alice := suite.customer("alice", 100)
	suite.customer("bob", 0)

	id, err := suite.service.SendParcel(suite.ctx, alice, models.Date{Year: 2024, Month: 1, Day: 5}, "bob", "books")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), id)

	assert.Equal(suite.T(), int64(85), suite.info(alice).Balance)
	assert.Equal(suite.T(), models.FlatRate, suite.info(suite.admin()).Balance)

	parcel, err := suite.db.GetParcel(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatePending, parcel.State)
	assert.Equal(suite.T(), "alice", parcel.SrcName)
	assert.Equal(suite.T(), "bob", parcel.DstName)
	assert.Equal(suite.T(), "books", parcel.Description)
	assert.True(suite.T(), parcel.ReceivingDate.IsZero())
}

func (suite *ServiceTestSuite) TestSendParcelByAdministratorIsFree() {
	suite.customer("bob", 0)
	admin := suite.admin()

	_, err := suite.service.SendParcel(suite.ctx, admin, models.Date{Year: 2024, Month: 1, Day: 5}, "bob", "notice")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), suite.info(admin).Balance)
}

func (suite *ServiceTestSuite) TestSendParcelRejections() {
	alice := suite.customer("alice", 10)
	suite.customer("bob", 0)

	_, err := suite.service.SendParcel(suite.ctx, alice, models.Date{Year: 2024, Month: 1, Day: 5}, "bob", "x")
	assert.ErrorIs(suite.T(), err, ledger.ErrBalanceOutOfRange, "cannot afford the flat rate")

	for _, d := range []models.Date{
		{Year: 2024, Month: 13, Day: 1},
		{Year: 2023, Month: 2, Day: 29},
		{Year: 0, Month: 1, Day: 1},
		{Year: 2024, Month: 4, Day: 31},
	} {
		_, err = suite.service.SendParcel(suite.ctx, alice, d, "bob", "x")
		assert.ErrorIs(suite.T(), err, ErrInvalidDate, "date %v", d)
	}

	_, err = suite.service.SendParcel(suite.ctx, alice, models.Date{Year: 2024, Month: 1, Day: 5}, "ghost", "x")
	assert.ErrorIs(suite.T(), err, ledger.ErrUnknownAccount)

	parcels, err := suite.db.ListParcels(suite.ctx, models.ParcelFilter{})
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), parcels)
	assert.Equal(suite.T(), int64(10), suite.info(alice).Balance)
}

func (suite *ServiceTestSuite) TestReceiveParcel() {
	alice := suite.customer("alice", 100)
	bob := suite.customer("bob", 0)
	admin := suite.admin()

	id, err := suite.service.SendParcel(suite.ctx, alice, models.Date{Year: 2024, Month: 1, Day: 5}, "bob", "books")
	require.NoError(suite.T(), err)

	_, err = suite.service.ReceiveParcel(suite.ctx, alice, 99)
	assert.ErrorIs(suite.T(), err, ErrParcelNotFound)

	_, err = suite.service.ReceiveParcel(suite.ctx, alice, id)
	assert.ErrorIs(suite.T(), err, ErrNotRecipient)
	assert.Equal(suite.T(), apperrors.KindAuth, apperrors.KindOf(err))

	_, err = suite.service.AdvanceDays(suite.ctx, admin, 3)
	require.NoError(suite.T(), err)

	on, err := suite.service.ReceiveParcel(suite.ctx, bob, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.Date{Year: 2024, Month: 1, Day: 8}, on)

	parcel, err := suite.db.GetParcel(suite.ctx, id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StateReceived, parcel.State)
	assert.Equal(suite.T(), on, parcel.ReceivingDate)

	_, err = suite.service.ReceiveParcel(suite.ctx, bob, id)
	assert.ErrorIs(suite.T(), err, ErrParcelNotPending)
	assert.Equal(suite.T(), apperrors.KindConflict, apperrors.KindOf(err))
}

func (suite *ServiceTestSuite) TestQueryParcels() {
	alice := suite.customer("alice", 100)
	bob := suite.customer("bob", 100)
	suite.customer("carol", 0)
	admin := suite.admin()

	day := models.Date{Year: 2024, Month: 1, Day: 5}
	for _, send := range []struct {
		from auth.Capability
		to   string
	}{{alice, "bob"}, {bob, "alice"}, {alice, "carol"}} {
		_, err := suite.service.SendParcel(suite.ctx, send.from, day, send.to, "x")
		require.NoError(suite.T(), err)
	}

	parcels, err := suite.service.QueryParcels(suite.ctx, alice, models.ParcelFilter{Mode: models.QueryAsSender})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), parcels, 2)

	parcels, err = suite.service.QueryParcels(suite.ctx, alice, models.ParcelFilter{Mode: models.QueryAsReceiver})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), parcels, 1)
	assert.Equal(suite.T(), "bob", parcels[0].SrcName)

	_, err = suite.service.QueryParcels(suite.ctx, alice, models.ParcelFilter{Mode: models.QueryAll})
	assert.ErrorIs(suite.T(), err, query.ErrPermissionDenied)

	parcels, err = suite.service.QueryParcels(suite.ctx, admin, models.ParcelFilter{Mode: models.QueryAll, DstName: models.Ptr("carol")})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), parcels, 1)
	assert.Equal(suite.T(), int64(3), parcels[0].ID)
}

func (suite *ServiceTestSuite) TestAdvanceDays() {
	alice := suite.customer("alice", 0)
	admin := suite.admin()

	_, err := suite.service.AdvanceDays(suite.ctx, alice, 1)
	assert.ErrorIs(suite.T(), err, ErrAdministratorOnly)

	_, err = suite.service.AdvanceDays(suite.ctx, admin, 0)
	assert.ErrorIs(suite.T(), err, clock.ErrInvalidDays)

	today, err := suite.service.AdvanceDays(suite.ctx, admin, 27)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.Date{Year: 2024, Month: 2, Day: 1}, today)
	assert.Equal(suite.T(), today, suite.service.Today())
}

func (suite *ServiceTestSuite) TestConcurrentSendsGetDistinctIDs() {
	alice := suite.customer("alice", 15*20)
	suite.customer("bob", 0)

	ids := make([]int64, 20)
	var g errgroup.Group
	for i := range ids {
		i := i
		g.Go(func() error {
			id, err := suite.service.SendParcel(suite.ctx, alice, models.Date{Year: 2024, Month: 1, Day: 5}, "bob", "x")
			ids[i] = id
			return err
		})
	}
	require.NoError(suite.T(), g.Wait())

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(suite.T(), int64(i+1), id)
	}
	assert.Equal(suite.T(), int64(0), suite.info(alice).Balance)
	assert.Equal(suite.T(), int64(15*20), suite.info(suite.admin()).Balance)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

// brokenParcels fails every parcel insert.
type brokenParcels struct {
	*storage.DB
}

func (brokenParcels) CreateParcel(context.Context, models.Parcel) (*models.Parcel, error) {
	return nil, errors.New("disk full")
}

func TestSendParcelRefundsFailedInsert(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	svc := New(brokenParcels{db}, auth.PlainHasher{}, clock.NewCalendar(startDate))
	_, err = svc.SeedAdministrator(ctx, "admin", "root")
	require.NoError(t, err)
	require.NoError(t, svc.Register(ctx, "alice", "pw", models.RoleCustomer))
	require.NoError(t, svc.Register(ctx, "bob", "pw", models.RoleCustomer))

	alice, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.AddBalance(ctx, alice, 50))

	_, err = svc.SendParcel(ctx, alice, models.Date{Year: 2024, Month: 1, Day: 5}, "bob", "x")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeStorage, apperrors.CodeOf(err))

	info, err := svc.GetInfo(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(50), info.Balance)

	admin, err := db.GetAdministrator(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), admin.Balance)
}
