package services

import (
	"context"
	"testing"
	"time"

	"dentalclinic-backend/models"
	"dentalclinic-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

// fixture is one clinic account on a private in-memory database.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	userID uuid.UUID

	payments   *PaymentService
	patients   *PatientService
	visits     *VisitService
	visitTypes *VisitTypeService
	summaries  *SummaryService
	balances   *BalanceService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	log := zap.NewNop()
	f := &fixture{
		t:          t,
		ctx:        context.Background(),
		db:         db,
		payments:   NewPaymentService(db, log),
		patients:   NewPatientService(db, log),
		visits:     NewVisitService(db, log),
		visitTypes: NewVisitTypeService(db, log),
		summaries:  NewSummaryService(db),
		balances:   NewBalanceService(db),
	}
	f.userID = f.user("dr@clinic.test").ID
	return f
}

func (f *fixture) user(email string) *models.User {
	f.t.Helper()
	u := &models.User{Email: email, Password: "password123", Name: "Dr. Test", ClinicName: "Smile Clinic"}
	require.NoError(f.t, f.db.Create(u).Error)
	return u
}

func (f *fixture) patient(name, sex string, age int) *models.Patient {
	f.t.Helper()
	p, err := f.patients.Create(f.ctx, f.userID, CreatePatientInput{Name: name, Sex: sex, Age: age})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) visitType(name string) *models.VisitType {
	f.t.Helper()
	vt, err := f.visitTypes.Create(f.ctx, f.userID, name)
	require.NoError(f.t, err)
	return vt
}

func (f *fixture) visit(patientID uuid.UUID, at time.Time, acts ...ActInput) *VisitDetail {
	f.t.Helper()
	v, err := f.visits.Create(f.ctx, f.userID, CreateVisitInput{
		PatientID: &patientID,
		VisitTime: at.UnixMilli(),
		Acts:      acts,
	})
	require.NoError(f.t, err)
	return v
}

func (f *fixture) pay(visitID uuid.UUID, amount int64) (*models.Payment, error) {
	return f.payments.Create(f.ctx, f.userID, CreatePaymentInput{VisitID: visitID, Amount: amount})
}

func (f *fixture) count(model interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func act(visitTypeID uuid.UUID, price int64, teeth ...string) ActInput {
	return ActInput{VisitTypeID: visitTypeID, Price: price, Teeth: teeth}
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
