package usecase

import (
	"context"
	"io"
	"time"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/idempotency"
	"github.com/shandysiswandi/datasprint/internal/pkg/storage"
	"github.com/stretchr/testify/mock"
)

type mockRepoDB struct{ mock.Mock }

func (m *mockRepoDB) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockRepoDB) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockRepoDB) UserExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepoDB) GetRegistrationOTP(ctx context.Context, email string) (*entity.RegistrationOTP, error) {
	args := m.Called(ctx, email)
	ro, _ := args.Get(0).(*entity.RegistrationOTP)
	return ro, args.Error(1)
}

func (m *mockRepoDB) GetUserList(ctx context.Context, filter entity.UserListFilter) ([]entity.User, int64, error) {
	args := m.Called(ctx, filter)
	users, _ := args.Get(0).([]entity.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepoDB) GetUsersForExport(ctx context.Context) ([]entity.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]entity.User)
	return users, args.Error(1)
}

func (m *mockRepoDB) UpsertRegistrationOTP(ctx context.Context, in entity.RegistrationOTP) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockRepoDB) MarkRegistrationOTPVerified(ctx context.Context, email string, at time.Time) error {
	return m.Called(ctx, email, at).Error(0)
}

func (m *mockRepoDB) SetUserOTP(ctx context.Context, in entity.UserOTP) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockRepoDB) ResetUserPassword(ctx context.Context, userID int64, otpHash, newHash string) error {
	return m.Called(ctx, userID, otpHash, newHash).Error(0)
}

func (m *mockRepoDB) UpdateUserProfile(ctx context.Context, id int64, p entity.Profile) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockRepoDB) UpdateUserRoleByEmail(ctx context.Context, email string, role entity.Role) error {
	return m.Called(ctx, email, role).Error(0)
}

func (m *mockRepoDB) NewRegistration(ctx context.Context, user entity.NewUser) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepoDB) FlushRegistrations(ctx context.Context) (entity.FlushResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.FlushResult), args.Error(1)
}

type mockRepoMessaging struct{ mock.Mock }

func (m *mockRepoMessaging) PublishTeamRegistered(ctx context.Context, msg TeamRegisteredEvent) error {
	return m.Called(ctx, msg).Error(0)
}

type mockRepoMail struct{ mock.Mock }

func (m *mockRepoMail) SendOTP(ctx context.Context, in OTPMail) error {
	return m.Called(ctx, in).Error(0)
}

type mockRepoStorage struct{ mock.Mock }

func (m *mockRepoStorage) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, bucket, key, body, opts)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

type mockIdempotency struct{ mock.Mock }

func (m *mockIdempotency) Acquire(ctx context.Context, key string, hold time.Duration) (idempotency.State, error) {
	args := m.Called(ctx, key, hold)
	return args.Get(0).(idempotency.State), args.Error(1)
}

func (m *mockIdempotency) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// seqOTP hands out codes in order.
type seqOTP struct {
	codes []string
	err   error
}

func (s *seqOTP) Generate() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	code := s.codes[0]
	s.codes = s.codes[1:]
	return code, nil
}

type staticUID int64

func (s staticUID) Generate() int64 { return int64(s) }

type staticID string

func (s staticID) Generate() string { return string(s) }

var mockAny = mock.Anything
