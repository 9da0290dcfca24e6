package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/pkg/hash"
	"github.com/shandysiswandi/datasprint/internal/pkg/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func withOTP(u *entity.User, digest string, purpose entity.OTPPurpose, expiresAt time.Time) *entity.User {
	u.OTP = &digest
	u.OTPPurpose = purpose
	u.OTPExpiresAt = &expiresAt
	return u
}

func TestUsecase_PasswordForgot(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.db.On("GetUserByUsername", mockAny, "alpha").Return(testUser(42, entity.RoleUser), nil)
		f.idemp.On("Acquire", mockAny, "otp_cooldown:reset:user:42", 30*time.Second).Return(idempotency.StateNone, nil)
		f.db.On("SetUserOTP", mockAny, entity.UserOTP{
			UserID:    42,
			OTP:       f.digest(t, "123456"),
			Purpose:   entity.OTPPurposePasswordReset,
			ExpiresAt: t0.Add(2 * time.Minute),
		}).Return(nil)
		f.mail.On("SendOTP", mockAny, OTPMail{
			Kind:     OTPMailPasswordReset,
			To:       "lead@x.com",
			Code:     "123456",
			ValidFor: 2 * time.Minute,
		}).Return(nil)

		// Act
		err := f.uc.PasswordForgot(context.Background(), PasswordForgotInput{Username: "alpha"})

		// Assert
		require.NoError(t, err)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByUsername", mockAny, "ghost").Return(nil, goerror.ErrNotFound)

		err := f.uc.PasswordForgot(context.Background(), PasswordForgotInput{Username: "ghost"})

		assertCode(t, err, goerror.CodeNotFound)
	})
}

func TestUsecase_VerifyOTP(t *testing.T) {
	t.Run("DoesNotClear", func(t *testing.T) {
		f := newFixture(t)
		user := withOTP(testUser(42, entity.RoleUser), f.digest(t, "123456"), entity.OTPPurposePasswordReset, t0.Add(time.Minute))
		f.db.On("GetUserByUsername", mockAny, "alpha").Return(user, nil)

		require.NoError(t, f.uc.VerifyOTP(context.Background(), VerifyOTPInput{Username: "alpha", OTP: "123456"}))
		require.NoError(t, f.uc.VerifyOTP(context.Background(), VerifyOTPInput{Username: "alpha", OTP: "123456"}))
		f.db.AssertNotCalled(t, "ResetUserPassword", mockAny, mockAny, mockAny, mockAny)
	})

	t.Run("OTPMustBeSixChars", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{Username: "alpha", OTP: "12345"})

		assertCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("GenericFailure", func(t *testing.T) {
		tests := []struct {
			name string
			user func(f *fixture) *entity.User
			code string
		}{
			{name: "NoPendingCode", user: func(*fixture) *entity.User { return testUser(42, entity.RoleUser) }, code: "123456"},
			{name: "WrongCode", user: func(f *fixture) *entity.User {
				return withOTP(testUser(42, entity.RoleUser), f.digest(t, "123456"), entity.OTPPurposePasswordReset, t0.Add(time.Minute))
			}, code: "000000"},
			{name: "Expired", user: func(f *fixture) *entity.User {
				return withOTP(testUser(42, entity.RoleUser), f.digest(t, "123456"), entity.OTPPurposePasswordReset, t0)
			}, code: "123456"},
			{name: "ChangeCodeOnResetFlow", user: func(f *fixture) *entity.User {
				return withOTP(testUser(42, entity.RoleUser), f.digest(t, "123456"), entity.OTPPurposePasswordChange, t0.Add(time.Minute))
			}, code: "123456"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				f.db.On("GetUserByUsername", mockAny, "alpha").Return(tt.user(f), nil)

				err := f.uc.VerifyOTP(context.Background(), VerifyOTPInput{Username: "alpha", OTP: tt.code})

				assertCode(t, err, goerror.CodeBadRequest)
				assert.EqualError(t, err, errInvalidOTP.Error())
			})
		}
	})
}

func TestUsecase_PasswordReset(t *testing.T) {
	t.Run("UpdatesAndClears", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		digest := f.digest(t, "123456")
		user := withOTP(testUser(42, entity.RoleUser), digest, entity.OTPPurposePasswordReset, t0.Add(time.Minute))
		f.db.On("GetUserByUsername", mockAny, "alpha").Return(user, nil)

		var newHash string
		f.db.On("ResetUserPassword", mockAny, int64(42), digest, mock.MatchedBy(func(h string) bool {
			newHash = h
			return true
		})).Return(nil)

		// Act
		err := f.uc.PasswordReset(context.Background(), PasswordResetInput{Username: "alpha", OTP: "123456", NewPassword: "NewSecret"})

		// Assert
		require.NoError(t, err)
		assert.True(t, f.bcrypt.Verify(newHash, "NewSecret"))
	})

	t.Run("CodeSpentConcurrently", func(t *testing.T) {
		f := newFixture(t)
		user := withOTP(testUser(42, entity.RoleUser), f.digest(t, "123456"), entity.OTPPurposePasswordReset, t0.Add(time.Minute))
		f.db.On("GetUserByUsername", mockAny, "alpha").Return(user, nil)
		f.db.On("ResetUserPassword", mockAny, mockAny, mockAny, mockAny).Return(goerror.ErrNotFound)

		err := f.uc.PasswordReset(context.Background(), PasswordResetInput{Username: "alpha", OTP: "123456", NewPassword: "NewSecret"})

		assertCode(t, err, goerror.CodeBadRequest)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.PasswordReset(context.Background(), PasswordResetInput{Username: "alpha", OTP: "123456", NewPassword: "short"})

		assertCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestUsecase_PasswordChangeFlow(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := authCtx(42, "alpha")

	user := testUser(42, entity.RoleUser)
	user.Password = f.passwordHash(t, "OldSecret")
	f.db.On("GetUserByID", mockAny, int64(42)).Return(user, nil)
	f.idemp.On("Acquire", mockAny, "otp_cooldown:change:user:42", 30*time.Second).Return(idempotency.StateNone, nil)
	f.db.On("SetUserOTP", mockAny, mockAny).Run(func(args mock.Arguments) {
		in := args.Get(1).(entity.UserOTP)
		withOTP(user, in.OTP, in.Purpose, in.ExpiresAt)
	}).Return(nil)
	f.mail.On("SendOTP", mockAny, OTPMail{
		Kind:     OTPMailPasswordChange,
		To:       "lead@x.com",
		Code:     "123456",
		ValidFor: 5 * time.Minute,
	}).Return(nil)
	f.db.On("ResetUserPassword", mockAny, int64(42), f.digest(t, "123456"), mockAny).Run(func(args mock.Arguments) {
		user.Password = args.String(3)
		user.OTP, user.OTPExpiresAt, user.OTPPurpose = nil, nil, entity.OTPPurposeUnknown
	}).Return(nil)
	f.db.On("GetUserByUsername", mockAny, "alpha").Return(user, nil)

	// Act
	requestErr := f.uc.PasswordOTPRequest(ctx)
	f.clock.Advance(4 * time.Minute)
	wrongErr := f.uc.PasswordChange(ctx, PasswordChangeInput{OTP: "000000", NewPassword: "NewSecret"})
	changeErr := f.uc.PasswordChange(ctx, PasswordChangeInput{OTP: "123456", NewPassword: "NewSecret"})
	replayErr := f.uc.PasswordChange(ctx, PasswordChangeInput{OTP: "123456", NewPassword: "Another1"})
	_, newLoginErr := f.uc.Login(context.Background(), LoginInput{Username: "alpha", Password: "NewSecret"})
	_, oldLoginErr := f.uc.Login(context.Background(), LoginInput{Username: "alpha", Password: "OldSecret"})

	// Assert
	require.NoError(t, requestErr)
	assertCode(t, wrongErr, goerror.CodeBadRequest)
	require.NoError(t, changeErr)
	assertCode(t, replayErr, goerror.CodeBadRequest)
	require.NoError(t, newLoginErr)
	assertCode(t, oldLoginErr, goerror.CodeUnauthorized)
}

func TestUsecase_PasswordOTPRequest_MailFailure(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.On("GetUserByID", mockAny, int64(42)).Return(testUser(42, entity.RoleUser), nil)
	f.idemp.On("Acquire", mockAny, mockAny, mockAny).Return(idempotency.StateNone, nil)
	f.db.On("SetUserOTP", mockAny, mockAny).Return(nil)
	f.mail.On("SendOTP", mockAny, mockAny).Return(errors.New("provider down"))
	f.idemp.On("Release", mockAny, "otp_cooldown:change:user:42").Return(nil)

	// Act
	err := f.uc.PasswordOTPRequest(authCtx(42, "alpha"))

	// Assert
	assertCode(t, err, goerror.CodeInternal)
}

func TestUsecase_OTPCooldownPerPurpose(t *testing.T) {
	// Arrange
	f := newFixture(t)
	user := testUser(42, entity.RoleUser)
	f.db.On("GetUserByUsername", mockAny, "alpha").Return(user, nil)
	f.db.On("GetUserByID", mockAny, int64(42)).Return(user, nil)
	f.idemp.On("Acquire", mockAny, "otp_cooldown:reset:user:42", 30*time.Second).Return(idempotency.StateInProgress, nil)
	f.idemp.On("Acquire", mockAny, "otp_cooldown:change:user:42", 30*time.Second).Return(idempotency.StateNone, nil)
	f.db.On("SetUserOTP", mockAny, mock.MatchedBy(func(in entity.UserOTP) bool {
		return in.Purpose == entity.OTPPurposePasswordChange
	})).Return(nil).Once()
	f.mail.On("SendOTP", mockAny, mock.MatchedBy(func(m OTPMail) bool {
		return m.Kind == OTPMailPasswordChange
	})).Return(nil).Once()

	// Act
	forgotErr := f.uc.PasswordForgot(context.Background(), PasswordForgotInput{Username: "alpha"})
	changeErr := f.uc.PasswordOTPRequest(authCtx(42, "alpha"))

	// Assert
	assertCode(t, forgotErr, goerror.CodeTooManyRequest)
	require.NoError(t, changeErr)
}

func TestUsecase_PasswordResetTooLongWithPepper(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.uc.bcrypt = hash.NewBcrypt(bcrypt.MinCost, "pepper")
	user := withOTP(testUser(42, entity.RoleUser), f.digest(t, "123456"), entity.OTPPurposePasswordReset, t0.Add(time.Minute))
	f.db.On("GetUserByUsername", mockAny, "alpha").Return(user, nil)

	// Act
	err := f.uc.PasswordReset(context.Background(), PasswordResetInput{
		Username:    "alpha",
		OTP:         "123456",
		NewPassword: strings.Repeat("é", 34),
	})

	// Assert
	assertCode(t, err, goerror.CodeInvalidInput)
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Fields(), "new_password")
	f.db.AssertNotCalled(t, "ResetUserPassword", mockAny, mockAny, mockAny, mockAny)
}
