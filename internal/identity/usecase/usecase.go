package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/clock"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/pkg/goroutine"
	"github.com/shandysiswandi/datasprint/internal/pkg/hash"
	"github.com/shandysiswandi/datasprint/internal/pkg/idempotency"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/jwt"
	"github.com/shandysiswandi/datasprint/internal/pkg/otp"
	"github.com/shandysiswandi/datasprint/internal/pkg/storage"
	"github.com/shandysiswandi/datasprint/internal/pkg/uid"
	"github.com/shandysiswandi/datasprint/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// Fallbacks for config keys left unset.
const (
	defaultRegistrationOTPTTL   = 2 * time.Minute
	defaultPasswordResetOTPTTL  = 2 * time.Minute
	defaultPasswordChangeOTPTTL = 5 * time.Minute
	defaultVerifiedEmailTTL     = 30 * time.Minute
)

var errInvalidOTP = goerror.NewBusiness("Invalid or expired OTP", goerror.CodeBadRequest)

type TeamRegisteredEvent struct {
	UserID       int64
	Username     string
	Email        string
	Name         string
	TeamName     string
	College      string
	Members      []entity.Member
	RegisteredAt time.Time
}

type OTPMailKind int

const (
	OTPMailRegistration OTPMailKind = iota + 1
	OTPMailPasswordReset
	OTPMailPasswordChange
)

type OTPMail struct {
	Kind     OTPMailKind
	To       string
	Code     string
	ValidFor time.Duration
}

type repoMessaging interface {
	PublishTeamRegistered(ctx context.Context, msg TeamRegisteredEvent) error
}

type repoMail interface {
	SendOTP(ctx context.Context, in OTPMail) error
}

type repoStorage interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error)
}

type repoDB interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	UserExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetRegistrationOTP(ctx context.Context, email string) (*entity.RegistrationOTP, error)
	GetUserList(ctx context.Context, filter entity.UserListFilter) ([]entity.User, int64, error)
	GetUsersForExport(ctx context.Context) ([]entity.User, error)

	UpsertRegistrationOTP(ctx context.Context, in entity.RegistrationOTP) error
	MarkRegistrationOTPVerified(ctx context.Context, email string, at time.Time) error
	SetUserOTP(ctx context.Context, in entity.UserOTP) error
	ResetUserPassword(ctx context.Context, userID int64, otpHash, newHash string) error
	UpdateUserProfile(ctx context.Context, id int64, p entity.Profile) error
	UpdateUserRoleByEmail(ctx context.Context, email string, role entity.Role) error

	NewRegistration(ctx context.Context, user entity.NewUser) error
	FlushRegistrations(ctx context.Context) (entity.FlushResult, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoMail      repoMail
	repoStorage   repoStorage
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	bcrypt        hash.Hash
	uid           uid.NumberID
	otp           otp.OTP
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoMail      repoMail
	RepoStorage   repoStorage
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	UID           uid.NumberID
	OTP           otp.OTP
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Enforcer      *casbin.Enforcer
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoMail:      dep.RepoMail,
		repoStorage:   dep.RepoStorage,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		uid:           dep.UID,
		otp:           dep.OTP,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) minutes(key string, fallback time.Duration) time.Duration {
	if d := s.cfg.GetMinute(key); d > 0 {
		return d
	}
	return fallback
}

// issueOTP returns a fresh code and its HMAC digest.
func (s *Usecase) issueOTP(ctx context.Context) (string, string, error) {
	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "error", err)
		return "", "", goerror.NewServer(err)
	}

	digest, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp", "error", err)
		return "", "", goerror.NewServer(err)
	}

	return code, string(digest), nil
}

// otpMatches is an exact comparison of the candidate against the stored digest,
// bounded by expiry.
func (s *Usecase) otpMatches(stored *string, expiresAt *time.Time, candidate string) bool {
	if stored == nil || expiresAt == nil {
		return false
	}
	if !otp.Valid(s.clock.Now(), *expiresAt) {
		return false
	}
	return s.hmac.Verify(*stored, candidate)
}

// hashPassword reports a password that only overflows bcrypt once the pepper
// is appended as a field error on field.
func (s *Usecase) hashPassword(ctx context.Context, field, password string) (string, error) {
	digest, err := s.bcrypt.Hash(password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		slog.WarnContext(ctx, "password too long for bcrypt with pepper", "field", field)
		return "", goerror.NewInvalidInput(nil, field, "Password is too long")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return "", goerror.NewServer(err)
	}

	return string(digest), nil
}

// acquireCooldown refuses a new code for key while the previous one is still
// inside the cooldown window. It is disabled when the window is zero.
func (s *Usecase) acquireCooldown(ctx context.Context, key string) (bool, error) {
	window := s.cfg.GetSecond("modules.identity.otp_cooldown_seconds")
	if window <= 0 {
		return false, nil
	}

	state, err := s.idemp.Acquire(ctx, "otp_cooldown:"+key, window)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire otp cooldown", "key", key, "error", err)
		return false, goerror.NewServer(err)
	}

	if state != idempotency.StateNone {
		slog.WarnContext(ctx, "otp requested inside cooldown window", "key", key)
		return false, goerror.NewBusiness("Please wait before requesting another OTP", goerror.CodeTooManyRequest)
	}

	return true, nil
}

func (s *Usecase) releaseCooldown(ctx context.Context, key string) {
	if err := s.idemp.Release(ctx, "otp_cooldown:"+key); err != nil {
		slog.WarnContext(ctx, "failed to release otp cooldown", "key", key, "error", err)
	}
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// currentUser loads the record behind the token. A token whose user was
// flushed is treated as not found.
func (s *Usecase) currentUser(ctx context.Context) (*entity.User, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated user not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("User not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}

// authenticatedAndAuthorized enforces obj/act against the role stored on the
// user record, so a promotion or demotion applies without a new token.
func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*entity.User, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) && gerr.Code() == goerror.CodeNotFound {
			return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
		}
		return nil, err
	}

	ok, err := s.enforcer.Enforce(user.Role.String(), obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		slog.WarnContext(ctx, "account not allowed", "user_id", user.ID, "role", user.Role, "obj", obj, "act", act)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return user, nil
}
