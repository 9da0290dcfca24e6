package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const userColumns = `id, username, email, password, name, phone, team_name, college, dept, year,
	members, role, otp, otp_purpose, otp_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u       entity.User
		role    string
		purpose *int16
	)

	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.Name, &u.Phone, &u.TeamName,
		&u.College, &u.Dept, &u.Year, &u.Members, &role, &u.OTP, &purpose,
		&u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Role = entity.Role(role)
	if purpose != nil {
		u.OTPPurpose = entity.OTPPurpose(*purpose)
	}
	if u.Members == nil {
		u.Members = []entity.Member{}
	}

	return &u, nil
}

func membersOrEmpty(m []entity.Member) []entity.Member {
	if m == nil {
		return []entity.Member{}
	}
	return m
}
