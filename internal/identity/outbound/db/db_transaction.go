package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/datasprint/internal/identity/entity"
)

// NewRegistration inserts the user and consumes the registration code of
// its email in one transaction.
func (s *DB) NewRegistration(ctx context.Context, user entity.NewUser) (err error) {
	ctx, span := s.startSpan(ctx, "NewRegistration")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `INSERT INTO users
		(id, username, email, password, name, phone, team_name, college, dept, year, members, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.Username, user.Email, user.Password, user.Name, user.Phone, user.TeamName,
		user.College, user.Dept, user.Year, membersOrEmpty(user.Members), user.Role.String(),
	); err != nil {
		return s.mapError(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM registration_otps WHERE email = $1`, user.Email); err != nil {
		return s.mapError(err)
	}

	return s.mapError(tx.Commit(ctx))
}

// FlushRegistrations removes every non-admin user and every registration code.
func (s *DB) FlushRegistrations(ctx context.Context) (_ entity.FlushResult, err error) {
	ctx, span := s.startSpan(ctx, "FlushRegistrations")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return entity.FlushResult{}, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	users, err := tx.Exec(ctx, `DELETE FROM users WHERE role <> 'admin'`)
	if err != nil {
		return entity.FlushResult{}, s.mapError(err)
	}

	otps, err := tx.Exec(ctx, `DELETE FROM registration_otps`)
	if err != nil {
		return entity.FlushResult{}, s.mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return entity.FlushResult{}, s.mapError(err)
	}

	return entity.FlushResult{
		Users:            users.RowsAffected(),
		RegistrationOTPs: otps.RowsAffected(),
	}, nil
}
