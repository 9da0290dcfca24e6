package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/datasprint/internal/identity/entity"
)

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByUsername(ctx context.Context, username string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByUsername")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

// UserExistsByUsernameOrEmail checks both unique fields in one query.
func (s *DB) UserExistsByUsernameOrEmail(ctx context.Context, username, email string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UserExistsByUsernameOrEmail")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	err = s.conn.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)
	)`, username, email).Scan(&exists)
	if err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}

func (s *DB) GetRegistrationOTP(ctx context.Context, email string) (_ *entity.RegistrationOTP, err error) {
	ctx, span := s.startSpan(ctx, "GetRegistrationOTP")
	defer func() { s.endSpan(span, err) }()

	var ro entity.RegistrationOTP
	err = s.conn.QueryRow(ctx, `SELECT email, otp, expires_at, verified_at, updated_at
		FROM registration_otps WHERE email = $1`, email).
		Scan(&ro.Email, &ro.OTP, &ro.ExpiresAt, &ro.VerifiedAt, &ro.UpdatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &ro, nil
}

// GetUserList returns one page ordered newest first plus the total matching rows.
func (s *DB) GetUserList(ctx context.Context, filter entity.UserListFilter) (_ []entity.User, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetUserList")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+userColumns+`, COUNT(*) OVER() AS total
		FROM users
		WHERE role <> 'admin'
		  AND ($1 = '' OR username ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
		       OR team_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	var (
		users = make([]entity.User, 0, filter.Limit)
		total int64
	)
	for rows.Next() {
		var (
			u       entity.User
			role    string
			purpose *int16
		)
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.Password, &u.Name, &u.Phone, &u.TeamName,
			&u.College, &u.Dept, &u.Year, &u.Members, &role, &u.OTP, &purpose,
			&u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt, &total,
		); err != nil {
			return nil, 0, s.mapError(err)
		}
		u.Role = entity.Role(role)
		if purpose != nil {
			u.OTPPurpose = entity.OTPPurpose(*purpose)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	return users, total, nil
}

// GetUsersForExport returns every registered team, newest first.
func (s *DB) GetUsersForExport(ctx context.Context) (_ []entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUsersForExport")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT `+userColumns+`
		FROM users WHERE role <> 'admin' ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, s.mapError(err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return entity.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return users, nil
}
