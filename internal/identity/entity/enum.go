package entity

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// OTPPurpose tells which flow issued the one-time code stored on a user.
type OTPPurpose int16

const (
	// OTPPurposeUnknown is mean no code is pending.
	OTPPurposeUnknown OTPPurpose = 0

	// OTPPurposePasswordReset is issued by forgot-password, before login.
	OTPPurposePasswordReset OTPPurpose = 1

	// OTPPurposePasswordChange is issued to an authenticated user.
	OTPPurposePasswordChange OTPPurpose = 2
)

func (p OTPPurpose) String() string {
	switch p {
	case OTPPurposePasswordReset:
		return "PasswordReset"
	case OTPPurposePasswordChange:
		return "PasswordChange"
	default:
		return "Unknown"
	}
}
