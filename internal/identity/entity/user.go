package entity

import "time"

// MaxMembers is the number of team members allowed besides the lead.
const MaxMembers = 3

type Member struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	College string `json:"college"`
	Dept    string `json:"dept"`
	Year    string `json:"year"`
}

type Profile struct {
	Name     string
	Phone    string
	TeamName string
	College  string
	Dept     string
	Year     string
	Members  []Member
}

type User struct {
	ID       int64
	Username string
	Email    string
	Password string // hashed
	Profile
	Role         Role
	OTP          *string // hashed
	OTPPurpose   OTPPurpose
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type NewUser struct {
	ID       int64
	Username string
	Email    string
	Password string // hashed
	Profile
	Role Role
}

type UserOTP struct {
	UserID    int64
	OTP       string // hashed
	Purpose   OTPPurpose
	ExpiresAt time.Time
}

type UserListFilter struct {
	Search string
	Limit  int32
	Offset int32
}

type FlushResult struct {
	Users            int64
	RegistrationOTPs int64
}
