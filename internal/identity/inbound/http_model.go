package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
)

type SendOTPRequest struct {
	Email string `json:"email"`
}

type SendOTPResponse struct{}

func (SendOTPResponse) Message() string {
	return "OTP sent successfully"
}

type VerifyRegistrationOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyRegistrationOTPResponse struct{}

func (VerifyRegistrationOTPResponse) Message() string {
	return "Email verified successfully"
}

type MemberRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	College string `json:"college"`
	Dept    string `json:"dept"`
	Year    string `json:"year"`
}

type RegisterRequest struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Email    string          `json:"email"`
	TeamName string          `json:"teamName"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	College  string          `json:"college"`
	Dept     string          `json:"dept"`
	Year     string          `json:"year"`
	Members  []MemberRequest `json:"members"`
}

type AuthUserResponse struct {
	ID       int64  `json:"id,string" example:"1893427348234240"`
	Username string `json:"username" example:"lead@datasprint"`
	TeamName string `json:"teamName" example:"Alpha"`
	Name     string `json:"name,omitempty" example:"Lead Alpha"`
	Role     string `json:"role" example:"user"`
}

type RegisterResponse struct {
	User  AuthUserResponse `json:"user"`
	Token string           `json:"token"`
}

func (RegisterResponse) Message() string {
	return "Registration successful"
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  AuthUserResponse `json:"user"`
	Token string           `json:"token"`
}

func (LoginResponse) Message() string {
	return "Login successful"
}

type ForgotPasswordRequest struct {
	Username string `json:"username"`
}

type ForgotPasswordResponse struct{}

func (ForgotPasswordResponse) Message() string {
	return "OTP sent to registered email"
}

type VerifyOTPRequest struct {
	Username string `json:"username"`
	OTP      string `json:"otp"`
}

type VerifyOTPResponse struct{}

func (VerifyOTPResponse) Message() string {
	return "OTP verified"
}

type ResetPasswordRequest struct {
	Username    string `json:"username"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type ResetPasswordResponse struct{}

func (ResetPasswordResponse) Message() string {
	return "Password reset successful"
}

type RequestPasswordOTPResponse struct{}

func (RequestPasswordOTPResponse) Message() string {
	return "Verification code sent to your email"
}

type ChangePasswordRequest struct {
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type ChangePasswordResponse struct{}

func (ChangePasswordResponse) Message() string {
	return "Password updated successfully"
}

// ProfileUpdateRequest is the allow-list of self-editable fields; any other
// key is rejected by the decoder.
type ProfileUpdateRequest struct {
	Name     *string          `json:"name"`
	Phone    *string          `json:"phone"`
	TeamName *string          `json:"teamName"`
	College  *string          `json:"college"`
	Dept     *string          `json:"dept"`
	Year     *string          `json:"year"`
	Members  *[]MemberRequest `json:"members"`
}

type MemberResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	College string `json:"college"`
	Dept    string `json:"dept"`
	Year    string `json:"year"`
}

type UserResponse struct {
	ID        int64            `json:"id,string"`
	Username  string           `json:"username"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	TeamName  string           `json:"teamName"`
	College   string           `json:"college"`
	Dept      string           `json:"dept"`
	Year      string           `json:"year"`
	Members   []MemberResponse `json:"members"`
	Role      string           `json:"role"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

type ProfileUpdateResponse struct {
	User UserResponse `json:"user"`
}

func (ProfileUpdateResponse) Message() string {
	return "Profile updated successfully"
}

type UserListItemResponse struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	TeamName  string    `json:"teamName"`
	CreatedAt time.Time `json:"created_at"`
}

type UsersResponse struct {
	Users []UserListItemResponse `json:"users"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r UsersResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type UserDetailResponse struct {
	User UserResponse `json:"user"`
}

type FlushResponse struct {
	DeletedUsers            int64 `json:"deleted_users"`
	DeletedRegistrationOTPs int64 `json:"deleted_registration_otps"`
}

func (FlushResponse) Message() string {
	return "All non-admin registrations removed"
}

func toAuthUser(u entity.User, withName bool) AuthUserResponse {
	resp := AuthUserResponse{
		ID:       u.ID,
		Username: u.Username,
		TeamName: u.TeamName,
		Role:     u.Role.String(),
	}
	if withName {
		resp.Name = u.Name
	}
	return resp
}

func toUserResponse(u entity.User) UserResponse {
	members := make([]MemberResponse, 0, len(u.Members))
	for _, m := range u.Members {
		members = append(members, MemberResponse(m))
	}

	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		TeamName:  u.TeamName,
		College:   u.College,
		Dept:      u.Dept,
		Year:      u.Year,
		Members:   members,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
