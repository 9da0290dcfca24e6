package inbound

import (
	"github.com/shandysiswandi/datasprint/internal/identity/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for registration, authentication and
// the admin dashboard.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP emails a registration code to a prospective team lead.
// @Summary Send registration OTP
// @Description Generates a 6 digit code valid for 2 minutes and emails it. A new request replaces the previous code.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Email to verify"
// @Success 200 {object} router.successResponse "OTP sent"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Requested too soon"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/send-otp [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SendRegistrationOTP(r.Context(), usecase.SendRegistrationOTPInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return SendOTPResponse{}, nil
}

// VerifyRegistrationOTP checks a registration code.
// @Summary Verify registration OTP
// @Description Succeeds while the code matches and has not expired. The code stays valid until it expires or registration completes.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyRegistrationOTPRequest true "Email and code"
// @Success 200 {object} router.successResponse "Email verified"
// @Failure 400 {object} router.errorResponse "Invalid or expired OTP"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/verify-registration-otp [post]
func (h *HTTPEndpoint) VerifyRegistrationOTP(r *router.Request) (any, error) {
	var req VerifyRegistrationOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.VerifyRegistrationOTP(r.Context(), usecase.VerifyRegistrationOTPInput{
		Email: req.Email,
		OTP:   req.OTP,
	}); err != nil {
		return nil, err
	}

	return VerifyRegistrationOTPResponse{}, nil
}

// Register creates the team account.
// @Summary Register team
// @Description Creates the lead account with up to three members and returns a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registered"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 403 {object} router.errorResponse "Email not verified"
// @Failure 409 {object} router.errorResponse "Username or Lead Email already registered"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	members := make([]usecase.MemberInput, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, usecase.MemberInput(m))
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		TeamName: req.TeamName,
		Name:     req.Name,
		Phone:    req.Phone,
		College:  req.College,
		Dept:     req.Dept,
		Year:     req.Year,
		Members:  members,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		User:  toAuthUser(resp.User, false),
		Token: resp.Token,
	}, nil
}

// Login authenticates a team lead.
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authenticated"
// @Failure 400 {object} router.errorResponse "Validation error"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		User:  toAuthUser(resp.User, true),
		Token: resp.Token,
	}, nil
}

// Me returns the authenticated account.
// @Summary Current user
// @Tags Auth, Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=MeResponse} "Current user"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/auth/me [get]
// @Router /api/users/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	user, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return MeResponse{User: toUserResponse(*user)}, nil
}

// ForgotPassword emails a password reset code.
// @Summary Forgot password
// @Tags Password
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Username"
// @Success 200 {object} router.successResponse "OTP sent"
// @Failure 404 {object} router.errorResponse "User not found"
// @Failure 429 {object} router.errorResponse "Requested too soon"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/forgot-password [post]
func (h *HTTPEndpoint) ForgotPassword(r *router.Request) (any, error) {
	var req ForgotPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{Username: req.Username}); err != nil {
		return nil, err
	}

	return ForgotPasswordResponse{}, nil
}

// VerifyOTP checks a password reset code without spending it.
// @Summary Verify reset OTP
// @Tags Password
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Username and code"
// @Success 200 {object} router.successResponse "OTP verified"
// @Failure 400 {object} router.errorResponse "Invalid or expired OTP"
// @Router /api/auth/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Username: req.Username,
		OTP:      req.OTP,
	}); err != nil {
		return nil, err
	}

	return VerifyOTPResponse{}, nil
}

// ResetPassword sets a new password with a reset code.
// @Summary Reset password
// @Tags Password
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Username, code and new password"
// @Success 200 {object} router.successResponse "Password reset"
// @Failure 400 {object} router.errorResponse "Invalid or expired OTP"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/auth/reset-password [post]
func (h *HTTPEndpoint) ResetPassword(r *router.Request) (any, error) {
	var req ResetPasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		Username:    req.Username,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return ResetPasswordResponse{}, nil
}

// RequestPasswordOTP emails a password change code to the signed in user.
// @Summary Request password change OTP
// @Tags Password
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse "Code sent"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Failure 500 {object} router.errorResponse "Email dispatch failed"
// @Router /api/users/me/request-password-otp [post]
func (h *HTTPEndpoint) RequestPasswordOTP(r *router.Request) (any, error) {
	if err := h.uc.PasswordOTPRequest(r.Context()); err != nil {
		return nil, err
	}

	return RequestPasswordOTPResponse{}, nil
}

// ChangePassword sets a new password with a change code.
// @Summary Change password
// @Tags Password
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Code and new password"
// @Success 200 {object} router.successResponse "Password changed"
// @Failure 400 {object} router.errorResponse "Invalid or expired OTP"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Router /api/users/me/change-password [post]
func (h *HTTPEndpoint) ChangePassword(r *router.Request) (any, error) {
	var req ChangePasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordChange(r.Context(), usecase.PasswordChangeInput{
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return ChangePasswordResponse{}, nil
}

// ProfileUpdate edits the team profile of the signed in user.
// @Summary Update profile
// @Description Only name, phone, teamName, college, dept, year and members may be sent. Any other key is rejected.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProfileUpdateRequest true "Fields to change"
// @Success 200 {object} router.successResponse{data=ProfileUpdateResponse} "Updated"
// @Failure 400 {object} router.errorResponse "Unknown field or validation error"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Router /api/users/me [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req ProfileUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	in := usecase.ProfileUpdateInput{
		Name:     req.Name,
		Phone:    req.Phone,
		TeamName: req.TeamName,
		College:  req.College,
		Dept:     req.Dept,
		Year:     req.Year,
	}
	if req.Members != nil {
		members := make([]usecase.MemberInput, 0, len(*req.Members))
		for _, m := range *req.Members {
			members = append(members, usecase.MemberInput(m))
		}
		in.Members = &members
	}

	user, err := h.uc.ProfileUpdate(r.Context(), in)
	if err != nil {
		return nil, err
	}

	return ProfileUpdateResponse{User: toUserResponse(*user)}, nil
}

// UserList pages registered teams.
// @Summary List registrations
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Username, name, team or email contains"
// @Param page query int false "Page, from 1"
// @Param size query int false "Page size, up to 100"
// @Success 200 {object} router.successResponse{data=UsersResponse} "Registrations"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Router /api/users [get]
func (h *HTTPEndpoint) UserList(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}

	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.UserList(r.Context(), usecase.UserListInput{
		Search: r.GetQuery("search"),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		return nil, err
	}

	users := make([]UserListItemResponse, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, UserListItemResponse{
			ID:        u.ID,
			Username:  u.Username,
			Name:      u.Name,
			TeamName:  u.TeamName,
			CreatedAt: u.CreatedAt,
		})
	}

	return UsersResponse{
		Users: users,
		total: resp.Total,
		size:  resp.Size,
		page:  resp.Page,
	}, nil
}

// UserByPath serves GET /api/users/:id for the literal ids "me" and "export"
// as well as numeric ids.
func (h *HTTPEndpoint) UserByPath(r *router.Request) (any, error) {
	switch r.GetParam("id") {
	case "me":
		return h.Me(r)
	case "export":
		return h.UserExport(r)
	default:
		return h.UserDetail(r)
	}
}

// UserDetail returns one registration.
// @Summary Registration detail
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} router.successResponse{data=UserDetailResponse} "Registration"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Failure 404 {object} router.errorResponse "User not found"
// @Router /api/users/{id} [get]
func (h *HTTPEndpoint) UserDetail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	user, err := h.uc.UserDetail(r.Context(), usecase.UserDetailInput{ID: id})
	if err != nil {
		return nil, err
	}

	return UserDetailResponse{User: toUserResponse(*user)}, nil
}

// UserExport downloads every registration as CSV.
// @Summary Export registrations
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file "DATASPRINT_REGISTRATIONS.csv"
// @Failure 401 {object} router.errorResponse "Invalid or expired token"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Router /api/users/export [get]
func (h *HTTPEndpoint) UserExport(r *router.Request) (any, error) {
	resp, err := h.uc.UserExport(r.Context())
	if err != nil {
		return nil, err
	}

	return &router.File{
		Name:        resp.FileName,
		ContentType: resp.ContentType,
		Body:        resp.Body,
	}, nil
}

// Flush removes every non-admin registration.
// @Summary Flush registrations
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=FlushResponse} "Counts removed"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Router /api/admin/registrations [delete]
func (h *HTTPEndpoint) Flush(r *router.Request) (any, error) {
	resp, err := h.uc.Flush(r.Context())
	if err != nil {
		return nil, err
	}

	return FlushResponse{
		DeletedUsers:            resp.Users,
		DeletedRegistrationOTPs: resp.RegistrationOTPs,
	}, nil
}
