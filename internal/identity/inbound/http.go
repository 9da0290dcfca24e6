package inbound

import (
	"context"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/identity/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/router"
)

type uc interface {
	SendRegistrationOTP(ctx context.Context, in usecase.SendRegistrationOTPInput) error
	VerifyRegistrationOTP(ctx context.Context, in usecase.VerifyRegistrationOTPInput) error
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Me(ctx context.Context) (*entity.User, error)

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) error
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error
	PasswordOTPRequest(ctx context.Context) error
	PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error

	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) (*entity.User, error)

	UserList(ctx context.Context, in usecase.UserListInput) (*usecase.UserListOutput, error)
	UserDetail(ctx context.Context, in usecase.UserDetailInput) (*entity.User, error)
	UserExport(ctx context.Context) (*usecase.UserExportOutput, error)
	Flush(ctx context.Context) (*entity.FlushResult, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Registration & Authentication
	r.POST("/api/auth/send-otp", end.SendOTP)
	r.POST("/api/auth/verify-registration-otp", end.VerifyRegistrationOTP)
	r.POST("/api/auth/register", end.Register)
	r.POST("/api/auth/login", end.Login)
	r.GET("/api/auth/me", end.Me) // need authenticated

	// Password Management
	r.POST("/api/auth/forgot-password", end.ForgotPassword)
	r.POST("/api/auth/verify-otp", end.VerifyOTP)
	r.POST("/api/auth/reset-password", end.ResetPassword)
	r.POST("/api/users/me/request-password-otp", end.RequestPasswordOTP) // need authenticated
	r.POST("/api/users/me/change-password", end.ChangePassword)          // need authenticated

	// Profile (need authenticated)
	r.PUT("/api/users/me", end.ProfileUpdate)

	// Admin (need authenticated & authorization)
	r.GET("/api/users", end.UserList)
	r.DELETE("/api/admin/registrations", end.Flush)

	// httprouter cannot mix static and wildcard segments at one level, so
	// GET /api/users/me and /api/users/export are dispatched from here.
	r.GET("/api/users/:id", end.UserByPath)
}
