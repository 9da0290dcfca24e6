package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/identity/usecase"
	"github.com/shandysiswandi/datasprint/internal/pkg/config"
	"github.com/shandysiswandi/datasprint/internal/pkg/instrument"
	"github.com/shandysiswandi/datasprint/internal/pkg/jwt"
	"github.com/shandysiswandi/datasprint/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUC struct {
	mock.Mock
}

func (m *mockUC) SendRegistrationOTP(ctx context.Context, in usecase.SendRegistrationOTPInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) VerifyRegistrationOTP(ctx context.Context, in usecase.VerifyRegistrationOTPInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.RegisterOutput)
	return out, args.Error(1)
}

func (m *mockUC) Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.LoginOutput)
	return out, args.Error(1)
}

func (m *mockUC) Me(ctx context.Context) (*entity.User, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *mockUC) PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) PasswordOTPRequest(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUC) PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) (*entity.User, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *mockUC) UserList(ctx context.Context, in usecase.UserListInput) (*usecase.UserListOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*usecase.UserListOutput)
	return out, args.Error(1)
}

func (m *mockUC) UserDetail(ctx context.Context, in usecase.UserDetailInput) (*entity.User, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*entity.User)
	return out, args.Error(1)
}

func (m *mockUC) UserExport(ctx context.Context) (*usecase.UserExportOutput, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*usecase.UserExportOutput)
	return out, args.Error(1)
}

func (m *mockUC) Flush(ctx context.Context) (*entity.FlushResult, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(*entity.FlushResult)
	return out, args.Error(1)
}

type fakeVerifier struct{}

func (fakeVerifier) Generate(int64, string) (string, error) { return "", nil }

func (fakeVerifier) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: 42, Username: "lead@datasprint"}, nil
}

type staticID string

func (s staticID) Generate() string { return string(s) }

type envelope struct {
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Meta       map[string]any  `json:"meta"`
	StatusCode int             `json:"status_code"`
}

var created = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func alpha() *entity.User {
	return &entity.User{
		ID:       42,
		Username: "lead@datasprint",
		Email:    "lead@alpha.dev",
		Profile: entity.Profile{
			Name:     "Lead Alpha",
			Phone:    "+6281234567890",
			TeamName: "Alpha",
			College:  "ITB",
			Dept:     "Informatics",
			Year:     "3",
			Members:  []entity.Member{{Name: "Budi"}},
		},
		Role:      entity.RoleUser,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func newServer(t *testing.T) (*router.Router, *mockUC) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  env: development\n"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       staticID("cid-1"),
		JWT:        fakeVerifier{},
		Instrument: instrument.NewNoop(),
	})

	uc := &mockUC{}
	t.Cleanup(func() { uc.AssertExpectations(t) })

	RegisterHTTPEndpoint(r, uc)

	return r, uc
}

func do(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestHTTP_Register(t *testing.T) {
	// Arrange
	r, uc := newServer(t)
	uc.On("Register", mock.Anything, usecase.RegisterInput{
		Username: "lead@datasprint",
		Password: "Secret1",
		Email:    "lead@alpha.dev",
		TeamName: "Alpha",
		Name:     "Lead Alpha",
		Phone:    "+6281234567890",
		College:  "ITB",
		Dept:     "Informatics",
		Year:     "3",
		Members:  []usecase.MemberInput{{Name: "Budi", Email: "budi@alpha.dev"}},
	}).Return(&usecase.RegisterOutput{User: *alpha(), Token: "tok"}, nil).Once()

	body := `{"username":"lead@datasprint","password":"Secret1","email":"lead@alpha.dev","teamName":"Alpha",
"name":"Lead Alpha","phone":"+6281234567890","college":"ITB","dept":"Informatics","year":"3",
"members":[{"name":"Budi","email":"budi@alpha.dev"}]}`

	// Act
	rec := do(r, http.MethodPost, "/api/auth/register", body, "")

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code)

	var data RegisterResponse
	env := decode(t, rec, &data)
	assert.Equal(t, "Registration successful", env.Message)
	assert.Equal(t, "tok", data.Token)
	assert.Equal(t, int64(42), data.User.ID)
	assert.Equal(t, "Alpha", data.User.TeamName)
	assert.Empty(t, data.User.Name)
	assert.Contains(t, string(env.Data), `"id":"42"`)
	assert.Contains(t, string(env.Data), `"teamName":"Alpha"`)
}

func TestHTTP_RegisterRejectsSnakeCaseTeamName(t *testing.T) {
	// Arrange
	r, _ := newServer(t)

	// Act
	rec := do(r, http.MethodPost, "/api/auth/register", `{"username":"lead@datasprint","team_name":"Alpha"}`, "")

	// Assert
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Contains(t, env.Message, `"team_name"`)
}

func TestHTTP_ResetPassword(t *testing.T) {
	// Arrange
	r, uc := newServer(t)
	uc.On("PasswordReset", mock.Anything, usecase.PasswordResetInput{
		Username:    "lead@datasprint",
		OTP:         "123456",
		NewPassword: "Secret2",
	}).Return(nil).Once()

	// Act
	rec := do(r, http.MethodPost, "/api/auth/reset-password",
		`{"username":"lead@datasprint","otp":"123456","newPassword":"Secret2"}`, "")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "Password reset successful", env.Message)
}

func TestHTTP_Login(t *testing.T) {
	// Arrange
	r, uc := newServer(t)
	uc.On("Login", mock.Anything, usecase.LoginInput{Username: "lead@datasprint", Password: "Secret1"}).
		Return(&usecase.LoginOutput{User: *alpha(), Token: "tok"}, nil).Once()

	// Act
	rec := do(r, http.MethodPost, "/api/auth/login", `{"username":"lead@datasprint","password":"Secret1"}`, "")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)

	var data LoginResponse
	decode(t, rec, &data)
	assert.Equal(t, "Lead Alpha", data.User.Name)
	assert.Equal(t, "user", data.User.Role)
}

func TestHTTP_ProfileUpdateRejectsUnknownField(t *testing.T) {
	// Arrange
	r, _ := newServer(t)

	// Act
	rec := do(r, http.MethodPut, "/api/users/me", `{"name":"New","role":"admin"}`, "good")

	// Assert
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
	assert.Contains(t, env.Message, `"role"`)
}

func TestHTTP_ProfileUpdate(t *testing.T) {
	// Arrange
	r, uc := newServer(t)
	name := "New Lead"
	uc.On("ProfileUpdate", mock.Anything, mock.MatchedBy(func(in usecase.ProfileUpdateInput) bool {
		return in.Name != nil && *in.Name == name && in.Phone == nil &&
			in.Members != nil && len(*in.Members) == 0
	})).Return(alpha(), nil).Once()

	// Act
	rec := do(r, http.MethodPut, "/api/users/me", `{"name":"New Lead","members":[]}`, "good")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var data ProfileUpdateResponse
	env := decode(t, rec, &data)
	assert.Equal(t, "Profile updated successfully", env.Message)
	assert.Equal(t, "lead@datasprint", data.User.Username)
}

func TestHTTP_UserByPath(t *testing.T) {
	t.Run("me", func(t *testing.T) {
		// Arrange
		r, uc := newServer(t)
		uc.On("Me", mock.Anything).Return(alpha(), nil).Once()

		// Act
		rec := do(r, http.MethodGet, "/api/users/me", "", "good")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		var data MeResponse
		decode(t, rec, &data)
		assert.Equal(t, int64(42), data.User.ID)
		require.Len(t, data.User.Members, 1)
		assert.Equal(t, "Budi", data.User.Members[0].Name)
	})

	t.Run("export streams csv", func(t *testing.T) {
		// Arrange
		r, uc := newServer(t)
		uc.On("UserExport", mock.Anything).Return(&usecase.UserExportOutput{
			FileName:    usecase.ExportFileName,
			ContentType: "text/csv",
			Body:        []byte("ID,TEAM_NAME\n"),
		}, nil).Once()

		// Act
		rec := do(r, http.MethodGet, "/api/users/export", "", "good")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=DATASPRINT_REGISTRATIONS.csv", rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "ID,TEAM_NAME\n", rec.Body.String())
	})

	t.Run("export requires token", func(t *testing.T) {
		// Arrange
		r, _ := newServer(t)

		// Act
		rec := do(r, http.MethodGet, "/api/users/export", "", "")

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("detail by id", func(t *testing.T) {
		// Arrange
		r, uc := newServer(t)
		uc.On("UserDetail", mock.Anything, usecase.UserDetailInput{ID: 42}).Return(alpha(), nil).Once()

		// Act
		rec := do(r, http.MethodGet, "/api/users/42", "", "good")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		var data UserDetailResponse
		decode(t, rec, &data)
		assert.Equal(t, "lead@alpha.dev", data.User.Email)
	})

	t.Run("non numeric id", func(t *testing.T) {
		// Arrange
		r, _ := newServer(t)

		// Act
		rec := do(r, http.MethodGet, "/api/users/abc", "", "good")

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTP_UserList(t *testing.T) {
	// Arrange
	r, uc := newServer(t)
	uc.On("UserList", mock.Anything, usecase.UserListInput{Search: "alp", Page: 2, Size: 5}).
		Return(&usecase.UserListOutput{Page: 2, Size: 5, Total: 6, Users: []entity.User{*alpha()}}, nil).Once()

	// Act
	rec := do(r, http.MethodGet, "/api/users?search=alp&page=2&size=5", "", "good")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var data UsersResponse
	env := decode(t, rec, &data)
	require.Len(t, data.Users, 1)
	assert.Equal(t, "Alpha", data.Users[0].TeamName)
	assert.EqualValues(t, 6, env.Meta["total"])
	assert.EqualValues(t, 2, env.Meta["page"])
}

func TestHTTP_Flush(t *testing.T) {
	// Arrange
	r, uc := newServer(t)
	uc.On("Flush", mock.Anything).Return(&entity.FlushResult{Users: 3, RegistrationOTPs: 2}, nil).Once()

	// Act
	rec := do(r, http.MethodDelete, "/api/admin/registrations", "", "good")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var data FlushResponse
	decode(t, rec, &data)
	assert.Equal(t, FlushResponse{DeletedUsers: 3, DeletedRegistrationOTPs: 2}, data)
}

func TestHTTP_PasswordFlow(t *testing.T) {
	// Arrange
	r, uc := newServer(t)
	uc.On("PasswordOTPRequest", mock.Anything).Return(nil).Once()
	uc.On("PasswordChange", mock.Anything, usecase.PasswordChangeInput{OTP: "123456", NewPassword: "Secret2"}).Return(nil).Once()

	// Act
	otpRec := do(r, http.MethodPost, "/api/users/me/request-password-otp", "", "good")
	changeRec := do(r, http.MethodPost, "/api/users/me/change-password", `{"otp":"123456","newPassword":"Secret2"}`, "good")

	// Assert
	assert.Equal(t, http.StatusOK, otpRec.Code)
	assert.Equal(t, http.StatusOK, changeRec.Code)
}
