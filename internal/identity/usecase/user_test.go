package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUsecase_ProfileUpdate(t *testing.T) {
	t.Run("OnlyGivenFieldsChange", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.db.On("GetUserByID", mockAny, int64(42)).Return(testUser(42, entity.RoleUser), nil)
		want := testUser(42, entity.RoleUser).Profile
		want.TeamName = "Renamed"
		want.Members = []entity.Member{{Name: "New Member"}}
		f.db.On("UpdateUserProfile", mockAny, int64(42), want).Return(nil)

		// Act
		user, err := f.uc.ProfileUpdate(authCtx(42, "alpha"), ProfileUpdateInput{
			TeamName: ptr(" Renamed "),
			Members:  &[]MemberInput{{Name: "New Member"}},
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Renamed", user.TeamName)
		assert.Equal(t, "alpha", user.Username)
		assert.Equal(t, "lead@x.com", user.Email)
	})

	t.Run("BlankRequiredField", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByID", mockAny, int64(42)).Return(testUser(42, entity.RoleUser), nil)

		_, err := f.uc.ProfileUpdate(authCtx(42, "alpha"), ProfileUpdateInput{Name: ptr("  ")})

		assertCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestUsecase_UserList(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.On("GetUserByID", mockAny, int64(1)).Return(testUser(1, entity.RoleAdmin), nil)
	f.db.On("GetUserList", mockAny, entity.UserListFilter{Search: "alp", Limit: 10, Offset: 10}).
		Return([]entity.User{*testUser(42, entity.RoleUser)}, int64(11), nil)

	// Act
	out, err := f.uc.UserList(authCtx(1, "admin"), UserListInput{Search: " alp ", Page: 2, Size: 500})

	// Assert
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.Page)
	assert.EqualValues(t, 10, out.Size)
	assert.EqualValues(t, 11, out.Total)
	assert.Len(t, out.Users, 1)
}

func TestUsecase_UserList_HugePage(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.On("GetUserByID", mockAny, int64(1)).Return(testUser(1, entity.RoleAdmin), nil)
	f.db.On("GetUserList", mockAny, mock.MatchedBy(func(filter entity.UserListFilter) bool {
		return filter.Limit == 10 && filter.Offset >= 0
	})).Return([]entity.User{}, int64(11), nil)

	// Act
	out, err := f.uc.UserList(authCtx(1, "admin"), UserListInput{Page: math.MaxInt32, Size: 10})

	// Assert
	require.NoError(t, err)
	assert.EqualValues(t, math.MaxInt32/10, out.Page)
	assert.Empty(t, out.Users)
}

func TestUsecase_UserDetail(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByID", mockAny, int64(1)).Return(testUser(1, entity.RoleAdmin), nil)
		f.db.On("GetUserByID", mockAny, int64(42)).Return(testUser(42, entity.RoleUser), nil)

		user, err := f.uc.UserDetail(authCtx(1, "admin"), UserDetailInput{ID: 42})

		require.NoError(t, err)
		assert.EqualValues(t, 42, user.ID)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByID", mockAny, int64(1)).Return(testUser(1, entity.RoleAdmin), nil)
		f.db.On("GetUserByID", mockAny, int64(404)).Return(nil, goerror.ErrNotFound)

		_, err := f.uc.UserDetail(authCtx(1, "admin"), UserDetailInput{ID: 404})

		assertCode(t, err, goerror.CodeNotFound)
	})
}

func TestUsecase_UserExport(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.On("GetUserByID", mockAny, int64(1)).Return(testUser(1, entity.RoleAdmin), nil)

	newest := *testUser(43, entity.RoleUser)
	newest.TeamName = `Quote "Q"`
	newest.Members = []entity.Member{{Name: "M1"}, {Name: "M2"}}
	newest.CreatedAt = time.Date(2026, 3, 2, 8, 30, 0, 123_000_000, time.UTC)
	oldest := *testUser(42, entity.RoleUser)
	f.db.On("GetUsersForExport", mockAny).Return([]entity.User{newest, oldest}, nil)

	archived := make(chan []byte, 1)
	f.store.On("PutObject", mockAny, "exports", "registrations/DATASPRINT_REGISTRATIONS_20260301T100000Z.csv",
		mockAny, mock.MatchedBy(func(o storage.PutOptions) bool { return o.ContentType == "text/csv" })).
		Run(func(args mock.Arguments) { archived <- args.Get(3).([]byte) }).
		Return(storage.ObjectInfo{Bucket: "exports"}, nil)

	// Act
	out, err := f.uc.UserExport(authCtx(1, "admin"))
	waitErr := f.goroutine.Wait()

	// Assert
	require.NoError(t, err)
	require.NoError(t, waitErr)
	assert.Equal(t, "DATASPRINT_REGISTRATIONS.csv", out.FileName)

	lines := strings.Split(string(out.Body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,TEAM_NAME,LEAD_NAME,LEAD_EMAIL,LEAD_PHONE,COLLEGE,DEPT,YEAR,MEMBER_1,MEMBER_2,MEMBER_3,REGISTERED_AT", lines[0])
	assert.Equal(t, `43,"Quote ""Q""","Lead Alpha","lead@x.com","+62 812 3456","ITB","CS","3","M1","M2","---",2026-03-02T08:30:00.123Z`, lines[1])
	assert.Equal(t, `42,"Alpha","Lead Alpha","lead@x.com","+62 812 3456","ITB","CS","3","---","---","---",2026-03-01T10:00:00.000Z`, lines[2])
	assert.Equal(t, out.Body, <-archived)
}

func TestUsecase_UserExport_ArchiveDisabled(t *testing.T) {
	f := newFixture(t, "modules: {identity: {export_archive: {enabled: false}}}")
	f.db.On("GetUserByID", mockAny, int64(1)).Return(testUser(1, entity.RoleAdmin), nil)
	f.db.On("GetUsersForExport", mockAny).Return([]entity.User{}, nil)

	out, err := f.uc.UserExport(authCtx(1, "admin"))

	require.NoError(t, err)
	require.NoError(t, f.goroutine.Wait())
	assert.Equal(t, "ID,TEAM_NAME,LEAD_NAME,LEAD_EMAIL,LEAD_PHONE,COLLEGE,DEPT,YEAR,MEMBER_1,MEMBER_2,MEMBER_3,REGISTERED_AT", string(out.Body))
}

func TestUsecase_Flush(t *testing.T) {
	t.Run("Admin", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByID", mockAny, int64(1)).Return(testUser(1, entity.RoleAdmin), nil)
		f.db.On("FlushRegistrations", mockAny).Return(entity.FlushResult{Users: 5, RegistrationOTPs: 2}, nil)

		res, err := f.uc.Flush(authCtx(1, "admin"))

		require.NoError(t, err)
		assert.EqualValues(t, 5, res.Users)
		assert.EqualValues(t, 2, res.RegistrationOTPs)
	})

	t.Run("NonAdmin", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetUserByID", mockAny, int64(42)).Return(testUser(42, entity.RoleUser), nil)

		_, err := f.uc.Flush(authCtx(42, "alpha"))

		assertCode(t, err, goerror.CodeForbidden)
		f.db.AssertNotCalled(t, "FlushRegistrations", mockAny)
	})

	t.Run("FlushAllRepoFailure", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("FlushRegistrations", mockAny).Return(entity.FlushResult{}, errors.New("db down"))

		_, err := f.uc.FlushAll(context.Background())

		assertCode(t, err, goerror.CodeInternal)
	})
}

func TestUsecase_PromoteAdmin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("UpdateUserRoleByEmail", mockAny, "lead@x.com", entity.RoleAdmin).Return(nil)

		err := f.uc.PromoteAdmin(context.Background(), PromoteAdminInput{Email: " Lead@X.com"})

		require.NoError(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("UpdateUserRoleByEmail", mockAny, "ghost@x.com", entity.RoleAdmin).Return(goerror.ErrNotFound)

		err := f.uc.PromoteAdmin(context.Background(), PromoteAdminInput{Email: "ghost@x.com"})

		assertCode(t, err, goerror.CodeNotFound)
	})
}
