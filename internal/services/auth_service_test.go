package services_test

import (
	"testing"

	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/internal/testutil"
	"bolsafeucn/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()
	svc := services.NewAuthService(repositories.NewUserRepository())

	// 1. Регистрация студента
	registered, err := svc.Register(ctx, db, &dto.RegisterRequest{
		Email:     "ana@alumnos.ucn.cl",
		Password:  "secreto123",
		Role:      models.UserRoleStudent,
		FirstName: "Ana",
		LastName:  "Rojas",
		Career:    "Ingeniería Civil",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, "Ana Rojas", registered.User.DisplayName)

	claims, err := auth.ParseToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, models.UserRoleStudent, claims.Role)

	var profile models.StudentProfile
	require.NoError(t, db.Where("user_id = ?", registered.User.ID).First(&profile).Error)
	assert.Equal(t, "Ingeniería Civil", profile.Career)

	// 2. Email занят
	_, err = svc.Register(ctx, db, &dto.RegisterRequest{
		Email:     "ana@alumnos.ucn.cl",
		Password:  "secreto123",
		Role:      models.UserRoleStudent,
		FirstName: "Otra",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	// 3. Вход
	logged, err := svc.Login(ctx, db, &dto.LoginRequest{Email: "ana@alumnos.ucn.cl", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)

	_, err = svc.Login(ctx, db, &dto.LoginRequest{Email: "ana@alumnos.ucn.cl", Password: "incorrecta"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, db, &dto.LoginRequest{Email: "nadie@ucn.cl", Password: "secreto123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// 4. Me
	me, err := svc.Me(ctx, db, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@alumnos.ucn.cl", me.Email)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewAuthService(repositories.NewUserRepository())

	_, err := svc.Register(testutil.Context(), db, &dto.RegisterRequest{
		Email:     "root@ucn.cl",
		Password:  "secreto123",
		Role:      models.UserRoleAdmin,
		FirstName: "Root",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)
}

func TestLogin_SuspendedAccount(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewAuthService(repositories.NewUserRepository())
	user := testutil.CreateUser(t, db, models.UserRoleIndividual, "pedro@gmail.com")
	require.NoError(t, db.Model(user).Update("status", models.UserStatusSuspended).Error)

	_, err := svc.Login(testutil.Context(), db, &dto.LoginRequest{Email: user.Email, Password: testutil.DefaultPassword})
	assert.ErrorIs(t, err, apperrors.ErrAccountInactive)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := testutil.Context()
	svc := services.NewAuthService(repositories.NewUserRepository())

	created, err := svc.EnsureAdmin(ctx, db, "admin@ucn.cl", "adminpass1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, db, "admin@ucn.cl", "adminpass1")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.EnsureAdmin(ctx, db, "", "")
	require.NoError(t, err)
	assert.False(t, created)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@ucn.cl").First(&admin).Error)
	assert.Equal(t, models.UserRoleAdmin, admin.Role)
}
