package services

import (
	"context"
	"errors"
	"strings"

	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/models"
	"bolsafeucn/internal/repositories"
	"bolsafeucn/internal/services/dto"
	"bolsafeucn/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, db *gorm.DB, userID uint) (*dto.MeResponse, error)
	EnsureAdmin(ctx context.Context, db *gorm.DB, email, password string) (bool, error)
}

type AuthServiceImpl struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &AuthServiceImpl{userRepo: userRepo}
}

// Register - регистрация с профилем по роли в одной транзакции.
// Подтверждение email не требуется, пользователь сразу активен.
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.Role == models.UserRoleAdmin || !req.Role.IsValid() {
		return nil, apperrors.ErrInvalidUserRole
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(tx, user); err != nil {
		return nil, handleUserError(err)
	}

	profile := buildProfile(user.ID, req)
	if err := s.userRepo.CreateProfile(tx, profile); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	attachProfile(user, profile)
	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "role", user.Role)

	return s.issueToken(user)
}

func buildProfile(userID uint, req *dto.RegisterRequest) models.Profile {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)

	switch req.Role {
	case models.UserRoleStudent:
		return &models.StudentProfile{UserID: userID, FirstName: first, LastName: last, Rut: req.Rut, Career: req.Career}
	case models.UserRoleCompany:
		return &models.CompanyProfile{
			UserID:       userID,
			CompanyName:  strings.TrimSpace(req.CompanyName),
			BusinessName: req.BusinessName,
			Rut:          req.Rut,
		}
	default:
		return &models.IndividualProfile{UserID: userID, FirstName: first, LastName: last, Rut: req.Rut}
	}
}

func attachProfile(user *models.User, profile models.Profile) {
	switch p := profile.(type) {
	case *models.StudentProfile:
		user.StudentProfile = p
	case *models.CompanyProfile:
		user.CompanyProfile = p
	case *models.IndividualProfile:
		user.IndividualProfile = p
	case *models.AdminProfile:
		user.AdminProfile = p
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, handleUserError(err)
	}
	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "Failed login attempt", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, apperrors.ErrAccountInactive
	}

	return s.issueToken(user)
}

func (s *AuthServiceImpl) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(auth.TokenTTL().Seconds()),
		User:        toUserInfo(user),
	}, nil
}

func (s *AuthServiceImpl) Me(ctx context.Context, db *gorm.DB, userID uint) (*dto.MeResponse, error) {
	user, err := s.userRepo.FindByIDWithProfile(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return &dto.MeResponse{
		ID:          user.ID,
		Email:       user.Email,
		Role:        string(user.Role),
		DisplayName: user.DisplayName(),
		Rating:      user.Rating,
	}, nil
}

// EnsureAdmin создает первого администратора, если email еще свободен.
// Возвращает true, если пользователь был создан.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, db *gorm.DB, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	if _, err := s.userRepo.FindByEmail(db, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return false, handleUserError(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, apperrors.InternalError(err)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return false, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	admin := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}
	if err := s.userRepo.Create(tx, admin); err != nil {
		return false, handleUserError(err)
	}
	if err := s.userRepo.CreateProfile(tx, &models.AdminProfile{UserID: admin.ID, FirstName: "Admin", SuperAdmin: true}); err != nil {
		return false, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return false, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "First admin created", "user_id", admin.ID)
	return true, nil
}
