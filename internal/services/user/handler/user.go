package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"balcao-system/internal/database/models"
	"balcao-system/internal/ledger"
	"balcao-system/internal/utils"
)

const USER_CACHE_PREFIX = "user:"

// ErrBadCredentials is returned for unknown users and wrong passwords alike,
// so login attempts cannot probe which usernames exist.
var ErrBadCredentials = errors.New("invalid username or password")

type AuthConfig struct {
	JWTSecret []byte
	TokenTTL  time.Duration
}

type UserHandler struct {
	db    *gorm.DB
	redis *redis.Client
	auth  AuthConfig
}

func NewUserHandler(db *gorm.DB, redisClient *redis.Client, auth AuthConfig) *UserHandler {
	return &UserHandler{
		db:    db,
		redis: redisClient,
		auth:  auth,
	}
}

func (s *UserHandler) InvalidateUserCaches(ctx context.Context, userIDs ...int64) {
	if s.redis == nil {
		return
	}
	for _, id := range userIDs {
		_ = s.redis.Del(ctx, fmt.Sprintf("%s%d", USER_CACHE_PREFIX, id))
	}
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

type LoginRequest struct {
	Username string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Register creates an account and signs the first token in one step.
func (s *UserHandler) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ledger.ErrInvalidInput)
	}

	var existing models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", req.Username, req.Email).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: username or email already exists", ledger.ErrInvalidInput)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(pwHash),
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	token, exp, err := utils.GenerateToken(s.auth.JWTSecret, user.ID, user.Username, s.auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	user.Password = ""
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Login verifies credentials against the stored bcrypt hash and issues a
// fresh token, stamping the user's last login.
func (s *UserHandler) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ledger.ErrInvalidInput)
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", req.Username, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrBadCredentials
	}

	token, exp, err := utils.GenerateToken(s.auth.JWTSecret, user.ID, user.Username, s.auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("last_login", now).Error; err != nil {
		return nil, err
	}

	s.InvalidateUserCaches(ctx, user.ID)

	user.Password = ""
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// GetUser returns a user without its password hash.
func (s *UserHandler) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ledger.ErrNotFound, id)
		}
		return nil, err
	}
	user.Password = ""
	return &user, nil
}
