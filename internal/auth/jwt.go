package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"bolsafeucn/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNotConfigured = errors.New("jwt is not configured")
)

// Claims - содержимое access токена
type Claims struct {
	UserID uint            `json:"uid"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

var (
	mu     sync.RWMutex
	secret []byte
	ttl    = 24 * time.Hour
)

// Configure задает секрет и время жизни токена. Вызывается один раз при старте.
func Configure(jwtSecret string, tokenTTL time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	secret = []byte(jwtSecret)
	if tokenTTL > 0 {
		ttl = tokenTTL
	}
}

// TokenTTL возвращает текущее время жизни токена
func TokenTTL() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ttl
}

// GenerateToken выпускает HS256 токен для пользователя
func GenerateToken(userID uint, role models.UserRole) (string, error) {
	mu.RLock()
	key, lifetime := secret, ttl
	mu.RUnlock()

	if len(key) == 0 {
		return "", ErrNotConfigured
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    "bolsafeucn",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseToken проверяет подпись и срок действия токена
func ParseToken(tokenString string) (*Claims, error) {
	mu.RLock()
	key := secret
	mu.RUnlock()

	if len(key) == 0 {
		return nil, ErrNotConfigured
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
