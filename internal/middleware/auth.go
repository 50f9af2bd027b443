package middleware

import (
	"strings"

	"bolsafeucn/internal/auth"
	"bolsafeucn/internal/logger"
	"bolsafeucn/internal/models"
	"bolsafeucn/pkg/apperrors"
	"bolsafeucn/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), true
}

// setIdentity кладет claims в gin.Context и user_id в контекст логгера
func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(contextkeys.UserIDKey, claims.UserID)
	c.Set(contextkeys.UserRoleKey, claims.Role)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}

// WebSocketTokenParam - query-параметр с JWT для /ws
const WebSocketTokenParam = "access_token"

// queryOrBearerToken - заголовок Authorization или ?access_token=
func queryOrBearerToken(c *gin.Context) (string, bool) {
	if token, ok := bearerToken(c); ok {
		return token, true
	}
	token := strings.TrimSpace(c.Query(WebSocketTokenParam))
	return token, token != ""
}

// AuthMiddleware - middleware проверки JWT
func AuthMiddleware() gin.HandlerFunc {
	return authenticate(bearerToken)
}

// WebSocketAuthMiddleware - AuthMiddleware, который также принимает токен из query
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return authenticate(queryOrBearerToken)
}

func authenticate(extract func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := extract(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "Invalid token", "error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.New(apperrors.CodeInvalidToken, "auth", "Invalid token", 401))
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth - как AuthMiddleware, но анонимный запрос пропускается.
// Невалидный токен считается отсутствующим.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := auth.ParseToken(tokenStr); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRoles - доступ только для перечисленных ролей
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}
		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// RoleMiddleware - доступ только для одной роли
func RoleMiddleware(requiredRole models.UserRole) gin.HandlerFunc {
	return RequireRoles(requiredRole)
}

// RequirePermission - доступ по таблице разрешений auth.Permissions
func RequirePermission(permission string) gin.HandlerFunc {
	denied := apperrors.ErrInsufficientPermissions.WithDetails(gin.H{
		"permission":     permission,
		"required_roles": auth.RolesWith(permission),
	})

	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok || !auth.HasPermission(role, permission) {
			logger.CtxWarn(c.Request.Context(), "Permission denied", "permission", permission, "role", role)
			apperrors.HandleError(c, denied)
			return
		}
		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) (uint, bool) {
	id := c.GetUint(contextkeys.UserIDKey)
	return id, id != 0
}

// GetUserRole извлекает роль пользователя из контекста
func GetUserRole(c *gin.Context) (models.UserRole, bool) {
	val, exists := c.Get(contextkeys.UserRoleKey)
	if !exists {
		return "", false
	}
	role, ok := val.(models.UserRole)
	return role, ok && role != ""
}
