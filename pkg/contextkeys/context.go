package contextkeys

type contextKey string

const (
	// DBContextKey - ключ, под которым DBMiddleware кладет *gorm.DB в gin.Context
	DBContextKey contextKey = "db"

	// UserIDKey и UserRoleKey выставляет AuthMiddleware после проверки JWT
	UserIDKey   = "userID"
	UserRoleKey = "role"
)
