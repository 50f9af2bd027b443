package auth

import (
	"sort"

	"bolsafeucn/internal/models"
)

// Разрешения, которые проверяют маршруты
const (
	PermPublicationCreate   = "publications:create"
	PermPublicationModerate = "publications:moderate"
	PermApplicationCreate   = "applications:create"
	PermReviewAdmin         = "reviews:admin"
)

// Permissions - разрешения каждой роли
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		PermPublicationCreate,
		PermPublicationModerate,
		PermReviewAdmin,
	},
	models.UserRoleStudent: {
		PermPublicationCreate,
		PermApplicationCreate,
	},
	models.UserRoleCompany: {
		PermPublicationCreate,
	},
	models.UserRoleIndividual: {
		PermPublicationCreate,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role models.UserRole, permission string) bool {
	for _, p := range Permissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// RolesWith возвращает роли, у которых есть разрешение, в алфавитном порядке
func RolesWith(permission string) []models.UserRole {
	var roles []models.UserRole
	for role := range Permissions {
		if HasPermission(role, permission) {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// IsAdmin проверяет является ли пользователь администратором
func IsAdmin(claims *Claims) bool {
	return claims != nil && claims.Role == models.UserRoleAdmin
}
