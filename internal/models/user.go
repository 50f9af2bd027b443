package models

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         UserRole   `gorm:"type:varchar(20);not null" json:"role"`
	Status       UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`
	Rating       float64    `gorm:"default:0" json:"rating"`

	// Relations (загружается только профиль, соответствующий роли)
	StudentProfile    *StudentProfile    `gorm:"foreignKey:UserID" json:"-"`
	CompanyProfile    *CompanyProfile    `gorm:"foreignKey:UserID" json:"-"`
	IndividualProfile *IndividualProfile `gorm:"foreignKey:UserID" json:"-"`
	AdminProfile      *AdminProfile      `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Profile возвращает профиль пользователя по его роли.
// Если профиль не загружен, используется email.
func (u *User) Profile() Profile {
	switch u.Role {
	case UserRoleStudent:
		if u.StudentProfile != nil {
			return u.StudentProfile
		}
	case UserRoleCompany:
		if u.CompanyProfile != nil {
			return u.CompanyProfile
		}
	case UserRoleIndividual:
		if u.IndividualProfile != nil {
			return u.IndividualProfile
		}
	case UserRoleAdmin:
		if u.AdminProfile != nil {
			return u.AdminProfile
		}
	}
	return emailProfile(u.Email)
}

// DisplayName - короткий путь к Profile().DisplayName()
func (u *User) DisplayName() string {
	return u.Profile().DisplayName()
}
