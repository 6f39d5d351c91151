package models

import (
	"time"
)

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `gorm:"<-:create;not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`

	// Loaded from user_roles by the repository.
	Roles []string `gorm:"-" json:"roles"`
}

// UserRole is one row of the user_roles collection table.
type UserRole struct {
	UserID uint64 `gorm:"primarykey;autoIncrement:false"`
	Role   string `gorm:"primarykey;type:varchar(20)"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
