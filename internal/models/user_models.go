// Package models contains the models for the Staff Portal API
package models

import "time"

const UsersTableName = "users"

// Roles
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// UserModel is a portal account and its profile
type UserModel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Email       string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	Role        string    `gorm:"size:16;not null;default:employee" json:"role"`
	ChineseName string    `gorm:"size:100" json:"chinese_name"`
	JobTitle    string    `gorm:"size:100" json:"job_title"`
	Phone       string    `gorm:"size:50" json:"phone"`
	Address     string    `json:"address"`
	BankAccount string    `gorm:"size:100" json:"bank_account"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (UserModel) TableName() string {
	return UsersTableName
}

// IsAdmin reports whether the user holds the admin role
func (u *UserModel) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary is the identity part returned by login and /me
func (u *UserModel) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserSummary is the public identity of a user
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// EmployeeListing is a roster row
type EmployeeListing struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	ChineseName string `json:"chinese_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleAdmin
}
