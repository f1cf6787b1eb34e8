package repository

import (
	"context"

	"github.com/nsvirk/staffportalapi/internal/models"
	"gorm.io/gorm"
)

// UserRepository is the database repository for users
type UserRepository struct {
	DB *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create inserts a user and fills in its generated id
func (r *UserRepository) Create(ctx context.Context, user *models.UserModel) error {
	return translateError(r.DB.WithContext(ctx).Create(user).Error)
}

// GetByID gets a user by id
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.UserModel, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.UserModel, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByName gets a user by display name
func (r *UserRepository) GetByName(ctx context.Context, name string) (*models.UserModel, error) {
	return r.first(ctx, "name = ?", name)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*models.UserModel, error) {
	var user models.UserModel
	if err := r.DB.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// List returns every user, newest first
func (r *UserRepository) List(ctx context.Context) ([]models.UserModel, error) {
	var users []models.UserModel
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListEmployees returns the roster ordered by name, admins included
func (r *UserRepository) ListEmployees(ctx context.Context) ([]models.EmployeeListing, error) {
	var employees []models.EmployeeListing
	err := r.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Select("id, name, chinese_name, email, role").
		Order("name").
		Scan(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

// Update applies column updates to one user and returns the rows affected
func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	result := r.DB.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, translateError(result.Error)
}
