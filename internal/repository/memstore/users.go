// Package memstore holds mutex-guarded in-memory stores with the same
// contracts as the gorm repositories. Test support only.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository"
)

// Users is an in-memory UserRepository
type Users struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]models.UserModel
}

func NewUsers() *Users {
	return &Users{users: map[uint]models.UserModel{}}
}

func (r *Users) Create(_ context.Context, user *models.UserModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email || u.Name == user.Name {
			return repository.ErrDuplicateEntry
		}
	}
	r.nextID++
	user.ID = r.nextID
	if user.Role == "" {
		user.Role = models.RoleEmployee
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *Users) GetByID(_ context.Context, id uint) (*models.UserModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.UserModel, error) {
	return r.find(func(u models.UserModel) bool { return u.Email == email })
}

func (r *Users) GetByName(_ context.Context, name string) (*models.UserModel, error) {
	return r.find(func(u models.UserModel) bool { return u.Name == name })
}

func (r *Users) find(match func(models.UserModel) bool) (*models.UserModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) List(_ context.Context) ([]models.UserModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.UserModel, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (r *Users) ListEmployees(ctx context.Context) ([]models.EmployeeListing, error) {
	users, _ := r.List(ctx)
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	employees := make([]models.EmployeeListing, len(users))
	for i, u := range users {
		employees[i] = models.EmployeeListing{ID: u.ID, Name: u.Name, ChineseName: u.ChineseName, Email: u.Email, Role: u.Role}
	}
	return employees, nil
}

func (r *Users) Update(_ context.Context, id uint, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	for column, value := range fields {
		switch column {
		case "password":
			u.Password = value.(string)
		case "role":
			u.Role = value.(string)
		case "chinese_name":
			u.ChineseName = value.(string)
		case "job_title":
			u.JobTitle = value.(string)
		case "phone":
			u.Phone = value.(string)
		case "address":
			u.Address = value.(string)
		case "bank_account":
			u.BankAccount = value.(string)
		case "is_active":
			u.IsActive = value.(bool)
		default:
			return 0, fmt.Errorf("unknown column %q", column)
		}
	}
	u.UpdatedAt = time.Now()
	r.users[id] = u
	return 1, nil
}
