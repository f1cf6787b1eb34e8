package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository"
	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
)

// selfEditableFields are the profile columns a user may change on their own record
var selfEditableFields = []string{"chinese_name", "job_title", "phone", "address", "bank_account"}

// adminEditableFields are the extra columns an admin may change on any record
var adminEditableFields = []string{"role", "is_active"}

// UserService is the user directory
type UserService struct {
	users UserStore
	audit Auditor
}

// NewUserService creates a new user service. audit may be nil.
func NewUserService(users UserStore, audit Auditor) *UserService {
	return &UserService{users: users, audit: audit}
}

// RegisterInput is a self-service sign-up
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	ChineseName string
}

// Register creates an employee account
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.UserSummary, error) {
	return s.create(ctx, in, models.RoleEmployee)
}

// CreateUser is the admin variant of Register with an explicit role
func (s *UserService) CreateUser(ctx context.Context, caller Principal, in RegisterInput, role string) (models.UserSummary, error) {
	if !caller.IsAdmin() {
		return models.UserSummary{}, forbiddenError("Forbidden: Admin only")
	}
	if role == "" {
		role = models.RoleEmployee
	}
	if !models.ValidRole(role) {
		return models.UserSummary{}, validationError("Invalid role %q", role)
	}

	summary, err := s.create(ctx, in, role)
	if err != nil {
		return summary, err
	}
	s.record(ctx, caller.UserID, logger.UserCreate, map[string]interface{}{
		"user_id": summary.ID,
		"role":    role,
	})
	return summary, nil
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role string) (models.UserSummary, error) {
	name, email := strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return models.UserSummary{}, validationError("Missing fields")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return models.UserSummary{}, conflictError("Email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.UserSummary{}, storageError(err)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return models.UserSummary{}, &Error{Kind: ErrValidation, Message: "Invalid password", Err: err}
	}

	user := models.UserModel{
		Name:        name,
		Email:       email,
		Password:    hashed,
		Role:        role,
		ChineseName: strings.TrimSpace(in.ChineseName),
		IsActive:    true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return models.UserSummary{}, conflictError("Email or name already exists")
		}
		return models.UserSummary{}, storageError(err)
	}
	return user.Summary(), nil
}

// GetProfile returns a full profile. Non-admins may only read their own.
func (s *UserService) GetProfile(ctx context.Context, caller Principal, userID uint) (*models.UserModel, error) {
	if !caller.CanAccess(userID) {
		return nil, forbiddenError("Forbidden: Admin only")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, storageError(err)
	}
	return user, nil
}

// ListUsers returns every profile, admin only
func (s *UserService) ListUsers(ctx context.Context, caller Principal) ([]models.UserModel, error) {
	if !caller.IsAdmin() {
		return nil, forbiddenError("Forbidden: Admin only")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

// ListEmployees returns the roster, admin only
func (s *UserService) ListEmployees(ctx context.Context, caller Principal) ([]models.EmployeeListing, error) {
	if !caller.IsAdmin() {
		return nil, forbiddenError("Access denied. Admin only.")
	}
	employees, err := s.users.ListEmployees(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return employees, nil
}

// UpdateProfile applies the whitelisted fields of body to userID's record.
// Unknown fields are ignored.
func (s *UserService) UpdateProfile(ctx context.Context, caller Principal, userID uint, body map[string]interface{}) error {
	if !caller.CanAccess(userID) {
		return forbiddenError("Forbidden: Admin only")
	}

	fields := map[string]interface{}{}
	for _, field := range selfEditableFields {
		value, ok := body[field]
		if !ok {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return validationError("Field %s must be a string", field)
		}
		fields[field] = str
	}

	// Role and activation are admin actions on other users only
	if caller.IsAdmin() && caller.UserID != userID {
		if value, ok := body["role"]; ok {
			role, ok := value.(string)
			if !ok || !models.ValidRole(role) {
				return validationError("Invalid role")
			}
			fields["role"] = role
		}
		if value, ok := body["is_active"]; ok {
			active, ok := value.(bool)
			if !ok {
				return validationError("Field is_active must be a boolean")
			}
			fields["is_active"] = active
		}
	}

	if len(fields) == 0 {
		return validationError("No valid fields to update")
	}

	n, err := s.users.Update(ctx, userID, fields)
	if err != nil {
		return storageError(err)
	}
	if n == 0 {
		return notFoundError("User not found")
	}

	if caller.UserID != userID {
		s.record(ctx, caller.UserID, logger.UserUpdate, map[string]interface{}{
			"user_id": userID,
			"fields":  fieldNames(fields),
		})
	}
	return nil
}

func (s *UserService) record(ctx context.Context, actorID uint, action logger.Action, fields map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, actorID, action, fields)
	}
}

// fieldNames lists the keys of fields in a stable order
func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for _, group := range [][]string{selfEditableFields, adminEditableFields} {
		for _, name := range group {
			if _, ok := fields[name]; ok {
				names = append(names, name)
			}
		}
	}
	return names
}
