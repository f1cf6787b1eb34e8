package repository

import (
	"context"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository is the session store of record
type SessionRepository struct {
	DB *gorm.DB
}

// NewSessionRepository creates a new repository for sessions
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// Replace deletes every session of the user and inserts the new one in a
// single transaction. It returns the ids of the deleted sessions.
func (r *SessionRepository) Replace(ctx context.Context, session *models.SessionModel) ([]string, error) {
	var removed []models.SessionModel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
			Where("user_id = ?", session.UserID).
			Delete(&removed).Error
		if err != nil {
			return err
		}
		return tx.Create(session).Error
	})
	if err != nil {
		return nil, translateError(err)
	}

	ids := make([]string, len(removed))
	for i, s := range removed {
		ids[i] = s.ID
	}
	return ids, nil
}

// GetByID gets a session by its id, expired or not
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.SessionModel, error) {
	var session models.SessionModel
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, translateError(err)
	}
	return &session, nil
}

// Delete deletes one session
func (r *SessionRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.SessionModel{})
	return result.RowsAffected, result.Error
}

// DeleteExpired deletes sessions whose expiry is before the given instant
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.SessionModel{})
	return result.RowsAffected, result.Error
}
