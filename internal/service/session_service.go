package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository"
	"github.com/nsvirk/staffportalapi/pkg/utils/zaplogger"
)

// maxSessionCacheTTL caps how long a session row stays in Redis
const maxSessionCacheTTL = 5 * time.Minute

// revokedMarkerTTL outlives any cache entry written before the revocation
const revokedMarkerTTL = 2 * maxSessionCacheTTL

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidSessionID reports whether id has the shape of an issued session id
func ValidSessionID(id string) bool {
	return id != "" && sessionIDPattern.MatchString(id)
}

// SessionService handles login, logout and session validation
type SessionService struct {
	users    UserStore
	sessions SessionStore
	cache    SessionCache
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionService creates a new session service. cache may be nil.
func NewSessionService(users UserStore, sessions SessionStore, cache SessionCache, ttl time.Duration) *SessionService {
	return &SessionService{
		users:    users,
		sessions: sessions,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL is the validity window of new sessions
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// LoginInput identifies the user by email or, when email is empty, by name
type LoginInput struct {
	Email    string
	Name     string
	Password string
}

// LoginResult is a freshly issued session and its user
type LoginResult struct {
	Session models.SessionModel
	User    models.UserSummary
}

// Login checks the credentials and issues a new session. All previous
// sessions of the user are removed.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email, name := strings.TrimSpace(in.Email), strings.TrimSpace(in.Name)
	if (email == "" && name == "") || in.Password == "" {
		return nil, validationError("Missing fields")
	}

	var user *models.UserModel
	var err error
	if email != "" {
		user, err = s.users.GetByEmail(ctx, email)
	} else {
		user, err = s.users.GetByName(ctx, name)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthenticated, "User not found")
		}
		return nil, storageError(err)
	}

	ok, needsRehash := checkPassword(user.Password, in.Password)
	if !ok {
		return nil, newError(ErrUnauthenticated, "Wrong password")
	}
	if !user.IsActive {
		return nil, forbiddenError("Account is inactive")
	}
	if needsRehash {
		s.rehashPassword(ctx, user.ID, in.Password)
	}

	session := models.SessionModel{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	removed, err := s.sessions.Replace(ctx, &session)
	if err != nil {
		return nil, storageError(err)
	}
	s.evict(ctx, removed...)

	zaplogger.Info("User logged in", zaplogger.Fields{
		"user_id":          user.ID,
		"replaced_session": len(removed),
	})

	return &LoginResult{Session: session, User: user.Summary()}, nil
}

// rehashPassword upgrades a plaintext credential to bcrypt after a successful login
func (s *SessionService) rehashPassword(ctx context.Context, userID uint, password string) {
	hashed, err := hashPassword(password)
	if err == nil {
		_, err = s.users.Update(ctx, userID, map[string]interface{}{"password": hashed})
	}
	if err != nil {
		zaplogger.Warn("Failed to rehash plaintext password", zaplogger.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// Logout deletes the session
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if !ValidSessionID(sessionID) {
		return newError(ErrUnauthenticated, "Not logged in")
	}
	if _, err := s.sessions.Delete(ctx, sessionID); err != nil {
		return storageError(err)
	}
	s.evict(ctx, sessionID)
	return nil
}

// Authenticate resolves a session id to the calling user. It never
// modifies the session, expired rows are left for the purge job.
func (s *SessionService) Authenticate(ctx context.Context, sessionID string) (Principal, error) {
	if !ValidSessionID(sessionID) {
		return Principal{}, newError(ErrUnauthenticated, "Not logged in")
	}

	session, err := s.lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Principal{}, newError(ErrSessionExpired, "Session expired")
		}
		return Principal{}, storageError(err)
	}
	if session.Expired(s.now()) {
		return Principal{}, newError(ErrSessionExpired, "Session expired")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Principal{}, newError(ErrSessionExpired, "Session expired")
		}
		return Principal{}, storageError(err)
	}
	if !user.IsActive {
		return Principal{}, newError(ErrUnauthenticated, "Account disabled")
	}
	return Principal{UserID: user.ID, Role: user.Role}, nil
}

// lookup reads the session through the cache
func (s *SessionService) lookup(ctx context.Context, sessionID string) (*models.SessionModel, error) {
	if s.cache != nil {
		session, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			zaplogger.Warn("Session cache read failed", zaplogger.Fields{"error": err.Error()})
		}
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ttl := session.ExpiresAt.Sub(s.now())
		if ttl > maxSessionCacheTTL {
			ttl = maxSessionCacheTTL
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, session, ttl); err != nil {
				zaplogger.Warn("Session cache write failed", zaplogger.Fields{"error": err.Error()})
			}
		}
	}
	return session, nil
}

func (s *SessionService) evict(ctx context.Context, ids ...string) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.Revoke(ctx, revokedMarkerTTL, ids...); err != nil {
		zaplogger.Warn("Session cache eviction failed", zaplogger.Fields{"error": err.Error()})
	}
}

// Me returns the identity behind the principal
func (s *SessionService) Me(ctx context.Context, p Principal) (models.UserSummary, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.UserSummary{}, notFoundError("User not found")
		}
		return models.UserSummary{}, storageError(err)
	}
	return user.Summary(), nil
}

// PurgeExpired deletes sessions that expired before now
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}
