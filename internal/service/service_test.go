package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nsvirk/staffportalapi/internal/models"
	"github.com/nsvirk/staffportalapi/internal/repository/memstore"
	"github.com/nsvirk/staffportalapi/pkg/utils/logger"
	"github.com/nsvirk/staffportalapi/pkg/utils/state"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type auditEntry struct {
	actorID uint
	action  logger.Action
	fields  map[string]interface{}
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAuditor) Record(_ context.Context, actorID uint, action logger.Action, fields map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{actorID: actorID, action: action, fields: fields})
}

func (a *recordingAuditor) actions() []logger.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]logger.Action, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.action
	}
	return out
}

type memoryConfigStore struct {
	mu      sync.Mutex
	entries map[string]state.StateEntry
}

func newMemoryConfigStore() *memoryConfigStore {
	return &memoryConfigStore{entries: map[string]state.StateEntry{}}
}

func (s *memoryConfigStore) Get(_ context.Context, key string) (*state.StateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, state.ErrKeyNotFound
	}
	return &e, nil
}

func (s *memoryConfigStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = state.StateEntry{Key: key, CreatedAt: testNow}
	}
	e.Value, e.UpdatedAt = value, testNow
	s.entries[key] = e
	return nil
}

func (s *memoryConfigStore) List(_ context.Context) ([]state.StateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []state.StateEntry
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *memoryConfigStore) Delete(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return 0, nil
	}
	delete(s.entries, key)
	return 1, nil
}

// fixture wires every service over the in-memory repositories with a fixed clock
type fixture struct {
	users      *memstore.Users
	sessions   *memstore.Sessions
	attendance *memstore.Attendance
	audit      *recordingAuditor

	sessionService    *SessionService
	userService       *UserService
	attendanceService *AttendanceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memstore.NewUsers()
	f := &fixture{
		users:      users,
		sessions:   memstore.NewSessions(),
		attendance: memstore.NewAttendance(users),
		audit:      &recordingAuditor{},
	}
	f.sessionService = NewSessionService(f.users, f.sessions, nil, 24*time.Hour)
	f.sessionService.now = func() time.Time { return testNow }
	f.userService = NewUserService(f.users, f.audit)
	f.attendanceService = NewAttendanceService(f.users, f.attendance, f.audit, time.UTC)
	f.attendanceService.now = func() time.Time { return testNow }
	return f
}

// seedUser stores a user with a bcrypt hash of password
func (f *fixture) seedUser(t *testing.T, name, email, password, role string) models.UserModel {
	t.Helper()
	hashed, err := hashPassword(password)
	require.NoError(t, err)
	user := models.UserModel{Name: name, Email: email, Password: hashed, Role: role, IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), &user))
	return user
}

func (f *fixture) principal(user models.UserModel) Principal {
	return Principal{UserID: user.ID, Role: user.Role}
}

func strPtr(s string) *string {
	return &s
}
