package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/taskhive/vouch/core"
)

// FakeStorage is a test-only in-memory core.AuthStorage. It stores records
// in maps and exposes error fields for behavior injection.
type FakeStorage struct {
	mu        sync.RWMutex
	users     map[string]*core.User     // by id
	artifacts map[string]*core.Artifact // by userID+"/"+purpose
	nextID    int

	createUserErr error
	getUserErr    error
	updateUserErr error
	saveErr       error
	getArtErr     error
	deleteArtErr  error
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		users:     make(map[string]*core.User),
		artifacts: make(map[string]*core.Artifact),
	}
}

func artifactKey(userID string, purpose core.ArtifactPurpose) string {
	return userID + "/" + string(purpose)
}

func (f *FakeStorage) CreateUser(u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createUserErr != nil {
		return f.createUserErr
	}

	for _, existing := range f.users {
		if existing.Email == u.Email {
			return core.ErrUserExists
		}
	}

	f.nextID++
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	clone := *u
	f.users[u.ID] = &clone
	return nil
}

func (f *FakeStorage) GetUserByID(id string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *FakeStorage) GetUserByEmail(email string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeStorage) UpdateUser(u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateUserErr != nil {
		return f.updateUserErr
	}
	if _, ok := f.users[u.ID]; !ok {
		return core.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	clone := *u
	f.users[u.ID] = &clone
	return nil
}

func (f *FakeStorage) DeleteUser(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return core.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *FakeStorage) ListUsers() ([]*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	users := make([]*core.User, 0, len(f.users))
	for _, u := range f.users {
		clone := *u
		users = append(users, &clone)
	}
	return users, nil
}

func (f *FakeStorage) SaveArtifact(a *core.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	clone := *a
	f.artifacts[artifactKey(a.UserID, a.Purpose)] = &clone
	return nil
}

func (f *FakeStorage) GetArtifact(userID string, purpose core.ArtifactPurpose) (*core.Artifact, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getArtErr != nil {
		return nil, f.getArtErr
	}
	a, ok := f.artifacts[artifactKey(userID, purpose)]
	if !ok {
		return nil, core.ErrArtifactNotFound
	}
	clone := *a
	return &clone, nil
}

func (f *FakeStorage) GetArtifactBySecretHash(purpose core.ArtifactPurpose, secretHash string) (*core.Artifact, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getArtErr != nil {
		return nil, f.getArtErr
	}
	for _, a := range f.artifacts {
		if a.Purpose == purpose && a.SecretHash == secretHash {
			clone := *a
			return &clone, nil
		}
	}
	return nil, core.ErrArtifactNotFound
}

func (f *FakeStorage) DeleteArtifact(userID string, purpose core.ArtifactPurpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteArtErr != nil {
		return f.deleteArtErr
	}
	delete(f.artifacts, artifactKey(userID, purpose))
	return nil
}

func (f *FakeStorage) DeleteArtifactBySecretHash(secretHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteArtErr != nil {
		return false, f.deleteArtErr
	}
	for k, a := range f.artifacts {
		if a.SecretHash == secretHash {
			delete(f.artifacts, k)
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeStorage) DeleteExpiredArtifacts() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	count := 0
	for k, a := range f.artifacts {
		if a.Expired(now) {
			delete(f.artifacts, k)
			count++
		}
	}
	return count, nil
}

// artifactCount reports live artifacts for assertions.
func (f *FakeStorage) artifactCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.artifacts)
}

// FakeMailer records notifications and can be told to fail.
type FakeMailer struct {
	mu      sync.Mutex
	sent    []core.Notification
	sendErr error
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

func (m *FakeMailer) Send(n core.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, n)
	return nil
}

// lastSent returns the most recent notification, or nil if none were sent.
func (m *FakeMailer) lastSent() *core.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	n := m.sent[len(m.sent)-1]
	return &n
}

func (m *FakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
