// Package memory provides an in-process AuthStorage for examples, tests,
// and single-node deployments that do not need durability.
package memory

import (
	"sync"
	"time"

	"github.com/taskhive/vouch"
	"github.com/taskhive/vouch/pkg/crypto"
)

// Adapter implements vouch.AuthStorage with mutex-guarded maps. All
// uniqueness and replace-on-save guarantees hold under the single lock.
type Adapter struct {
	mu        sync.RWMutex
	users     map[string]*vouch.User     // by id
	emails    map[string]string          // email -> id
	artifacts map[string]*vouch.Artifact // by userID+"/"+purpose

	ids *crypto.CodeGenerator
}

var _ vouch.AuthStorage = (*Adapter)(nil)

func New() *Adapter {
	ids, _ := crypto.NewCodeGenerator()
	return &Adapter{
		users:     make(map[string]*vouch.User),
		emails:    make(map[string]string),
		artifacts: make(map[string]*vouch.Artifact),
		ids:       ids,
	}
}

func artifactKey(userID string, purpose vouch.ArtifactPurpose) string {
	return userID + "/" + string(purpose)
}

func (a *Adapter) CreateUser(user *vouch.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.emails[user.Email]; taken {
		return vouch.ErrUserExists
	}

	if user.ID == "" {
		id, err := a.ids.GenerateID()
		if err != nil {
			return err
		}
		user.ID = id
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	a.users[user.ID] = &clone
	a.emails[user.Email] = user.ID
	return nil
}

func (a *Adapter) GetUserByID(id string) (*vouch.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	user, ok := a.users[id]
	if !ok {
		return nil, vouch.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (a *Adapter) GetUserByEmail(email string) (*vouch.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.emails[email]
	if !ok {
		return nil, vouch.ErrUserNotFound
	}
	clone := *a.users[id]
	return &clone, nil
}

func (a *Adapter) UpdateUser(user *vouch.User) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.users[user.ID]
	if !ok {
		return vouch.ErrUserNotFound
	}

	// Email is immutable once set; the index stays keyed on the original.
	user.Email = existing.Email
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()

	clone := *user
	a.users[user.ID] = &clone
	return nil
}

func (a *Adapter) DeleteUser(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	user, ok := a.users[id]
	if !ok {
		return vouch.ErrUserNotFound
	}

	delete(a.emails, user.Email)
	delete(a.users, id)
	for key, artifact := range a.artifacts {
		if artifact.UserID == id {
			delete(a.artifacts, key)
		}
	}
	return nil
}

func (a *Adapter) ListUsers() ([]*vouch.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	users := make([]*vouch.User, 0, len(a.users))
	for _, user := range a.users {
		clone := *user
		users = append(users, &clone)
	}
	return users, nil
}

// SaveArtifact replaces any prior artifact for the (UserID, Purpose) pair;
// map assignment under the lock makes the supersede atomic.
func (a *Adapter) SaveArtifact(artifact *vouch.Artifact) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	clone := *artifact
	a.artifacts[artifactKey(artifact.UserID, artifact.Purpose)] = &clone
	return nil
}

func (a *Adapter) GetArtifact(userID string, purpose vouch.ArtifactPurpose) (*vouch.Artifact, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	artifact, ok := a.artifacts[artifactKey(userID, purpose)]
	if !ok {
		return nil, vouch.ErrArtifactNotFound
	}
	clone := *artifact
	return &clone, nil
}

func (a *Adapter) GetArtifactBySecretHash(purpose vouch.ArtifactPurpose, secretHash string) (*vouch.Artifact, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, artifact := range a.artifacts {
		if artifact.Purpose == purpose && artifact.SecretHash == secretHash {
			clone := *artifact
			return &clone, nil
		}
	}
	return nil, vouch.ErrArtifactNotFound
}

func (a *Adapter) DeleteArtifact(userID string, purpose vouch.ArtifactPurpose) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.artifacts, artifactKey(userID, purpose))
	return nil
}

func (a *Adapter) DeleteArtifactBySecretHash(secretHash string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, artifact := range a.artifacts {
		if artifact.SecretHash == secretHash {
			delete(a.artifacts, key)
			return true, nil
		}
	}
	return false, nil
}

func (a *Adapter) DeleteExpiredArtifacts() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	count := 0
	for key, artifact := range a.artifacts {
		if artifact.Expired(now) {
			delete(a.artifacts, key)
			count++
		}
	}
	return count, nil
}
