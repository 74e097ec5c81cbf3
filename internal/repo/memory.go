package repo

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eatsy/identity-service/internal/domain"
)

// MemStore is a deterministic in-memory implementation of the identity
// store used by tests and local development. It mirrors the Mongo
// store's contract: projection-aware reads, duplicate detection, and
// atomic recovery-pair updates under a single lock.
type MemStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func NewMemStore() *MemStore {
	return &MemStore{users: map[primitive.ObjectID]*domain.User{}}
}

func (m *MemStore) view(u *domain.User, p Projection) *domain.User {
	cp := *u
	if p == Public {
		cp.PasswordHash = ""
		cp.RecoveryCodeHash = ""
		cp.RecoveryExpires = time.Time{}
	}
	return &cp
}

func (m *MemStore) FindUserByEmail(_ context.Context, email string, p Projection) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return m.view(u, p), nil
		}
	}
	return nil, nil
}

func (m *MemStore) FindUserByID(_ context.Context, id string, p Projection) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[oid]; ok {
		return m.view(u, p), nil
	}
	return nil, nil
}

func (m *MemStore) FindUserByGoogleID(_ context.Context, gid string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.GoogleID != "" && u.GoogleID == gid {
			return m.view(u, Public), nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.users {
		if ex.Email == u.Email {
			return ErrDuplicate
		}
		if u.GoogleID != "" && ex.GoogleID == u.GoogleID {
			return ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemStore) SaveUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok {
		return nil
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	// projection-stripped saves must not wipe stored secrets
	if cp.PasswordHash == "" {
		cp.PasswordHash = stored.PasswordHash
	}
	if cp.RecoveryCodeHash == "" {
		cp.RecoveryCodeHash = stored.RecoveryCodeHash
		cp.RecoveryExpires = stored.RecoveryExpires
	}
	m.users[u.ID] = &cp
	return nil
}

func (m *MemStore) SetRecovery(_ context.Context, id primitive.ObjectID, codeHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.RecoveryCodeHash = codeHash
		u.RecoveryExpires = expiresAt.UTC()
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemStore) ConsumeRecovery(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
		u.RecoveryCodeHash = ""
		u.RecoveryExpires = time.Time{}
		u.UpdatedAt = time.Now().UTC()
	}
	return nil
}
