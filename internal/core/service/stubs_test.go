package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user store
// ---------------------------------------------------------------------------

type stubUserStore struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	nextID  int
	findErr error // if set, every lookup returns this error
	saveErr error
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]domain.Role(nil), u.Roles...)
	return &c
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if u, ok := s.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.findBy(func(u *domain.User) bool { return u.Username == username })
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.findBy(func(u *domain.User) bool { return u.Email == email })
}

func (s *stubUserStore) findBy(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, u := range s.byID {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserStore) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	c := cloneUser(user)
	if c.ID == "" {
		for _, u := range s.byID {
			if u.Username == c.Username || u.Email == c.Email {
				return nil, domain.ErrUserExists
			}
		}
		s.nextID++
		c.ID = fmt.Sprintf("u-%d", s.nextID)
	}
	s.byID[c.ID] = c
	return cloneUser(c), nil
}

func (s *stubUserStore) ExistsByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return false, s.findErr
	}
	_, ok := s.byID[id]
	return ok, nil
}

func (s *stubUserStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.byID, id)
	return nil
}

// seed stores u directly, bypassing uniqueness checks.
func (s *stubUserStore) seed(u *domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[u.ID] = cloneUser(u)
	return u
}

// ---------------------------------------------------------------------------
// Blob store, janitor and cache stubs
// ---------------------------------------------------------------------------

type stubBlobStore struct {
	puts    map[string][]byte
	deleted []string
	putErr  error
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{puts: make(map[string][]byte)}
}

func (b *stubBlobStore) Put(_ context.Context, name string, r io.Reader) (*ports.BlobInfo, error) {
	if b.putErr != nil {
		return nil, b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("/uploads/%d-%s", len(b.puts)+1, name)
	b.puts[url] = data
	return &ports.BlobInfo{URL: url, Name: name}, nil
}

func (b *stubBlobStore) Delete(_ context.Context, url string) error {
	b.deleted = append(b.deleted, url)
	return nil
}

type stubJanitor struct {
	jobs []ports.BlobCleanupJob
}

func (j *stubJanitor) Enqueue(job ports.BlobCleanupJob) {
	j.jobs = append(j.jobs, job)
}

type stubCache struct {
	invalidated []string
}

func (c *stubCache) Invalidate(_ context.Context, username string) error {
	c.invalidated = append(c.invalidated, username)
	return nil
}
