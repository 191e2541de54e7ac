package approval

import (
	"context"
	"sync"
	"time"

	"github.com/upikart/upikart/internal/models"
)

type MemoryStore struct {
	mu       sync.Mutex
	requests map[string]*memoryEntry
}

type memoryEntry struct {
	req       *models.LoginRequest
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, token string) (*models.LoginRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(time.Now())

	entry, ok := s.requests[token]
	if !ok {
		return nil, false
	}
	return cloneRequest(entry.req), true
}

func (s *MemoryStore) Set(_ context.Context, req *models.LoginRequest, ttl time.Duration) {
	if req == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked(time.Now())

	s.requests[req.Token] = &memoryEntry{
		req:       cloneRequest(req),
		expiresAt: time.Now().Add(ttl),
	}
}

func (s *MemoryStore) Delete(_ context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.requests, token)
}

func (s *MemoryStore) Pending(_ context.Context) []*models.LoginRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(time.Now())

	var pending []*models.LoginRequest
	for _, entry := range s.requests {
		if entry.req.Status == models.ApprovalPending {
			pending = append(pending, cloneRequest(entry.req))
		}
	}
	return pending
}

func (s *MemoryStore) cleanupLocked(now time.Time) {
	for token, entry := range s.requests {
		if now.After(entry.expiresAt) {
			delete(s.requests, token)
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
