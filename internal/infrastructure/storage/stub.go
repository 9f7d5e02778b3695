package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/erp/receivables/internal/application/reconciliation"
)

var _ reconciliation.AttachmentStore = (*StubAttachmentStore)(nil)

// StubAttachmentStore keeps vouchers in memory. Used in development and tests.
type StubAttachmentStore struct {
	// BaseURL prefixes preview links. Defaults to "https://storage.example.com".
	BaseURL    string
	Expiration time.Duration

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewStubAttachmentStore creates an empty stub store
func NewStubAttachmentStore(baseURL string) *StubAttachmentStore {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &StubAttachmentStore{
		BaseURL:    baseURL,
		Expiration: DefaultPresignExpiration,
		objects:    make(map[string][]byte),
	}
}

// Upload stores a copy of data
func (s *StubAttachmentStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errKeyRequired
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = buf
	s.mu.Unlock()
	return nil
}

// PresignPreview builds a fake signed link
func (s *StubAttachmentStore) PresignPreview(_ context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	expiresAt := time.Now().Add(s.Expiration)
	link := s.BaseURL + "/preview/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Exists reports whether key was uploaded
func (s *StubAttachmentStore) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errKeyRequired
	}
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	return ok, nil
}

// Object returns the stored bytes for key
func (s *StubAttachmentStore) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
