package storage

import (
	"context"
	"io"
	"sync"
)

// Memory is an in-process BlobStore.
type Memory struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewMemory() *Memory {
	return &Memory{Objects: map[string][]byte{}}
}

func (m *Memory) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = b
	return "memory://" + key, nil
}
