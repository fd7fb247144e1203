package store

import (
	"context"
	"sync"
)

// InMemoryCheckpointStore only survives within a process. It still lets
// a retried job inside the same run resume mid-file.
type InMemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]int
}

func InitInMemoryCheckpointStore() *InMemoryCheckpointStore {
	return &InMemoryCheckpointStore{
		checkpoints: make(map[string]int),
	}
}

func (s *InMemoryCheckpointStore) GetCheckpoint(ctx context.Context, sourceFile string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batches, found := s.checkpoints[sourceFile]
	return batches, found
}

func (s *InMemoryCheckpointStore) SaveCheckpoint(ctx context.Context, sourceFile string, batchesDone int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[sourceFile] = batchesDone
	return nil
}

func (s *InMemoryCheckpointStore) ClearCheckpoint(ctx context.Context, sourceFile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, sourceFile)
}
