package store

import (
    "context"
    "encoding/json"
    "sync"
)

// MemoryStatus keeps job status in process memory. Used when no Redis URL is
// configured; state is lost on restart.
type MemoryStatus struct {
    mu   sync.RWMutex
    jobs map[string]Status
}

func NewMemoryStatus() *MemoryStatus {
    return &MemoryStatus{jobs: make(map[string]Status)}
}

func (s *MemoryStatus) Set(ctx context.Context, jobID string, st Status) error {
    // Round-trip metadata through JSON so readers see the same shapes Redis returns.
    if st.Metadata != nil {
        b, err := json.Marshal(st.Metadata)
        if err != nil { return err }
        var m map[string]interface{}
        if err := json.Unmarshal(b, &m); err != nil { return err }
        st.Metadata = m
    }
    s.mu.Lock()
    s.jobs[jobID] = st
    s.mu.Unlock()
    return nil
}

func (s *MemoryStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    st, ok := s.jobs[jobID]
    return st, ok, nil
}

func (s *MemoryStatus) Ping(ctx context.Context) error { return nil }

func (s *MemoryStatus) Close() error { return nil }
