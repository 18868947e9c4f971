package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusStore interface {
	Set(ctx context.Context, jobID string, st Status) error
	Get(ctx context.Context, jobID string) (Status, bool, error)
	Close() error
}

func testStores(t *testing.T) map[string]statusStore {
	mr := miniredis.RunT(t)
	rs, err := NewRedisStatus("redis://"+mr.Addr(), time.Hour)
	require.NoError(t, err)
	return map[string]statusStore{
		"redis":  rs,
		"memory": NewMemoryStatus(),
	}
}

func TestStatusRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			end := start.Add(3 * time.Second)
			require.NoError(t, s.Set(ctx, "job-1", Status{
				Status:   StateSuccess,
				Progress: 100,
				Message:  "booklet ready",
				Start:    &start,
				End:      &end,
				Metadata: map[string]interface{}{"sides": 8, "output": "/tmp/x.pdf"},
			}))

			st, ok, err := s.Get(ctx, "job-1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, StateSuccess, st.Status)
			assert.Equal(t, 100, st.Progress)
			assert.Equal(t, "booklet ready", st.Message)
			require.NotNil(t, st.Start)
			assert.True(t, start.Equal(*st.Start))
			require.NotNil(t, st.End)
			assert.True(t, end.Equal(*st.End))
			assert.Equal(t, float64(8), st.Metadata["sides"])
			assert.Equal(t, "/tmp/x.pdf", st.Metadata["output"])
		})
	}
}

func TestRedisStatusExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rs, err := NewRedisStatus("redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer rs.Close()

	ctx := context.Background()
	require.NoError(t, rs.Set(ctx, "job-2", Status{Status: StateQueued}))
	assert.Equal(t, time.Minute, mr.TTL("booklet:job-2:status"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := rs.Get(ctx, "job-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisStatusBadURL(t *testing.T) {
	_, err := NewRedisStatus("not-a-url", 0)
	assert.Error(t, err)
}
