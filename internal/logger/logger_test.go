package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "warn", Console: &buf}))
	defer Close()

	log.Info().Msg("hidden")
	log.Warn().Int("sides", 4).Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "shown", ev["message"])
	assert.Equal(t, float64(4), ev["sides"])
	assert.Equal(t, "warn", ev["level"])
}

func TestInitFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "booklets.log")
	require.NoError(t, Init(Options{Level: "bogus", File: file, MaxSizeMB: 1, Console: &buf}))
	defer Close()

	jl := Job("job-7")
	jl.Info().Msg("to file")
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
	assert.Contains(t, string(b), `"job_id":"job-7"`)
	assert.Contains(t, buf.String(), "to file")
}

func TestShipperFiltersAndDrops(t *testing.T) {
	s := &shipper{events: make(chan axiom.Event, 1), done: make(chan struct{})}

	_, err := s.Write([]byte(`{"level":"debug","message":"noise"}`))
	require.NoError(t, err)
	assert.Len(t, s.events, 0)

	_, _ = s.Write([]byte(`{"level":"info","message":"first"}`))
	_, _ = s.Write([]byte("not json"))
	assert.Equal(t, int64(1), s.dropped.Load())

	ev := <-s.events
	assert.Equal(t, "first", ev["message"])
	assert.Equal(t, service, ev["service"])
	assert.Contains(t, ev, ingest.TimestampField)
}
