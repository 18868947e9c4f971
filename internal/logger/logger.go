package logger

import (
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const service = "booklets"

// Options defines logger initialization parameters.
type Options struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool

    // Console receives the human-facing stream; os.Stdout when nil. The CLI
    // points it at os.Stderr so stdout stays free for plan output.
    Console io.Writer

    SendToAxiom  bool
    AxiomAPIKey  string
    AxiomOrgID   string
    AxiomDataset string
    AxiomFlush   time.Duration
}

var ship *shipper

// Init installs the global zerolog logger. Output fans out to the console,
// the rotated file when File is set, and Axiom when enabled.
func Init(opts Options) error {
    sinks := make([]io.Writer, 0, 3)

    console := opts.Console
    if console == nil { console = os.Stdout }
    if opts.Pretty {
        console = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
    }
    sinks = append(sinks, console)

    if opts.File != "" {
        if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
            return fmt.Errorf("create logs dir: %w", err)
        }
        sinks = append(sinks, &lumberjack.Logger{
            Filename:   opts.File,
            MaxSize:    opts.MaxSizeMB,
            MaxBackups: opts.MaxBackups,
            MaxAge:     opts.MaxAgeDays,
            Compress:   opts.Compress,
        })
    }

    if opts.SendToAxiom && opts.AxiomAPIKey != "" {
        s, err := newShipper(opts.AxiomAPIKey, opts.AxiomOrgID, opts.AxiomDataset, opts.AxiomFlush)
        if err != nil {
            fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
        } else {
            ship = s
            sinks = append(sinks, s)
        }
    }

    lvl, err := zerolog.ParseLevel(opts.Level)
    if err != nil || opts.Level == "" {
        lvl = zerolog.InfoLevel
    }
    zerolog.TimeFieldFormat = time.RFC3339
    log.Logger = zerolog.New(io.MultiWriter(sinks...)).Level(lvl).With().Timestamp().Logger()
    return nil
}

// Close drains the Axiom shipper, if any.
func Close() {
    if ship == nil { return }
    if dropped := ship.Close(); dropped > 0 {
        fmt.Fprintf(os.Stderr, "axiom: %d log events dropped\n", dropped)
    }
    ship = nil
}

// Job returns a child of the global logger tagged with the job id.
func Job(jobID string) zerolog.Logger {
    return log.With().Str("job_id", jobID).Logger()
}
