package statuscheck

import (
    "context"
    "errors"
    "time"
)

// Pinger models the minimal capability we need from a dependency.
type Pinger interface {
    Ping(ctx context.Context) error
}

// BucketChecker models the S3 HeadBucket probe.
type BucketChecker interface {
    HeadBucket(ctx context.Context) error
}

// Checker aggregates health checks for external dependencies used by the service.
type Checker struct {
    store  Pinger
    bucket BucketChecker
}

// Options configures the Checker. A nil Bucket means S3 output is disabled.
type Options struct {
    Store  Pinger
    Bucket BucketChecker
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    Store Status `json:"store"`
    S3    Status `json:"s3"`
}

// OK reports whether every configured subsystem is ready.
func (s Summary) OK() bool { return s.Store.OK && (s.S3.OK || s.S3.Message == msgDisabled) }

const msgDisabled = "Not configured"

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{store: opts.Store, bucket: opts.Bucket}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Store: c.checkStore(ctx),
        S3:    c.checkS3(ctx),
    }
}

func (c *Checker) checkStore(ctx context.Context) Status {
    if c.store == nil {
        return Status{OK: false, Message: "client unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.store.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.bucket == nil {
        return Status{OK: false, Message: msgDisabled}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := c.bucket.HeadBucket(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
