package orchestrator

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/booklets/internal/compose"
    "github.com/local/booklets/internal/imposition"
    "github.com/local/booklets/internal/metrics"
    "github.com/local/booklets/internal/paper"
    "github.com/local/booklets/internal/source"
    "github.com/local/booklets/internal/storage"
)

// Request is one imposition: a source reference, where the booklet goes and
// how it is folded.
type Request struct {
    Source      string `json:"file_url"`
    Output      string `json:"output_url,omitempty"` // local path or s3://bucket/key
    BookletSize int    `json:"booklet_size"`
    AddBlank    int    `json:"add_blank"`
    Format      string `json:"format"`
    LongEdge    bool   `json:"long_edge"`
}

// Options returns the planner options for a document of pages pages.
func (r Request) Options(pages int) imposition.Options {
    return imposition.Options{PageCount: pages, BookletSize: r.BookletSize, AddBlank: r.AddBlank, LongEdge: r.LongEdge}
}

// Validate checks everything that can be checked before touching the source.
func (r Request) Validate() error {
    if r.Source == "" { return errors.New("missing source") }
    if err := r.Options(0).Validate(); err != nil { return err }
    if _, err := paper.Lookup(r.Format); err != nil { return err }
    return nil
}

// Outcome reports a finished imposition.
type Outcome struct {
    Output  string            `json:"output"`
    Local   string            `json:"local_path,omitempty"`
    Pages   int               `json:"pages"`
    Layout  imposition.Layout `json:"layout"`
    Compose compose.Result    `json:"compose"`
}

// Imposer runs imposition requests.
type Imposer interface {
    Impose(ctx context.Context, req Request) (Outcome, error)
}

// Opener resolves a document reference to a local PDF.
type Opener interface {
    Open(ctx context.Context, ref string) (*source.Document, error)
}

// Uploader stores a finished booklet at an s3:// URL.
type Uploader func(ctx context.Context, s3url, localPath string) (string, error)

// Pipeline is the Imposer used by the CLI and the service.
type Pipeline struct {
    opener   Opener
    composer compose.Composer
    upload   Uploader
    workDir  string
}

func NewPipeline(opener Opener, composer compose.Composer, s3opts storage.Options, workDir string) *Pipeline {
    return &Pipeline{opener: opener, composer: composer, upload: s3Uploader(s3opts), workDir: workDir}
}

func s3Uploader(opts storage.Options) Uploader {
    return func(ctx context.Context, s3url, localPath string) (string, error) {
        bucket, key, err := storage.ParseURL(s3url)
        if err != nil { return "", err }
        cli, err := storage.NewS3Client(ctx, bucket, opts)
        if err != nil { return "", fmt.Errorf("failed to create S3 client: %w", err) }
        return cli.UploadFile(ctx, key, localPath, "application/pdf", map[string]string{"generator": "booklets"})
    }
}

func (p *Pipeline) Impose(ctx context.Context, req Request) (out Outcome, err error) {
    start := time.Now()
    metrics.JobStarted()
    defer func() {
        metrics.JobFinished()
        result := "success"
        switch {
        case errors.Is(err, imposition.ErrInvalidConfiguration):
            result = "invalid"
        case err != nil:
            result = "failed"
        }
        metrics.ObserveImposition(result, time.Since(start))
    }()

    if err := req.Validate(); err != nil {
        return Outcome{}, err
    }
    outPaper, _ := paper.Lookup(req.Format)

    doc, err := p.opener.Open(ctx, req.Source)
    if err != nil {
        return Outcome{}, fmt.Errorf("open source: %w", err)
    }
    defer doc.Close()
    if doc.Pages == 0 {
        return Outcome{}, compose.ErrEmptyDocument
    }

    opts := req.Options(doc.Pages)
    sides, err := imposition.Plan(opts)
    if err != nil {
        return Outcome{}, err
    }
    layout, _ := imposition.Describe(opts)

    target := req.Output
    if target == "" {
        if remote(req.Source) {
            return Outcome{}, errors.New("output is required for remote sources")
        }
        target = compose.OutputName(doc.Path)
    }

    local := target
    if strings.HasPrefix(target, "s3://") {
        f, err := os.CreateTemp(p.workDir, "booklet-work-*.pdf")
        if err != nil { return Outcome{}, err }
        local = f.Name()
        f.Close()
        defer os.Remove(local)
    }

    res, err := p.composer.Compose(ctx, compose.Job{Input: doc.Path, Output: local, Sides: sides, Paper: outPaper})
    if err != nil {
        return Outcome{}, fmt.Errorf("compose: %w", err)
    }

    out = Outcome{Output: target, Pages: doc.Pages, Layout: layout, Compose: res}
    if strings.HasPrefix(target, "s3://") {
        if out.Output, err = p.upload(ctx, target, local); err != nil {
            return Outcome{}, fmt.Errorf("upload: %w", err)
        }
    } else {
        out.Local, _ = filepath.Abs(local)
    }

    metrics.AddLayout(outPaper.Name, doc.Pages, layout.Sides, layout.Blanks)
    log.Info().
        Str("source", req.Source).
        Str("output", out.Output).
        Int("pages", doc.Pages).
        Int("booklets", layout.Booklets).
        Int("sheets", layout.Sheets).
        Int("blanks", layout.Blanks).
        Dur("took", time.Since(start)).
        Msg("imposition done")
    return out, nil
}

func remote(ref string) bool {
    return strings.HasPrefix(ref, "s3://") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
