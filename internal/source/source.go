package source

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "os"
    "strings"

    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/rs/zerolog/log"

    "github.com/local/booklets/internal/filetype"
    "github.com/local/booklets/internal/paper"
    "github.com/local/booklets/internal/storage"
)

// Temp file prefixes created by this package; see CleanupTemps.
const (
    httpTempPattern = "bookletdl-*.pdf"
    s3TempPattern   = "s3pdf-*.pdf"
)

// Document is a local, validated source PDF.
type Document struct {
    Ref   string
    Path  string
    Pages int
    Size  paper.Size // first page; zero when unknown

    tmp string
}

// Close removes the local copy when the document was downloaded.
func (d *Document) Close() error {
    if d.tmp == "" { return nil }
    return os.Remove(d.tmp)
}

// Resolver turns document references into local files.
type Resolver struct {
    HTTP     *http.Client
    S3       storage.Options
    detector *filetype.Detector
}

func NewResolver(s3opts storage.Options) *Resolver {
    return &Resolver{HTTP: http.DefaultClient, S3: s3opts, detector: filetype.New()}
}

// Open resolves ref and reads its page count.
// Supports:
// - file://path or absolute/relative filesystem paths
// - http(s):// URLs (downloads to temp)
// - s3://bucket/key (downloads to temp via AWS SDK v2)
func (r *Resolver) Open(ctx context.Context, ref string) (*Document, error) {
    var localPath, tmp string
    var err error

    switch {
    case strings.HasPrefix(ref, "s3://"):
        localPath, err = r.downloadS3(ctx, ref)
        tmp = localPath
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        localPath, err = r.downloadHTTP(ctx, ref)
        tmp = localPath
    case strings.HasPrefix(ref, "file://"):
        localPath = strings.TrimPrefix(ref, "file://")
    default:
        localPath = ref
    }
    if err != nil {
        return nil, err
    }

    doc := &Document{Ref: ref, Path: localPath, tmp: tmp}
    if err := r.detector.RequirePDF(localPath); err != nil {
        doc.Close()
        return nil, err
    }
    n, err := api.PageCountFile(localPath)
    if err != nil {
        doc.Close()
        return nil, fmt.Errorf("pdf page count failed: %w", err)
    }
    doc.Pages = n
    if dims, err := api.PageDimsFile(localPath); err == nil && len(dims) > 0 {
        doc.Size = paper.Size{Name: "source", Width: dims[0].Width, Height: dims[0].Height}
    }
    log.Debug().Str("ref", ref).Str("path", localPath).Int("pages", n).Msg("source opened")
    return doc, nil
}

func (r *Resolver) downloadHTTP(ctx context.Context, url string) (string, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil { return "", err }
    resp, err := r.HTTP.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK { return "", fmt.Errorf("http %d", resp.StatusCode) }
    f, err := os.CreateTemp("", httpTempPattern)
    if err != nil { return "", err }
    defer f.Close()
    if _, err := io.Copy(f, resp.Body); err != nil {
        os.Remove(f.Name())
        return "", err
    }
    return f.Name(), nil
}

func (r *Resolver) downloadS3(ctx context.Context, s3url string) (string, error) {
    bucket, key, err := storage.ParseURL(s3url)
    if err != nil { return "", err }
    cli, err := storage.NewS3Client(ctx, bucket, r.S3)
    if err != nil { return "", err }
    return cli.DownloadToFile(ctx, key, s3TempPattern)
}
