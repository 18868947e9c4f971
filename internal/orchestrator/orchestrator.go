package orchestrator

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/local/booklets/internal/config"
    "github.com/local/booklets/internal/filetype"
    "github.com/local/booklets/internal/imposition"
    "github.com/local/booklets/internal/logger"
    "github.com/local/booklets/internal/metrics"
    "github.com/local/booklets/internal/preview"
    "github.com/local/booklets/internal/source"
    "github.com/local/booklets/internal/statuscheck"
    "github.com/local/booklets/internal/store"
)

type StatusStore interface {
    Set(ctx context.Context, jobID string, st store.Status) error
    Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

// SideRenderer renders one output side of a finished booklet.
type SideRenderer func(pdfPath string, side int, opts preview.Options) ([]byte, int, int, error)

type Dependencies struct {
    Imposer  Imposer
    Status   StatusStore
    Checker  *statuscheck.Checker
    Render   SideRenderer
    Defaults config.ImposeConfig
    Worker   config.WorkerConfig
    Storage  config.StorageConfig
    // MaxUploadBytes caps multipart uploads.
    MaxUploadBytes int64
    // MaxPages caps page count, booklet size and blank padding per request.
    MaxPages int
}

type Orchestrator struct {
    deps     Dependencies
    detector *filetype.Detector
    sem      chan struct{}
    wg       sync.WaitGroup
}

// statusWriteTimeout bounds each status write; it is independent of the job deadline.
const statusWriteTimeout = 5 * time.Second

func New(deps Dependencies) *Orchestrator {
    if deps.Worker.Concurrency <= 0 { deps.Worker.Concurrency = 1 }
    if deps.Worker.JobTimeout <= 0 { deps.Worker.JobTimeout = 5 * time.Minute }
    if deps.MaxUploadBytes <= 0 { deps.MaxUploadBytes = 64 << 20 }
    if deps.MaxPages <= 0 { deps.MaxPages = 100000 }
    if deps.Render == nil { deps.Render = preview.RenderSide }
    return &Orchestrator{deps: deps, detector: filetype.New(), sem: make(chan struct{}, deps.Worker.Concurrency)}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request){ w.WriteHeader(http.StatusOK); _,_ = w.Write([]byte("ok")) })
    mux.HandleFunc("GET /status", o.handleStatus)
    mux.Handle("GET /metrics", metrics.Handler())
    mux.HandleFunc("GET /plan", o.handlePlan)
    mux.HandleFunc("POST /impose", o.handleImpose)
    mux.HandleFunc("GET /progress/{id}", o.handleProgress)
    mux.HandleFunc("GET /download/{id}", o.handleDownload)
    mux.HandleFunc("GET /preview/{id}", o.handlePreview)
}

// Wait blocks until every started job has finished.
func (o *Orchestrator) Wait() { o.wg.Wait() }

type imposeResp struct {
    Status   string                 `json:"status"`
    JobID    string                 `json:"job_id"`
    Message  string                 `json:"message"`
    Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// checkLimits keeps a single request from sizing an unbounded plan.
func (o *Orchestrator) checkLimits(pages, bookletSize, addBlank int) error {
    limit := o.deps.MaxPages
    switch {
    case pages > limit:
        return fmt.Errorf("pages %d exceeds limit %d", pages, limit)
    case bookletSize > limit:
        return fmt.Errorf("booklet_size %d exceeds limit %d", bookletSize, limit)
    case addBlank > limit:
        return fmt.Errorf("add_blank %d exceeds limit %d", addBlank, limit)
    }
    return nil
}

// handlePlan streams the sheet sides for a page count without touching any file.
func (o *Orchestrator) handlePlan(w http.ResponseWriter, r *http.Request) {
    p := params{get: r.URL.Query().Get}
    opts := imposition.Options{
        PageCount:   p.int("pages", 0),
        BookletSize: p.int("booklet_size", o.deps.Defaults.BookletSize),
        AddBlank:    p.int("add_blank", o.deps.Defaults.AddBlank),
        LongEdge:    p.bool("long_edge", o.deps.Defaults.LongEdge),
    }
    if p.err != nil {
        http.Error(w, p.err.Error(), http.StatusBadRequest); return
    }
    if err := o.checkLimits(opts.PageCount, opts.BookletSize, opts.AddBlank); err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest); return
    }
    layout, err := imposition.Describe(opts)
    if err != nil {
        http.Error(w, err.Error(), http.StatusBadRequest); return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusOK)
    enc := json.NewEncoder(w)
    _, _ = io.WriteString(w, `{"options":`)
    _ = enc.Encode(opts)
    _, _ = io.WriteString(w, `,"layout":`)
    _ = enc.Encode(layout)
    _, _ = io.WriteString(w, `,"sides":[`)
    first := true
    err = imposition.Walk(opts, func(s imposition.SheetSide) error {
        if !first {
            if _, err := io.WriteString(w, ","); err != nil { return err }
        }
        first = false
        return enc.Encode(s)
    })
    if err != nil {
        log.Warn().Err(err).Int("pages", opts.PageCount).Msg("plan stream aborted")
        return
    }
    _, _ = io.WriteString(w, "]}\n")
}

// handleImpose accepts either a multipart upload (field "file") or a JSON body
// with a file_url, validates the options and starts the job.
func (o *Orchestrator) handleImpose(w http.ResponseWriter, r *http.Request) {
    defer r.Body.Close()
    jobID := uuid.NewString()

    var req Request
    var uploaded string
    if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
        var err error
        req, uploaded, err = o.readUpload(w, r, jobID)
        if err != nil {
            http.Error(w, err.Error(), http.StatusBadRequest); return
        }
    } else {
        req = o.defaults()
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            http.Error(w, "invalid json", http.StatusBadRequest); return
        }
        if req.Source == "" {
            http.Error(w, "missing file_url", http.StatusBadRequest); return
        }
    }
    discard := func() {
        if uploaded != "" { _ = os.Remove(uploaded) }
    }
    if err := o.admit(&req, uploaded, jobID); err != nil {
        discard()
        http.Error(w, err.Error(), http.StatusBadRequest); return
    }

    start := time.Now()
    meta := map[string]any{"source": req.Source, "booklet_size": req.BookletSize, "add_blank": req.AddBlank, "format": req.Format, "long_edge": req.LongEdge}
    if err := o.deps.Status.Set(r.Context(), jobID, store.Status{Status: store.StateQueued, Message: "queued", Start: &start, Metadata: meta}); err != nil {
        discard()
        log.Error().Err(err).Str("job_id", jobID).Msg("status store unavailable")
        http.Error(w, "status store unavailable", http.StatusServiceUnavailable); return
    }
    log.Info().Str("job_id", jobID).Str("source", req.Source).Int("booklet_size", req.BookletSize).Msg("job created")

    o.wg.Add(1)
    go o.run(jobID, req, uploaded, start, meta)

    writeJSON(w, http.StatusCreated, imposeResp{Status: "ok", JobID: jobID, Message: "Imposition job created"})
}

// admit validates req for the service. Sources are uploads or remote URLs;
// results land in ResultDir unless they go to S3.
func (o *Orchestrator) admit(req *Request, uploaded, jobID string) error {
    if err := req.Validate(); err != nil { return err }
    if err := o.checkLimits(0, req.BookletSize, req.AddBlank); err != nil { return err }
    if uploaded == "" && !remote(req.Source) {
        return errors.New("file_url must be an http(s):// or s3:// URL")
    }
    switch {
    case req.Output == "":
        req.Output = filepath.Join(o.deps.Storage.ResultDir, jobID+"_booklet.pdf")
    case !strings.HasPrefix(req.Output, "s3://"):
        return errors.New("output_url must be an s3:// URL")
    }
    return nil
}

func (o *Orchestrator) defaults() Request {
    d := o.deps.Defaults
    return Request{BookletSize: d.BookletSize, AddBlank: d.AddBlank, Format: d.Format, LongEdge: d.LongEdge}
}

func (o *Orchestrator) readUpload(w http.ResponseWriter, r *http.Request, jobID string) (Request, string, error) {
    r.Body = http.MaxBytesReader(w, r.Body, o.deps.MaxUploadBytes)
    if err := r.ParseMultipartForm(32 << 20); err != nil {
        return Request{}, "", errors.New("invalid multipart form")
    }
    file, hdr, err := r.FormFile("file")
    if err != nil { return Request{}, "", errors.New("missing file") }
    defer file.Close()

    req := o.defaults()
    p := params{get: r.FormValue}
    req.BookletSize = p.int("booklet_size", req.BookletSize)
    req.AddBlank = p.int("add_blank", req.AddBlank)
    req.LongEdge = p.bool("long_edge", req.LongEdge)
    if p.err != nil { return Request{}, "", p.err }
    if f := r.FormValue("format"); f != "" { req.Format = f }
    req.Output = r.FormValue("output_url")

    info, err := o.detector.DetectReader(file)
    if err != nil { return Request{}, "", err }
    if !info.Supported { return Request{}, "", fmt.Errorf("%w: %s", filetype.ErrNotPDF, info.Description) }
    if _, err := file.Seek(0, io.SeekStart); err != nil { return Request{}, "", fmt.Errorf("rewind upload: %w", err) }

    if err := os.MkdirAll(o.deps.Storage.UploadDir, 0o755); err != nil {
        return Request{}, "", fmt.Errorf("cannot create upload dir")
    }
    name := filepath.Base(hdr.Filename)
    if name == "" || name == "." || name == "/" { name = "upload.pdf" }
    localPath := filepath.Join(o.deps.Storage.UploadDir, jobID+"_"+name)
    out, err := os.Create(localPath)
    if err != nil { return Request{}, "", fmt.Errorf("cannot save upload") }
    if _, err := io.Copy(out, file); err != nil {
        out.Close()
        os.Remove(localPath)
        return Request{}, "", fmt.Errorf("write failed")
    }
    _ = out.Close()
    req.Source = localPath
    return req, localPath, nil
}

// setStatus writes st with its own deadline so a job that ran out of time can
// still record its failure.
func (o *Orchestrator) setStatus(jl zerolog.Logger, jobID string, st store.Status) {
    ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
    defer cancel()
    if err := o.deps.Status.Set(ctx, jobID, st); err != nil {
        jl.Error().Err(err).Str("state", st.Status).Msg("status write failed")
    }
}

func (o *Orchestrator) run(jobID string, req Request, uploaded string, start time.Time, meta map[string]any) {
    defer o.wg.Done()
    o.sem <- struct{}{}
    defer func() { <-o.sem }()
    if uploaded != "" { defer os.Remove(uploaded) }

    jl := logger.Job(jobID)
    ctx, cancel := context.WithTimeout(context.Background(), o.deps.Worker.JobTimeout)
    defer cancel()

    o.setStatus(jl, jobID, store.Status{Status: store.StateProcessing, Progress: 10, Message: "imposing", Start: &start, Metadata: meta})

    out, err := o.deps.Imposer.Impose(ctx, req)
    end := time.Now()
    if err != nil {
        jl.Error().Err(err).Msg("imposition failed")
        o.setStatus(jl, jobID, store.Status{Status: store.StateFailed, Progress: 100, Message: err.Error(), Start: &start, End: &end, Metadata: meta})
        return
    }
    meta["output"] = out.Output
    meta["pages"] = out.Pages
    meta["sides"] = out.Layout.Sides
    meta["sheets"] = out.Layout.Sheets
    meta["blanks"] = out.Layout.Blanks
    if out.Local != "" { meta["result_local_path"] = out.Local }
    o.setStatus(jl, jobID, store.Status{Status: store.StateSuccess, Progress: 100, Message: "completed", Start: &start, End: &end, Metadata: meta})
    jl.Info().Str("output", out.Output).Dur("took", end.Sub(start)).Msg("job finished")

    source.CleanupTemps(o.deps.Worker.TempMaxAge)
}

func (o *Orchestrator) handleProgress(w http.ResponseWriter, r *http.Request) {
    id := r.PathValue("id")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil { http.Error(w, "error", http.StatusInternalServerError); return }
    if !ok { http.Error(w, "not found", http.StatusNotFound); return }
    writeJSON(w, http.StatusOK, map[string]any{
        "success":    st.Status == store.StateSuccess,
        "job_id":     id,
        "status":     st.Status,
        "progress":   st.Progress,
        "message":    st.Message,
        "start_time": st.Start,
        "end_time":   st.End,
        "metadata":   st.Metadata,
    })
}

// finished returns the local result of a successful job or writes the error response.
func (o *Orchestrator) finished(w http.ResponseWriter, r *http.Request) (string, store.Status, bool) {
    id := r.PathValue("id")
    st, ok, err := o.deps.Status.Get(r.Context(), id)
    if err != nil || !ok { http.Error(w, "not found", http.StatusNotFound); return "", st, false }
    if st.Status != store.StateSuccess { http.Error(w, "not ready", http.StatusAccepted); return "", st, false }
    p, _ := st.Metadata["result_local_path"].(string)
    return p, st, true
}

func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
    p, st, ok := o.finished(w, r)
    if !ok { return }
    if p == "" {
        // Stored remotely; hand back the location.
        writeJSON(w, http.StatusOK, map[string]any{"job_id": r.PathValue("id"), "output": st.Metadata["output"]})
        return
    }
    f, err := os.Open(p)
    if err != nil { http.Error(w, "result not available", http.StatusNotFound); return }
    defer f.Close()
    w.Header().Set("Content-Type", "application/pdf")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=booklet_%s.pdf", r.PathValue("id")))
    _, _ = io.Copy(w, f)
}

func (o *Orchestrator) handlePreview(w http.ResponseWriter, r *http.Request) {
    p, _, ok := o.finished(w, r)
    if !ok { return }
    if p == "" { http.Error(w, "preview only available for local results", http.StatusBadRequest); return }
    q := params{get: r.URL.Query().Get}
    side := q.int("side", 1)
    opts := preview.DefaultOptions
    opts.DPI = q.int("dpi", opts.DPI)
    opts.Gray = q.bool("gray", false)
    if q.err != nil { http.Error(w, q.err.Error(), http.StatusBadRequest); return }
    img, _, _, err := o.deps.Render(p, side, opts)
    if err != nil { http.Error(w, err.Error(), http.StatusBadRequest); return }
    w.Header().Set("Content-Type", "image/jpeg")
    _, _ = w.Write(img)
}

func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
    if o.deps.Checker == nil { http.Error(w, "no checker", http.StatusNotImplemented); return }
    s := o.deps.Checker.Summary(r.Context())
    code := http.StatusOK
    if !s.OK() { code = http.StatusServiceUnavailable }
    writeJSON(w, code, s)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

// params reads typed request parameters. A missing parameter takes its
// default; the first malformed one is kept in err.
type params struct {
    get func(string) string
    err error
}

func (p *params) int(name string, def int) int {
    v := strings.TrimSpace(p.get(name))
    if v == "" { return def }
    n, err := strconv.Atoi(v)
    if err != nil {
        p.fail(fmt.Errorf("%s: %q is not a number", name, v))
        return def
    }
    return n
}

func (p *params) bool(name string, def bool) bool {
    v := strings.ToLower(strings.TrimSpace(p.get(name)))
    switch v {
    case "":
        return def
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    p.fail(fmt.Errorf("%s: %q is not a boolean", name, v))
    return def
}

func (p *params) fail(err error) {
    if p.err == nil { p.err = err }
}
