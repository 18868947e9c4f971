package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/booklets/internal/compose"
    cfgpkg "github.com/local/booklets/internal/config"
    logpkg "github.com/local/booklets/internal/logger"
    "github.com/local/booklets/internal/metrics"
    "github.com/local/booklets/internal/orchestrator"
    "github.com/local/booklets/internal/source"
    "github.com/local/booklets/internal/statuscheck"
    "github.com/local/booklets/internal/storage"
    "github.com/local/booklets/internal/store"
)

func main() {
    cfg, err := cfgpkg.Load()
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }

    cmd, args := "impose", os.Args[1:]
    if len(args) > 0 {
        switch args[0] {
        case "impose", "plan", "serve":
            cmd, args = args[0], args[1:]
        case "-h", "-help", "--help", "help":
            fmt.Print(usage)
            return
        }
    }

    // Init logging; the CLI keeps stdout for its own output.
    console := os.Stderr
    if cmd == "serve" { console = os.Stdout }
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        Console: console,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    switch cmd {
    case "plan":
        p, err := parsePlan(args, cfg.Impose, os.Stderr)
        if err != nil { exitUsage() }
        if err := printPlan(os.Stdout, p); err != nil {
            log.Fatal().Err(err).Msg("plan failed")
        }
    case "serve":
        serve(cfg)
    default:
        req, err := parseImpose(args, cfg.Impose, os.Stderr)
        if err != nil { exitUsage() }
        pipe := newPipeline(cfg)
        out, err := pipe.Impose(context.Background(), req)
        if err != nil {
            log.Fatal().Err(err).Str("input", req.Source).Msg("imposition failed")
        }
        fmt.Println(out.Output)
    }
}

func exitUsage() {
    fmt.Fprint(os.Stderr, usage)
    os.Exit(2)
}

func s3Options(cfg cfgpkg.Config) storage.Options {
    return storage.Options{
        Region: cfg.Storage.Region,
        Endpoint: cfg.Storage.Endpoint,
        AccessKey: cfg.Storage.AccessKey,
        SecretKey: cfg.Storage.SecretKey,
        PathStyle: cfg.Storage.PathStyle,
    }
}

func newPipeline(cfg cfgpkg.Config) *orchestrator.Pipeline {
    s3opts := s3Options(cfg)
    return orchestrator.NewPipeline(source.NewResolver(s3opts), compose.NewPDFComposer(cfg.Worker.WorkDir), s3opts, cfg.Worker.WorkDir)
}

type statusBackend interface {
    orchestrator.StatusStore
    Ping(ctx context.Context) error
    Close() error
}

func serve(cfg cfgpkg.Config) {
    metrics.Init()

    // Status store
    var status statusBackend
    if cfg.Store.RedisURL != "" {
        rs, err := store.NewRedisStatus(cfg.Store.RedisURL, cfg.Store.StatusTTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init redis status store")
        }
        status = rs
    } else {
        log.Warn().Msg("REDIS_URL not set, job status kept in memory")
        status = store.NewMemoryStatus()
    }
    defer status.Close()

    checks := statuscheck.Options{Store: status}
    if cfg.Storage.Bucket != "" {
        s3c, err := storage.NewS3Client(context.Background(), cfg.Storage.Bucket, s3Options(cfg))
        if err != nil {
            log.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("failed to init S3 client")
        }
        checks.Bucket = s3c
    }

    if err := os.MkdirAll(cfg.Storage.ResultDir, 0o755); err != nil {
        log.Fatal().Err(err).Str("dir", cfg.Storage.ResultDir).Msg("cannot create result dir")
    }

    orch := orchestrator.New(orchestrator.Dependencies{
        Imposer: newPipeline(cfg),
        Status: status,
        Checker: statuscheck.New(checks),
        Defaults: cfg.Impose,
        Worker: cfg.Worker,
        Storage: cfg.Storage,
        MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
        MaxPages: cfg.Server.MaxPages,
    })
    mux := http.NewServeMux()
    orch.RegisterRoutes(mux)

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(ctx)
    orch.Wait()
    source.CleanupTemps(cfg.Worker.TempMaxAge)
    log.Info().Msg("shutdown complete")
}
