package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ImposeConfig holds booklet defaults; CLI flags and request fields override them.
type ImposeConfig struct {
    BookletSize int    `yaml:"booklet_size"`
    AddBlank    int    `yaml:"add_blank"`
    Format      string `yaml:"format"`
    LongEdge    bool   `yaml:"long_edge"`
}

// WorkerConfig bounds the service's imposition jobs.
type WorkerConfig struct {
    Concurrency int
    JobTimeout  time.Duration
    TempMaxAge  time.Duration
    WorkDir     string
}

// StoreConfig defines job status storage. An empty RedisURL keeps status in memory.
type StoreConfig struct {
    RedisURL  string
    StatusTTL time.Duration
}

// StorageConfig defines where inputs are uploaded and results are written.
type StorageConfig struct {
    Bucket    string
    Region    string
    Endpoint  string
    AccessKey string
    SecretKey string
    PathStyle bool
    UploadDir string
    ResultDir string
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
    Port            string
    MaxUploadMB     int
    ShutdownTimeout time.Duration
    // MaxPages bounds page count, booklet size and blank padding accepted over HTTP.
    MaxPages int
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Impose  ImposeConfig
    Worker  WorkerConfig
    Store   StoreConfig
    Storage StorageConfig
    Server  ServerConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", ""),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_booklets",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    // Imposition defaults
    cfg.Impose = ImposeConfig{
        BookletSize: parseInt(getEnv("BOOKLET_SIZE", "16"), 16),
        AddBlank:    parseInt(getEnv("BOOKLET_ADD_BLANK", "0"), 0),
        Format:      getEnv("BOOKLET_FORMAT", "A4"),
        LongEdge:    parseBool(getEnv("BOOKLET_LONG_EDGE", "false")),
    }

    // Worker defaults
    cfg.Worker = WorkerConfig{
        Concurrency: parseInt(getEnv("WORKER_CONCURRENCY", "4"), 4),
        JobTimeout:  parseDuration(getEnv("JOB_TIMEOUT", "5m"), 5*time.Minute),
        TempMaxAge:  parseDuration(getEnv("TEMP_MAX_AGE", "1h"), time.Hour),
        WorkDir:     getEnv("WORK_DIR", ""),
    }
    if cfg.Worker.Concurrency <= 0 { cfg.Worker.Concurrency = 1 }

    cfg.Store = StoreConfig{
        RedisURL:  getEnv("REDIS_URL", ""),
        StatusTTL: parseDuration(getEnv("STATUS_TTL", "168h"), 7*24*time.Hour),
    }

    cfg.Storage = StorageConfig{
        Bucket:    getEnv("AWS_S3_BUCKET", ""),
        Region:    getEnv("AWS_REGION", ""),
        Endpoint:  getEnv("S3_ENDPOINT", ""),
        AccessKey: getEnv("S3_ACCESS_KEY", ""),
        SecretKey: getEnv("S3_SECRET_KEY", ""),
        PathStyle: parseBool(getEnv("S3_PATH_STYLE", "false")),
        UploadDir: getEnv("UPLOAD_DIR", "uploads"),
        ResultDir: getEnv("RESULT_DIR", "uploads/results"),
    }

    cfg.Server = ServerConfig{
        Port:            getEnv("PORT", "8080"),
        MaxUploadMB:     parseInt(getEnv("MAX_UPLOAD_MB", "64"), 64),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
        MaxPages:        parseInt(getEnv("MAX_PAGES", "100000"), 100000),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
