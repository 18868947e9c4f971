package source

import (
    "os"
    "path/filepath"
    "strings"
    "time"
)

// CleanupTemps removes known temporary files created during processing
// older than the provided age threshold. It targets names created by
// our helpers (bookletdl-*.pdf, s3pdf-*.pdf) and composer work dirs.
func CleanupTemps(maxAge time.Duration) int {
    return cleanupDir(os.TempDir(), maxAge, time.Now())
}

func cleanupDir(dir string, maxAge time.Duration, now time.Time) int {
    entries, err := os.ReadDir(dir)
    if err != nil { return 0 }
    removed := 0
    for _, e := range entries {
        name := e.Name()
        if !(strings.HasPrefix(name, "bookletdl-") || strings.HasPrefix(name, "s3pdf-") || strings.HasPrefix(name, "booklet-work-")) {
            continue
        }
        info, err := e.Info()
        if err != nil { continue }
        if now.Sub(info.ModTime()) >= maxAge {
            if os.RemoveAll(filepath.Join(dir, name)) == nil { removed++ }
        }
    }
    return removed
}
