package config

import (
    "errors"
    "fmt"
    "io/fs"
    "os"

    "github.com/joho/godotenv"
    "gopkg.in/yaml.v3"
)

// Load reads an optional .env file, the environment, and the imposition
// profile named by BOOKLETS_PROFILE, in that order of precedence (later wins).
func Load() (Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
        return Config{}, fmt.Errorf("load .env: %w", err)
    }
    cfg := FromEnv()
    if p := os.Getenv("BOOKLETS_PROFILE"); p != "" {
        if err := cfg.ApplyProfile(p); err != nil {
            return Config{}, err
        }
    }
    return cfg, nil
}

// ApplyProfile overlays imposition defaults from a YAML file. Keys absent
// from the file keep their current values.
//
//  booklet_size: 16
//  add_blank: 1
//  format: A3
//  long_edge: true
func (c *Config) ApplyProfile(path string) error {
    b, err := os.ReadFile(path)
    if err != nil {
        return fmt.Errorf("read profile: %w", err)
    }
    p := c.Impose
    if err := yaml.Unmarshal(b, &p); err != nil {
        return fmt.Errorf("parse profile %s: %w", path, err)
    }
    c.Impose = p
    return nil
}
