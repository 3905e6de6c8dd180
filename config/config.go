// Package config loads the decoder's one recognized option, chunk
// size, from a YAML file. Grounded on boomballa-df2redis's use of
// gopkg.in/yaml.v3 for its own tool configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const defaultChunkSize = 65536

// Config is the decoder's external configuration surface (spec §6).
type Config struct {
	ChunkSize int `yaml:"chunk_size"`
}

// Default returns a Config with chunk_size at its documented default.
func Default() Config {
	return Config{ChunkSize: defaultChunkSize}
}

// Load reads a YAML config file, applying Default() for any field left
// unset. A non-positive chunk_size falls back to the default; the
// decoder itself is correct for any positive chunk size, including 1.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	return cfg, nil
}
