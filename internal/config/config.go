// Package config handles recorder configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	apperr "github.com/GriffinCanCode/screenrec/internal/errors"
)

// Save targets.
const (
	SaveTargetFile = "file"
	SaveTargetS3   = "s3"
)

type Config struct {
	HTTPAddr    string
	GRPCAddr    string  // empty disables the health server
	FFmpegPath  string
	FrameRate   int
	ChunkSize   int     // bytes per delivered chunk
	PreviewRate float64 // Hz
	OutputDir   string
	Headless    bool
	SaveTarget  string
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	LogLevel    string
	LogFile     string
}

type fileConfig struct {
	HTTPAddr    string  `toml:"http_addr"`
	GRPCAddr    string  `toml:"grpc_addr"`
	FFmpegPath  string  `toml:"ffmpeg_path"`
	FrameRate   int     `toml:"frame_rate"`
	ChunkSize   int     `toml:"chunk_size"`
	PreviewRate float64 `toml:"preview_rate"`
	OutputDir   string  `toml:"output_dir"`
	Headless    *bool   `toml:"headless"`
	SaveTarget  string  `toml:"save_target"`
	S3Bucket    string  `toml:"s3_bucket"`
	S3Prefix    string  `toml:"s3_prefix"`
	S3Region    string  `toml:"s3_region"`
	LogLevel    string  `toml:"log_level"`
	LogFile     string  `toml:"log_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr:    ":8000",
		FFmpegPath:  "ffmpeg",
		FrameRate:   30,
		ChunkSize:   64 * 1024,
		PreviewRate: 2.0,
		OutputDir:   defaultOutputDir(),
		SaveTarget:  SaveTargetFile,
		LogLevel:    "info",
	}
}

// Load builds the configuration from defaults, the config file (if any) and
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()
	if path := FilePath(); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return apperr.Wrap(err, apperr.CodeConfigInvalid, "parse config file").WithMetadata("path", path)
	}
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.FFmpegPath, fc.FFmpegPath)
	setString(&c.SaveTarget, fc.SaveTarget)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Prefix, fc.S3Prefix)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFile, expandTilde(fc.LogFile))
	setString(&c.OutputDir, expandTilde(fc.OutputDir))
	if fc.FrameRate != 0 {
		c.FrameRate = fc.FrameRate
	}
	if fc.ChunkSize != 0 {
		c.ChunkSize = fc.ChunkSize
	}
	if fc.PreviewRate != 0 {
		c.PreviewRate = fc.PreviewRate
	}
	if fc.Headless != nil {
		c.Headless = *fc.Headless
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = getEnv("GRPC_ADDR", c.GRPCAddr)
	c.FFmpegPath = getEnv("FFMPEG_PATH", c.FFmpegPath)
	c.FrameRate = getEnvInt("FRAME_RATE", c.FrameRate)
	c.ChunkSize = getEnvInt("CHUNK_SIZE", c.ChunkSize)
	c.PreviewRate = getEnvFloat("PREVIEW_RATE", c.PreviewRate)
	c.OutputDir = expandTilde(getEnv("OUTPUT_DIR", c.OutputDir))
	c.Headless = getEnvBool("HEADLESS", c.Headless)
	c.SaveTarget = getEnv("SAVE_TARGET", c.SaveTarget)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Prefix = getEnv("S3_PREFIX", c.S3Prefix)
	c.S3Region = getEnv("S3_REGION", c.S3Region)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = expandTilde(getEnv("LOG_FILE", c.LogFile))
}

// Validate rejects settings the recorder cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.FrameRate <= 0:
		return apperr.Newf(apperr.CodeConfigInvalid, "frame rate must be positive, got %d", c.FrameRate)
	case c.ChunkSize <= 0:
		return apperr.Newf(apperr.CodeConfigInvalid, "chunk size must be positive, got %d", c.ChunkSize)
	case c.PreviewRate <= 0:
		return apperr.Newf(apperr.CodeConfigInvalid, "preview rate must be positive, got %g", c.PreviewRate)
	case c.FFmpegPath == "":
		return apperr.New(apperr.CodeConfigInvalid, "ffmpeg path is empty")
	}
	switch c.SaveTarget {
	case SaveTargetFile:
	case SaveTargetS3:
		if c.S3Bucket == "" {
			return apperr.New(apperr.CodeConfigInvalid, "s3 save target requires S3_BUCKET")
		}
	default:
		return apperr.Newf(apperr.CodeConfigInvalid, "unknown save target %q", c.SaveTarget)
	}
	return nil
}

// FilePath returns the config file location, or "" when none exists.
func FilePath() string {
	var dir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "screenrec")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "screenrec")
	} else {
		return ""
	}
	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultOutputDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Videos")
	}
	return "."
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
