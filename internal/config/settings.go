package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	ioutils "github.com/handiism/ygo-card-downloader/internal/io"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/handiism/ygo-card-downloader/internal/ygoprodeck"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding settings,
// for example YGODL_OUTPUT_DIR.
const EnvPrefix = "YGODL"

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	OutputDir    string `mapstructure:"output_dir"`
	Variant      string `mapstructure:"variant"` // normal, small, cropped
	Naming       string `mapstructure:"naming"`  // by-name, by-id
	ResizeImages bool   `mapstructure:"resize_images"`
	ResizeWidth  int    `mapstructure:"resize_width"`
	ResizeHeight int    `mapstructure:"resize_height"`
	ResizeFilter string `mapstructure:"resize_filter"` // lanczos, catmullrom
	JPEGQuality  int    `mapstructure:"jpeg_quality"`

	// Network settings
	CatalogURL     string        `mapstructure:"catalog_url"`
	CatalogTimeout time.Duration `mapstructure:"catalog_timeout"`
	ImageTimeout   time.Duration `mapstructure:"image_timeout"`
	MaxImageBytes  int64         `mapstructure:"max_image_bytes"`
	RequestDelay   time.Duration `mapstructure:"request_delay"`
	UserAgent      string        `mapstructure:"user_agent"`

	// Logging settings
	LogLevel  string `mapstructure:"log_level"`  // debug, info, warn, error
	LogFormat string `mapstructure:"log_format"` // text, json
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		OutputDir:    filepath.Join(homeDir, "Pictures", "YGO Cards"),
		Variant:      string(model.VariantNormal),
		Naming:       string(model.NamingByName),
		ResizeImages: false,
		ResizeWidth:  421,
		ResizeHeight: 614,
		ResizeFilter: string(ioutils.FilterLanczos),
		JPEGQuality:  ioutils.DefaultJPEGQuality,

		CatalogURL:     ygoprodeck.DefaultCatalogURL,
		CatalogTimeout: 60 * time.Second,
		ImageTimeout:   10 * time.Second,
		MaxImageBytes:  20 << 20,
		RequestDelay:   100 * time.Millisecond,
		UserAgent:      "YGOCardDownloader/1.0",

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads settings from a config file, environment variables and a .env file.
//
// Priority order: environment variables > config file > defaults. The file
// format follows the extension (json, yaml, toml). A missing file yields the
// defaults. Variables from a .env file in the working directory are loaded
// into the environment first without overriding existing ones.
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := newViper(DefaultSettings())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return settings, nil
}

// Save writes settings to a config file. The format follows the extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	v := viper.New()
	for key, value := range s.values() {
		v.Set(key, value)
	}
	return v.WriteConfigAs(path)
}

// Validate checks all settings and returns a KindConfig error for the first
// invalid one.
func (s *Settings) Validate() error {
	if _, err := s.ToDownloadConfig(); err != nil {
		return err
	}
	if _, err := ioutils.ParseResizeFilter(s.ResizeFilter); err != nil {
		return model.NewConfigError(err.Error())
	}
	if s.JPEGQuality < 1 || s.JPEGQuality > 100 {
		return model.NewConfigError(fmt.Sprintf("jpeg quality %d out of range 1-100", s.JPEGQuality))
	}
	if s.CatalogTimeout <= 0 || s.ImageTimeout <= 0 {
		return model.NewConfigError("network timeouts must be positive")
	}
	if s.RequestDelay < 0 {
		return model.NewConfigError("request delay must not be negative")
	}
	if _, err := parseLogLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// ToDownloadConfig converts settings to the immutable configuration of a run.
func (s *Settings) ToDownloadConfig() (model.DownloadConfig, error) {
	variant, err := model.ParseVariant(s.Variant)
	if err != nil {
		return model.DownloadConfig{}, err
	}
	naming, err := model.ParseNamingScheme(s.Naming)
	if err != nil {
		return model.DownloadConfig{}, err
	}

	cfg := model.DownloadConfig{
		Variant:   variant,
		Naming:    naming,
		OutputDir: s.OutputDir,
	}
	if s.ResizeImages {
		cfg.Resize = &model.Size{Width: s.ResizeWidth, Height: s.ResizeHeight}
	}

	if err := cfg.Validate(); err != nil {
		return model.DownloadConfig{}, err
	}
	return cfg, nil
}

// NewLogger builds a slog.Logger writing to w according to LogLevel and LogFormat.
func (s *Settings) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLogLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(s.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, model.NewConfigError(fmt.Sprintf("unknown log format %q", s.LogFormat))
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, model.NewConfigError(fmt.Sprintf("unknown log level %q", level))
}

func newViper(defaults *Settings) *viper.Viper {
	v := viper.New()
	for key, value := range defaults.values() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// values maps config keys to their current values.
func (s *Settings) values() map[string]any {
	return map[string]any{
		"output_dir":      s.OutputDir,
		"variant":         s.Variant,
		"naming":          s.Naming,
		"resize_images":   s.ResizeImages,
		"resize_width":    s.ResizeWidth,
		"resize_height":   s.ResizeHeight,
		"resize_filter":   s.ResizeFilter,
		"jpeg_quality":    s.JPEGQuality,
		"catalog_url":     s.CatalogURL,
		"catalog_timeout": s.CatalogTimeout.String(),
		"image_timeout":   s.ImageTimeout.String(),
		"max_image_bytes": s.MaxImageBytes,
		"request_delay":   s.RequestDelay.String(),
		"user_agent":      s.UserAgent,
		"log_level":       s.LogLevel,
		"log_format":      s.LogFormat,
	}
}
