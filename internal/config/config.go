// Package config manages user preferences stored as JSON5/JSON files.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/titanous/json5"
)

// DefaultCacheTTL is how long a fetched feed is reused when cache_ttl is unset.
const DefaultCacheTTL = 5 * time.Minute

// Config holds user preferences.
type Config struct {
	APIURL         string `json:"api_url,omitempty"`
	ImageDirective string `json:"image_directive,omitempty"`
	VideoDirective string `json:"video_directive,omitempty"`
	Overlay        *bool  `json:"overlay,omitempty"`
	AutoCopy       *bool  `json:"auto_copy,omitempty"`
	AutoOpen       *bool  `json:"auto_open,omitempty"`
	Preview        *bool  `json:"preview,omitempty"`
	CacheTTL       string `json:"cache_ttl,omitempty"`
	MaxRetries     *int   `json:"max_retries,omitempty"`
}

// knownKey describes a config key and its optional validator.
type knownKey struct {
	validate func(string) error
}

var knownKeys = map[string]knownKey{
	"api_url":         {validate: validateHTTPURL},
	"image_directive": {validate: validateDirective},
	"video_directive": {validate: validateDirective},
	"overlay":         {validate: validateBool},
	"auto_copy":       {validate: validateBool},
	"auto_open":       {validate: validateBool},
	"preview":         {validate: validateBool},
	"cache_ttl":       {validate: validateDuration},
	"max_retries":     {validate: validateRetries},
}

func validateBool(val string) error {
	if val != "true" && val != "false" {
		return fmt.Errorf("must be true or false")
	}

	return nil
}

func validateDuration(val string) error {
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}

	if d < 0 {
		return fmt.Errorf("must not be negative")
	}

	return nil
}

func validateHTTPURL(val string) error {
	u, err := url.Parse(val)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http or https URL")
	}

	if u.Host == "" {
		return fmt.Errorf("missing host")
	}

	return nil
}

// validateDirective rejects values that would split the URL segment they
// are spliced into.
func validateDirective(val string) error {
	if strings.ContainsAny(val, "/?# ") {
		return fmt.Errorf("must not contain '/', '?', '#' or spaces")
	}

	return nil
}

func validateRetries(val string) error {
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 || n > 10 {
		return fmt.Errorf("must be an integer between 0 and 10")
	}

	return nil
}

// CacheTTLDuration parses CacheTTL as a time.Duration.
// Returns DefaultCacheTTL on empty or invalid values.
func (cfg *Config) CacheTTLDuration() time.Duration {
	if cfg.CacheTTL == "" {
		return DefaultCacheTTL
	}

	d, err := time.ParseDuration(cfg.CacheTTL)
	if err != nil || d < 0 {
		return DefaultCacheTTL
	}

	return d
}

// OverlayEnabled reports whether captions are layered onto images (default true).
func (cfg *Config) OverlayEnabled() bool {
	return cfg.Overlay == nil || *cfg.Overlay
}

// Load reads config from the JSON5 file at path.
// Returns an empty Config if the file does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes config as pretty-printed JSON atomically.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	data = append(data, '\n')

	return atomicWrite(path, data)
}

// atomicWrite writes data to path via temp-file + rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	tmpPath = "" // prevent deferred cleanup

	return nil
}

func boolValue(b *bool) (string, bool) {
	if b == nil {
		return "", false
	}

	return strconv.FormatBool(*b), true
}

// Get returns the string value for a config key and whether it is set.
func (cfg *Config) Get(key string) (string, bool) {
	switch key {
	case "api_url":
		return cfg.APIURL, cfg.APIURL != ""
	case "image_directive":
		return cfg.ImageDirective, cfg.ImageDirective != ""
	case "video_directive":
		return cfg.VideoDirective, cfg.VideoDirective != ""
	case "overlay":
		return boolValue(cfg.Overlay)
	case "auto_copy":
		return boolValue(cfg.AutoCopy)
	case "auto_open":
		return boolValue(cfg.AutoOpen)
	case "preview":
		return boolValue(cfg.Preview)
	case "cache_ttl":
		return cfg.CacheTTL, cfg.CacheTTL != ""
	case "max_retries":
		if cfg.MaxRetries == nil {
			return "", false
		}

		return strconv.Itoa(*cfg.MaxRetries), true
	default:
		return "", false
	}
}

// Set sets a config key to a value after validation.
func (cfg *Config) Set(key, value string) error {
	kk, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s (valid keys: %s)", key, strings.Join(KnownKeys(), ", "))
	}

	if kk.validate != nil {
		if err := kk.validate(value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}

	b := value == "true"

	switch key {
	case "api_url":
		cfg.APIURL = strings.TrimRight(value, "/")
	case "image_directive":
		cfg.ImageDirective = value
	case "video_directive":
		cfg.VideoDirective = value
	case "overlay":
		cfg.Overlay = &b
	case "auto_copy":
		cfg.AutoCopy = &b
	case "auto_open":
		cfg.AutoOpen = &b
	case "preview":
		cfg.Preview = &b
	case "cache_ttl":
		cfg.CacheTTL = value
	case "max_retries":
		n, _ := strconv.Atoi(value)
		cfg.MaxRetries = &n
	}

	return nil
}

// Unset removes a config key (resets to zero/nil).
func (cfg *Config) Unset(key string) error {
	if _, ok := knownKeys[key]; !ok {
		return fmt.Errorf("unknown config key: %s (valid keys: %s)", key, strings.Join(KnownKeys(), ", "))
	}

	switch key {
	case "api_url":
		cfg.APIURL = ""
	case "image_directive":
		cfg.ImageDirective = ""
	case "video_directive":
		cfg.VideoDirective = ""
	case "overlay":
		cfg.Overlay = nil
	case "auto_copy":
		cfg.AutoCopy = nil
	case "auto_open":
		cfg.AutoOpen = nil
	case "preview":
		cfg.Preview = nil
	case "cache_ttl":
		cfg.CacheTTL = ""
	case "max_retries":
		cfg.MaxRetries = nil
	}

	return nil
}

// KnownKeys returns a sorted list of valid config key names.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// --- Context helpers ---

type ctxKey struct{}

// WithConfig stores a Config in the context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	if v := ctx.Value(ctxKey{}); v != nil {
		if cfg, ok := v.(*Config); ok {
			return cfg
		}
	}

	return nil
}
