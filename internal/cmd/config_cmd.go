package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/config"
	"github.com/dedene/socialthread-cli/internal/outfmt"
	"github.com/dedene/socialthread-cli/internal/transform"
)

// defaultValues are the effective values of unset keys.
var defaultValues = map[string]string{
	"api_url":         api.DefaultBaseURL,
	"image_directive": transform.ImageDirective,
	"video_directive": transform.VideoDirective,
	"overlay":         "true",
	"auto_copy":       "false",
	"auto_open":       "false",
	"preview":         "false",
	"cache_ttl":       config.DefaultCacheTTL.String(),
	"max_retries":     strconv.Itoa(3),
}

func describeUnset(key string) string {
	if def, ok := defaultValues[key]; ok {
		return "(unset, default " + def + ")"
	}

	return "(unset)"
}

// ConfigCmd groups configuration subcommands.
type ConfigCmd struct {
	Path  ConfigPathCmd  `cmd:"" help:"Show config file path"`
	List  ConfigListCmd  `cmd:"" help:"List all config values"`
	Get   ConfigGetCmd   `cmd:"" help:"Get a config value"`
	Set   ConfigSetCmd   `cmd:"" help:"Set a config value"`
	Unset ConfigUnsetCmd `cmd:"" help:"Unset a config value"`
}

// ConfigPathCmd prints the config file path.
type ConfigPathCmd struct{}

// Run prints the config file path.
func (c *ConfigPathCmd) Run(_ context.Context) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, path)

	return nil
}

// ConfigListCmd lists all config values.
type ConfigListCmd struct{}

// Run lists all config keys with their values. Unset keys show the
// default that applies.
func (c *ConfigListCmd) Run(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		cfg = &config.Config{}
	}

	if outfmt.IsJSON(ctx) {
		return outfmt.WriteJSON(os.Stdout, cfg)
	}

	plain := outfmt.IsPlain(ctx)
	rows := make([][]string, 0, len(config.KnownKeys()))

	for _, key := range config.KnownKeys() {
		val, ok := cfg.Get(key)

		switch {
		case ok:
		case plain:
			val = defaultValues[key]
		default:
			val = describeUnset(key)
		}

		if plain {
			rows = append(rows, []string{key, val})
			continue
		}

		fmt.Fprintf(os.Stdout, "%s = %s\n", key, val)
	}

	if plain {
		return outfmt.WriteTSV(os.Stdout, rows)
	}

	return nil
}

// ConfigGetCmd gets a single config value.
type ConfigGetCmd struct {
	Key string `arg:"" help:"Config key to get"`
}

// Run prints the value for the given key.
func (c *ConfigGetCmd) Run(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		cfg = &config.Config{}
	}

	if !slices.Contains(config.KnownKeys(), c.Key) {
		return usageError(fmt.Errorf("unknown config key: %s (valid keys: %s)", c.Key, strings.Join(config.KnownKeys(), ", ")))
	}

	val, ok := cfg.Get(c.Key)
	if !ok {
		fmt.Fprintln(os.Stdout, describeUnset(c.Key))

		return nil
	}

	fmt.Fprintln(os.Stdout, val)

	return nil
}

// ConfigSetCmd sets a config value.
type ConfigSetCmd struct {
	Key   string `arg:"" help:"Config key"`
	Value string `arg:"" help:"Config value"`
}

// Run sets a config key to a value, persisting to disk.
func (c *ConfigSetCmd) Run(_ context.Context) error {
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := cfg.Set(c.Key, c.Value); err != nil {
		return err
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Set %s = %s\n", c.Key, c.Value)

	return nil
}

// ConfigUnsetCmd removes a config value.
type ConfigUnsetCmd struct {
	Key string `arg:"" help:"Config key to unset"`
}

// Run unsets a config key, persisting to disk.
func (c *ConfigUnsetCmd) Run(_ context.Context) error {
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := cfg.Unset(c.Key); err != nil {
		return err
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Unset %s\n", c.Key)

	return nil
}
