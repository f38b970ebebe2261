package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ExtractConfig holds the defaults of an extraction query.
type ExtractConfig struct {
	Kind       string `mapstructure:"kind"`
	PublicOnly bool   `mapstructure:"public_only"`
	Recursive  bool   `mapstructure:"recursive"`
	Separator  string `mapstructure:"separator"`
}

type FetchConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// BuildConfig mirrors the cargo invocation used to generate rustdoc JSON.
type BuildConfig struct {
	ManifestPath string `mapstructure:"manifest_path"`
	Toolchain    string `mapstructure:"toolchain"`
	AllFeatures  bool   `mapstructure:"all_features"`
}

// PackageConfig is one batch job. Name is the crate to extract from; Index
// overrides where its rustdoc JSON is read from.
type PackageConfig struct {
	Name       string `mapstructure:"name"`
	Version    string `mapstructure:"version"`
	Index      string `mapstructure:"index"`
	ModulePath string `mapstructure:"module_path"`
	Kind       string `mapstructure:"kind"`
	Recursive  *bool  `mapstructure:"recursive"`
	PublicOnly *bool  `mapstructure:"public_only"`
}

type Config struct {
	Extract  ExtractConfig   `mapstructure:"extract"`
	Fetch    FetchConfig     `mapstructure:"fetch"`
	Batch    BatchConfig     `mapstructure:"batch"`
	Build    BuildConfig     `mapstructure:"build"`
	Packages []PackageConfig `mapstructure:"packages"`
}

// cacheBase returns the base cache directory for ferrisdoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/ferrisdoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "ferrisdoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "ferrisdoc")
	}
	return filepath.Join(os.TempDir(), "ferrisdoc")
}

// IndexDir returns the directory fetched rustdoc JSON indexes are stored in.
func IndexDir() string {
	return filepath.Join(cacheBase(), "json")
}

// InitializeViper registers config search paths, defaults and the
// FERRISDOC_ environment prefix on v, then reads the config file if any.
// An explicit file path takes precedence over the search paths.
func InitializeViper(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")

		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "ferrisdoc"))
		} else if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ferrisdoc"))
		}
	}

	v.SetDefault("extract.kind", "function")
	v.SetDefault("extract.public_only", true)
	v.SetDefault("extract.recursive", false)
	v.SetDefault("extract.separator", "")
	v.SetDefault("fetch.timeout_seconds", 60)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("build.manifest_path", "Cargo.toml")
	v.SetDefault("build.toolchain", "nightly")
	v.SetDefault("build.all_features", true)

	v.SetEnvPrefix("FERRISDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToPackageConfigHookFunc accepts the shorthand `packages = ["serde::de"]`,
// where the crate name is the first path segment.
func stringToPackageConfigHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(PackageConfig{}) {
			return data, nil
		}
		if f.Kind() != reflect.String {
			return data, nil
		}
		path := strings.TrimSpace(data.(string))
		name, _, _ := strings.Cut(path, "::")
		name, version, _ := strings.Cut(name, "@")
		if version != "" {
			path = name + strings.TrimPrefix(path, name+"@"+version)
		}
		return PackageConfig{Name: name, Version: version, ModulePath: path}, nil
	}
}

// Load reads configuration from the default search paths.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from file, or from the default search paths
// when file is empty.
func LoadFile(file string) (*Config, error) {
	v := viper.New()
	if err := InitializeViper(v, file); err != nil {
		return nil, err
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToPackageConfigHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 1
	}
	for i, p := range c.Packages {
		if p.Name == "" && p.Index == "" {
			return fmt.Errorf("packages[%d]: name or index is required", i)
		}
	}
	return nil
}
