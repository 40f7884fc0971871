// Package config loads and validates the harness configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultDatabasePath is the default sqlite database file.
	DefaultDatabasePath = "./bench-build.db"

	// DefaultIterations is the default measured iteration count.
	DefaultIterations = 3

	// DefaultWarmupIterations is the default warmup iteration count.
	DefaultWarmupIterations = 2
)

// Config is the root configuration for buildbench.
type Config struct {
	Global    GlobalConfig    `yaml:"global"`
	Database  DatabaseConfig  `yaml:"database"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	CPP       CPPConfig       `yaml:"cpp"`
	Rust      RustConfig      `yaml:"rust"`
	Upload    *UploadConfig   `yaml:"upload,omitempty"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig selects and configures the storage driver.
type DatabaseConfig struct {
	Driver   string                 `yaml:"driver"`
	SQLite   SQLiteDatabaseConfig   `yaml:"sqlite"`
	Postgres PostgresDatabaseConfig `yaml:"postgres"`
}

// SQLiteDatabaseConfig configures the sqlite driver.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path"`
}

// PostgresDatabaseConfig configures the postgres driver.
type PostgresDatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// BenchmarkConfig contains iteration defaults. CLI flags override both.
type BenchmarkConfig struct {
	Iterations       int `yaml:"iterations"`
	WarmupIterations int `yaml:"warmup_iterations"`
}

// CPPConfig describes the C++ project under benchmark and the compiler
// candidates to probe.
type CPPConfig struct {
	Root       string          `yaml:"root"`
	BuildDir   string          `yaml:"build_dir"`
	TestBinary string          `yaml:"test_binary"`
	PCHDefine  string          `yaml:"pch_define"`
	Compilers  []CPPCompiler   `yaml:"compilers"`
	MoldLinker MoldLinkerProbe `yaml:"mold_linker"`

	// MutateFiles lists source files, relative to Root, that each get
	// their own incremental-rebuild benchmark.
	MutateFiles []string `yaml:"mutate_files"`
}

// CPPCompiler is one compiler candidate. Clang candidates are expanded
// into libstdc++ and libc++ variants during discovery.
type CPPCompiler struct {
	Label    string `yaml:"label"`
	Path     string `yaml:"path"`
	Clang    bool   `yaml:"clang"`
	CXXFlags string `yaml:"cxx_flags,omitempty"`
}

// MoldLinkerProbe controls whether mold linker variants are probed.
type MoldLinkerProbe struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// RustConfig describes the Rust project under benchmark and the cargo
// toolchain candidates to probe.
type RustConfig struct {
	Root          string          `yaml:"root"`
	Toolchains    []string        `yaml:"toolchains"`
	CargoProfiles []string        `yaml:"cargo_profiles"`
	Nextest       bool            `yaml:"nextest"`
	MoldLinker    MoldLinkerProbe `yaml:"mold_linker"`

	// MutateFiles lists source files, relative to Root, that each get
	// their own incremental-rebuild benchmark.
	MutateFiles []string `yaml:"mutate_files"`
}

// UploadConfig configures result database uploads.
type UploadConfig struct {
	S3 *S3UploadConfig `yaml:"s3,omitempty"`
}

// S3UploadConfig configures S3-compatible upload of the results database.
type S3UploadConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	EndpointURL     string `yaml:"endpoint_url,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	ForcePathStyle  bool   `yaml:"force_path_style,omitempty"`
}

// Load reads and parses a configuration file from the given path. An
// empty path yields the built-in defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}

	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = DefaultDatabasePath
	}

	if c.Benchmark.Iterations == 0 {
		c.Benchmark.Iterations = DefaultIterations
	}

	if c.Benchmark.WarmupIterations == 0 {
		c.Benchmark.WarmupIterations = DefaultWarmupIterations
	}

	if c.CPP.Root == "" {
		c.CPP.Root = "./cpp"
	}

	if c.CPP.BuildDir == "" {
		c.CPP.BuildDir = "build"
	}

	if c.CPP.TestBinary == "" {
		c.CPP.TestBinary = "test/quick-lint-js-test"
	}

	if c.CPP.PCHDefine == "" {
		c.CPP.PCHDefine = "QUICK_LINT_JS_PRECOMPILE_HEADERS"
	}

	if len(c.CPP.Compilers) == 0 {
		c.CPP.Compilers = []CPPCompiler{
			{Label: "Clang 12", Path: "clang++-12", Clang: true},
			{Label: "Clang", Path: "clang++", Clang: true},
			{Label: "GCC 10", Path: "g++-10"},
		}
	}

	if len(c.CPP.MutateFiles) == 0 {
		c.CPP.MutateFiles = []string{
			"src/quick-lint-js/fe/lex.cpp",
			"src/quick-lint-js/fe/diagnostic-types.h",
			"test/test-utf-8.cpp",
		}
	}

	if c.Rust.Root == "" {
		c.Rust.Root = "./rust"
	}

	if len(c.Rust.Toolchains) == 0 {
		c.Rust.Toolchains = []string{"stable", "nightly"}
	}

	if len(c.Rust.CargoProfiles) == 0 {
		// An empty profile means cargo's default.
		c.Rust.CargoProfiles = []string{"", "quick-build-incremental", "quick-build-nonincremental"}
	}

	if len(c.Rust.MutateFiles) == 0 {
		c.Rust.MutateFiles = []string{
			"src/fe/lex.rs",
			"src/fe/diagnostic_types.rs",
			"tests/test_utf_8.rs",
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}

		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Benchmark.Iterations < 0 {
		return fmt.Errorf("benchmark.iterations must not be negative")
	}

	if c.Benchmark.WarmupIterations < 0 {
		return fmt.Errorf("benchmark.warmup_iterations must not be negative")
	}

	if c.Upload != nil && c.Upload.S3 != nil && c.Upload.S3.Enabled {
		if c.Upload.S3.Bucket == "" {
			return fmt.Errorf("upload.s3.bucket is required when upload is enabled")
		}
	}

	return nil
}
