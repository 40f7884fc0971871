package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbench/buildbench/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Global.LogLevel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, config.DefaultDatabasePath, cfg.Database.SQLite.Path)
	assert.Equal(t, config.DefaultIterations, cfg.Benchmark.Iterations)
	assert.Equal(t, config.DefaultWarmupIterations, cfg.Benchmark.WarmupIterations)
	assert.NotEmpty(t, cfg.CPP.Compilers)
	assert.NotEmpty(t, cfg.CPP.MutateFiles)
	assert.NotEmpty(t, cfg.Rust.Toolchains)
	assert.NotEmpty(t, cfg.Rust.MutateFiles)

	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	content := `
global:
  log_level: debug
database:
  driver: sqlite
  sqlite:
    path: /tmp/my-bench.db
benchmark:
  iterations: 5
  warmup_iterations: 1
cpp:
  root: /src/cpp
  compilers:
    - label: Clang 15
      path: clang++-15
      clang: true
rust:
  root: /src/rust
  toolchains: [stable]
  nextest: true
`

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, "/tmp/my-bench.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 5, cfg.Benchmark.Iterations)
	assert.Equal(t, 1, cfg.Benchmark.WarmupIterations)

	require.Len(t, cfg.CPP.Compilers, 1)
	assert.Equal(t, "clang++-15", cfg.CPP.Compilers[0].Path)
	assert.True(t, cfg.CPP.Compilers[0].Clang)

	assert.Equal(t, []string{"stable"}, cfg.Rust.Toolchains)
	assert.True(t, cfg.Rust.Nextest)

	// Unset sections still get defaults.
	assert.Equal(t, "build", cfg.CPP.BuildDir)
	assert.NotEmpty(t, cfg.Rust.CargoProfiles)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/does/not/exist.yaml")
	require.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("global: [not a map"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:    "unsupported driver",
			mutate:  func(cfg *config.Config) { cfg.Database.Driver = "mysql" },
			wantErr: "unsupported database driver",
		},
		{
			name: "postgres without host",
			mutate: func(cfg *config.Config) {
				cfg.Database.Driver = "postgres"
			},
			wantErr: "database.postgres.host is required",
		},
		{
			name: "negative iterations",
			mutate: func(cfg *config.Config) {
				cfg.Benchmark.Iterations = -1
			},
			wantErr: "benchmark.iterations",
		},
		{
			name: "enabled upload without bucket",
			mutate: func(cfg *config.Config) {
				cfg.Upload = &config.UploadConfig{
					S3: &config.S3UploadConfig{Enabled: true},
				}
			},
			wantErr: "upload.s3.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load("")
			require.NoError(t, err)

			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
