package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"leetcode_backend/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		APIPort:        "0",
		JWTKey:         []byte("secret"),
		StorageBackend: config.StorageBackendMemory,
		JudgeBaseURL:   "http://127.0.0.1:1",
		RequestTimeout: time.Second,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, memoryConfig(), quietLogger()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_ReturnsStartupErrors(t *testing.T) {
	ctx := context.Background()

	cfg := memoryConfig()
	cfg.RedisAddr = "127.0.0.1:1"
	err := run(ctx, cfg, quietLogger())
	assert.ErrorContains(t, err, "Redis")

	cfg = memoryConfig()
	cfg.APIPort = "not-a-port"
	err = run(ctx, cfg, quietLogger())
	assert.ErrorContains(t, err, "listen on")

	cfg = memoryConfig()
	cfg.StorageBackend = "sqlite"
	err = run(ctx, cfg, quietLogger())
	assert.ErrorContains(t, err, "unknown STORAGE_BACKEND")

	cfg = memoryConfig()
	cfg.LanguagesFile = "does-not-exist.toml"
	err = run(ctx, cfg, quietLogger())
	require.Error(t, err)
}
