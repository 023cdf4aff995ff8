package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/maltedev/yarn-scraper/internal/config"
	"github.com/maltedev/yarn-scraper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(config.LoggingConfig{Level: tt.level, Format: "json"}, &buf)

			assert.True(t, logger.Enabled(context.Background(), tt.want))
			assert.False(t, logger.Enabled(context.Background(), tt.want-1))
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf).Info("hei", "garn", "drops")
	assert.Contains(t, buf.String(), "msg=hei")
	assert.Contains(t, buf.String(), "garn=drops")

	buf.Reset()
	newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf).Info("hei")
	assert.Contains(t, buf.String(), `"msg":"hei"`)
}

func TestLoadEnv(t *testing.T) {
	assert.NoError(t, loadEnv(""))
	assert.NoError(t, loadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("YARN_SCRAPER_TEST_VALUE=nøste\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("YARN_SCRAPER_TEST_VALUE") })

	require.NoError(t, loadEnv(path))
	assert.Equal(t, "nøste", os.Getenv("YARN_SCRAPER_TEST_VALUE"))
}

func TestScrapeCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
			<meta property="og:title" content="Alpakka Silke">
			<meta name="description" content="Mykt garn av alpakka og silke.">
		</head><body><h1>Alpakka Silke</h1><p>Pris 89,00 kr</p></body></html>`)
	}))
	defer srv.Close()

	t.Setenv("SCRAPER_FETCHER", "http")
	t.Setenv("DB_HOST", "")
	t.Setenv("REDIS_ADDR", "")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "scrape", "--no-model", srv.URL + "/alpakka-silke"})

	require.NoError(t, cmd.Execute())

	var product map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &product))
	assert.Equal(t, "Alpakka Silke", product["name"])
	source, ok := product["source"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/alpakka-silke", source["url"])
}

func TestScrapeCommandRejectsBadURL(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "scrape", "--no-model", "ftp://example.com/garn"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ugyldig protokoll")
}

func TestScrapeCommandRequiresURL(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "scrape"})

	assert.Error(t, cmd.Execute())
}

func TestScrapeCommandOutputFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/borte" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Merino Ekstra</title></head><body></body></html>`)
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "results.json")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "scrape", "--no-model", "-o", output, srv.URL + "/merino", srv.URL + "/borte"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	store, err := storage.NewResultStore(output)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{storage.StatusCompleted: 1, storage.StatusFailed: 1, "total": 2}, store.Stats())

	entry, ok := store.Get(srv.URL + "/merino")
	require.True(t, ok)
	assert.Equal(t, "Merino Ekstra", entry.Product.Name)
}
