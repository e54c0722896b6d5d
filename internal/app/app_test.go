package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/betalog/internal/client"
	"github.com/claude/betalog/internal/config"
	"github.com/claude/betalog/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOpenStoreSQLite verifies the SQLite driver creates and migrates the file.
func TestOpenStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "betalog.db")
	store, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, discardLogger())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	if _, err := store.SavePreset(context.Background(), "Max Hangs", models.DefaultTimerConfig()); err != nil {
		t.Errorf("SavePreset: %v", err)
	}
}

// TestOpenStoreUnknownDriver verifies an unsupported driver is rejected.
func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: "mysql"}, discardLogger()); err == nil {
		t.Error("expected error")
	}
	if err := Migrate(config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Error("expected migrate error")
	}
}

// TestOpenStoreFromFlagsRemote verifies a server URL selects the REST client.
func TestOpenStoreFromFlagsRemote(t *testing.T) {
	store, err := OpenStoreFromFlags(context.Background(), StoreFlags{ServerURL: "http://example.invalid"}, discardLogger())
	if err != nil {
		t.Fatalf("OpenStoreFromFlags: %v", err)
	}
	if _, ok := store.(*client.Client); !ok {
		t.Errorf("store = %T, want *client.Client", store)
	}
}

// TestNewServerMountsMCP verifies the assembled server answers both the REST
// API and the MCP endpoint.
func TestNewServerMountsMCP(t *testing.T) {
	log := discardLogger()
	store, err := OpenStoreFromFlags(context.Background(), StoreFlags{SQLitePath: filepath.Join(t.TempDir(), "betalog.db")}, log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	srv, r, err := NewServer(&config.Config{Timezone: "UTC"}, store, "test", log)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer r.Close()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/timer", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("timer status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	if rec.Code == http.StatusNotFound {
		t.Error("mcp endpoint not mounted")
	}
}
