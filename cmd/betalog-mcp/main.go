package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/claude/betalog/internal/app"
	"github.com/claude/betalog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "BetaLog server URL (remote mode)")
	apiKey := flag.String("api-key", "", "API key for -server")
	configPath := flag.String("config", "", "use the database from this server config file")
	dbPath := flag.String("db", "data/betalog.db", "local SQLite file (when neither -server nor -config is set)")
	tz := flag.String("tz", "", "IANA time zone for calendar days (default: local)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("betalog-mcp", Version)
		return
	}

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	loc := time.Local
	if *tz != "" {
		l, err := time.LoadLocation(*tz)
		if err != nil {
			log.Error("invalid time zone", "tz", *tz, "error", err)
			os.Exit(1)
		}
		loc = l
	}

	store, err := app.OpenStoreFromFlags(context.Background(), app.StoreFlags{
		ServerURL:  *serverURL,
		APIKey:     *apiKey,
		ConfigPath: *configPath,
		SQLitePath: *dbPath,
	}, log)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	s := mcp.New(store, loc, Version, log)
	log.Info("mcp stdio server starting", "version", Version)
	if err := mcp.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
