package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/claude/betalog/internal/app"
	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/runner"
	"github.com/claude/betalog/internal/storage"
	"github.com/claude/betalog/internal/units"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "BetaLog server URL to record to (e.g. https://betalog.tail1234.ts.net)")
	apiKey := flag.String("api-key", "", "API key for -server")
	configPath := flag.String("config", "", "use the database from this server config file")
	dbPath := flag.String("db", "data/betalog.db", "local SQLite file (when neither -server nor -config is set)")
	preset := flag.String("preset", "", "name of a saved preset to run")
	sets := flag.Int("sets", 0, "number of sets")
	reps := flag.Int("reps", 0, "reps per set")
	work := flag.Int("work", 0, "seconds of work per rep")
	repRest := flag.Int("rep-rest", 0, "seconds of rest between reps")
	setRest := flag.Int("set-rest", 0, "seconds of rest between sets")
	weight := flag.Float64("weight", 0, "added weight, in -unit")
	edge := flag.Float64("edge", 0, "edge depth in millimetres")
	unitFlag := flag.String("unit", "", "weight unit: lbs or kg (default: stored preference)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("betalog-timer", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStoreFromFlags(ctx, app.StoreFlags{
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

	unit, err := resolveUnit(ctx, store, *unitFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	timer := runner.New(log, runner.Config{Recorder: store})
	defer timer.Close()

	if *preset != "" {
		p, err := findPreset(ctx, store, *preset)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		if _, err := timer.LoadPreset(p.Name, p.Config); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}

	// Explicit flags override the preset, keeping its name.
	var patch models.ConfigPatch
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sets":
			patch.Sets = sets
		case "reps":
			patch.Reps = reps
		case "work":
			patch.WorkTime = work
		case "rep-rest":
			patch.RepRest = repRest
		case "set-rest":
			patch.SetRest = setRest
		case "weight":
			lbs := units.FromDisplay(*weight, unit)
			patch.Weight = &lbs
		case "edge":
			patch.Edge = edge
		}
	})
	if _, err := timer.Configure(patch); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	events := timer.Subscribe(64)
	if _, err := timer.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	c := &console{timer: timer, out: os.Stdout, unit: unit}
	fmt.Fprintln(c.out, mutedStyle.Render(help))

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "interrupted, nothing recorded")
			return
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if c.command(ctx, line) {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			done, err := c.event(ev)
			if !done {
				continue
			}
			if err != nil {
				if saved := retry(ctx, timer, log); !saved {
					os.Exit(1)
				}
			}
			return
		}
	}
}

// retry re-submits a failed save a few times before giving up.
func retry(ctx context.Context, timer *runner.Runner, log *slog.Logger) bool {
	for attempt := 1; attempt <= 3; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
		}
		n, err := timer.RetryPending(ctx)
		if err == nil {
			fmt.Printf("saved %d session(s) on retry\n", n)
			return true
		}
		log.Warn("retry failed", "attempt", attempt, "error", err)
	}
	return false
}

func findPreset(ctx context.Context, store storage.Store, name string) (models.Preset, error) {
	presets, err := store.ListPresets(ctx)
	if err != nil {
		return models.Preset{}, fmt.Errorf("listing presets: %w", err)
	}
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Preset{}, fmt.Errorf("preset %q not found", name)
}

func resolveUnit(ctx context.Context, store storage.Store, flagValue string) (units.Unit, error) {
	if flagValue != "" {
		return units.ParseUnit(flagValue)
	}
	v, ok, err := store.GetSetting(ctx, models.SettingWeightUnit)
	if err != nil || !ok {
		return units.Default, nil
	}
	u, err := units.ParseUnit(v)
	if err != nil {
		return units.Default, nil
	}
	return u, nil
}
