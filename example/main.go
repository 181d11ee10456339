package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/st-keller/versionwatch"
	"github.com/st-keller/versionwatch/manifest"
	"github.com/st-keller/versionwatch/types"
)

func main() {
	baseURL := os.Getenv("APP_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := versionwatch.Config{
		BaseURL:  baseURL,
		Interval: 5 * time.Second,
	}

	if os.Getenv("CONFIRM") != "" {
		// Default handler with injected capabilities in place of a browser.
		cfg.Prompter = types.PromptFunc(func(msg string) bool { log.Println("❓", msg); return true })
		cfg.Reloader = types.ReloadFunc(func() error { log.Println("🔄 Reloading"); stop(); return nil })
	} else {
		cfg.OnNewVersion = func(r manifest.VersionRecord) {
			log.Printf("📦 New version %s deployed at %s", r.Version, r.Time().Format(time.RFC3339))
			stop()
		}
	}

	monitor, err := versionwatch.New(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create monitor: %v", err)
	}

	monitor.Start(ctx)
	if !monitor.Running() {
		log.Fatalf("❌ Baseline fetch failed, see log output above")
	}
	defer monitor.Stop()

	baseline, _ := monitor.Baseline()
	log.Printf("✅ Watching %s (current version %s), press Ctrl+C to stop", monitor.URL(), baseline.Version)

	<-ctx.Done()

	for _, s := range monitor.Connectivity().Snapshot() {
		log.Printf("🔗 %s: %d calls, %.0f%% ok, p50 %s", s.URL, s.TotalCalls, s.SuccessRate*100, s.P50)
	}
	log.Println("🛑 Shutting down...")
}
