package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Ares/adapters/fightoddsapi"
	"github.com/XavierBriggs/Ares/adapters/octagonfeed"
	"github.com/XavierBriggs/Ares/config"
	"github.com/XavierBriggs/Ares/internal/arbitrage"
	"github.com/XavierBriggs/Ares/internal/closer"
	"github.com/XavierBriggs/Ares/internal/ingest"
	"github.com/XavierBriggs/Ares/internal/movement"
	"github.com/XavierBriggs/Ares/internal/notify"
	"github.com/XavierBriggs/Ares/internal/ops"
	"github.com/XavierBriggs/Ares/internal/pipeline"
	"github.com/XavierBriggs/Ares/internal/registry"
	"github.com/XavierBriggs/Ares/internal/talos"
	"github.com/XavierBriggs/Ares/internal/transport"
	"github.com/XavierBriggs/Ares/internal/writer"
	"github.com/XavierBriggs/Ares/pkg/clock"
	"github.com/XavierBriggs/Ares/pkg/contracts"
	"github.com/XavierBriggs/Ares/sports/mma_ufc"
)

func main() {
	fmt.Println("=== Ares Fight Odds Service v0 ===")

	ctx := context.Background()

	cfg, err := config.Load(getEnv("ARES_CONFIG", "sources.yaml"))
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Alexandria holds fights and odds snapshots
	alexandria, err := sql.Open("postgres", cfg.AlexandriaDSN)
	if err != nil {
		fmt.Printf("❌ Failed to connect to Alexandria DB: %v\n", err)
		os.Exit(1)
	}
	defer alexandria.Close()

	if err := alexandria.PingContext(ctx); err != nil {
		fmt.Printf("❌ Failed to ping Alexandria DB: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Alexandria DB")

	// Holocron holds movement alerts and arbitrage opportunities
	holocron, err := sql.Open("postgres", cfg.HolocronDSN)
	if err != nil {
		fmt.Printf("❌ Failed to connect to Holocron DB: %v\n", err)
		os.Exit(1)
	}
	defer holocron.Close()

	if err := holocron.PingContext(ctx); err != nil {
		fmt.Printf("❌ Failed to ping Holocron DB: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Holocron DB")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	notifier := notify.NewMulti(notify.NewConsole(), notify.NewStream(redisClient))

	// One transport shared by all sources; the pacer spaces physical sends
	httpTransport := transport.NewHTTPTransport(15*time.Second, 100*time.Millisecond)
	clk := clock.NewReal()
	sport := mma_ufc.NewModule()

	sourceRegistry := registry.NewSourceRegistry()
	connectors := make([]*ingest.Connector, 0, len(cfg.Sources))

	for i := range cfg.Sources {
		src := &cfg.Sources[i]

		pl := pipeline.New(pipeline.Config{
			SourceID:          src.ID,
			RequestsPerMinute: src.RequestsPerMinute,
			RequestsPerHour:   src.RequestsPerHour,
			MaxRetries:        src.MaxRetries,
			BaseDelay:         src.BaseDelay(),
			BackoffMultiplier: src.BackoffMultiplier,
			MaxBackoff:        src.MaxBackoff(),
			FailureThreshold:  src.FailureThreshold,
			ResetTimeout:      src.ResetTimeout(),
		}, httpTransport, clk, notifier)

		var adapter contracts.VendorAdapter
		switch src.Adapter {
		case "fightoddsapi":
			adapter = fightoddsapi.NewClient(src, pl, sport)
		case "octagonfeed":
			adapter = octagonfeed.NewClient(src, pl, sport)
		default:
			fmt.Printf("❌ Unknown adapter '%s' for source %s\n", src.Adapter, src.ID)
			os.Exit(1)
		}

		conn := ingest.NewConnector(src.ID, src.DisplayName, adapter, pl, sport)
		if err := sourceRegistry.Register(conn); err != nil {
			fmt.Printf("❌ Failed to register source %s: %v\n", src.ID, err)
			os.Exit(1)
		}
		connectors = append(connectors, conn)

		fmt.Printf("✓ Initialized source %s (%s adapter)\n", src.ID, src.Adapter)
	}

	w := writer.NewWriter(alexandria, holocron, redisClient, cfg.CacheTTL())

	var talosClient *talos.Client
	if cfg.Talos.Enabled {
		talosClient = talos.NewClient(talos.Config{
			BaseURL: cfg.Talos.BaseURL,
			Enabled: cfg.Talos.Enabled,
			Books:   cfg.Talos.Books,
			Timeout: cfg.Talos.Timeout(),
		})
		w.SetTalosClient(talosClient)
		fmt.Printf("✓ Talos page warming enabled (%d books)\n", len(cfg.Talos.Books))
	}

	if err := w.LoadSeenFights(ctx); err != nil {
		fmt.Printf("⚠ Failed to load seen fights: %v\n", err)
	}

	w.Start(ctx)

	if talosClient != nil && talosClient.IsEnabled() {
		if err := w.WarmUpcomingFights(ctx); err != nil {
			fmt.Printf("⚠ Failed to warm upcoming fight pages: %v\n", err)
		}
	}

	detector := movement.NewDetector(movement.Config{
		MinPercentageChange: cfg.Analysis.MinPercentageChange,
		SteamThreshold:      cfg.Analysis.SteamThreshold,
		MaxBaselines:        cfg.Analysis.MaxBaselines,
	})
	scanner := arbitrage.NewScanner(arbitrage.Config{
		MinProfitPercent: cfg.Analysis.MinProfitPercent,
		ReferenceStake:   cfg.Analysis.ReferenceStake,
		OpportunityTTL:   cfg.Analysis.OpportunityTTL(),
	})

	ingestor := ingest.NewIngestor(connectors, w, detector, scanner, notifier)
	if err := ingestor.Start(ctx); err != nil {
		fmt.Printf("❌ Failed to start ingestor: %v\n", err)
		os.Exit(1)
	}

	statusUpdater := closer.NewStatusUpdater(alexandria, time.Minute)
	if talosClient != nil {
		statusUpdater.SetTalosClient(talosClient)
	}
	statusUpdater.SetOnCompleted(func(fightID string) {
		if cleared := detector.ClearFight(fightID); cleared > 0 {
			fmt.Printf("[StatusUpdater] cleared %d movement baselines for %s\n", cleared, fightID)
		}
	})
	go statusUpdater.Start(ctx)

	var capturer *closer.Capturer
	if sport.ShouldCaptureClosing() {
		capturer = closer.NewCapturer(alexandria, redisClient, 30*time.Second)
		go capturer.Start(ctx)
	}

	opsServer := ops.NewServer(cfg.OpsAddr, sourceRegistry)
	opsServer.Start()

	fmt.Println("✓ Ares started - polling fight odds")
	fmt.Printf("  Sources: %d\n", sourceRegistry.Count())
	fmt.Printf("  Cache TTL: %v\n", cfg.CacheTTL())
	fmt.Println()
	fmt.Printf("  [%s]\n", sport.GetDisplayName())
	fmt.Printf("    Markets: %v\n", sport.GetMarkets())
	fmt.Printf("    Poll Interval: %v\n", sport.GetPollInterval())
	fmt.Printf("    Discovery: every %v (%dhr window)\n",
		sport.GetDiscoveryInterval(), sport.GetDiscoveryWindowHours())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\n✓ Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ingestor.Stop()
	if capturer != nil {
		capturer.Stop()
	}
	statusUpdater.Stop()
	w.Stop()

	if err := opsServer.Stop(shutdownCtx); err != nil {
		fmt.Printf("⚠ Ops server shutdown error: %v\n", err)
	}

	fmt.Println("✓ Ares stopped")
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
