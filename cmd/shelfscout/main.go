// cmd/shelfscout/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfscout/shelfscout/internal/adapter"
	"github.com/shelfscout/shelfscout/internal/api"
	"github.com/shelfscout/shelfscout/internal/config"
	"github.com/shelfscout/shelfscout/internal/crawler"
	"github.com/shelfscout/shelfscout/internal/export"
	"github.com/shelfscout/shelfscout/internal/fetch"
	"github.com/shelfscout/shelfscout/internal/monitoring"
	"github.com/shelfscout/shelfscout/internal/store"
	"github.com/shelfscout/shelfscout/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var mainLogger = utils.NewComponentLogger("main")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "run":
		requireConfigArg("run")
		if err := runCrawl(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		requireConfigArg("validate")
		if err := validateConfig(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration file '%s' is valid\n", os.Args[2])

	case "export":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Error: config file and output path required")
			fmt.Fprintln(os.Stderr, "Usage: shelfscout export <config.yaml> <products.xlsx>")
			os.Exit(1)
		}
		if err := exportProducts(os.Args[2], os.Args[3]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

func requireConfigArg(command string) {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Error: config file required")
		fmt.Fprintf(os.Stderr, "Usage: shelfscout %s <config.yaml>\n", command)
		os.Exit(1)
	}
}

// loadConfig loads and fully validates the configuration. Any problem is
// fatal before a browser session or store connection is opened.
func loadConfig(configFile string) (*config.Config, error) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	registry := adapter.NewRegistry(nil)
	if err := cfg.EnsureSupportedSites(registry.Supported()); err != nil {
		return nil, err
	}

	if cfg.LogLevel != "" {
		level, err := utils.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		utils.SetDefaultLevel(level)
	}
	return cfg, nil
}

func validateConfig(configFile string) error {
	_, err := loadConfig(configFile)
	return err
}

func runCrawl(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	productStore, err := store.NewMongoStore(ctx, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		productStore.Close(closeCtx)
	}()

	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics()
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddress); err != nil {
				mainLogger.Errorf("Metrics server failed: %v", err)
			}
		}()
	}
	if cfg.VerificationAPI.Enabled {
		server := api.NewServer(productStore)
		go func() {
			if err := server.Serve(ctx, cfg.VerificationAPI.ListenAddress); err != nil {
				mainLogger.Errorf("Verification API failed: %v", err)
			}
		}()
	}

	fetcher := fetch.NewImageFetcher(cfg.Browser.NavigationTimeout, fetch.DefaultMaxImageBytes)
	registry := adapter.NewRegistry(fetcher)
	orchestrator := crawler.NewOrchestrator(cfg, registry, productStore, metrics)

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl run failed: %w", err)
	}

	fmt.Printf("Run %s finished in %s: %d product(s) (%d new, %d updated), %d URL(s) skipped\n",
		summary.RunVersion, summary.Duration.Round(time.Second),
		summary.Products, summary.Inserted, summary.Updated, summary.SkippedURLs)
	if len(summary.FailedSites) > 0 {
		fmt.Printf("Failed sites: %v\n", summary.FailedSites)
	}

	// Keep the verification API up until interrupted, if requested.
	if cfg.VerificationAPI.Enabled {
		fmt.Println("Verification API still serving; press Ctrl+C to exit")
		<-ctx.Done()
	}
	return nil
}

func exportProducts(configFile, outputPath string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	productStore, err := store.NewMongoStore(ctx, cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer productStore.Close(ctx)

	products, err := productStore.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	if err := export.WriteExcel(products, outputPath); err != nil {
		return err
	}
	fmt.Printf("Exported %d product(s) to %s\n", len(products), outputPath)
	return nil
}

func printUsage() {
	fmt.Println("ShelfScout - Retail Product Crawler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  shelfscout run <config.yaml>                  Run a crawl with the given configuration")
	fmt.Println("  shelfscout validate <config.yaml>             Validate a configuration file")
	fmt.Println("  shelfscout export <config.yaml> <out.xlsx>    Export stored products to a workbook")
	fmt.Println("  shelfscout version                            Show version information")
	fmt.Println("  shelfscout help                               Show this help message")
}

func printVersion() {
	fmt.Printf("ShelfScout %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
