// Command seed fills a running vendormatch service with generated data and
// verifies the match scores it computes.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/expanders360/vendormatch/internal/seed"
	"github.com/expanders360/vendormatch/pkg/logger"
)

// Default configuration constants.
const (
	defaultClients     = 10
	defaultVendors     = 50
	defaultProjects    = 100
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSeedTimeout = 10 * time.Minute
	defaultSeed        = 42
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		clients  = flag.Int("clients", defaultClients, "Number of clients to create")
		vendors  = flag.Int("vendors", defaultVendors, "Number of vendors to create")
		projects = flag.Int("projects", defaultProjects, "Number of projects to create and rebuild")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seedVal  = flag.Uint64("seed", defaultSeed, "Random seed for the generated data")
		logFile  = flag.String("log", "", "Log file (default: seed_log_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	path, err := seed.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultSeedTimeout)
	defer cancel()

	config := &seed.Config{
		BaseURL:  *baseURL,
		Clients:  *clients,
		Vendors:  *vendors,
		Projects: *projects,
		Workers:  *workers,
		Timeout:  *timeout,
		Seed:     *seedVal,
		LogFile:  path,
		Verbose:  *verbose,
	}

	if _, err := seed.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "seed failed", logger.Error(err))
		_ = logger.Sync()
		cancel()
		os.Exit(1)
	}
}
