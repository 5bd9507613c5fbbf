// Package seed fills a running vendormatch service with generated clients,
// vendors and projects, rebuilds every project's matches over HTTP and checks
// the returned scores against a local computation.
package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/expanders360/vendormatch/pkg/logger"
)

// ErrVerification reports that the service returned matches that disagree
// with the locally computed ones.
var ErrVerification = errors.New("verification failed")

// ErrInvalidConfig reports unusable run settings.
var ErrInvalidConfig = errors.New("invalid seed config")

// Validate checks the run settings.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Clients < 1:
		return fmt.Errorf("%w: at least one client is required", ErrInvalidConfig)
	case c.Vendors < 0 || c.Projects < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Run executes a complete seeding run and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()
	log.Info(ctx, "starting vendormatch seed",
		logger.String("baseURL", config.BaseURL),
		logger.Int("clients", config.Clients),
		logger.Int("vendors", config.Vendors),
		logger.Int("projects", config.Projects),
		logger.Int("workers", config.Workers),
		logger.Any("seed", config.Seed),
	)

	client := newHTTPClient(config.BaseURL, config.Timeout)
	gen := newGenerator(config.Seed)

	// Step 1: Check service health
	if err := client.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	ds := &Dataset{}

	// Step 2: Clients
	clients := generateClients(ctx, gen, config.Clients)
	failed, err := forEach(ctx, config.Workers, len(clients), "clients", func(ctx context.Context, i int) error {
		return client.do(ctx, http.MethodPost, "/clients", clients[i], http.StatusCreated, &clients[i])
	})
	stats.RequestsFailed += failed
	if err != nil {
		return stats, fmt.Errorf("create clients: %w", err)
	}
	ds.Clients = created(clients, func(c Client) int64 { return c.ID })
	stats.ClientsCreated = len(ds.Clients)
	if len(ds.Clients) == 0 {
		return stats, fmt.Errorf("create clients: none succeeded")
	}

	// Step 3: Vendors
	vendors := generateVendors(ctx, gen, config.Vendors)
	failed, err = forEach(ctx, config.Workers, len(vendors), "vendors", func(ctx context.Context, i int) error {
		return client.do(ctx, http.MethodPost, "/vendors", vendors[i], http.StatusCreated, &vendors[i])
	})
	stats.RequestsFailed += failed
	if err != nil {
		return stats, fmt.Errorf("create vendors: %w", err)
	}
	ds.Vendors = created(vendors, func(v Vendor) int64 { return v.ID })
	stats.VendorsCreated = len(ds.Vendors)

	// Step 4: Projects
	projects := generateProjects(ctx, gen, config.Projects, ds.Clients)
	failed, err = forEach(ctx, config.Workers, len(projects), "projects", func(ctx context.Context, i int) error {
		return client.do(ctx, http.MethodPost, "/projects", projects[i], http.StatusCreated, &projects[i])
	})
	stats.RequestsFailed += failed
	if err != nil {
		return stats, fmt.Errorf("create projects: %w", err)
	}
	ds.Projects = created(projects, func(p Project) int64 { return p.ID })
	stats.ProjectsCreated = len(ds.Projects)

	// Step 5: Rebuild and fetch every project's matches
	results := make([][]Match, len(ds.Projects))
	failed, err = forEach(ctx, config.Workers, len(ds.Projects), "rebuild", func(ctx context.Context, i int) error {
		path := "/matches/projects/" + strconv.FormatInt(ds.Projects[i].ID, 10)
		if err := client.do(ctx, http.MethodPost, path+"/rebuild", nil, http.StatusCreated, nil); err != nil {
			return err
		}
		return client.do(ctx, http.MethodGet, path, nil, http.StatusOK, &results[i])
	})
	stats.RequestsFailed += failed
	if err != nil {
		return stats, fmt.Errorf("rebuild matches: %w", err)
	}

	// Step 6: Verify
	rebuilt := make(map[int64][]Match, len(ds.Projects))
	for i, p := range ds.Projects {
		if results[i] != nil {
			rebuilt[p.ID] = results[i]
			stats.ProjectsRebuilt++
			stats.MatchesCreated += len(results[i])
		}
	}
	verifyErr := verifyMatches(ctx, ds, rebuilt, stats, config.Verbose)

	var general General
	if err := client.do(ctx, http.MethodGet, "/analytics/general", nil, http.StatusOK, &general); err != nil {
		log.Warn(ctx, "failed to fetch analytics", logger.Error(err))
	} else {
		log.Info(ctx, "service totals",
			logger.Int("totalProjects", general.TotalProjects),
			logger.Int("activeProjects", general.ActiveProjects),
			logger.Int("totalMatches", general.TotalMatches),
			logger.String("avgMatchScore", general.AvgMatchScore.StringFixed(2)),
		)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, verifyErr
	}
	log.Info(ctx, "seed completed successfully")
	return stats, nil
}

// created keeps the items the server assigned an id to.
func created[T any](items []T, id func(T) int64) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if id(it) > 0 {
			out = append(out, it)
		}
	}
	return out
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var requestsPerSecond float64
	requests := stats.ClientsCreated + stats.VendorsCreated + stats.ProjectsCreated + 2*stats.ProjectsRebuilt
	if stats.Duration > 0 {
		requestsPerSecond = float64(requests) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("clientsCreated", stats.ClientsCreated),
		logger.Int("vendorsCreated", stats.VendorsCreated),
		logger.Int("projectsCreated", stats.ProjectsCreated),
		logger.Int("projectsRebuilt", stats.ProjectsRebuilt),
		logger.Int("matchesCreated", stats.MatchesCreated),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("scoresVerified", stats.ScoresVerified),
		logger.Int("scoreMismatches", stats.ScoreMismatches),
		logger.Int("missingMatches", stats.MissingMatches),
		logger.Int("unexpectedMatches", stats.UnexpectedMatches),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", requestsPerSecond),
	)
}
