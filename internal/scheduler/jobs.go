package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/internal/domain/sla"
	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

// Job names and their default schedules.
const (
	NameDailyRefresh = "daily-refresh"
	NameSLAScan      = "sla-scan"

	DefaultDailyRefreshSpec = "0 2 * * *"
	DefaultSLAScanSpec      = "0 */6 * * *"
)

// ProjectLister finds the projects to refresh.
type ProjectLister interface {
	ListProjects(ctx context.Context, f repository.ProjectFilter) ([]model.Project, error)
}

// Rebuilder recomputes one project's matches.
type Rebuilder interface {
	RebuildMatches(ctx context.Context, projectID int64) ([]model.MatchDetail, error)
}

// SLAScanner runs one SLA compliance pass.
type SLAScanner interface {
	Scan(ctx context.Context) (sla.Report, error)
}

// RefreshReport summarizes a daily refresh.
type RefreshReport struct {
	Projects int
	Rebuilt  int
	Failed   int
	Matches  int
}

// DailyRefresh rebuilds every active project one after another. A failing
// project is logged and counted; the rest still run. The returned error wraps
// ErrPartial when any project failed, or is the listing or context error.
func DailyRefresh(ctx context.Context, projects ProjectLister, rebuilder Rebuilder, log logger.Logger) (RefreshReport, error) {
	active, err := projects.ListProjects(ctx, repository.ProjectFilter{Status: model.StatusActive})
	if err != nil {
		return RefreshReport{}, fmt.Errorf("list active projects: %w", err)
	}

	r := RefreshReport{Projects: len(active)}
	for _, p := range active {
		if err := ctx.Err(); err != nil {
			return r, fmt.Errorf("daily refresh interrupted after %d of %d projects: %w", r.Rebuilt+r.Failed, r.Projects, err)
		}
		log.Debug(ctx, "refreshing project", logger.Int64("project_id", p.ID), logger.String("project", p.Name))

		ms, err := rebuilder.RebuildMatches(ctx, p.ID)
		if err != nil {
			r.Failed++
			metrics.RecordJobItemFailure(NameDailyRefresh)
			log.Error(ctx, "project refresh failed", logger.Int64("project_id", p.ID), logger.Error(err))
			continue
		}
		r.Rebuilt++
		r.Matches += len(ms)
	}

	log.Info(ctx, "daily refresh completed",
		logger.Int("projects", r.Projects),
		logger.Int("rebuilt", r.Rebuilt),
		logger.Int("failed", r.Failed),
		logger.Int("matches", r.Matches),
	)
	if r.Failed > 0 {
		return r, fmt.Errorf("%w: %d of %d projects failed", ErrPartial, r.Failed, r.Projects)
	}
	return r, nil
}

// NewDailyRefreshJob wraps DailyRefresh as a Job.
func NewDailyRefreshJob(spec string, projects ProjectLister, rebuilder Rebuilder, log logger.Logger) Job {
	if spec == "" {
		spec = DefaultDailyRefreshSpec
	}
	if log == nil {
		log = logger.Default().Named(NameDailyRefresh)
	}
	return Job{
		Name: NameDailyRefresh,
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := DailyRefresh(ctx, projects, rebuilder, log)
			return err
		},
	}
}

// NewSLAScanJob wraps an SLA scan as a Job.
func NewSLAScanJob(spec string, scanner SLAScanner, log logger.Logger) Job {
	if spec == "" {
		spec = DefaultSLAScanSpec
	}
	if log == nil {
		log = logger.Default().Named(NameSLAScan)
	}
	return Job{
		Name: NameSLAScan,
		Spec: spec,
		Run: func(ctx context.Context) error {
			report, err := scanner.Scan(ctx)
			if err != nil {
				return fmt.Errorf("sla scan: %w", err)
			}
			log.Info(ctx, "sla compliance check completed",
				logger.Int("vendors", report.Vendors),
				logger.Int("recent_matches", report.RecentMatches),
				logger.Int("warnings", len(report.Breaches)),
			)
			return nil
		},
	}
}

// IsPartial reports whether err is a batch run where only some items failed.
func IsPartial(err error) bool {
	return errors.Is(err, ErrPartial)
}
