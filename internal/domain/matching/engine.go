// Package matching rebuilds the scored vendor match set of a project.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/internal/domain/scoring"
	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

const defaultStoreTimeout = 5 * time.Second

// Store is the persistence the engine reads and writes.
type Store interface {
	GetProject(ctx context.Context, id int64) (model.Project, error)
	GetClient(ctx context.Context, id int64) (model.Client, error)
	FindEligibleVendors(ctx context.Context, country string, services []string) ([]model.Vendor, error)
	ReplaceMatches(ctx context.Context, projectID int64, ms []model.Match) (int64, error)
}

// Notifier receives one announcement per created match. Delivery is
// fire-and-forget: implementations log failures and never block the caller
// on transport.
type Notifier interface {
	NotifyMatch(ctx context.Context, d model.MatchDetail)
}

type nopNotifier struct{}

func (nopNotifier) NotifyMatch(context.Context, model.MatchDetail) {}

// Engine rebuilds match sets. Rebuilds of the same project are serialized;
// different projects proceed in parallel.
type Engine struct {
	store        Store
	notifier     Notifier
	scorer       *scoring.Scorer
	storeTimeout time.Duration
	locks        *keyedLocks
	logger       logger.Logger
}

// NewEngine creates an engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		notifier:     nopNotifier{},
		scorer:       scoring.NewScorer(),
		storeTimeout: defaultStoreTimeout,
		locks:        newKeyedLocks(),
		logger:       logger.Default().Named("matching"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RebuildMatches replaces the match set of projectID with one freshly scored
// match per eligible vendor and returns the created matches in creation order.
// The swap is atomic: on error the previous set survives and nothing is
// announced. Notifications go out only after the new set is committed. A
// missing project fails with ErrProjectNotFound before anything is touched.
func (e *Engine) RebuildMatches(ctx context.Context, projectID int64) (out []model.MatchDetail, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		switch {
		case errors.Is(err, ErrProjectNotFound):
			result = "not_found"
		case err != nil:
			result = "error"
		}
		metrics.RecordRebuild(result, float64(time.Since(start).Milliseconds()))
	}()

	if projectID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProject, projectID)
	}

	unlock, err := e.locks.lock(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("waiting for project %d: %w", projectID, err)
	}
	defer unlock()

	var project model.Project
	err = e.call(ctx, func(ctx context.Context) (err error) {
		project, err = e.store.GetProject(ctx, projectID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("load project %d: %w", projectID, err)
	}

	var vendors []model.Vendor
	err = e.call(ctx, func(ctx context.Context) (err error) {
		vendors, err = e.store.FindEligibleVendors(ctx, project.Country, project.ServicesNeeded)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find eligible vendors for project %d: %w", projectID, err)
	}
	metrics.RecordEligibleVendors(len(vendors))

	ms := make([]model.Match, 0, len(vendors))
	for _, v := range vendors {
		ms = append(ms, model.Match{
			ProjectID: project.ID,
			VendorID:  v.ID,
			Score:     e.scorer.Score(project, v),
		})
	}

	var removed int64
	err = e.call(ctx, func(ctx context.Context) (err error) {
		removed, err = e.store.ReplaceMatches(ctx, projectID, ms)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace matches for project %d: %w", projectID, err)
	}

	clientEmail := e.clientEmail(ctx, project)

	out = make([]model.MatchDetail, 0, len(ms))
	for i, m := range ms {
		metrics.RecordMatchCreated(m.Score.InexactFloat64())
		d := model.MatchDetail{Match: m, Project: project, Vendor: vendors[i], ClientEmail: clientEmail}
		out = append(out, d)
		e.notifier.NotifyMatch(ctx, d)
	}

	e.logger.Info(ctx, "rebuilt matches",
		logger.Int64("project_id", projectID),
		logger.Int("eligible", len(vendors)),
		logger.Int64("replaced", removed),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

// clientEmail resolves the owning client's address; notifications fall back
// to the admin address when it is empty.
func (e *Engine) clientEmail(ctx context.Context, p model.Project) string {
	if p.ClientID == 0 {
		return ""
	}
	var c model.Client
	err := e.call(ctx, func(ctx context.Context) (err error) {
		c, err = e.store.GetClient(ctx, p.ClientID)
		return err
	})
	if err != nil {
		e.logger.Warn(ctx, "client lookup failed",
			logger.Int64("project_id", p.ID),
			logger.Int64("client_id", p.ClientID),
			logger.Error(err))
		return ""
	}
	return c.ContactEmail
}

// call runs fn under the per-call store timeout.
func (e *Engine) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	return fn(ctx)
}
