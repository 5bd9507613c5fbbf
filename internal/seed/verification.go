package seed

import (
	"context"
	"fmt"

	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/internal/domain/scoring"
	"github.com/expanders360/vendormatch/pkg/logger"
)

func (p Project) toModel() model.Project {
	return model.Project{ID: p.ID, ClientID: p.ClientID, Name: p.Name, Country: p.Country,
		ServicesNeeded: p.ServicesNeeded, Budget: p.Budget, Status: model.ProjectStatus(p.Status)}
}

func (v Vendor) toModel() model.Vendor {
	return model.Vendor{ID: v.ID, Name: v.Name, CountriesSupported: v.CountriesSupported,
		ServicesOffered: v.ServicesOffered, Rating: v.Rating, ResponseSLAHours: v.ResponseSLAHours,
		IsActive: v.IsActive}
}

// verifyMatches checks, for every rebuilt project, that each seeded vendor
// eligible for it got exactly one match with the expected score, that no
// ineligible seeded vendor was matched, and that matches come best first.
// Vendors that existed before the run are ignored.
func verifyMatches(ctx context.Context, ds *Dataset, rebuilt map[int64][]Match, stats *Stats, verbose bool) error {
	log := logger.Get()
	log.Info(ctx, "verifying matches", logger.Int("projects", len(rebuilt)))

	vendors := make(map[int64]model.Vendor, len(ds.Vendors))
	for _, v := range ds.Vendors {
		vendors[v.ID] = v.toModel()
	}

	problems := 0
	for _, p := range ds.Projects {
		matches, ok := rebuilt[p.ID]
		if !ok {
			continue
		}
		project := p.toModel()

		seen := make(map[int64]int, len(matches))
		for i, m := range matches {
			if i > 0 && m.Score.GreaterThan(matches[i-1].Score) {
				problems++
				log.Warn(ctx, "matches not sorted by score",
					logger.Int64("project_id", p.ID), logger.Int("position", i))
			}
			v, ours := vendors[m.VendorID]
			if !ours {
				continue
			}
			seen[m.VendorID]++
			if !v.EligibleFor(project.Country, project.ServicesNeeded) {
				stats.UnexpectedMatches++
				log.Warn(ctx, "ineligible vendor matched",
					logger.Int64("project_id", p.ID), logger.Int64("vendor_id", v.ID))
				continue
			}
			want := scoring.Score(project, v)
			if !m.Score.Equal(want) {
				stats.ScoreMismatches++
				log.Warn(ctx, "score mismatch",
					logger.Int64("project_id", p.ID),
					logger.Int64("vendor_id", v.ID),
					logger.String("got", m.Score.StringFixed(2)),
					logger.String("want", want.StringFixed(2)),
				)
				continue
			}
			stats.ScoresVerified++
			if verbose {
				log.Debug(ctx, "score verified",
					logger.Int64("project_id", p.ID),
					logger.Int64("vendor_id", v.ID),
					logger.String("score", want.StringFixed(2)),
				)
			}
		}

		for id, v := range vendors {
			switch n := seen[id]; {
			case n == 0 && v.EligibleFor(project.Country, project.ServicesNeeded):
				stats.MissingMatches++
				log.Warn(ctx, "eligible vendor not matched",
					logger.Int64("project_id", p.ID), logger.Int64("vendor_id", id))
			case n > 1:
				problems++
				log.Warn(ctx, "vendor matched more than once",
					logger.Int64("project_id", p.ID), logger.Int64("vendor_id", id), logger.Int("times", n))
			}
		}
	}

	problems += stats.ScoreMismatches + stats.MissingMatches + stats.UnexpectedMatches
	if problems > 0 {
		return fmt.Errorf("%w: %d problems across %d projects", ErrVerification, problems, len(rebuilt))
	}
	log.Info(ctx, "matches verified", logger.Int("scores", stats.ScoresVerified))
	return nil
}
