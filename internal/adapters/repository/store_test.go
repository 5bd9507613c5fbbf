package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newSQLite(t *testing.T, c *clock) repository.Store {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), repository.WithClock(c.now))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newMemory(_ *testing.T, c *clock) repository.Store {
	return repository.NewMemoryStore(repository.WithClock(c.now))
}

func TestStores(t *testing.T) {
	for name, open := range map[string]func(*testing.T, *clock) repository.Store{
		"sqlite": newSQLite,
		"memory": newMemory,
	} {
		t.Run(name, func(t *testing.T) { storeContract(t, open) })
	}
}

func storeContract(t *testing.T, open func(*testing.T, *clock) repository.Store) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		store := open(t, c)

		client := &model.Client{CompanyName: "Acme", ContactEmail: "ops@acme.com"}
		So(store.CreateClient(ctx, client), ShouldBeNil)

		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		project := &model.Project{
			ClientID:       client.ID,
			Name:           "Germany Launch",
			Country:        "Germany",
			ServicesNeeded: []string{"legal-compliance", "market-research"},
			Budget:         decimal.RequireFromString("50000.50"),
			StartDate:      &start,
		}
		So(store.CreateProject(ctx, project), ShouldBeNil)

		good := &model.Vendor{
			Name:               "Global Expansion Partners",
			CountriesSupported: []string{"Germany", "France"},
			ServicesOffered:    []string{"legal-compliance", "tech-integration"},
			Rating:             decimal.RequireFromString("4.8"),
			ResponseSLAHours:   12,
			ContactEmail:       "hello@gep.example",
			IsActive:           true,
		}
		elsewhere := &model.Vendor{
			Name:               "Iberia Desk",
			CountriesSupported: []string{"Spain"},
			ServicesOffered:    []string{"legal-compliance"},
			Rating:             decimal.RequireFromString("4.0"),
			ResponseSLAHours:   24,
			IsActive:           true,
		}
		dormant := &model.Vendor{
			Name:               "Dormant GmbH",
			CountriesSupported: []string{"Germany"},
			ServicesOffered:    []string{"market-research"},
			Rating:             decimal.RequireFromString("3.5"),
			ResponseSLAHours:   48,
			IsActive:           false,
		}
		for _, v := range []*model.Vendor{good, elsewhere, dormant} {
			So(store.CreateVendor(ctx, v), ShouldBeNil)
		}

		Convey("When reading records back", func() {
			gotClient, err := store.GetClient(ctx, client.ID)
			So(err, ShouldBeNil)
			So(gotClient.ContactEmail, ShouldEqual, "ops@acme.com")

			p, err := store.GetProject(ctx, project.ID)
			So(err, ShouldBeNil)

			Convey("Then fields round-trip", func() {
				So(p.Name, ShouldEqual, "Germany Launch")
				So(p.ClientID, ShouldEqual, client.ID)
				So(p.ServicesNeeded, ShouldResemble, []string{"legal-compliance", "market-research"})
				So(p.Budget.Equal(decimal.RequireFromString("50000.5")), ShouldBeTrue)
				So(p.Status, ShouldEqual, model.StatusActive)
				So(p.StartDate.Equal(start), ShouldBeTrue)
				So(p.EndDate, ShouldBeNil)
				So(p.CreatedAt.Equal(c.t), ShouldBeTrue)

				v, err := store.GetVendor(ctx, good.ID)
				So(err, ShouldBeNil)
				So(v.Rating.String(), ShouldEqual, "4.8")
				So(v.CountriesSupported, ShouldResemble, []string{"Germany", "France"})
				So(v.IsActive, ShouldBeTrue)
			})
		})

		Convey("When a record is missing", func() {
			_, err := store.GetProject(ctx, 9999)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = store.GetVendor(ctx, 9999)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(store.DeleteProject(ctx, 9999), repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a client email is reused", func() {
			err := store.CreateClient(ctx, &model.Client{CompanyName: "Other", ContactEmail: "ops@acme.com"})
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
		})

		Convey("When finding eligible vendors", func() {
			vs, err := store.FindEligibleVendors(ctx, "Germany", project.ServicesNeeded)
			So(err, ShouldBeNil)

			Convey("Then only active vendors in the country with an overlapping service are returned", func() {
				So(len(vs), ShouldEqual, 1)
				So(vs[0].ID, ShouldEqual, good.ID)
			})

			Convey("And country and service comparisons are case-sensitive", func() {
				lowerCountry := &model.Vendor{
					Name:               "Lowercase Country",
					CountriesSupported: []string{"germany"},
					ServicesOffered:    []string{"legal-compliance"},
					Rating:             decimal.RequireFromString("5.0"),
					ResponseSLAHours:   1,
					IsActive:           true,
				}
				titleService := &model.Vendor{
					Name:               "Title Case Service",
					CountriesSupported: []string{"Germany"},
					ServicesOffered:    []string{"Legal-Compliance", "Market-Research"},
					Rating:             decimal.RequireFromString("5.0"),
					ResponseSLAHours:   1,
					IsActive:           true,
				}
				So(store.CreateVendor(ctx, lowerCountry), ShouldBeNil)
				So(store.CreateVendor(ctx, titleService), ShouldBeNil)

				vs, err := store.FindEligibleVendors(ctx, "Germany", project.ServicesNeeded)
				So(err, ShouldBeNil)
				So(len(vs), ShouldEqual, 1)
				So(vs[0].ID, ShouldEqual, good.ID)

				vs, err = store.FindEligibleVendors(ctx, "GERMANY", project.ServicesNeeded)
				So(err, ShouldBeNil)
				So(vs, ShouldBeEmpty)
			})

			Convey("And an empty service list matches nothing", func() {
				vs, err := store.FindEligibleVendors(ctx, "Germany", nil)
				So(err, ShouldBeNil)
				So(vs, ShouldBeEmpty)
			})
		})

		Convey("When listing vendors", func() {
			active, err := store.ListVendors(ctx, true)
			So(err, ShouldBeNil)
			all, err := store.ListVendors(ctx, false)
			So(err, ShouldBeNil)
			So(len(active), ShouldEqual, 2)
			So(len(all), ShouldEqual, 3)
		})

		Convey("When storing matches", func() {
			m1 := &model.Match{ProjectID: project.ID, VendorID: good.ID, Score: decimal.RequireFromString("14.30")}
			So(store.CreateMatch(ctx, m1), ShouldBeNil)
			c.t = c.t.Add(time.Hour)
			m2 := &model.Match{ProjectID: project.ID, VendorID: elsewhere.ID, Score: decimal.RequireFromString("16.00")}
			So(store.CreateMatch(ctx, m2), ShouldBeNil)

			Convey("Then a duplicate pair is rejected", func() {
				dup := &model.Match{ProjectID: project.ID, VendorID: good.ID, Score: decimal.NewFromInt(1)}
				So(errors.Is(store.CreateMatch(ctx, dup), repository.ErrConflict), ShouldBeTrue)
			})

			Convey("Then project matches come back best score first with relations", func() {
				ms, err := store.ListMatchesByProject(ctx, project.ID)
				So(err, ShouldBeNil)
				So(len(ms), ShouldEqual, 2)
				So(ms[0].VendorID, ShouldEqual, elsewhere.ID)
				So(ms[1].Score.StringFixed(2), ShouldEqual, "14.30")
				So(ms[1].Vendor.Name, ShouldEqual, "Global Expansion Partners")
				So(ms[1].Project.Country, ShouldEqual, "Germany")
				So(ms[1].ClientEmail, ShouldEqual, "ops@acme.com")
			})

			Convey("Then all matches come back newest first", func() {
				ms, err := store.ListMatches(ctx)
				So(err, ShouldBeNil)
				So(ms[0].ID, ShouldEqual, m2.ID)
			})

			Convey("Then the since window is inclusive", func() {
				ms, err := store.ListMatchesSince(ctx, m2.CreatedAt)
				So(err, ShouldBeNil)
				So(len(ms), ShouldEqual, 1)
				So(ms[0].ID, ShouldEqual, m2.ID)
			})

			Convey("Then totals aggregate counts and the average score", func() {
				tot, err := store.Totals(ctx, m2.CreatedAt)
				So(err, ShouldBeNil)
				So(tot.Projects, ShouldEqual, 1)
				So(tot.ActiveProjects, ShouldEqual, 1)
				So(tot.Matches, ShouldEqual, 2)
				So(tot.RecentMatches, ShouldEqual, 1)
				So(tot.AverageScore.StringFixed(2), ShouldEqual, "15.15")
			})

			Convey("Then deleting the vendor removes its matches", func() {
				So(store.DeleteVendor(ctx, good.ID), ShouldBeNil)
				ms, err := store.ListMatchesByProject(ctx, project.ID)
				So(err, ShouldBeNil)
				So(len(ms), ShouldEqual, 1)
			})

			Convey("Then deleting the project removes its matches", func() {
				So(store.DeleteProject(ctx, project.ID), ShouldBeNil)
				ms, err := store.ListMatches(ctx)
				So(err, ShouldBeNil)
				So(ms, ShouldBeEmpty)
			})
		})

		Convey("When replacing a project's matches", func() {
			prior := &model.Match{ProjectID: project.ID, VendorID: good.ID, Score: decimal.RequireFromString("14.30")}
			So(store.CreateMatch(ctx, prior), ShouldBeNil)
			c.t = c.t.Add(time.Hour)

			Convey("Then the old set is swapped for the new one", func() {
				ms := []model.Match{
					{ProjectID: project.ID, VendorID: elsewhere.ID, Score: decimal.RequireFromString("16.00")},
					{ProjectID: project.ID, VendorID: dormant.ID, Score: decimal.RequireFromString("3.00")},
				}
				removed, err := store.ReplaceMatches(ctx, project.ID, ms)
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 1)
				So(ms[0].ID, ShouldBeGreaterThan, 0)
				So(ms[1].ID, ShouldNotEqual, ms[0].ID)
				So(ms[0].CreatedAt.Equal(c.t), ShouldBeTrue)

				stored, err := store.ListMatchesByProject(ctx, project.ID)
				So(err, ShouldBeNil)
				So(len(stored), ShouldEqual, 2)
				So(stored[0].VendorID, ShouldEqual, elsewhere.ID)
				So(stored[1].VendorID, ShouldEqual, dormant.ID)
			})

			Convey("Then an empty replacement clears the project", func() {
				removed, err := store.ReplaceMatches(ctx, project.ID, nil)
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 1)
				stored, err := store.ListMatchesByProject(ctx, project.ID)
				So(err, ShouldBeNil)
				So(stored, ShouldBeEmpty)
			})

			Convey("Then a row referencing a missing vendor leaves the old set intact", func() {
				ms := []model.Match{
					{ProjectID: project.ID, VendorID: elsewhere.ID, Score: decimal.NewFromInt(16)},
					{ProjectID: project.ID, VendorID: 9999, Score: decimal.NewFromInt(1)},
				}
				_, err := store.ReplaceMatches(ctx, project.ID, ms)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(ms[0].ID, ShouldEqual, 0)

				stored, err := store.ListMatchesByProject(ctx, project.ID)
				So(err, ShouldBeNil)
				So(len(stored), ShouldEqual, 1)
				So(stored[0].ID, ShouldEqual, prior.ID)
			})

			Convey("Then a duplicated vendor leaves the old set intact", func() {
				ms := []model.Match{
					{ProjectID: project.ID, VendorID: elsewhere.ID, Score: decimal.NewFromInt(16)},
					{ProjectID: project.ID, VendorID: elsewhere.ID, Score: decimal.NewFromInt(16)},
				}
				_, err := store.ReplaceMatches(ctx, project.ID, ms)
				So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)

				stored, err := store.ListMatchesByProject(ctx, project.ID)
				So(err, ShouldBeNil)
				So(len(stored), ShouldEqual, 1)
				So(stored[0].ID, ShouldEqual, prior.ID)
			})
		})

		Convey("When updating a project status", func() {
			project.Status = model.StatusCompleted
			c.t = c.t.Add(time.Minute)
			So(store.UpdateProject(ctx, project), ShouldBeNil)

			Convey("Then filters see the new status", func() {
				active, err := store.ListProjects(ctx, repository.ProjectFilter{Status: model.StatusActive})
				So(err, ShouldBeNil)
				So(active, ShouldBeEmpty)
				done, err := store.ListProjects(ctx, repository.ProjectFilter{ClientID: client.ID, Status: model.StatusCompleted})
				So(err, ShouldBeNil)
				So(len(done), ShouldEqual, 1)
				So(done[0].UpdatedAt.After(done[0].CreatedAt), ShouldBeTrue)
			})
		})

		Convey("When deactivating a vendor", func() {
			good.IsActive = false
			So(store.UpdateVendor(ctx, good), ShouldBeNil)
			vs, err := store.FindEligibleVendors(ctx, "Germany", project.ServicesNeeded)
			So(err, ShouldBeNil)
			So(vs, ShouldBeEmpty)
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)
			So(store.Ping(ctx), ShouldNotBeNil)
		})
	})
}

func TestSQLiteMigrate(t *testing.T) {
	Convey("Given a fresh database file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "vm.db")
		store, err := repository.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		Convey("When migrating twice", func() {
			So(store.Migrate(ctx), ShouldBeNil)
			So(store.Migrate(ctx), ShouldBeNil)

			Convey("Then the schema is at the expected version", func() {
				v, err := store.SchemaVersion(ctx)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, repository.ExpectedSchemaVersion)
			})
		})
	})

	Convey("Given an empty path", t, func() {
		_, err := repository.NewSQLiteStore("  ")
		So(err, ShouldNotBeNil)
	})
}

func TestSQLiteReplaceAcrossHandles(t *testing.T) {
	Convey("Given two store handles on one database file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "shared.db")
		a, err := repository.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		defer func() { _ = a.Close() }()
		So(a.Migrate(ctx), ShouldBeNil)
		b, err := repository.NewSQLiteStore(path)
		So(err, ShouldBeNil)
		defer func() { _ = b.Close() }()

		project := &model.Project{
			Name:           "Germany Launch",
			Country:        "Germany",
			ServicesNeeded: []string{"legal-compliance"},
			Budget:         decimal.NewFromInt(1000),
		}
		So(a.CreateProject(ctx, project), ShouldBeNil)
		var vendorIDs []int64
		for _, name := range []string{"One", "Two", "Three"} {
			v := &model.Vendor{
				Name:               name,
				CountriesSupported: []string{"Germany"},
				ServicesOffered:    []string{"legal-compliance"},
				Rating:             decimal.RequireFromString("4.0"),
				ResponseSLAHours:   24,
				IsActive:           true,
			}
			So(a.CreateVendor(ctx, v), ShouldBeNil)
			vendorIDs = append(vendorIDs, v.ID)
		}

		Convey("When both replace the same project concurrently", func() {
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				errs []error
			)
			for i := 0; i < 10; i++ {
				store := a
				if i%2 == 1 {
					store = b
				}
				wg.Add(1)
				go func(store *repository.SQLiteStore) {
					defer wg.Done()
					ms := make([]model.Match, 0, len(vendorIDs))
					for _, id := range vendorIDs {
						ms = append(ms, model.Match{ProjectID: project.ID, VendorID: id, Score: decimal.NewFromInt(10)})
					}
					_, err := store.ReplaceMatches(ctx, project.ID, ms)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, err)
					}
				}(store)
			}
			wg.Wait()

			Convey("Then none conflict and exactly one set survives", func() {
				So(errs, ShouldBeEmpty)
				stored, err := b.ListMatchesByProject(ctx, project.ID)
				So(err, ShouldBeNil)
				So(len(stored), ShouldEqual, len(vendorIDs))
			})
		})
	})
}
