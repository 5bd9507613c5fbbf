package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/expanders360/vendormatch/internal/adapters/http/api"
	"github.com/expanders360/vendormatch/internal/adapters/repository"
	service "github.com/expanders360/vendormatch/internal/app"
	"github.com/expanders360/vendormatch/internal/domain/model"
	"github.com/expanders360/vendormatch/internal/domain/types"
	"github.com/expanders360/vendormatch/internal/scheduler"
)

type nopSender struct{}

func (nopSender) Send(context.Context, model.Notification) error { return nil } //nolint:gocritic // hugeParam: matches Sender

func newTestServer(t *testing.T) (*httptest.Server, func()) {
	t.Helper()
	ctx := context.Background()
	svc := service.New(
		service.WithStore(repository.NewMemoryStore()),
		service.WithSender(nopSender{}),
		service.WithScheduler(false, "", "", time.UTC),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	ts := httptest.NewServer(mux)
	return ts, func() {
		ts.Close()
		_ = svc.Stop(ctx)
	}
}

func do(ts *httptest.Server, method, path string, body any) (*http.Response, map[string]any, []any) {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req, _ := http.NewRequest(method, ts.URL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&raw)
	var obj map[string]any
	var arr []any
	if len(raw) > 0 && raw[0] == '[' {
		_ = json.Unmarshal(raw, &arr)
	} else {
		_ = json.Unmarshal(raw, &obj)
	}
	return resp, obj, arr
}

func TestAPI(t *testing.T) {
	Convey("Given a running API", t, func() {
		ts, cleanup := newTestServer(t)
		defer cleanup()

		resp, client, _ := do(ts, "POST", "/clients", map[string]any{"companyName": "Acme", "contactEmail": "ops@acme.com"})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		clientID := client["id"].(float64)

		resp, vendor, _ := do(ts, "POST", "/vendors", map[string]any{
			"name": "GEP", "countriesSupported": []string{"Germany"},
			"servicesOffered": []string{"legal-compliance", "tech-integration"},
			"rating":          4.8, "responseSlaHours": 12,
		})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		So(vendor["isActive"], ShouldEqual, true)

		resp, project, _ := do(ts, "POST", "/projects", map[string]any{
			"clientId": clientID, "name": "EU Launch", "country": "Germany",
			"servicesNeeded": []string{"legal-compliance", "market-research"},
			"budget":         "50000", "startDate": "2024-06-01",
		})
		So(resp.StatusCode, ShouldEqual, http.StatusCreated)
		So(project["status"], ShouldEqual, "active")
		So(project["startDate"], ShouldEqual, "2024-06-01")
		pid := int64(project["id"].(float64))

		Convey("When rebuilding matches", func() {
			resp, _, ms := do(ts, "POST", fmt.Sprintf("/matches/projects/%d/rebuild", pid), nil)

			Convey("Then the match comes back with a numeric score", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(len(ms), ShouldEqual, 1)
				m := ms[0].(map[string]any)
				So(m["score"], ShouldEqual, 14.3)
				So(m["vendor"].(map[string]any)["name"], ShouldEqual, "GEP")
			})

			Convey("Then listing and analytics see it", func() {
				_, _, listed := do(ts, "GET", fmt.Sprintf("/matches/projects/%d", pid), nil)
				So(len(listed), ShouldEqual, 1)
				_, _, all := do(ts, "GET", "/matches", nil)
				So(len(all), ShouldEqual, 1)

				_, _, top := do(ts, "GET", "/analytics/top-vendors", nil)
				So(len(top), ShouldEqual, 1)
				So(top[0].(map[string]any)["country"], ShouldEqual, "Germany")

				_, general, _ := do(ts, "GET", "/analytics/general", nil)
				So(general["totalMatches"], ShouldEqual, 1)
				So(general["avgMatchScore"], ShouldEqual, 14.3)
			})
		})

		Convey("When rebuilding a missing project", func() {
			resp, body, _ := do(ts, "POST", "/matches/projects/999/rebuild", nil)

			Convey("Then it answers 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the id is not a number", func() {
			resp, _, _ := do(ts, "GET", "/projects/abc", nil)

			Convey("Then it answers 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When patching the project status", func() {
			resp, body, _ := do(ts, "PATCH", fmt.Sprintf("/projects/%d", pid), map[string]any{"status": "completed"})

			Convey("Then only the status changes", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "completed")
				So(body["name"], ShouldEqual, "EU Launch")

				_, _, active := do(ts, "GET", "/projects?status=active", nil)
				So(active, ShouldBeEmpty)
			})
		})

		Convey("When patching with an unknown status", func() {
			resp, _, _ := do(ts, "PATCH", fmt.Sprintf("/projects/%d", pid), map[string]any{"status": "paused"})

			Convey("Then it is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When creating invalid records", func() {
			Convey("Then a vendor rated above 5 is rejected", func() {
				resp, _, _ := do(ts, "POST", "/vendors", map[string]any{
					"name": "X", "countriesSupported": []string{"Germany"}, "servicesOffered": []string{"x"}, "rating": 5.5,
				})
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a vendor with a zero SLA is rejected", func() {
				resp, _, _ := do(ts, "POST", "/vendors", map[string]any{
					"name": "X", "countriesSupported": []string{"Germany"}, "servicesOffered": []string{"x"}, "responseSlaHours": 0,
				})
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a project with a negative budget is rejected", func() {
				resp, _, _ := do(ts, "POST", "/projects", map[string]any{
					"name": "X", "country": "Germany", "servicesNeeded": []string{"x"}, "budget": -1,
				})
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then malformed JSON and unknown fields are rejected", func() {
				resp, _, _ := do(ts, "POST", "/clients", `{"companyName":`)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp, _, _ = do(ts, "POST", "/clients", map[string]any{"companyName": "A", "contactEmail": "a@b.c", "role": "admin"})
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then a duplicate client email conflicts", func() {
				resp, _, _ := do(ts, "POST", "/clients", map[string]any{"companyName": "Other", "contactEmail": "ops@acme.com"})
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When deactivating the vendor", func() {
			vid := int64(vendor["id"].(float64))
			resp, _, _ := do(ts, "PATCH", fmt.Sprintf("/vendors/%d", vid), map[string]any{"isActive": false})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			Convey("Then it drops out of the default listing and of new matches", func() {
				_, _, active := do(ts, "GET", "/vendors", nil)
				So(active, ShouldBeEmpty)
				_, _, all := do(ts, "GET", "/vendors?all=true", nil)
				So(len(all), ShouldEqual, 1)

				_, _, ms := do(ts, "POST", fmt.Sprintf("/matches/projects/%d/rebuild", pid), nil)
				So(ms, ShouldBeEmpty)
			})
		})

		Convey("When deleting the project", func() {
			resp, _, _ := do(ts, "DELETE", fmt.Sprintf("/projects/%d", pid), nil)

			Convey("Then it is gone", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNoContent)
				resp, _, _ = do(ts, "GET", fmt.Sprintf("/projects/%d", pid), nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When using the operational endpoints", func() {
			Convey("Then health, stats and metrics answer", func() {
				resp, body, _ := do(ts, "GET", "/healthz", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "ok")

				resp, body, _ = do(ts, "GET", "/stats", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["started"], ShouldEqual, true)

				r, err := http.Get(ts.URL + "/metrics")
				So(err, ShouldBeNil)
				_ = r.Body.Close()
				So(r.StatusCode, ShouldEqual, http.StatusOK)
			})

			Convey("Then jobs can be listed and run", func() {
				_, _, jobs := do(ts, "GET", "/jobs", nil)
				So(len(jobs), ShouldEqual, 2)

				resp, body, _ := do(ts, "POST", "/jobs/sla-scan/run", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "ok")

				resp, _, _ = do(ts, "POST", "/jobs/nope/run", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then the wrong method is refused", func() {
				resp, _, _ := do(ts, "DELETE", "/matches", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

// brokenDeps fails every call with an internal error.
type brokenDeps struct{}

var errBroken = errors.New("disk on fire")

func (brokenDeps) Ping(context.Context) error { return errBroken }
func (brokenDeps) RebuildMatches(context.Context, int64) ([]model.MatchDetail, error) {
	return nil, errBroken
}
func (brokenDeps) ListMatchesByProject(context.Context, int64) ([]model.MatchDetail, error) {
	return nil, errBroken
}
func (brokenDeps) ListMatches(context.Context) ([]model.MatchDetail, error) { return nil, errBroken }
func (brokenDeps) CreateClient(context.Context, *model.Client) error { return errBroken }
func (brokenDeps) GetClient(context.Context, int64) (model.Client, error) {
	return model.Client{}, errBroken
}
func (brokenDeps) ListClients(context.Context) ([]model.Client, error) { return nil, errBroken }
func (brokenDeps) CreateProject(context.Context, *model.Project) error { return errBroken }
func (brokenDeps) GetProject(context.Context, int64) (model.Project, error) {
	return model.Project{}, errBroken
}
func (brokenDeps) ListProjects(context.Context, repository.ProjectFilter) ([]model.Project, error) {
	return nil, errBroken
}
func (brokenDeps) UpdateProject(context.Context, *model.Project) error { return errBroken }
func (brokenDeps) DeleteProject(context.Context, int64) error { return errBroken }
func (brokenDeps) CreateVendor(context.Context, *model.Vendor) error { return errBroken }
func (brokenDeps) GetVendor(context.Context, int64) (model.Vendor, error) {
	return model.Vendor{}, errBroken
}
func (brokenDeps) ListVendors(context.Context, bool) ([]model.Vendor, error) { return nil, errBroken }
func (brokenDeps) UpdateVendor(context.Context, *model.Vendor) error { return errBroken }
func (brokenDeps) DeleteVendor(context.Context, int64) error { return errBroken }
func (brokenDeps) TopVendorsByCountry(context.Context) ([]types.CountryTopVendors, error) {
	return nil, errBroken
}
func (brokenDeps) GeneralAnalytics(context.Context) (types.GeneralAnalytics, error) {
	return types.GeneralAnalytics{}, errBroken
}
func (brokenDeps) Jobs() []scheduler.Entry { return nil }
func (brokenDeps) RunJob(context.Context, string) error { return errBroken }
func (brokenDeps) GetStats() map[string]interface{} { return map[string]interface{}{} }

func TestAPIInternalErrors(t *testing.T) {
	Convey("Given dependencies that always fail", t, func() {
		mux := http.NewServeMux()
		api.NewServer(brokenDeps{}, brokenDeps{}).Register(context.Background(), mux)

		Convey("When a handler hits the failure", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/matches", http.NoBody))

			Convey("Then it answers 500 without leaking the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldNotContainSubstring, "disk on fire")
			})
		})

		Convey("When the store is down", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", http.NoBody))

			Convey("Then health reports unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When listing jobs with none registered", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/jobs", http.NoBody))

			Convey("Then an empty array comes back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "[]\n")
			})
		})
	})
}
