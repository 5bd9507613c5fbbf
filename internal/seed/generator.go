package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vocabularies the generated data draws from. They overlap on purpose so
// every project has some eligible vendors.
var (
	countries = []string{"Germany", "France", "Spain", "Netherlands", "Poland", "Italy"}
	services  = []string{
		"legal-compliance", "market-research", "tech-integration",
		"hr-recruiting", "tax-advisory", "logistics", "office-setup",
	}
	slaHours = []int{4, 8, 12, 24, 36, 48, 72}
	statuses = []string{"active", "active", "active", "pending", "completed"}
)

// Constants for generated value ranges.
const (
	minRatingTenths   = 10 // 1.0
	ratingTenthsRange = 41 // up to 5.0
	maxCountries      = 3
	maxServices       = 4
	inactiveOneIn     = 10
	minBudget         = 5000
	budgetRange       = 495000
)

// Dataset is everything one run creates, in creation order.
type Dataset struct {
	Clients  []Client
	Vendors  []Vendor
	Projects []Project
}

// generator builds random but reproducible resources.
type generator struct {
	rnd *rand.Rand
	run string
}

func newGenerator(seed uint64) *generator {
	return &generator{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		// Unique per run so repeated seeding never collides on client emails.
		run: uuid.NewString()[:8],
	}
}

// pick returns n distinct entries of from, at least one.
func (g *generator) pick(from []string, n int) []string {
	if n < 1 {
		n = 1
	}
	if n > len(from) {
		n = len(from)
	}
	idx := g.rnd.Perm(len(from))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, from[i])
	}
	return out
}

func (g *generator) client(i int) Client {
	name := fmt.Sprintf("Client %d %s", i+1, g.run)
	return Client{
		CompanyName:  name,
		ContactEmail: strings.ToLower(fmt.Sprintf("ops+%d-%s@client.example", i+1, g.run)),
	}
}

func (g *generator) vendor(i int) Vendor {
	return Vendor{
		Name:               fmt.Sprintf("Vendor %d %s", i+1, g.run),
		CountriesSupported: g.pick(countries, 1+g.rnd.IntN(maxCountries)),
		ServicesOffered:    g.pick(services, 1+g.rnd.IntN(maxServices)),
		Rating:             decimal.New(int64(minRatingTenths+g.rnd.IntN(ratingTenthsRange)), -1),
		ResponseSLAHours:   slaHours[g.rnd.IntN(len(slaHours))],
		ContactEmail:       fmt.Sprintf("sales+%d-%s@vendor.example", i+1, g.run),
		IsActive:           g.rnd.IntN(inactiveOneIn) != 0,
	}
}

func (g *generator) project(i int, clientID int64) Project {
	return Project{
		ClientID:       clientID,
		Name:           fmt.Sprintf("Expansion %d %s", i+1, g.run),
		Country:        countries[g.rnd.IntN(len(countries))],
		ServicesNeeded: g.pick(services, 1+g.rnd.IntN(maxServices)),
		Budget:         decimal.NewFromInt(int64(minBudget + g.rnd.IntN(budgetRange))),
		Status:         statuses[g.rnd.IntN(len(statuses))],
	}
}

// generateClients and generateVendors do not depend on server state.
func generateClients(ctx context.Context, g *generator, n int) []Client {
	logger.Get().Info(ctx, "generating clients", logger.Int("count", n))
	out := make([]Client, n)
	for i := range out {
		out[i] = g.client(i)
	}
	return out
}

func generateVendors(ctx context.Context, g *generator, n int) []Vendor {
	logger.Get().Info(ctx, "generating vendors", logger.Int("count", n))
	out := make([]Vendor, n)
	for i := range out {
		out[i] = g.vendor(i)
	}
	return out
}

// generateProjects spreads projects round-robin over the created clients.
func generateProjects(ctx context.Context, g *generator, n int, clients []Client) []Project {
	logger.Get().Info(ctx, "generating projects", logger.Int("count", n))
	out := make([]Project, n)
	for i := range out {
		var clientID int64
		if len(clients) > 0 {
			clientID = clients[i%len(clients)].ID
		}
		out[i] = g.project(i, clientID)
	}
	return out
}
