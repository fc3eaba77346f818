package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

var seedAdminID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("hoppyhub:seed:admin"))

type styleDef struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	CountryOfOrigin string `json:"country_of_origin"`
}

type breweryDef struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	FoundationYear *int   `json:"foundation_year,omitempty"`
	WebsiteURL     string `json:"website_url,omitempty"`
	City           string `json:"city"`
	Country        string `json:"country"`
}

type beerDef struct {
	Name            string   `json:"name"`
	BreweryID       string   `json:"brewery_id"`
	BeerStyleID     string   `json:"beer_style_id"`
	AlcoholByVolume float64  `json:"alcohol_by_volume"`
	Description     string   `json:"description"`
	Blg             *float64 `json:"blg,omitempty"`
	Ibu             *int     `json:"ibu,omitempty"`

	brewery string
	style   string
}

func year(y int) *int        { return &y }
func ibu(v int) *int         { return &v }
func blg(v float64) *float64 { return &v }

var styles = []styleDef{
	{Name: "India Pale Ale", Description: "Hop-forward pale ale.", CountryOfOrigin: "England"},
	{Name: "Pilsner", Description: "Crisp pale lager.", CountryOfOrigin: "Czech Republic"},
	{Name: "Stout", Description: "Dark ale brewed with roasted barley.", CountryOfOrigin: "Ireland"},
	{Name: "Weissbier", Description: "Wheat beer with banana and clove notes.", CountryOfOrigin: "Germany"},
	{Name: "Baltic Porter", Description: "Strong, cold-fermented porter.", CountryOfOrigin: "Poland"},
}

var breweries = []breweryDef{
	{Name: "Browar Pinta", Description: "Craft pioneers.", FoundationYear: year(2011), City: "Wrocław", Country: "Poland"},
	{Name: "Pilsner Urquell", Description: "Birthplace of the pilsner.", FoundationYear: year(1842), WebsiteURL: "https://www.pilsnerurquell.com", City: "Plzeň", Country: "Czech Republic"},
	{Name: "Guinness", Description: "St. James's Gate.", FoundationYear: year(1759), City: "Dublin", Country: "Ireland"},
	{Name: "Weihenstephan", Description: "Oldest operating brewery.", FoundationYear: year(1040), City: "Freising", Country: "Germany"},
}

var beers = []beerDef{
	{Name: "Atak Chmielu", AlcoholByVolume: 6.1, Description: "American IPA.", Blg: blg(15), Ibu: ibu(62), brewery: "Browar Pinta", style: "India Pale Ale"},
	{Name: "Imperator Bałtycki", AlcoholByVolume: 9.1, Description: "Smoky Baltic porter.", Blg: blg(24), brewery: "Browar Pinta", style: "Baltic Porter"},
	{Name: "Pilsner Urquell", AlcoholByVolume: 4.4, Description: "The original pilsner.", Blg: blg(11.8), Ibu: ibu(40), brewery: "Pilsner Urquell", style: "Pilsner"},
	{Name: "Guinness Draught", AlcoholByVolume: 4.2, Description: "Nitro dry stout.", Ibu: ibu(45), brewery: "Guinness", style: "Stout"},
	{Name: "Foreign Extra Stout", AlcoholByVolume: 7.5, Description: "Export strength stout.", Ibu: ibu(50), brewery: "Guinness", style: "Stout"},
	{Name: "Hefeweissbier", AlcoholByVolume: 5.4, Description: "Classic Bavarian wheat.", Ibu: ibu(14), brewery: "Weihenstephan", style: "Weissbier"},
}

var (
	namePrefixes = []string{"Hazy", "Golden", "Midnight", "Wild", "Double", "Smoked", "Royal", "Northern"}
	nameNouns    = []string{"Hop", "Harvest", "Anchor", "Lantern", "Orchard", "Forest", "Harbor", "Meadow"}
	comments     = []string{"", "Great balance.", "Too bitter for me.", "Would buy again.", "Solid everyday beer.", "Outstanding aroma."}
)

// Report counts what a run created. Entities that already existed are
// reused and not counted.
type Report struct {
	Styles    int
	Breweries int
	Beers     int
	Users     int
	Opinions  int
	Favorites int
}

type seeder struct {
	client *gatewayClient
	admin  string
	cfg    config
	rng    *rand.Rand
	logger *slog.Logger
}

func newSeeder(client *gatewayClient, adminToken string, cfg config, logger *slog.Logger) *seeder {
	return &seeder{
		client: client,
		admin:  adminToken,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.RandomSeed)),
		logger: logger,
	}
}

// Run seeds the catalog first, then the community data that refers to it.
// Re-running is safe: conflicts resolve to the existing entity.
func (s *seeder) Run(ctx context.Context) (Report, error) {
	var rep Report

	styleIDs := make(map[string]string, len(styles))
	for _, st := range styles {
		id, created, err := s.ensure(ctx, "/api/v1/beer-styles", st.Name, st)
		if err != nil {
			return rep, err
		}
		styleIDs[st.Name] = id
		rep.Styles += btoi(created)
	}

	breweryIDs := make(map[string]string, len(breweries))
	for _, br := range breweries {
		id, created, err := s.ensure(ctx, "/api/v1/breweries", br.Name, br)
		if err != nil {
			return rep, err
		}
		breweryIDs[br.Name] = id
		rep.Breweries += btoi(created)
	}

	defs := append(append([]beerDef(nil), beers...), s.generateBeers(s.cfg.GeneratedBeers)...)
	beerIDs := make([]string, 0, len(defs))
	for _, b := range defs {
		b.BreweryID = breweryIDs[b.brewery]
		b.BeerStyleID = styleIDs[b.style]
		id, created, err := s.ensure(ctx, "/api/v1/beers", b.Name, b)
		if err != nil {
			return rep, err
		}
		beerIDs = append(beerIDs, id)
		rep.Beers += btoi(created)
	}

	for i := 0; i < s.cfg.Users; i++ {
		token, created, err := s.ensureUser(ctx, i)
		if err != nil {
			return rep, err
		}
		rep.Users += btoi(created)

		opinions, favorites, err := s.rate(ctx, token, beerIDs)
		if err != nil {
			return rep, err
		}
		rep.Opinions += opinions
		rep.Favorites += favorites
	}
	return rep, nil
}

// ensure creates an entity as administrator, falling back to a lookup by
// name when it already exists.
func (s *seeder) ensure(ctx context.Context, collection, name string, body any) (string, bool, error) {
	var created struct {
		ID string `json:"id"`
	}
	err := s.client.do(ctx, http.MethodPost, collection, s.admin, body, &created)
	if err == nil {
		s.logger.Debug("created", slog.String("collection", collection), slog.String("name", name), slog.String("id", created.ID))
		return created.ID, true, nil
	}
	if !errors.Is(err, apperrors.ErrConflict) {
		return "", false, fmt.Errorf("create %q: %w", name, err)
	}

	id, ok, err := s.client.findByName(ctx, collection, name)
	if err != nil {
		return "", false, fmt.Errorf("look up %q: %w", name, err)
	}
	if !ok {
		return "", false, fmt.Errorf("%q conflicts but cannot be found in %s", name, collection)
	}
	return id, false, nil
}

func (s *seeder) ensureUser(ctx context.Context, n int) (string, bool, error) {
	username := fmt.Sprintf("taster%02d", n+1)
	email := username + "@hoppyhub.local"

	created := true
	err := s.client.do(ctx, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"email":    email,
		"username": username,
		"password": s.cfg.UserPassword,
	}, nil)
	if errors.Is(err, apperrors.ErrConflict) {
		created = false
	} else if err != nil {
		return "", false, fmt.Errorf("register %s: %w", username, err)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email":    email,
		"password": s.cfg.UserPassword,
	}, &token); err != nil {
		return "", false, fmt.Errorf("login %s: %w", username, err)
	}
	return token.AccessToken, created, nil
}

// rate gives roughly half of the beers an opinion and a third a favorite.
func (s *seeder) rate(ctx context.Context, token string, beerIDs []string) (int, int, error) {
	var opinions, favorites int
	for _, id := range beerIDs {
		if s.rng.Intn(2) == 0 {
			err := s.client.do(ctx, http.MethodPost, "/api/v1/opinions", token, map[string]any{
				"beer_id": id,
				"rating":  1 + s.rng.Intn(10),
				"comment": comments[s.rng.Intn(len(comments))],
			}, nil)
			switch {
			case err == nil:
				opinions++
			case !errors.Is(err, apperrors.ErrConflict):
				return opinions, favorites, fmt.Errorf("rate beer %s: %w", id, err)
			}
		}
		if s.rng.Intn(3) == 0 {
			err := s.client.do(ctx, http.MethodPost, "/api/v1/beers/"+id+"/favorite", token, nil, nil)
			switch {
			case err == nil:
				favorites++
			case !errors.Is(err, apperrors.ErrConflict):
				return opinions, favorites, fmt.Errorf("favorite beer %s: %w", id, err)
			}
		}
	}
	return opinions, favorites, nil
}

// generateBeers builds n synthetic beers spread over the fixture breweries
// and styles. The same random seed always yields the same names.
func (s *seeder) generateBeers(n int) []beerDef {
	out := make([]beerDef, 0, n)
	for i := 0; i < n; i++ {
		br := breweries[i%len(breweries)]
		st := styles[s.rng.Intn(len(styles))]
		name := fmt.Sprintf("%s %s %s #%d",
			namePrefixes[s.rng.Intn(len(namePrefixes))],
			nameNouns[s.rng.Intn(len(nameNouns))],
			st.Name, i+1)
		abv := 3.5 + float64(s.rng.Intn(80))/10
		out = append(out, beerDef{
			Name:            name,
			AlcoholByVolume: abv,
			Description:     fmt.Sprintf("Generated %s from %s, brewed %s.", st.Name, br.Name, time.Month(1+i%12)),
			Ibu:             ibu(10 + s.rng.Intn(90)),
			brewery:         br.Name,
			style:           st.Name,
		})
	}
	return out
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
