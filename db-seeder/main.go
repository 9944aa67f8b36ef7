package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
	"gitea.kood.tech/petrkubec/staff-directory/backend/schema"
	"gitea.kood.tech/petrkubec/staff-directory/backend/store"
)

type cfg struct {
	Driver     string
	DSN        string
	Database   string
	Collection string
	Count      int
	Seed       int64
	Truncate   bool
	Fixture    string // JSON array of profiles inserted before the generated ones
}

func main() {
	var c cfg
	cmd := &cobra.Command{
		Use:          "db-seeder",
		Short:        "Fill the profiles collection with deterministic fake employees",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			n, err := run(ctx, c, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d profiles\n", n)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.Driver, "driver", envOr("STORE_DRIVER", store.DriverPostgres), "Store driver (postgres, sqlite, mongo, http) [env: STORE_DRIVER]")
	f.StringVar(&c.DSN, "dsn", os.Getenv("DATABASE_URL"), "DSN, Mongo URI or API base URL [env: DATABASE_URL]")
	f.StringVar(&c.Database, "database", "directory", "Mongo database")
	f.StringVar(&c.Collection, "collection", store.CollectionName, "Target collection or table")
	f.IntVar(&c.Count, "count", 50, "Number of profiles to generate")
	f.Int64Var(&c.Seed, "seed", 42, "RNG seed (deterministic)")
	f.BoolVar(&c.Truncate, "truncate", false, "Remove every profile before seeding")
	f.StringVar(&c.Fixture, "fixture", "", "JSON file with extra profiles to insert first")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c cfg) validate() error {
	if c.DSN == "" && c.Driver != store.DriverMemory {
		return fmt.Errorf("missing DSN: provide --dsn or set DATABASE_URL")
	}
	if c.Count < 0 {
		return fmt.Errorf("--count must not be negative")
	}
	if c.Count == 0 && c.Fixture == "" {
		return fmt.Errorf("nothing to insert: --count is 0 and no --fixture given")
	}
	return nil
}

// run seeds the configured store and returns how many profiles were inserted.
func run(ctx context.Context, c cfg, logger *zap.Logger) (int, error) {
	if err := c.validate(); err != nil {
		return 0, err
	}

	var fixtures []profile.Profile
	if c.Fixture != "" {
		data, err := os.ReadFile(c.Fixture)
		if err != nil {
			return 0, fmt.Errorf("read fixture: %w", err)
		}
		fixtures, err = schema.ValidateProfilesJSON(data)
		if err != nil {
			return 0, fmt.Errorf("fixture %s: %w", c.Fixture, err)
		}
	}

	b, err := store.Open(ctx, store.Options{
		Driver:     c.Driver,
		DSN:        c.DSN,
		Database:   c.Database,
		Collection: c.Collection,
	}, logger)
	if err != nil {
		return 0, err
	}
	defer b.Close()

	if c.Truncate {
		t, ok := b.(store.Truncater)
		if !ok {
			return 0, fmt.Errorf("driver %q cannot truncate", c.Driver)
		}
		if err := t.Truncate(ctx); err != nil {
			return 0, fmt.Errorf("truncate: %w", err)
		}
		logger.Info("truncated collection", zap.String("collection", c.Collection))
	}

	r := rand.New(rand.NewSource(c.Seed))
	all := append(fixtures, generate(r, c.Count)...)

	inserted := 0
	for i, p := range all {
		if _, err := b.Insert(ctx, p.Fields()); err != nil {
			return inserted, fmt.Errorf("insert profile %d (%s): %w", i, p.Name, err)
		}
		inserted++
	}
	logger.Info("seeded profiles",
		zap.Int("fixtures", len(fixtures)),
		zap.Int("generated", c.Count),
		zap.Int64("seed", c.Seed))
	return inserted, nil
}

type city struct {
	name     string
	lat, lon float64
}

var cities = []city{
	{"Tallinn", 59.437, 24.7536},
	{"Tartu", 58.378, 26.729},
	{"Helsinki", 60.1699, 24.9384},
	{"Espoo", 60.2055, 24.6559},
	{"Tampere", 61.4978, 23.761},
	{"Turku", 60.4518, 22.2666},
	{"Riga", 56.9496, 24.1052},
	{"Stockholm", 59.3293, 18.0686},
}

var interests = []string{
	"hiking", "photography", "cooking", "reading", "board games",
	"yoga", "tennis", "bouldering", "music production", "indie games",
	"web dev", "3D art",
}

// generate builds n complete profiles from r. The same seed always yields
// the same profiles.
func generate(r *rand.Rand, n int) []profile.Profile {
	used := make(map[string]struct{}, n)
	out := make([]profile.Profile, 0, n)
	for range n {
		first, last := displayName(r)
		c := cities[r.Intn(len(cities))]
		// Scatter a few kilometres around the city centre
		lat := c.lat + (r.Float64()-0.5)*0.05
		lon := c.lon + (r.Float64()-0.5)*0.1
		email := uniqueEmail(r, first, last, used)

		out = append(out, profile.Profile{
			Name:          first + " " + last,
			PhotographURL: "https://i.pravatar.cc/300?u=" + url.QueryEscape(email),
			Description:   sampleAbout(r, c.name),
			Longitude:     fmt.Sprintf("%.4f", lon),
			Latitude:      fmt.Sprintf("%.4f", lat),
			ContactInfo:   email,
			Interest:      interests[r.Intn(len(interests))],
		})
	}
	return out
}

func displayName(r *rand.Rand) (string, string) {
	first := []string{"Alex", "Sam", "Mia", "Lauri", "Noah", "Olivia", "Leo", "Emil", "Sara", "Luca", "Milla", "Mikko", "Eeva", "Niklas", "Sofia"}[r.Intn(15)]
	last := []string{"Korhonen", "Virtanen", "Nieminen", "Laine", "Heikkinen", "Koski", "Mäki", "Aho", "Salmi", "Rantanen"}[r.Intn(10)]
	return first, last
}

func uniqueEmail(r *rand.Rand, first, last string, used map[string]struct{}) string {
	slug := strings.ToLower(first + "." + strings.ReplaceAll(last, "ä", "a"))
	for {
		domain := []string{"example.com", "mail.test", "dev.local"}[r.Intn(3)]
		email := fmt.Sprintf("%s+%d@%s", slug, r.Intn(1000000), domain)
		if _, ok := used[email]; !ok {
			used[email] = struct{}{}
			return email
		}
	}
}

func sampleAbout(r *rand.Rand, cityName string) string {
	roles := []string{"Backend engineer", "Product designer", "Data analyst", "Support lead", "QA engineer", "Engineering manager"}
	tails := []string{
		"Happy to pair on anything tricky.",
		"Ask me about the deployment pipeline.",
		"Usually around for a coffee chat.",
		"Keeps the team wiki tidy.",
	}
	return fmt.Sprintf("%s based in %s. %s", roles[r.Intn(len(roles))], cityName, tails[r.Intn(len(tails))])
}
