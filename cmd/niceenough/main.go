package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/niceenough/internal/api"
	"github.com/lox/niceenough/internal/ingest"
	"github.com/lox/niceenough/internal/store"
)

var cli struct {
	DB          string        `help:"Path to SQLite database." default:"data/niceenough.db"`
	Port        string        `help:"HTTP server port." default:"8080"`
	RadarAPIKey string        `help:"Radar API key for location search." env:"RADAR_API_KEY" required:""`
	SearchLimit int           `help:"Location searches allowed per day." default:"100"`
	CacheTTL    time.Duration `help:"How long fetched weather history is reused." default:"1h"`
	Timezone    string        `help:"Timezone the date window rolls over in." default:"America/Chicago"`
	Resolve     string        `help:"Resolve a location query, print the result, and exit." optional:""`
}

func main() {
	kong.Parse(&cli,
		kong.Name("niceenough"),
		kong.Description("Rates historical daily weather for time spent outside."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	// Load timezone once at startup
	loc, err := time.LoadLocation(cli.Timezone)
	if err != nil {
		log.Printf("Warning: could not load %s timezone, using UTC: %v", cli.Timezone, err)
		loc = time.UTC
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	geocoder := ingest.NewGeocodeClient(cli.RadarAPIKey)

	if cli.Resolve != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		match, err := geocoder.Resolve(ctx, cli.Resolve)
		if err != nil {
			log.Fatalf("resolve: %v", err)
		}
		if match == nil {
			log.Fatalf("no match for %q", cli.Resolve)
		}
		log.Printf("%s (%.4f, %.4f)", match.FormattedAddress, match.Latitude, match.Longitude)
		return
	}

	archive := ingest.NewArchiveClient()
	server := api.NewServer(st, archive, geocoder, cli.Port, loc, cli.SearchLimit, cli.CacheTTL)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
