package commands

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"webharvest/lib/scrapers/products"
	"webharvest/lib/serviceutil"
	"webharvest/services/harvest/db"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var scrapeCsv *string
var scrapeDb *string

func init() {
	scrapeCsv = scrapeCmd.Flags().String("csv", "products.csv", "The CSV file to append scrape results to.")
	scrapeDb = scrapeCmd.Flags().String("db", "", "An optional sqlite database to write scrape results to.")
	rootCmd.AddCommand(scrapeCmd)
}

type storeSink struct {
	store    db.Store
	scrapeId int64
}

func (s storeSink) WritePage(ctx context.Context, page int, items []products.Product) error {
	rows := make([]db.Product, len(items))
	for i, product := range items {
		rows[i] = db.Product{
			Page:   int64(product.Page),
			Fields: product.Fields,
		}
	}
	return s.store.InsertProducts(ctx, s.scrapeId, rows)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--csv <out.csv>] [--db <out.db>]",
	Short: "Scrapes the configured product listing pages and writes the results out.",
	Run: func(cmd *cobra.Command, args []string) {
		config := readConfig()
		client := createClient(cmd.Context(), config)

		scraper, err := products.NewScraper(client, config.Products)
		if err != nil {
			serviceutil.Fatal("failed to initialize scraper", err)
		}

		sinks := []products.Sink{
			products.NewCSVSink(*scrapeCsv, scraper.FieldNames()),
		}

		if *scrapeDb != "" {
			database, err := sql.Open("sqlite", *scrapeDb)
			if err != nil {
				serviceutil.Fatal("failed to open db", err)
			}
			defer database.Close()
			_, err = database.Exec(db.Schema)
			if err != nil {
				serviceutil.Fatal("failed to apply db schema", err)
			}

			store := db.NewStore(database)
			scrapeId, err := store.CreateScrape(cmd.Context(), config.BaseUrl, time.Now())
			if err != nil {
				serviceutil.Fatal("failed to create scrape record", err)
			}
			sinks = append(sinks, storeSink{store: store, scrapeId: scrapeId})
		}

		slog.Info("scraping listing pages",
			"base_url", config.BaseUrl,
			"pages", config.Products.TotalPages,
		)

		t1 := time.Now()
		err = scraper.Scrape(cmd.Context(), sinks...)
		t2 := time.Now()

		if err != nil {
			slog.Error("some pages failed to scrape", "err", err)
		}
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds())
	},
}
