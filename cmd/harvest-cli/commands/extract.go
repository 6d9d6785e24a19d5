package commands

import (
	"log/slog"
	"time"

	"webharvest/lib/csvutil"
	"webharvest/lib/scrapers/articles"
	"webharvest/lib/serviceutil"

	"github.com/spf13/cobra"
)

var extractCodes *string
var extractColumn *string
var extractCsv *string

func init() {
	extractCodes = extractCmd.Flags().String("codes", "codes.csv", "A CSV file holding the article codes to process.")
	extractColumn = extractCmd.Flags().String("column", "code", "The column of the codes file holding article codes.")
	extractCsv = extractCmd.Flags().String("csv", "articles.csv", "The CSV file to append extraction results to.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract [--codes <codes.csv>] [--column <name>] [--csv <out.csv>]",
	Short: "Fetches the JSON article for every code and extracts the configured paths.",
	Run: func(cmd *cobra.Command, args []string) {
		config := readConfig()
		client := createClient(cmd.Context(), config)

		extractor, err := articles.NewExtractor(client, config.Articles)
		if err != nil {
			serviceutil.Fatal("failed to initialize extractor", err)
		}

		codes, err := csvutil.ReadColumn(*extractCodes, *extractColumn)
		if err != nil {
			serviceutil.Fatal("failed to read article codes", err)
		}

		slog.Info("processing articles", "count", len(codes))

		sink := articles.NewCSVSink(*extractCsv, extractor.FieldNames())

		t1 := time.Now()
		err = extractor.ProcessAll(cmd.Context(), codes, sink)
		t2 := time.Now()

		if err != nil {
			slog.Error("some articles failed to process", "err", err)
		}
		slog.Info("extraction time", "seconds", t2.Sub(t1).Seconds())
	},
}
