package products

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"webharvest/lib/connector"
	"webharvest/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func listingServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /catalog", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `<html><body><div id="js-product-list">
				<div class="item">
					<h2 class="product-title"><a href="/widget-1">Widget One</a></h2>
					<span class="price">9.99</span>
					<img class="image-cover" src="/img/w1.jpg"/>
				</div>
				<div class="item">
					<h2 class="product-title"><a href="/widget-2">Widget
						Two</a></h2>
					<span class="price">19.99</span>
				</div>
			</div></body></html>`)
		case "2":
			fmt.Fprint(w, `<html><body><div id="js-product-list">
				<div class="item">
					<h2 class="product-title"><a href="/widget-3">Widget Three</a></h2>
					<span class="price">29.99</span>
				</div>
			</div></body></html>`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newScraper(t *testing.T, baseUrl string, totalPages int) Scraper {
	cleanup := telemetry.SetupForTesting(t, "scrapers/products")
	t.Cleanup(cleanup)

	client, err := connector.NewClient(context.Background(), connector.ClientOptions{
		BaseUrl: baseUrl,
	})
	require.NoError(t, err)

	scraper, err := NewScraper(client, ScraperOptions{
		PageUrl:         "/catalog?page={page}",
		TotalPages:      totalPages,
		ProductSelector: "#js-product-list div.item",
		Fields: []Field{
			{Name: "name", Selector: "h2.product-title a"},
			{Name: "price", Selector: "span.price"},
			{Name: "image_url", Selector: "img.image-cover", Attr: "src"},
			{Name: "url", Selector: "h2.product-title a", Attr: "href"},
		},
	})
	require.NoError(t, err)
	return scraper
}

func TestScrapePage(t *testing.T) {
	server := listingServer(t)
	scraper := newScraper(t, server.URL, 2)

	items, err := scraper.ScrapePage(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, map[string]string{
		"name":      "Widget One",
		"price":     "9.99",
		"image_url": "/img/w1.jpg",
		"url":       "/widget-1",
	}, items[0].Fields)

	// inner whitespace collapses, missing attributes come back empty
	require.Equal(t, "Widget Two", items[1].Fields["name"])
	require.Equal(t, "", items[1].Fields["image_url"])
	require.Equal(t, "/widget-2", items[1].Fields["url"])
}

type memorySink struct {
	pages map[int][]Product
}

func (s *memorySink) WritePage(ctx context.Context, page int, items []Product) error {
	s.pages[page] = items
	return nil
}

func TestScrapeAllPages(t *testing.T) {
	server := listingServer(t)
	scraper := newScraper(t, server.URL, 2)

	sink := &memorySink{pages: map[int][]Product{}}
	err := scraper.Scrape(context.Background(), sink)
	require.NoError(t, err)

	require.Len(t, sink.pages[1], 2)
	require.Len(t, sink.pages[2], 1)
	require.Equal(t, "Widget Three", sink.pages[2][0].Fields["name"])
}

func TestScrapeSkipsFailedPages(t *testing.T) {
	server := listingServer(t)
	// page 3 does not exist, its error should not lose pages 1 and 2
	scraper := newScraper(t, server.URL, 3)

	sink := &memorySink{pages: map[int][]Product{}}
	err := scraper.Scrape(context.Background(), sink)
	require.Error(t, err)

	require.Len(t, sink.pages[1], 2)
	require.Len(t, sink.pages[2], 1)
	require.NotContains(t, sink.pages, 3)
}

func TestCSVSink(t *testing.T) {
	server := listingServer(t)
	scraper := newScraper(t, server.URL, 2)

	path := filepath.Join(t.TempDir(), "products.csv")
	sink := NewCSVSink(path, scraper.FieldNames())

	err := scraper.Scrape(context.Background(), sink)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"name,price,image_url,url\n"+
			"Widget One,9.99,/img/w1.jpg,/widget-1\n"+
			"Widget Two,19.99,,/widget-2\n"+
			"Widget Three,29.99,,/widget-3\n",
		string(contents))
}

func TestNewScraperValidation(t *testing.T) {
	client, err := connector.NewClient(context.Background(), connector.ClientOptions{
		BaseUrl: "https://shop.example.com",
	})
	require.NoError(t, err)

	_, err = NewScraper(client, ScraperOptions{
		PageUrl:         "/catalog?page=1",
		TotalPages:      1,
		ProductSelector: "div.item",
		Fields:          []Field{{Name: "name", Selector: "a"}},
	})
	require.ErrorContains(t, err, "{page}")

	_, err = NewScraper(client, ScraperOptions{
		PageUrl:         "/catalog?page={page}",
		TotalPages:      0,
		ProductSelector: "div.item",
		Fields:          []Field{{Name: "name", Selector: "a"}},
	})
	require.ErrorContains(t, err, "total pages")
}
