// Package products scrapes paginated product listings: each page is
// fetched through a session client, product containers are located with
// a CSS selector and the configured fields are pulled out of each one.
package products

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"webharvest/lib/connector"
	"webharvest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const pageToken = "{page}"

type Field struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
	// attribute to read off the matched element; empty means its text
	Attr string `json:"attr"`
}

type ScraperOptions struct {
	// listing URL containing a {page} placeholder,
	// e.g. "/catalog?resultsPerPage=200&page={page}"
	PageUrl    string `json:"page_url"`
	TotalPages int    `json:"total_pages"`
	// locates one container element per product
	ProductSelector string  `json:"product_selector"`
	Fields          []Field `json:"fields"`
}

type Scraper struct {
	client *connector.Client
	opts   ScraperOptions
}

func NewScraper(client *connector.Client, opts ScraperOptions) (Scraper, error) {
	if !strings.Contains(opts.PageUrl, pageToken) {
		return Scraper{}, fmt.Errorf("page url %q is missing a %s placeholder", opts.PageUrl, pageToken)
	}
	if opts.TotalPages < 1 {
		return Scraper{}, fmt.Errorf("total pages must be at least 1, got %d", opts.TotalPages)
	}
	if opts.ProductSelector == "" {
		return Scraper{}, errors.New("product selector must not be empty")
	}
	if len(opts.Fields) == 0 {
		return Scraper{}, errors.New("at least one field must be configured")
	}
	return Scraper{client: client, opts: opts}, nil
}

func (s Scraper) FieldNames() []string {
	names := make([]string, len(s.opts.Fields))
	for i, f := range s.opts.Fields {
		names[i] = f.Name
	}
	return names
}

type Product struct {
	Page   int
	Fields map[string]string
}

func (s Scraper) pageUrl(page int) string {
	return strings.ReplaceAll(s.opts.PageUrl, pageToken, strconv.Itoa(page))
}

func (s Scraper) ScrapePage(ctx context.Context, page int) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "ScrapePage")
	defer span.End()

	endpoint := s.pageUrl(page)
	span.SetAttributes(
		attribute.Int("page", page),
		attribute.String("url", endpoint),
	)

	res, err := s.client.Do(ctx, http.MethodGet, endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		err = fmt.Errorf("fetching %s: status %d", endpoint, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	var products []Product
	doc.Find(s.opts.ProductSelector).Each(func(_ int, node *goquery.Selection) {
		fields := make(map[string]string, len(s.opts.Fields))
		for _, f := range s.opts.Fields {
			sel := node.Find(f.Selector).First()
			switch {
			case f.Attr == "href":
				// anchor hrefs are parsed and normalized
				fields[f.Name] = ""
				if anchors := htmlutil.GetAnchors(ctx, sel); len(anchors) > 0 {
					fields[f.Name] = anchors[0].Href
				}
			case f.Attr != "":
				fields[f.Name] = sel.AttrOr(f.Attr, "")
			default:
				fields[f.Name] = htmlutil.CleanText(sel.Text())
			}
		}
		products = append(products, Product{Page: page, Fields: fields})
	})

	span.SetAttributes(attribute.Int("products", len(products)))
	return products, nil
}

// Sink receives the products of each scraped page as soon as the page
// is processed.
type Sink interface {
	WritePage(ctx context.Context, page int, products []Product) error
}

// Scrape walks every configured page in order, flushing each page's
// products to the sinks. Pages that fail to fetch are skipped; their
// errors are joined into the return value once the walk completes.
func (s Scraper) Scrape(ctx context.Context, sinks ...Sink) error {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	var errList []error
	for page := 1; page <= s.opts.TotalPages; page++ {
		products, err := s.ScrapePage(ctx, page)
		if err != nil {
			slog.ErrorContext(ctx, "failed to scrape page", "page", page, "err", err)
			errList = append(errList, err)
			continue
		}

		for _, sink := range sinks {
			err = sink.WritePage(ctx, page, products)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "sink write failed")
				return err
			}
		}

		slog.InfoContext(ctx, "page processed", "page", page, "products", len(products))
	}

	return errors.Join(errList...)
}
