// Package articles pulls structured fields out of JSON article
// documents served per product code, using dot-separated key paths.
package articles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"webharvest/lib/connector"
	"webharvest/lib/extract"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/articles")

const codeToken = "{code}"

type ExtractorOptions struct {
	// article endpoint containing a {code} placeholder,
	// e.g. "/es/es/json/article/{code}/"
	ArticleUrl string `json:"article_url"`
	// output column name -> dot-separated key path
	Paths map[string]string `json:"paths"`
}

type Extractor struct {
	client *connector.Client
	opts   ExtractorOptions
	fields []string
}

func NewExtractor(client *connector.Client, opts ExtractorOptions) (Extractor, error) {
	if !strings.Contains(opts.ArticleUrl, codeToken) {
		return Extractor{}, fmt.Errorf("article url %q is missing a %s placeholder", opts.ArticleUrl, codeToken)
	}
	if len(opts.Paths) == 0 {
		return Extractor{}, errors.New("at least one path must be configured")
	}

	fields := make([]string, 0, len(opts.Paths))
	for name := range opts.Paths {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	return Extractor{client: client, opts: opts, fields: fields}, nil
}

// FieldNames returns the configured output columns in a stable order.
func (e Extractor) FieldNames() []string {
	return e.fields
}

func (e Extractor) Fetch(ctx context.Context, code string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	endpoint := strings.ReplaceAll(e.opts.ArticleUrl, codeToken, code)
	span.SetAttributes(
		attribute.String("code", code),
		attribute.String("url", endpoint),
	)

	res, err := e.client.Do(ctx, http.MethodGet, endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		err = fmt.Errorf("fetching article %s: status %d", code, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}
	return res.Body(), nil
}

func (e Extractor) Extract(data []byte) (map[string]string, error) {
	results := make(map[string]string, len(e.opts.Paths))
	for name, path := range e.opts.Paths {
		value, err := extract.JSONValue(data, path)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", name, err)
		}
		results[name] = value
	}
	return results, nil
}

func (e Extractor) Process(ctx context.Context, code string) (map[string]string, error) {
	data, err := e.Fetch(ctx, code)
	if err != nil {
		return nil, err
	}
	return e.Extract(data)
}

// Sink receives the extracted fields of each article.
type Sink interface {
	WriteArticle(ctx context.Context, code string, fields map[string]string) error
}

// ProcessAll runs every code through Process, flushing results to the
// sinks. Codes that fail are skipped and their errors joined into the
// return value once the walk completes.
func (e Extractor) ProcessAll(ctx context.Context, articleCodes []string, sinks ...Sink) error {
	ctx, span := tracer.Start(ctx, "ProcessAll")
	defer span.End()

	span.SetAttributes(attribute.Int("codes", len(articleCodes)))

	var errList []error
	for _, code := range articleCodes {
		fields, err := e.Process(ctx, code)
		if err != nil {
			slog.ErrorContext(ctx, "failed to process article", "code", code, "err", err)
			errList = append(errList, err)
			continue
		}

		for _, sink := range sinks {
			err = sink.WriteArticle(ctx, code, fields)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "sink write failed")
				return err
			}
		}

		slog.InfoContext(ctx, "article processed", "code", code)
	}

	return errors.Join(errList...)
}
