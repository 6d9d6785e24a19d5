package db

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/harvest/db")

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

func (s Store) CreateScrape(ctx context.Context, baseUrl string, startedAt time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "CreateScrape")
	defer span.End()

	span.SetAttributes(attribute.String("base_url", baseUrl))

	result, err := s.db.ExecContext(
		ctx,
		`INSERT INTO scrapes (base_url, started_at) VALUES (?, ?)`,
		baseUrl, startedAt.Unix(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return result.LastInsertId()
}

func (s Store) InsertProducts(ctx context.Context, scrapeId int64, products []Product) error {
	ctx, span := tracer.Start(ctx, "InsertProducts")
	defer span.End()

	span.SetAttributes(attribute.Int("count", len(products)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()

	for _, product := range products {
		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO products (scrape_id, page) VALUES (?, ?)`,
			scrapeId, product.Page,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		productId, err := result.LastInsertId()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		for name, value := range product.Fields {
			_, err = tx.ExecContext(
				ctx,
				`INSERT INTO product_fields (product_id, name, value) VALUES (?, ?, ?)`,
				productId, name, value,
			)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Store) ProductsByScrape(ctx context.Context, scrapeId int64) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "ProductsByScrape")
	defer span.End()

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT p.id, p.page, f.name, f.value
		FROM products p
		JOIN product_fields f ON f.product_id = p.id
		WHERE p.scrape_id = ?
		ORDER BY p.id`,
		scrapeId,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var products []Product
	lastId := int64(-1)

	for rows.Next() {
		var id, page int64
		var name, value string
		err = rows.Scan(&id, &page, &name, &value)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if id != lastId {
			products = append(products, Product{
				Page:   page,
				Fields: map[string]string{},
			})
			lastId = id
		}
		products[len(products)-1].Fields[name] = value
	}

	return products, rows.Err()
}
