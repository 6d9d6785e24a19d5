package db

import (
	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Product struct {
	Page   int64
	Fields map[string]string
}
