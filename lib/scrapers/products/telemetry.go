package products

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("scrapers/products")
