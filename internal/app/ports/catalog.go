package ports

import (
	"context"

	"metroterminal/internal/domain/metro"
)

type CatalogProvider interface {
	Codes(ctx context.Context) (map[string]int, error)
	RadioMessages(ctx context.Context) ([]metro.RadioMessage, error)
}
