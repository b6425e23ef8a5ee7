package event

import (
	"context"

	"github.com/shopsense/searchcore/internal/domain"
)

// LogWriter appends behavioral events to the engagement log.
type LogWriter interface {
	RecordSearch(ctx context.Context, ev *domain.Event, category string) error
	RecordInteraction(ctx context.Context, ev *domain.Event, category string) error
}

// ProductReader resolves a product's category for the aggregate mirror.
type ProductReader interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}
