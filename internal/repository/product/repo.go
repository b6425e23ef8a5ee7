// Package product persists the product catalog as Redis hashes alongside
// their embedding vectors.
package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopsense/searchcore/internal/db"
	"github.com/shopsense/searchcore/internal/domain"
)

// Field names inside a product hash. The vector field is indexed; the rest
// are payload read back at ranking time.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldRating      = "rating"
	fieldCategory    = "category"
	fieldBrand       = "brand"
	fieldAttributes  = "attributes"
	fieldVector      = "vector"
)

const attributeSeparator = ","

// store is the hash and list-search surface this repository needs.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
}

// Repository reads and writes catalog entries.
type Repository struct {
	store     store
	keyPrefix string
	indexName string
}

// New creates a product repository. keyPrefix is the hash namespace shared
// with the vector index, e.g. "searchcore:product:".
func New(s store, keyPrefix, indexName string) *Repository {
	return &Repository{store: s, keyPrefix: keyPrefix, indexName: indexName}
}

func (r *Repository) key(id string) string {
	return r.keyPrefix + id
}

// Upsert writes a product and its embedding in a single hash.
func (r *Repository) Upsert(ctx context.Context, p *domain.Product, vector []float32) error {
	fields := map[string]string{
		fieldTitle:       p.Title,
		fieldDescription: p.Description,
		fieldPrice:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		fieldRating:      strconv.FormatFloat(p.Rating, 'f', -1, 64),
		fieldCategory:    p.Category,
		fieldBrand:       p.Brand,
		fieldAttributes:  strings.Join(p.Attributes, attributeSeparator),
		fieldVector:      db.EncodeVector(vector),
	}
	if err := r.store.HSet(ctx, r.key(p.ID), fields); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// Get loads a single product. Returns domain.ErrProductNotFound for unknown IDs.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Product, error) {
	fields, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrProductNotFound)
	}
	return fromFields(id, fields), nil
}

// GetMulti loads several products in one round trip. Missing IDs come back as
// nil entries; callers decide whether a hole is an error.
func (r *Repository) GetMulti(ctx context.Context, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	products := make([]*domain.Product, len(ids))
	for i, fields := range maps {
		if len(fields) == 0 {
			continue
		}
		products[i] = fromFields(ids[i], fields)
	}
	return products, nil
}

// Exists reports whether a product hash is present.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.key(id))
	if err != nil {
		return false, fmt.Errorf("check product %s: %w", id, err)
	}
	return ok, nil
}

// scanFields are the payload attributes loaded during a catalog scan; the
// vector blob is deliberately excluded.
var scanFields = []string{
	fieldTitle, fieldDescription, fieldPrice, fieldRating,
	fieldCategory, fieldBrand, fieldAttributes,
}

// Scan enumerates up to max catalog entries. It backs the non-semantic
// fallback path, so max should stay modest.
func (r *Repository) Scan(ctx context.Context, max int) ([]*domain.Product, error) {
	res, err := r.store.SearchList(ctx, r.indexName, "*", 0, max, scanFields)
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	products := make([]*domain.Product, 0, len(res.Entries))
	for _, e := range res.Entries {
		id := strings.TrimPrefix(e.Key, r.keyPrefix)
		products = append(products, fromFields(id, e.Fields))
	}
	return products, nil
}

func fromFields(id string, fields map[string]string) *domain.Product {
	p := &domain.Product{
		ID:          id,
		Title:       fields[fieldTitle],
		Description: fields[fieldDescription],
		Category:    fields[fieldCategory],
		Brand:       fields[fieldBrand],
	}
	if v, err := strconv.ParseFloat(fields[fieldPrice], 64); err == nil {
		p.Price = v
	}
	if v, err := strconv.ParseFloat(fields[fieldRating], 64); err == nil {
		p.Rating = v
	}
	if raw := fields[fieldAttributes]; raw != "" {
		p.Attributes = strings.Split(raw, attributeSeparator)
	}
	return p
}
