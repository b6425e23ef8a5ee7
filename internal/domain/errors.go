package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a malformed search or ingestion request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrProductNotFound signals a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrRetrievalUnavailable signals that the vector index is unreachable or timed out.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrMetadataLookup signals a per-candidate metadata lookup failure.
	ErrMetadataLookup = errors.New("metadata lookup failed")
	// ErrEventDropped signals that the ingestion queue was full and an event was discarded.
	ErrEventDropped = errors.New("event queue full, event dropped")
)

// MetadataLookupError wraps ErrMetadataLookup with the candidate it concerns.
type MetadataLookupError struct {
	ProductID string
	Err       error
}

func (e *MetadataLookupError) Error() string {
	return fmt.Sprintf("%s: product %s: %v", ErrMetadataLookup.Error(), e.ProductID, e.Err)
}

func (e *MetadataLookupError) Unwrap() error { return ErrMetadataLookup }

// NewMetadataLookup creates a metadata lookup error for a candidate.
func NewMetadataLookup(productID string, err error) error {
	return &MetadataLookupError{ProductID: productID, Err: err}
}
