package db

// Index field types supported by the catalog index.
type IndexFieldType string

// Field type constants map to FT.CREATE schema keywords.
const (
	IndexFieldNumeric IndexFieldType = "NUMERIC"
	IndexFieldTag     IndexFieldType = "TAG"
	IndexFieldText    IndexFieldType = "TEXT"
	IndexFieldVector  IndexFieldType = "VECTOR"
)

// IndexField describes one schema field of an FT index.
type IndexField struct {
	Name         string
	Type         IndexFieldType
	TagSeparator string
	// Vector parameters, used when Type is IndexFieldVector.
	VectorDim int
}

// IndexDefinition describes an FT index over HASH documents.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// KNNQuery is the input for vector similarity search. The retriever is a thin
// adapter: constraints are applied in-core after retrieval, so no pre-filter
// travels here.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
