package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopsense/searchcore/internal/db"
	"github.com/shopsense/searchcore/internal/domain"
)

type fakeKV struct {
	values map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) SetWithTTL(_ context.Context, key, value string, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.values[key] = value
	return nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector, TotalTokens: 7}, nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	inner := &fakeEmbedder{vector: []float32{0.5, -1.5}}
	cache := New(inner, kv, "t:", "test-model", time.Hour)

	first, err := cache.Embed(ctx, "running shoes")
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if inner.calls != 1 || kv.sets != 1 {
		t.Fatalf("miss path: calls=%d sets=%d", inner.calls, kv.sets)
	}

	second, err := cache.Embed(ctx, "running shoes")
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("hit went to provider: calls=%d", inner.calls)
	}
	if len(second.Embedding) != len(first.Embedding) || second.Embedding[0] != first.Embedding[0] {
		t.Errorf("cached vector mismatch: %v vs %v", second.Embedding, first.Embedding)
	}
	// Cache hits report no token usage.
	if second.TotalTokens != 0 {
		t.Errorf("cached result carries usage: %d", second.TotalTokens)
	}
}

func TestEmbed_DifferentTextsDifferentKeys(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	inner := &fakeEmbedder{vector: []float32{1}}
	cache := New(inner, kv, "t:", "test-model", time.Hour)

	if _, err := cache.Embed(ctx, "shoes"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Embed(ctx, "laptops"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("distinct texts should both miss: calls=%d", inner.calls)
	}
}

func TestEmbed_CacheFailuresDegradeToProvider(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.getErr = errors.New("read timeout")
	kv.setErr = errors.New("write timeout")
	inner := &fakeEmbedder{vector: []float32{1}}
	cache := New(inner, kv, "t:", "test-model", time.Hour)

	res, err := cache.Embed(ctx, "shoes")
	if err != nil {
		t.Fatalf("cache failure should not fail the embed: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("vector: %v", res.Embedding)
	}
}

func TestEmbed_CorruptEntryFallsThrough(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	inner := &fakeEmbedder{vector: []float32{1, 2}}
	cache := New(inner, kv, "t:", "test-model", time.Hour)

	kv.values[cache.key("shoes")] = "not a vector blob"

	res, err := cache.Embed(ctx, "shoes")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry should miss: calls=%d", inner.calls)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("vector: %v", res.Embedding)
	}
}

func TestEmbed_ProviderErrorPropagates(t *testing.T) {
	inner := &fakeEmbedder{err: domain.ErrEmbeddingProviderError}
	cache := New(inner, newFakeKV(), "t:", "test-model", time.Hour)

	if _, err := cache.Embed(context.Background(), "shoes"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("got %v, want provider error", err)
	}
}
