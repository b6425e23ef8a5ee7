// Package event ingests behavioral events asynchronously so the hot search
// path never waits on log writes.
package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/domain/intent"
	"github.com/shopsense/searchcore/internal/metrics"
)

const processTimeout = 5 * time.Second

// Service buffers events in a bounded queue drained by a single worker.
// A full queue drops the event rather than blocking the caller.
type Service struct {
	queue    chan domain.Event
	writer   LogWriter
	products ProductReader
	log      *zap.Logger

	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates the ingestion service and starts its worker.
func New(writer LogWriter, products ProductReader, queueSize int, log *zap.Logger) *Service {
	s := &Service{
		queue:    make(chan domain.Event, queueSize),
		writer:   writer,
		products: products,
		log:      log,
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Submit validates and enqueues an event. It never blocks: when the queue is
// full the event is dropped and domain.ErrEventDropped returned.
func (s *Service) Submit(_ context.Context, ev *domain.Event) error {
	if err := validate(ev); err != nil {
		return err
	}
	if s.closed.Load() {
		return fmt.Errorf("%w: ingestion stopped", domain.ErrEventDropped)
	}
	e := *ev
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	select {
	case s.queue <- e:
		return nil
	default:
		metrics.ObserveEventDropped()
		return fmt.Errorf("%w: ingestion queue full", domain.ErrEventDropped)
	}
}

// Close stops accepting events and drains the queue.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.queue)
	})
	s.wg.Wait()
}

func validate(ev *domain.Event) error {
	if !ev.Type.IsValid() {
		return fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidRequest, ev.Type)
	}
	if strings.TrimSpace(ev.Query) == "" {
		return fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if ev.Type != domain.EventSearch && ev.ProductID == "" {
		return fmt.Errorf("%w: product_id is required for %s events", domain.ErrInvalidRequest, ev.Type)
	}
	return nil
}

func (s *Service) run() {
	defer s.wg.Done()
	for ev := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		if err := s.process(ctx, &ev); err != nil {
			s.log.Warn("event processing failed",
				zap.String("event_id", ev.ID),
				zap.String("type", string(ev.Type)),
				zap.Error(err))
		} else {
			metrics.ObserveEventIngested(string(ev.Type))
		}
		cancel()
	}
}

func (s *Service) process(ctx context.Context, ev *domain.Event) error {
	if ev.Type == domain.EventSearch {
		// The query itself may imply a category, which feeds the cold-start
		// denominator.
		category := intent.Extract(ev.Query).Constraints.Category
		return s.writer.RecordSearch(ctx, ev, category)
	}

	category := s.lookupCategory(ctx, ev.ProductID)
	return s.writer.RecordInteraction(ctx, ev, category)
}

// lookupCategory is best effort: an interaction on an unknown product is
// still logged, it just skips the category aggregate.
func (s *Service) lookupCategory(ctx context.Context, productID string) string {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			s.log.Warn("category lookup failed", zap.String("product_id", productID), zap.Error(err))
		}
		return ""
	}
	return p.Category
}
