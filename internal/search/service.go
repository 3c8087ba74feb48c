package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmrivera/cardhaven-backend/pkg/justtcg"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
)

const (
	defaultDebounce = 300 * time.Millisecond
	minQueryLength  = 2
)

// ErrSuperseded reports that a newer query from the same session replaced this
// one before it completed. Callers drop the result without surfacing an error.
var ErrSuperseded = errors.New("query superseded by a newer one")

// Suggester is the autocomplete slice of the card API client.
type Suggester interface {
	Autocomplete(ctx context.Context, query string) ([]justtcg.Suggestion, error)
}

// ServiceParams configure the search service.
type ServiceParams struct {
	Client    Suggester
	Logger    *logger.Logger
	Debounce  time.Duration
	CountsTTL time.Duration
}

// Service proxies autocomplete queries to the card API. Queries are debounced
// per session: a new query cancels any in-flight one for the same session, so
// only the latest keystroke burst reaches the upstream.
type Service struct {
	client   Suggester
	logg     *logger.Logger
	debounce time.Duration
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]*inflightQuery

	counts *countsCache
}

type inflightQuery struct {
	cancel context.CancelFunc
}

// NewService builds a search service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("card api client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	debounce := params.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Service{
		client:   params.Client,
		logg:     params.Logger,
		debounce: debounce,
		now:      time.Now,
		inflight: make(map[string]*inflightQuery),
		counts:   newCountsCache(params.CountsTTL),
	}, nil
}

// Autocomplete waits out the debounce window and then queries the upstream.
// If the same session issues another query meanwhile, this one is canceled and
// returns ErrSuperseded. Queries shorter than the minimum return no results
// without touching the upstream.
func (s *Service) Autocomplete(ctx context.Context, sessionID, query string) ([]justtcg.Suggestion, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return nil, nil
	}

	qctx, cancel := context.WithCancel(ctx)
	entry := &inflightQuery{cancel: cancel}
	s.mu.Lock()
	if prior, ok := s.inflight[sessionID]; ok {
		prior.cancel()
	}
	s.inflight[sessionID] = entry
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		// Only clear the slot if a newer query has not replaced it.
		if current, ok := s.inflight[sessionID]; ok && current == entry {
			delete(s.inflight, sessionID)
		}
		s.mu.Unlock()
	}()

	timer := time.NewTimer(s.debounce)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-qctx.Done():
		return nil, dropReason(ctx)
	}

	suggestions, err := s.client.Autocomplete(qctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, dropReason(ctx)
		}
		return nil, err
	}
	return suggestions, nil
}

// dropReason distinguishes a superseding query from the caller going away.
func dropReason(parent context.Context) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	return ErrSuperseded
}

// FilterCounts returns suggestion counts grouped by set for the given query,
// served from a short-lived cache keyed on the normalized query.
func (s *Service) FilterCounts(ctx context.Context, query string) (map[string]int, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if len(query) < minQueryLength {
		return map[string]int{}, nil
	}

	now := s.now().UTC()
	if counts, ok := s.counts.get(query, now); ok {
		return counts, nil
	}

	suggestions, err := s.client.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, suggestion := range suggestions {
		set := suggestion.SetName
		if set == "" {
			set = "unknown"
		}
		counts[set]++
	}
	s.counts.put(query, counts, now)
	return counts, nil
}
