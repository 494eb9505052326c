package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
)

// Store keeps the latest simulation report per reservoir in a bounded LRU.
// Reports for the least recently used reservoir are evicted first.
type Store struct {
	cache *lruCache
}

// NewStore creates an in-memory store holding at most maxEntries reservoirs.
func NewStore(maxEntries int) *Store {
	return &Store{cache: newLRUCache(maxEntries)}
}

// SaveReport replaces the stored report for the report's reservoir.
func (s *Store) SaveReport(_ context.Context, report domain.SimulationReport) error {
	if report.ReservoirID == "" {
		return fmt.Errorf("save report: empty reservoir id")
	}
	s.cache.put(report.ReservoirID, report)
	return nil
}

// LatestReport returns the most recent report for a reservoir.
func (s *Store) LatestReport(_ context.Context, reservoirID string) (domain.SimulationReport, error) {
	report, ok := s.cache.get(reservoirID)
	if !ok {
		return domain.SimulationReport{}, fmt.Errorf("reservoir %q: %w", reservoirID, domain.ErrReportNotFound)
	}
	return report, nil
}

// LoadBatch saves every report in the batch. It implements pipeline.BatchLoader.
func (s *Store) LoadBatch(ctx context.Context, reports []domain.SimulationReport) error {
	for i := range reports {
		if err := s.SaveReport(ctx, reports[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

// Len reports how many reservoirs are held.
func (s *Store) Len() int {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return len(s.cache.entries)
}

// lruCache is a simple thread-safe LRU cache of reports keyed by reservoir.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.SimulationReport
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.SimulationReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.SimulationReport{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.SimulationReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
