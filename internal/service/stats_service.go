// Package service contains application services.
package service

import (
	"sync"
	"sync/atomic"

	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// StatsService tracks invocation outcomes using lock-free atomic counters.
// All counter operations are safe for concurrent access from multiple goroutines.
type StatsService struct {
	succeeded        atomic.Int64
	validationErrors atomic.Int64
	apiErrors        atomic.Int64
	transportErrors  atomic.Int64

	// Per-operation counters (mutex-protected map).
	mu              sync.Mutex
	operationCounts map[string]int64
}

// NewStatsService creates a new StatsService with all counters initialized to zero.
func NewStatsService() *StatsService {
	return &StatsService{
		operationCounts: make(map[string]int64),
	}
}

// Record counts one processed entry for operation with the given failure
// kind (paapi.KindNone for success).
func (s *StatsService) Record(operation string, kind paapi.ErrorKind) {
	switch kind {
	case paapi.KindNone:
		s.succeeded.Add(1)
	case paapi.KindValidation:
		s.validationErrors.Add(1)
	case paapi.KindAPI:
		s.apiErrors.Add(1)
	default:
		s.transportErrors.Add(1)
	}

	if operation == "" {
		return
	}
	s.mu.Lock()
	s.operationCounts[operation]++
	s.mu.Unlock()
}

// Stats holds a snapshot of all counters at a point in time.
type Stats struct {
	Succeeded        int64            `json:"succeeded"`
	ValidationErrors int64            `json:"validation_errors"`
	APIErrors        int64            `json:"api_errors"`
	TransportErrors  int64            `json:"transport_errors"`
	OperationCounts  map[string]int64 `json:"operation_counts"`
}

// Total returns the number of entries processed.
func (s Stats) Total() int64 {
	return s.Succeeded + s.ValidationErrors + s.APIErrors + s.TransportErrors
}

// GetStats returns a snapshot of all counters.
// The snapshot is consistent per-counter but not atomically across all counters.
func (s *StatsService) GetStats() Stats {
	s.mu.Lock()
	oc := make(map[string]int64, len(s.operationCounts))
	for k, v := range s.operationCounts {
		oc[k] = v
	}
	s.mu.Unlock()

	return Stats{
		Succeeded:        s.succeeded.Load(),
		ValidationErrors: s.validationErrors.Load(),
		APIErrors:        s.apiErrors.Load(),
		TransportErrors:  s.transportErrors.Load(),
		OperationCounts:  oc,
	}
}

// Reset sets all counters to zero.
func (s *StatsService) Reset() {
	s.succeeded.Store(0)
	s.validationErrors.Store(0)
	s.apiErrors.Store(0)
	s.transportErrors.Store(0)

	s.mu.Lock()
	s.operationCounts = make(map[string]int64)
	s.mu.Unlock()
}
