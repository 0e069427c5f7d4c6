package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
)

// fakeStore is an in-memory customer table that records every call.
type fakeStore struct {
	mu          sync.Mutex
	customers   []domain.Customer
	processed   map[int64]bool
	listCalls   int
	markCalls   [][]int64
	perRowCalls [][]int64
	listErrs    []error
	markErrs    []error

	// When set, ListUnprocessed signals listEntered and blocks on release.
	listEntered chan struct{}
	release     chan struct{}
}

func newFakeStore(customers ...domain.Customer) *fakeStore {
	return &fakeStore{
		customers: customers,
		processed: make(map[int64]bool),
	}
}

func (s *fakeStore) ListUnprocessed(ctx context.Context, limit int) ([]domain.Customer, error) {
	s.mu.Lock()
	s.listCalls++
	entered, release := s.listEntered, s.release
	var err error
	if len(s.listErrs) > 0 {
		err, s.listErrs = s.listErrs[0], s.listErrs[1:]
	}
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		if s.processed[customer.ID] {
			continue
		}
		out = append(out, customer)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MarkProcessed(ctx context.Context, ids []int64) error {
	return s.mark(ctx, ids, &s.markCalls)
}

func (s *fakeStore) MarkProcessedPerRow(ctx context.Context, ids []int64) error {
	return s.mark(ctx, ids, &s.perRowCalls)
}

func (s *fakeStore) mark(_ context.Context, ids []int64, calls *[][]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*calls = append(*calls, append([]int64(nil), ids...))
	if len(s.markErrs) > 0 {
		err := s.markErrs[0]
		s.markErrs = s.markErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, id := range ids {
		s.processed[id] = true
	}
	return nil
}

func (s *fakeStore) isProcessed(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[id]
}

func (s *fakeStore) counts() (list, mark, perRow int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls, len(s.markCalls), len(s.perRowCalls)
}

// logRecorder captures log lines written through a logf function.
type logRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *logRecorder) logf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *logRecorder) count(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, line := range r.lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func (r *logRecorder) countLine(line string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.lines {
		if got == line {
			n++
		}
	}
	return n
}

func (r *logRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n")
}
