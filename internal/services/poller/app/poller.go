package app

import (
	"context"
	"fmt"

	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
	"github.com/louisbranch/dbpoll/internal/services/poller/storage"
)

// Poller reads the current batch of unprocessed customers.
type Poller struct {
	reader storage.CustomerReader
	limit  int
}

// NewPoller creates a poller over reader. A limit of zero or less polls every
// unprocessed customer.
func NewPoller(reader storage.CustomerReader, limit int) *Poller {
	if limit < 0 {
		limit = 0
	}
	return &Poller{reader: reader, limit: limit}
}

// Poll returns the unprocessed customers. An empty batch is not an error.
// Store failures are returned as KindPoll errors.
func (p *Poller) Poll(ctx context.Context) (domain.Batch, error) {
	if p == nil || p.reader == nil {
		return nil, domain.Wrap(domain.KindPoll, "poll", fmt.Errorf("customer reader is not configured"))
	}
	customers, err := p.reader.ListUnprocessed(ctx, p.limit)
	if err != nil {
		return nil, domain.Wrap(domain.KindPoll, "list unprocessed customers", err)
	}
	return domain.Batch(customers), nil
}
