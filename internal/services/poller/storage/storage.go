package storage

import (
	"context"

	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
)

// CustomerReader reads customers that have not been processed yet.
type CustomerReader interface {
	// ListUnprocessed returns customers with processed = false ordered by id.
	// A limit of zero or less returns every unprocessed customer.
	ListUnprocessed(ctx context.Context, limit int) ([]domain.Customer, error)
}

// CustomerMarker flips the processed flag for a set of customers. Each call
// is one logical operation: either every id is marked or none is.
type CustomerMarker interface {
	// MarkProcessed updates every id with a batched statement.
	MarkProcessed(ctx context.Context, ids []int64) error
	// MarkProcessedPerRow updates the ids with one statement per id.
	MarkProcessedPerRow(ctx context.Context, ids []int64) error
}

// CustomerRecord is a stored customer including its processed flag.
type CustomerRecord struct {
	domain.Customer
	Processed bool
}

// CustomerStore adds the seeding and inspection operations used by the seed
// command and tests.
type CustomerStore interface {
	CustomerReader
	CustomerMarker
	InsertCustomer(ctx context.Context, name string) (int64, error)
	GetCustomer(ctx context.Context, id int64) (CustomerRecord, error)
	CountUnprocessed(ctx context.Context) (int, error)
}
