// Package domain defines the values that flow through one poll cycle.
package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Customer is one row of the customer table as seen by a poll cycle. The
// processed flag lives only in the store; updates address customers by ID.
type Customer struct {
	ID   int64
	Name string
}

// String renders the customer the way cycle logs print it.
func (c Customer) String() string {
	return fmt.Sprintf("Customer[id=%d, name=%s]", c.ID, c.Name)
}

// Batch is the set of customers returned by a single poll.
type Batch []Customer

// IDs returns the customer ids in batch order.
func (b Batch) IDs() []int64 {
	ids := make([]int64, 0, len(b))
	for _, customer := range b {
		ids = append(ids, customer.ID)
	}
	return ids
}

// String renders the batch as a bracketed list of customers.
func (b Batch) String() string {
	parts := make([]string, 0, len(b))
	for _, customer := range b {
		parts = append(parts, customer.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Header keys attached to every customer observed in a cycle.
const (
	HeaderID        = "id"
	HeaderTimestamp = "timestamp"
	HeaderCycle     = "cycle"
	HeaderBatchSize = "batch_size"
	HeaderSource    = "source"
)

// Headers is per-cycle metadata emitted alongside each processed customer.
type Headers map[string]string

// Keys returns the header keys in sorted order.
func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy of h.
func (h Headers) Clone() Headers {
	clone := make(Headers, len(h))
	for key, value := range h {
		clone[key] = value
	}
	return clone
}
