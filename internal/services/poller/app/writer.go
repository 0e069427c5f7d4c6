package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
	"github.com/louisbranch/dbpoll/internal/services/poller/storage"
)

// UpdateMode selects how the writer issues the processed-flag update.
type UpdateMode string

const (
	// UpdateModeBatch updates the whole batch with batched statements.
	UpdateModeBatch UpdateMode = "batch"
	// UpdateModePerRow updates one row per statement. It exists for stores
	// that reject the batched form and is slower.
	UpdateModePerRow UpdateMode = "per-row"
)

// ErrEmptyBatch is returned when the writer is asked to mark nothing.
var ErrEmptyBatch = errors.New("empty batch")

// ParseUpdateMode normalizes a configured update mode. Empty means batch.
func ParseUpdateMode(value string) (UpdateMode, error) {
	switch UpdateMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", UpdateModeBatch:
		return UpdateModeBatch, nil
	case UpdateModePerRow, "per_row", "perrow":
		return UpdateModePerRow, nil
	default:
		return "", fmt.Errorf("invalid update mode %q", value)
	}
}

// Writer marks a processed batch in the store with one logical call.
type Writer struct {
	marker storage.CustomerMarker
	mode   UpdateMode
}

// NewWriter creates a writer over marker. An unknown mode falls back to batch.
func NewWriter(marker storage.CustomerMarker, mode UpdateMode) *Writer {
	if mode != UpdateModePerRow {
		mode = UpdateModeBatch
	}
	return &Writer{marker: marker, mode: mode}
}

// Mode reports the update mode in use.
func (w *Writer) Mode() UpdateMode {
	if w == nil {
		return UpdateModeBatch
	}
	return w.mode
}

// MarkProcessed sets processed = true for every customer in batch. It makes
// exactly one store call. Store failures are returned as KindWriteBack errors
// carrying the batch ids.
func (w *Writer) MarkProcessed(ctx context.Context, batch domain.Batch) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}
	if w == nil || w.marker == nil {
		return domain.Wrap(domain.KindWriteBack, "mark processed", fmt.Errorf("customer marker is not configured"))
	}

	ids := batch.IDs()
	var err error
	switch w.mode {
	case UpdateModePerRow:
		err = w.marker.MarkProcessedPerRow(ctx, ids)
	default:
		err = w.marker.MarkProcessed(ctx, ids)
	}
	if err != nil {
		return domain.WrapWithMetadata(
			domain.KindWriteBack,
			fmt.Sprintf("mark %d customers processed", len(ids)),
			map[string]string{"ids": joinIDs(ids), "mode": string(w.mode)},
			err,
		)
	}
	return nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
