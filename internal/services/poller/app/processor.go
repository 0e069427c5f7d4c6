package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
)

// Observer receives every customer of a batch together with the cycle headers.
// It is the only side effect of processing.
type Observer func(ctx context.Context, customer domain.Customer, headers domain.Headers) error

// Process passes batch through observe and returns it unchanged. Every
// customer is observed even after a failure; failures and observer panics are
// joined into one KindProcess error and the caller decides whether to write
// back. Each call receives its own copy of headers.
func Process(ctx context.Context, batch domain.Batch, headers domain.Headers, observe Observer) (domain.Batch, error) {
	out := make(domain.Batch, len(batch))
	copy(out, batch)
	if observe == nil {
		return out, nil
	}

	var (
		errs   []error
		failed []string
	)
	for _, customer := range batch {
		if err := observeCustomer(ctx, observe, customer, headers.Clone()); err != nil {
			errs = append(errs, fmt.Errorf("customer %d: %w", customer.ID, err))
			failed = append(failed, strconv.FormatInt(customer.ID, 10))
		}
	}
	if len(errs) == 0 {
		return out, nil
	}
	return out, domain.WrapWithMetadata(
		domain.KindProcess,
		fmt.Sprintf("process %d of %d customers", len(errs), len(batch)),
		map[string]string{"failed_ids": strings.Join(failed, ",")},
		errors.Join(errs...),
	)
}

func observeCustomer(ctx context.Context, observe Observer, customer domain.Customer, headers domain.Headers) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return observe(ctx, customer, headers)
}

// LogObserver logs each customer followed by its headers as key=value lines.
func LogObserver(logf func(string, ...any)) Observer {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return func(_ context.Context, customer domain.Customer, headers domain.Headers) error {
		logf("%s", customer)
		for _, key := range headers.Keys() {
			logf("%s=%s", key, headers[key])
		}
		return nil
	}
}
