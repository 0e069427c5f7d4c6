package sqlite

import (
	"fmt"

	"github.com/louisbranch/dbpoll/internal/services/poller/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanCustomer maps one (id, name) row to a customer.
func scanCustomer(row rowScanner) (domain.Customer, error) {
	var customer domain.Customer
	if err := row.Scan(&customer.ID, &customer.Name); err != nil {
		return domain.Customer{}, fmt.Errorf("scan customer: %w", err)
	}
	return customer, nil
}
