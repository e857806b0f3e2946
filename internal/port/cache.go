package port

import (
	"context"

	"github.com/olyamironova/customer-trade-service/internal/domain"
)

// Cache holds customer read models. A miss is reported as a nil info.
//
// Every read also returns the customer's current cache version. Invalidate
// bumps the version, and SetCustomerInformation stores info only while the
// version still equals the one passed in, so a fill computed before an
// invalidation from any instance is dropped instead of stored.
type Cache interface {
	GetCustomerInformation(ctx context.Context, customerID int64) (*domain.CustomerInformation, uint64, error)
	SetCustomerInformation(ctx context.Context, info *domain.CustomerInformation, version uint64) error
	Invalidate(ctx context.Context, customerID int64) error
}
