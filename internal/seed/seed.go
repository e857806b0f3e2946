// Package seed loads the initial customer set. Customers are only ever
// created by provisioning; the trade service itself never adds any.
package seed

import (
	"context"
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/olyamironova/customer-trade-service/internal/domain"
	"github.com/olyamironova/customer-trade-service/internal/port"
)

//go:embed customers.yaml
var defaultCustomers []byte

type file struct {
	Customers []customer `yaml:"customers"`
}

type customer struct {
	ID      int64  `yaml:"id"`
	Name    string `yaml:"name"`
	Balance int64  `yaml:"balance"`
}

// Default returns the built-in customers: Sam, Mike and John, 10000 each.
func Default() []domain.Customer {
	customers, err := Parse(defaultCustomers)
	if err != nil {
		panic(err)
	}
	return customers
}

func Load(path string) ([]domain.Customer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}
	customers, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "seed file %s", path)
	}
	return customers, nil
}

func Parse(data []byte) ([]domain.Customer, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode seed")
	}
	seen := make(map[int64]struct{}, len(f.Customers))
	out := make([]domain.Customer, 0, len(f.Customers))
	for i, c := range f.Customers {
		switch {
		case c.ID <= 0:
			return nil, errors.Errorf("customer #%d: id must be positive", i+1)
		case c.Name == "":
			return nil, errors.Errorf("customer %d: name is required", c.ID)
		case c.Balance < 0:
			return nil, errors.Errorf("customer %d: balance must not be negative", c.ID)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, errors.Errorf("customer %d: duplicate id", c.ID)
		}
		seen[c.ID] = struct{}{}
		out = append(out, domain.Customer{ID: c.ID, Name: c.Name, Balance: c.Balance})
	}
	return out, nil
}

// Apply provisions every customer. Ids that already exist are left as they
// are, so applying the same seed twice is harmless.
func Apply(ctx context.Context, p port.Provisioner, customers []domain.Customer) error {
	for i := range customers {
		if err := p.CreateCustomer(ctx, &customers[i]); err != nil {
			return errors.Wrapf(err, "provision customer %d", customers[i].ID)
		}
	}
	return nil
}
