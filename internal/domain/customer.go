package domain

// Customer owns a cash balance. Balance never goes below zero once a trade
// has been committed.
type Customer struct {
	ID      int64
	Name    string
	Balance int64
}

// Holding is the number of shares of one ticker held by one customer.
// A holding is identified by (CustomerID, Ticker) and is never deleted, even
// when its quantity drops to zero.
type Holding struct {
	CustomerID int64
	Ticker     Ticker
	Quantity   int64
}

// NewHolding returns the empty holding used when a customer buys a ticker
// for the first time.
func NewHolding(customerID int64, ticker Ticker) *Holding {
	return &Holding{CustomerID: customerID, Ticker: ticker}
}

type HoldingView struct {
	Ticker   Ticker
	Quantity int64
}

// CustomerInformation is the read model returned by the query path.
type CustomerInformation struct {
	ID       int64
	Name     string
	Balance  int64
	Holdings []HoldingView
}

func NewCustomerInformation(c *Customer, holdings []*Holding) *CustomerInformation {
	views := make([]HoldingView, 0, len(holdings))
	for _, h := range holdings {
		views = append(views, HoldingView{Ticker: h.Ticker, Quantity: h.Quantity})
	}
	return &CustomerInformation{
		ID:       c.ID,
		Name:     c.Name,
		Balance:  c.Balance,
		Holdings: views,
	}
}

// Clone returns a copy that shares no memory with ci.
func (ci *CustomerInformation) Clone() *CustomerInformation {
	if ci == nil {
		return nil
	}
	cp := *ci
	cp.Holdings = append([]HoldingView(nil), ci.Holdings...)
	if cp.Holdings == nil {
		cp.Holdings = []HoldingView{}
	}
	return &cp
}
