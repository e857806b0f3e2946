// Package client is a Go client for the trade service's HTTP API.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/olyamironova/customer-trade-service/internal/api/dto"
	"github.com/olyamironova/customer-trade-service/internal/domain"
)

type Client struct {
	client *resty.Client
}

// New returns a client for the service at host. Requests are not retried:
// a trade that timed out may still have been applied.
func New(host string, timeout time.Duration) *Client {
	host = strings.TrimSuffix(host, "/")
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "tradectl")
	return &Client{client: client}
}

// SetClientID identifies this client to the server's rate limiter.
func (c *Client) SetClientID(id string) *Client {
	c.client.SetHeader("X-Client-ID", id)
	return c
}

func (c *Client) GetCustomer(ctx context.Context, customerID int64) (*dto.CustomerInformation, error) {
	var out dto.CustomerInformation
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", fmt.Sprint(customerID)).
		SetResult(&out).
		SetError(&dto.Problem{}).
		Get("/customers/{id}")
	if err := check(customerID, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Trade(ctx context.Context, customerID int64, req dto.TradeRequest) (*dto.TradeResponse, error) {
	var out dto.TradeResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", fmt.Sprint(customerID)).
		SetBody(req).
		SetResult(&out).
		SetError(&dto.Problem{}).
		Post("/customers/{id}/trade")
	if err := check(customerID, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(customerID int64, resp *resty.Response, err error) error {
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	if !resp.IsError() {
		return nil
	}
	if p, ok := resp.Error().(*dto.Problem); ok && p.Status != 0 {
		return &ProblemError{Problem: *p, CustomerID: customerID}
	}
	return &ProblemError{CustomerID: customerID, Problem: dto.Problem{
		Status: resp.StatusCode(),
		Title:  resp.Status(),
		Detail: strings.TrimSpace(resp.String()),
	}}
}

// ProblemError is an error response from the service. CustomerID is the id
// from the request path.
type ProblemError struct {
	Problem    dto.Problem
	CustomerID int64
}

func (e *ProblemError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Problem.Status, e.Problem.Title, e.Problem.Detail)
}

// Kind is the last segment of the problem type, e.g. "customer-not-found".
func (e *ProblemError) Kind() string {
	t := e.Problem.Type
	return t[strings.LastIndexAny(t, "/#:")+1:]
}

// Unwrap exposes business rule violations as *domain.Error, so callers can
// use errors.Is against the domain sentinels.
func (e *ProblemError) Unwrap() error {
	switch kind := domain.ErrorKind(e.Kind()); kind {
	case domain.KindCustomerNotFound, domain.KindInsufficientBalance, domain.KindInsufficientShares,
		domain.KindInvalidQuantity, domain.KindInvalidPrice, domain.KindUnknownTicker, domain.KindUnknownAction:
		return &domain.Error{Kind: kind, CustomerID: e.CustomerID, Detail: e.Problem.Detail}
	}
	return nil
}
