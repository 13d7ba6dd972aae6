package payout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Request describes one outbound transfer to a user's verified payout details.
type Request struct {
	ReferenceID string // idempotency key, unique per withdrawal
	Name        string
	Email       string
	ContactType string // female | agency
	Method      string // bank | upi
	AccountName string
	AccountNo   string
	IFSC        string
	VPA         string
	Amount      decimal.Decimal // rupees
}

type Result struct {
	PayoutID string
	Status   string
}

// Provider moves real currency. Calls may block on network I/O.
type Provider interface {
	Name() string
	Payout(ctx context.Context, req Request) (*Result, error)
}

// GatewayError is a non-2xx answer from the payout gateway.
type GatewayError struct {
	Path   string
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Path, e.Status, e.Body)
}

// IsDeclined reports whether the gateway refused the payout outright, so
// nothing can have been sent. Transport failures, timeouts and 5xx answers
// are not declines: the money may or may not have moved.
func IsDeclined(err error) bool {
	var gw *GatewayError
	if !errors.As(err, &gw) {
		return false
	}
	switch gw.Status {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return false
	}
	return gw.Status >= 400 && gw.Status < 500
}
