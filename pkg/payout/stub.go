package payout

import "context"

// StubProvider accepts every payout without moving money. Used in development
// and when payouts are settled outside the platform. The same reference
// always yields the same payout id.
type StubProvider struct{}

func (StubProvider) Name() string { return "stub" }

func (StubProvider) Payout(ctx context.Context, req Request) (*Result, error) {
	return &Result{PayoutID: "stub_" + req.ReferenceID, Status: "processed"}, nil
}
