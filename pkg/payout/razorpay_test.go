package payout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayPayoutSequence(t *testing.T) {
	var paths []string
	var payout map[string]interface{}
	var fundAccount map[string]interface{}
	keys := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		paths = append(paths, r.URL.Path)
		keys[r.URL.Path] = r.Header.Get("X-Payout-Idempotency")
		switch r.URL.Path {
		case "/contacts":
			_, _ = w.Write([]byte(`{"id":"cont_1"}`))
		case "/fund_accounts":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&fundAccount))
			_, _ = w.Write([]byte(`{"id":"fa_1"}`))
		case "/payouts":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payout))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"pout_1","status":"queued"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewRazorpayProvider(srv.URL, "key", "secret", "2323230000", time.Second, nil)
	res, err := p.Payout(context.Background(), Request{
		ReferenceID: "wd-1",
		Name:        "Asha",
		ContactType: "female",
		Method:      "upi",
		VPA:         "asha@upi",
		Amount:      decimal.RequireFromString("500.25"),
	})
	require.NoError(t, err)

	assert.Equal(t, "pout_1", res.PayoutID)
	assert.Equal(t, "queued", res.Status)
	assert.Equal(t, []string{"/contacts", "/fund_accounts", "/payouts"}, paths)
	assert.Equal(t, "vpa", fundAccount["account_type"])
	assert.Equal(t, float64(50025), payout["amount"])
	assert.Equal(t, "UPI", payout["mode"])
	assert.Equal(t, "fa_1", payout["fund_account_id"])
	assert.Equal(t, "wd-1", payout["reference_id"])
	assert.Equal(t, map[string]string{"/contacts": "", "/fund_accounts": "", "/payouts": "wd-1"}, keys)
}

func TestRazorpayPayoutErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"bad ifsc"}}`))
	}))
	defer srv.Close()

	p := NewRazorpayProvider(srv.URL, "key", "secret", "acc", time.Second, nil)
	_, err := p.Payout(context.Background(), Request{ReferenceID: "wd-2", Method: "bank", Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create contact")
	assert.True(t, IsDeclined(err))
}

func TestIsDeclined(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad request", &GatewayError{Status: http.StatusBadRequest}, true},
		{"wrapped", fmt.Errorf("create payout: %w", &GatewayError{Status: http.StatusUnprocessableEntity}), true},
		{"throttled", &GatewayError{Status: http.StatusTooManyRequests}, false},
		{"conflict", &GatewayError{Status: http.StatusConflict}, false},
		{"server error", &GatewayError{Status: http.StatusBadGateway}, false},
		{"transport", errors.New("dial tcp: i/o timeout"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeclined(tt.err))
		})
	}
}

func TestRazorpayServerErrorIsNotDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewRazorpayProvider(srv.URL, "key", "secret", "acc", time.Second, nil)
	_, err := p.Payout(context.Background(), Request{ReferenceID: "wd-3", Method: "bank", Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.False(t, IsDeclined(err))
}

func TestStubProvider(t *testing.T) {
	res, err := StubProvider{}.Payout(context.Background(), Request{ReferenceID: "wd-9"})
	require.NoError(t, err)
	assert.Equal(t, "stub_wd-9", res.PayoutID)

	again, err := StubProvider{}.Payout(context.Background(), Request{ReferenceID: "wd-9"})
	require.NoError(t, err)
	assert.Equal(t, res.PayoutID, again.PayoutID)
}
