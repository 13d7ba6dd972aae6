package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RazorpayProvider runs the contact -> fund account -> payout sequence of
// the RazorpayX payouts API.
type RazorpayProvider struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	SourceAccount string
	client        *http.Client
	log           *zap.Logger
}

func NewRazorpayProvider(baseURL, keyID, keySecret, sourceAccount string, timeout time.Duration, log *zap.Logger) *RazorpayProvider {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RazorpayProvider{
		BaseURL:       baseURL,
		KeyID:         keyID,
		KeySecret:     keySecret,
		SourceAccount: sourceAccount,
		client:        &http.Client{Timeout: timeout},
		log:           log,
	}
}

func (p *RazorpayProvider) Name() string { return "razorpay" }

type rzpContact struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id"`
}

type rzpBankAccount struct {
	Name          string `json:"name"`
	IFSC          string `json:"ifsc"`
	AccountNumber string `json:"account_number"`
}

type rzpVPA struct {
	Address string `json:"address"`
}

type rzpFundAccount struct {
	ContactID   string          `json:"contact_id"`
	AccountType string          `json:"account_type"`
	BankAccount *rzpBankAccount `json:"bank_account,omitempty"`
	VPA         *rzpVPA         `json:"vpa,omitempty"`
}

type rzpPayout struct {
	AccountNumber     string `json:"account_number"`
	FundAccountID     string `json:"fund_account_id"`
	Amount            int64  `json:"amount"` // paise
	Currency          string `json:"currency"`
	Mode              string `json:"mode"`
	Purpose           string `json:"purpose"`
	QueueIfLowBalance bool   `json:"queue_if_low_balance"`
	ReferenceID       string `json:"reference_id"`
	Narration         string `json:"narration"`
}

type rzpEntity struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Payout creates the contact and fund account then requests the payout.
func (p *RazorpayProvider) Payout(ctx context.Context, req Request) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, &GatewayError{Path: "razorpay /payouts", Status: http.StatusUnprocessableEntity, Body: "amount must be positive"}
	}
	if req.ReferenceID == "" {
		return nil, &GatewayError{Path: "razorpay /payouts", Status: http.StatusUnprocessableEntity, Body: "reference id required"}
	}
	var contact rzpEntity
	if err := p.post(ctx, "/contacts", "", rzpContact{
		Name:        req.Name,
		Email:       req.Email,
		Type:        req.ContactType,
		ReferenceID: req.ReferenceID,
	}, &contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	fa := rzpFundAccount{ContactID: contact.ID}
	mode := "IMPS"
	if req.Method == "upi" {
		fa.AccountType = "vpa"
		fa.VPA = &rzpVPA{Address: req.VPA}
		mode = "UPI"
	} else {
		fa.AccountType = "bank_account"
		fa.BankAccount = &rzpBankAccount{Name: req.AccountName, IFSC: req.IFSC, AccountNumber: req.AccountNo}
	}
	var fundAccount rzpEntity
	if err := p.post(ctx, "/fund_accounts", "", fa, &fundAccount); err != nil {
		return nil, fmt.Errorf("create fund account: %w", err)
	}

	// The gateway answers a repeated idempotency key with the original
	// payout instead of sending money again.
	var out rzpEntity
	if err := p.post(ctx, "/payouts", req.ReferenceID, rzpPayout{
		AccountNumber:     p.SourceAccount,
		FundAccountID:     fundAccount.ID,
		Amount:            req.Amount.Shift(2).Round(0).IntPart(),
		Currency:          "INR",
		Mode:              mode,
		Purpose:           "payout",
		QueueIfLowBalance: true,
		ReferenceID:       req.ReferenceID,
		Narration:         "Withdrawal",
	}, &out); err != nil {
		return nil, fmt.Errorf("create payout: %w", err)
	}
	return &Result{PayoutID: out.ID, Status: out.Status}, nil
}

func (p *RazorpayProvider) post(ctx context.Context, path, idempotencyKey string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(p.KeyID, p.KeySecret)
	if idempotencyKey != "" {
		httpReq.Header.Set("X-Payout-Idempotency", idempotencyKey)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if p.log != nil {
		p.log.Debug("razorpay response", zap.String("path", path), zap.Int("status", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &GatewayError{Path: "razorpay " + path, Status: resp.StatusCode, Body: string(respBody)}
	}
	return json.Unmarshal(respBody, out)
}
