package mock

import (
	"context"
	"net/url"
	"testing"

	"github.com/reeltask/reeltask/internal/payment"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty base url")
	}
	if _, err := New("not-a-url"); err == nil {
		t.Fatalf("expected error for invalid base url")
	}
}

func TestCreatePaymentReturnsMockPayURL(t *testing.T) {
	client, err := New("http://127.0.0.1:8080/")
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	result, err := client.CreatePayment(context.Background(), &payment.CreateInput{
		OutTradeNo:  "WR20260901120000123456",
		AmountCents: 100,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	parsedURL, err := url.Parse(result.MockPayURL)
	if err != nil {
		t.Fatalf("parse mock pay url failed: %v", err)
	}
	if parsedURL.Path != "/api/v1/recharge/mock/pay" {
		t.Fatalf("unexpected path: %s", parsedURL.Path)
	}
	if parsedURL.Query().Get("out_trade_no") != "WR20260901120000123456" {
		t.Fatalf("unexpected out_trade_no: %s", parsedURL.Query().Get("out_trade_no"))
	}
}

func TestCreatePaymentRejectsInvalidInput(t *testing.T) {
	client, err := New("http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if _, err := client.CreatePayment(context.Background(), &payment.CreateInput{AmountCents: 100}); err == nil {
		t.Fatalf("expected error for missing out_trade_no")
	}
	if _, err := client.CreatePayment(context.Background(), &payment.CreateInput{OutTradeNo: "WR1", AmountCents: 0}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}
