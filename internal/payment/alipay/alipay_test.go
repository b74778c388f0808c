package alipay

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/url"
	"strings"
	"testing"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/payment"
)

func TestNewRejectsUnknownChannel(t *testing.T) {
	cfg := buildTestConfig()
	if _, err := New(cfg, "alipay_app"); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
}

func TestNewRejectsBrokenKey(t *testing.T) {
	cfg := buildTestConfig()
	cfg.PrivateKey = "not-a-key"
	if _, err := New(cfg, constants.ChannelAlipayPC); err == nil {
		t.Fatalf("expected error for broken private key")
	}
}

func TestCreatePaymentPCReturnsPayURL(t *testing.T) {
	client, err := New(buildTestConfig(), constants.ChannelAlipayPC)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	result, err := client.CreatePayment(context.Background(), &payment.CreateInput{
		OutTradeNo:  "WR20260901120000123456",
		AmountCents: 1000,
		Subject:     "钱包充值",
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if strings.TrimSpace(result.PayURL) == "" {
		t.Fatalf("expected pay url")
	}
	parsedURL, err := url.Parse(result.PayURL)
	if err != nil {
		t.Fatalf("parse pay url failed: %v", err)
	}
	if parsedURL.Query().Get("method") != "alipay.trade.page.pay" {
		t.Fatalf("unexpected method: %s", parsedURL.Query().Get("method"))
	}
	if parsedURL.Query().Get("sign") == "" {
		t.Fatalf("expected sign in pay url")
	}
	if !strings.Contains(parsedURL.Query().Get("biz_content"), `"total_amount":"10.00"`) {
		t.Fatalf("unexpected biz_content: %s", parsedURL.Query().Get("biz_content"))
	}
}

func TestCreatePaymentWAPMethod(t *testing.T) {
	client, err := New(buildTestConfig(), constants.ChannelAlipayWAP)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	result, err := client.CreatePayment(context.Background(), &payment.CreateInput{
		OutTradeNo:  "WR20260901120000654321",
		AmountCents: 500,
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	parsedURL, err := url.Parse(result.PayURL)
	if err != nil {
		t.Fatalf("parse pay url failed: %v", err)
	}
	if parsedURL.Query().Get("method") != "alipay.trade.wap.pay" {
		t.Fatalf("unexpected method: %s", parsedURL.Query().Get("method"))
	}
}

func TestCreatePaymentRejectsNonPositiveAmount(t *testing.T) {
	client, err := New(buildTestConfig(), constants.ChannelAlipayPC)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if _, err := client.CreatePayment(context.Background(), &payment.CreateInput{
		OutTradeNo:  "WR20260901120000000001",
		AmountCents: 0,
	}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestVerifyNotifySuccess(t *testing.T) {
	cfg := buildTestConfig()
	client, err := New(cfg, constants.ChannelAlipayPC)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	form := url.Values{
		"notify_id":    {"notify-1"},
		"notify_type":  {"trade_status_sync"},
		"out_trade_no": {"WR20260901120000778899"},
		"trade_no":     {"2026090122001400001234"},
		"trade_status": {"TRADE_SUCCESS"},
		"total_amount": {"50.00"},
		"gmt_payment":  {"2026-09-01 12:30:45"},
		"sign_type":    {"RSA2"},
	}
	content := buildSignContentFromForm(form)
	sign, err := signContent(content, cfg.PrivateKey)
	if err != nil {
		t.Fatalf("sign callback content failed: %v", err)
	}
	form.Set("sign", sign)

	confirmation, err := client.VerifyNotify(form)
	if err != nil {
		t.Fatalf("verify notify failed: %v", err)
	}
	if !confirmation.Succeeded {
		t.Fatalf("expected succeeded confirmation")
	}
	if confirmation.AmountCents != 5000 {
		t.Fatalf("unexpected amount: %d", confirmation.AmountCents)
	}
	if confirmation.ProviderTxnID != "2026090122001400001234" {
		t.Fatalf("unexpected provider txn id: %s", confirmation.ProviderTxnID)
	}
	if confirmation.PaidAt == nil {
		t.Fatalf("expected paid_at")
	}
}

func TestVerifyNotifyTamperedAmount(t *testing.T) {
	cfg := buildTestConfig()
	client, err := New(cfg, constants.ChannelAlipayPC)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	form := url.Values{
		"out_trade_no": {"WR20260901120000778899"},
		"trade_no":     {"2026090122001400001234"},
		"trade_status": {"TRADE_SUCCESS"},
		"total_amount": {"50.00"},
		"sign_type":    {"RSA2"},
	}
	sign, err := signContent(buildSignContentFromForm(form), cfg.PrivateKey)
	if err != nil {
		t.Fatalf("sign callback content failed: %v", err)
	}
	form.Set("sign", sign)
	form.Set("total_amount", "0.01")

	if _, err := client.VerifyNotify(form); err == nil {
		t.Fatalf("expected verify error for tampered amount")
	}
}

func TestVerifyNotifyInvalidSign(t *testing.T) {
	client, err := New(buildTestConfig(), constants.ChannelAlipayPC)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	form := url.Values{
		"out_trade_no": {"WR20260901120000778899"},
		"trade_status": {"TRADE_SUCCESS"},
		"total_amount": {"8.80"},
		"sign_type":    {"RSA2"},
		"sign":         {"invalid-sign"},
	}
	if _, err := client.VerifyNotify(form); err == nil {
		t.Fatalf("expected verify error")
	}
}

func TestVerifyNotifyClosedNotSucceeded(t *testing.T) {
	cfg := buildTestConfig()
	client, err := New(cfg, constants.ChannelAlipayPC)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	form := url.Values{
		"out_trade_no": {"WR20260901120000778899"},
		"trade_status": {"TRADE_CLOSED"},
		"total_amount": {"10.00"},
		"sign_type":    {"RSA2"},
	}
	sign, err := signContent(buildSignContentFromForm(form), cfg.PrivateKey)
	if err != nil {
		t.Fatalf("sign callback content failed: %v", err)
	}
	form.Set("sign", sign)

	confirmation, err := client.VerifyNotify(form)
	if err != nil {
		t.Fatalf("verify notify failed: %v", err)
	}
	if confirmation.Succeeded {
		t.Fatalf("closed trade should not be succeeded")
	}
}

func TestYuanToCents(t *testing.T) {
	cents, err := YuanToCents("10.00")
	if err != nil || cents != 1000 {
		t.Fatalf("unexpected result: %d %v", cents, err)
	}
	if _, err := YuanToCents("10.005"); err == nil {
		t.Fatalf("expected error for sub-cent precision")
	}
	if _, err := YuanToCents("abc"); err == nil {
		t.Fatalf("expected error for invalid amount")
	}
}

func buildTestConfig() Config {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	privateKeyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		panic(err)
	}
	privateKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateKeyDER})
	publicKeyDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		panic(err)
	}
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicKeyDER})
	return Config{
		AppID:           "2026000000000000",
		PrivateKey:      string(privateKeyPEM),
		AlipayPublicKey: string(publicKeyPEM),
		Gateway:         "https://openapi.alipay.com/gateway.do",
		NotifyURL:       "https://example.com/api/v1/recharge/callback/alipay",
		ReturnURL:       "https://example.com/wallet",
	}
}
