package alipay

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/payment"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("alipay config invalid")
	ErrSignGenerate     = errors.New("alipay sign generate failed")
	ErrSignatureInvalid = errors.New("alipay signature invalid")
	ErrNotifyInvalid    = errors.New("alipay notify invalid")
)

const defaultGateway = "https://openapi.alipay.com/gateway.do"

// Config 支付宝商户配置
type Config struct {
	AppID           string
	PrivateKey      string
	AlipayPublicKey string
	Gateway         string
	NotifyURL       string
	ReturnURL       string
}

// Client 支付宝渠道适配器，channel 决定 PC 页面或 WAP 支付
type Client struct {
	cfg     Config
	channel string
	method  string
}

// New 创建支付宝适配器，启动时校验凭据可用
func New(cfg Config, channel string) (*Client, error) {
	cfg.normalize()
	if cfg.AppID == "" {
		return nil, fmt.Errorf("%w: app_id is required", ErrConfigInvalid)
	}
	if cfg.NotifyURL == "" {
		return nil, fmt.Errorf("%w: notify_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.Gateway); err != nil {
		return nil, fmt.Errorf("%w: gateway is invalid", ErrConfigInvalid)
	}
	if _, err := parsePrivateKey(cfg.PrivateKey); err != nil {
		return nil, err
	}
	if _, err := parsePublicKey(cfg.AlipayPublicKey); err != nil {
		return nil, err
	}

	var method string
	switch channel {
	case constants.ChannelAlipayPC:
		method = "alipay.trade.page.pay"
	case constants.ChannelAlipayWAP:
		method = "alipay.trade.wap.pay"
	default:
		return nil, fmt.Errorf("%w: channel %s is not supported", ErrConfigInvalid, channel)
	}
	return &Client{cfg: cfg, channel: channel, method: method}, nil
}

// Channel 实现 payment.Provider
func (c *Client) Channel() string {
	return c.channel
}

// CreatePayment 构造签名后的网关跳转地址，支付宝页面支付无需服务端预下单
func (c *Client) CreatePayment(_ context.Context, input *payment.CreateInput) (*payment.Presentation, error) {
	if input == nil || strings.TrimSpace(input.OutTradeNo) == "" {
		return nil, fmt.Errorf("%w: out_trade_no is required", ErrConfigInvalid)
	}
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount is invalid", ErrConfigInvalid)
	}

	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		subject = input.OutTradeNo
	}
	bizContent := map[string]interface{}{
		"out_trade_no": strings.TrimSpace(input.OutTradeNo),
		"total_amount": CentsToYuan(input.AmountCents),
		"subject":      subject,
	}
	switch c.channel {
	case constants.ChannelAlipayPC:
		bizContent["product_code"] = "FAST_INSTANT_TRADE_PAY"
	case constants.ChannelAlipayWAP:
		bizContent["product_code"] = "QUICK_WAP_WAY"
	}
	if !input.ExpiresAt.IsZero() {
		bizContent["time_expire"] = input.ExpiresAt.Format("2006-01-02 15:04:05")
	}
	bizContentBytes, err := json.Marshal(bizContent)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal biz_content failed", ErrConfigInvalid)
	}

	notifyURL := strings.TrimSpace(input.NotifyURL)
	if notifyURL == "" {
		notifyURL = c.cfg.NotifyURL
	}
	returnURL := strings.TrimSpace(input.ReturnURL)
	if returnURL == "" {
		returnURL = c.cfg.ReturnURL
	}

	params := map[string]string{
		"app_id":      c.cfg.AppID,
		"method":      c.method,
		"format":      "JSON",
		"charset":     "utf-8",
		"sign_type":   "RSA2",
		"timestamp":   time.Now().Format("2006-01-02 15:04:05"),
		"version":     "1.0",
		"notify_url":  notifyURL,
		"biz_content": string(bizContentBytes),
	}
	if returnURL != "" {
		params["return_url"] = returnURL
	}

	sign, err := signContent(buildSignContent(params), c.cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	params["sign"] = sign

	return &payment.Presentation{
		Channel: c.channel,
		PayURL:  buildGatewayPayURL(c.cfg.Gateway, params),
	}, nil
}

// VerifyNotify 校验异步回调签名并抽取支付结果
func (c *Client) VerifyNotify(form url.Values) (*payment.Confirmation, error) {
	if len(form) == 0 {
		return nil, fmt.Errorf("%w: callback form is empty", ErrSignatureInvalid)
	}
	sign := strings.TrimSpace(form.Get("sign"))
	if sign == "" {
		return nil, fmt.Errorf("%w: sign is required", ErrSignatureInvalid)
	}
	signType := strings.ToUpper(strings.TrimSpace(form.Get("sign_type")))
	if signType != "" && signType != "RSA2" {
		return nil, fmt.Errorf("%w: sign_type is invalid", ErrSignatureInvalid)
	}
	content := buildSignContentFromForm(form)
	if content == "" {
		return nil, fmt.Errorf("%w: sign content is empty", ErrSignatureInvalid)
	}
	publicKey, err := parsePublicKey(c.cfg.AlipayPublicKey)
	if err != nil {
		return nil, err
	}
	signBytes, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return nil, fmt.Errorf("%w: decode sign failed", ErrSignatureInvalid)
	}
	digest := sha256.Sum256([]byte(content))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, digest[:], signBytes); err != nil {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	outTradeNo := strings.TrimSpace(form.Get("out_trade_no"))
	if outTradeNo == "" {
		return nil, fmt.Errorf("%w: out_trade_no is required", ErrNotifyInvalid)
	}
	amountCents, err := YuanToCents(form.Get("total_amount"))
	if err != nil {
		return nil, fmt.Errorf("%w: total_amount is invalid", ErrNotifyInvalid)
	}

	tradeStatus := strings.ToUpper(strings.TrimSpace(form.Get("trade_status")))
	succeeded := tradeStatus == constants.AlipayTradeStatusSuccess || tradeStatus == constants.AlipayTradeStatusFinished
	closed := tradeStatus == constants.AlipayTradeStatusClosed

	raw := make(map[string]interface{}, len(form))
	for key := range form {
		raw[key] = form.Get(key)
	}
	return &payment.Confirmation{
		OutTradeNo:    outTradeNo,
		ProviderTxnID: strings.TrimSpace(form.Get("trade_no")),
		AmountCents:   amountCents,
		Currency:      constants.CurrencyCNY,
		Succeeded:     succeeded,
		Closed:        closed,
		PaidAt:        parseNotifyTime(form.Get("gmt_payment")),
		Raw:           raw,
	}, nil
}

// CentsToYuan 将分转为支付宝金额串（两位小数）
func CentsToYuan(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// YuanToCents 将支付宝金额串转为分，精度超过分视为非法
func YuanToCents(amount string) (int64, error) {
	amountDec, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("amount is invalid: %s", amount)
	}
	cents := amountDec.Mul(decimal.NewFromInt(100))
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount precision exceeds cent: %s", amount)
	}
	return cents.IntPart(), nil
}

func buildSignContent(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		key = strings.TrimSpace(key)
		if key == "" || key == "sign" {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+params[key])
	}
	return strings.Join(parts, "&")
}

func buildSignContentFromForm(form url.Values) string {
	params := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		normalizedKey := strings.TrimSpace(key)
		if normalizedKey == "" {
			continue
		}
		if strings.EqualFold(normalizedKey, "sign") || strings.EqualFold(normalizedKey, "sign_type") {
			continue
		}
		if values[0] == "" {
			continue
		}
		params[normalizedKey] = values[0]
	}
	return buildSignContent(params)
}

func signContent(content, privateKeyRaw string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: empty sign content", ErrSignGenerate)
	}
	privateKey, err := parsePrivateKey(privateKeyRaw)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256([]byte(content))
	signBytes, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: sign failed", ErrSignGenerate)
	}
	return base64.StdEncoding.EncodeToString(signBytes), nil
}

func buildGatewayPayURL(gateway string, params map[string]string) string {
	form := url.Values{}
	for key, value := range params {
		key = strings.TrimSpace(key)
		if key == "" || strings.TrimSpace(value) == "" {
			continue
		}
		form.Set(key, value)
	}
	parsed, err := url.Parse(gateway)
	if err != nil {
		if strings.Contains(gateway, "?") {
			return gateway + "&" + form.Encode()
		}
		return gateway + "?" + form.Encode()
	}
	parsed.RawQuery = form.Encode()
	return parsed.String()
}

func parsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	normalized := normalizePEM(raw, "PRIVATE KEY")
	if normalized == "" {
		return nil, fmt.Errorf("%w: private key is empty", ErrSignGenerate)
	}
	block, _ := pem.Decode([]byte(normalized))
	if block == nil {
		return nil, fmt.Errorf("%w: private key pem decode failed", ErrSignGenerate)
	}
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if privateKey, ok := parsed.(*rsa.PrivateKey); ok {
			return privateKey, nil
		}
		return nil, fmt.Errorf("%w: private key type is not rsa", ErrSignGenerate)
	}
	if privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return privateKey, nil
	}
	return nil, fmt.Errorf("%w: parse private key failed", ErrSignGenerate)
}

func parsePublicKey(raw string) (*rsa.PublicKey, error) {
	normalized := normalizePEM(raw, "PUBLIC KEY")
	if normalized == "" {
		return nil, fmt.Errorf("%w: public key is empty", ErrSignatureInvalid)
	}
	block, _ := pem.Decode([]byte(normalized))
	if block == nil {
		return nil, fmt.Errorf("%w: public key pem decode failed", ErrSignatureInvalid)
	}
	if parsed, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if publicKey, ok := parsed.(*rsa.PublicKey); ok {
			return publicKey, nil
		}
		return nil, fmt.Errorf("%w: public key type is not rsa", ErrSignatureInvalid)
	}
	if publicKey, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return publicKey, nil
	}
	return nil, fmt.Errorf("%w: parse public key failed", ErrSignatureInvalid)
}

func normalizePEM(raw, blockType string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(raw, "\\n", "\n"))
	if normalized == "" {
		return ""
	}
	if !strings.Contains(normalized, "BEGIN") {
		normalized = "-----BEGIN " + blockType + "-----\n" + normalized + "\n-----END " + blockType + "-----"
	}
	return normalized
}

func parseNotifyTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", raw, loc)
	if err != nil {
		return nil
	}
	return &parsed
}

func (c *Config) normalize() {
	c.AppID = strings.TrimSpace(c.AppID)
	c.PrivateKey = strings.TrimSpace(c.PrivateKey)
	c.AlipayPublicKey = strings.TrimSpace(c.AlipayPublicKey)
	c.Gateway = strings.TrimSpace(c.Gateway)
	c.NotifyURL = strings.TrimSpace(c.NotifyURL)
	c.ReturnURL = strings.TrimSpace(c.ReturnURL)
	if c.Gateway == "" {
		c.Gateway = defaultGateway
	}
}
