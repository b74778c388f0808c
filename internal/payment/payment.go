package payment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

var ErrChannelNotRegistered = errors.New("payment channel not registered")

// CreateInput 下单输入
type CreateInput struct {
	OutTradeNo  string
	AmountCents int64
	Subject     string
	NotifyURL   string
	ReturnURL   string
	ClientIP    string
	ExpiresAt   time.Time
}

// Presentation 渠道下单返回给前端的支付凭据
type Presentation struct {
	Channel    string `json:"channel"`
	PayURL     string `json:"pay_url,omitempty"`      // 支付宝跳转地址
	CodeURL    string `json:"code_url,omitempty"`     // 微信 Native 扫码地址
	MockPayURL string `json:"mock_pay_url,omitempty"` // 模拟渠道确认地址
}

// Confirmation 渠道侧支付结果（回调验签或主动查询得到）。
// Succeeded 表示渠道已收款；Closed 表示渠道侧交易已终结且不会再收款
// （关单、撤销、支付失败），两者互斥。都为 false 时表示仍在等待支付。
type Confirmation struct {
	OutTradeNo    string
	ProviderTxnID string
	AmountCents   int64
	Currency      string
	Succeeded     bool
	Closed        bool
	PaidAt        *time.Time
	Raw           map[string]interface{}
}

// Provider 支付渠道适配器
type Provider interface {
	Channel() string
	CreatePayment(ctx context.Context, input *CreateInput) (*Presentation, error)
}

// Registry 渠道注册表，启动时根据配置装配
type Registry struct {
	providers map[string]Provider
}

// NewRegistry 创建渠道注册表
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register 注册渠道
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	channel := strings.TrimSpace(p.Channel())
	if channel == "" {
		return
	}
	r.providers[channel] = p
}

// Get 获取渠道适配器
func (r *Registry) Get(channel string) (Provider, error) {
	p, ok := r.providers[strings.TrimSpace(channel)]
	if !ok {
		return nil, ErrChannelNotRegistered
	}
	return p, nil
}

// Has 渠道是否已注册
func (r *Registry) Has(channel string) bool {
	_, ok := r.providers[strings.TrimSpace(channel)]
	return ok
}

// Channels 返回已注册渠道列表
func (r *Registry) Channels() []string {
	channels := make([]string, 0, len(r.providers))
	for channel := range r.providers {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}
