package mock

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/payment"
)

var ErrConfigInvalid = errors.New("mock config invalid")

// Client 模拟支付渠道，仅用于开发联调。下单返回本服务的确认地址，
// 访问该地址即视同渠道回调成功。
type Client struct {
	baseURL string
}

// New 创建模拟渠道适配器
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	return &Client{baseURL: baseURL}, nil
}

// Channel 实现 payment.Provider
func (c *Client) Channel() string {
	return constants.ChannelMock
}

// CreatePayment 返回模拟确认地址
func (c *Client) CreatePayment(_ context.Context, input *payment.CreateInput) (*payment.Presentation, error) {
	if input == nil || strings.TrimSpace(input.OutTradeNo) == "" {
		return nil, fmt.Errorf("%w: out_trade_no is required", ErrConfigInvalid)
	}
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount is invalid", ErrConfigInvalid)
	}
	return &payment.Presentation{
		Channel:    constants.ChannelMock,
		MockPayURL: c.baseURL + "/api/v1/recharge/mock/pay?out_trade_no=" + url.QueryEscape(strings.TrimSpace(input.OutTradeNo)),
	}, nil
}
