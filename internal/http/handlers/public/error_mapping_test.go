package public

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/reeltask/reeltask/internal/http/response"
	"github.com/reeltask/reeltask/internal/service"

	"github.com/gin-gonic/gin"
)

func respondCode(t *testing.T, err error, rules []mappedHandlerError) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	respondWithMappedError(c, err, rules, response.CodeInternal, "失败")

	var body response.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return body.StatusCode
}

func TestRechargeCreateErrorMapping(t *testing.T) {
	// 参数类错误与渠道不可用分属不同业务码
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"amount_invalid", service.ErrRechargeAmountInvalid, response.CodeBadRequest},
		{"channel_invalid", service.ErrRechargeChannelInvalid, response.CodeBadRequest},
		{"channel_unavailable", service.ErrRechargeChannelUnavailable, response.CodeUnavailable},
		{"provider_failed", fmt.Errorf("%w: gateway timeout", service.ErrRechargeProviderFailed), response.CodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := respondCode(t, tc.err, rechargeCreateErrorRules); got != tc.code {
				t.Fatalf("expected status_code %d, got %d", tc.code, got)
			}
		})
	}
}

func TestTaskPublishErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not_found", service.ErrTaskNotFound, response.CodeNotFound},
		{"not_owned", service.ErrTaskNotOwned, response.CodeForbidden},
		{"status_invalid", service.ErrTaskStatusInvalid, response.CodeBadRequest},
		{"insufficient_balance", service.ErrWalletInsufficientBalance, response.CodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := respondCode(t, tc.err, taskPublishErrorRules); got != tc.code {
				t.Fatalf("expected status_code %d, got %d", tc.code, got)
			}
		})
	}
}
