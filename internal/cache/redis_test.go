package cache

import (
	"context"
	"testing"
	"time"

	"github.com/reeltask/reeltask/internal/config"
)

func TestInitRedisDisabled(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("disabled config must not enable cache")
	}
	if Client() != nil {
		t.Fatalf("disabled cache must not expose a client")
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(nil); err != nil {
		t.Fatalf("init nil redis config failed: %v", err)
	}
	ctx := context.Background()

	var dest map[string]interface{}
	hit, err := GetJSON(ctx, "wallet:account:1", &dest)
	if err != nil {
		t.Fatalf("disabled GetJSON must not error: %v", err)
	}
	if hit {
		t.Fatalf("disabled GetJSON must report a miss")
	}
	if err := SetJSON(ctx, "wallet:account:1", map[string]int{"balance": 100}, time.Minute); err != nil {
		t.Fatalf("disabled SetJSON must not error: %v", err)
	}
	if err := Del(ctx, "wallet:account:1"); err != nil {
		t.Fatalf("disabled Del must not error: %v", err)
	}
}

func TestWalletAccountKey(t *testing.T) {
	if got := WalletAccountKey(42); got != "wallet:account:42" {
		t.Fatalf("unexpected wallet account key: %s", got)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	redisPrefix = "reeltask"
	if got := buildKey("wallet:account:7"); got != "reeltask:wallet:account:7" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey("   "); got != "reeltask" {
		t.Fatalf("empty key must collapse to prefix, got %s", got)
	}
}
