package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/payment"
	"github.com/reeltask/reeltask/internal/provider"
	"github.com/reeltask/reeltask/internal/queue"
	"github.com/reeltask/reeltask/internal/repository"
	"github.com/reeltask/reeltask/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
		&models.RechargeOrder{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	walletSvc := service.NewWalletService(db, repository.NewWalletRepository(db))
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	rechargeSvc := service.NewRechargeService(
		db,
		repository.NewRechargeRepository(db),
		walletSvc,
		payment.NewRegistry(),
		queueClient,
		15*time.Minute,
	)
	container := &provider.Container{RechargeService: rechargeSvc}
	return NewConsumer(container), db
}

func createWorkerTestOrder(t *testing.T, db *gorm.DB, outTradeNo, status string) {
	t.Helper()
	expiresAt := time.Now().Add(-time.Minute)
	order := models.RechargeOrder{
		OutTradeNo:  outTradeNo,
		UserID:      1,
		Channel:     constants.ChannelMock,
		AmountCents: 1000,
		Currency:    constants.CurrencyCNY,
		Status:      status,
		ExpiresAt:   &expiresAt,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func TestHandleRechargeExpireMarksPendingOrder(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	createWorkerTestOrder(t, db, "WR20260101000000000001", constants.RechargeStatusPending)

	task, err := queue.NewRechargeExpireTask(queue.RechargeExpirePayload{OutTradeNo: "WR20260101000000000001"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleRechargeExpire(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var order models.RechargeOrder
	if err := db.Where("out_trade_no = ?", "WR20260101000000000001").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != constants.RechargeStatusExpired {
		t.Fatalf("status want expired got %s", order.Status)
	}
}

func TestHandleRechargeExpireKeepsPaidOrder(t *testing.T) {
	consumer, db := setupWorkerTest(t)
	createWorkerTestOrder(t, db, "WR20260101000000000002", constants.RechargeStatusPaid)

	task, err := queue.NewRechargeExpireTask(queue.RechargeExpirePayload{OutTradeNo: "WR20260101000000000002"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleRechargeExpire(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var order models.RechargeOrder
	if err := db.Where("out_trade_no = ?", "WR20260101000000000002").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != constants.RechargeStatusPaid {
		t.Fatalf("status want paid got %s", order.Status)
	}
}

func TestHandleRechargeExpireUnknownOrderIsNoop(t *testing.T) {
	consumer, _ := setupWorkerTest(t)

	task, err := queue.NewRechargeExpireTask(queue.RechargeExpirePayload{OutTradeNo: "WR99999999999999999999"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleRechargeExpire(context.Background(), task); err != nil {
		t.Fatalf("unknown order should not fail the task: %v", err)
	}
}

func TestHandleRechargeExpireInvalidPayload(t *testing.T) {
	consumer, _ := setupWorkerTest(t)

	task := asynq.NewTask(queue.TaskRechargeExpire, []byte("{not json"))
	if err := consumer.handleRechargeExpire(context.Background(), task); err == nil {
		t.Fatalf("malformed payload should return error for retry visibility")
	}

	empty, err := queue.NewRechargeExpireTask(queue.RechargeExpirePayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleRechargeExpire(context.Background(), empty); err != nil {
		t.Fatalf("empty out_trade_no should be skipped, got %v", err)
	}
}
