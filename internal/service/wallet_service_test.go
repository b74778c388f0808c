package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupWalletServiceTest(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	// 单连接串行化事务，避免共享内存库并发写时报 busy
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	models.DB = db
	return NewWalletService(db, repository.NewWalletRepository(db)), db
}

func createWalletTestUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("wallet_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func TestWalletServiceGetAccountAutoCreate(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 101)

	account, err := svc.GetAccount(101)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.BalanceCents != 0 {
		t.Fatalf("expected zero balance, got %d", account.BalanceCents)
	}
	if account.Currency != constants.CurrencyCNY {
		t.Fatalf("expected CNY currency, got %s", account.Currency)
	}

	again, err := svc.GetAccount(101)
	if err != nil {
		t.Fatalf("get account again failed: %v", err)
	}
	if again.ID != account.ID {
		t.Fatalf("expected same account, got %d and %d", account.ID, again.ID)
	}
}

func TestWalletServiceCreditWritesLedger(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 102)

	account, txn, err := svc.Credit(WalletCreditInput{
		UserID:      102,
		AmountCents: 1000,
		Reference:   "recharge:1:paid",
		Remark:      "测试入账",
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if account.BalanceCents != 1000 {
		t.Fatalf("expected balance 1000, got %d", account.BalanceCents)
	}
	if txn.Direction != constants.WalletTxnDirectionIn {
		t.Fatalf("expected direction in, got %s", txn.Direction)
	}
	if txn.BalanceBeforeCents != 0 || txn.BalanceAfterCents != 1000 {
		t.Fatalf("unexpected ledger balances: before=%d after=%d", txn.BalanceBeforeCents, txn.BalanceAfterCents)
	}
	if txn.Type != constants.WalletTxnTypeRecharge {
		t.Fatalf("expected recharge txn type, got %s", txn.Type)
	}
}

func TestWalletServiceCreditDuplicateReference(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 103)

	if _, _, err := svc.Credit(WalletCreditInput{UserID: 103, AmountCents: 500, Reference: "recharge:9:paid"}); err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	account, txn, err := svc.Credit(WalletCreditInput{UserID: 103, AmountCents: 500, Reference: "recharge:9:paid"})
	if err != nil {
		t.Fatalf("duplicate credit failed: %v", err)
	}
	if account.BalanceCents != 500 {
		t.Fatalf("duplicate reference must credit once, balance=%d", account.BalanceCents)
	}
	if txn == nil || txn.Reference != "recharge:9:paid" {
		t.Fatalf("expected existing transaction returned")
	}

	var count int64
	if err := db.Model(&models.WalletTransaction{}).Where("user_id = ?", 103).Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single ledger row, got %d", count)
	}
}

func TestWalletServiceDebitInsufficientBalance(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 104)

	if _, _, err := svc.Credit(WalletCreditInput{UserID: 104, AmountCents: 100, Reference: "recharge:11:paid"}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	_, _, err := svc.Debit(WalletDebitInput{UserID: 104, AmountCents: 200, Reference: "task:1:publish_fee"})
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("expected insufficient balance error, got %v", err)
	}

	account, err := svc.GetAccount(104)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.BalanceCents != 100 {
		t.Fatalf("failed debit must not change balance, got %d", account.BalanceCents)
	}
	var count int64
	if err := db.Model(&models.WalletTransaction{}).Where("user_id = ? AND direction = ?", 104, constants.WalletTxnDirectionOut).Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed debit must not write ledger, got %d rows", count)
	}
}

func TestWalletServiceDebitWritesLedger(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 105)

	if _, _, err := svc.Credit(WalletCreditInput{UserID: 105, AmountCents: 1000, Reference: "recharge:12:paid"}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	account, txn, err := svc.Debit(WalletDebitInput{UserID: 105, AmountCents: 200, Reference: "task:2:publish_fee"})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if account.BalanceCents != 800 {
		t.Fatalf("expected balance 800, got %d", account.BalanceCents)
	}
	if txn.Direction != constants.WalletTxnDirectionOut {
		t.Fatalf("expected direction out, got %s", txn.Direction)
	}
	if txn.BalanceBeforeCents != 1000 || txn.BalanceAfterCents != 800 {
		t.Fatalf("unexpected ledger balances: before=%d after=%d", txn.BalanceBeforeCents, txn.BalanceAfterCents)
	}
	if txn.Type != constants.WalletTxnTypePublishFee {
		t.Fatalf("expected publish_fee txn type, got %s", txn.Type)
	}
}

func TestWalletServiceDebitDuplicateReference(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 106)

	if _, _, err := svc.Credit(WalletCreditInput{UserID: 106, AmountCents: 1000, Reference: "recharge:13:paid"}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if _, _, err := svc.Debit(WalletDebitInput{UserID: 106, AmountCents: 300, Reference: "task:3:publish_fee"}); err != nil {
		t.Fatalf("first debit failed: %v", err)
	}
	account, _, err := svc.Debit(WalletDebitInput{UserID: 106, AmountCents: 300, Reference: "task:3:publish_fee"})
	if err != nil {
		t.Fatalf("duplicate debit failed: %v", err)
	}
	if account.BalanceCents != 700 {
		t.Fatalf("duplicate reference must debit once, balance=%d", account.BalanceCents)
	}
}

func TestWalletServiceDebitConcurrentExactBalance(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 110)

	if _, _, err := svc.Credit(WalletCreditInput{UserID: 110, AmountCents: 1000, Reference: "recharge:30:paid"}); err != nil {
		t.Fatalf("credit failed: %v", err)
	}

	// 余额恰好够一笔，两路并发扣款只能成功一笔
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := svc.Debit(WalletDebitInput{
				UserID:      110,
				AmountCents: 1000,
				Reference:   fmt.Sprintf("task:%d:publish_fee", 30+i),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrWalletInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected debit error: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("expected exactly one successful debit, got %d ok / %d insufficient", succeeded, insufficient)
	}

	account, err := svc.GetAccount(110)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.BalanceCents != 0 {
		t.Fatalf("expected zero balance after concurrent debit, got %d", account.BalanceCents)
	}
	var count int64
	if err := db.Model(&models.WalletTransaction{}).Where("user_id = ? AND direction = ?", 110, constants.WalletTxnDirectionOut).Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single debit ledger row, got %d", count)
	}
}

func TestWalletServiceInvalidAmount(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 107)

	if _, _, err := svc.Credit(WalletCreditInput{UserID: 107, AmountCents: 0, Reference: "recharge:14:paid"}); !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
	if _, _, err := svc.Debit(WalletDebitInput{UserID: 107, AmountCents: -5, Reference: "task:4:publish_fee"}); !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("expected invalid amount error, got %v", err)
	}
}

func TestWalletServiceListTransactions(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 108)

	for i := 1; i <= 3; i++ {
		if _, _, err := svc.Credit(WalletCreditInput{
			UserID:      108,
			AmountCents: int64(i) * 100,
			Reference:   fmt.Sprintf("recharge:%d:paid", 20+i),
		}); err != nil {
			t.Fatalf("credit %d failed: %v", i, err)
		}
	}
	items, total, err := svc.ListTransactions(repository.WalletTransactionListFilter{UserID: 108, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}
