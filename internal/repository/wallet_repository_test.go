package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupWalletRepositoryTest(t *testing.T) (*GormWalletRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.WalletAccount{}, &models.WalletTransaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewWalletRepository(db), db
}

func TestDebitBalanceNeverNegative(t *testing.T) {
	repo, _ := setupWalletRepositoryTest(t)
	if err := repo.CreateAccount(&models.WalletAccount{UserID: 1, BalanceCents: 200, Currency: constants.CurrencyCNY}); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	rows, err := repo.DebitBalance(1, 200)
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected debit to hit, rows=%d", rows)
	}

	rows, err = repo.DebitBalance(1, 1)
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("empty balance must not be debited, rows=%d", rows)
	}

	account, err := repo.GetAccountByUserID(1)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.BalanceCents != 0 {
		t.Fatalf("unexpected balance: %d", account.BalanceCents)
	}
}

func TestCreditBalanceAccumulates(t *testing.T) {
	repo, _ := setupWalletRepositoryTest(t)
	if err := repo.CreateAccount(&models.WalletAccount{UserID: 2, BalanceCents: 0, Currency: constants.CurrencyCNY}); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		rows, err := repo.CreditBalance(2, 500)
		if err != nil || rows != 1 {
			t.Fatalf("credit failed: rows=%d err=%v", rows, err)
		}
	}
	account, err := repo.GetAccountByUserID(2)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.BalanceCents != 1500 {
		t.Fatalf("unexpected balance: %d", account.BalanceCents)
	}
}

func TestTransactionReferenceUnique(t *testing.T) {
	repo, _ := setupWalletRepositoryTest(t)
	txn := &models.WalletTransaction{
		UserID:      3,
		AccountID:   1,
		Type:        constants.WalletTxnTypeRecharge,
		Direction:   constants.WalletTxnDirectionIn,
		AmountCents: 1000,
		Currency:    constants.CurrencyCNY,
		Reference:   "recharge:1:paid",
	}
	if err := repo.CreateTransaction(txn); err != nil {
		t.Fatalf("create txn failed: %v", err)
	}
	dup := &models.WalletTransaction{
		UserID:      3,
		AccountID:   1,
		Type:        constants.WalletTxnTypeRecharge,
		Direction:   constants.WalletTxnDirectionIn,
		AmountCents: 1000,
		Currency:    constants.CurrencyCNY,
		Reference:   "recharge:1:paid",
	}
	if err := repo.CreateTransaction(dup); err == nil {
		t.Fatalf("expected unique violation for duplicate reference")
	}

	found, err := repo.GetTransactionByReference("recharge:1:paid")
	if err != nil {
		t.Fatalf("get by reference failed: %v", err)
	}
	if found == nil || found.ID != txn.ID {
		t.Fatalf("unexpected transaction lookup result")
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	repo, _ := setupWalletRepositoryTest(t)
	for i := 1; i <= 3; i++ {
		txn := &models.WalletTransaction{
			UserID:      4,
			AccountID:   2,
			Type:        constants.WalletTxnTypeRecharge,
			Direction:   constants.WalletTxnDirectionIn,
			AmountCents: int64(i * 100),
			Currency:    constants.CurrencyCNY,
			Reference:   fmt.Sprintf("recharge:%d:paid", i),
		}
		if err := repo.CreateTransaction(txn); err != nil {
			t.Fatalf("create txn failed: %v", err)
		}
	}
	txns, total, err := repo.ListTransactions(WalletTransactionListFilter{UserID: 4, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(txns) != 2 {
		t.Fatalf("unexpected list result: total=%d len=%d", total, len(txns))
	}
	if txns[0].AmountCents != 300 {
		t.Fatalf("expected newest first, got %d", txns[0].AmountCents)
	}
}
