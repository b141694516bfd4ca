package db_test

import (
	"context"
	"testing"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/testutil"
)

var ctx = context.Background()

func expectKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("Expected %s error, got %s: %v", kind, got, err)
	}
}

func mustItem(t *testing.T, env *testutil.Env, id uint) models.Item {
	t.Helper()
	var it models.Item
	if err := env.DB.First(&it, id).Error; err != nil {
		t.Fatalf("Failed to load item %d: %v", id, err)
	}
	return it
}

func mustPeripheral(t *testing.T, env *testutil.Env, id uint) models.Peripheral {
	t.Helper()
	var p models.Peripheral
	if err := env.DB.First(&p, id).Error; err != nil {
		t.Fatalf("Failed to load peripheral %d: %v", id, err)
	}
	return p
}

// entries returns the ledger of an item, oldest first.
func entries(t *testing.T, env *testutil.Env, itemID uint) []models.HistoryEntry {
	t.Helper()
	var es []models.HistoryEntry
	if err := env.DB.Where("item_id = ?", itemID).Order("id ASC").Find(&es).Error; err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	return es
}

func lastOf(t *testing.T, env *testutil.Env, itemID uint, op models.Operation) models.HistoryEntry {
	t.Helper()
	var e models.HistoryEntry
	if err := env.DB.Where("item_id = ? AND operation = ?", itemID, op).Order("id DESC").First(&e).Error; err != nil {
		t.Fatalf("No %s entry for item %d: %v", op, itemID, err)
	}
	return e
}

func expectStatus(t *testing.T, env *testutil.Env, id uint, want models.ItemStatus) models.Item {
	t.Helper()
	it := mustItem(t, env, id)
	if it.Status != want {
		t.Fatalf("Expected item %d to be %s, got %s", id, want, it.Status)
	}
	return it
}

// checkInvariants verifies the status/assignment coupling of every item
// and that a peripheral is Em Uso exactly when it is linked.
func checkInvariants(t *testing.T, env *testutil.Env) {
	t.Helper()
	var items []models.Item
	if err := env.DB.Find(&items).Error; err != nil {
		t.Fatalf("Failed to load items: %v", err)
	}
	for _, it := range items {
		if !it.Consistent() {
			t.Errorf("Item %d is %s but assigned_to=%v", it.ID, it.Status, it.AssignedTo)
		}
	}

	var ps []models.Peripheral
	if err := env.DB.Find(&ps).Error; err != nil {
		t.Fatalf("Failed to load peripherals: %v", err)
	}
	for _, p := range ps {
		var n int64
		env.DB.Model(&models.EquipmentPeripheral{}).Where("peripheral_id = ?", p.ID).Count(&n)
		if (p.Status == models.PeripheralEmUso) != (n == 1) {
			t.Errorf("Peripheral %d is %s with %d links", p.ID, p.Status, n)
		}
	}
}

// lend issues and confirms a loan dated today.
func lend(t *testing.T, env *testutil.Env, itemID uint) {
	t.Helper()
	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(itemID, "")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := env.Repo.ConfirmLoan(ctx, itemID, "tester", "termo_assinado/t.pdf"); err != nil {
		t.Fatalf("ConfirmLoan failed: %v", err)
	}
}

// giveBack runs both return steps dated today.
func giveBack(t *testing.T, env *testutil.Env, itemID uint) {
	t.Helper()
	if _, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: itemID, Operator: "tester"}); err != nil {
		t.Fatalf("InitiateReturn failed: %v", err)
	}
	if _, err := env.Repo.ConfirmReturn(ctx, itemID, "tester", "devolucao_assinada/d.pdf"); err != nil {
		t.Fatalf("ConfirmReturn failed: %v", err)
	}
}
