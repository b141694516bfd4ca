package db_test

import (
	"testing"
	"time"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/testutil"
)

func loanRows(rows []db.ReportRow) []db.ReportRow {
	var out []db.ReportRow
	for _, r := range rows {
		if r.Operation == models.OpEmprestimo {
			out = append(out, r)
		}
	}
	return out
}

func TestMonthlyReportPendingLoan(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Clock.Set(2026, time.September, 10)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "10/09/2026")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rows, err := env.Repo.MonthlyReport(ctx, 2026, 9)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected the loan and the registration, got %d rows", len(rows))
	}
	loans := loanRows(rows)
	if len(loans) != 1 {
		t.Fatalf("Expected 1 loan row, got %d", len(loans))
	}
	if loans[0].Situacao != db.LoanPendente {
		t.Errorf("Expected Pendente, got %s", loans[0].Situacao)
	}
	if loans[0].Usuario != "Maria Souza" || loans[0].Item.NotaFiscal != "000000001" {
		t.Errorf("Unexpected row: %+v", loans[0])
	}
	if loans[0].ConfirmadoEm != nil || loans[0].DevolvidoEm != nil {
		t.Errorf("Expected no follow-up dates on a pending loan, got %+v", loans[0])
	}

	rows, err = env.Repo.MonthlyReport(ctx, 2026, 8)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected an empty August, got %d rows", len(rows))
	}
}

func TestMonthlyReportClassification(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Clock.Set(2026, time.September, 1)
	pending := testutil.SeedItem(t, env.Repo, "000000001")
	confirmed := testutil.SeedItem(t, env.Repo, "000000002")
	returned := testutil.SeedItem(t, env.Repo, "000000003")
	reversed := testutil.SeedItem(t, env.Repo, "000000004")

	env.Clock.Set(2026, time.September, 12)
	for _, id := range []uint{pending.ID, confirmed.ID, returned.ID} {
		if _, err := env.Repo.Issue(ctx, testutil.IssueInput(id, "05/09/2026")); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}
	res, err := env.Repo.Issue(ctx, testutil.IssueInput(reversed.ID, "06/09/2026"))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := env.Repo.Reverse(ctx, res.Entry.ID, "gestor"); err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}
	for _, id := range []uint{confirmed.ID, returned.ID} {
		if _, err := env.Repo.ConfirmLoan(ctx, id, "tester", "t.pdf"); err != nil {
			t.Fatalf("ConfirmLoan failed: %v", err)
		}
	}
	env.Clock.Set(2026, time.October, 2)
	if _, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: returned.ID, Operator: "tester", Date: "01/10/2026"}); err != nil {
		t.Fatalf("InitiateReturn failed: %v", err)
	}

	rows, err := env.Repo.MonthlyReport(ctx, 2026, 9)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	loans := loanRows(rows)
	if len(loans) != 3 {
		t.Fatalf("Expected 3 loans (the reversed one left out), got %d", len(loans))
	}
	want := map[uint]string{
		pending.ID:   db.LoanPendente,
		confirmed.ID: db.LoanConfirmado,
		returned.ID:  db.LoanDevolvido,
	}
	for _, r := range loans {
		if got := r.Situacao; got != want[*r.ItemID] {
			t.Errorf("Item %d: expected %s, got %s", *r.ItemID, want[*r.ItemID], got)
		}
	}
	last := loans[2]
	if *last.ItemID != returned.ID {
		t.Fatalf("Expected rows ordered by date then item, got item %d last", *last.ItemID)
	}
	if last.DevolvidoEm == nil || !last.DevolvidoEm.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected the return date, got %v", last.DevolvidoEm)
	}
	if last.ConfirmadoEm == nil {
		t.Error("Expected the confirmation date on a returned loan")
	}

	cadastros := 0
	for _, r := range rows {
		if r.Operation == models.OpCadastro {
			cadastros++
			if r.Situacao != db.ItemCadastrado {
				t.Errorf("Expected Cadastrado, got %s", r.Situacao)
			}
		}
	}
	if cadastros != 4 {
		t.Errorf("Expected 4 registrations, got %d", cadastros)
	}
}

func TestMonthlyReportStopsAtNextLoan(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Clock.Set(2026, time.September, 1)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	lend(t, env, it.ID)
	env.Clock.Set(2026, time.September, 3)
	giveBack(t, env, it.ID)
	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rows, err := env.Repo.MonthlyReport(ctx, 2026, 9)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	loans := loanRows(rows)
	if len(loans) != 2 {
		t.Fatalf("Expected 2 loans, got %d", len(loans))
	}
	if loans[0].Situacao != db.LoanDevolvido || loans[1].Situacao != db.LoanPendente {
		t.Errorf("Expected Devolvido then Pendente, got %s then %s", loans[0].Situacao, loans[1].Situacao)
	}
}

func TestMonthlyReportInvalidPeriod(t *testing.T) {
	env := testutil.NewEnv(t)
	_, err := env.Repo.MonthlyReport(ctx, 2026, 13)
	expectKind(t, err, apperr.KindValidation)
	_, err = env.Repo.DailyCounts(ctx, 2026, 0, models.OpEmprestimo)
	expectKind(t, err, apperr.KindValidation)
}

func TestDailyCounts(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Clock.Set(2026, time.September, 1)
	a := testutil.SeedItem(t, env.Repo, "000000001")
	b := testutil.SeedItem(t, env.Repo, "000000002")
	c := testutil.SeedItem(t, env.Repo, "000000003")

	env.Clock.Set(2026, time.September, 20)
	for _, tc := range []struct {
		id   uint
		date string
	}{{a.ID, "10/09/2026"}, {b.ID, "10/09/2026"}, {c.ID, "12/09/2026"}} {
		if _, err := env.Repo.Issue(ctx, testutil.IssueInput(tc.id, tc.date)); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}

	counts, err := env.Repo.DailyCounts(ctx, 2026, 9, models.OpEmprestimo)
	if err != nil {
		t.Fatalf("DailyCounts failed: %v", err)
	}
	if len(counts) != 30 {
		t.Fatalf("Expected 30 days, got %d", len(counts))
	}
	if counts[10] != 2 || counts[12] != 1 || counts[11] != 0 {
		t.Errorf("Unexpected counts: 10=%d 11=%d 12=%d", counts[10], counts[11], counts[12])
	}

	counts, err = env.Repo.DailyCounts(ctx, 2027, 2, models.OpEmprestimo)
	if err != nil {
		t.Fatalf("DailyCounts failed: %v", err)
	}
	if len(counts) != 28 {
		t.Errorf("Expected 28 days in February 2027, got %d", len(counts))
	}

	_, err = env.Repo.DailyCounts(ctx, 2026, 9, "Venda")
	expectKind(t, err, apperr.KindValidation)
}

// Late evening in a zone behind UTC is already the next day, and here the
// next month, in UTC. Reports follow the business zone.
func TestReportsUseBusinessLocation(t *testing.T) {
	env := testutil.NewEnv(t)
	brt := time.FixedZone("BRT", -3*60*60)
	evening := time.Date(2026, time.March, 31, 22, 30, 0, 0, brt)
	repo := db.NewRepo(env.DB,
		db.WithClock(func() time.Time { return evening }),
		db.WithLocation(brt),
		db.WithTermRenderer(env.Terms),
	)

	it := testutil.SeedItem(t, repo, "000000031")
	if _, err := repo.Issue(ctx, testutil.IssueInput(it.ID, "")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := repo.ConfirmLoan(ctx, it.ID, "tester", "termo_assinado/a.pdf"); err != nil {
		t.Fatalf("ConfirmLoan failed: %v", err)
	}

	march, err := repo.MonthlyReport(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	if len(march) != 2 {
		t.Fatalf("Expected the registration and the loan in March, got %d rows", len(march))
	}
	if loans := loanRows(march); len(loans) != 1 || loans[0].Situacao != db.LoanConfirmado {
		t.Fatalf("Expected one confirmed loan, got %+v", loans)
	}
	april, err := repo.MonthlyReport(ctx, 2026, 4)
	if err != nil {
		t.Fatalf("MonthlyReport failed: %v", err)
	}
	if len(april) != 0 {
		t.Fatalf("Expected nothing in April, got %d rows", len(april))
	}

	for _, op := range []models.Operation{models.OpCadastro, models.OpEmprestimo, models.OpConfirmacaoEmprestimo} {
		counts, err := repo.DailyCounts(ctx, 2026, 3, op)
		if err != nil {
			t.Fatalf("DailyCounts failed: %v", err)
		}
		if counts[31] != 1 {
			t.Errorf("Expected %s on 31/03, got %d", op, counts[31])
		}
		counts, err = repo.DailyCounts(ctx, 2026, 4, op)
		if err != nil {
			t.Fatalf("DailyCounts failed: %v", err)
		}
		if counts[1] != 0 {
			t.Errorf("Expected no %s on 01/04, got %d", op, counts[1])
		}
	}
}
