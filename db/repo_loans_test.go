package db_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/term"
	"Gin_postgres_redis_inventory/testutil"
)

func TestIssueAndConfirmLoan(t *testing.T) {
	env := testutil.NewEnv(t)

	it, err := env.Repo.RegisterItem(ctx, db.RegisterItemInput{
		Tipo: models.TypeCelular,
		Fields: models.ItemFields{
			Brand:         "Motorola",
			Identificador: "IMEI123",
			NotaFiscal:    "000000123",
			Revenda:       "Revalle Bonfim",
		},
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("RegisterItem failed: %v", err)
	}
	if it.Status != models.StatusDisponivel {
		t.Fatalf("Expected Disponível, got %s", it.Status)
	}

	res, err := env.Repo.Issue(ctx, db.IssueInput{
		ItemID:       it.ID,
		Usuario:      "Ana",
		CPF:          "111.444.777-35",
		CenterCost:   "101 - Puxada",
		SetorUsuario: "Setor X",
		Cargo:        "Analista",
		Revenda:      "Revalle Bonfim",
		Date:         "15/10/2026",
		Operator:     "tester",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !res.Pending || res.Message == "" {
		t.Errorf("Expected a pending result with a message, got %+v", res)
	}
	got := expectStatus(t, env, it.ID, models.StatusPendente)
	if got.AssignedTo == nil || *got.AssignedTo != "Ana" {
		t.Errorf("Expected assigned_to Ana, got %v", got.AssignedTo)
	}
	if got.CPF == nil || *got.CPF != testutil.ValidCPF {
		t.Errorf("Expected normalized CPF, got %v", got.CPF)
	}
	loan := lastOf(t, env, it.ID, models.OpEmprestimo)
	if loan.CenterCost != "101 - Puxada" || loan.SetorUsuario != "Setor X" || loan.Revenda != "Revalle Bonfim" {
		t.Errorf("Loan entry lost borrower fields: %+v", loan.Borrower)
	}
	if !loan.DataEvento.Equal(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected loan dated 15/10/2026, got %v", loan.DataEvento)
	}

	if _, err := env.Repo.ConfirmLoan(ctx, it.ID, "tester", "/tmp/term.pdf"); err != nil {
		t.Fatalf("ConfirmLoan failed: %v", err)
	}
	expectStatus(t, env, it.ID, models.StatusIndisponivel)
	conf := lastOf(t, env, it.ID, models.OpConfirmacaoEmprestimo)
	if conf.AnexoPath != "/tmp/term.pdf" || conf.Usuario != "Ana" {
		t.Errorf("Unexpected confirmation entry: %+v", conf)
	}
	checkInvariants(t, env)
}

func TestIssueFutureDate(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")

	_, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "16/10/2026"))
	expectKind(t, err, apperr.KindValidation)

	expectStatus(t, env, it.ID, models.StatusDisponivel)
	if es := entries(t, env, it.ID); len(es) != 1 {
		t.Fatalf("Expected only the Cadastro entry, got %d entries", len(es))
	}
}

func TestIssueDateValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")

	tests := []struct {
		name string
		date string
	}{
		{"malformed", "15.10.2026"},
		{"impossible day", "31/02/2026"},
		{"before registration", "14/10/2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, tt.date))
			expectKind(t, err, apperr.KindValidation)
			expectStatus(t, env, it.ID, models.StatusDisponivel)
		})
	}
}

func TestIssueFormValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")

	bad := testutil.IssueInput(it.ID, "")
	bad.CPF = "12345678900"
	_, err := env.Repo.Issue(ctx, bad)
	expectKind(t, err, apperr.KindValidation)

	bad = testutil.IssueInput(it.ID, "")
	bad.Usuario = "   "
	_, err = env.Repo.Issue(ctx, bad)
	expectKind(t, err, apperr.KindValidation)

	bad = testutil.IssueInput(it.ID, "")
	bad.Operator = ""
	_, err = env.Repo.Issue(ctx, bad)
	expectKind(t, err, apperr.KindValidation)

	_, err = env.Repo.Issue(ctx, testutil.IssueInput(9999, ""))
	expectKind(t, err, apperr.KindNotFound)
}

func TestIssueAlreadyLent(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, ""))
	expectKind(t, err, apperr.KindState)
	if !strings.Contains(err.Error(), "Maria Souza") {
		t.Errorf("Expected the borrower in the message, got %q", err.Error())
	}
}

func TestIssueConcurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[string]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, ""))
			key := "ok"
			if err != nil {
				key = apperr.KindOf(err).String()
			}
			mu.Lock()
			results[key]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if results["ok"] != 1 || results[apperr.KindState.String()] != n-1 {
		t.Fatalf("Expected 1 loan and %d state errors, got %v", n-1, results)
	}
	loans := 0
	for _, e := range entries(t, env, it.ID) {
		if e.Operation == models.OpEmprestimo {
			loans++
		}
	}
	if loans != 1 {
		t.Fatalf("Expected 1 Empréstimo entry, got %d", loans)
	}
	expectStatus(t, env, it.ID, models.StatusPendente)
	checkInvariants(t, env)
}

func TestLoanRoundTrip(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	before := mustItem(t, env, it.ID)

	lend(t, env, it.ID)
	env.Clock.Set(2026, time.October, 20)
	entry, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester", Date: "19/10/2026"})
	if err != nil {
		t.Fatalf("InitiateReturn failed: %v", err)
	}
	if entry.TermoPath == "" {
		t.Error("Expected the return term path on the entry")
	}
	if !entry.DataEvento.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected return dated 19/10/2026, got %v", entry.DataEvento)
	}
	expectStatus(t, env, it.ID, models.StatusPendenteDevolucao)

	if _, err := env.Repo.ConfirmReturn(ctx, it.ID, "tester", "devolucao_assinada/d.pdf"); err != nil {
		t.Fatalf("ConfirmReturn failed: %v", err)
	}
	after := expectStatus(t, env, it.ID, models.StatusDisponivel)
	if after.AssignedTo != nil || after.CPF != nil || after.DateIssued != nil {
		t.Errorf("Expected the assignment cleared, got %+v", after)
	}
	if after.ItemFields != before.ItemFields || !after.IsActive {
		t.Errorf("Item changed across the cycle: before %+v, after %+v", before.ItemFields, after.ItemFields)
	}

	var ops []models.Operation
	for _, e := range entries(t, env, it.ID) {
		ops = append(ops, e.Operation)
	}
	want := []models.Operation{
		models.OpCadastro, models.OpEmprestimo, models.OpConfirmacaoEmprestimo,
		models.OpDevolucao, models.OpConfirmacaoDevolucao,
	}
	if len(ops) != len(want) {
		t.Fatalf("Expected ledger %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("Expected ledger %v, got %v", want, ops)
		}
	}
	if len(env.Terms.Kinds) != 1 || env.Terms.Kinds[0] != term.KindReturn {
		t.Errorf("Expected one return term rendered, got %v", env.Terms.Kinds)
	}
	if got := env.Terms.Rendered[0].Borrower; got != "Maria Souza" {
		t.Errorf("Expected the borrower on the return term, got %q", got)
	}
	checkInvariants(t, env)
}

func TestLifecycleStepsNeedTheRightStatus(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")

	_, err := env.Repo.ConfirmLoan(ctx, it.ID, "tester", "t.pdf")
	expectKind(t, err, apperr.KindState)
	_, err = env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester"})
	expectKind(t, err, apperr.KindState)
	_, err = env.Repo.ConfirmReturn(ctx, it.ID, "tester", "d.pdf")
	expectKind(t, err, apperr.KindState)

	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	_, err = env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester"})
	expectKind(t, err, apperr.KindState)

	expectStatus(t, env, it.ID, models.StatusPendente)
	if len(env.Terms.Rendered) != 0 {
		t.Errorf("Expected no term rendered, got %d", len(env.Terms.Rendered))
	}
}

func TestConfirmationsNeedAttachments(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "")); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err := env.Repo.ConfirmLoan(ctx, it.ID, "tester", " ")
	expectKind(t, err, apperr.KindValidation)
	expectStatus(t, env, it.ID, models.StatusPendente)

	if _, err := env.Repo.ConfirmLoan(ctx, it.ID, "tester", "t.pdf"); err != nil {
		t.Fatalf("ConfirmLoan failed: %v", err)
	}
	if _, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester"}); err != nil {
		t.Fatalf("InitiateReturn failed: %v", err)
	}
	_, err = env.Repo.ConfirmReturn(ctx, it.ID, "tester", "")
	expectKind(t, err, apperr.KindValidation)
	expectStatus(t, env, it.ID, models.StatusPendenteDevolucao)
}

func TestInitiateReturnRenderFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	lend(t, env, it.ID)

	env.Terms.Err = apperr.IO(errors.New("disk full"), "Não foi possível gerar o termo.")
	_, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester"})
	expectKind(t, err, apperr.KindIO)

	expectStatus(t, env, it.ID, models.StatusIndisponivel)
	for _, e := range entries(t, env, it.ID) {
		if e.Operation == models.OpDevolucao {
			t.Fatal("Expected no Devolução entry after a failed render")
		}
	}
}

func TestInitiateReturnWithoutTemplates(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	lend(t, env, it.ID)

	env.Repo.Terms = nil
	_, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester"})
	expectKind(t, err, apperr.KindTemplateNotFound)
	_, err = env.Repo.GenerateLoanTerm(ctx, it.ID)
	expectKind(t, err, apperr.KindTemplateNotFound)
	expectStatus(t, env, it.ID, models.StatusIndisponivel)
}

func TestReturnDateBounds(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	lend(t, env, it.ID)
	env.Clock.Set(2026, time.October, 20)

	_, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester", Date: "14/10/2026"})
	expectKind(t, err, apperr.KindValidation)
	_, err = env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester", Date: "21/10/2026"})
	expectKind(t, err, apperr.KindValidation)
	expectStatus(t, env, it.ID, models.StatusIndisponivel)
}

func TestIssueNotBeforeLastReturn(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	lend(t, env, it.ID)

	env.Clock.Set(2026, time.October, 18)
	giveBack(t, env, it.ID)
	env.Clock.Set(2026, time.October, 20)

	_, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "17/10/2026"))
	expectKind(t, err, apperr.KindValidation)

	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "18/10/2026")); err != nil {
		t.Fatalf("Issue on the return day failed: %v", err)
	}
}

func TestIssueAfterBackdatedReturn(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	lend(t, env, it.ID)

	env.Clock.Set(2026, time.October, 18)
	if _, err := env.Repo.InitiateReturn(ctx, db.ReturnInput{ItemID: it.ID, Operator: "tester", Date: "16/10/2026"}); err != nil {
		t.Fatalf("InitiateReturn failed: %v", err)
	}
	env.Clock.Set(2026, time.October, 20)
	if _, err := env.Repo.ConfirmReturn(ctx, it.ID, "tester", "devolucao_assinada/d.pdf"); err != nil {
		t.Fatalf("ConfirmReturn failed: %v", err)
	}

	_, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "15/10/2026"))
	expectKind(t, err, apperr.KindValidation)

	// after the return date, before the signed return came in
	if _, err := env.Repo.Issue(ctx, testutil.IssueInput(it.ID, "17/10/2026")); err != nil {
		t.Fatalf("Issue after the return date failed: %v", err)
	}
}

func TestGenerateLoanTerm(t *testing.T) {
	env := testutil.NewEnv(t)
	it := testutil.SeedItem(t, env.Repo, "000000001")
	p := testutil.SeedPeripheral(t, env.Repo, "CHG-1")
	if _, err := env.Repo.LinkPeripheral(ctx, it.ID, p.ID, "tester"); err != nil {
		t.Fatalf("LinkPeripheral failed: %v", err)
	}

	_, err := env.Repo.GenerateLoanTerm(ctx, it.ID)
	expectKind(t, err, apperr.KindState)

	in := testutil.IssueInput(it.ID, "")
	in.Revenda = "Filial Norte"
	if _, err := env.Repo.Issue(ctx, in); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	path, err := env.Repo.GenerateLoanTerm(ctx, it.ID)
	if err != nil {
		t.Fatalf("GenerateLoanTerm failed: %v", err)
	}
	if path == "" {
		t.Fatal("Expected a term path")
	}
	if len(env.Terms.Kinds) != 1 || env.Terms.Kinds[0] != term.KindLoan {
		t.Fatalf("Expected one loan term, got %v", env.Terms.Kinds)
	}
	d := env.Terms.Rendered[0]
	if d.Borrower != "Maria Souza" || d.CPF != testutil.ValidCPF {
		t.Errorf("Unexpected borrower on term: %q %q", d.Borrower, d.CPF)
	}
	if d.Item.Revenda != "Filial Norte" {
		t.Errorf("Expected the loan revenda on the term, got %q", d.Item.Revenda)
	}
	if len(d.Peripherals) != 1 || d.Peripherals[0].ID != p.ID {
		t.Errorf("Expected the linked peripheral on the term, got %+v", d.Peripherals)
	}
	expectStatus(t, env, it.ID, models.StatusPendente)
}
