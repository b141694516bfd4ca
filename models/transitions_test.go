package models

import (
	"testing"
	"time"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		action Action
		from   ItemStatus
		want   ItemStatus
		ok     bool
	}{
		{ActionIssue, StatusDisponivel, StatusPendente, true},
		{ActionConfirmLoan, StatusPendente, StatusIndisponivel, true},
		{ActionInitiateReturn, StatusIndisponivel, StatusPendenteDevolucao, true},
		{ActionConfirmReturn, StatusPendenteDevolucao, StatusDisponivel, true},
		{ActionIssue, StatusPendente, "", false},
		{ActionConfirmLoan, StatusDisponivel, "", false},
		{ActionInitiateReturn, StatusPendente, "", false},
		{ActionConfirmReturn, StatusIndisponivel, "", false},
		{"sell", StatusDisponivel, "", false},
	}
	for _, tt := range tests {
		got, ok := NextStatus(tt.action, tt.from)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NextStatus(%s, %s) = %q, %v; want %q, %v", tt.action, tt.from, got, ok, tt.want, tt.ok)
		}
	}
}

func TestReversalUndoesTransition(t *testing.T) {
	for _, action := range []Action{ActionIssue, ActionConfirmLoan, ActionInitiateReturn, ActionConfirmReturn} {
		op := OperationFor(action)
		target, ok := ReversalFor(op)
		if !ok {
			t.Fatalf("Expected %s to be reversible", op)
		}
		to, _ := NextStatus(action, RequiredStatus(action))
		if target.Produced != to || target.Restored != RequiredStatus(action) {
			t.Errorf("%s: reversal %+v does not mirror %s -> %s", op, target, RequiredStatus(action), to)
		}
	}

	for _, op := range []Operation{OpEdicao, OpExclusao, OpEstorno, OpVinculoPeriferico, OpSubstituicaoPeriferico} {
		if _, ok := ReversalFor(op); ok {
			t.Errorf("Expected %s to be irreversible", op)
		}
	}
}

func TestConsistent(t *testing.T) {
	name, cpf := "Ana", "11144477735"
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	it := Item{Status: StatusDisponivel}
	if !it.Consistent() {
		t.Error("Available item without assignment should be consistent")
	}
	it.AssignedTo = &name
	if it.Consistent() {
		t.Error("Available item with a borrower should not be consistent")
	}
	it = Item{Status: StatusIndisponivel, AssignedTo: &name, CPF: &cpf, DateIssued: &now}
	if !it.Consistent() {
		t.Error("Lent item with assignment should be consistent")
	}
	it.CPF = nil
	if it.Consistent() {
		t.Error("Lent item with a partial assignment should not be consistent")
	}
}

func TestRolePermissions(t *testing.T) {
	if !RoleGestor.CanReverse() || RoleTecnico.CanReverse() {
		t.Error("Only Gestor reverses")
	}
	if !RoleTecnico.CanReadHistory() || RoleJovemAprendiz.CanReadHistory() {
		t.Error("Jovem Aprendiz must not read history")
	}
	if RoleTecnico.CanDelete() || RoleJovemAprendiz.CanManageUsers() {
		t.Error("Only Gestor deletes and manages operators")
	}
}
