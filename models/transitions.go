// models/transitions.go
package models

// Action is a loan lifecycle step.
type Action string

const (
	ActionIssue          Action = "issue"
	ActionConfirmLoan    Action = "confirm_loan"
	ActionInitiateReturn Action = "initiate_return"
	ActionConfirmReturn  Action = "confirm_return"
)

type transition struct {
	from ItemStatus
	to   ItemStatus
	op   Operation
}

// The only legal lifecycle moves. Reversal undoes them through ReversalTargets.
var transitions = map[Action]transition{
	ActionIssue:          {from: StatusDisponivel, to: StatusPendente, op: OpEmprestimo},
	ActionConfirmLoan:    {from: StatusPendente, to: StatusIndisponivel, op: OpConfirmacaoEmprestimo},
	ActionInitiateReturn: {from: StatusIndisponivel, to: StatusPendenteDevolucao, op: OpDevolucao},
	ActionConfirmReturn:  {from: StatusPendenteDevolucao, to: StatusDisponivel, op: OpConfirmacaoDevolucao},
}

// NextStatus returns the status reached by applying action to an item in
// status from. ok is false when the move is illegal.
func NextStatus(action Action, from ItemStatus) (to ItemStatus, ok bool) {
	t, found := transitions[action]
	if !found || t.from != from {
		return "", false
	}
	return t.to, true
}

// RequiredStatus is the status an item must be in for action.
func RequiredStatus(action Action) ItemStatus { return transitions[action].from }

// OperationFor is the ledger operation written by action.
func OperationFor(action Action) Operation { return transitions[action].op }

// ReversalTarget describes how undoing an entry moves the item: it must
// currently be in Produced (the status the entry left it in) and goes back
// to Restored.
type ReversalTarget struct {
	Produced ItemStatus
	Restored ItemStatus
}

var reversalTargets = map[Operation]ReversalTarget{
	OpEmprestimo:            {Produced: StatusPendente, Restored: StatusDisponivel},
	OpConfirmacaoEmprestimo: {Produced: StatusIndisponivel, Restored: StatusPendente},
	OpDevolucao:             {Produced: StatusPendenteDevolucao, Restored: StatusIndisponivel},
	OpConfirmacaoDevolucao:  {Produced: StatusDisponivel, Restored: StatusPendenteDevolucao},
	OpCadastro:              {Produced: StatusDisponivel, Restored: StatusDisponivel},
}

// ReversalFor reports whether entries of op can be reversed.
func ReversalFor(op Operation) (ReversalTarget, bool) {
	t, ok := reversalTargets[op]
	return t, ok
}
