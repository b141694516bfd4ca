// models/enums.go
package models

type ItemStatus string

const (
	StatusDisponivel        ItemStatus = "Disponível"
	StatusPendente          ItemStatus = "Pendente"
	StatusIndisponivel      ItemStatus = "Indisponível"
	StatusPendenteDevolucao ItemStatus = "Pendente Devolução"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case StatusDisponivel, StatusPendente, StatusIndisponivel, StatusPendenteDevolucao:
		return true
	}
	return false
}

// Assigned reports whether an item in this status carries a borrower.
func (s ItemStatus) Assigned() bool { return s.Valid() && s != StatusDisponivel }

type ItemType string

const (
	TypeCelular    ItemType = "Celular"
	TypeTablet     ItemType = "Tablet"
	TypeNotebook   ItemType = "Notebook"
	TypeDesktop    ItemType = "Desktop"
	TypeImpressora ItemType = "Impressora"
	TypeSwitch     ItemType = "Switch"
	TypeHD         ItemType = "HD"
)

var ItemTypes = []ItemType{TypeCelular, TypeTablet, TypeNotebook, TypeDesktop, TypeImpressora, TypeSwitch, TypeHD}

func (t ItemType) Valid() bool {
	for _, v := range ItemTypes {
		if v == t {
			return true
		}
	}
	return false
}

type PeripheralStatus string

const (
	PeripheralDisponivel PeripheralStatus = "Disponível"
	PeripheralEmUso      PeripheralStatus = "Em Uso"
	PeripheralComDefeito PeripheralStatus = "Com Defeito"
)

func (s PeripheralStatus) Valid() bool {
	switch s {
	case PeripheralDisponivel, PeripheralEmUso, PeripheralComDefeito:
		return true
	}
	return false
}

type Operation string

const (
	OpCadastro               Operation = "Cadastro"
	OpEmprestimo             Operation = "Empréstimo"
	OpDevolucao              Operation = "Devolução"
	OpEdicao                 Operation = "Edição"
	OpExclusao               Operation = "Exclusão"
	OpEstorno                Operation = "Estorno"
	OpConfirmacaoEmprestimo  Operation = "Confirmação Empréstimo"
	OpConfirmacaoDevolucao   Operation = "Confirmação Devolução"
	OpCadastroPeriferico     Operation = "Cadastro Periférico"
	OpVinculoPeriferico      Operation = "Vínculo Periférico"
	OpDesvinculoPeriferico   Operation = "Desvínculo Periférico"
	OpSubstituicaoPeriferico Operation = "Substituição Periférico"
)

var Operations = []Operation{
	OpCadastro, OpEmprestimo, OpDevolucao, OpEdicao, OpExclusao, OpEstorno,
	OpConfirmacaoEmprestimo, OpConfirmacaoDevolucao,
	OpCadastroPeriferico, OpVinculoPeriferico, OpDesvinculoPeriferico, OpSubstituicaoPeriferico,
}

func (o Operation) Valid() bool {
	for _, v := range Operations {
		if v == o {
			return true
		}
	}
	return false
}

// Role is the operator profile.
type Role string

const (
	RoleGestor        Role = "Gestor"
	RoleTecnico       Role = "Técnico"
	RoleJovemAprendiz Role = "Jovem Aprendiz"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGestor, RoleTecnico, RoleJovemAprendiz:
		return true
	}
	return false
}

func (r Role) CanDelete() bool      { return r == RoleGestor }
func (r Role) CanReadHistory() bool { return r == RoleGestor || r == RoleTecnico }
func (r Role) CanReverse() bool     { return r == RoleGestor }
func (r Role) CanManageUsers() bool { return r == RoleGestor }

// AttachmentCategory names the directory an uploaded document lands in.
type AttachmentCategory string

const (
	AttachmentRemocao           AttachmentCategory = "remocao"
	AttachmentTermoAssinado     AttachmentCategory = "termo_assinado"
	AttachmentDevolucaoAssinada AttachmentCategory = "devolucao_assinada"
)

func (c AttachmentCategory) Valid() bool {
	switch c {
	case AttachmentRemocao, AttachmentTermoAssinado, AttachmentDevolucaoAssinada:
		return true
	}
	return false
}
