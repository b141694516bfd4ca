// models/history.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

const HistoryTable = "inv_history"

// Borrower is the loan snapshot copied onto ledger entries.
type Borrower struct {
	Usuario        string     `gorm:"size:200" json:"usuario"`
	CPF            string     `gorm:"size:11" json:"cpf"`
	Cargo          string     `gorm:"size:100" json:"cargo"`
	CenterCost     string     `gorm:"size:100" json:"center_cost"`
	SetorUsuario   string     `gorm:"size:100" json:"setor_usuario"`
	Revenda        string     `gorm:"size:100" json:"revenda"`
	DataEmprestimo *time.Time `json:"data_emprestimo,omitempty"`
}

func (b Borrower) Empty() bool { return b.Usuario == "" && b.CPF == "" }

// ItemSnapshot is frozen at write time so entries survive the item.
type ItemSnapshot struct {
	Tipo          ItemType `gorm:"column:item_tipo;size:20" json:"tipo"`
	Brand         string   `gorm:"column:item_brand;size:100" json:"brand"`
	Model         string   `gorm:"column:item_model;size:100" json:"model"`
	Identificador string   `gorm:"column:item_identificador;size:100" json:"identificador"`
	NotaFiscal    string   `gorm:"column:item_nota_fiscal;size:9" json:"nota_fiscal"`
}

// HistoryEntry is one append-only ledger row. Only IsReversed ever changes
// after insert, and only from false to true.
type HistoryEntry struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	ItemID       *uint       `gorm:"index" json:"item_id"`
	Item         *Item       `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	PeripheralID *uint       `gorm:"index" json:"peripheral_id"`
	Peripheral   *Peripheral `gorm:"constraint:OnDelete:SET NULL;" json:"-"`

	Operador     string    `gorm:"size:100;not null;index" json:"operador"`
	DataOperacao time.Time `gorm:"not null;index" json:"data_operacao"`
	// DataEvento is the business date of the operation: the loan date for
	// Empréstimo, the return date for Devolução, DataOperacao otherwise.
	DataEvento time.Time `gorm:"not null;index" json:"data_evento"`

	Operation  Operation `gorm:"size:40;not null;index" json:"operation"`
	IsReversed bool      `gorm:"not null;index" json:"is_reversed"`
	ReversesID *uint     `gorm:"index" json:"reverses_id,omitempty"`

	Borrower     `gorm:"embedded"`
	ItemSnapshot `gorm:"embedded" json:"item"`

	TermoPath string            `gorm:"size:500" json:"termo_path,omitempty"`
	AnexoPath string            `gorm:"size:500" json:"anexo_path,omitempty"`
	Details   string            `gorm:"type:text" json:"details,omitempty"`
	Changes   datatypes.JSONMap `json:"changes,omitempty"`
}

func (HistoryEntry) TableName() string { return HistoryTable }

// Change keys stored in HistoryEntry.Changes.
const (
	ChangeUnlinkedPeripherals = "unlinked_peripherals"
	ChangeFields              = "fields"
	ChangeOldPeripheral       = "old_peripheral_id"
	ChangeNewPeripheral       = "new_peripheral_id"
)
