// models/item.go
package models

import "time"

const ItemTable = "inv_items"

// ItemFields are the descriptive columns of an item. Which of them apply
// depends on the item type, see SpecFor.
type ItemFields struct {
	Brand         string `gorm:"size:100" json:"brand"`
	Model         string `gorm:"size:100" json:"model"`
	Identificador string `gorm:"size:100;index" json:"identificador"` // serial / IMEI
	NotaFiscal    string `gorm:"size:9;index" json:"nota_fiscal"`
	Fornecedor    string `gorm:"size:150" json:"fornecedor"`
	Revenda       string `gorm:"size:100;index" json:"revenda"`

	// rede
	Dominio          string `gorm:"size:100" json:"dominio"`
	Host             string `gorm:"size:100" json:"host"`
	IP               string `gorm:"size:45" json:"ip"`
	MAC              string `gorm:"size:32" json:"mac"`
	Poe              string `gorm:"size:10" json:"poe"`
	QuantidadePortas string `gorm:"size:10" json:"quantidade_portas"`

	// hardware
	CPU     string `gorm:"size:100" json:"cpu"`
	RAM     string `gorm:"size:50" json:"ram"`
	Storage string `gorm:"size:50" json:"storage"`
	Sistema string `gorm:"size:100" json:"sistema"`
	Licenca string `gorm:"size:100" json:"licenca"`
	Anydesk string `gorm:"size:50" json:"anydesk"`

	// local
	EnderecoFisico string `gorm:"size:150" json:"endereco_fisico"`
	Setor          string `gorm:"size:100" json:"setor"`
}

// Columns flattens the fields into placeholder name -> value, keyed by
// column name.
func (f ItemFields) Columns() map[string]string {
	return map[string]string{
		"brand":             f.Brand,
		"model":             f.Model,
		"identificador":     f.Identificador,
		"nota_fiscal":       f.NotaFiscal,
		"fornecedor":        f.Fornecedor,
		"revenda":           f.Revenda,
		"dominio":           f.Dominio,
		"host":              f.Host,
		"ip":                f.IP,
		"mac":               f.MAC,
		"poe":               f.Poe,
		"quantidade_portas": f.QuantidadePortas,
		"cpu":               f.CPU,
		"ram":               f.RAM,
		"storage":           f.Storage,
		"sistema":           f.Sistema,
		"licenca":           f.Licenca,
		"anydesk":           f.Anydesk,
		"endereco_fisico":   f.EnderecoFisico,
		"setor":             f.Setor,
	}
}

// Diff lists the columns whose value changes from f to g as
// column -> [old, new].
func (f ItemFields) Diff(g ItemFields) map[string][2]string {
	out := map[string][2]string{}
	a, b := f.Columns(), g.Columns()
	for k, old := range a {
		if nv := b[k]; nv != old {
			out[k] = [2]string{old, nv}
		}
	}
	return out
}

type Item struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	Tipo       ItemType `gorm:"size:20;not null;index" json:"tipo"`
	ItemFields `gorm:"embedded"`

	Status ItemStatus `gorm:"size:30;not null;index" json:"status"`

	// Assignment, set iff Status is not Disponível.
	AssignedTo *string    `gorm:"size:200" json:"assigned_to"`
	CPF        *string    `gorm:"size:11" json:"cpf"`
	DateIssued *time.Time `json:"date_issued"`

	DateRegistered time.Time `gorm:"not null" json:"date_registered"`
	IsActive       bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Item) TableName() string { return ItemTable }

// Snapshot freezes the descriptive fields kept on every history entry.
func (it *Item) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		Tipo:          it.Tipo,
		Brand:         it.Brand,
		Model:         it.Model,
		Identificador: it.Identificador,
		NotaFiscal:    it.NotaFiscal,
	}
}

// Consistent checks the status/assignment coupling.
func (it *Item) Consistent() bool {
	assigned := it.AssignedTo != nil && it.CPF != nil && it.DateIssued != nil
	unassigned := it.AssignedTo == nil && it.CPF == nil && it.DateIssued == nil
	if it.Status.Assigned() {
		return assigned
	}
	return unassigned
}
