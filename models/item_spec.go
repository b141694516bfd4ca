// models/item_spec.go
package models

import (
	"Gin_postgres_redis_inventory/apperr"
	"strings"
)

// Spec is the type specific view of an item. Each variant carries only the
// fields its type knows and the rules for them.
type Spec interface {
	Type() ItemType
	Fields() ItemFields
}

// Common fields shared by every variant.
type Common struct {
	Brand      string `json:"brand" validate:"required"`
	Model      string `json:"model"`
	NotaFiscal string `json:"nota_fiscal" validate:"required,len=9,numeric"`
	Fornecedor string `json:"fornecedor"`
	Revenda    string `json:"revenda" validate:"required"`
}

func (c Common) fields() ItemFields {
	return ItemFields{
		Brand:      c.Brand,
		Model:      c.Model,
		NotaFiscal: c.NotaFiscal,
		Fornecedor: c.Fornecedor,
		Revenda:    c.Revenda,
	}
}

type PhoneSpec struct {
	Common
	Identificador string `json:"identificador" validate:"required"` // IMEI
}

func (PhoneSpec) Type() ItemType { return TypeCelular }
func (s PhoneSpec) Fields() ItemFields {
	f := s.Common.fields()
	f.Identificador = s.Identificador
	return f
}

type TabletSpec struct {
	Common
	Identificador string `json:"identificador" validate:"required"`
	Storage       string `json:"storage" validate:"required"`
}

func (TabletSpec) Type() ItemType { return TypeTablet }
func (s TabletSpec) Fields() ItemFields {
	f := s.Common.fields()
	f.Identificador = s.Identificador
	f.Storage = s.Storage
	return f
}

// ComputerSpec covers notebooks and desktops.
type ComputerSpec struct {
	Common
	Kind           ItemType `json:"-"`
	Identificador  string   `json:"identificador"`
	Dominio        string   `json:"dominio" validate:"required"`
	Host           string   `json:"host" validate:"required"`
	EnderecoFisico string   `json:"endereco_fisico" validate:"required"`
	Storage        string   `json:"storage" validate:"required"`
	Sistema        string   `json:"sistema" validate:"required"`
	CPU            string   `json:"cpu" validate:"required"`
	RAM            string   `json:"ram" validate:"required"`
	Licenca        string   `json:"licenca" validate:"required"`
	Anydesk        string   `json:"anydesk" validate:"required"`
	Setor          string   `json:"setor"`
}

func (s ComputerSpec) Type() ItemType { return s.Kind }
func (s ComputerSpec) Fields() ItemFields {
	f := s.Common.fields()
	f.Identificador = s.Identificador
	f.Dominio = s.Dominio
	f.Host = s.Host
	f.EnderecoFisico = s.EnderecoFisico
	f.Storage = s.Storage
	f.Sistema = s.Sistema
	f.CPU = s.CPU
	f.RAM = s.RAM
	f.Licenca = s.Licenca
	f.Anydesk = s.Anydesk
	f.Setor = s.Setor
	return f
}

type PrinterSpec struct {
	Common
	Identificador  string `json:"identificador"`
	IP             string `json:"ip" validate:"required"`
	Setor          string `json:"setor" validate:"required"`
	MAC            string `json:"mac" validate:"required"`
	EnderecoFisico string `json:"endereco_fisico"`
}

func (PrinterSpec) Type() ItemType { return TypeImpressora }
func (s PrinterSpec) Fields() ItemFields {
	f := s.Common.fields()
	f.Identificador = s.Identificador
	f.IP = s.IP
	f.Setor = s.Setor
	f.MAC = s.MAC
	f.EnderecoFisico = s.EnderecoFisico
	return f
}

type SwitchSpec struct {
	Common
	Identificador    string `json:"identificador"`
	Poe              string `json:"poe" validate:"required"`
	QuantidadePortas string `json:"quantidade_portas" validate:"required,numeric"`
	IP               string `json:"ip"`
	Setor            string `json:"setor"`
	EnderecoFisico   string `json:"endereco_fisico"`
}

func (SwitchSpec) Type() ItemType { return TypeSwitch }
func (s SwitchSpec) Fields() ItemFields {
	f := s.Common.fields()
	f.Identificador = s.Identificador
	f.Poe = s.Poe
	f.QuantidadePortas = s.QuantidadePortas
	f.IP = s.IP
	f.Setor = s.Setor
	f.EnderecoFisico = s.EnderecoFisico
	return f
}

type DiskSpec struct {
	Common
	Identificador string `json:"identificador"`
	Storage       string `json:"storage" validate:"required"`
}

func (DiskSpec) Type() ItemType { return TypeHD }
func (s DiskSpec) Fields() ItemFields {
	f := s.Common.fields()
	f.Identificador = s.Identificador
	f.Storage = s.Storage
	return f
}

// SpecFor builds the variant of tipo from raw fields and validates it.
// Fields the variant does not know are dropped.
func SpecFor(tipo ItemType, in ItemFields) (Spec, error) {
	f := trimFields(in)
	c := Common{
		Brand:      f.Brand,
		Model:      f.Model,
		NotaFiscal: f.NotaFiscal,
		Fornecedor: f.Fornecedor,
		Revenda:    f.Revenda,
	}

	var s Spec
	switch tipo {
	case TypeCelular:
		s = PhoneSpec{Identificador: f.Identificador, Common: c}
	case TypeTablet:
		s = TabletSpec{Identificador: f.Identificador, Storage: f.Storage, Common: c}
	case TypeNotebook, TypeDesktop:
		s = ComputerSpec{
			Kind:           tipo,
			Identificador:  f.Identificador,
			Dominio:        f.Dominio,
			Host:           f.Host,
			EnderecoFisico: f.EnderecoFisico,
			Storage:        f.Storage,
			Sistema:        f.Sistema,
			CPU:            f.CPU,
			RAM:            f.RAM,
			Licenca:        f.Licenca,
			Anydesk:        f.Anydesk,
			Setor:          f.Setor,
			Common:         c,
		}
	case TypeImpressora:
		s = PrinterSpec{Identificador: f.Identificador, IP: f.IP, Setor: f.Setor, MAC: f.MAC,
			EnderecoFisico: f.EnderecoFisico, Common: c}
	case TypeSwitch:
		s = SwitchSpec{Identificador: f.Identificador, Poe: f.Poe, QuantidadePortas: f.QuantidadePortas,
			IP: f.IP, Setor: f.Setor, EnderecoFisico: f.EnderecoFisico, Common: c}
	case TypeHD:
		s = DiskSpec{Identificador: f.Identificador, Storage: f.Storage, Common: c}
	default:
		return nil, apperr.Validation("Tipo de equipamento inválido: %q.", string(tipo))
	}

	if err := apperr.Struct(s); err != nil {
		return nil, err
	}
	return s, nil
}

func trimFields(f ItemFields) ItemFields {
	t := strings.TrimSpace
	return ItemFields{
		Brand:            t(f.Brand),
		Model:            t(f.Model),
		Identificador:    t(f.Identificador),
		NotaFiscal:       t(f.NotaFiscal),
		Fornecedor:       t(f.Fornecedor),
		Revenda:          t(f.Revenda),
		Dominio:          t(f.Dominio),
		Host:             t(f.Host),
		IP:               t(f.IP),
		MAC:              t(f.MAC),
		Poe:              t(f.Poe),
		QuantidadePortas: t(f.QuantidadePortas),
		CPU:              t(f.CPU),
		RAM:              t(f.RAM),
		Storage:          t(f.Storage),
		Sistema:          t(f.Sistema),
		Licenca:          t(f.Licenca),
		Anydesk:          t(f.Anydesk),
		EnderecoFisico:   t(f.EnderecoFisico),
		Setor:            t(f.Setor),
	}
}
