// Package term renders the responsibility (loan) and return agreements from
// per-branch .docx templates.
package term

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_inventory/models"
)

type Kind string

const (
	KindLoan   Kind = "emprestimo"
	KindReturn Kind = "devolucao"
)

// Data is what a term is filled with.
type Data struct {
	Item           models.Item
	Borrower       string
	CPF            string
	DataEmprestimo time.Time
	DataDevolucao  time.Time
	Peripherals    []models.Peripheral
	Now            time.Time
}

// Renderer produces a term file and returns its path.
type Renderer interface {
	Render(ctx context.Context, kind Kind, data Data) (string, error)
	// Remove deletes a rendered file whose operation did not commit.
	Remove(path string) error
}

// withSpace prefixes non empty values with a blank, so templates written as
// "Marca:{{marca}}" read naturally and collapse when the value is missing.
func withSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}

// Placeholders maps every {{key}} of a template to its value.
func Placeholders(d Data) map[string]string {
	out := map[string]string{}
	for col, v := range d.Item.Columns() {
		out["{{"+col+"}}"] = withSpace(v)
	}

	names := make([]string, 0, len(d.Peripherals))
	for _, p := range d.Peripherals {
		name := strings.TrimSpace(p.Tipo + " " + p.Brand + " " + p.Model)
		if p.Identificador != "" {
			name += " (" + p.Identificador + ")"
		}
		names = append(names, name)
	}

	out["{{nome}}"] = d.Borrower
	out["{{cpf}}"] = models.FormatCPF(d.CPF)
	out["{{data_hoje}}"] = models.FormatDate(d.Now)
	out["{{data_cadastro}}"] = models.FormatDate(d.Item.DateRegistered)
	out["{{data_emprestimo}}"] = models.FormatDate(d.DataEmprestimo)
	out["{{data_devolucao}}"] = models.FormatDate(d.DataDevolucao)
	out["{{marca}}"] = withSpace(d.Item.Brand)
	out["{{modelo}}"] = withSpace(d.Item.Model)
	out["{{identificador}}"] = withSpace(d.Item.Identificador)
	out["{{tipo}}"] = string(d.Item.Tipo)
	out["{{perifericos}}"] = strings.Join(names, ", ")
	return out
}

// FileName is termo_<id>_<user>_<revenda>_<timestamp>.docx for loans and
// devolucao_... for returns.
func FileName(kind Kind, d Data) string {
	prefix := "termo"
	if kind == KindReturn {
		prefix = "devolucao"
	}
	return fmt.Sprintf("%s_%d_%s_%s_%s.docx", prefix, d.Item.ID,
		safeName(d.Borrower), safeName(d.Item.Revenda), d.Now.Format("20060102_150405"))
}

func safeName(s string) string {
	r := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_", ":", "_")
	return r.Replace(strings.TrimSpace(s))
}
