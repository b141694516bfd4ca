// Package report renders the monthly loan report as a spreadsheet.
package report

import (
	"fmt"
	"time"

	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/models"

	"github.com/xuri/excelize/v2"
)

const Sheet = "Relatório"

var headers = []string{
	"Data", "Operação", "Situação", "Tipo", "Marca", "Modelo", "Identificador", "Nota Fiscal",
	"Usuário", "CPF", "Cargo", "Centro de Custo", "Setor", "Revenda", "Operador",
	"Confirmado em", "Devolvido em",
}

var widths = []float64{12, 14, 12, 12, 14, 18, 20, 12, 24, 16, 16, 16, 14, 14, 14, 14, 14}

func date(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return models.FormatDate(t.In(loc))
}

// MonthlyWorkbook writes rows (as returned by Repo.MonthlyReport) into a
// single sheet workbook. Dates are shown in loc. The caller closes the file.
func MonthlyWorkbook(rows []db.ReportRow, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(Sheet, cell, h)
		f.SetCellStyle(Sheet, cell, cell, bold)
	}

	for i, r := range rows {
		data := r.Data
		values := []any{
			date(&data, loc), string(r.Operation), r.Situacao,
			string(r.Item.Tipo), r.Item.Brand, r.Item.Model, r.Item.Identificador, r.Item.NotaFiscal,
			r.Usuario, models.FormatCPF(r.CPF), r.Cargo, r.CenterCost, r.SetorUsuario, r.Revenda, r.Operador,
			date(r.ConfirmadoEm, loc), date(r.DevolvidoEm, loc),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(Sheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}

	total := len(rows) + 2
	f.SetCellValue(Sheet, fmt.Sprintf("A%d", total), "Total")
	f.SetCellValue(Sheet, fmt.Sprintf("B%d", total), len(rows))

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(Sheet, col, col, w)
	}
	return f, nil
}

// FileName is relatorio_<aaaa>_<mm>.xlsx.
func FileName(year, month int) string {
	return fmt.Sprintf("relatorio_%04d_%02d.xlsx", year, month)
}
