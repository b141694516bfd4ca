package models

import (
	"testing"
	"time"

	"Gin_postgres_redis_inventory/apperr"
)

func computer() ItemFields {
	return ItemFields{
		Brand: "Dell", Model: "Latitude", Identificador: "SN-1", NotaFiscal: "123456789", Revenda: "Matriz",
		Dominio: "corp", Host: "nb-01", EnderecoFisico: "Sala 2", Storage: "512GB", Sistema: "Windows 11",
		CPU: "i5", RAM: "16GB", Licenca: "OEM", Anydesk: "123 456 789",
	}
}

func TestSpecFor(t *testing.T) {
	tests := []struct {
		name  string
		tipo  ItemType
		edit  func(*ItemFields)
		valid bool
	}{
		{"notebook", TypeNotebook, func(*ItemFields) {}, true},
		{"desktop", TypeDesktop, func(*ItemFields) {}, true},
		{"notebook without anydesk", TypeNotebook, func(f *ItemFields) { f.Anydesk = " " }, false},
		{"nota fiscal with letters", TypeNotebook, func(f *ItemFields) { f.NotaFiscal = "12345678A" }, false},
		{"printer without ip", TypeImpressora, func(f *ItemFields) { f.Setor = "TI"; f.MAC = "aa:bb" }, false},
		{"printer", TypeImpressora, func(f *ItemFields) { f.IP = "10.0.0.9"; f.Setor = "TI"; f.MAC = "aa:bb" }, true},
		{"switch ports not numeric", TypeSwitch, func(f *ItemFields) { f.Poe = "Sim"; f.QuantidadePortas = "vinte" }, false},
		{"switch", TypeSwitch, func(f *ItemFields) { f.Poe = "Sim"; f.QuantidadePortas = "24" }, true},
		{"tablet", TypeTablet, func(*ItemFields) {}, true},
		{"hd", TypeHD, func(f *ItemFields) { f.Identificador = "" }, true},
		{"no revenda", TypeHD, func(f *ItemFields) { f.Revenda = "" }, false},
		{"unknown", "Geladeira", func(*ItemFields) {}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := computer()
			tt.edit(&f)
			s, err := SpecFor(tt.tipo, f)
			if tt.valid {
				if err != nil {
					t.Fatalf("Expected valid, got %v", err)
				}
				if s.Type() != tt.tipo {
					t.Errorf("Expected type %s, got %s", tt.tipo, s.Type())
				}
				return
			}
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestSpecForKeepsOnlyKnownFields(t *testing.T) {
	s, err := SpecFor(TypeTablet, computer())
	if err != nil {
		t.Fatalf("SpecFor failed: %v", err)
	}
	f := s.Fields()
	if f.CPU != "" || f.Host != "" || f.Anydesk != "" {
		t.Errorf("Expected computer fields dropped on a tablet, got %+v", f)
	}
	if f.Storage != "512GB" || f.Identificador != "SN-1" {
		t.Errorf("Expected tablet fields kept, got %+v", f)
	}
}

func TestSpecForTrims(t *testing.T) {
	f := computer()
	f.Brand = "  Dell "
	s, err := SpecFor(TypeNotebook, f)
	if err != nil {
		t.Fatalf("SpecFor failed: %v", err)
	}
	if s.Fields().Brand != "Dell" {
		t.Errorf("Expected trimmed brand, got %q", s.Fields().Brand)
	}
}

func TestItemFieldsDiff(t *testing.T) {
	a := computer()
	b := a
	b.RAM = "32GB"
	d := a.Diff(b)
	if len(d) != 1 || d["ram"] != [2]string{"16GB", "32GB"} {
		t.Errorf("Unexpected diff: %v", d)
	}
}

func TestCPF(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"11144477735", true},
		{"12345678909", true},
		{"12345678900", false},
		{"11111111111", false},
		{"1114447773", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsCPFValid(tt.in); got != tt.valid {
			t.Errorf("IsCPFValid(%q) = %v, want %v", tt.in, got, tt.valid)
		}
	}
	if got := OnlyDigits("111.444.777-35"); got != "11144477735" {
		t.Errorf("OnlyDigits = %q", got)
	}
	if got := FormatCPF("11144477735"); got != "111.444.777-35" {
		t.Errorf("FormatCPF = %q", got)
	}
}

func TestDates(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	d, ok := ParseDate("05/03/2026", loc)
	if !ok || d.Day() != 5 || d.Month() != time.March || d.Location() != loc {
		t.Fatalf("ParseDate(05/03/2026) = %v, %v", d, ok)
	}
	if _, ok := ParseDate("2026-03-05", loc); !ok {
		t.Error("Expected ISO dates accepted")
	}
	for _, bad := range []string{"", "5/3/26", "32/01/2026", "ontem"} {
		if _, ok := ParseDate(bad, loc); ok {
			t.Errorf("Expected %q rejected", bad)
		}
	}

	late := time.Date(2026, 3, 6, 1, 30, 0, 0, time.UTC) // 22:30 on the 5th in BRT
	if got := FormatDate(Day(late, loc)); got != "05/03/2026" {
		t.Errorf("Expected the local day, got %s", got)
	}
	if FormatDate(time.Time{}) != "" {
		t.Error("Expected the zero time formatted empty")
	}
}
