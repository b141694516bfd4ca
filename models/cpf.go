package models

import (
	"strings"

	"Gin_postgres_redis_inventory/apperr"

	"github.com/go-playground/validator/v10"
)

const CPFLength = 11

func init() {
	_ = apperr.Validator().RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && IsCPFValid(OnlyDigits(s))
	})
}

// OnlyDigits strips everything but 0-9, so masked input ("111.444.777-35")
// can be stored bare.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsCPFValid(cpf string) bool {
	if len(cpf) != CPFLength {
		return false
	}
	for _, r := range cpf {
		if r < '0' || r > '9' {
			return false
		}
	}
	// 000.000.000-00, 111.111.111-11... pass the checksum but are not real
	if hasAllSameDigits(cpf) {
		return false
	}
	return calculateCPFDigit(cpf[:9], 10) == int(cpf[9]-'0') &&
		calculateCPFDigit(cpf[:10], 11) == int(cpf[10]-'0')
}

func hasAllSameDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func calculateCPFDigit(base string, weight int) int {
	sum := 0
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * (weight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// FormatCPF renders 000.000.000-00; anything that is not 11 digits is
// returned as is.
func FormatCPF(cpf string) string {
	d := OnlyDigits(cpf)
	if len(d) != CPFLength {
		return cpf
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}
