// Package apperr holds the error taxonomy shared by the stores, the state
// machine and the HTTP layer.
//
// Every error carries a Kind and a human readable message (pt-BR) that the
// caller may display verbatim. Raw storage errors never leak into Msg.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicate
	KindState
	KindNotFound
	KindAlreadyReversed
	KindNotReversible
	KindInconsistentState
	KindIO
	KindTemplateNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindAlreadyReversed:
		return "already_reversed"
	case KindNotReversible:
		return "not_reversible"
	case KindInconsistentState:
		return "inconsistent_state"
	case KindIO:
		return "io"
	case KindTemplateNotFound:
		return "template_not_found"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when the target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg != "" && t.Msg != e.Msg {
		return false
	}
	return t.Kind == e.Kind
}

// Code is the HTTP status the error maps to.
func (e *Error) Code() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicate, KindState, KindAlreadyReversed, KindInconsistentState:
		return http.StatusConflict
	case KindNotFound, KindTemplateNotFound:
		return http.StatusNotFound
	case KindNotReversible:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrInternal          = &Error{Kind: KindInternal}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrDuplicate         = &Error{Kind: KindDuplicate}
	ErrState             = &Error{Kind: KindState}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAlreadyReversed   = &Error{Kind: KindAlreadyReversed}
	ErrNotReversible     = &Error{Kind: KindNotReversible}
	ErrInconsistentState = &Error{Kind: KindInconsistentState}
	ErrIO                = &Error{Kind: KindIO}
	ErrTemplateNotFound  = &Error{Kind: KindTemplateNotFound}
)

func newf(k Kind, format string, args ...any) *Error {
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: k, Msg: format}
}

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func Duplicate(format string, args ...any) *Error  { return newf(KindDuplicate, format, args...) }
func State(format string, args ...any) *Error      { return newf(KindState, format, args...) }
func NotFound(format string, args ...any) *Error   { return newf(KindNotFound, format, args...) }
func AlreadyReversed(format string, args ...any) *Error {
	return newf(KindAlreadyReversed, format, args...)
}
func NotReversible(format string, args ...any) *Error {
	return newf(KindNotReversible, format, args...)
}
func Inconsistent(format string, args ...any) *Error {
	return newf(KindInconsistentState, format, args...)
}
func TemplateNotFound(format string, args ...any) *Error {
	return newf(KindTemplateNotFound, format, args...)
}

// IO wraps a collaborator failure; err is kept for logs only.
func IO(err error, format string, args ...any) *Error {
	e := newf(KindIO, format, args...)
	e.Err = err
	return e
}

// Internal hides err behind a generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "Erro interno ao acessar o banco de dados.", Err: err}
}

// KindOf reports the kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns err as *Error, wrapping unknown errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// requiredMessages are shown when a "required" rule fails on the field.
var requiredMessages = map[string]string{
	"tipo":              "Selecione o tipo do equipamento.",
	"brand":             "Informe a marca.",
	"identificador":     "Preencha o Identificador.",
	"nota_fiscal":       "Informe a nota fiscal.",
	"revenda":           "Preencha o campo Revenda.",
	"ip":                "Preencha o IP.",
	"setor":             "Preencha o setor.",
	"mac":               "Preencha o MAC.",
	"dominio":           "Informe o domínio.",
	"host":              "Informe o host.",
	"endereco_fisico":   "Informe o endereço físico.",
	"storage":           "Informe o armazenamento.",
	"sistema":           "Informe o sistema operacional.",
	"cpu":               "Informe a CPU.",
	"ram":               "Informe a memória RAM.",
	"licenca":           "Informe a licença.",
	"anydesk":           "Informe o AnyDesk.",
	"poe":               "Informe se o switch possui PoE.",
	"quantidade_portas": "Informe a quantidade de portas.",
	"usuario":           "Informe o nome do usuário.",
	"cpf":               "Informe o CPF.",
	"center_cost":       "Informe o centro de custo.",
	"cargo":             "Informe o cargo.",
	"date":              "Informe a data.",
	"username":          "Informe o usuário.",
	"password":          "Informe a senha.",
	"role":              "Informe o perfil.",
	"reason":            "Informe o motivo.",
}

// FromValidationError turns the first failed rule into a ValidationError.
// It returns nil when err is not a validator.ValidationErrors.
func FromValidationError(err error) *Error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return nil
	}
	fe := ve[0]
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[field]; ok {
			return Validation("%s", msg)
		}
		return Validation("O campo %s é obrigatório.", field)
	case "len", "numeric":
		if field == "nota_fiscal" {
			return Validation("A nota fiscal deve conter %d dígitos numéricos.", 9)
		}
		return Validation("Valor inválido para %s.", field)
	case "cpf":
		return Validation("CPF inválido.")
	case "oneof":
		return Validation("Valor inválido para %s (opções: %s).", field, strings.Join(oneofParams(fe.Param()), ", "))
	case "min":
		return Validation("O campo %s deve ter no mínimo %s caracteres.", field, fe.Param())
	case "max":
		return Validation("O campo %s deve ter no máximo %s caracteres.", field, fe.Param())
	case "ip":
		return Validation("IP inválido.")
	case "mac":
		return Validation("MAC inválido.")
	default:
		return Validation("Valor inválido para %s.", field)
	}
}

var oneofRe = regexp.MustCompile(`'[^']*'|\S+`)

// oneofParams splits a oneof parameter the way the validator does.
func oneofParams(p string) []string {
	vals := oneofRe.FindAllString(p, -1)
	for i, v := range vals {
		vals[i] = strings.Trim(v, "'")
	}
	return vals
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator is the shared validator. Field names in errors are the json
// names, so messages can be keyed by them.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

// Struct validates s and converts failures to a ValidationError.
func Struct(s any) error {
	if err := Validator().Struct(s); err != nil {
		if ve := FromValidationError(err); ve != nil {
			return ve
		}
		return Internal(err)
	}
	return nil
}
