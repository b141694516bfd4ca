package term

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/logs"

	"github.com/nguyenthenguyen/docx"
)

// DocxRenderer fills .docx templates chosen by the item's revenda.
type DocxRenderer struct {
	OutputDir       string
	Templates       map[string]string // revenda -> loan template
	ReturnTemplates map[string]string // revenda -> return template

	now func() time.Time
}

func NewDocxRenderer(outputDir string, loan, ret map[string]string) *DocxRenderer {
	return &DocxRenderer{OutputDir: outputDir, Templates: loan, ReturnTemplates: ret, now: time.Now}
}

func (r *DocxRenderer) template(kind Kind, revenda string) (string, bool) {
	set := r.Templates
	if kind == KindReturn && len(r.ReturnTemplates) > 0 {
		set = r.ReturnTemplates
	}
	p, ok := set[revenda]
	if !ok {
		// viper lowercases map keys read from config
		p, ok = set[strings.ToLower(revenda)]
	}
	return p, ok && p != ""
}

func (r *DocxRenderer) Render(ctx context.Context, kind Kind, d Data) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.IO(err, "Geração do termo cancelada.")
	}
	if d.Now.IsZero() {
		d.Now = r.now()
	}

	tpl, ok := r.template(kind, d.Item.Revenda)
	if !ok {
		return "", apperr.TemplateNotFound("Modelo de termo não encontrado para %s.", d.Item.Revenda)
	}
	if _, err := os.Stat(tpl); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.TemplateNotFound("Modelo de termo não encontrado para %s.", d.Item.Revenda)
		}
		return "", apperr.IO(err, "Falha ao ler o modelo de termo.")
	}

	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", apperr.IO(err, "Falha ao criar a pasta de termos.")
	}
	out := filepath.Join(r.OutputDir, FileName(kind, d))
	if err := renderFile(tpl, out, Placeholders(d)); err != nil {
		_ = os.Remove(out)
		logs.Logger.WithError(err).WithField("template", tpl).Error("term render failed")
		return "", apperr.IO(err, "Falha ao gerar o termo.")
	}
	return out, nil
}

func (r *DocxRenderer) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// renderFile writes a copy of src with every placeholder replaced, in the
// body as well as in headers and footers. Placeholders must sit in a single
// run; Word keeps "{{nome}}" whole when it is typed in one go.
func renderFile(src, dst string, values map[string]string) error {
	tpl, err := docx.ReadDocxFile(src)
	if err != nil {
		return err
	}
	defer tpl.Close()

	doc := tpl.Editable()
	for k, v := range values {
		if err := doc.Replace(k, v, -1); err != nil {
			return err
		}
		if err := doc.ReplaceHeader(k, v); err != nil {
			return err
		}
		if err := doc.ReplaceFooter(k, v); err != nil {
			return err
		}
	}
	return doc.WriteToFile(dst)
}
