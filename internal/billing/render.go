package billing

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"

	"backoffice/internal/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var jst = time.FixedZone("JST", 9*60*60)

var yenPrinter = message.NewPrinter(language.Japanese)

// FormatYen renders an amount as ¥1,234.
func FormatYen(amount int64) string {
	return yenPrinter.Sprintf("¥%d", amount)
}

// FormatDate renders t as a Japanese calendar date in JST.
func FormatDate(t time.Time) string {
	return t.In(jst).Format("2006年1月2日")
}

func billingLabel(bt model.BillingType) string {
	if bt == model.BillingTypeYearly {
		return "一括"
	}
	return "月額"
}

var funcs = map[string]any{
	"yen":          FormatYen,
	"date":         FormatDate,
	"billingLabel": billingLabel,
}

var (
	textTmpl = template.Must(template.New("invoice.txt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/invoice.txt.tmpl"))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("invoice.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/invoice.html.tmpl"))
)

// Document is everything printed on an invoice.
type Document struct {
	Invoice    *model.Invoice
	Customer   *model.Customer
	Company    *model.CompanyInfo
	PaymentURL string
}

func (d Document) normalized() Document {
	if d.Invoice == nil {
		d.Invoice = &model.Invoice{}
	}
	if d.Customer == nil {
		d.Customer = &model.Customer{}
	}
	if d.Company == nil {
		d.Company = &model.CompanyInfo{}
	}
	return d
}

// RenderText renders the plain-text invoice.
func RenderText(d Document) (string, error) {
	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, d.normalized()); err != nil {
		return "", fmt.Errorf("render invoice text: %w", err)
	}
	return buf.String(), nil
}

// RenderHTML renders the HTML invoice used for e-mail and the stored document.
func RenderHTML(d Document) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, d.normalized()); err != nil {
		return "", fmt.Errorf("render invoice html: %w", err)
	}
	return buf.String(), nil
}
