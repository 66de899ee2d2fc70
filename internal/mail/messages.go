package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"backoffice/internal/billing"
	"backoffice/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// SubmissionNotice tells the operator about a new form submission.
func SubmissionNotice(operator string, s *model.FormSubmission) (SendEmailParams, error) {
	body, err := render("submission_notice.html.tmpl", s)
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		SendTo:   operator,
		Subject:  fmt.Sprintf("【%s】%s / %s", s.Purpose, s.Organization, s.Name),
		BodyHTML: body,
		Tag:      "submission-notice",
	}, nil
}

// SubmissionConfirmation acknowledges a submission to the applicant.
func SubmissionConfirmation(support string, s *model.FormSubmission) (SendEmailParams, error) {
	body, err := render("submission_confirmation.html.tmpl", struct {
		*model.FormSubmission
		Support string
	}{s, support})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		SendTo:   s.Email,
		Subject:  "お問い合わせを受け付けました",
		BodyHTML: body,
		Tag:      "submission-confirmation",
	}, nil
}

// InvoiceMessage renders an invoice for e-mail delivery to the customer.
func InvoiceMessage(d billing.Document) (SendEmailParams, error) {
	if d.Invoice == nil || d.Customer == nil {
		return SendEmailParams{}, fmt.Errorf("%w: invoice and customer are required", ErrInvalidParams)
	}
	html, err := billing.RenderHTML(d)
	if err != nil {
		return SendEmailParams{}, err
	}
	text, err := billing.RenderText(d)
	if err != nil {
		return SendEmailParams{}, err
	}
	sender := "ChatGPT 販売代理店"
	if d.Company != nil && d.Company.Name != "" {
		sender = d.Company.Name
	}
	return SendEmailParams{
		SendTo:   d.Customer.Email,
		Subject:  fmt.Sprintf("【請求書】%s (%s)", d.Invoice.InvoiceNumber, sender),
		BodyHTML: html,
		BodyText: text,
		Tag:      "invoice",
	}, nil
}
