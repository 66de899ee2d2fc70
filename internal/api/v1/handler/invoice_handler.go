package handler

import (
	"net/http"
	"time"

	"backoffice/internal/api/v1/dto"
	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, validate *validator.Validate, logger zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, validate: validate, logger: logger}
}

// RegisterRoutes mounts invoice routes
func (h *InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/customers/{customerId}/invoices", h.generateInvoice)
	r.Get("/customers/{customerId}/invoices", h.listInvoices)
	r.Get("/invoices/{invoiceId}", h.getInvoice)
	r.Get("/invoices/{invoiceId}/document", h.getDocument)
	r.Post("/invoices/{invoiceId}/send", h.sendInvoice)
	r.Put("/invoices/{invoiceId}/status", h.changeStatus)
	r.Post("/invoices/{invoiceId}/payment-link", h.createPaymentLink)
}

// generateInvoice godoc
// @Summary Generate an invoice for a customer
// @Description Prices the customer's billable seats and stores a draft invoice. With send_email the invoice is mailed as well.
// @Tags invoices
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param invoice body dto.InvoiceGenerateDTO true "Generation request"
// @Success 201 {object} dto.InvoiceResponseDTO
// @Failure 400 {string} string "No billable accounts"
// @Failure 404 {string} string "Customer not found"
// @Failure 502 {string} string "Invoice stored as draft but the e-mail failed"
// @Router /customers/{customerId}/invoices [post]
func (h *InvoiceHandler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var req dto.InvoiceGenerateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	inv, err := h.invoiceService.Generate(r.Context(), chi.URLParam(r, "customerId"), model.BillingType(req.BillingType), issueDate, req.SendEmail)
	if err != nil {
		if inv != nil {
			h.logger.Warn().Err(err).Str("invoice_id", inv.ID).Msg("Invoice generated but not sent")
			writeJSON(w, statusFor(err), dto.NewInvoiceResponse(inv))
			return
		}
		writeServiceError(w, h.logger, err, "Failed to generate invoice")
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewInvoiceResponse(inv))
}

// listInvoices godoc
// @Summary List a customer's invoices
// @Tags invoices
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {array} dto.InvoiceResponseDTO
// @Router /customers/{customerId}/invoices [get]
func (h *InvoiceHandler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoiceService.ListByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list invoices")
		return
	}
	resp := make([]dto.InvoiceResponseDTO, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, dto.NewInvoiceResponse(&invoices[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getInvoice godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponseDTO
// @Failure 404 {string} string "Invoice not found"
// @Router /invoices/{invoiceId} [get]
func (h *InvoiceHandler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoiceService.Get(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to retrieve invoice")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewInvoiceResponse(inv))
}

// getDocument godoc
// @Summary Render an invoice document
// @Description format=text returns the plain-text invoice, format=html the printable page and format=url a presigned download link.
// @Tags invoices
// @Produce plain
// @Produce html
// @Produce json
// @Param invoiceId path string true "Invoice ID"
// @Param format query string false "text, html or url" default(text)
// @Success 200 {string} string "Invoice document"
// @Failure 404 {string} string "Invoice not found"
// @Failure 503 {string} string "Document storage not configured"
// @Router /invoices/{invoiceId}/document [get]
func (h *InvoiceHandler) getDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "invoiceId")
	format := r.URL.Query().Get("format")

	if format == "url" {
		url, err := h.invoiceService.DocumentURL(r.Context(), id)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to create document link")
			return
		}
		writeJSON(w, http.StatusOK, dto.URLResponseDTO{URL: url})
		return
	}

	body, err := h.invoiceService.Document(r.Context(), id, format)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to render invoice")
		return
	}
	if format == service.FormatHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// sendInvoice godoc
// @Summary E-mail a draft invoice to the customer
// @Tags invoices
// @Produce json
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponseDTO
// @Failure 422 {string} string "Invoice is not a draft"
// @Failure 502 {string} string "Failed to send invoice e-mail"
// @Router /invoices/{invoiceId}/send [post]
func (h *InvoiceHandler) sendInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoiceService.Send(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to send invoice e-mail; the invoice stays a draft")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewInvoiceResponse(inv))
}

// changeStatus godoc
// @Summary Mark an invoice paid or overdue
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoiceId path string true "Invoice ID"
// @Param status body dto.InvoiceStatusDTO true "New status"
// @Success 200 {object} dto.InvoiceResponseDTO
// @Failure 422 {string} string "Transition not allowed"
// @Router /invoices/{invoiceId}/status [put]
func (h *InvoiceHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.InvoiceStatusDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	inv, err := h.invoiceService.ChangeStatus(r.Context(), chi.URLParam(r, "invoiceId"), model.InvoiceStatus(req.Status))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to change invoice status")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewInvoiceResponse(inv))
}

// createPaymentLink godoc
// @Summary Create a card payment link for an invoice
// @Tags invoices
// @Produce json
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} dto.URLResponseDTO
// @Failure 422 {string} string "Invoice already settled"
// @Failure 503 {string} string "Payments not configured"
// @Router /invoices/{invoiceId}/payment-link [post]
func (h *InvoiceHandler) createPaymentLink(w http.ResponseWriter, r *http.Request) {
	url, err := h.invoiceService.CreatePaymentLink(r.Context(), chi.URLParam(r, "invoiceId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create payment link")
		return
	}
	writeJSON(w, http.StatusOK, dto.URLResponseDTO{URL: url})
}
