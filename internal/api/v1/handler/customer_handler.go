package handler

import (
	"net/http"

	"backoffice/internal/api/v1/dto"
	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	customerService service.CustomerService
	validate        *validator.Validate
	logger          zerolog.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService service.CustomerService, validate *validator.Validate, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, validate: validate, logger: logger}
}

// RegisterRoutes mounts customer routes
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.listCustomers)
	r.Post("/customers", h.createCustomer)
	r.Get("/customers/{customerId}", h.getCustomer)
	r.Put("/customers/{customerId}", h.updateCustomer)
	r.Put("/customers/{customerId}/status", h.changeStatus)
	r.Get("/customers/{customerId}/quote", h.quote)
}

// listCustomers godoc
// @Summary List customers
// @Tags customers
// @Produce json
// @Param status query string false "Filter by status"
// @Param q query string false "Search organization, e-mail or contact name"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} dto.CustomerResponseDTO
// @Failure 400 {string} string "Invalid query"
// @Failure 500 {string} string "Failed to list customers"
// @Router /customers [get]
func (h *CustomerHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		http.Error(w, "Invalid offset", http.StatusBadRequest)
		return
	}
	filter := model.CustomerFilter{
		Status: model.CustomerStatus(r.URL.Query().Get("status")),
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}
	customers, err := h.customerService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list customers")
		return
	}
	resp := make([]dto.CustomerResponseDTO, 0, len(customers))
	for i := range customers {
		resp = append(resp, dto.NewCustomerResponse(&customers[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// createCustomer godoc
// @Summary Create a customer
// @Tags customers
// @Accept json
// @Produce json
// @Param customer body dto.CustomerCreateDTO true "Customer creation request"
// @Success 201 {object} dto.CustomerResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 500 {string} string "Failed to create customer"
// @Router /customers [post]
func (h *CustomerHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CustomerCreateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	c, err := h.customerService.Create(r.Context(), req.ToModel())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create customer")
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewCustomerResponse(c))
}

// getCustomer godoc
// @Summary Get a customer with its accounts
// @Tags customers
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {object} dto.CustomerResponseDTO
// @Failure 404 {string} string "Customer not found"
// @Failure 500 {string} string "Failed to retrieve customer"
// @Router /customers/{customerId} [get]
func (h *CustomerHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customerService.Get(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to retrieve customer")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCustomerResponse(c))
}

// updateCustomer godoc
// @Summary Update a customer
// @Description Overwrites the editable fields. The version must equal the one last read.
// @Tags customers
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param customer body dto.CustomerUpdateDTO true "Customer update request"
// @Success 200 {object} dto.CustomerResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 404 {string} string "Customer not found"
// @Failure 409 {string} string "Version conflict"
// @Router /customers/{customerId} [put]
func (h *CustomerHandler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CustomerUpdateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	c := req.ToModel()
	c.ID = chi.URLParam(r, "customerId")
	updated, err := h.customerService.Update(r.Context(), c, req.Version)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update customer")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// changeStatus godoc
// @Summary Change a customer's contract status
// @Tags customers
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param status body dto.StatusChangeDTO true "New status"
// @Success 200 {object} dto.CustomerResponseDTO
// @Failure 400 {string} string "Invalid status"
// @Failure 409 {string} string "Version conflict"
// @Router /customers/{customerId}/status [put]
func (h *CustomerHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusChangeDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	c, err := h.customerService.ChangeStatus(r.Context(), chi.URLParam(r, "customerId"), model.CustomerStatus(req.Status), req.Version)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to change customer status")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCustomerResponse(c))
}

// quote godoc
// @Summary Price the customer's billable accounts
// @Tags customers
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param billing_type query string false "monthly or yearly" default(monthly)
// @Success 200 {object} billing.Quote
// @Failure 404 {string} string "Customer not found"
// @Router /customers/{customerId}/quote [get]
func (h *CustomerHandler) quote(w http.ResponseWriter, r *http.Request) {
	bt := model.BillingType(r.URL.Query().Get("billing_type"))
	if bt == "" {
		bt = model.BillingTypeMonthly
	}
	if bt != model.BillingTypeMonthly && bt != model.BillingTypeYearly {
		http.Error(w, "Invalid billing_type", http.StatusBadRequest)
		return
	}
	q, err := h.customerService.Quote(r.Context(), chi.URLParam(r, "customerId"), bt)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to quote customer")
		return
	}
	writeJSON(w, http.StatusOK, q)
}
