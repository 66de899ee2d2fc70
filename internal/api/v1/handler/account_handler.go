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

// AccountHandler handles the seats linked to a customer
type AccountHandler struct {
	accountService service.AccountService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewAccountHandler(accountService service.AccountService, validate *validator.Validate, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, validate: validate, logger: logger}
}

// RegisterRoutes mounts account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/customers/{customerId}/accounts", func(r chi.Router) {
		r.Get("/", h.listAccounts)
		r.Post("/", h.linkAccount)
		r.Put("/{accountId}", h.updateAccount)
		r.Delete("/{accountId}", h.unlinkAccount)
		r.Put("/{accountId}/status", h.changeStatus)
		r.Put("/{accountId}/credential", h.storeCredential)
		r.Get("/{accountId}/credential", h.revealCredential)
	})
}

// listAccounts godoc
// @Summary List a customer's seats
// @Tags accounts
// @Produce json
// @Param customerId path string true "Customer ID"
// @Success 200 {array} dto.AccountResponseDTO
// @Failure 404 {string} string "Customer not found"
// @Router /customers/{customerId}/accounts [get]
func (h *AccountHandler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list accounts")
		return
	}
	resp := make([]dto.AccountResponseDTO, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, dto.NewAccountResponse(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// linkAccount godoc
// @Summary Link a seat to a customer
// @Tags accounts
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param account body dto.AccountLinkDTO true "Seat"
// @Success 201 {object} dto.AccountResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 404 {string} string "Customer not found"
// @Router /customers/{customerId}/accounts [post]
func (h *AccountHandler) linkAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.AccountLinkDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	a, err := h.accountService.Link(r.Context(), chi.URLParam(r, "customerId"), req.ToModel(), req.Credential)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to link account")
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewAccountResponse(a))
}

// updateAccount godoc
// @Summary Update a seat
// @Tags accounts
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param accountId path string true "Account ID"
// @Param account body dto.AccountUpdateDTO true "Seat"
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 409 {string} string "Version conflict"
// @Router /customers/{customerId}/accounts/{accountId} [put]
func (h *AccountHandler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.AccountUpdateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	a, err := h.accountService.Update(r.Context(), req.ToModel(chi.URLParam(r, "accountId")), req.Version)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update account")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccountResponse(a))
}

// unlinkAccount godoc
// @Summary Remove a seat
// @Tags accounts
// @Param customerId path string true "Customer ID"
// @Param accountId path string true "Account ID"
// @Success 204
// @Failure 404 {string} string "Account not found"
// @Router /customers/{customerId}/accounts/{accountId} [delete]
func (h *AccountHandler) unlinkAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accountService.Unlink(r.Context(), chi.URLParam(r, "accountId")); err != nil {
		writeServiceError(w, h.logger, err, "Failed to unlink account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changeStatus godoc
// @Summary Change a seat's status
// @Tags accounts
// @Accept json
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param accountId path string true "Account ID"
// @Param status body dto.StatusChangeDTO true "New status"
// @Success 200 {object} dto.AccountResponseDTO
// @Failure 409 {string} string "Version conflict"
// @Router /customers/{customerId}/accounts/{accountId}/status [put]
func (h *AccountHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusChangeDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	a, err := h.accountService.ChangeStatus(r.Context(), chi.URLParam(r, "accountId"), model.AccountStatus(req.Status), req.Version)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to change account status")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewAccountResponse(a))
}

// storeCredential godoc
// @Summary Store a seat's login credential
// @Tags accounts
// @Accept json
// @Param customerId path string true "Customer ID"
// @Param accountId path string true "Account ID"
// @Param credential body dto.CredentialDTO true "Credential"
// @Success 204
// @Failure 503 {string} string "Credential vault not configured"
// @Router /customers/{customerId}/accounts/{accountId}/credential [put]
func (h *AccountHandler) storeCredential(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if err := h.accountService.StoreCredential(r.Context(), chi.URLParam(r, "accountId"), req.Credential); err != nil {
		writeServiceError(w, h.logger, err, "Failed to store credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// revealCredential godoc
// @Summary Reveal a seat's login credential
// @Tags accounts
// @Produce json
// @Param customerId path string true "Customer ID"
// @Param accountId path string true "Account ID"
// @Success 200 {object} dto.CredentialDTO
// @Failure 404 {string} string "Account not found"
// @Router /customers/{customerId}/accounts/{accountId}/credential [get]
func (h *AccountHandler) revealCredential(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "accountId")
	secret, err := h.accountService.RevealCredential(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to reveal credential")
		return
	}
	h.logger.Info().Str("account_id", id).Msg("Account credential revealed")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, dto.CredentialDTO{Credential: secret})
}
