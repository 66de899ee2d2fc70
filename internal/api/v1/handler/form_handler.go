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

// FormHandler handles the public application form and its admin inbox
type FormHandler struct {
	formService service.FormSubmissionService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewFormHandler(formService service.FormSubmissionService, validate *validator.Validate, logger zerolog.Logger) *FormHandler {
	return &FormHandler{formService: formService, validate: validate, logger: logger}
}

// RegisterPublicRoutes mounts the unauthenticated form endpoint
func (h *FormHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/forms", h.submitForm)
}

// RegisterRoutes mounts the admin endpoints
func (h *FormHandler) RegisterRoutes(r chi.Router) {
	r.Get("/forms", h.listSubmissions)
	r.Get("/forms/{submissionId}", h.getSubmission)
	r.Put("/forms/{submissionId}/status", h.changeStatus)
	r.Post("/forms/{submissionId}/convert", h.convertSubmission)
}

// submitForm godoc
// @Summary Submit the application form
// @Tags forms
// @Accept json
// @Produce json
// @Param form body dto.FormSubmissionCreateDTO true "Application form"
// @Success 201 {object} dto.FormSubmissionAckDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Router /forms [post]
func (h *FormHandler) submitForm(w http.ResponseWriter, r *http.Request) {
	var req dto.FormSubmissionCreateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	s, err := h.formService.Submit(r.Context(), req.ToModel())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to submit form")
		return
	}
	writeJSON(w, http.StatusCreated, dto.FormSubmissionAckDTO{ID: s.ID, Status: string(s.Status)})
}

// listSubmissions godoc
// @Summary List form submissions
// @Tags forms
// @Produce json
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} dto.FormSubmissionResponseDTO
// @Router /forms [get]
func (h *FormHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
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
	subs, err := h.formService.List(r.Context(), model.SubmissionStatus(r.URL.Query().Get("status")), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list form submissions")
		return
	}
	resp := make([]dto.FormSubmissionResponseDTO, 0, len(subs))
	for i := range subs {
		resp = append(resp, dto.NewFormSubmissionResponse(&subs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getSubmission godoc
// @Summary Get a form submission
// @Tags forms
// @Produce json
// @Param submissionId path string true "Submission ID"
// @Success 200 {object} dto.FormSubmissionResponseDTO
// @Failure 404 {string} string "Submission not found"
// @Router /forms/{submissionId} [get]
func (h *FormHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	s, err := h.formService.Get(r.Context(), chi.URLParam(r, "submissionId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to retrieve form submission")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewFormSubmissionResponse(s))
}

// changeStatus godoc
// @Summary Change a form submission's status
// @Tags forms
// @Accept json
// @Produce json
// @Param submissionId path string true "Submission ID"
// @Param status body dto.FormSubmissionStatusDTO true "New status"
// @Success 200 {object} dto.FormSubmissionResponseDTO
// @Failure 422 {string} string "Transition not allowed"
// @Router /forms/{submissionId}/status [put]
func (h *FormHandler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.FormSubmissionStatusDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	s, err := h.formService.ChangeStatus(r.Context(), chi.URLParam(r, "submissionId"), model.SubmissionStatus(req.Status))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to change form submission status")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewFormSubmissionResponse(s))
}

// convertSubmission godoc
// @Summary Convert a form submission into a trial customer
// @Tags forms
// @Produce json
// @Param submissionId path string true "Submission ID"
// @Success 201 {object} dto.CustomerResponseDTO
// @Failure 404 {string} string "Submission not found"
// @Failure 422 {string} string "Submission already converted"
// @Router /forms/{submissionId}/convert [post]
func (h *FormHandler) convertSubmission(w http.ResponseWriter, r *http.Request) {
	c, err := h.formService.Convert(r.Context(), chi.URLParam(r, "submissionId"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to convert form submission")
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewCustomerResponse(c))
}
