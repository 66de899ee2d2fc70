package handler

import (
	"net/http"

	"backoffice/internal/api/v1/dto"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CompanyHandler handles the issuer settings and the product catalog
type CompanyHandler struct {
	companyService service.CompanyService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewCompanyHandler(companyService service.CompanyService, validate *validator.Validate, logger zerolog.Logger) *CompanyHandler {
	return &CompanyHandler{companyService: companyService, validate: validate, logger: logger}
}

// RegisterRoutes mounts company and product routes
func (h *CompanyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/company", h.getCompany)
	r.Put("/company", h.updateCompany)
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{productId}", h.updateProduct)
	r.Delete("/products/{productId}", h.deactivateProduct)
}

// getCompany godoc
// @Summary Get the company settings
// @Tags company
// @Produce json
// @Success 200 {object} dto.CompanyResponseDTO
// @Router /company [get]
func (h *CompanyHandler) getCompany(w http.ResponseWriter, r *http.Request) {
	info, err := h.companyService.Get(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to retrieve company settings")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCompanyResponse(info))
}

// updateCompany godoc
// @Summary Update the company settings
// @Tags company
// @Accept json
// @Produce json
// @Param company body dto.CompanyUpdateDTO true "Company settings"
// @Success 200 {object} dto.CompanyResponseDTO
// @Failure 409 {string} string "Version conflict"
// @Router /company [put]
func (h *CompanyHandler) updateCompany(w http.ResponseWriter, r *http.Request) {
	var req dto.CompanyUpdateDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	info, err := h.companyService.Update(r.Context(), req.ToModel(), req.Version)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update company settings")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCompanyResponse(info))
}

// listProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {array} dto.ProductResponseDTO
// @Router /products [get]
func (h *CompanyHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.companyService.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list products")
		return
	}
	resp := make([]dto.ProductResponseDTO, 0, len(products))
	for i := range products {
		resp = append(resp, dto.NewProductResponse(&products[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// createProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param product body dto.ProductDTO true "Product"
// @Success 201 {object} dto.ProductResponseDTO
// @Router /products [post]
func (h *CompanyHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	p, err := h.companyService.CreateProduct(r.Context(), req.ToModel())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewProductResponse(p))
}

// updateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param product body dto.ProductDTO true "Product"
// @Success 200 {object} dto.ProductResponseDTO
// @Failure 404 {string} string "Product not found"
// @Failure 409 {string} string "Version conflict"
// @Router /products/{productId} [put]
func (h *CompanyHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	p := req.ToModel()
	p.ID = chi.URLParam(r, "productId")
	updated, err := h.companyService.UpdateProduct(r.Context(), p, req.Version)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewProductResponse(updated))
}

// deactivateProduct godoc
// @Summary Deactivate a product
// @Description Products are never deleted since past invoices reference them.
// @Tags products
// @Param productId path string true "Product ID"
// @Success 204
// @Failure 404 {string} string "Product not found"
// @Router /products/{productId} [delete]
func (h *CompanyHandler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.companyService.DeactivateProduct(r.Context(), chi.URLParam(r, "productId")); err != nil {
		writeServiceError(w, h.logger, err, "Failed to deactivate product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
