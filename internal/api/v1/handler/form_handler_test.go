package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formRouter(svc *stubForms) *chi.Mux {
	h := NewFormHandler(svc, newValidator(), zerolog.Nop())
	return newRouter(func(r chi.Router) {
		h.RegisterPublicRoutes(r)
		h.RegisterRoutes(r)
	})
}

func TestFormHandler_Submit(t *testing.T) {
	svc := &stubForms{}
	body := `{"organization":"さくら病院","name":"山田 花子","email":"info@sakura.example","purpose":"お申し込み","requested_account_count":3}`
	rec := httptest.NewRecorder()
	formRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forms", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"sub-1","status":"new"}`, rec.Body.String())
	assert.Equal(t, model.PurposeApplication, svc.submitted.Purpose)
	assert.Equal(t, 3, svc.submitted.RequestedAccountCount)
}

func TestFormHandler_Submit_Validation(t *testing.T) {
	tests := map[string]string{
		"bad email":       `{"organization":"さくら病院","name":"山田","email":"nope","purpose":"資料請求"}`,
		"unknown purpose": `{"organization":"さくら病院","name":"山田","email":"info@sakura.example","purpose":"見積"}`,
		"no organization": `{"name":"山田","email":"info@sakura.example","purpose":"その他"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			formRouter(&stubForms{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forms", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestFormHandler_Convert(t *testing.T) {
	rec := httptest.NewRecorder()
	formRouter(&stubForms{customer: sampleCustomer()}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forms/sub-1/convert", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"cust-1"`)

	rec = httptest.NewRecorder()
	formRouter(&stubForms{err: service.ErrAlreadyConverted}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/forms/sub-1/convert", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
