package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDLQHandler_Record(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		saved  bool
	}{
		{"saved", `{"message":{"data":"e30=","messageId":"m-1","attributes":{"event_type":"invoice.generated"}},"subscription":"projects/p/subscriptions/dlq"}`, nil, http.StatusNoContent, true},
		{"save failure still acknowledged", `{"message":{"data":"e30=","messageId":"m-1"}}`, errBoom, http.StatusNoContent, true},
		{"missing message id", `{"message":{"data":"e30="}}`, nil, http.StatusBadRequest, false},
		{"bad json", `not json`, nil, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubDLQ{err: tt.err}
			r := newRouter(NewDLQHandler(svc, zerolog.Nop()).RegisterRoutes)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dlq/record", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			if tt.saved {
				require.NotNil(t, svc.got)
				assert.Equal(t, "m-1", svc.got.Message.MessageID)
			} else {
				assert.Nil(t, svc.got)
			}
		})
	}
}
