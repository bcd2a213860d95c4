package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation fields", apperrors.NewValidationError("title", "is required"), http.StatusBadRequest, `{"error":"validation failed","fields":{"title":"is required"}}`},
		{"bare validation", fmt.Errorf("bad kind: %w", apperrors.ErrValidation), http.StatusBadRequest, `{"error":"bad kind: validation failed"}`},
		{"unauthenticated", apperrors.ErrUnauthenticated, http.StatusUnauthorized, `{"error":"authentication required"}`},
		{"forbidden", fmt.Errorf("not yours: %w", apperrors.ErrForbidden), http.StatusForbidden, `{"error":"not yours: forbidden"}`},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, `{"error":"not found"}`},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, `{"error":"conflict"}`},
		{"backend", fmt.Errorf("list: %w: %w", apperrors.ErrBackendUnavailable, errors.New("dial tcp: refused")), http.StatusServiceUnavailable, `{"error":"service temporarily unavailable"}`},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			respondError(c, zap.NewNop(), tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestQueryParams(t *testing.T) {
	r := gin.New()
	r.GET("/q", func(c *gin.Context) {
		page, pageSize, ok := pageParams(c)
		if !ok {
			return
		}
		unanswered, ok := boolQuery(c, "unanswered")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"page":       page,
			"page_size":  pageSize,
			"unanswered": unanswered,
			"tags":       tagsQuery(c),
		})
	})

	tests := []struct {
		query    string
		wantCode int
		wantBody string
	}{
		{"", http.StatusOK, `{"page":1,"page_size":0,"unanswered":false,"tags":null}`},
		{"?page=2&page_size=5&unanswered=true", http.StatusOK, `{"page":2,"page_size":5,"unanswered":true,"tags":null}`},
		{"?tags=react,css&tags=go", http.StatusOK, `{"page":1,"page_size":0,"unanswered":false,"tags":["react","css","go"]}`},
		{"?page=x", http.StatusBadRequest, `{"error":"page must be an integer"}`},
		{"?unanswered=maybe", http.StatusBadRequest, `{"error":"unanswered must be true or false"}`},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/q"+tt.query, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestPathID(t *testing.T) {
	r := gin.New()
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/123", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid id"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/7b1d8f3e-2c4a-4b6e-9f00-0a1b2c3d4e5f", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7b1d8f3e-2c4a-4b6e-9f00-0a1b2c3d4e5f", w.Body.String())
}
