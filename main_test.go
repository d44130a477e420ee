package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aashish23092/tax-advisor/handler"
	"github.com/Aashish23092/tax-advisor/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	extraction := service.NewExtractionService(service.NewPDFProcessor(), nil, time.Second, 1)
	advisor := service.NewAdvisorService(service.NewSessionStore(time.Minute), service.NewDialogueEngine(nil, nil))
	router := NewRouter(
		handler.NewDocumentHandler(extraction, 1024),
		handler.NewAdvisorHandler(advisor, extraction, 1024),
		false,
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["oracle"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
