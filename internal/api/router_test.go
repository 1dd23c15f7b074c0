package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/receipto/receipto/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_RoutesWired(t *testing.T) {
	called := map[string]bool{}
	mark := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			called[name] = true
			w.WriteHeader(http.StatusOK)
		}
	}

	router := api.NewRouter(api.Dependencies{
		HealthHandler:          mark("health"),
		DetailedHealthHandler:  mark("health_detailed"),
		UploadHandler:          mark("upload"),
		GetReceiptHandler:      mark("get_receipt"),
		GetSettingsHandler:     mark("get_settings"),
		UpdateSettingsHandler:  mark("update_settings"),
		UpdateAPIKeysHandler:   mark("update_api_keys"),
		UpdateLLMConfigHandler: mark("update_llm"),
		LLMModelsHandler:       mark("llm_models"),
		ListCategoriesHandler:  mark("list_categories"),
		CreateCategoryHandler:  mark("create_category"),
		GetCategoryHandler:     mark("get_category"),
		UpdateCategoryHandler:  mark("update_category"),
		DeleteCategoryHandler:  mark("delete_category"),
	})

	requests := []struct {
		method, path, name string
	}{
		{http.MethodGet, "/health", "health"},
		{http.MethodGet, "/health/detailed", "health_detailed"},
		{http.MethodPost, "/receipts/upload", "upload"},
		{http.MethodGet, "/receipts/6e8bc430-9c3a-11d9-9669-0800200c9a66", "get_receipt"},
		{http.MethodGet, "/settings", "get_settings"},
		{http.MethodPatch, "/settings", "update_settings"},
		{http.MethodPatch, "/settings/api-keys", "update_api_keys"},
		{http.MethodPatch, "/settings/llm", "update_llm"},
		{http.MethodGet, "/llm/models", "llm_models"},
		{http.MethodGet, "/categories", "list_categories"},
		{http.MethodPost, "/categories", "create_category"},
		{http.MethodGet, "/categories/6e8bc430-9c3a-11d9-9669-0800200c9a66", "get_category"},
		{http.MethodPatch, "/categories/6e8bc430-9c3a-11d9-9669-0800200c9a66", "update_category"},
		{http.MethodDelete, "/categories/6e8bc430-9c3a-11d9-9669-0800200c9a66", "delete_category"},
	}

	for _, req := range requests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(req.method, req.path, nil))
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", req.method, req.path)
		assert.True(t, called[req.name], "handler %s not reached", req.name)
	}
}

func TestRouter_MissingHandlerReturns501(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNotImplemented, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "NOT_IMPLEMENTED", errObj["code"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
