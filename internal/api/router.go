package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/receipto/receipto/internal/api/middleware"
	"github.com/receipto/receipto/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler         http.HandlerFunc
	DetailedHealthHandler http.HandlerFunc

	UploadHandler     http.HandlerFunc
	GetReceiptHandler http.HandlerFunc

	GetSettingsHandler     http.HandlerFunc
	UpdateSettingsHandler  http.HandlerFunc
	UpdateAPIKeysHandler   http.HandlerFunc
	UpdateLLMConfigHandler http.HandlerFunc
	LLMModelsHandler       http.HandlerFunc

	ListCategoriesHandler http.HandlerFunc
	CreateCategoryHandler http.HandlerFunc
	GetCategoryHandler    http.HandlerFunc
	UpdateCategoryHandler http.HandlerFunc
	DeleteCategoryHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/health", orNotImplemented(deps.HealthHandler))
	r.Get("/health/detailed", orNotImplemented(deps.DetailedHealthHandler))

	r.Post("/receipts/upload", orNotImplemented(deps.UploadHandler))
	r.Get("/receipts/{receiptID}", orNotImplemented(deps.GetReceiptHandler))

	r.Get("/settings", orNotImplemented(deps.GetSettingsHandler))
	r.Patch("/settings", orNotImplemented(deps.UpdateSettingsHandler))
	r.Patch("/settings/api-keys", orNotImplemented(deps.UpdateAPIKeysHandler))
	r.Patch("/settings/llm", orNotImplemented(deps.UpdateLLMConfigHandler))
	r.Get("/llm/models", orNotImplemented(deps.LLMModelsHandler))

	r.Get("/categories", orNotImplemented(deps.ListCategoriesHandler))
	r.Post("/categories", orNotImplemented(deps.CreateCategoryHandler))
	r.Get("/categories/{categoryID}", orNotImplemented(deps.GetCategoryHandler))
	r.Patch("/categories/{categoryID}", orNotImplemented(deps.UpdateCategoryHandler))
	r.Delete("/categories/{categoryID}", orNotImplemented(deps.DeleteCategoryHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
