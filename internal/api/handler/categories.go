package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/receipto/receipto/internal/api/response"
	"github.com/receipto/receipto/internal/store"
	"github.com/receipto/receipto/pkg/models"
	"github.com/shopspring/decimal"
)

// CategoryStore is the store surface the category handlers need.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, name string, budget *decimal.Decimal) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name *string, budget *decimal.Decimal) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CategoryNameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
}

type categoryRequest struct {
	Name               *string          `json:"name"`
	MonthlyBudgetLimit *decimal.Decimal `json:"monthly_budget_limit"`
}

func (c *categoryRequest) validate(nameRequired bool) (string, bool) {
	if c.Name == nil {
		if nameRequired {
			return "name is required", false
		}
	} else if *c.Name == "" || len(*c.Name) > 100 {
		return "name must be between 1 and 100 characters", false
	}
	if c.MonthlyBudgetLimit != nil && c.MonthlyBudgetLimit.IsNegative() {
		return "monthly_budget_limit must not be negative", false
	}
	return "", true
}

// NewListCategoriesHandler returns an http.HandlerFunc for GET /categories.
func NewListCategoriesHandler(st CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := st.ListCategories(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		if categories == nil {
			categories = []*models.Category{}
		}
		response.JSON(w, categories)
	}
}

// NewCreateCategoryHandler returns an http.HandlerFunc for POST /categories.
func NewCreateCategoryHandler(st CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if msg, ok := req.validate(true); !ok {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg, nil)
			return
		}

		exists, err := st.CategoryNameExists(r.Context(), *req.Name, nil)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		if exists {
			response.Error(w, http.StatusBadRequest, "DUPLICATE_NAME",
				"Category '"+*req.Name+"' already exists", nil)
			return
		}

		category, err := st.CreateCategory(r.Context(), *req.Name, req.MonthlyBudgetLimit)
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusBadRequest, "DUPLICATE_NAME",
				"Category '"+*req.Name+"' already exists", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.Created(w, category)
	}
}

// NewGetCategoryHandler returns an http.HandlerFunc for GET /categories/{categoryID}.
func NewGetCategoryHandler(st CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := parseCategoryID(w, r)
		if !ok {
			return
		}

		category, err := st.GetCategory(r.Context(), categoryID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Category not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, category)
	}
}

// NewUpdateCategoryHandler returns an http.HandlerFunc for PATCH /categories/{categoryID}.
func NewUpdateCategoryHandler(st CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := parseCategoryID(w, r)
		if !ok {
			return
		}

		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if msg, ok := req.validate(false); !ok {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg, nil)
			return
		}

		existing, err := st.GetCategory(r.Context(), categoryID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Category not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		if req.Name != nil && *req.Name != existing.Name {
			exists, err := st.CategoryNameExists(r.Context(), *req.Name, &categoryID)
			if err != nil {
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
				return
			}
			if exists {
				response.Error(w, http.StatusBadRequest, "DUPLICATE_NAME",
					"Category '"+*req.Name+"' already exists", nil)
				return
			}
		}

		category, err := st.UpdateCategory(r.Context(), categoryID, req.Name, req.MonthlyBudgetLimit)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Category not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, category)
	}
}

// NewDeleteCategoryHandler returns an http.HandlerFunc for DELETE /categories/{categoryID}.
func NewDeleteCategoryHandler(st CategoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, ok := parseCategoryID(w, r)
		if !ok {
			return
		}

		err := st.DeleteCategory(r.Context(), categoryID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Category not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.NoContent(w)
	}
}

func parseCategoryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			"categoryID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return categoryID, true
}
