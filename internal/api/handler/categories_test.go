package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/receipto/receipto/internal/api/handler"
	"github.com/receipto/receipto/internal/store"
	"github.com/receipto/receipto/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCategoryStore struct {
	categories map[uuid.UUID]*models.Category
}

func newStubCategoryStore() *stubCategoryStore {
	return &stubCategoryStore{categories: make(map[uuid.UUID]*models.Category)}
}

func (s *stubCategoryStore) add(name string) *models.Category {
	c := &models.Category{ID: uuid.New(), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.categories[c.ID] = c
	return c
}

func (s *stubCategoryStore) ListCategories(_ context.Context) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubCategoryStore) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCategoryStore) CreateCategory(_ context.Context, name string, budget *decimal.Decimal) (*models.Category, error) {
	c := s.add(name)
	c.MonthlyBudgetLimit = budget
	return c, nil
}

func (s *stubCategoryStore) UpdateCategory(_ context.Context, id uuid.UUID, name *string, budget *decimal.Decimal) (*models.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if name != nil {
		c.Name = *name
	}
	if budget != nil {
		c.MonthlyBudgetLimit = budget
	}
	return c, nil
}

func (s *stubCategoryStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *stubCategoryStore) CategoryNameExists(_ context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	for id, c := range s.categories {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func categoryRouter(st handler.CategoryStore) http.Handler {
	r := chi.NewRouter()
	r.Get("/categories", handler.NewListCategoriesHandler(st))
	r.Post("/categories", handler.NewCreateCategoryHandler(st))
	r.Get("/categories/{categoryID}", handler.NewGetCategoryHandler(st))
	r.Patch("/categories/{categoryID}", handler.NewUpdateCategoryHandler(st))
	r.Delete("/categories/{categoryID}", handler.NewDeleteCategoryHandler(st))
	return r
}

func TestCategories_ListEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	categoryRouter(newStubCategoryStore()).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/categories", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Empty list, not null.
	assert.Equal(t, []any{}, resp["data"])
}

func TestCategories_Create(t *testing.T) {
	st := newStubCategoryStore()

	req := httptest.NewRequest(http.MethodPost, "/categories",
		strings.NewReader(`{"name": "Groceries", "monthly_budget_limit": "500.00"}`))
	w := httptest.NewRecorder()
	categoryRouter(st).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, "Groceries", data["name"])
}

func TestCategories_CreateDuplicateName(t *testing.T) {
	st := newStubCategoryStore()
	st.add("Groceries")

	req := httptest.NewRequest(http.MethodPost, "/categories",
		strings.NewReader(`{"name": "Groceries"}`))
	w := httptest.NewRecorder()
	categoryRouter(st).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_NAME", errObj["code"])
}

func TestCategories_CreateRequiresName(t *testing.T) {
	w := httptest.NewRecorder()
	categoryRouter(newStubCategoryStore()).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategories_CreateRejectsNegativeBudget(t *testing.T) {
	w := httptest.NewRecorder()
	categoryRouter(newStubCategoryStore()).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/categories",
			strings.NewReader(`{"name": "Dining", "monthly_budget_limit": "-5"}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategories_Get(t *testing.T) {
	st := newStubCategoryStore()
	c := st.add("Dining")

	w := httptest.NewRecorder()
	categoryRouter(st).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/categories/"+c.ID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, "Dining", data["name"])
}

func TestCategories_GetNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	categoryRouter(newStubCategoryStore()).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/categories/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategories_UpdateRename(t *testing.T) {
	st := newStubCategoryStore()
	c := st.add("Groceries")

	req := httptest.NewRequest(http.MethodPatch, "/categories/"+c.ID.String(),
		strings.NewReader(`{"name": "Food"}`))
	w := httptest.NewRecorder()
	categoryRouter(st).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Food", st.categories[c.ID].Name)
}

func TestCategories_UpdateDuplicateName(t *testing.T) {
	st := newStubCategoryStore()
	st.add("Groceries")
	c := st.add("Dining")

	req := httptest.NewRequest(http.MethodPatch, "/categories/"+c.ID.String(),
		strings.NewReader(`{"name": "Groceries"}`))
	w := httptest.NewRecorder()
	categoryRouter(st).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategories_UpdateKeepOwnName(t *testing.T) {
	st := newStubCategoryStore()
	c := st.add("Groceries")

	req := httptest.NewRequest(http.MethodPatch, "/categories/"+c.ID.String(),
		strings.NewReader(`{"name": "Groceries", "monthly_budget_limit": "250.00"}`))
	w := httptest.NewRecorder()
	categoryRouter(st).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, st.categories[c.ID].MonthlyBudgetLimit)
}

func TestCategories_Delete(t *testing.T) {
	st := newStubCategoryStore()
	c := st.add("Groceries")

	w := httptest.NewRecorder()
	categoryRouter(st).ServeHTTP(w,
		httptest.NewRequest(http.MethodDelete, "/categories/"+c.ID.String(), nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, st.categories)
}

func TestCategories_DeleteNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	categoryRouter(newStubCategoryStore()).ServeHTTP(w,
		httptest.NewRequest(http.MethodDelete, "/categories/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
