package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/receipto/receipto/internal/config"
	"github.com/receipto/receipto/internal/llm"
	"github.com/receipto/receipto/internal/ocr"
	"github.com/receipto/receipto/internal/store"
	"github.com/receipto/receipto/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct {
	mu            sync.Mutex
	settings      map[string]string
	statusUpdates []string
	saved         *models.ReceiptExtraction
	saveErr       error
	getSettingErr error
}

func newMockStore() *mockStore {
	return &mockStore{settings: make(map[string]string)}
}

func (s *mockStore) Ping(_ context.Context) error { return nil }
func (s *mockStore) CreateReceipt(_ context.Context, _ uuid.UUID, _ string) error { return nil }
func (s *mockStore) GetReceipt(_ context.Context, _ uuid.UUID) (*models.Receipt, error) {
	return nil, store.ErrNotFound
}
func (s *mockStore) ListLineItems(_ context.Context, _ uuid.UUID) ([]*models.LineItem, error) {
	return nil, nil
}
func (s *mockStore) GetAllSettings(_ context.Context) (*models.Settings, error) { return nil, nil }
func (s *mockStore) UpdateSettings(_ context.Context, _ map[string]string) error { return nil }
func (s *mockStore) DeleteSetting(_ context.Context, _ string) error { return nil }
func (s *mockStore) ListCategories(_ context.Context) ([]*models.Category, error) { return nil, nil }
func (s *mockStore) GetCategory(_ context.Context, _ uuid.UUID) (*models.Category, error) {
	return nil, store.ErrNotFound
}
func (s *mockStore) CreateCategory(_ context.Context, _ string, _ *decimal.Decimal) (*models.Category, error) {
	return nil, nil
}
func (s *mockStore) UpdateCategory(_ context.Context, _ uuid.UUID, _ *string, _ *decimal.Decimal) (*models.Category, error) {
	return nil, nil
}
func (s *mockStore) DeleteCategory(_ context.Context, _ uuid.UUID) error { return nil }
func (s *mockStore) CategoryNameExists(_ context.Context, _ string, _ *uuid.UUID) (bool, error) {
	return false, nil
}

func (s *mockStore) GetSetting(_ context.Context, key string) (string, error) {
	if s.getSettingErr != nil {
		return "", s.getSettingErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *mockStore) UpdateReceiptStatus(_ context.Context, _ uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusUpdates = append(s.statusUpdates, status)
	return nil
}

func (s *mockStore) SaveReceiptData(_ context.Context, _ uuid.UUID, extraction *models.ReceiptExtraction) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = extraction
	return nil
}

func (s *mockStore) lastStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statusUpdates) == 0 {
		return ""
	}
	return s.statusUpdates[len(s.statusUpdates)-1]
}

type mockCache struct {
	mu       sync.Mutex
	statuses []string
}

func (c *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}
func (c *mockCache) Delete(_ context.Context, _ string) error { return nil }
func (c *mockCache) Ping(_ context.Context) error             { return nil }

func (c *mockCache) SetReceiptStatus(_ context.Context, _ uuid.UUID, status string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, status)
	return nil
}

func (c *mockCache) GetReceiptStatus(_ context.Context, _ uuid.UUID) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.statuses) == 0 {
		return "", false, nil
	}
	return c.statuses[len(c.statuses)-1], true, nil
}

type mockAnalyzer struct {
	mu    sync.Mutex
	calls int
	docs  []models.ExpenseDocument
	errs  []error
}

func (a *mockAnalyzer) AnalyzeExpense(_ context.Context, _ []byte, _ ocr.Credentials) ([]models.ExpenseDocument, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	call := a.calls
	a.calls++
	if call < len(a.errs) && a.errs[call] != nil {
		return nil, a.errs[call]
	}
	return a.docs, nil
}

type mockExtractor struct {
	mu         sync.Mutex
	calls      int
	extraction *models.ReceiptExtraction
	errs       []error
}

func (e *mockExtractor) Name() string { return "mock" }

func (e *mockExtractor) Extract(_ context.Context, _ string) (*models.ReceiptExtraction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	call := e.calls
	e.calls++
	if call < len(e.errs) && e.errs[call] != nil {
		return nil, e.errs[call]
	}
	return e.extraction, nil
}

func factoryFor(extractor models.ReceiptExtractor) ProviderFactory {
	return func(_ context.Context, _, _ string) (models.ReceiptExtractor, error) {
		return extractor, nil
	}
}

// --- test fixtures ---

func testProcessingConfig() config.ProcessingConfig {
	return config.ProcessingConfig{
		OCRMaxAttempts:        3,
		ExtractionMaxAttempts: 3,
		RetryInitialBackoff:   time.Millisecond,
		RetryMaxBackoff:       5 * time.Millisecond,
		ValidationTolerance:   0.02,
	}
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return path
}

func validExtraction() *models.ReceiptExtraction {
	return &models.ReceiptExtraction{
		MerchantName: "Walmart Supercenter",
		PurchaseDate: "2024-03-15",
		TotalAmount:  decimal.RequireFromString("45.67"),
		TaxAmount:    decimal.RequireFromString("3.42"),
		LineItems: []models.LineItemExtraction{
			{Description: "Bananas", Category: "Groceries", Quantity: 2,
				UnitPrice: decimal.RequireFromString("0.58"), TotalPrice: decimal.RequireFromString("1.16")},
			{Description: "Paper Towels", Category: "Household", Quantity: 1,
				UnitPrice: decimal.RequireFromString("41.09"), TotalPrice: decimal.RequireFromString("41.09")},
		},
	}
}

func testDocs() []models.ExpenseDocument {
	return []models.ExpenseDocument{
		{SummaryFields: []models.ExpenseField{{Type: "TOTAL", Value: "45.67"}}},
	}
}

func newTestPipeline(st *mockStore, ca *mockCache, analyzer *mockAnalyzer, factory ProviderFactory) *Pipeline {
	return New(st, ca, analyzer, factory,
		config.AWSConfig{Region: "us-west-2"},
		config.LLMConfig{DefaultProvider: "gemini", DefaultModel: "gemini-2.0-flash"},
		testProcessingConfig())
}

// --- tests ---

func TestProcess_HappyPath(t *testing.T) {
	st := newMockStore()
	ca := &mockCache{}
	analyzer := &mockAnalyzer{docs: testDocs()}
	extractor := &mockExtractor{extraction: validExtraction()}

	p := newTestPipeline(st, ca, analyzer, factoryFor(extractor))
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusComplete, state.Status)
	assert.Empty(t, state.Errors)
	require.NotNil(t, st.saved)
	assert.Equal(t, "Walmart Supercenter", st.saved.MerchantName)
	// Save path marks complete inside the transaction; no separate status update.
	assert.Empty(t, st.statusUpdates)
	assert.Equal(t, StatusComplete, ca.statuses[len(ca.statuses)-1])
}

func TestProcess_OCRFailureCascades(t *testing.T) {
	st := newMockStore()
	analyzer := &mockAnalyzer{errs: []error{
		errors.New("throttled"), errors.New("throttled"), errors.New("throttled"),
	}}
	extractor := &mockExtractor{extraction: validExtraction()}

	p := newTestPipeline(st, &mockCache{}, analyzer, factoryFor(extractor))
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusReviewRequired, state.Status)
	assert.Equal(t, 3, analyzer.calls)
	// Every downstream stage reports its own precondition failure.
	require.Len(t, state.Errors, 3)
	assert.Contains(t, state.Errors[0], "OCR Error: throttled")
	assert.Equal(t, "No OCR data available", state.Errors[1])
	assert.Equal(t, "No extracted data to validate", state.Errors[2])
	// Extractor never ran.
	assert.Equal(t, 0, extractor.calls)
	assert.Equal(t, models.ReceiptStatusManualReview, st.lastStatus())
}

func TestProcess_OCRRetriesThenSucceeds(t *testing.T) {
	st := newMockStore()
	analyzer := &mockAnalyzer{
		docs: testDocs(),
		errs: []error{errors.New("timeout"), errors.New("timeout"), nil},
	}
	extractor := &mockExtractor{extraction: validExtraction()}

	p := newTestPipeline(st, &mockCache{}, analyzer, factoryFor(extractor))
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusComplete, state.Status)
	assert.Equal(t, 3, analyzer.calls)
	assert.Empty(t, state.Errors)
}

func TestProcess_MissingImage(t *testing.T) {
	st := newMockStore()
	analyzer := &mockAnalyzer{docs: testDocs()}

	p := newTestPipeline(st, &mockCache{}, analyzer, factoryFor(&mockExtractor{}))
	state := p.Process(context.Background(), uuid.New(), filepath.Join(t.TempDir(), "missing.jpg"))

	assert.Equal(t, StatusReviewRequired, state.Status)
	require.NotEmpty(t, state.Errors)
	assert.Contains(t, state.Errors[0], "OCR Error:")
	// The analyzer is never reached when the file cannot be read.
	assert.Equal(t, 0, analyzer.calls)
}

func TestProcess_ExtractionRetriesThenSucceeds(t *testing.T) {
	st := newMockStore()
	analyzer := &mockAnalyzer{docs: testDocs()}
	extractor := &mockExtractor{
		extraction: validExtraction(),
		errs:       []error{errors.New("rate limited"), nil},
	}

	p := newTestPipeline(st, &mockCache{}, analyzer, factoryFor(extractor))
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusComplete, state.Status)
	assert.Equal(t, 2, extractor.calls)
}

func TestProcess_ExtractionExhaustsRetries(t *testing.T) {
	st := newMockStore()
	analyzer := &mockAnalyzer{docs: testDocs()}
	extractor := &mockExtractor{errs: []error{
		errors.New("overloaded"), errors.New("overloaded"), errors.New("overloaded"),
	}}

	p := newTestPipeline(st, &mockCache{}, analyzer, factoryFor(extractor))
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusReviewRequired, state.Status)
	assert.Equal(t, 3, extractor.calls)
	assert.Contains(t, state.Errors[0], "Extraction Error: overloaded")
	assert.Equal(t, models.ReceiptStatusManualReview, st.lastStatus())
}

func TestProcess_MissingCredentialFailsFast(t *testing.T) {
	st := newMockStore()
	analyzer := &mockAnalyzer{docs: testDocs()}

	factoryCalls := 0
	factory := func(_ context.Context, _, _ string) (models.ReceiptExtractor, error) {
		factoryCalls++
		return nil, llm.NewConfigError("openai api key not configured")
	}

	p := newTestPipeline(st, &mockCache{}, analyzer, factory)
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusReviewRequired, state.Status)
	// Config errors are permanent: one attempt, no retries.
	assert.Equal(t, 1, factoryCalls)
	assert.Contains(t, state.Errors[0], "Extraction Error: openai api key not configured")
}

func TestProcess_ProviderSelectionFromSettings(t *testing.T) {
	st := newMockStore()
	st.settings[models.SettingLLMProvider] = "anthropic"
	st.settings[models.SettingLLMModel] = "claude-sonnet-4-20250514"
	analyzer := &mockAnalyzer{docs: testDocs()}

	var gotProvider, gotModel string
	factory := func(_ context.Context, provider, model string) (models.ReceiptExtractor, error) {
		gotProvider, gotModel = provider, model
		return &mockExtractor{extraction: validExtraction()}, nil
	}

	p := newTestPipeline(st, &mockCache{}, analyzer, factory)
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusComplete, state.Status)
	assert.Equal(t, "anthropic", gotProvider)
	assert.Equal(t, "claude-sonnet-4-20250514", gotModel)
}

func TestProcess_DatabaseFailureCompensates(t *testing.T) {
	st := newMockStore()
	st.saveErr = errors.New("connection reset")
	analyzer := &mockAnalyzer{docs: testDocs()}
	extractor := &mockExtractor{extraction: validExtraction()}

	ca := &mockCache{}
	p := newTestPipeline(st, ca, analyzer, factoryFor(extractor))
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusReviewRequired, state.Status)
	require.Len(t, state.Errors, 1)
	assert.Contains(t, state.Errors[0], "Database Error: connection reset")
	assert.Equal(t, models.ReceiptStatusManualReview, st.lastStatus())
	assert.Equal(t, StatusReviewRequired, ca.statuses[len(ca.statuses)-1])
}

func TestProcess_ValidationFailureMarksManualReview(t *testing.T) {
	st := newMockStore()
	analyzer := &mockAnalyzer{docs: testDocs()}
	extraction := validExtraction()
	extraction.TotalAmount = decimal.RequireFromString("60.00")
	extractor := &mockExtractor{extraction: extraction}

	p := newTestPipeline(st, &mockCache{}, analyzer, factoryFor(extractor))
	state := p.Process(context.Background(), uuid.New(), writeTestImage(t))

	assert.Equal(t, StatusReviewRequired, state.Status)
	assert.Nil(t, st.saved)
	assert.Equal(t, models.ReceiptStatusManualReview, st.lastStatus())
}

func TestSchedule_RecoversFromPanic(t *testing.T) {
	st := newMockStore()
	ca := &mockCache{}
	analyzer := &mockAnalyzer{docs: testDocs()}

	factory := func(_ context.Context, _, _ string) (models.ReceiptExtractor, error) {
		panic("provider exploded")
	}

	p := newTestPipeline(st, ca, analyzer, factory)
	p.Schedule(uuid.New(), writeTestImage(t))

	require.Eventually(t, func() bool {
		return st.lastStatus() == models.ReceiptStatusManualReview
	}, 2*time.Second, 10*time.Millisecond)
}
