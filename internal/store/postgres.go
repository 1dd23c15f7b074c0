package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/receipto/receipto/internal/store/cryptoutil"
	"github.com/receipto/receipto/pkg/models"
	"github.com/shopspring/decimal"
)

// PostgresStore implements the Store interface using pgx/v5. Sensitive
// settings values are encrypted before they hit the settings table.
type PostgresStore struct {
	pool *pgxpool.Pool
	enc  cryptoutil.Encryptor
}

// NewPostgresStore creates a new PostgresStore. A nil encryptor stores
// sensitive settings in plaintext (noop).
func NewPostgresStore(pool *pgxpool.Pool, enc cryptoutil.Encryptor) *PostgresStore {
	if enc == nil {
		enc = cryptoutil.NoopEncryptor{}
	}
	return &PostgresStore{pool: pool, enc: enc}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Receipts ---

func (s *PostgresStore) CreateReceipt(ctx context.Context, id uuid.UUID, imageURL string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO receipts (id, image_url, status, created_at, updated_at)
		 VALUES ($1, $2, 'pending', NOW(), NOW())`, id, imageURL)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create receipt: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReceipt(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	var r models.Receipt
	err := s.pool.QueryRow(ctx,
		`SELECT id, image_url, merchant_name, purchase_date, total_amount, tax_amount, status, created_at, updated_at
		 FROM receipts WHERE id = $1`, id,
	).Scan(&r.ID, &r.ImageURL, &r.MerchantName, &r.PurchaseDate, &r.TotalAmount, &r.TaxAmount,
		&r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) UpdateReceiptStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE receipts SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update receipt status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveReceiptData(ctx context.Context, id uuid.UUID, extraction *models.ReceiptExtraction) error {
	purchaseDate, err := time.Parse("2006-01-02", extraction.PurchaseDate)
	if err != nil {
		return fmt.Errorf("parse purchase date %q: %w", extraction.PurchaseDate, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE receipts
		 SET merchant_name = $1, purchase_date = $2, total_amount = $3, tax_amount = $4,
		     status = 'complete', updated_at = NOW()
		 WHERE id = $5`,
		extraction.MerchantName, purchaseDate, extraction.TotalAmount, extraction.TaxAmount, id)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}

	for _, item := range extraction.LineItems {
		_, err = tx.Exec(ctx,
			`INSERT INTO line_items (id, receipt_id, description, category, quantity, unit_price, total_price, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			uuid.New(), id, item.Description, item.Category, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit receipt data: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]*models.LineItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, receipt_id, description, category, quantity, unit_price, total_price, created_at
		 FROM line_items WHERE receipt_id = $1 ORDER BY created_at`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	var items []*models.LineItem
	for rows.Next() {
		var li models.LineItem
		if err := rows.Scan(&li.ID, &li.ReceiptID, &li.Description, &li.Category,
			&li.Quantity, &li.UnitPrice, &li.TotalPrice, &li.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, &li)
	}
	return items, rows.Err()
}

// --- Settings ---

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	var encrypted bool
	err := s.pool.QueryRow(ctx,
		`SELECT value, encrypted FROM settings WHERE key = $1`, key,
	).Scan(&value, &encrypted)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	if encrypted {
		plaintext, err := s.enc.Decrypt(value)
		if err != nil {
			return "", fmt.Errorf("decrypt setting %q: %w", key, err)
		}
		return plaintext, nil
	}
	return value, nil
}

func (s *PostgresStore) GetAllSettings(ctx context.Context) (*models.Settings, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	settings := &models.Settings{
		LLMProvider:            orDefault(values[models.SettingLLMProvider], "gemini"),
		LLMModel:               orDefault(values[models.SettingLLMModel], "gemini-2.0-flash"),
		Theme:                  orDefault(values[models.SettingTheme], "system"),
		AWSRegion:              orDefault(values[models.SettingAWSRegion], "us-west-2"),
		AWSAccessKeyConfigured: values[models.SettingAWSAccessKeyID] != "",
		AWSSecretKeyConfigured: values[models.SettingAWSSecretAccessKey] != "",
		GoogleAPIKeyConfigured: values[models.SettingGoogleAPIKey] != "",
		OpenAIAPIKeyConfigured: values[models.SettingOpenAIAPIKey] != "",
		AnthropicKeyConfigured: values[models.SettingAnthropicAPIKey] != "",
	}
	return settings, nil
}

func (s *PostgresStore) UpdateSettings(ctx context.Context, values map[string]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, value := range values {
		encrypted := models.SensitiveSettings[key]
		if encrypted {
			value, err = s.enc.Encrypt(value)
			if err != nil {
				return fmt.Errorf("encrypt setting %q: %w", key, err)
			}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO settings (key, value, encrypted, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (key) DO UPDATE SET
			   value = EXCLUDED.value,
			   encrypted = EXCLUDED.encrypted,
			   updated_at = NOW()`,
			key, value, encrypted)
		if err != nil {
			return fmt.Errorf("upsert setting %q: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

// --- Categories ---

const categoryColumns = `id, name, monthly_budget_limit, created_at, updated_at`

func (s *PostgresStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.MonthlyBudgetLimit, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.MonthlyBudgetLimit, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, name string, budget *decimal.Decimal) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (id, name, monthly_budget_limit, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING `+categoryColumns,
		uuid.New(), name, budget,
	).Scan(&c.ID, &c.Name, &c.MonthlyBudgetLimit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, id uuid.UUID, name *string, budget *decimal.Decimal) (*models.Category, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	idx := 1

	if name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", idx))
		args = append(args, *name)
		idx++
	}
	if budget != nil {
		setClauses = append(setClauses, fmt.Sprintf("monthly_budget_limit = $%d", idx))
		args = append(args, *budget)
		idx++
	}
	if len(args) == 0 {
		return s.GetCategory(ctx, id)
	}
	args = append(args, id)

	var c models.Category
	query := fmt.Sprintf(
		`UPDATE categories SET %s WHERE id = $%d RETURNING `+categoryColumns,
		strings.Join(setClauses, ", "), idx)
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.Name, &c.MonthlyBudgetLimit, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CategoryNameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	var err error
	if excludeID != nil {
		err = s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1 AND id != $2)`, name, *excludeID).Scan(&exists)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1)`, name).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return exists, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
