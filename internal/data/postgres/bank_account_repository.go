package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sanord8/YL-portal-sub002/internal/domain/org"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
)

const bankAccountColumns = `id, name, iban, currency, created_at, deleted_at`

// BankAccountRepository implements org.BankAccountRepository for PostgreSQL.
// Accounts are tombstoned, never removed.
type BankAccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewBankAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) org.BankAccountRepository {
	return &BankAccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func scanBankAccount(row rowScanner) (*org.BankAccount, error) {
	var b org.BankAccount
	if err := row.Scan(&b.ID, &b.Name, &b.IBAN, &b.Currency, &b.CreatedAt, &b.DeletedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BankAccountRepository) Create(ctx context.Context, account *org.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (id, name, iban, currency, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.querier.Exec(ctx, query, account.ID, account.Name, account.IBAN, account.Currency, account.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create bank account", "name", account.Name, "error", err)
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

func (r *BankAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*org.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1 AND deleted_at IS NULL`

	account, err := scanBankAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrBankAccountNotFound{BankAccountID: id}
		}
		r.logger.Error("Failed to get bank account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return account, nil
}

func (r *BankAccountRepository) List(ctx context.Context) ([]*org.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE deleted_at IS NULL ORDER BY name`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list bank accounts", "error", err)
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*org.BankAccount{}
	for rows.Next() {
		b, err := scanBankAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over bank accounts: %w", err)
	}
	return accounts, nil
}

// SoftDelete tombstones an account that no area or live movement still uses
func (r *BankAccountRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	var areaRefs, movementRefs bool
	err := r.querier.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM areas WHERE bank_account_id = $1),
			EXISTS (SELECT 1 FROM movements WHERE deleted_at IS NULL
				AND (source_bank_account_id = $1 OR destination_bank_account_id = $1))`, id).Scan(&areaRefs, &movementRefs)
	if err != nil {
		r.logger.Error("Failed to check bank account references", "id", id.String(), "error", err)
		return fmt.Errorf("failed to check bank account references: %w", err)
	}
	switch {
	case areaRefs:
		return org.ErrEntityInUse{Entity: "bank account", ID: id, Reason: "it is assigned to an area"}
	case movementRefs:
		return org.ErrEntityInUse{Entity: "bank account", ID: id, Reason: "it is referenced by movements"}
	}

	result, err := r.querier.Exec(ctx, `
		UPDATE bank_accounts
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		r.logger.Error("Failed to delete bank account", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete bank account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return org.ErrBankAccountNotFound{BankAccountID: id}
	}
	return nil
}
