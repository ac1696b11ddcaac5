package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/db"
	"github.com/yigit/peerfeedback/internal/pkg/logger"
)

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(database *db.PostgresDB) *AccountRepository {
	return &AccountRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateAccount inserts an account, replacing an existing one with the same google id
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	sql, args, err := r.sb.Insert("accounts").
		Columns("google_id", "name", "email", "institute", "is_instructor").
		Values(account.GoogleID, account.Name, account.Email, account.Institute, account.IsInstructor).
		Suffix(`ON CONFLICT (google_id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email,
			institute = EXCLUDED.institute, is_instructor = EXCLUDED.is_instructor`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save account query: %w", err)
	}

	if _, err := r.db.Conn(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("googleId", account.GoogleID).Msg("Error saving account")
		return fmt.Errorf("error saving account: %w", err)
	}
	return nil
}

// GetAccount returns nil when absent
func (r *AccountRepository) GetAccount(ctx context.Context, googleID string) (*models.Account, error) {
	sql, args, err := r.sb.Select("google_id", "name", "email", "institute", "is_instructor").
		From("accounts").
		Where(squirrel.Eq{"google_id": googleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get account query: %w", err)
	}

	var account models.Account
	err = r.db.Conn(ctx).QueryRow(ctx, sql, args...).Scan(
		&account.GoogleID, &account.Name, &account.Email, &account.Institute, &account.IsInstructor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving account: %w", err)
	}
	return &account, nil
}
