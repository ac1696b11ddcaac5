package services

import (
	"context"
	"fmt"

	"github.com/yigit/peerfeedback/internal/app/models"
	"github.com/yigit/peerfeedback/internal/pkg/apperrors"
	"github.com/yigit/peerfeedback/internal/pkg/validation"
)

// AccountService handles account-related operations
type AccountService struct {
	accounts AccountStore
}

// NewAccountService creates a new account service instance
func NewAccountService(accounts AccountStore) *AccountService {
	return &AccountService{accounts: accounts}
}

// CreateAccount validates and stores an account
func (s *AccountService) CreateAccount(ctx context.Context, account *models.Account) error {
	if account == nil || account.GoogleID == "" {
		return apperrors.NewValidationError([]string{"A Google ID is required."})
	}

	fv := validation.Default()
	var msgs []string
	for _, msg := range []string{
		fv.InvalidityInfoForPersonName(account.Name),
		fv.InvalidityInfoForEmail(account.Email),
	} {
		if msg != "" {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) > 0 {
		return apperrors.NewValidationError(msgs)
	}

	return s.accounts.CreateAccount(ctx, account)
}

// GetAccount returns nil when the account does not exist
func (s *AccountService) GetAccount(ctx context.Context, googleID string) (*models.Account, error) {
	account, err := s.accounts.GetAccount(ctx, googleID)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}
	return account, nil
}

// IsAccountAnInstructor reports whether the account exists and carries the instructor flag
func (s *AccountService) IsAccountAnInstructor(ctx context.Context, googleID string) (bool, error) {
	account, err := s.GetAccount(ctx, googleID)
	if err != nil {
		return false, err
	}
	return account != nil && account.IsInstructor, nil
}
