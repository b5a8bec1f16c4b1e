package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"investment-platform/internal/models"
	"investment-platform/internal/platform"
)

// InvestmentService creates and lists investments. Principal amounts are
// immutable once written; expiry is driven by business rules outside the
// accrual engine.
type InvestmentService struct {
	db *gorm.DB
}

func NewInvestmentService(db *gorm.DB) *InvestmentService {
	return &InvestmentService{db: db}
}

// CreateInvestment records a new principal deposit for the user.
func (s *InvestmentService) CreateInvestment(ctx context.Context, userID uint, amount decimal.Decimal) (*models.Investment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", platform.ErrValidation)
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", platform.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}

	investment := &models.Investment{
		UserID: userID,
		Amount: amount.Round(LedgerPrecision),
	}
	if err := s.db.WithContext(ctx).Create(investment).Error; err != nil {
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}

	logrus.Infof("user %d invested %s", userID, investment.Amount)
	return investment, nil
}

// ListInvestments returns the user's investments, newest first.
func (s *InvestmentService) ListInvestments(ctx context.Context, userID uint) ([]models.Investment, error) {
	var investments []models.Investment
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&investments).Error
	if err != nil {
		return nil, err
	}
	return investments, nil
}
