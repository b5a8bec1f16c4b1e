package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"investment-platform/internal/gateway"
	"investment-platform/internal/models"
	"investment-platform/internal/platform"
)

// lockForUpdate takes a row-level lock where the dialect supports it.
// SQLite serializes writers on its own and rejects FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// SettlementService moves money between the claimable buckets, the balance,
// and the external payment rail.
type SettlementService struct {
	db            *gorm.DB
	gateway       gateway.PaymentGateway
	minWithdrawal decimal.Decimal
	refundFailed  bool
}

func NewSettlementService(db *gorm.DB, gw gateway.PaymentGateway, minWithdrawal decimal.Decimal, refundFailed bool) *SettlementService {
	return &SettlementService{
		db:            db,
		gateway:       gw,
		minWithdrawal: minWithdrawal,
		refundFailed:  refundFailed,
	}
}

// Claim moves the full claimable amount of one bucket into the balance and
// appends a Claim record. The user row is locked for the duration so a
// concurrent accrual credit or second claim cannot lose an update.
func (s *SettlementService) Claim(ctx context.Context, userID uint, bucket string) (*models.Claim, error) {
	if bucket != models.BucketROI && bucket != models.BucketRef {
		return nil, fmt.Errorf("%w: unknown bucket %q", platform.ErrValidation, bucket)
	}

	var claim *models.Claim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := lockForUpdate(tx).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", platform.ErrNotFound, userID)
		}
		if err != nil {
			return err
		}

		amount := user.ClaimableROI
		column := "claimable_roi"
		if bucket == models.BucketRef {
			amount = user.ClaimableRef
			column = "claimable_ref"
		}

		if !amount.IsPositive() {
			return fmt.Errorf("%w: nothing to claim in %s bucket", platform.ErrInsufficientFunds, bucket)
		}

		err = tx.Model(&user).Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
			column:    decimal.Zero,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to settle claim: %w", err)
		}

		claim = &models.Claim{
			UserID: userID,
			Amount: amount,
			Bucket: bucket,
		}
		return tx.Create(claim).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("user %d claimed %s from %s bucket", userID, claim.Amount, bucket)
	return claim, nil
}

// RequestWithdrawal reserves balance for an external payout: the amount is
// decremented immediately and a Withdrawal row is created in processing.
func (s *SettlementService) RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal, destination string) (*models.Withdrawal, error) {
	if amount.LessThan(s.minWithdrawal) {
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", platform.ErrValidation, s.minWithdrawal)
	}

	var withdrawal *models.Withdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := lockForUpdate(tx).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", platform.ErrNotFound, userID)
		}
		if err != nil {
			return err
		}

		if destination == "" {
			destination = user.WalletAddress
		}
		if destination == "" {
			return fmt.Errorf("%w: destination address required", platform.ErrValidation)
		}

		if user.Balance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s is below %s", platform.ErrInsufficientFunds, user.Balance, amount)
		}

		err = tx.Model(&user).
			Update("balance", gorm.Expr("balance - ?", amount)).Error
		if err != nil {
			return fmt.Errorf("failed to reserve withdrawal amount: %w", err)
		}

		withdrawal = &models.Withdrawal{
			UserID:        userID,
			Amount:        amount,
			Destination:   destination,
			Status:        models.WithdrawalStatusProcessing,
			TransactionID: uuid.NewString(),
		}
		return tx.Create(withdrawal).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("user %d requested withdrawal %d of %s", userID, withdrawal.ID, amount)
	return withdrawal, nil
}

// ApproveWithdrawal executes the payout for a processing withdrawal. The row
// is locked while the gateway is called and the terminal status is recorded
// before the lock is released, so the gateway is never called twice for the
// same withdrawal. A gateway failure is recorded as the failed state, not
// surfaced as an error; when refunds are enabled the reserved amount goes
// back to the balance in the same transaction.
func (s *SettlementService) ApproveWithdrawal(ctx context.Context, withdrawalID uint) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).First(&withdrawal, withdrawalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: withdrawal %d", platform.ErrNotFound, withdrawalID)
		}
		if err != nil {
			return err
		}

		if withdrawal.Terminal() {
			return fmt.Errorf("%w: withdrawal %d is %s", platform.ErrAlreadySettled, withdrawalID, withdrawal.Status)
		}

		resp, err := s.gateway.Transfer(ctx, gateway.TransferRequest{
			Amount:             withdrawal.Amount,
			DestinationAddress: withdrawal.Destination,
			TransactionID:      withdrawal.TransactionID,
		})

		status := models.WithdrawalStatusCompleted
		if err != nil || resp == nil || !resp.Succeeded() {
			status = models.WithdrawalStatusFailed
			if err != nil {
				logrus.Errorf("gateway transfer for withdrawal %d failed: %v", withdrawalID, err)
			} else if resp != nil {
				logrus.Errorf("gateway rejected withdrawal %d: %s", withdrawalID, resp.Message)
			}
		}

		if err := tx.Model(&withdrawal).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to record withdrawal outcome: %w", err)
		}
		withdrawal.Status = status

		if status == models.WithdrawalStatusFailed && s.refundFailed {
			err := tx.Model(&models.User{}).Where("id = ?", withdrawal.UserID).
				Update("balance", gorm.Expr("balance + ?", withdrawal.Amount)).Error
			if err != nil {
				return fmt.Errorf("failed to refund failed withdrawal: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("withdrawal %d settled as %s", withdrawal.ID, withdrawal.Status)
	return &withdrawal, nil
}

// ListWithdrawals returns withdrawals, optionally filtered by status.
func (s *SettlementService) ListWithdrawals(ctx context.Context, status string) ([]models.Withdrawal, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var withdrawals []models.Withdrawal
	if err := query.Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// UserWithdrawals returns one user's withdrawals, newest first.
func (s *SettlementService) UserWithdrawals(ctx context.Context, userID uint) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}
