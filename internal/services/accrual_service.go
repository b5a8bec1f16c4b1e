package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"investment-platform/internal/lock"
	"investment-platform/internal/models"
	"investment-platform/internal/notify"
)

// earningsCapMultiple stops ROI once a user's lifetime earnings reach this
// multiple of their total principal.
var earningsCapMultiple = decimal.NewFromInt(3)

// CycleReport summarizes one accrual cycle.
type CycleReport struct {
	Skipped     bool            `json:"skipped"`
	Investments int             `json:"investments"`
	Capped      int             `json:"capped"`
	Credited    decimal.Decimal `json:"credited"`
	Errors      int             `json:"errors"`
	Duration    time.Duration   `json:"duration"`
}

// AccrualService runs the periodic batch that credits daily ROI and referral
// commissions into claimable buckets.
type AccrualService struct {
	db        *gorm.DB
	referrals *ReferralService
	cycleLock lock.CycleLock
	notifier  notify.Notifier
}

func NewAccrualService(db *gorm.DB, referrals *ReferralService, cycleLock lock.CycleLock, notifier notify.Notifier) *AccrualService {
	return &AccrualService{
		db:        db,
		referrals: referrals,
		cycleLock: cycleLock,
		notifier:  notifier,
	}
}

// RunCycle executes one accrual pass over all active investments. Overlapping
// invocations are dropped: if the cycle lock is held the report comes back
// with Skipped set and nothing is credited. A failure on one investment is
// logged and counted, never aborts the cycle.
func (s *AccrualService) RunCycle(ctx context.Context) (*CycleReport, error) {
	acquired, err := s.cycleLock.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire cycle lock: %w", err)
	}
	if !acquired {
		logrus.Info("accrual cycle already running, skipping")
		return &CycleReport{Skipped: true, Credited: decimal.Zero}, nil
	}
	defer func() {
		if err := s.cycleLock.Release(context.Background()); err != nil {
			logrus.Errorf("failed to release cycle lock: %v", err)
		}
	}()

	start := time.Now()
	report := &CycleReport{Credited: decimal.Zero}

	var investments []models.Investment
	if err := s.db.WithContext(ctx).Preload("User").Where("expired = ?", false).Find(&investments).Error; err != nil {
		return nil, fmt.Errorf("failed to load active investments: %w", err)
	}

	// Cap verdicts are stable within a cycle; compute once per investor.
	capped := map[uint]bool{}

	for i := range investments {
		inv := &investments[i]
		report.Investments++

		if inv.User == nil {
			logrus.Warnf("investment %d has no investor, skipping", inv.ID)
			report.Errors++
			continue
		}

		reached, known := capped[inv.UserID]
		if !known {
			var err error
			reached, err = s.capReached(ctx, inv.UserID)
			if err != nil {
				logrus.Errorf("cap check failed for user %d: %v", inv.UserID, err)
				report.Errors++
				continue
			}
			capped[inv.UserID] = reached
			if reached {
				notify.SendAsync(s.notifier, inv.User.Email, "Earnings cap reached",
					"Your earnings have reached 300% of your invested principal. Top up to keep earning.")
			}
		}
		if reached {
			report.Capped++
			continue
		}

		credited, err := s.accrueInvestment(ctx, inv)
		if err != nil {
			logrus.Errorf("accrual failed for investment %d: %v", inv.ID, err)
			report.Errors++
			continue
		}
		report.Credited = report.Credited.Add(credited)
	}

	report.Duration = time.Since(start)
	logrus.WithFields(logrus.Fields{
		"investments": report.Investments,
		"capped":      report.Capped,
		"credited":    report.Credited,
		"errors":      report.Errors,
		"duration":    report.Duration,
	}).Info("accrual cycle completed")

	return report, nil
}

// accrueInvestment credits one investment's daily ROI and the resulting
// upline commissions inside a single transaction.
func (s *AccrualService) accrueInvestment(ctx context.Context, inv *models.Investment) (decimal.Decimal, error) {
	total := decimal.Zero

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roi := ComputeROI(inv.Amount)
		if !roi.IsPositive() {
			return nil
		}

		err := tx.Model(&models.User{}).Where("id = ?", inv.UserID).
			Update("claimable_roi", gorm.Expr("claimable_roi + ?", roi)).Error
		if err != nil {
			return fmt.Errorf("failed to credit ROI to user %d: %w", inv.UserID, err)
		}

		record := models.EarningsRecord{
			UserID:          inv.UserID,
			AmountEarned:    roi,
			GenerationLevel: 0,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record ROI earnings for user %d: %w", inv.UserID, err)
		}

		commissions, err := s.referrals.DistributeCommissions(tx, inv.User, roi)
		if err != nil {
			return err
		}

		total = roi.Add(commissions)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// capReached reports whether the user's lifetime earnings have hit 300% of
// their total principal.
func (s *AccrualService) capReached(ctx context.Context, userID uint) (bool, error) {
	var invested decimal.Decimal
	row := s.db.WithContext(ctx).Model(&models.Investment{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&invested); err != nil {
		return false, fmt.Errorf("failed to sum investments: %w", err)
	}
	if !invested.IsPositive() {
		return false, nil
	}

	var earned decimal.Decimal
	row = s.db.WithContext(ctx).Model(&models.EarningsRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_earned), 0)").Row()
	if err := row.Scan(&earned); err != nil {
		return false, fmt.Errorf("failed to sum earnings: %w", err)
	}

	return earned.GreaterThanOrEqual(invested.Mul(earningsCapMultiple)), nil
}
