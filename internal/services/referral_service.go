package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investment-platform/internal/models"
)

// MaxGenerations caps the upline walk: commissions decay over at most 20
// referral generations.
const MaxGenerations = 20

// BonusPercentage returns the commission share of the investor's ROI paid to
// the upline at the given generation distance.
func BonusPercentage(generation int) decimal.Decimal {
	switch {
	case generation == 1:
		return decimal.NewFromFloat(0.5)
	case generation == 2:
		return decimal.NewFromFloat(0.3)
	case generation == 3:
		return decimal.NewFromFloat(0.2)
	case generation == 4 || generation == 5:
		return decimal.NewFromFloat(0.1)
	case generation >= 6 && generation <= 10:
		return decimal.NewFromFloat(0.05)
	case generation >= 11 && generation <= MaxGenerations:
		return decimal.NewFromFloat(0.03)
	default:
		return decimal.Zero
	}
}

// EligibilityPolicy decides whether an upline user may receive the commission
// for a given generation. Policies only filter; the percentage table and the
// generation cap are fixed.
type EligibilityPolicy interface {
	Eligible(tx *gorm.DB, user *models.User, generation int) (bool, error)
}

// UngatedPolicy credits every generation along the chain unconditionally.
// This is the canonical behavior.
type UngatedPolicy struct{}

func (UngatedPolicy) Eligible(tx *gorm.DB, user *models.User, generation int) (bool, error) {
	return true, nil
}

// eligibilityTier is the per-generation bar a beneficiary must clear under
// the tiered policy: own total investment, number of direct referrals, and
// the minimum each direct referral must have invested.
type eligibilityTier struct {
	minPersonal    int64
	minReferrals   int
	minPerReferral int64
}

func tierFor(generation int) eligibilityTier {
	switch {
	case generation == 1:
		return eligibilityTier{100, 1, 100}
	case generation == 2:
		return eligibilityTier{100, 2, 300}
	case generation == 3:
		return eligibilityTier{200, 3, 500}
	case generation == 4:
		return eligibilityTier{200, 4, 1000}
	case generation == 5:
		return eligibilityTier{300, 5, 1000}
	case generation == 6:
		return eligibilityTier{300, 6, 1500}
	case generation == 7:
		return eligibilityTier{500, 7, 1500}
	case generation == 8 || generation == 9:
		return eligibilityTier{500, generation, 2000}
	case generation == 10:
		return eligibilityTier{500, 10, 2500}
	case generation >= 11 && generation <= 15:
		return eligibilityTier{1000, 10, 3000}
	default: // 16..20
		return eligibilityTier{1500, 10, 4000}
	}
}

// TieredPolicy gates each generation on the beneficiary's own investment
// total and the size and investment totals of their direct downline.
type TieredPolicy struct{}

func (TieredPolicy) Eligible(tx *gorm.DB, user *models.User, generation int) (bool, error) {
	if generation > MaxGenerations {
		return false, nil
	}
	tier := tierFor(generation)

	var personal decimal.Decimal
	row := tx.Model(&models.Investment{}).
		Where("user_id = ?", user.ID).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&personal); err != nil {
		return false, fmt.Errorf("failed to sum personal investment: %w", err)
	}
	if personal.LessThan(decimal.NewFromInt(tier.minPersonal)) {
		return false, nil
	}

	// Per-direct-referral investment totals.
	var totals []struct {
		UserID uint
		Total  decimal.Decimal
	}
	err := tx.Table("users").
		Select("users.id AS user_id, COALESCE(SUM(investments.amount), 0) AS total").
		Joins("LEFT JOIN investments ON investments.user_id = users.id").
		Where("users.referred_by_id = ?", user.ID).
		Group("users.id").
		Scan(&totals).Error
	if err != nil {
		return false, fmt.Errorf("failed to sum referral investments: %w", err)
	}

	if len(totals) < tier.minReferrals {
		return false, nil
	}
	perReferral := decimal.NewFromInt(tier.minPerReferral)
	for _, t := range totals {
		if t.Total.LessThan(perReferral) {
			return false, nil
		}
	}
	return true, nil
}

// ReferralService distributes decaying referral commissions up the upline
// chain whenever an investment produces ROI.
type ReferralService struct {
	db     *gorm.DB
	policy EligibilityPolicy
}

func NewReferralService(db *gorm.DB, policy EligibilityPolicy) *ReferralService {
	if policy == nil {
		policy = UngatedPolicy{}
	}
	return &ReferralService{db: db, policy: policy}
}

// DistributeCommissions walks the upline from the investor, crediting each
// eligible generation's claimable referral bucket and appending an earnings
// record per credit. The walk is bounded by both the generation cap and a
// visited set, so corrupted referral data cannot loop it. Returns the total
// commission credited.
func (s *ReferralService) DistributeCommissions(tx *gorm.DB, investor *models.User, roi decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	visited := map[uint]bool{investor.ID: true}

	currentID := investor.ReferredByID
	for generation := 1; currentID != nil && generation <= MaxGenerations; generation++ {
		if visited[*currentID] {
			return total, fmt.Errorf("referral chain cycle detected at user %d", *currentID)
		}
		visited[*currentID] = true

		var upline models.User
		if err := tx.First(&upline, *currentID).Error; err != nil {
			return total, fmt.Errorf("failed to load upline user %d: %w", *currentID, err)
		}

		eligible, err := s.policy.Eligible(tx, &upline, generation)
		if err != nil {
			return total, err
		}

		if eligible {
			commission := roi.Mul(BonusPercentage(generation)).Round(LedgerPrecision)
			if commission.IsPositive() {
				if err := creditRef(tx, upline.ID, commission, generation); err != nil {
					return total, err
				}
				total = total.Add(commission)
			}
		}

		currentID = upline.ReferredByID
	}

	return total, nil
}

// creditRef atomically adds a commission to the user's claimable referral
// bucket and appends the audit record.
func creditRef(tx *gorm.DB, userID uint, amount decimal.Decimal, generation int) error {
	err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("claimable_ref", gorm.Expr("claimable_ref + ?", amount)).Error
	if err != nil {
		return fmt.Errorf("failed to credit referral commission to user %d: %w", userID, err)
	}

	record := models.EarningsRecord{
		UserID:          userID,
		AmountEarned:    amount,
		GenerationLevel: generation,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record referral earnings for user %d: %w", userID, err)
	}
	return nil
}
