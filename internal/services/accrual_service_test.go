package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"investment-platform/internal/lock"
	"investment-platform/internal/models"
	"investment-platform/internal/notify"
)

func TestRunCycleCreditsROIAndCommissions(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, UngatedPolicy{})
	service := NewAccrualService(db, referrals, lock.NewLocalLock(), notify.NewLogNotifier())

	a := createUser(t, db, "a@test.io", nil)
	b := createUser(t, db, "b@test.io", &a.ID)
	require.NoError(t, db.Create(&models.Investment{UserID: b.ID, Amount: decimal.RequireFromString("2500")}).Error)

	report, err := service.RunCycle(context.Background())
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Equal(t, 1, report.Investments)
	require.Equal(t, 0, report.Errors)

	var gotB, gotA models.User
	require.NoError(t, db.First(&gotB, b.ID).Error)
	require.NoError(t, db.First(&gotA, a.ID).Error)

	// 2500 * 0.002 = 5.0 direct ROI; generation 1 commission is 50% of that.
	require.True(t, gotB.ClaimableROI.Equal(decimal.RequireFromString("5")),
		"claimable ROI: got %s", gotB.ClaimableROI)
	require.True(t, gotA.ClaimableRef.Equal(decimal.RequireFromString("2.5")),
		"claimable ref: got %s", gotA.ClaimableRef)
	require.True(t, report.Credited.Equal(decimal.RequireFromString("7.5")),
		"credited: got %s", report.Credited)

	var records []models.EarningsRecord
	require.NoError(t, db.Order("generation_level").Find(&records).Error)
	require.Len(t, records, 2)
	require.Equal(t, b.ID, records[0].UserID)
	require.Equal(t, 0, records[0].GenerationLevel)
	require.Equal(t, a.ID, records[1].UserID)
	require.Equal(t, 1, records[1].GenerationLevel)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	db := setupTestDB(t)
	cycleLock := lock.NewLocalLock()
	referrals := NewReferralService(db, UngatedPolicy{})
	service := NewAccrualService(db, referrals, cycleLock, notify.NewLogNotifier())

	b := createUser(t, db, "b@test.io", nil)
	require.NoError(t, db.Create(&models.Investment{UserID: b.ID, Amount: decimal.RequireFromString("1000")}).Error)

	acquired, err := cycleLock.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, acquired)

	report, err := service.RunCycle(context.Background())
	require.NoError(t, err)
	require.True(t, report.Skipped)
	require.Equal(t, 0, report.Investments)

	var got models.User
	require.NoError(t, db.First(&got, b.ID).Error)
	require.True(t, got.ClaimableROI.IsZero(), "skipped cycle must not credit")

	// Once released the next cycle runs normally.
	require.NoError(t, cycleLock.Release(context.Background()))
	report, err = service.RunCycle(context.Background())
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Equal(t, 1, report.Investments)
}

func TestRunCycleIsolatesFailures(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, UngatedPolicy{})
	service := NewAccrualService(db, referrals, lock.NewLocalLock(), notify.NewLogNotifier())

	b := createUser(t, db, "b@test.io", nil)
	require.NoError(t, db.Create(&models.Investment{UserID: b.ID, Amount: decimal.RequireFromString("1000")}).Error)
	// Orphaned investment: no such user.
	require.NoError(t, db.Create(&models.Investment{UserID: 9999, Amount: decimal.RequireFromString("500")}).Error)

	report, err := service.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Investments)
	require.Equal(t, 1, report.Errors)

	var got models.User
	require.NoError(t, db.First(&got, b.ID).Error)
	require.True(t, got.ClaimableROI.Equal(decimal.RequireFromString("1")),
		"healthy investment must still be credited, got %s", got.ClaimableROI)
}

func TestRunCycleExcludesExpiredInvestments(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, UngatedPolicy{})
	service := NewAccrualService(db, referrals, lock.NewLocalLock(), notify.NewLogNotifier())

	b := createUser(t, db, "b@test.io", nil)
	require.NoError(t, db.Create(&models.Investment{UserID: b.ID, Amount: decimal.RequireFromString("1000"), Expired: true}).Error)

	report, err := service.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Investments)

	var got models.User
	require.NoError(t, db.First(&got, b.ID).Error)
	require.True(t, got.ClaimableROI.IsZero())
}

func TestRunCycleEarningsCap(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db, UngatedPolicy{})
	service := NewAccrualService(db, referrals, lock.NewLocalLock(), notify.NewLogNotifier())

	b := createUser(t, db, "b@test.io", nil)
	require.NoError(t, db.Create(&models.Investment{UserID: b.ID, Amount: decimal.RequireFromString("100")}).Error)
	// Lifetime earnings already at 300% of principal.
	require.NoError(t, db.Create(&models.EarningsRecord{UserID: b.ID, AmountEarned: decimal.RequireFromString("300")}).Error)

	report, err := service.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Investments)
	require.Equal(t, 1, report.Capped)
	require.Equal(t, 0, report.Errors)

	var got models.User
	require.NoError(t, db.First(&got, b.ID).Error)
	require.True(t, got.ClaimableROI.IsZero(), "capped investor must not be credited")
}
