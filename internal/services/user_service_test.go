package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"investment-platform/internal/models"
	"investment-platform/internal/notify"
	"investment-platform/internal/platform"
)

func TestRegisterAndReferralBinding(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, notify.NewLogNotifier())
	ctx := context.Background()

	referrer, err := service.Register(ctx, "Referrer@Test.io", "pass123", "wallet-1", "")
	require.NoError(t, err)
	require.Equal(t, "referrer@test.io", referrer.Email)
	require.Len(t, referrer.ReferralCode, 6)
	require.Nil(t, referrer.ReferredByID)

	referred, err := service.Register(ctx, "referred@test.io", "pass123", "", referrer.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, referred.ReferredByID)
	require.Equal(t, referrer.ID, *referred.ReferredByID)

	// Duplicate email and unknown referral code are rejected.
	_, err = service.Register(ctx, "referred@test.io", "pass123", "", "")
	require.ErrorIs(t, err, platform.ErrValidation)

	_, err = service.Register(ctx, "other@test.io", "pass123", "", "NOSUCH")
	require.ErrorIs(t, err, platform.ErrValidation)

	downline, err := service.GetReferrals(ctx, referrer.ID)
	require.NoError(t, err)
	require.Len(t, downline, 1)
	require.Equal(t, referred.ID, downline[0].ID)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, notify.NewLogNotifier())
	ctx := context.Background()

	_, err := service.Register(ctx, "login@test.io", "secret", "", "")
	require.NoError(t, err)

	user, err := service.Login(ctx, "login@test.io", "secret", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "login@test.io", user.Email)

	_, err = service.Login(ctx, "login@test.io", "wrong", "10.0.0.1")
	require.ErrorIs(t, err, platform.ErrUnauthorized)

	_, err = service.Login(ctx, "missing@test.io", "secret", "10.0.0.1")
	require.ErrorIs(t, err, platform.ErrUnauthorized)

	// Suspended accounts cannot log in.
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "login@test.io").
		Update("status", models.StatusSuspended).Error)
	_, err = service.Login(ctx, "login@test.io", "secret", "10.0.0.1")
	require.ErrorIs(t, err, platform.ErrUnauthorized)
}
