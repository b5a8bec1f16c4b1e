package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"investment-platform/internal/models"
	"investment-platform/internal/notify"
	"investment-platform/internal/platform"
)

const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UserService handles registration, login, and profile reads.
type UserService struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewUserService(db *gorm.DB, notifier notify.Notifier) *UserService {
	return &UserService{db: db, notifier: notifier}
}

// Register creates a user, issues a unique referral code, and, when a
// referrer's code is supplied, binds the new user to that upline. The binding
// is write-once: ReferredByID is never changed afterwards.
func (s *UserService) Register(ctx context.Context, email, password, walletAddress, referrerCode string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", platform.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
			return fmt.Errorf("%w: email already registered", platform.ErrValidation)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var referredByID *uint
		if referrerCode != "" {
			var referrer models.User
			err := tx.Where("referral_code = ?", strings.ToUpper(referrerCode)).First(&referrer).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: invalid referral code", platform.ErrValidation)
			}
			if err != nil {
				return err
			}
			referredByID = &referrer.ID
		}

		code, err := s.uniqueReferralCode(tx)
		if err != nil {
			return err
		}

		user = &models.User{
			Email:         email,
			WalletAddress: walletAddress,
			PasswordHash:  string(hash),
			ReferralCode:  code,
			ReferredByID:  referredByID,
			Role:          models.RoleUser,
			Status:        models.StatusActive,
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("registered user %d (%s)", user.ID, user.Email)
	return user, nil
}

// uniqueReferralCode draws 6-character codes until one is free.
func (s *UserService) uniqueReferralCode(tx *gorm.DB) (string, error) {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = referralCodeAlphabet[rand.Intn(len(referralCodeAlphabet))]
		}
		code := string(b)

		var count int64
		if err := tx.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
}

// Login verifies credentials and returns the user. A login from an IP the
// user has not used before triggers a fire-and-forget notice and updates the
// stored address.
func (s *UserService) Login(ctx context.Context, email, password, ip string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", platform.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", platform.ErrUnauthorized)
	}

	if user.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: account %s", platform.ErrUnauthorized, user.Status)
	}

	if ip != "" && ip != user.LastKnownIP {
		if user.LastKnownIP != "" {
			notify.SendAsync(s.notifier, user.Email, "New login detected",
				fmt.Sprintf("A new login was detected from IP address %s. If this wasn't you, secure your account.", ip))
		}
		if err := s.db.Model(&user).Update("last_known_ip", ip).Error; err != nil {
			logrus.Warnf("failed to update last known IP for user %d: %v", user.ID, err)
		}
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", platform.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetReferrals returns the user's direct downline.
func (s *UserService) GetReferrals(ctx context.Context, userID uint) ([]models.User, error) {
	var referrals []models.User
	err := s.db.WithContext(ctx).Where("referred_by_id = ?", userID).Find(&referrals).Error
	if err != nil {
		return nil, err
	}
	return referrals, nil
}

// GetEarnings returns the user's earnings history, newest first.
func (s *UserService) GetEarnings(ctx context.Context, userID uint) ([]models.EarningsRecord, error) {
	var records []models.EarningsRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("date DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
