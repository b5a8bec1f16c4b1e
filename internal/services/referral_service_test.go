package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"investment-platform/internal/models"
)

func createUser(t *testing.T, db *gorm.DB, email string, referredBy *uint) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		ReferralCode: email,
		ReferredByID: referredBy,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func TestBonusPercentageTable(t *testing.T) {
	cases := map[int]string{
		1: "0.5", 2: "0.3", 3: "0.2", 4: "0.1", 5: "0.1",
		6: "0.05", 10: "0.05", 11: "0.03", 20: "0.03", 21: "0",
	}
	for generation, want := range cases {
		got := BonusPercentage(generation)
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("BonusPercentage(%d) = %s, want %s", generation, got, want)
		}
	}
}

func TestDistributeCommissionsThreeGenerations(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, UngatedPolicy{})

	// A refers B refers C; C invests 1000, producing ROI 1.0.
	a := createUser(t, db, "a@test.io", nil)
	b := createUser(t, db, "b@test.io", &a.ID)
	c := createUser(t, db, "c@test.io", &b.ID)

	roi := decimal.RequireFromString("1")
	total, err := service.DistributeCommissions(db, c, roi)
	if err != nil {
		t.Fatalf("DistributeCommissions failed: %v", err)
	}

	var gotB, gotA models.User
	db.First(&gotB, b.ID)
	db.First(&gotA, a.ID)

	if !gotB.ClaimableRef.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("generation 1 commission: got %s, want 0.5", gotB.ClaimableRef)
	}
	if !gotA.ClaimableRef.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("generation 2 commission: got %s, want 0.3", gotA.ClaimableRef)
	}
	if !total.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("total credited: got %s, want 0.8", total)
	}

	// One audit record per credit, at the right generation.
	var records []models.EarningsRecord
	db.Order("generation_level").Find(&records)
	if len(records) != 2 {
		t.Fatalf("expected 2 earnings records, got %d", len(records))
	}
	if records[0].UserID != b.ID || records[0].GenerationLevel != 1 {
		t.Errorf("unexpected generation 1 record: %+v", records[0])
	}
	if records[1].UserID != a.ID || records[1].GenerationLevel != 2 {
		t.Errorf("unexpected generation 2 record: %+v", records[1])
	}
}

func TestDistributeCommissionsChainSum(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, UngatedPolicy{})

	// Chain of 25 uplines: only 20 generations may be credited.
	var prev *uint
	users := make([]*models.User, 0, 26)
	for i := 0; i < 26; i++ {
		u := createUser(t, db, fmt.Sprintf("u%02d@test.io", i), prev)
		users = append(users, u)
		prev = &u.ID
	}
	investor := users[len(users)-1]

	roi := decimal.RequireFromString("10")
	total, err := service.DistributeCommissions(db, investor, roi)
	if err != nil {
		t.Fatalf("DistributeCommissions failed: %v", err)
	}

	// sum of the percentage table over generations 1..20 is 1.75
	want := roi.Mul(decimal.RequireFromString("1.75"))
	if !total.Equal(want) {
		t.Errorf("total credited: got %s, want %s", total, want)
	}

	var count int64
	db.Model(&models.EarningsRecord{}).Count(&count)
	if count != MaxGenerations {
		t.Errorf("expected %d earnings records, got %d", MaxGenerations, count)
	}

	// The 21st upline (users[4] counting back from the investor) got nothing.
	var beyond models.User
	db.First(&beyond, users[4].ID)
	if !beyond.ClaimableRef.IsZero() {
		t.Errorf("generation 21 was credited %s", beyond.ClaimableRef)
	}
}

func TestDistributeCommissionsCycleGuard(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, UngatedPolicy{})

	a := createUser(t, db, "a@test.io", nil)
	b := createUser(t, db, "b@test.io", &a.ID)

	// Corrupt the chain: a -> b -> a.
	if err := db.Model(&models.User{}).Where("id = ?", a.ID).Update("referred_by_id", b.ID).Error; err != nil {
		t.Fatalf("failed to corrupt chain: %v", err)
	}
	a.ReferredByID = &b.ID

	_, err := service.DistributeCommissions(db, a, decimal.RequireFromString("1"))
	if err == nil {
		t.Fatal("expected cycle detection error, got nil")
	}
}

func TestTieredPolicyGating(t *testing.T) {
	db := setupTestDB(t)

	// B refers C. B has invested 100 and C (their direct referral) has
	// invested 1000, so B clears the generation 1 bar.
	b := createUser(t, db, "b@test.io", nil)
	c := createUser(t, db, "c@test.io", &b.ID)
	db.Create(&models.Investment{UserID: b.ID, Amount: decimal.RequireFromString("100")})
	db.Create(&models.Investment{UserID: c.ID, Amount: decimal.RequireFromString("1000")})

	policy := TieredPolicy{}

	eligible, err := policy.Eligible(db, b, 1)
	if err != nil {
		t.Fatalf("Eligible failed: %v", err)
	}
	if !eligible {
		t.Error("expected B to be eligible at generation 1")
	}

	// Generation 2 requires two direct referrals; B has one.
	eligible, err = policy.Eligible(db, b, 2)
	if err != nil {
		t.Fatalf("Eligible failed: %v", err)
	}
	if eligible {
		t.Error("expected B to be ineligible at generation 2")
	}

	// An upline with no investments fails every bar.
	bare := createUser(t, db, "bare@test.io", nil)
	eligible, err = policy.Eligible(db, bare, 1)
	if err != nil {
		t.Fatalf("Eligible failed: %v", err)
	}
	if eligible {
		t.Error("expected user without investments to be ineligible")
	}
}

func TestTieredPolicyFiltersWithoutChangingPercentages(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db, TieredPolicy{})

	// A refers B refers C. B clears the generation 1 bar; A has nothing and
	// must be skipped while the walk continues past them.
	a := createUser(t, db, "a@test.io", nil)
	b := createUser(t, db, "b@test.io", &a.ID)
	c := createUser(t, db, "c@test.io", &b.ID)
	db.Create(&models.Investment{UserID: b.ID, Amount: decimal.RequireFromString("100")})
	db.Create(&models.Investment{UserID: c.ID, Amount: decimal.RequireFromString("1000")})

	total, err := service.DistributeCommissions(db, c, decimal.RequireFromString("1"))
	if err != nil {
		t.Fatalf("DistributeCommissions failed: %v", err)
	}

	var gotA, gotB models.User
	db.First(&gotA, a.ID)
	db.First(&gotB, b.ID)

	if !gotB.ClaimableRef.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("eligible generation 1: got %s, want 0.5", gotB.ClaimableRef)
	}
	if !gotA.ClaimableRef.IsZero() {
		t.Errorf("ineligible generation 2 was credited %s", gotA.ClaimableRef)
	}
	if !total.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("total credited: got %s, want 0.5", total)
	}
}
