// Package model defines the data models for the study assistant bot.
package model

import "time"

// Account represents a registered student account with its ledger balances.
type Account struct {
	TelegramID       int64     `db:"telegram_id"`
	FullName         string    `db:"full_name"`
	Stage            string    `db:"stage"`
	Country          string    `db:"country"`
	ActivationCode   string    `db:"activation_code"`
	Points           int64     `db:"points"`
	Currency         int64     `db:"currency"`
	Premium          bool      `db:"premium"`
	GiftPremium      bool      `db:"gift_premium"`
	Manager          bool      `db:"manager"`
	ReferralCount    int64     `db:"referral_count"`
	ReferredBy       *string   `db:"referred_by"`
	QuestionCount    int64     `db:"question_count"`
	ResponsesSinceAd int64     `db:"responses_since_ad"`
	CreatedAt        time.Time `db:"created_at"`
	LastActiveAt     time.Time `db:"last_active_at"`
}

// Question is an append-only log entry for every question attempt.
type Question struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	Text      string    `db:"text"`
	Category  string    `db:"category"`
	CreatedAt time.Time `db:"created_at"`
}

// Task is an admin-defined unit of work with a point reward.
type Task struct {
	ID          int64     `db:"id"`
	Link        string    `db:"link"`
	Description string    `db:"description"`
	Points      int64     `db:"points"`
	Category    string    `db:"category"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
}

// TaskCompletion records that an account completed a task.
// The (AccountID, TaskID) pair is unique; PointsAwarded captures the reward
// at completion time so later task edits cannot rewrite history.
type TaskCompletion struct {
	ID            int64     `db:"id"`
	AccountID     int64     `db:"account_id"`
	TaskID        int64     `db:"task_id"`
	PointsAwarded int64     `db:"points_awarded"`
	CreatedAt     time.Time `db:"created_at"`
}

// Transfer is a provenance record for a value movement.
// For single-account operations (conversion, bonuses, grants) the sender and
// recipient are the same account.
type Transfer struct {
	ID          int64     `db:"id"`
	SenderID    int64     `db:"sender_id"`
	RecipientID int64     `db:"recipient_id"`
	Amount      int64     `db:"amount"`
	Kind        string    `db:"kind"`
	CreatedAt   time.Time `db:"created_at"`
}

// SupportTicket is a user message with an optional admin reply.
type SupportTicket struct {
	ID        int64      `db:"id"`
	AccountID int64      `db:"account_id"`
	Message   string     `db:"message"`
	Reply     *string    `db:"reply"`
	Answered  bool       `db:"answered"`
	CreatedAt time.Time  `db:"created_at"`
	RepliedAt *time.Time `db:"replied_at"`
}

// Transfer kinds for categorizing value movements.
const (
	KindConvert         = "convert"          // Points converted to currency
	KindTransfer        = "transfer"         // Currency moved between accounts
	KindPremiumPurchase = "premium_purchase" // Premium bought with currency
	KindAdminGrant      = "admin_grant"      // Admin-issued credit
	KindReferralBonus   = "referral_bonus"   // Referral reward points
	KindTaskReward      = "task_reward"      // Task completion points
	KindAdBonus         = "ad_bonus"         // Ad ritual bonus points
)

// Question categories. Every attempt is logged, answered and ad-blocked alike.
const (
	QuestionCategoryGeneral = "عام"
	QuestionCategoryBlocked = "محجوب"
)

// Task categories used for level-based visibility filtering.
const (
	TaskCategoryChat        = "chat"
	TaskCategoryActivity    = "activity"
	TaskCategoryProfile     = "profile"
	TaskCategoryReferral    = "referral"
	TaskCategoryAchievement = "achievement"
	TaskCategoryGeneral     = "general"
)

// AccountTotals aggregates ledger balances across all accounts.
type AccountTotals struct {
	Accounts int64 `db:"accounts"`
	Points   int64 `db:"points"`
	Currency int64 `db:"currency"`
	Premium  int64 `db:"premium"`
}

// EducationStages is the closed list of selectable education stages.
var EducationStages = []string{
	"التعليم الابتدائي (1-6)",
	"التعليم المتوسط/الإعدادي (7-9)",
	"التعليم الثانوي/الثالثي (10-12)",
	"الجامعة/التعليم العالي",
}

// ArabCountries is the closed list of selectable countries.
var ArabCountries = []string{
	"المملكة العربية السعودية", "مصر", "الإمارات العربية المتحدة",
	"الكويت", "قطر", "البحرين", "سلطنة عمان", "الأردن",
	"فلسطين", "سوريا", "لبنان", "العراق", "اليمن",
	"ليبيا", "تونس", "الجزائر", "المغرب", "السودان",
	"جيبوتي", "موريتانيا", "الصومال", "جزر القمر",
}

// IsEducationStage reports whether s is one of the selectable stages.
func IsEducationStage(s string) bool {
	for _, stage := range EducationStages {
		if stage == s {
			return true
		}
	}
	return false
}

// IsArabCountry reports whether s is one of the selectable countries.
func IsArabCountry(s string) bool {
	for _, c := range ArabCountries {
		if c == s {
			return true
		}
	}
	return false
}
