package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Feedback labels a user can attach to a past purchase at a follow-up
// checkpoint.
const (
	FeedbackRegret    = "regret"
	FeedbackUnsure    = "unsure"
	FeedbackSatisfied = "satisfied"
)

// User holds the profile fields the evaluation core reads: discretionary
// budget, stated values, and psychometric onboarding answers.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Email          string `gorm:"size:255;uniqueIndex"`
	DisplayName    string `gorm:"size:128"`
	WeeklyBudget   *float64
	ProfileSummary string `gorm:"type:text"`
	CoreValuesJSON string `gorm:"type:text"`
	OnboardingJSON string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OnboardingAnswer is one psychometric questionnaire response. Value is a
// 1-5 Likert rating.
type OnboardingAnswer struct {
	Trait    string `json:"trait"`
	Question string `json:"question"`
	Value    int    `json:"value"`
}

// SetCoreValues persists the stated values list as JSON.
func (u *User) SetCoreValues(values []string) {
	if values == nil {
		u.CoreValuesJSON = "[]"
		return
	}
	payload, _ := json.Marshal(values)
	u.CoreValuesJSON = string(payload)
}

// CoreValues returns the unmarshalled stated values.
func (u *User) CoreValues() []string {
	if strings.TrimSpace(u.CoreValuesJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(u.CoreValuesJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetOnboardingAnswers persists the questionnaire responses as JSON.
func (u *User) SetOnboardingAnswers(answers []OnboardingAnswer) {
	if answers == nil {
		u.OnboardingJSON = "[]"
		return
	}
	payload, _ := json.Marshal(answers)
	u.OnboardingJSON = string(payload)
}

// OnboardingAnswers returns the decoded questionnaire responses.
func (u *User) OnboardingAnswers() []OnboardingAnswer {
	if strings.TrimSpace(u.OnboardingJSON) == "" {
		return nil
	}
	var out []OnboardingAnswer
	if err := json.Unmarshal([]byte(u.OnboardingJSON), &out); err != nil {
		return nil
	}
	return out
}

// Vendor is a catalog entry describing a seller's quality, reliability, and
// price tier.
type Vendor struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:255;index"`
	NameNormalized string `gorm:"size:255;uniqueIndex"`
	Category       string `gorm:"size:128;index"`
	Quality        string `gorm:"size:16"`
	Reliability    string `gorm:"size:16"`
	PriceTier      string `gorm:"size:16"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Purchase is a recorded purchase, optionally linked to the verdict that
// preceded it.
type Purchase struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"index"`
	Title         string `gorm:"size:255"`
	Price         *float64
	Category      string `gorm:"size:128;index"`
	Vendor        string `gorm:"size:255"`
	Justification string `gorm:"type:text"`
	VerdictID     *uint  `gorm:"index"`
	CreatedAt     time.Time
}

// Feedback is a regret signal recorded at a scheduled follow-up checkpoint.
type Feedback struct {
	ID         uint      `gorm:"primaryKey"`
	PurchaseID uint      `gorm:"index"`
	UserID     uint      `gorm:"index"`
	Label      string    `gorm:"size:16;index"`
	Checkpoint string    `gorm:"size:16"`
	CreatedAt  time.Time `gorm:"index"`
}

// Verdict persists one evaluation: the candidate snapshot, the reasoning
// breakdown, and the outcome.
type Verdict struct {
	ID            uint   `gorm:"primaryKey"`
	PublicID      string `gorm:"size:64;uniqueIndex"`
	UserID        uint   `gorm:"index"`
	Title         string `gorm:"size:255"`
	Price         *float64
	Category      string `gorm:"size:128"`
	Vendor        string `gorm:"size:255"`
	Justification string `gorm:"type:text"`
	IsImportant   bool
	Outcome       string `gorm:"size:16;index"`
	Confidence    float64
	Algorithm     string `gorm:"size:32"`
	ReasoningJSON string `gorm:"type:text"`
	HoldReleaseAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// SetReasoning stores the reasoning breakdown as JSON.
func (v *Verdict) SetReasoning(reasoning any) {
	payload, _ := json.Marshal(reasoning)
	v.ReasoningJSON = string(payload)
}
