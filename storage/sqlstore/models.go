package sqlstore

import (
	"time"

	"github.com/MrEthical07/goStepUp/rule"
)

// Rule is the persisted form of rule.AccessRule.
type Rule struct {
	ID             int64       `gorm:"primaryKey"`
	Status         int         `gorm:"index;not null;default:1"`
	Title          string      `gorm:"size:255"`
	Method         int         `gorm:"not null"`
	URL            string      `gorm:"size:1024"`
	Params         string      `gorm:"type:text"`
	ButtonSelector string      `gorm:"size:255"`
	Shortcode      string      `gorm:"size:255;index"`
	IsRequired     bool        `gorm:"index"`
	IsEditable     bool        `gorm:"index"`
	Config         rule.Config `gorm:"serializer:json;type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Rule) TableName() string { return "tfa_rules" }

func (m *Rule) toAccessRule() *rule.AccessRule {
	return &rule.AccessRule{
		ID:             m.ID,
		Status:         rule.Status(m.Status),
		Title:          m.Title,
		Method:         rule.Method(m.Method),
		URL:            m.URL,
		Params:         m.Params,
		ButtonSelector: m.ButtonSelector,
		Shortcode:      m.Shortcode,
		IsRequired:     m.IsRequired,
		IsEditable:     m.IsEditable,
		Config:         m.Config,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func ruleModel(r *rule.AccessRule) *Rule {
	return &Rule{
		ID:             r.ID,
		Status:         int(r.Status),
		Title:          r.Title,
		Method:         int(r.Method),
		URL:            r.URL,
		Params:         r.Params,
		ButtonSelector: r.ButtonSelector,
		Shortcode:      r.Shortcode,
		IsRequired:     r.IsRequired,
		IsEditable:     r.IsEditable,
		Config:         r.Config,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// User is a login account.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	UUID         string `gorm:"uniqueIndex;size:36"`
	Login        string `gorm:"uniqueIndex;size:191"`
	PasswordHash string `json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "tfa_users" }

// UserAttribute is one key/value pair of user meta, such as the confirmed
// phone number or enabled handlers.
type UserAttribute struct {
	ID       uint   `gorm:"primaryKey"`
	UserUUID string `gorm:"uniqueIndex:idx_user_key;size:36;not null"`
	Key      string `gorm:"column:attr_key;uniqueIndex:idx_user_key;index:idx_key_value,priority:1;size:191;not null"`
	Value    string `gorm:"index:idx_key_value,priority:2;size:191"`
}

func (UserAttribute) TableName() string { return "tfa_user_attributes" }
