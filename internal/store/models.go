package store

import (
	"crypto/rand"
	"time"

	"gorm.io/gorm"
)

// User is a WhatsApp sender identified by phone number.
type User struct {
	ID          string `gorm:"primaryKey" json:"id"`
	PhoneNumber string `gorm:"uniqueIndex" json:"phone_number"`
	Language    string `json:"language"` // en, he, or auto
	Timezone    string `json:"timezone"`

	// GoogleCredentials holds the serialized OAuth token; empty means the
	// calendar is not connected.
	GoogleCredentials string `json:"-" gorm:"type:text"`

	// Conversation state for multi-turn dialogues. Payload is serialized
	// JSON keyed by step.
	ConversationStep      string     `json:"conversation_step"`
	ConversationPayload   string     `json:"-" gorm:"type:text"`
	ConversationUpdatedAt *time.Time `json:"conversation_updated_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Connected reports whether the user has calendar credentials on file.
func (u *User) Connected() bool {
	return u.GoogleCredentials != ""
}

// MessageHistory records an inbound or outbound message.
type MessageHistory struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_user_created" json:"user_id"`
	Direction string    `json:"direction"` // incoming, outgoing
	Body      string    `json:"body" gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_user_created" json:"created_at"`
}

// ScheduledReminder is one pending reminder for one event at one lead time.
type ScheduledReminder struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"uniqueIndex:idx_reminder_dedupe" json:"user_id"`
	EventID       string    `gorm:"uniqueIndex:idx_reminder_dedupe" json:"event_id"`
	MinutesBefore int       `gorm:"uniqueIndex:idx_reminder_dedupe" json:"minutes_before"`
	EventTitle    string    `json:"event_title"`
	EventStart    time.Time `json:"event_start"`
	RemindAt      time.Time `gorm:"index" json:"remind_at"`
	Sent          bool      `json:"sent"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeforeCreate hook for User
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateID("usr")
	}
	if u.Language == "" {
		u.Language = "auto"
	}
	if u.Timezone == "" {
		u.Timezone = "Asia/Jerusalem"
	}
	return nil
}

// BeforeCreate hook for MessageHistory
func (m *MessageHistory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateID("msg")
	}
	return nil
}

// BeforeCreate hook for ScheduledReminder
func (r *ScheduledReminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateID("rem")
	}
	return nil
}

// generateID creates a unique ID with nanosecond precision
func generateID(prefix string) string {
	return prefix + "_" + time.Now().Format("20060102150405") + "_" + randomString(8)
}

// randomString generates a cryptographically secure random string
func randomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
