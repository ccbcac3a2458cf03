package models

import (
	"time"
)

// Email direction values
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Email represents a single email record. Records are never hard-deleted by
// normal flows; IsDeleted marks them as trashed until restored.
type Email struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ThreadID    string    `gorm:"not null;index;size:255" json:"threadId"`
	Subject     string    `gorm:"not null;size:500" json:"subject"`
	Sender      string    `gorm:"size:255" json:"sender"`
	Recipient   string    `gorm:"not null;size:255" json:"recipient"`
	CC          string    `gorm:"size:255" json:"cc,omitempty"`
	BCC         string    `gorm:"size:255" json:"bcc,omitempty"`
	Content     string    `json:"content,omitempty"`
	IsRead      bool      `gorm:"default:false" json:"isRead"`
	IsImportant bool      `gorm:"default:false" json:"isImportant"`
	IsDeleted   bool      `gorm:"default:false;index" json:"isDeleted"`
	Direction   string    `gorm:"not null;size:16;default:outgoing" json:"direction"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Email
func (Email) TableName() string {
	return "emails"
}

// ThreadSummary is one row of a threaded list view: the most recent email of
// a thread together with how many of the thread's records match the active
// filter.
type ThreadSummary struct {
	Email        `gorm:"embedded"`
	MessageCount int64 `json:"messageCount"`
}

// EmailStats is the single-row denormalized counter cache over the emails
// table. The values are always rewritten as a whole by a full recalculation,
// never patched incrementally.
type EmailStats struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	TotalEmails    int64     `json:"totalEmails"`
	UnreadCount    int64     `json:"unreadCount"`
	ImportantCount int64     `json:"importantCount"`
	SentCount      int64     `json:"sentCount"`
	DeletedCount   int64     `json:"deletedCount"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for EmailStats
func (EmailStats) TableName() string {
	return "email_stats"
}

// StatsRowID is the fixed primary key of the one logical stats row.
const StatsRowID uint = 1

// ComposeRequest is the payload for creating a new email
type ComposeRequest struct {
	Subject   string `json:"subject"`
	To        string `json:"to"`
	CC        string `json:"cc,omitempty"`
	BCC       string `json:"bcc,omitempty"`
	Content   string `json:"content"`
	ThreadID  string `json:"threadId,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// UpdateRequest addresses one record by ID or a whole thread by ThreadID and
// carries only the flags that should change; nil pointers leave a flag
// untouched.
type UpdateRequest struct {
	ID          *uint  `json:"id,omitempty"`
	ThreadID    string `json:"threadId,omitempty"`
	IsRead      *bool  `json:"isRead,omitempty"`
	IsImportant *bool  `json:"isImportant,omitempty"`
	IsDeleted   *bool  `json:"isDeleted,omitempty"`
}

// HasTarget reports whether the request addresses at least one record.
func (r *UpdateRequest) HasTarget() bool {
	return r.ID != nil || r.ThreadID != ""
}

// HasChanges reports whether any flag is present in the request.
func (r *UpdateRequest) HasChanges() bool {
	return r.IsRead != nil || r.IsImportant != nil || r.IsDeleted != nil
}
