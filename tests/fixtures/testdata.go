package fixtures

import (
	"fmt"
	"time"

	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
)

// EmailBuilder creates test Email instances with fluent API
type EmailBuilder struct {
	email models.Email
}

// NewEmailBuilder creates a new EmailBuilder with sensible defaults
func NewEmailBuilder() *EmailBuilder {
	now := time.Now()
	return &EmailBuilder{
		email: models.Email{
			ID:        1,
			ThreadID:  "thread-1",
			Subject:   "Test Subject",
			Sender:    "sender@external.com",
			Recipient: "me@example.com",
			Content:   "This is a test email body.",
			Direction: models.DirectionIncoming,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithID sets the email ID
func (b *EmailBuilder) WithID(id uint) *EmailBuilder {
	b.email.ID = id
	return b
}

// WithThreadID sets the thread ID
func (b *EmailBuilder) WithThreadID(threadID string) *EmailBuilder {
	b.email.ThreadID = threadID
	return b
}

// WithSubject sets the subject
func (b *EmailBuilder) WithSubject(subject string) *EmailBuilder {
	b.email.Subject = subject
	return b
}

// WithSender sets the sender address
func (b *EmailBuilder) WithSender(sender string) *EmailBuilder {
	b.email.Sender = sender
	return b
}

// WithRecipient sets the recipient address
func (b *EmailBuilder) WithRecipient(recipient string) *EmailBuilder {
	b.email.Recipient = recipient
	return b
}

// WithContent sets the body content
func (b *EmailBuilder) WithContent(content string) *EmailBuilder {
	b.email.Content = content
	return b
}

// WithRead sets the read flag
func (b *EmailBuilder) WithRead(isRead bool) *EmailBuilder {
	b.email.IsRead = isRead
	return b
}

// WithImportant sets the important flag
func (b *EmailBuilder) WithImportant(isImportant bool) *EmailBuilder {
	b.email.IsImportant = isImportant
	return b
}

// WithDeleted sets the deleted flag
func (b *EmailBuilder) WithDeleted(isDeleted bool) *EmailBuilder {
	b.email.IsDeleted = isDeleted
	return b
}

// WithDirection sets the direction
func (b *EmailBuilder) WithDirection(direction string) *EmailBuilder {
	b.email.Direction = direction
	return b
}

// WithCreatedAt sets the created timestamp
func (b *EmailBuilder) WithCreatedAt(t time.Time) *EmailBuilder {
	b.email.CreatedAt = t
	return b
}

// Build returns the constructed Email
func (b *EmailBuilder) Build() *models.Email {
	return &b.email
}

// BuildValue returns the constructed Email as a value (not pointer)
func (b *EmailBuilder) BuildValue() models.Email {
	return b.email
}

// StatsBuilder creates test EmailStats instances with fluent API
type StatsBuilder struct {
	stats models.EmailStats
}

// NewStatsBuilder creates a new StatsBuilder with zeroed counters
func NewStatsBuilder() *StatsBuilder {
	return &StatsBuilder{
		stats: models.EmailStats{
			ID:        models.StatsRowID,
			UpdatedAt: time.Now(),
		},
	}
}

// WithTotals sets all five counters at once
func (b *StatsBuilder) WithTotals(total, unread, important, sent, deleted int64) *StatsBuilder {
	b.stats.TotalEmails = total
	b.stats.UnreadCount = unread
	b.stats.ImportantCount = important
	b.stats.SentCount = sent
	b.stats.DeletedCount = deleted
	return b
}

// Build returns the constructed EmailStats
func (b *StatsBuilder) Build() *models.EmailStats {
	return &b.stats
}

// Helper functions for creating multiple test entities

// CreateEmails creates a slice of incoming emails in distinct threads,
// spaced an hour apart, newest first.
func CreateEmails(count int) []models.Email {
	emails := make([]models.Email, count)
	for i := 0; i < count; i++ {
		emails[i] = NewEmailBuilder().
			WithID(uint(i + 1)).
			WithThreadID(fmt.Sprintf("thread-%d", i+1)).
			WithSubject(generateSubject(i)).
			WithCreatedAt(time.Now().Add(-time.Duration(i) * time.Hour)).
			BuildValue()
	}
	return emails
}

// CreateThread creates a slice of emails sharing one thread, oldest first.
func CreateThread(threadID string, count int) []models.Email {
	emails := make([]models.Email, count)
	for i := 0; i < count; i++ {
		emails[i] = NewEmailBuilder().
			WithID(uint(i + 1)).
			WithThreadID(threadID).
			WithSubject(generateSubject(i)).
			WithCreatedAt(time.Now().Add(time.Duration(i-count) * time.Hour)).
			BuildValue()
	}
	return emails
}

func generateSubject(index int) string {
	subjects := []string{
		"Welcome to our service",
		"Your order confirmation",
		"Important update",
		"Newsletter",
		"Account notification",
	}
	return subjects[index%len(subjects)]
}
