package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Named filters selecting which slice of the emails table a query sees.
// Filters are mutually exclusive; unknown names fall back to inbox.
const (
	FilterInbox     = "inbox"
	FilterUnread    = "unread"
	FilterImportant = "important"
	FilterSent      = "sent"
	FilterTrash     = "trash"
)

// EmailRepository defines the interface for email data access
type EmailRepository interface {
	Create(ctx context.Context, email *models.Email) error
	GetByID(ctx context.Context, id uint) (*models.Email, error)
	List(ctx context.Context, filter, query string) ([]models.Email, error)
	ListThreads(ctx context.Context, filter, query string) ([]models.ThreadSummary, error)
	ListThread(ctx context.Context, threadID, filter string) ([]models.Email, error)
	UpdateFlags(ctx context.Context, req *models.UpdateRequest) ([]models.Email, error)
	SoftDeleteByID(ctx context.Context, id uint) error
	SoftDeleteThread(ctx context.Context, threadID, filter string) (int64, error)
}

// emailRepository implements EmailRepository using GORM
type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new EmailRepository instance
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

// GenerateThreadID produces a fresh thread identifier. Uniqueness is
// statistical: the nanosecond timestamp plus a uuid-derived suffix makes a
// collision vanishingly unlikely, and no collision check is performed.
func GenerateThreadID() string {
	return fmt.Sprintf("thread-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// filterPredicate returns the SQL condition and arguments for a named filter.
// Trash is the only filter that sees deleted records.
func filterPredicate(filter string) (string, []interface{}) {
	switch filter {
	case FilterUnread:
		return "is_read = ? AND is_deleted = ?", []interface{}{false, false}
	case FilterImportant:
		return "is_important = ? AND is_deleted = ?", []interface{}{true, false}
	case FilterSent:
		return "direction = ? AND is_deleted = ?", []interface{}{models.DirectionOutgoing, false}
	case FilterTrash:
		return "is_deleted = ?", []interface{}{true}
	default:
		return "direction = ? AND is_deleted = ?", []interface{}{models.DirectionIncoming, false}
	}
}

// searchPredicate returns the case-insensitive substring condition for a
// free-text query, or an empty condition when the query is blank.
func searchPredicate(query string) (string, []interface{}) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}
	pattern := "%" + strings.ToLower(query) + "%"
	cond := "(LOWER(subject) LIKE ? OR LOWER(sender) LIKE ? OR LOWER(recipient) LIKE ? OR LOWER(content) LIKE ?)"
	return cond, []interface{}{pattern, pattern, pattern, pattern}
}

// matchCondition combines the filter predicate with an optional search
// predicate into a single ANDed condition.
func matchCondition(filter, query string) (string, []interface{}) {
	cond, args := filterPredicate(filter)
	if search, searchArgs := searchPredicate(query); search != "" {
		cond = cond + " AND " + search
		args = append(args, searchArgs...)
	}
	return cond, args
}

// Create inserts a new email record
func (r *emailRepository) Create(ctx context.Context, email *models.Email) error {
	result := r.db.WithContext(ctx).Create(email)
	if result.Error != nil {
		return fmt.Errorf("failed to create email: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an email by its ID
func (r *emailRepository) GetByID(ctx context.Context, id uint) (*models.Email, error) {
	var email models.Email
	result := r.db.WithContext(ctx).First(&email, id)
	if result.Error != nil {
		if isNotFound(result.Error) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get email by ID: %w", result.Error)
	}
	return &email, nil
}

// List retrieves emails matching a named filter and an optional free-text
// query, newest first.
func (r *emailRepository) List(ctx context.Context, filter, query string) ([]models.Email, error) {
	cond, args := matchCondition(filter, query)

	var emails []models.Email
	result := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("created_at DESC, id DESC").
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list emails: %w", result.Error)
	}
	return emails, nil
}

// ListThreads collapses the matching records into one summary per thread:
// the most recent record plus how many of the thread's records matched.
// Ties at the same creation time resolve to the greater id so repeated
// queries stay stable.
func (r *emailRepository) ListThreads(ctx context.Context, filter, query string) ([]models.ThreadSummary, error) {
	cond, args := matchCondition(filter, query)

	// Latest-per-thread: group on thread_id for the max creation time and
	// the matching-member count, then pick the max id among records at that
	// time, then join back for the full rows.
	sql := fmt.Sprintf(`
		SELECT e.*, pick.message_count FROM emails e
		JOIN (
			SELECT e2.thread_id, MAX(e2.id) AS id, MAX(latest.message_count) AS message_count
			FROM emails e2
			JOIN (
				SELECT thread_id, MAX(created_at) AS last_created, COUNT(*) AS message_count
				FROM emails
				WHERE %s
				GROUP BY thread_id
			) latest ON e2.thread_id = latest.thread_id AND e2.created_at = latest.last_created
			WHERE %s
			GROUP BY e2.thread_id
		) pick ON e.id = pick.id
		ORDER BY e.created_at DESC, e.id DESC
	`, cond, cond)

	rawArgs := make([]interface{}, 0, len(args)*2)
	rawArgs = append(rawArgs, args...)
	rawArgs = append(rawArgs, args...)

	var threads []models.ThreadSummary
	if err := r.db.WithContext(ctx).Raw(sql, rawArgs...).Scan(&threads).Error; err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return threads, nil
}

// ListThread retrieves every record of one thread that matches the filter,
// oldest first (conversation reading order).
func (r *emailRepository) ListThread(ctx context.Context, threadID, filter string) ([]models.Email, error) {
	cond, args := filterPredicate(filter)

	var emails []models.Email
	result := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Where(cond, args...).
		Order("created_at ASC, id ASC").
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list thread emails: %w", result.Error)
	}
	return emails, nil
}

// UpdateFlags applies the flag changes present in the request to a single
// record (by id) or to every record in a thread (by thread id), and returns
// the updated records. Flags absent from the request are left untouched.
func (r *emailRepository) UpdateFlags(ctx context.Context, req *models.UpdateRequest) ([]models.Email, error) {
	if !req.HasTarget() || !req.HasChanges() {
		return nil, ErrInvalidInput
	}

	updates := map[string]interface{}{}
	if req.IsRead != nil {
		updates["is_read"] = *req.IsRead
	}
	if req.IsImportant != nil {
		updates["is_important"] = *req.IsImportant
	}
	if req.IsDeleted != nil {
		updates["is_deleted"] = *req.IsDeleted
	}

	target := func(tx *gorm.DB) *gorm.DB {
		if req.ID != nil {
			return tx.Where("id = ?", *req.ID)
		}
		return tx.Where("thread_id = ?", req.ThreadID)
	}

	result := target(r.db.WithContext(ctx).Model(&models.Email{})).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update email flags: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var emails []models.Email
	if err := target(r.db.WithContext(ctx)).Order("created_at ASC, id ASC").Find(&emails).Error; err != nil {
		return nil, fmt.Errorf("failed to reload updated emails: %w", err)
	}
	return emails, nil
}

// SoftDeleteByID marks a single record as deleted. The operation is
// idempotent: deleting an already-deleted record succeeds.
func (r *emailRepository) SoftDeleteByID(ctx context.Context, id uint) error {
	var email models.Email
	if err := r.db.WithContext(ctx).First(&email, id).Error; err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get email for delete: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.Email{}).Where("id = ?", id).Update("is_deleted", true)
	if result.Error != nil {
		return fmt.Errorf("failed to soft-delete email: %w", result.Error)
	}
	return nil
}

// SoftDeleteThread marks records of a thread as deleted and returns how many
// were affected. With filter=important only currently-important, not-yet-
// deleted members are touched; otherwise every non-deleted member is. Zero
// matches is a not-found error.
func (r *emailRepository) SoftDeleteThread(ctx context.Context, threadID, filter string) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Email{}).Where("thread_id = ?", threadID)
	if filter == FilterImportant {
		tx = tx.Where("is_important = ? AND is_deleted = ?", true, false)
	} else {
		tx = tx.Where("is_deleted = ?", false)
	}

	result := tx.Update("is_deleted", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to soft-delete thread: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return result.RowsAffected, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
