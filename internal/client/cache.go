package client

import (
	"strings"
	"sync"

	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
	"github.com/canis-majoris/instantly-assignment-v3/internal/repository"
)

// ListKey identifies one cached list query
type ListKey struct {
	Filter   string
	Query    string
	Threaded bool
}

// ThreadKey identifies one cached thread view
type ThreadKey struct {
	ThreadID string
	Filter   string
}

// entry is one cached result. A stale entry is kept for snapshot reads but
// never served to a regular read; the next read refetches.
type entry struct {
	emails []models.Email
	stale  bool
}

// store is the in-memory cache behind a Client: list results keyed by
// (filter, query, threaded), thread results keyed by (threadId, filter), and
// one global stats entry. Generation counters make in-flight requests
// cancel-safe: a response carrying a superseded generation is discarded.
type store struct {
	mu sync.Mutex

	lists   map[ListKey]*entry
	threads map[ThreadKey]*entry
	stats   *models.EmailStats
	statsOK bool

	listGen   map[ListKey]uint64
	threadGen map[ThreadKey]uint64
	statsGen  uint64
}

func newStore() *store {
	return &store{
		lists:     make(map[ListKey]*entry),
		threads:   make(map[ThreadKey]*entry),
		listGen:   make(map[ListKey]uint64),
		threadGen: make(map[ThreadKey]uint64),
	}
}

// undoLog captures the cache state before an optimistic update so a failed
// mutation can be rolled back to the exact pre-mutation snapshot.
type undoLog struct {
	lists   map[ListKey][]models.Email
	threads map[ThreadKey][]models.Email
	stats   *models.EmailStats
	statsOK bool
}

func copyEmails(emails []models.Email) []models.Email {
	out := make([]models.Email, len(emails))
	copy(out, emails)
	return out
}

// snapshot must be called with s.mu held.
func (s *store) snapshot() *undoLog {
	log := &undoLog{
		lists:   make(map[ListKey][]models.Email, len(s.lists)),
		threads: make(map[ThreadKey][]models.Email, len(s.threads)),
		statsOK: s.statsOK,
	}
	for k, e := range s.lists {
		log.lists[k] = copyEmails(e.emails)
	}
	for k, e := range s.threads {
		log.threads[k] = copyEmails(e.emails)
	}
	if s.stats != nil {
		statsCopy := *s.stats
		log.stats = &statsCopy
	}
	return log
}

// restore must be called with s.mu held.
func (s *store) restore(log *undoLog) {
	s.lists = make(map[ListKey]*entry, len(log.lists))
	for k, emails := range log.lists {
		s.lists[k] = &entry{emails: emails}
	}
	s.threads = make(map[ThreadKey]*entry, len(log.threads))
	for k, emails := range log.threads {
		s.threads[k] = &entry{emails: emails}
	}
	s.stats = log.stats
	s.statsOK = log.statsOK
}

// invalidateAll marks every cache entry stale; must be called with s.mu held.
func (s *store) invalidateAll() {
	for _, e := range s.lists {
		e.stale = true
	}
	for _, e := range s.threads {
		e.stale = true
	}
	s.statsOK = false
	for k := range s.listGen {
		s.listGen[k]++
	}
	for k := range s.threadGen {
		s.threadGen[k]++
	}
	s.statsGen++
}

// matchesTarget reports whether a record is addressed by an update request
func matchesTarget(e *models.Email, req *models.UpdateRequest) bool {
	if req.ID != nil {
		return e.ID == *req.ID
	}
	return req.ThreadID != "" && e.ThreadID == req.ThreadID
}

// matchesFilter mirrors the server-side filter predicates so optimistic
// updates can drop records that no longer belong to a cached view.
func matchesFilter(e *models.Email, filter string) bool {
	switch filter {
	case repository.FilterUnread:
		return !e.IsRead && !e.IsDeleted
	case repository.FilterImportant:
		return e.IsImportant && !e.IsDeleted
	case repository.FilterSent:
		return e.Direction == models.DirectionOutgoing && !e.IsDeleted
	case repository.FilterTrash:
		return e.IsDeleted
	default:
		return e.Direction == models.DirectionIncoming && !e.IsDeleted
	}
}

// matchesQuery mirrors the server-side free-text search
func matchesQuery(e *models.Email, query string) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Subject), query) ||
		strings.Contains(strings.ToLower(e.Sender), query) ||
		strings.Contains(strings.ToLower(e.Recipient), query) ||
		strings.Contains(strings.ToLower(e.Content), query)
}

// applyOptimistic patches every cached view as if the flag update had
// already succeeded: matching records get the new flags, and records that
// no longer satisfy a view's filter are removed from it. A non-empty scope
// names a filter that addressed records must additionally satisfy, mirroring
// filter-scoped thread mutations on the server. Must be called with s.mu
// held.
func (s *store) applyOptimistic(req *models.UpdateRequest, scope string) {
	patch := func(e *models.Email) {
		if req.IsRead != nil {
			e.IsRead = *req.IsRead
		}
		if req.IsImportant != nil {
			e.IsImportant = *req.IsImportant
		}
		if req.IsDeleted != nil {
			e.IsDeleted = *req.IsDeleted
		}
	}

	targeted := func(e *models.Email) bool {
		if !matchesTarget(e, req) {
			return false
		}
		return scope == "" || matchesFilter(e, scope)
	}

	for key, cached := range s.lists {
		kept := cached.emails[:0]
		for i := range cached.emails {
			e := cached.emails[i]
			if targeted(&e) {
				patch(&e)
				if !matchesFilter(&e, key.Filter) || !matchesQuery(&e, key.Query) {
					continue
				}
			}
			kept = append(kept, e)
		}
		cached.emails = kept
	}

	for key, cached := range s.threads {
		kept := cached.emails[:0]
		for i := range cached.emails {
			e := cached.emails[i]
			if targeted(&e) {
				patch(&e)
				if !matchesFilter(&e, key.Filter) {
					continue
				}
			}
			kept = append(kept, e)
		}
		cached.emails = kept
	}
}
