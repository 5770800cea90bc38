// Package auditlog reads the backend's feed of administrative actions.
package auditlog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/models"
)

// Viewer holds the most recent feed, newest first.
type Viewer struct {
	client *backend.Client

	mu        sync.RWMutex
	entries   []models.AuditLogEntry
	refreshed time.Time
}

// New creates a Viewer. Call Refresh to fill it.
func New(client *backend.Client) *Viewer {
	return &Viewer{client: client}
}

// Refresh fetches the feed. The previous entries are kept on failure.
func (v *Viewer) Refresh(ctx context.Context) error {
	var entries []models.AuditLogEntry

	if err := v.client.Get(ctx, backend.Path("audit-logs"), &entries); err != nil {
		backend.LogError(err).Msg("failed to load audit log")
		return err
	}

	slices.SortStableFunc(entries, func(a, b models.AuditLogEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	v.mu.Lock()
	v.entries = entries
	v.refreshed = time.Now()
	v.mu.Unlock()

	return nil
}

// Entries returns the feed, newest first.
func (v *Viewer) Entries() []models.AuditLogEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.entries)
}

// RefreshedAt returns when the feed was last fetched, zero if never.
func (v *Viewer) RefreshedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.refreshed
}

// CauserLabel is the actor shown for e: the causer's name or "System".
func CauserLabel(e models.AuditLogEntry) string {
	return e.CauserLabel()
}

// SubjectLabel is the subject shown for e: the last segment of a namespaced type.
func SubjectLabel(e models.AuditLogEntry) string {
	return e.SubjectLabel()
}
