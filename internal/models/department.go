package models

import (
	"strings"
	"time"
)

// Department is a ministry team members can be assigned to.
type Department struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	UsersCount int    `json:"users_count"`
}

// Causer is the actor recorded on an audit log entry.
type Causer struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// SystemCauser is the label shown when an entry has no causer.
const SystemCauser = "System"

// AuditLogEntry is one administrative action recorded by the backend.
type AuditLogEntry struct {
	ID          uint64    `json:"id"`
	Causer      *Causer   `json:"causer"`
	Description string    `json:"description"`
	SubjectType string    `json:"subject_type"`
	SubjectID   uint64    `json:"subject_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CauserLabel returns the causer name, or "System" when the backend acted on its own.
func (e AuditLogEntry) CauserLabel() string {
	if e.Causer == nil || e.Causer.Name == "" {
		return SystemCauser
	}

	return e.Causer.Name
}

// SubjectLabel returns the last component of a namespaced subject type,
// e.g. "Member" for `App\Models\Member`.
func (e AuditLogEntry) SubjectLabel() string {
	idx := strings.LastIndexAny(e.SubjectType, `\/.`)
	if idx < 0 {
		return e.SubjectType
	}

	return e.SubjectType[idx+1:]
}
