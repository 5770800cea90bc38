package auditlog_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchadmin/churchadmin/internal/auditlog"
	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/backend/backendtest"
	"github.com/churchadmin/churchadmin/internal/models"
)

func TestRefresh(t *testing.T) {
	fake := backendtest.New(t)
	client, _ := fake.Client()

	v := auditlog.New(client)
	assert.True(t, v.RefreshedAt().IsZero())

	require.NoError(t, v.Refresh(context.Background()))

	entries := v.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[0].ID, "newest first")
	assert.False(t, v.RefreshedAt().IsZero())

	assert.Equal(t, "Console Operator", auditlog.CauserLabel(entries[0]))
	assert.Equal(t, "Member", auditlog.SubjectLabel(entries[0]))
	assert.Equal(t, "System", auditlog.CauserLabel(entries[1]))
	assert.Equal(t, "Department", auditlog.SubjectLabel(entries[1]))
}

func TestRefresh_FailureKeepsEntries(t *testing.T) {
	fake := backendtest.New(t)
	client, _ := fake.Client()

	v := auditlog.New(client)
	require.NoError(t, v.Refresh(context.Background()))

	fake.FailWith(http.MethodGet, backend.Path("audit-logs"), http.StatusInternalServerError, `{}`)

	require.ErrorIs(t, v.Refresh(context.Background()), backend.ErrServer)
	assert.Len(t, v.Entries(), 2)
}

func TestLabels(t *testing.T) {
	tests := []struct {
		name    string
		entry   models.AuditLogEntry
		causer  string
		subject string
	}{
		{"null causer", models.AuditLogEntry{SubjectType: `App\Models\Member`}, "System", "Member"},
		{"named causer", models.AuditLogEntry{Causer: &models.Causer{Name: "Pastor Ade"}, SubjectType: "Role"}, "Pastor Ade", "Role"},
		{"slash namespace", models.AuditLogEntry{SubjectType: "models/Department"}, "System", "Department"},
		{"empty subject", models.AuditLogEntry{}, "System", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.causer, auditlog.CauserLabel(tt.entry))
			assert.Equal(t, tt.subject, auditlog.SubjectLabel(tt.entry))
		})
	}
}
