package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRole_JSON(t *testing.T) {
	for _, r := range AllRoles {
		out, err := json.Marshal(r)
		require.NoError(t, err)

		var back UserRole
		require.NoError(t, json.Unmarshal(out, &back))
		assert.Equal(t, r, back)
	}

	for _, raw := range []string{`"deacon"`, `null`, `""`} {
		r := RoleAdmin
		require.NoError(t, json.Unmarshal([]byte(raw), &r), raw)
		assert.Equal(t, UserRole(0), r, raw)
		assert.Equal(t, "Unknown", r.Label())
	}

	var r UserRole
	require.Error(t, json.Unmarshal([]byte(`7`), &r))

	out, err := json.Marshal(UserRole(0))
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	_, err = json.Marshal(UserRole(9))
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestUser_UnknownRoleIsReadOnly(t *testing.T) {
	var users []User
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":1,"name":"A","role":"admin"},
		{"id":2,"name":"B","role":null},
		{"id":3,"name":"C","role":"member"},
		{"id":4,"name":"D","role":"super_admin"}
	]`), &users))
	require.Len(t, users, 4)

	assert.True(t, users[0].RoleEditable())
	assert.False(t, users[1].RoleEditable())
	assert.False(t, users[2].RoleEditable())
	assert.False(t, users[3].RoleEditable())
}

func TestParseUserRole(t *testing.T) {
	r, err := ParseUserRole("super_admin")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, r)
	assert.Equal(t, "Super Admin", r.Label())

	_, err = ParseUserRole("SUPER_ADMIN")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestPermissionSet_ToggleTwiceRestores(t *testing.T) {
	set := NewPermissionSet("members.view", "members.edit")
	original := set.Clone()

	set.Toggle("reports.export")
	assert.True(t, set.Has("reports.export"))

	set.Toggle("reports.export")
	assert.True(t, set.Equal(original))

	set.Toggle("members.view")
	assert.False(t, set.Has("members.view"))

	set.Toggle("members.view")
	assert.True(t, set.Equal(original))
}

func TestPermissionSet_UnmarshalBothShapes(t *testing.T) {
	var fromObjects Role
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":2,"name":"pastor","permissions":[{"id":1,"name":"members.view"},{"id":3,"name":"attendance.view"}]}`),
		&fromObjects,
	))
	assert.Equal(t, []string{"attendance.view", "members.view"}, fromObjects.Permissions.Names())

	var fromNames Role
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"name":"pastor","permissions":["members.view"]}`), &fromNames))
	assert.True(t, fromNames.Permissions.Has("members.view"))

	out, err := json.Marshal(fromObjects.Permissions)
	require.NoError(t, err)
	assert.JSONEq(t, `["attendance.view","members.view"]`, string(out))
}

func TestMemberStatus(t *testing.T) {
	tests := []struct {
		status    MemberStatus
		pending   bool
		active    bool
		suspended bool
		toggled   MemberStatus
		label     string
	}{
		{"Pending", true, false, false, StatusSuspended, "Pending"},
		{"no", true, false, false, StatusSuspended, "Pending"},
		{"Active", false, true, false, StatusSuspended, "Active"},
		{"yes", false, true, false, StatusSuspended, "Active"},
		{"Suspended", false, false, true, StatusActive, "Suspended"},
		{"Inactive", false, false, false, StatusSuspended, "Inactive"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.pending, tt.status.IsPending())
			assert.Equal(t, tt.active, tt.status.IsActive())
			assert.Equal(t, tt.suspended, tt.status.IsSuspended())
			assert.Equal(t, tt.toggled, tt.status.Toggled())
			assert.Equal(t, tt.label, tt.status.Label())
		})
	}
}

func TestUser_Matches(t *testing.T) {
	u := User{Name: "Grace Okafor", Mobile: "0803-555-0101"}

	assert.True(t, u.Matches(""))
	assert.True(t, u.Matches("grace"))
	assert.True(t, u.Matches("OKAF"))
	assert.True(t, u.Matches("555"))
	assert.False(t, u.Matches("john"))
}

func TestAuditLogEntry_Labels(t *testing.T) {
	system := AuditLogEntry{Description: "deleted", SubjectType: `App\Models\Member`}
	assert.Equal(t, "System", system.CauserLabel())
	assert.Equal(t, "Member", system.SubjectLabel())

	byUser := AuditLogEntry{Causer: &Causer{ID: 1, Name: "Pastor Ade"}, SubjectType: "Department"}
	assert.Equal(t, "Pastor Ade", byUser.CauserLabel())
	assert.Equal(t, "Department", byUser.SubjectLabel())

	var decoded AuditLogEntry
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":9,"causer":null,"description":"updated","subject_type":"App\\Models\\Member","subject_id":42,"created_at":"2024-05-01T10:00:00.000000Z"}`),
		&decoded,
	))
	assert.Equal(t, "System", decoded.CauserLabel())
	assert.Equal(t, "Member", decoded.SubjectLabel())
	assert.Equal(t, uint64(42), decoded.SubjectID)
}
