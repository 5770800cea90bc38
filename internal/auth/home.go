package auth

import (
	"github.com/churchadmin/churchadmin/internal/models"
)

const (
	// MemberHome is the landing area of regular members.
	MemberHome = "/member"
	// PastorHome is the landing area of pastors.
	PastorHome = "/pastor"
	// AdminHome is the landing area of church administrators.
	AdminHome = "/church-admin"
	// ConsoleHome is the landing page of the super admin console.
	ConsoleHome = "/admin/user"
)

// Home returns the landing path of role. Unknown roles land on the member area.
func Home(role models.UserRole) string {
	switch role {
	case models.RoleUser:
		return MemberHome
	case models.RolePastor:
		return PastorHome
	case models.RoleAdmin:
		return AdminHome
	case models.RoleSuperAdmin:
		return ConsoleHome
	}

	return MemberHome
}
