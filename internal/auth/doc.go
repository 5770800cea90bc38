// Package auth gates the console by account role.
//
// Authorization is enforced by the backend; the checks here only decide which
// area a signed-in account lands on and keep non super admins out of the
// console pages.
//
// Example usage:
//
//	admin := app.Group("/admin", auth.RequireRole(models.RoleSuperAdmin))
//	admin.Get("/user", handler)
//
//	// after login
//	return c.Redirect(auth.Home(user.Role))
package auth
