// Package auth provides the session middleware of the dashboard.
//
// The middleware binds each request to the backend session of its cookie:
//   - Public paths (static files, login, logout, health and metrics) pass through
//   - Requests without a signed-in session are redirected to the login page
//   - Signed-in requests get a backend client and the current user in fiber.Locals
//   - A signed-in operator opening the login page is sent to their landing page
//
// Usage:
//
//	app.Use(authmiddleware.New(sessions, factory))
package auth
