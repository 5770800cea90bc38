// Package main is the churchadmin binary: the super admin console of the church
// management backend. "churchadmin start" serves the web dashboard; the other
// commands manage member accounts, roles, departments and the audit log from the
// command line, sharing one signed-in session stored in the user config directory.
package main
