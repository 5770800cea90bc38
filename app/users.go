package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/churchadmin/churchadmin/internal/department"
	"github.com/churchadmin/churchadmin/internal/directory"
	"github.com/churchadmin/churchadmin/internal/export"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/secret"
)

func newUsersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "List member accounts and manage their access",
	}

	cmd.AddCommand(
		newUsersListCmd(opts),
		newUsersRoleCmd(opts),
		usersActionCmd(opts, "approve", "Approve a pending member", "Approved",
			func(cmd *cobra.Command, dir *directory.Directory, id uint64) error {
				return dir.Approve(cmd.Context(), id)
			}),
		usersActionCmd(opts, "suspend", "Suspend an active member or restore a suspended one", "Status changed",
			func(cmd *cobra.Command, dir *directory.Directory, id uint64) error {
				if err := dir.ToggleStatus(cmd.Context(), id); err != nil {
					return err
				}

				u, _ := dir.User(id)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Name, u.MemberStatus.Label())

				return nil
			}),
		usersActionCmd(opts, "revoke-sessions", "Sign a member out of every device", "Sessions revoked",
			func(cmd *cobra.Command, dir *directory.Directory, id uint64) error {
				return dir.RevokeSessions(cmd.Context(), id)
			}),
		newUsersResetPasswordCmd(opts),
		newUsersAssignCmd(opts),
	)

	return cmd
}

// openDirectory loads the member list for one command.
func openDirectory(cmd *cobra.Command, opts *options) (*directory.Directory, error) {
	client, err := opts.client(cmd)
	if err != nil {
		return nil, err
	}

	confirmer := opts.confirmer(cmd)
	dir := directory.New(client, department.New(client, confirmer), directory.Options{Confirmer: confirmer})

	if err = dir.Load(cmd.Context()); err != nil {
		dir.Close()
		return nil, err
	}

	return dir, nil
}

func newUsersListCmd(opts *options) *cobra.Command {
	var (
		search string
		ex     exportFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members, optionally filtered by name or mobile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.Close()

			users := dir.Filter(search)

			if done, err := ex.write(cmd, func(w io.Writer, f export.Format) error {
				return export.Users(w, f, users)
			}); done {
				return err
			}

			t := newTable(cmd.OutOrStdout(), "ID", "NAME", "MOBILE", "ROLE", "STATUS", "DEPARTMENT")

			for _, u := range users {
				dept := "-"
				if u.Department != nil {
					dept = u.Department.Name
				}

				t.row(strconv.FormatUint(u.ID, 10), u.Name, u.Mobile, u.Role.Label(), u.MemberStatus.Label(), dept)
			}

			return t.flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive name or mobile filter")
	ex.register(cmd)

	return cmd
}

func newUsersRoleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "role <user-id> <user|pastor|admin|super_admin>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			role, err := models.ParseUserRole(args[1])
			if err != nil {
				return directory.ErrInvalidRole
			}

			dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.Close()

			if err = dir.ChangeRole(cmd.Context(), id, role); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Role changed to %s\n", role.Label())

			return nil
		},
	}
}

type userAction func(cmd *cobra.Command, dir *directory.Directory, id uint64) error

func usersActionCmd(opts *options, use, short, done string, fn userAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.Close()

			if err = fn(cmd, dir, id); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), done)

			return nil
		},
	}
}

func newUsersResetPasswordCmd(opts *options) *cobra.Command {
	var generate bool

	cmd := &cobra.Command{
		Use:   "reset-password <user-id>",
		Short: "Set a new password for a member, signing them out",
		Long: `Set a new password for a member, signing them out.
The password is read from the terminal (or the first line of input) unless --generate is set,
in which case a random one is created and printed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var password string

			if generate {
				if password, err = secret.Password(secret.DefaultLength); err != nil {
					return err
				}
			} else if password, err = readPassword(cmd); err != nil {
				return err
			}

			dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.Close()

			if err = dir.ForcePasswordReset(cmd.Context(), id, password); err != nil {
				return err
			}

			if generate {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "New password: %s\n", password)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Password reset")

			return nil
		},
	}

	cmd.Flags().BoolVar(&generate, "generate", false, "generate a random password and print it")

	return cmd
}

func newUsersAssignCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <user-id> <department-id>",
		Short: "Place a member in a department, replacing any previous one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			deptID, err := parseID(args[1])
			if err != nil {
				return err
			}

			dir, err := openDirectory(cmd, opts)
			if err != nil {
				return err
			}
			defer dir.Close()

			if err = dir.OpenAssignment(id); err != nil {
				return err
			}

			if err = dir.AssignDepartment(cmd.Context(), deptID); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Department assigned")

			return nil
		},
	}
}
