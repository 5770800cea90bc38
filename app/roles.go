package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/churchadmin/churchadmin/internal/rbac"
)

func newRolesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "roles",
		Aliases: []string{"role"},
		Short:   "Manage roles and their permissions",
	}

	cmd.AddCommand(
		newRolesListCmd(opts),
		newRolesCreateCmd(opts),
		newRolesToggleCmd(opts),
		newRolesDeleteCmd(opts),
	)

	return cmd
}

func openRegistry(cmd *cobra.Command, opts *options) (*rbac.Registry, error) {
	client, err := opts.client(cmd)
	if err != nil {
		return nil, err
	}

	reg := rbac.New(client, rbac.Options{Confirmer: opts.confirmer(cmd)})
	if err = reg.Load(cmd.Context()); err != nil {
		return nil, err
	}

	return reg, nil
}

func newRolesListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles with their permissions and the permission catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := openRegistry(cmd, opts)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(), "ID", "ROLE", "PERMISSIONS")

			for _, r := range reg.Roles() {
				perms := strings.Join(r.Permissions.Names(), ", ")
				if r.IsSuperAdmin() {
					perms = "(all, immutable)"
				}

				t.row(strconv.FormatUint(r.ID, 10), r.Name, perms)
			}

			if err = t.flush(); err != nil {
				return err
			}

			names := make([]string, 0, len(reg.Permissions()))
			for _, p := range reg.Permissions() {
				names = append(names, p.Name)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nAvailable permissions: %s\n", strings.Join(names, ", "))

			return nil
		},
	}
}

func newRolesCreateCmd(opts *options) *cobra.Command {
	var permissions []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := openRegistry(cmd, opts)
			if err != nil {
				return err
			}

			role, err := reg.CreateRole(cmd.Context(), args[0], permissions...)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created role %s (id %d)\n", role.Name, role.ID)

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&permissions, "permission", "p", nil, "initial permission, repeatable")

	return cmd
}

func newRolesToggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <role-id> <permission>",
		Short: "Grant a permission to a role, or revoke it when already granted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			reg, err := openRegistry(cmd, opts)
			if err != nil {
				return err
			}

			if err = reg.TogglePermission(cmd.Context(), id, args[1]); err != nil {
				return err
			}

			role, _ := reg.Role(id)
			state := "revoked from"
			if role.Permissions.Has(args[1]) {
				state = "granted to"
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[1], state, role.Name)

			return nil
		},
	}
}

func newRolesDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <role-id>",
		Short: "Delete a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			reg, err := openRegistry(cmd, opts)
			if err != nil {
				return err
			}

			if err = reg.DeleteRole(cmd.Context(), id); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Role deleted")

			return nil
		},
	}
}
