package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/churchadmin/churchadmin/internal/department"
)

func newDepartmentsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "departments",
		Aliases: []string{"department"},
		Short:   "Manage ministry departments",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List departments with their member counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				reg, err := openDepartments(cmd, opts)
				if err != nil {
					return err
				}

				t := newTable(cmd.OutOrStdout(), "ID", "NAME", "MEMBERS")
				for _, d := range reg.Departments() {
					t.row(strconv.FormatUint(d.ID, 10), d.Name, strconv.Itoa(d.UsersCount))
				}

				return t.flush()
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a department",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := openDepartments(cmd, opts)
				if err != nil {
					return err
				}

				d, err := reg.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created department %s (id %d)\n", d.Name, d.ID)

				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <department-id>",
			Short: "Delete a department; its members are not reassigned",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}

				reg, err := openDepartments(cmd, opts)
				if err != nil {
					return err
				}

				if err = reg.Delete(cmd.Context(), id); err != nil {
					return err
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Department deleted")

				return nil
			},
		},
	)

	return cmd
}

func openDepartments(cmd *cobra.Command, opts *options) (*department.Registry, error) {
	client, err := opts.client(cmd)
	if err != nil {
		return nil, err
	}

	reg := department.New(client, opts.confirmer(cmd))
	if err = reg.Load(cmd.Context()); err != nil {
		return nil, err
	}

	return reg, nil
}
