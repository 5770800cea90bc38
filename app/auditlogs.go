package app

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/churchadmin/churchadmin/internal/auditlog"
	"github.com/churchadmin/churchadmin/internal/export"
)

func newAuditLogsCmd(opts *options) *cobra.Command {
	var ex exportFlags

	cmd := &cobra.Command{
		Use:     "audit-logs",
		Aliases: []string{"audit-log"},
		Short:   "Show the administrative actions recorded by the backend, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			viewer := auditlog.New(client)
			if err = viewer.Refresh(cmd.Context()); err != nil {
				return err
			}

			entries := viewer.Entries()

			if done, err := ex.write(cmd, func(w io.Writer, f export.Format) error {
				return export.AuditLog(w, f, entries)
			}); done {
				return err
			}

			t := newTable(cmd.OutOrStdout(), "WHEN", "ACTOR", "ACTION", "SUBJECT", "SUBJECT ID")
			for _, e := range entries {
				t.row(
					e.CreatedAt.Local().Format("2006-01-02 15:04"),
					auditlog.CauserLabel(e),
					e.Description,
					auditlog.SubjectLabel(e),
					strconv.FormatUint(e.SubjectID, 10),
				)
			}

			return t.flush()
		},
	}

	ex.register(cmd)

	return cmd
}
