package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/churchadmin/churchadmin/internal/export"
)

// table writes tab separated rows as aligned columns.
type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, header ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	t.row(header...)

	return t
}

func (t *table) row(cols ...string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}

	return id, nil
}

// exportFlags are the --export and --out flags of the listing commands.
type exportFlags struct {
	format string
	out    string
}

func (e *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.format, "export", "", "export as csv or pdf instead of printing a table")
	cmd.Flags().StringVarP(&e.out, "out", "o", "", "export file (default: stdout)")
}

// write runs fn against the export destination when --export was given.
func (e *exportFlags) write(cmd *cobra.Command, fn func(io.Writer, export.Format) error) (bool, error) {
	if e.format == "" {
		return false, nil
	}

	format, err := export.ParseFormat(e.format)
	if err != nil {
		return true, err
	}

	if e.out == "" {
		return true, fn(cmd.OutOrStdout(), format)
	}

	f, err := os.Create(e.out)
	if err != nil {
		return true, fmt.Errorf("create export file: %w", err)
	}

	if err = fn(f, format); err != nil {
		_ = f.Close()
		return true, err
	}

	if err = f.Close(); err != nil {
		return true, fmt.Errorf("close export file: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", e.out)

	return true, nil
}
