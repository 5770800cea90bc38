// Package export renders member lists and the audit log as CSV or PDF reports.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/churchadmin/churchadmin/internal/models"
)

// ErrUnknownFormat is returned by ParseFormat for anything but csv or pdf.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export file format.
type Format string

const (
	CSV Format = "csv"
	PDF Format = "pdf"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case CSV, PDF:
		return f, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == PDF {
		return "application/pdf"
	}

	return "text/csv; charset=utf-8"
}

const timeLayout = "02-Jan-2006 15:04"

var (
	userHeader  = []string{"#", "Name", "Mobile", "Role", "Status", "Department"}
	userWidths  = []float64{10, 55, 35, 25, 25, 40}
	auditHeader = []string{"#", "When", "Actor", "Action", "Subject", "Subject ID"}
	auditWidths = []float64{10, 35, 45, 35, 40, 25}
)

func userRow(i int, u models.User) []string {
	dept := ""
	if u.Department != nil {
		dept = u.Department.Name
	}

	return []string{
		strconv.Itoa(i + 1),
		u.Name,
		u.Mobile,
		u.Role.Label(),
		u.MemberStatus.Label(),
		dept,
	}
}

func auditRow(i int, e models.AuditLogEntry) []string {
	return []string{
		strconv.Itoa(i + 1),
		e.CreatedAt.Format(timeLayout),
		e.CauserLabel(),
		e.Description,
		e.SubjectLabel(),
		strconv.FormatUint(e.SubjectID, 10),
	}
}

// Users writes users in the given format.
func Users(w io.Writer, f Format, users []models.User) error {
	if f == PDF {
		return UsersPDF(w, users, time.Now())
	}

	return UsersCSV(w, users)
}

// AuditLog writes entries in the given format.
func AuditLog(w io.Writer, f Format, entries []models.AuditLogEntry) error {
	if f == PDF {
		return AuditLogPDF(w, entries, time.Now())
	}

	return AuditLogCSV(w, entries)
}

// UsersCSV writes one row per user after a header row.
func UsersCSV(w io.Writer, users []models.User) error {
	rows := make([][]string, 0, len(users)+1)
	rows = append(rows, userHeader)

	for i, u := range users {
		rows = append(rows, userRow(i, u))
	}

	return writeCSV(w, rows)
}

// AuditLogCSV writes one row per entry after a header row.
func AuditLogCSV(w io.Writer, entries []models.AuditLogEntry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, auditHeader)

	for i, e := range entries {
		rows = append(rows, auditRow(i, e))
	}

	return writeCSV(w, rows)
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

// UsersPDF writes a member report table.
func UsersPDF(w io.Writer, users []models.User, generated time.Time) error {
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = userRow(i, u)
	}

	return writePDF(w, "Members", generated, userHeader, userWidths, rows)
}

// AuditLogPDF writes an audit log report table.
func AuditLogPDF(w io.Writer, entries []models.AuditLogEntry, generated time.Time) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = auditRow(i, e)
	}

	return writePDF(w, "Audit Log", generated, auditHeader, auditWidths, rows)
}

func writePDF(w io.Writer, title string, generated time.Time, header []string, widths []float64, rows [][]string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	// gofpdf core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Generated: "+generated.Format(timeLayout), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)

	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}

	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)

	for _, row := range rows {
		for i, cell := range row {
			align := "L"
			if i == 0 {
				align = "C"
			}

			pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, align, false, 0, "")
		}

		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(190, 6, fmt.Sprintf("Total: %d", len(rows)), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}
