package service

import (
	"context"
	"strings"
	"time"

	"srisai/internal/model"
)

const (
	DefaultTimeLayout = "1/2/2006, 3:04:05 PM"
	invalidDate       = "Invalid Date"
	placeholderRow    = `<tr><td colspan="9" class="muted">No bookings yet.</td></tr>`
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#x2F;",
	"`", "&#x60;",
	"=", "&#x3D;",
)

// EscapeHTML escapes every character that could open markup or an attribute.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Display controls how createdAt is shown in the bookings table.
type Display struct {
	Location *time.Location
	Layout   string
}

// Row holds one booking with every cell already escaped.
type Row struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	EventType string `json:"eventType"`
	Date      string `json:"date"`
	Guests    string `json:"guests"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"createdAt"`
}

func (r Row) cells() []string {
	return []string{r.ID, r.Name, r.Phone, r.Email, r.EventType, r.Date, r.Guests, r.Notes, r.CreatedAt}
}

// Table is the rendered bookings view. Empty means the placeholder row is shown.
type Table struct {
	Rows  []Row `json:"rows"`
	Empty bool  `json:"empty"`
}

// HTML returns the tbody content.
func (t Table) HTML() string {
	if t.Empty {
		return placeholderRow
	}
	var b strings.Builder
	for i, row := range t.Rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("<tr>")
		for _, cell := range row.cells() {
			b.WriteString("<td>")
			b.WriteString(cell)
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	return b.String()
}

func (s *service) RenderBookings(ctx context.Context) (Table, error) {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return Table{}, err
	}
	return s.buildTable(records), nil
}

func (s *service) buildTable(records []model.Booking) Table {
	if len(records) == 0 {
		return Table{Rows: []Row{}, Empty: true}
	}
	rows := make([]Row, 0, len(records))
	for _, b := range records {
		rows = append(rows, Row{
			ID:        EscapeHTML(b.ID),
			Name:      EscapeHTML(b.Name),
			Phone:     EscapeHTML(b.Phone),
			Email:     EscapeHTML(b.Email),
			EventType: EscapeHTML(b.EventType),
			Date:      EscapeHTML(b.Date),
			Guests:    EscapeHTML(string(b.Guests)),
			Notes:     EscapeHTML(b.Notes),
			CreatedAt: EscapeHTML(s.formatCreatedAt(b.CreatedAt)),
		})
	}
	return Table{Rows: rows}
}

func (s *service) formatCreatedAt(v string) string {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return invalidDate
	}
	loc := s.display.Location
	if loc == nil {
		loc = time.Local
	}
	layout := s.display.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return t.In(loc).Format(layout)
}
