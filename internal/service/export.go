package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"srisai/internal/metrics"
	"srisai/internal/model"
)

const (
	CSVContentType  = "text/csv;charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportBaseName = "srisai_bookings"
	xlsxSheet      = "Bookings"
)

// Export is a downloadable file.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

func (s *service) ExportCSV(ctx context.Context) (*Export, error) {
	records, err := s.loadForExport(ctx)
	if err != nil {
		return nil, err
	}
	metrics.Exports.WithLabelValues("csv").Inc()
	s.log.Info().Int("records", len(records)).Msg("bookings exported as csv")
	return &Export{
		Filename:    s.exportName("csv"),
		ContentType: CSVContentType,
		Body:        EncodeCSV(records),
	}, nil
}

func (s *service) ExportXLSX(ctx context.Context) (*Export, error) {
	records, err := s.loadForExport(ctx)
	if err != nil {
		return nil, err
	}
	body, err := EncodeXLSX(records)
	if err != nil {
		return nil, err
	}
	metrics.Exports.WithLabelValues("xlsx").Inc()
	s.log.Info().Int("records", len(records)).Msg("bookings exported as xlsx")
	return &Export{
		Filename:    s.exportName("xlsx"),
		ContentType: XLSXContentType,
		Body:        body,
	}, nil
}

func (s *service) loadForExport(ctx context.Context) ([]model.Booking, error) {
	records, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}
	return records, nil
}

func (s *service) exportName(ext string) string {
	return fmt.Sprintf("%s_%s.%s", exportBaseName, s.now().UTC().Format("2006-01-02"), ext)
}

// EncodeCSV writes the header unquoted and quotes every data field, doubling
// embedded quotes. Lines are separated by \n with no trailing newline.
func EncodeCSV(records []model.Booking) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(model.Columns, ","))
	for _, r := range records {
		b.WriteByte('\n')
		for i, v := range r.Values() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(v, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return []byte(b.String())
}

func EncodeXLSX(records []model.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("error naming sheet: %w", err)
	}

	header := make([]interface{}, len(model.Columns))
	for i, c := range model.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(model.Columns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", last, style); err != nil {
		return nil, fmt.Errorf("error styling header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := r.Values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error encoding xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
