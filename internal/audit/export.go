package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVExporter renders timeline rows as a CSV document.
type CSVExporter struct{}

// WriteCSV encodes rows with a fixed header line.
func (CSVExporter) WriteCSV(rows []TimelineRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"occurred_at", "actor", "role", "entity", "entity_id", "permission", "granted", "reason", "action"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
			row.Actor,
			row.Role,
			row.Entity,
			row.EntityID,
			row.Permission,
			strconv.FormatBool(row.Granted),
			row.Reason,
			row.Action,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
