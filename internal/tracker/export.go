package tracker

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"variantcore/internal/blob"
	"variantcore/pkg/domain"
)

// ExportRow is the flat form of one audit record.
type ExportRow struct {
	Timestamp        time.Time `json:"timestamp"`
	SessionID        string    `json:"session_id"`
	VariantID        string    `json:"variant_id"`
	Category         string    `json:"category"`
	ObjectType       string    `json:"object_type"`
	ObjectName       string    `json:"object_name"`
	Parameter        string    `json:"parameter"`
	OriginalValue    string    `json:"original_value"`
	NewValue         string    `json:"new_value"`
	ChangeType       string    `json:"change_type"`
	Rule             string    `json:"rule,omitempty"`
	Success          bool      `json:"success"`
	ValidationStatus string    `json:"validation_status"`
	Message          string    `json:"message,omitempty"`
}

var exportColumns = []string{
	"timestamp", "session_id", "variant_id", "category", "object_type", "object_name",
	"parameter", "original_value", "new_value", "change_type", "rule", "success",
	"validation_status", "message",
}

// ExportRows flattens the active session's audit log.
func (t *Tracker) ExportRows() []ExportRow {
	records := t.Records()
	rows := make([]ExportRow, len(records))
	for i, rec := range records {
		r := rec.Result
		rows[i] = ExportRow{
			Timestamp:        rec.Timestamp,
			SessionID:        rec.SessionID,
			VariantID:        rec.VariantID,
			Category:         string(r.Category),
			ObjectType:       r.ObjectType,
			ObjectName:       r.ObjectName,
			Parameter:        r.Parameter,
			OriginalValue:    r.OriginalValue.String(),
			NewValue:         r.NewValue.String(),
			ChangeType:       string(r.Method),
			Rule:             r.Rule,
			Success:          r.Succeeded(),
			ValidationStatus: string(r.ValidationStatus),
			Message:          r.Message,
		}
	}
	return rows
}

// WriteCSV writes the audit log with a header row.
func (t *Tracker) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return err
	}
	for _, row := range t.ExportRows() {
		record := []string{
			row.Timestamp.Format(time.RFC3339Nano),
			row.SessionID,
			row.VariantID,
			row.Category,
			row.ObjectType,
			row.ObjectName,
			row.Parameter,
			row.OriginalValue,
			row.NewValue,
			row.ChangeType,
			row.Rule,
			strconv.FormatBool(row.Success),
			row.ValidationStatus,
			row.Message,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the audit log as an indented JSON array.
func (t *Tracker) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.ExportRows())
}

// Export file names written under <prefix>/<session>/.
const (
	ExportCSVName    = "modifications.csv"
	ExportJSONName   = "modifications.json"
	ExportReportName = "report.txt"
)

// Export writes the CSV and JSON audit logs and the text report for the active
// session to store and returns the keys written. Earlier exports of the same
// session are replaced.
func (t *Tracker) Export(ctx context.Context, store blob.Store, prefix string) ([]string, error) {
	if t.session == nil {
		return nil, fmt.Errorf("export: %w", domain.ErrNoActiveSession)
	}
	base := path.Join(prefix, t.session.ID)
	var csvBuf, jsonBuf bytes.Buffer
	if err := t.WriteCSV(&csvBuf); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	if err := t.WriteJSON(&jsonBuf); err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	artifacts := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{ExportCSVName, "text/csv", csvBuf.Bytes()},
		{ExportJSONName, "application/json", jsonBuf.Bytes()},
		{ExportReportName, "text/plain; charset=utf-8", []byte(t.RenderReport())},
	}
	keys := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		key := path.Join(base, a.name)
		if _, err := store.Delete(ctx, key); err != nil {
			return keys, fmt.Errorf("replace %s: %w", key, err)
		}
		opts := blob.PutOptions{
			ContentType: a.contentType,
			Metadata:    map[string]string{"session": t.session.ID, "rows": strconv.Itoa(len(t.session.Records))},
		}
		if _, err := store.Put(ctx, key, bytes.NewReader(a.body), opts); err != nil {
			return keys, fmt.Errorf("write %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	t.log.Info("audit log exported", "session", t.session.ID, "driver", store.Driver(), "keys", len(keys))
	return keys, nil
}
