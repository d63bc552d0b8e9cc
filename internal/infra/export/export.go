// Package export renders store contents as CSV for download and backup.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"jobflow/internal/domain/application"
)

var applicationHeader = []string{
	"ID", "Language", "Company", "Email", "Position", "Status", "Sent Date",
	"Followups", "Next Followup Date", "Phone Number", "Website", "CV", "Notes",
}

var activityHeader = []string{
	"Timestamp", "ID", "Email", "Action", "Result", "Details",
}

// Exporter streams CSV renditions of the record store.
type Exporter struct {
	repo application.Repository
}

func NewExporter(repo application.Repository) *Exporter {
	return &Exporter{repo: repo}
}

// Applications writes every record of both partitions. The body column is
// deliberately omitted: exports feed spreadsheets, not mail archives.
func (e *Exporter) Applications(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(applicationHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, lang := range []application.Language{application.LanguageEN, application.LanguageFR} {
		records, err := e.repo.ListAll(ctx, lang)
		if err != nil {
			return fmt.Errorf("list %s records: %w", lang, err)
		}
		for _, rec := range records {
			row := []string{
				rec.ID,
				string(rec.Language),
				rec.Company,
				rec.Email,
				rec.Position,
				string(rec.Status),
				rec.SentDate,
				strconv.Itoa(rec.Followups),
				rec.NextFollowupDate,
				rec.Phone,
				rec.Website,
				rec.Attachment,
				rec.Notes,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write record %s: %w", rec.ID, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Activity writes the audit trail, most recent first.
func (e *Exporter) Activity(ctx context.Context, w io.Writer) error {
	entries, err := e.repo.ListActivity(ctx, 0)
	if err != nil {
		return fmt.Errorf("list activity: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(activityHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, entry := range entries {
		row := []string{
			entry.Timestamp,
			entry.ApplicationID,
			entry.Email,
			entry.Action,
			entry.Result,
			entry.Details,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
