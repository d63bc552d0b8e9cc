package sheets

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/api/sheets/v4"

	"jobflow/internal/domain/application"
	"jobflow/internal/schedule"
)

// Custom errors
var ErrApplicationNotFound = fmt.Errorf("application not found")

// Column order of the application sheets. MUST match the sheet structure.
var applicationColumns = []interface{}{
	"ID", "Company", "Email", "Position", "Status", "Sent Date",
	"Followups", "Next Followup Date", "Phone Number", "Website",
	"Body", "CV", "Notes",
}

var activityColumns = []interface{}{
	"Timestamp", "ID", "Email", "Action", "Result", "Details",
}

// Zero-based column indexes into an application row.
const (
	colID = iota
	colCompany
	colEmail
	colPosition
	colStatus
	colSentDate
	colFollowups
	colNextFollowup
	colPhone
	colWebsite
	colBody
	colCV
	colNotes
)

// ApplicationRepository implements application.Repository on top of the
// Google Sheets API. Every mutation is a bounded round trip; the sheet has
// no locking primitive, so callers must process records sequentially.
type ApplicationRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetEN       string
	sheetFR       string
	sheetActivity string
	policy        schedule.Policy
}

func NewApplicationRepository(svc *sheets.Service, spreadsheetID, sheetEN, sheetFR, sheetActivity string, policy schedule.Policy) *ApplicationRepository {
	return &ApplicationRepository{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetEN:       sheetEN,
		sheetFR:       sheetFR,
		sheetActivity: sheetActivity,
		policy:        policy,
	}
}

func (r *ApplicationRepository) sheetName(lang application.Language) string {
	if lang == application.LanguageFR {
		return r.sheetFR
	}
	return r.sheetEN
}

// InitializeSheets writes the header rows of all three sheets when they are
// missing or out of date.
func (r *ApplicationRepository) InitializeSheets(ctx context.Context) error {
	for _, sheet := range []struct {
		name    string
		headers []interface{}
	}{
		{r.sheetEN, applicationColumns},
		{r.sheetFR, applicationColumns},
		{r.sheetActivity, activityColumns},
	} {
		if err := r.ensureHeaders(ctx, sheet.name, sheet.headers); err != nil {
			return fmt.Errorf("ensure headers for %s: %w", sheet.name, err)
		}
	}
	return nil
}

func (r *ApplicationRepository) ensureHeaders(ctx context.Context, sheetName string, headers []interface{}) error {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, sheetName+"!A1:Z1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	if len(resp.Values) > 0 && headersMatch(resp.Values[0], headers) {
		return nil
	}
	_, err = r.svc.Spreadsheets.Values.Update(r.spreadsheetID, sheetName+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{headers},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	return nil
}

func headersMatch(existing, want []interface{}) bool {
	if len(existing) != len(want) {
		return false
	}
	for i := range want {
		if fmt.Sprint(existing[i]) != fmt.Sprint(want[i]) {
			return false
		}
	}
	return true
}

// Add appends a new application row.
func (r *ApplicationRepository) Add(ctx context.Context, rec *application.Record) error {
	row := []interface{}{
		rec.ID,
		rec.Company,
		rec.Email,
		rec.Position,
		string(rec.Status),
		rec.SentDate,
		rec.Followups,
		rec.NextFollowupDate,
		rec.Phone,
		rec.Website,
		rec.Body,
		rec.Attachment,
		rec.Notes,
	}
	_, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, r.sheetName(rec.Language)+"!A:M", &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append application row: %w", err)
	}
	return nil
}

// GetByID returns the full record for an application ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string, lang application.Language) (*application.Record, error) {
	records, err := r.ListAll(ctx, lang)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, ErrApplicationNotFound
}

// ListAll returns every application row of a partition.
func (r *ApplicationRepository) ListAll(ctx context.Context, lang application.Language) ([]*application.Record, error) {
	sheetName := r.sheetName(lang)
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, sheetName+"!A2:M").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", sheetName, err)
	}
	records := make([]*application.Record, 0, len(resp.Values))
	for _, row := range resp.Values {
		rec := recordFromRow(row, lang)
		if rec.ID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListDueCandidates returns records eligible for follow-up processing:
// status outside the terminal-excluded set and a non-empty next-followup
// marker. The due check itself belongs to the engine.
func (r *ApplicationRepository) ListDueCandidates(ctx context.Context, lang application.Language) ([]*application.Record, error) {
	records, err := r.ListAll(ctx, lang)
	if err != nil {
		return nil, err
	}
	candidates := make([]*application.Record, 0, len(records))
	for _, rec := range records {
		if application.IsTerminalExcluded(rec.Status) {
			continue
		}
		if rec.NextFollowupDate == "" {
			continue
		}
		candidates = append(candidates, rec)
	}
	return candidates, nil
}

// UpdateSent records a successful initial send.
func (r *ApplicationRepository) UpdateSent(ctx context.Context, id string, lang application.Language, body, cv string) error {
	sheetName := r.sheetName(lang)
	rowIndex, err := r.findRowByID(ctx, sheetName, id)
	if err != nil {
		return err
	}

	now := time.Now()
	sentDate := r.policy.Timestamp(now)
	nextFollowup := r.policy.NextFollowup(sentDate, now)

	return r.batchUpdate(ctx, []*sheets.ValueRange{
		cellUpdate(sheetName, colStatus, rowIndex, string(application.StatusSent)),
		cellUpdate(sheetName, colSentDate, rowIndex, sentDate),
		cellUpdate(sheetName, colNextFollowup, rowIndex, nextFollowup),
		cellUpdate(sheetName, colBody, rowIndex, body),
		cellUpdate(sheetName, colCV, rowIndex, cv),
	})
}

// UpdateFollowup writes the new follow-up count, the next follow-up date and
// the "Follow-up Sent" status. The date is derived from the current
// next-followup cell, re-read fresh here: any value the engine still holds
// is stale by the time of this multi-step mutation.
func (r *ApplicationRepository) UpdateFollowup(ctx context.Context, id string, lang application.Language, newCount int) error {
	sheetName := r.sheetName(lang)
	rowIndex, err := r.findRowByID(ctx, sheetName, id)
	if err != nil {
		return err
	}

	previous, err := r.getCell(ctx, sheetName, rowIndex, colNextFollowup)
	if err != nil {
		return err
	}
	nextFollowup := r.policy.NextFollowup(previous, time.Now())

	return r.batchUpdate(ctx, []*sheets.ValueRange{
		cellUpdate(sheetName, colFollowups, rowIndex, newCount),
		cellUpdate(sheetName, colNextFollowup, rowIndex, nextFollowup),
		cellUpdate(sheetName, colStatus, rowIndex, string(application.StatusFollowupSent)),
	})
}

// UpdateStatus sets the status cell to a new value.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, lang application.Language, status application.Status) error {
	sheetName := r.sheetName(lang)
	rowIndex, err := r.findRowByID(ctx, sheetName, id)
	if err != nil {
		return err
	}
	_, err = r.svc.Spreadsheets.Values.Update(r.spreadsheetID, cellRange(sheetName, colStatus, rowIndex), &sheets.ValueRange{
		Values: [][]interface{}{{string(status)}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// UpdateFields patches the provided cells, leaving nil fields untouched.
func (r *ApplicationRepository) UpdateFields(ctx context.Context, id string, lang application.Language, fields application.FieldUpdate) error {
	sheetName := r.sheetName(lang)
	rowIndex, err := r.findRowByID(ctx, sheetName, id)
	if err != nil {
		return err
	}

	var updates []*sheets.ValueRange
	if fields.Company != nil {
		updates = append(updates, cellUpdate(sheetName, colCompany, rowIndex, *fields.Company))
	}
	if fields.Email != nil {
		updates = append(updates, cellUpdate(sheetName, colEmail, rowIndex, *fields.Email))
	}
	if fields.Position != nil {
		updates = append(updates, cellUpdate(sheetName, colPosition, rowIndex, *fields.Position))
	}
	if fields.Status != nil {
		updates = append(updates, cellUpdate(sheetName, colStatus, rowIndex, string(*fields.Status)))
	}
	if fields.Phone != nil {
		updates = append(updates, cellUpdate(sheetName, colPhone, rowIndex, *fields.Phone))
	}
	if fields.Website != nil {
		updates = append(updates, cellUpdate(sheetName, colWebsite, rowIndex, *fields.Website))
	}
	if fields.Notes != nil {
		updates = append(updates, cellUpdate(sheetName, colNotes, rowIndex, *fields.Notes))
	}
	if len(updates) == 0 {
		return nil
	}
	return r.batchUpdate(ctx, updates)
}

// AppendActivity appends one audit trail row. The timestamp is stamped here
// when the caller left it empty.
func (r *ApplicationRepository) AppendActivity(ctx context.Context, entry application.ActivityEntry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = r.policy.Timestamp(time.Now())
	}
	row := []interface{}{
		entry.Timestamp,
		entry.ApplicationID,
		entry.Email,
		entry.Action,
		entry.Result,
		entry.Details,
	}
	_, err := r.svc.Spreadsheets.Values.Append(r.spreadsheetID, r.sheetActivity+"!A:F", &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append activity row: %w", err)
	}
	return nil
}

// ListActivity returns up to limit entries, most recent first.
func (r *ApplicationRepository) ListActivity(ctx context.Context, limit int) ([]application.ActivityEntry, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, r.sheetActivity+"!A2:F").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read activity rows: %w", err)
	}
	rows := resp.Values
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	entries := make([]application.ActivityEntry, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		entries = append(entries, activityFromRow(rows[i]))
	}
	return entries, nil
}

// findRowByID returns the 1-based row index holding the given ID.
func (r *ApplicationRepository) findRowByID(ctx context.Context, sheetName, id string) (int, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, sheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("scan ID column: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			return i + 1, nil
		}
	}
	return 0, ErrApplicationNotFound
}

// getCell reads a single cell value, empty string when unset.
func (r *ApplicationRepository) getCell(ctx context.Context, sheetName string, rowIndex, col int) (string, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, cellRange(sheetName, col, rowIndex)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read cell: %w", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(resp.Values[0][0]), nil
}

func (r *ApplicationRepository) batchUpdate(ctx context.Context, updates []*sheets.ValueRange) error {
	_, err := r.svc.Spreadsheets.Values.BatchUpdate(r.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		Data:             updates,
		ValueInputOption: "RAW",
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update cells: %w", err)
	}
	return nil
}

func cellUpdate(sheetName string, col, rowIndex int, value interface{}) *sheets.ValueRange {
	return &sheets.ValueRange{
		Range:  cellRange(sheetName, col, rowIndex),
		Values: [][]interface{}{{value}},
	}
}

// cellRange builds an A1-notation reference like "Applications_EN!E7" from a
// zero-based column index and a 1-based row index.
func cellRange(sheetName string, col, rowIndex int) string {
	return fmt.Sprintf("%s!%c%d", sheetName, 'A'+col, rowIndex)
}

// recordFromRow maps a sheet row onto a typed record, tolerating short rows.
func recordFromRow(row []interface{}, lang application.Language) *application.Record {
	followups := 0
	if raw := cell(row, colFollowups); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			followups = n
		}
	}
	return &application.Record{
		ID:               cell(row, colID),
		Company:          cell(row, colCompany),
		Email:            cell(row, colEmail),
		Position:         cell(row, colPosition),
		Status:           application.Status(cell(row, colStatus)),
		SentDate:         cell(row, colSentDate),
		Followups:        followups,
		NextFollowupDate: cell(row, colNextFollowup),
		Phone:            cell(row, colPhone),
		Website:          cell(row, colWebsite),
		Body:             cell(row, colBody),
		Attachment:       cell(row, colCV),
		Notes:            cell(row, colNotes),
		Language:         lang,
	}
}

func activityFromRow(row []interface{}) application.ActivityEntry {
	return application.ActivityEntry{
		Timestamp:     cell(row, 0),
		ApplicationID: cell(row, 1),
		Email:         cell(row, 2),
		Action:        cell(row, 3),
		Result:        cell(row, 4),
		Details:       cell(row, 5),
	}
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}
