package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"tracker/internal/core"
	applog "tracker/internal/log"
	ports "tracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultCacheValidDuration = 5 * time.Minute

// Exporter writes ledger rows to one sheet of a Google spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger

	// writeMu serialises Append and Delete: both pick a row from the id
	// column and must not interleave with another writer.
	writeMu sync.Mutex

	// Cached copy of the ID column; cachedIDs[i] is sheet row i+1.
	mu                 sync.Mutex
	cachedIDs          []int64
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
	sheetID            *int64
}

var _ ports.Exporter = (*Exporter)(nil)

// NewExporter creates a Sheets exporter authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewExporter(ctx context.Context, spreadsheetID, sheetName string, logger *applog.Logger) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newExporter(svc, spreadsheetID, sheetName, logger), nil
}

func newExporter(svc *gsheet.Service, spreadsheetID, sheetName string, logger *applog.Logger) *Exporter {
	if logger == nil {
		logger = applog.Discard()
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}
	return &Exporter{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		logger:             logger.WithComponent(applog.ComponentSheets),
		cacheValidDuration: defaultCacheValidDuration,
	}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Append writes e below the last row unless its id is already exported.
func (c *Exporter) Append(ctx context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", fmt.Errorf("append expense: invalid id %d", e.ID)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ids, err := c.idColumn(ctx)
	if err != nil {
		return "", err
	}
	if row := findRow(ids, e.ID); row > 0 {
		c.logger.DebugContext(ctx, "Expense already exported", applog.FieldExpenseID, e.ID, "row", row)
		return c.rowRef(row), nil
	}

	if len(ids) == 0 {
		if err := c.writeRow(ctx, 1, headerRow(ports.Header)); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		ids = []int64{0}
	}

	nextRow := len(ids) + 1
	if err := c.writeRow(ctx, nextRow, expenseRow(e)); err != nil {
		c.invalidateRowCache()
		return "", err
	}

	c.mu.Lock()
	c.cachedIDs = append(ids, e.ID)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	return c.rowRef(nextRow), nil
}

// Delete removes the row holding id. Unknown ids are a no-op.
func (c *Exporter) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return nil
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ids, err := c.idColumn(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:         sheetID,
			Dimension:       "ROWS",
			StartIndex:      int64(row - 1),
			EndIndex:        int64(row),
			ForceSendFields: []string{"SheetId", "StartIndex"},
		}},
	}}}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	c.invalidateRowCache()
	if err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row, c.sheetName, err)
	}
	return nil
}

func (c *Exporter) writeRow(ctx context.Context, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:E%d", c.sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// idColumn returns the cached ID column, refreshing it when expired.
func (c *Exporter) idColumn(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	if time.Now().Before(c.cacheExpiresAt) {
		ids := append([]int64(nil), c.cachedIDs...)
		c.mu.Unlock()
		return ids, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := parseIDColumn(resp.Values)

	c.mu.Lock()
	c.cachedIDs = ids
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()
	return append([]int64(nil), ids...), nil
}

func (c *Exporter) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.sheetID != nil {
		id := *c.sheetID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			id := s.Properties.SheetId
			c.mu.Lock()
			c.sheetID = &id
			c.mu.Unlock()
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

func (c *Exporter) invalidateRowCache() {
	c.mu.Lock()
	c.cachedIDs = nil
	c.cacheExpiresAt = time.Time{}
	c.mu.Unlock()
}

func (c *Exporter) rowRef(row int) string {
	return fmt.Sprintf("%s!A%d:E%d", c.sheetName, row, row)
}
