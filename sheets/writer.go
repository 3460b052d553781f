package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"review-scraper/models"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// maxSheetNameLen is the longest tab title Google Sheets accepts
const maxSheetNameLen = 100

// Writer handles writing reviews to Google Sheets
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	metadata      []interface{}
	logger        zerolog.Logger
}

// NewWriter creates a new Google Sheets writer. credsJSON is the content of a
// service account key file.
func NewWriter(ctx context.Context, spreadsheetID string, credsJSON []byte, logger zerolog.Logger) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is empty")
	}
	if err := validateCredentials(credsJSON); err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger.With().Str("sink", "sheets").Logger(),
	}, nil
}

// ForRun names the tab after the run and adds a metadata row above the header
func (w *Writer) ForRun(source models.Source, company, dateRange string, startedAt time.Time) *Writer {
	w.sheetName = SheetName(source, company, startedAt)
	w.metadata = []interface{}{"Company", company, "Source", string(source), "Range", dateRange}
	return w
}

// validateCredentials checks that credsJSON is a service account key
func validateCredentials(credsJSON []byte) error {
	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds["type"] != "service_account" {
		return fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}
	return nil
}

// Write creates a new tab at the beginning of the spreadsheet and writes the
// reviews to it
func (w *Writer) Write(ctx context.Context, reviews []models.Review) error {
	sheetName := w.sheetName
	if sheetName == "" {
		sheetName = SheetName("", "reviews", time.Now())
	}

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
					},
				},
			},
		},
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	w.logger.Debug().Str("sheet", sheetName).Int64("sheet_id", sheetID).Msg("created sheet")

	valueRange := &sheets.ValueRange{
		Values: Rows(reviews, w.metadata),
	}

	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, fmt.Sprintf("'%s'!A1", sheetName), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheet: %w", err)
	}

	w.logger.Info().Int("reviews", len(reviews)).Str("sheet", sheetName).Msg("wrote reviews to Google Sheets")
	return nil
}

// Rows lays out the reviews as sheet rows: an optional metadata row, a header
// row, then one row per review
func Rows(reviews []models.Review, metadata []interface{}) [][]interface{} {
	var values [][]interface{}
	if len(metadata) > 0 {
		values = append(values, metadata)
	}

	values = append(values, []interface{}{"Published At", "Rating", "Title", "Body", "Source", "Company"})
	for _, r := range reviews {
		values = append(values, []interface{}{
			r.PublishedAt.UTC().Format(time.RFC3339),
			r.Rating,
			r.Title,
			r.Body,
			string(r.Source),
			r.Company,
		})
	}
	return values
}

// SheetName builds a tab title like "G2_notion_20240310_150405"
func SheetName(source models.Source, company string, at time.Time) string {
	parts := []string{}
	if source != "" {
		parts = append(parts, string(source))
	}
	parts = append(parts, company, at.Format("20060102_150405"))

	name := sanitizeSheetName(strings.Join(parts, "_"))
	if len(name) > maxSheetNameLen {
		name = name[:maxSheetNameLen]
	}
	return name
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ] or '
	invalidChars := []string{"/", "\\", "?", "*", "[", "]", "'"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
// A bare ID is returned unchanged.
func ExtractSpreadsheetID(url string) string {
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		if strings.Contains(url, "/") {
			return ""
		}
		return strings.TrimSpace(url)
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
