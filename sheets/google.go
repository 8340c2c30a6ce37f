package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// GoogleBackend implements Backend on the Google Sheets values API.
type GoogleBackend struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetName     string
}

// NewGoogleBackend builds a Sheets client. Credentials come from
// GOOGLE_CREDENTIALS_FILE when set, otherwise application default
// credentials.
func NewGoogleBackend(ctx context.Context, spreadsheetID, sheetName string) (*GoogleBackend, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID not set")
	}

	var opts []option.ClientOption
	if credFile := os.Getenv("GOOGLE_CREDENTIALS_FILE"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}
	opts = append(opts, option.WithScopes(sheetsapi.SpreadsheetsScope))

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &GoogleBackend{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// ReadAll fetches every row and column of the sheet.
func (g *GoogleBackend) ReadAll(ctx context.Context) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.
		Get(g.spreadsheetID, g.sheetName+"!A:Z").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("values get: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, v := range raw {
			row = append(row, fmt.Sprintf("%v", v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Apply writes each cell as its own range update. Updates are best
// effort: one failed write is logged and the rest still run.
func (g *GoogleBackend) Apply(ctx context.Context, updates []CellUpdate) error {
	var errs []error
	for _, u := range updates {
		rng := fmt.Sprintf("%s!%s%d", g.sheetName, colLetter(u.Col), u.Row)
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{{u.Value}}}
		_, err := g.svc.Spreadsheets.Values.
			Update(g.spreadsheetID, rng, vr).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			log.Warnf("[sheets] write %s failed: %v", rng, err)
			errs = append(errs, fmt.Errorf("%s: %w", rng, err))
		}
	}
	return errors.Join(errs...)
}
