package recipients

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ski-forecast-mailer/config"
	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

// SheetsDirectory reads recipients from a Google Sheets range.
type SheetsDirectory struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	hasHeaderRow  bool
	timeout       time.Duration
	logger        *utils.Logger
}

// NewSheetsDirectory authenticates with the configured service account and
// returns a directory over cfg.SpreadsheetRange.
func NewSheetsDirectory(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*SheetsDirectory, error) {
	client, err := serviceAccountClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDirectoryFetch, err)
	}
	return NewSheetsDirectoryWithOptions(ctx, cfg, logger, option.WithHTTPClient(client))
}

// NewSheetsDirectoryWithOptions builds the Sheets service from explicit
// client options.
func NewSheetsDirectoryWithOptions(ctx context.Context, cfg *config.Config, logger *utils.Logger, opts ...option.ClientOption) (*SheetsDirectory, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create sheets service: %v", models.ErrDirectoryFetch, err)
	}
	return &SheetsDirectory{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		readRange:     cfg.SpreadsheetRange,
		hasHeaderRow:  cfg.HasHeaderRow,
		timeout:       cfg.HTTPTimeout,
		logger:        logger,
	}, nil
}

func serviceAccountClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	var conf *jwt.Config
	switch cfg.CredentialSource {
	case config.KeyFile:
		data, err := os.ReadFile(cfg.GoogleKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		conf, err = google.JWTConfigFromJSON(data, cfg.GoogleScopes...)
		if err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
	default:
		conf = &jwt.Config{
			Email:      cfg.GoogleClientEmail,
			PrivateKey: []byte(cfg.GooglePrivateKey),
			Scopes:     cfg.GoogleScopes,
			TokenURL:   google.JWTTokenURL,
		}
	}

	client := conf.Client(ctx)
	client.Timeout = cfg.HTTPTimeout
	return client, nil
}

// Recipients reads the range and returns its non-blank cells.
func (d *SheetsDirectory) Recipients(ctx context.Context) ([]string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp, err := d.service.Spreadsheets.Values.Get(d.spreadsheetID, d.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrDirectoryFetch, d.readRange, err)
	}

	d.logger.Info("[recipients] Grabbed range %s (%d rows)", resp.Range, len(resp.Values))
	return Addresses(cellsToStrings(resp.Values), d.hasHeaderRow), nil
}
