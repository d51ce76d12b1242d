package recipients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"ski-forecast-mailer/config"
	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

func newTestSheetsDirectory(t *testing.T, handler http.HandlerFunc, hasHeader bool) *SheetsDirectory {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		SpreadsheetID:    "sheet-1",
		SpreadsheetRange: "contacts!H:I",
		HasHeaderRow:     hasHeader,
		HTTPTimeout:      time.Second,
	}
	logger := utils.NewLoggerWithWriters(io.Discard, io.Discard)
	dir, err := NewSheetsDirectoryWithOptions(context.Background(), cfg, logger,
		option.WithEndpoint(ts.URL+"/"), option.WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatalf("NewSheetsDirectoryWithOptions: %v", err)
	}
	return dir
}

func TestSheetsDirectoryRecipients(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"range": "contacts!H1:I4",
			"majorDimension": "ROWS",
			"values": [["Email", "Alt"], ["a@example.com"], ["", "b@example.com"], ["  "]]
		}`)
	}

	got, err := newTestSheetsDirectory(t, handler, true).Recipients(context.Background())
	if err != nil {
		t.Fatalf("Recipients: %v", err)
	}
	if strings.Join(got, ",") != "a@example.com,b@example.com" {
		t.Errorf("recipients: got %v", got)
	}

	got, err = newTestSheetsDirectory(t, handler, false).Recipients(context.Background())
	if err != nil {
		t.Fatalf("Recipients: %v", err)
	}
	if len(got) != 4 || got[0] != "Email" {
		t.Errorf("recipients without header: got %v", got)
	}
}

func TestSheetsDirectoryEmptyRange(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"range": "contacts!H1:I1000", "majorDimension": "ROWS"}`)
	}

	got, err := newTestSheetsDirectory(t, handler, true).Recipients(context.Background())
	if err != nil {
		t.Fatalf("Recipients: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("recipients: got %v, want none", got)
	}
}

func TestSheetsDirectoryErrors(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error": {"code": 403, "message": "The caller does not have permission", "status": "PERMISSION_DENIED"}}`)
	}

	_, err := newTestSheetsDirectory(t, handler, true).Recipients(context.Background())
	if !errors.Is(err, models.ErrDirectoryFetch) {
		t.Errorf("error: got %v, want ErrDirectoryFetch", err)
	}
}

func TestSheetsDirectoryBadCredentials(t *testing.T) {
	cfg := &config.Config{
		SpreadsheetID:    "sheet-1",
		SpreadsheetRange: "contacts!H:I",
		CredentialSource: config.KeyFile,
		GoogleKeyFile:    t.TempDir() + "/missing.json",
	}
	_, err := NewSheetsDirectory(context.Background(), cfg, utils.NewLoggerWithWriters(io.Discard, io.Discard))
	if !errors.Is(err, models.ErrDirectoryFetch) {
		t.Errorf("error: got %v, want ErrDirectoryFetch", err)
	}
}
