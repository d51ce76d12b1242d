package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DispatchPolicy selects how a forecast summary is split into emails.
type DispatchPolicy string

const (
	PerRecord DispatchPolicy = "per-record"
	Digest    DispatchPolicy = "digest"
)

// RecipientSource selects the backend the recipient directory is read from.
type RecipientSource string

const (
	SourceSheets   RecipientSource = "sheets"
	SourceXLSX     RecipientSource = "xlsx"
	SourcePostgres RecipientSource = "postgres"
	SourceSQLite   RecipientSource = "sqlite"
)

// CredentialSource selects how Google service-account credentials are loaded.
type CredentialSource string

const (
	ServiceAccountKey CredentialSource = "service-account-key"
	KeyFile           CredentialSource = "key-file"
)

const sheetsReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// Config holds all application configuration loaded from environment variables
// and, optionally, a TOML file named by CONFIG_FILE.
type Config struct {
	BaseURL        string
	ResortID       string
	HourlyInterval int
	NumOfDays      int
	AppID          string
	AppKey         string
	HTTPTimeout    time.Duration

	DesignatedTime   string
	ScheduledDays    []time.Weekday
	ScheduleTimezone string
	DateLayout       string

	DispatchPolicy  DispatchPolicy
	MailConcurrency int
	EmailService    string
	EmailHost       string
	SMTPPort        int
	SMTPSecure      bool
	Email           string
	Password        string
	MailFrom        string
	SMTPTimeout     time.Duration

	RecipientSource   RecipientSource
	SpreadsheetID     string
	SpreadsheetRange  string
	HasHeaderRow      bool
	CredentialSource  CredentialSource
	GoogleClientEmail string
	GooglePrivateKey  string
	GoogleKeyFile     string
	GoogleScopes      []string
	XLSXPath          string
	ContactsDSN       string
	ContactsQuery     string
	ContactsSeed      []string

	DryRun     bool
	OutboxPath string

	AppInsightsKey string
}

// Load reads the .env file (and CONFIG_FILE if set) and returns a populated Config.
// Environment variables take precedence over values from the TOML file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	src := lookup{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		file, err := readTOML(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}
	return src.build()
}

func (src lookup) build() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	days, err := ParseWeekdays(src.getEnv("SCHEDULED_DAYS", "sun,thu"))
	collect(err)

	httpTimeout, err := src.getEnvDuration("HTTP_TIMEOUT", 15*time.Second)
	collect(err)
	smtpTimeout, err := src.getEnvDuration("SMTP_TIMEOUT", 30*time.Second)
	collect(err)

	policy, err := parseDispatchPolicy(src.getEnv("DISPATCH_POLICY", string(PerRecord)))
	collect(err)
	recipientSrc, err := parseRecipientSource(src.getEnv("RECIPIENT_SOURCE", string(SourceSheets)))
	collect(err)
	credSrc, err := parseCredentialSource(src.getEnv("CREDENTIAL_SOURCE", string(ServiceAccountKey)))
	collect(err)

	// SMPT_PORT is the historical spelling some deployments still set.
	smtpPort := src.getEnvInt("SMTP_PORT", src.getEnvInt("SMPT_PORT", 0))

	cfg := &Config{
		BaseURL:        strings.TrimRight(src.getEnv("BASE_URL", ""), "/"),
		ResortID:       src.getEnv("RESORT_ID", ""),
		HourlyInterval: src.getEnvInt("HOURLY_INTERVAL", 6),
		NumOfDays:      src.getEnvInt("NUM_OF_DAYS", 3),
		AppID:          src.getEnv("APP_ID", ""),
		AppKey:         src.getEnv("APP_KEY", ""),
		HTTPTimeout:    httpTimeout,

		DesignatedTime:   src.getEnv("DESIGNATED_TIME", "11:00"),
		ScheduledDays:    days,
		ScheduleTimezone: src.getEnv("SCHEDULE_TIMEZONE", "Local"),
		DateLayout:       src.getEnv("DATE_LAYOUT", "1/2/2006"),

		DispatchPolicy:  policy,
		MailConcurrency: src.getEnvInt("MAIL_CONCURRENCY", 3),
		EmailService:    src.getEnv("EMAIL_SERVICE", ""),
		EmailHost:       src.getEnv("EMAIL_HOST", ""),
		SMTPPort:        smtpPort,
		SMTPSecure:      src.getEnvBool("SMTP_SECURE", false),
		Email:           src.getEnv("EMAIL", ""),
		Password:        src.getEnv("PASSWORD", ""),
		MailFrom:        src.getEnv("MAIL_FROM", ""),
		SMTPTimeout:     smtpTimeout,

		RecipientSource:   recipientSrc,
		SpreadsheetID:     src.getEnv("SPREADSHEET_ID", ""),
		SpreadsheetRange:  src.getEnv("SPREADSHEET_RANGE", "contacts!H:I"),
		HasHeaderRow:      src.getEnvBool("HAS_HEADER_ROW", true),
		CredentialSource:  credSrc,
		GoogleClientEmail: src.getEnv("GOOGLE_CLIENT_EMAIL", ""),
		GooglePrivateKey:  strings.ReplaceAll(src.getEnv("GOOGLE_PRIVATE_KEY", ""), `\n`, "\n"),
		GoogleKeyFile:     src.getEnv("GOOGLE_KEY_FILE", ""),
		GoogleScopes:      splitList(src.getEnv("GOOGLE_SCOPES", sheetsReadOnlyScope)),
		XLSXPath:          src.getEnv("XLSX_PATH", ""),
		ContactsDSN:       src.getEnv("CONTACTS_DSN", ""),
		ContactsQuery:     src.getEnv("CONTACTS_QUERY", "SELECT email FROM contacts ORDER BY id"),
		ContactsSeed:      splitList(src.getEnv("CONTACTS_SEED", "")),

		DryRun:     src.getEnvBool("DRY_RUN", false),
		OutboxPath: src.getEnv("OUTBOX_PATH", "./output/outbox.csv"),

		AppInsightsKey: src.getEnv("APPINSIGHTS_INSTRUMENTATION_KEY", ""),
	}

	collect(cfg.Validate())
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var missing []string
	require := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}

	require("BASE_URL", c.BaseURL)
	require("RESORT_ID", c.ResortID)
	require("APP_ID", c.AppID)
	require("APP_KEY", c.AppKey)

	switch c.RecipientSource {
	case SourceSheets:
		require("SPREADSHEET_ID", c.SpreadsheetID)
		if c.CredentialSource == KeyFile {
			require("GOOGLE_KEY_FILE", c.GoogleKeyFile)
		} else {
			require("GOOGLE_CLIENT_EMAIL", c.GoogleClientEmail)
			require("GOOGLE_PRIVATE_KEY", c.GooglePrivateKey)
		}
	case SourceXLSX:
		require("XLSX_PATH", c.XLSXPath)
	case SourcePostgres, SourceSQLite:
		require("CONTACTS_DSN", c.ContactsDSN)
	}

	if !c.DryRun {
		require("EMAIL_HOST or EMAIL_SERVICE", c.SMTPHost())
		require("EMAIL", c.Email)
		require("PASSWORD", c.Password)
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", ")))
	}
	if _, err := time.Parse("15:04", c.DesignatedTime); err != nil {
		errs = append(errs, fmt.Errorf("config: DESIGNATED_TIME %q is not HH:MM", c.DesignatedTime))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: HTTP_TIMEOUT must be positive, got %v", c.HTTPTimeout))
	}
	if c.SMTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: SMTP_TIMEOUT must be positive, got %v", c.SMTPTimeout))
	}
	if len(c.ScheduledDays) == 0 {
		errs = append(errs, errors.New("config: SCHEDULED_DAYS must name at least one weekday"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("config: SCHEDULE_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// Location resolves ScheduleTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.ScheduleTimezone == "" || c.ScheduleTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.ScheduleTimezone)
}

type smtpPreset struct {
	host   string
	port   int
	secure bool
}

var smtpPresets = map[string]smtpPreset{
	"gmail":   {host: "smtp.gmail.com", port: 587},
	"outlook": {host: "smtp-mail.outlook.com", port: 587},
	"hotmail": {host: "smtp-mail.outlook.com", port: 587},
	"yahoo":   {host: "smtp.mail.yahoo.com", port: 465, secure: true},
}

// SMTPHost returns EMAIL_HOST, or the host of the EMAIL_SERVICE preset.
func (c *Config) SMTPHost() string {
	if c.EmailHost != "" {
		return c.EmailHost
	}
	return smtpPresets[strings.ToLower(c.EmailService)].host
}

// SMTPAddrPort returns the SMTP port and implicit-TLS flag, falling back to
// the EMAIL_SERVICE preset and then to submission port 587.
func (c *Config) SMTPAddrPort() (int, bool) {
	preset, ok := smtpPresets[strings.ToLower(c.EmailService)]
	port, secure := c.SMTPPort, c.SMTPSecure
	if port == 0 {
		port = 587
		if ok && c.EmailHost == "" {
			port, secure = preset.port, secure || preset.secure
		}
	}
	return port, secure
}

// Sender returns the From address for outgoing mail.
func (c *Config) Sender() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return c.Email
}

// ParseWeekdays parses a comma separated list of weekday names ("sun",
// "Thursday") or numbers (0 = Sunday).
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)
	for _, tok := range splitList(s) {
		d, ok := parseWeekday(tok)
		if !ok {
			return nil, fmt.Errorf("config: unknown weekday %q", tok)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}

func parseWeekday(tok string) (time.Weekday, bool) {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if n, err := strconv.Atoi(tok); err == nil {
		if n < 0 || n > 6 {
			return 0, false
		}
		return time.Weekday(n), true
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if tok == name || (len(tok) >= 3 && strings.HasPrefix(name, tok)) {
			return d, true
		}
	}
	return 0, false
}

func parseDispatchPolicy(s string) (DispatchPolicy, error) {
	switch p := DispatchPolicy(normaliseEnum(s)); p {
	case PerRecord, Digest:
		return p, nil
	}
	return "", fmt.Errorf("config: unknown DISPATCH_POLICY %q (want %q or %q)", s, PerRecord, Digest)
}

func parseRecipientSource(s string) (RecipientSource, error) {
	switch r := RecipientSource(normaliseEnum(s)); r {
	case SourceSheets, SourceXLSX, SourcePostgres, SourceSQLite:
		return r, nil
	}
	return "", fmt.Errorf("config: unknown RECIPIENT_SOURCE %q", s)
}

func parseCredentialSource(s string) (CredentialSource, error) {
	switch c := CredentialSource(normaliseEnum(s)); c {
	case ServiceAccountKey, KeyFile:
		return c, nil
	}
	return "", fmt.Errorf("config: unknown CREDENTIAL_SOURCE %q", s)
}

// normaliseEnum accepts "perRecord", "per_record" and "per-record" alike.
func normaliseEnum(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	var prev rune
	for _, r := range s {
		switch {
		case r == '_' || r == ' ':
			b.WriteByte('-')
		case r >= 'A' && r <= 'Z':
			if prev >= 'a' && prev <= 'z' {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// lookup resolves a key from the environment first, then the TOML file.
type lookup struct {
	file map[string]any
}

func readTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return raw, nil
}

func (src lookup) getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val, ok := src.file[key]; ok {
		return stringify(val)
	}
	return fallback
}

func (src lookup) getEnvInt(key string, fallback int) int {
	if val := src.getEnv(key, ""); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func (src lookup) getEnvBool(key string, fallback bool) bool {
	if val := src.getEnv(key, ""); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func (src lookup) getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := src.getEnv(key, "")
	if val == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
