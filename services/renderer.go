package services

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"ski-forecast-mailer/models"
)

// DefaultDateLayout renders dates the way an en-US locale date string does.
const DefaultDateLayout = "1/2/2006"

var recordsTemplate = template.Must(template.New("records").Parse(
	`{{range .Records}}<p>{{if $.Dated}}<b>{{.Date}} {{.Time}}</b><br>
{{end}}{{.Weather}}<br>
Fresh Snow: {{.FreshSnow}}cm<br>
Temp: {{.Temp}}°C (avg {{.TempAvg}}°C)<br>
Feels: {{.FeelsLike}}°C (avg {{.FeelsLikeAvg}}°C)<br>
Vis: {{.Visibility}}km (avg {{.VisibilityAvg}}km)<br>
Snow: {{.Snow}}mm  Rain: {{.Rain}}mm<br>
</p>
{{end}}`))

type recordsData struct {
	Dated   bool
	Records []recordView
}

// recordView is a ReportingRecord with every field preformatted for display.
type recordView struct {
	Date          string
	Time          string
	Weather       string
	FreshSnow     string
	Temp          string
	TempAvg       string
	FeelsLike     string
	FeelsLikeAvg  string
	Visibility    string
	VisibilityAvg string
	Snow          string
	Rain          string
}

// Renderer converts reporting records into an HTML email body.
type Renderer struct {
	dateLayout string
}

// NewRenderer creates a Renderer formatting dates with dateLayout.
func NewRenderer(dateLayout string) *Renderer {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	return &Renderer{dateLayout: dateLayout}
}

// FormatDate formats d for subjects and bodies.
func (r *Renderer) FormatDate(d time.Time) string {
	return d.Format(r.dateLayout)
}

// Render emits one paragraph per record, in input order. Text fields are
// HTML-escaped.
func (r *Renderer) Render(records []models.ReportingRecord) (string, error) {
	return r.render(records, false)
}

// RenderDigest is Render with each paragraph headed by the record's date and
// time, so several days can share one body.
func (r *Renderer) RenderDigest(records []models.ReportingRecord) (string, error) {
	return r.render(records, true)
}

func (r *Renderer) render(records []models.ReportingRecord, dated bool) (string, error) {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{
			Date:          r.FormatDate(rec.Date),
			Time:          rec.Time,
			Weather:       rec.Weather,
			FreshSnow:     formatNumber(rec.FreshSnow),
			Temp:          formatNumber(rec.Temp),
			TempAvg:       formatNumber(rec.TempAvg),
			FeelsLike:     formatNumber(rec.FeelsLike),
			FeelsLikeAvg:  formatNumber(rec.FeelsLikeAvg),
			Visibility:    formatNumber(rec.Visibility),
			VisibilityAvg: formatNumber(rec.VisibilityAvg),
			Snow:          formatNumber(rec.Snow),
			Rain:          formatNumber(rec.Rain),
		})
	}

	var b strings.Builder
	if err := recordsTemplate.Execute(&b, recordsData{Dated: dated, Records: views}); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
