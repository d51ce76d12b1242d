package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

// summaryDays is the span between StartDate and EndDate of a summary.
const summaryDays = 2

// Transformer turns a raw resort forecast into a ForecastSummary holding one
// ReportingRecord per sample taken at the designated time of day.
type Transformer struct {
	designatedTime string
	logger         *utils.Logger
}

// NewTransformer creates a Transformer keeping samples whose time equals
// designatedTime (e.g. "11:00").
func NewTransformer(designatedTime string, logger *utils.Logger) *Transformer {
	return &Transformer{designatedTime: designatedTime, logger: logger}
}

// Transform filters and reshapes raw. Input order is preserved. An empty
// forecast array, an unparsable date, a missing base block or a
// non-numeric measurement wraps models.ErrMalformedData.
func (t *Transformer) Transform(raw *models.RawForecast) (*models.ForecastSummary, error) {
	if raw == nil || len(raw.Forecast) == 0 {
		return nil, fmt.Errorf("%w: forecast array is empty", models.ErrMalformedData)
	}

	startDate, err := ParseDate(raw.Forecast[0].Date)
	if err != nil {
		return nil, fmt.Errorf("%w: entry 0: %v", models.ErrMalformedData, err)
	}

	summary := &models.ForecastSummary{
		ResortName: raw.Name,
		StartDate:  startDate,
		EndDate:    startDate.AddDate(0, 0, summaryDays),
		Records:    make([]models.ReportingRecord, 0, len(raw.Forecast)),
	}

	for i, entry := range raw.Forecast {
		if entry.Time != t.designatedTime {
			continue
		}
		rec, err := toRecord(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d (%s %s): %v", models.ErrMalformedData, i, entry.Date, entry.Time, err)
		}
		summary.Records = append(summary.Records, rec)
	}

	t.logger.Info("[transformer] Kept %d of %d samples at %s", len(summary.Records), len(raw.Forecast), t.designatedTime)
	if len(summary.Records) == 0 {
		t.logger.Warn("[transformer] No samples at %s in forecast for %q", t.designatedTime, raw.Name)
	}
	return summary, nil
}

func toRecord(e models.RawForecastEntry) (models.ReportingRecord, error) {
	date, err := ParseDate(e.Date)
	if err != nil {
		return models.ReportingRecord{}, err
	}
	if e.Base == nil {
		return models.ReportingRecord{}, errors.New("missing base weather block")
	}

	p := numberParser{}
	rec := models.ReportingRecord{
		Date:          date,
		Time:          e.Time,
		Weather:       e.Base.Description,
		FreshSnow:     p.parse("freshsnow_cm", e.Base.FreshSnowCM),
		Temp:          p.parse("temp_c", e.Base.TempC),
		TempAvg:       p.parse("temp_avg_c", e.Base.TempAvgC),
		FeelsLike:     p.parse("feelslike_c", e.Base.FeelsLikeC),
		FeelsLikeAvg:  p.parse("feelslike_avg_c", e.Base.FeelsLikeAvgC),
		Rain:          p.parse("rain_mm", e.RainMM),
		Snow:          p.parse("snow_mm", e.SnowMM),
		Visibility:    p.parse("vis_min_km", e.VisMinKM),
		VisibilityAvg: p.parse("vis_avg_km", e.VisAvgKM),
	}
	if p.err != nil {
		return models.ReportingRecord{}, p.err
	}
	return rec, nil
}

// numberParser keeps the first parse error so a record can be built in one
// expression.
type numberParser struct {
	err error
}

func (p *numberParser) parse(field string, raw json.RawMessage) float64 {
	if p.err != nil {
		return 0
	}
	v, err := ParseNumber(raw)
	if err != nil {
		p.err = fmt.Errorf("field %s: %w", field, err)
	}
	return v
}

// ParseNumber accepts a JSON number or a JSON string holding a decimal
// number. Missing values, null, NaN and infinities are rejected.
func ParseNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("value is missing")
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("invalid string %s", raw)
		}
		text = strings.TrimSpace(text)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not a number", raw)
	}
	return v, nil
}

// ParseDate parses the API's day-first DD/MM/YYYY date. "05/03/2024" is the
// 5th of March. The result is midnight UTC.
func ParseDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("date %q is not DD/MM/YYYY", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q is not DD/MM/YYYY", s)
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return time.Time{}, fmt.Errorf("date %q is out of range", s)
	}
	return d, nil
}
