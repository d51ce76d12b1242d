package services

import (
	"encoding/json"
	"io"
	"testing"

	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

func newTestLogger() *utils.Logger {
	return utils.NewLoggerWithWriters(io.Discard, io.Discard)
}

func decodeForecast(t *testing.T, payload string) *models.RawForecast {
	t.Helper()
	var raw models.RawForecast
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return &raw
}

// sampleEntry returns a complete forecast entry as JSON.
func sampleEntry(date, tm, desc string) string {
	return `{"date": "` + date + `", "time": "` + tm + `",
	  "base": {"wx_desc": "` + desc + `", "freshsnow_cm": 4.5, "temp_c": -1, "temp_avg_c": "-2",
	           "feelslike_c": -5, "feelslike_avg_c": -6.5},
	  "rain_mm": 0, "snow_mm": 3.2, "vis_min_km": 10, "vis_avg_km": "12.3"}`
}
