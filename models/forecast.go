package models

import (
	"encoding/json"
	"time"
)

// RawForecast is the resort forecast payload exactly as the weather API
// returns it. Nothing in it has been validated yet.
type RawForecast struct {
	Name     string             `json:"name"`
	Forecast []RawForecastEntry `json:"forecast"`
}

// RawForecastEntry is one intraday sample. Numeric fields are kept as raw
// JSON because the API sends some of them as quoted strings.
type RawForecastEntry struct {
	Date     string           `json:"date"`
	Time     string           `json:"time"`
	Base     *RawWeatherBlock `json:"base"`
	RainMM   json.RawMessage  `json:"rain_mm"`
	SnowMM   json.RawMessage  `json:"snow_mm"`
	VisMinKM json.RawMessage  `json:"vis_min_km"`
	VisAvgKM json.RawMessage  `json:"vis_avg_km"`
}

// RawWeatherBlock holds the conditions at the resort base elevation.
type RawWeatherBlock struct {
	Description   string          `json:"wx_desc"`
	FreshSnowCM   json.RawMessage `json:"freshsnow_cm"`
	TempC         json.RawMessage `json:"temp_c"`
	TempAvgC      json.RawMessage `json:"temp_avg_c"`
	FeelsLikeC    json.RawMessage `json:"feelslike_c"`
	FeelsLikeAvgC json.RawMessage `json:"feelslike_avg_c"`
}

// ReportingRecord is one validated forecast sample at the designated time,
// flattened and ready for rendering.
type ReportingRecord struct {
	Date          time.Time
	Time          string
	Weather       string
	FreshSnow     float64
	Temp          float64
	TempAvg       float64
	FeelsLike     float64
	FeelsLikeAvg  float64
	Rain          float64
	Snow          float64
	Visibility    float64
	VisibilityAvg float64
}

// ForecastSummary is the transformed forecast for one resort. StartDate is
// the date of the first raw sample and EndDate is two days later.
type ForecastSummary struct {
	ResortName string
	StartDate  time.Time
	EndDate    time.Time
	Records    []ReportingRecord
}

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// DispatchReport tallies the outcome of sending a summary.
type DispatchReport struct {
	Attempted int
	Sent      int
	Failures  []error
}
