package services

import (
	"strings"
	"testing"
	"time"

	"ski-forecast-mailer/models"
)

func sampleRecord(day int, weather string) models.ReportingRecord {
	return models.ReportingRecord{
		Date: date(2024, time.March, day), Time: "11:00", Weather: weather,
		FreshSnow: 4.5, Temp: -1, TempAvg: -2, FeelsLike: -5, FeelsLikeAvg: -6.5,
		Rain: 0, Snow: 3.2, Visibility: 10, VisibilityAvg: 12.3,
	}
}

func TestRenderSingleRecord(t *testing.T) {
	got, err := NewRenderer("").Render([]models.ReportingRecord{sampleRecord(5, "Light snow")})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := "<p>Light snow<br>\n" +
		"Fresh Snow: 4.5cm<br>\n" +
		"Temp: -1°C (avg -2°C)<br>\n" +
		"Feels: -5°C (avg -6.5°C)<br>\n" +
		"Vis: 10km (avg 12.3km)<br>\n" +
		"Snow: 3.2mm  Rain: 0mm<br>\n" +
		"</p>\n"
	if got != want {
		t.Errorf("Render:\ngot  %q\nwant %q", got, want)
	}
}

func TestRenderDigestHeadsEachRecordWithDateAndTime(t *testing.T) {
	r := NewRenderer("")
	records := []models.ReportingRecord{sampleRecord(5, "Light snow"), sampleRecord(6, "Sunny")}

	got, err := r.RenderDigest(records)
	if err != nil {
		t.Fatalf("RenderDigest: %v", err)
	}
	for _, heading := range []string{"<p><b>3/5/2024 11:00</b><br>\nLight snow<br>", "<p><b>3/6/2024 11:00</b><br>\nSunny<br>"} {
		if !strings.Contains(got, heading) {
			t.Errorf("digest missing %q in %q", heading, got)
		}
	}

	plain, _ := r.Render(records)
	if strings.Contains(plain, "<b>") {
		t.Errorf("per-record body carries a date heading: %q", plain)
	}
}

func TestRenderFieldOrder(t *testing.T) {
	got, err := NewRenderer("").Render([]models.ReportingRecord{sampleRecord(5, "Light snow")})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	labels := []string{"Light snow", "Fresh Snow:", "Temp:", "Feels:", "Vis:", "Snow:", "Rain:"}
	last := -1
	for _, label := range labels {
		idx := strings.Index(got, label)
		if idx <= last {
			t.Fatalf("label %q out of order in %q", label, got)
		}
		last = idx
	}
}

func TestRenderIsIdempotentAndOrderPreserving(t *testing.T) {
	r := NewRenderer("")
	records := []models.ReportingRecord{
		sampleRecord(5, "First"),
		sampleRecord(6, "Second"),
		sampleRecord(7, "Third"),
	}

	a, err := r.Render(records)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, _ := r.Render(records)
	if a != b {
		t.Error("rendering the same records twice gave different HTML")
	}

	if strings.Count(a, "<p>") != 3 {
		t.Errorf("fragments: got %d, want 3", strings.Count(a, "<p>"))
	}
	i1, i2, i3 := strings.Index(a, "First"), strings.Index(a, "Second"), strings.Index(a, "Third")
	if !(i1 < i2 && i2 < i3) {
		t.Errorf("fragment order: First@%d Second@%d Third@%d", i1, i2, i3)
	}
}

func TestRenderEscapesWeatherText(t *testing.T) {
	got, err := NewRenderer("").Render([]models.ReportingRecord{sampleRecord(5, `<script>alert("x")</script>`)})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("weather text not escaped: %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("escaped text missing: %q", got)
	}
}

func TestRenderEmptyAndCustomLayout(t *testing.T) {
	r := NewRenderer("02.01.2006")
	got, err := r.Render(nil)
	if err != nil || got != "" {
		t.Errorf("Render(nil) = %q, %v; want empty", got, err)
	}
	if s := r.FormatDate(date(2024, time.March, 5)); s != "05.03.2024" {
		t.Errorf("FormatDate: got %q, want 05.03.2024", s)
	}
}
