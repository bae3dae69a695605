package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/openwx/internal/weather"
)

// View is what a surface renders. Empty strings mean there is nothing to show yet.
type View struct {
	State       string           `json:"state"`
	Query       string           `json:"query,omitempty"`
	Unit        string           `json:"unit"`
	Title       string           `json:"title,omitempty"`
	LocalTime   string           `json:"localTime,omitempty"`
	Temperature string           `json:"temperature,omitempty"`
	FeelsLike   string           `json:"feelsLike,omitempty"`
	Humidity    string           `json:"humidity,omitempty"`
	Wind        string           `json:"wind,omitempty"`
	Condition   string           `json:"condition,omitempty"`
	IconURL     string           `json:"iconUrl,omitempty"`
	Category    weather.Category `json:"category"`
	Error       string           `json:"error,omitempty"`
	UpdatedAt   string           `json:"updatedAt,omitempty"`
}

// Render projects a snapshot for display.
func Render(s Snapshot) View {
	v := View{Category: weather.CategoryDefault}
	if s.Reading != nil {
		v = RenderReading(*s.Reading, s.Unit)
	}
	v.State = s.State.String()
	v.Query = s.Query.String()
	v.Unit = s.Unit.String()
	v.Error = s.ErrorMessage
	if !s.FetchedAt.IsZero() {
		v.UpdatedAt = s.FetchedAt.Format(time.RFC3339)
	}
	return v
}

// RenderReading formats a single reading in the given unit.
func RenderReading(r weather.Reading, u weather.Unit) View {
	title := r.LocationLabel
	if r.CountryLabel != "" {
		title += ", " + r.CountryLabel
	}
	return View{
		State:       Ready.String(),
		Unit:        u.String(),
		Title:       title,
		LocalTime:   r.LocalTimestamp,
		Temperature: weather.FormatTemperature(r.TemperatureC, u),
		FeelsLike:   "Feels like " + weather.FormatTemperature(r.FeelsLikeC, u),
		Humidity:    strconv.Itoa(r.HumidityPct) + "%",
		Wind:        strconv.FormatFloat(r.WindKph, 'f', -1, 64) + " km/h",
		Condition:   r.ConditionText,
		IconURL:     IconURL(r.ConditionIconRef),
		Category:    weather.Classify(r.ConditionText, r.IsDaytime),
	}
}

// IconURL resolves the provider's protocol-relative icon references.
func IconURL(ref string) string {
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	return ref
}
