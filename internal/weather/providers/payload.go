package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/openwx/internal/weather"
)

var validate = validator.New()

// fallbackErrorMessage is shown when the error payload carries no usable text.
const fallbackErrorMessage = "Failed to fetch weather"

type conditionPayload struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type currentPayload struct {
	Location *struct {
		Name      string `json:"name"`
		Country   string `json:"country"`
		Localtime string `json:"localtime"`
	} `json:"location"`
	Current *struct {
		TempC      float64          `json:"temp_c"`
		FeelslikeC float64          `json:"feelslike_c"`
		Humidity   float64          `json:"humidity"`
		WindKph    float64          `json:"wind_kph"`
		IsDay      int              `json:"is_day"`
		Condition  conditionPayload `json:"condition"`
	} `json:"current"`
}

type forecastPayload struct {
	Forecast *struct {
		Forecastday []struct {
			Date string `json:"date"`
			Day  struct {
				AvgtempC    float64          `json:"avgtemp_c"`
				Avghumidity float64          `json:"avghumidity"`
				MaxwindKph  float64          `json:"maxwind_kph"`
				Condition   conditionPayload `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// decode classifies a response body: a top-level "error" wins over everything else,
// then the body must unmarshal into v.
func decode(body []byte, v any) error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &weather.MalformedResponseError{Reason: "decode response", Err: err}
	}
	if msg, ok := errorMessage(envelope.Error); ok {
		return &weather.ProviderError{Message: msg}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &weather.MalformedResponseError{Reason: "decode payload", Err: err}
	}
	return nil
}

// errorMessage extracts the text of an "error" field given either as a string or as
// {"message": ...}. Absent, null, false and empty-string values mean no error.
func errorMessage(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}
	return fallbackErrorMessage, true
}

func (p currentPayload) toReading() (weather.Reading, error) {
	if p.Location == nil {
		return weather.Reading{}, &weather.MalformedResponseError{Reason: "missing location"}
	}
	if p.Current == nil {
		return weather.Reading{}, &weather.MalformedResponseError{Reason: "missing current"}
	}

	r := weather.Reading{
		LocationLabel:    p.Location.Name,
		CountryLabel:     p.Location.Country,
		LocalTimestamp:   p.Location.Localtime,
		TemperatureC:     p.Current.TempC,
		FeelsLikeC:       p.Current.FeelslikeC,
		HumidityPct:      int(math.Round(p.Current.Humidity)),
		WindKph:          p.Current.WindKph,
		ConditionText:    p.Current.Condition.Text,
		ConditionIconRef: p.Current.Condition.Icon,
		IsDaytime:        p.Current.IsDay == 1,
	}
	if err := validate.Struct(r); err != nil {
		return weather.Reading{}, &weather.MalformedResponseError{Reason: "invalid reading", Err: err}
	}
	return r, nil
}

func (p forecastPayload) toForecast(days int) (weather.Forecast, error) {
	if p.Forecast == nil || p.Forecast.Forecastday == nil {
		return nil, &weather.MalformedResponseError{Reason: "missing forecast.forecastday"}
	}
	if len(p.Forecast.Forecastday) == 0 {
		return nil, &weather.MalformedResponseError{Reason: "empty forecast.forecastday"}
	}

	out := make(weather.Forecast, 0, len(p.Forecast.Forecastday))
	for i, fd := range p.Forecast.Forecastday {
		if fd.Date == "" {
			return nil, &weather.MalformedResponseError{Reason: fmt.Sprintf("forecastday[%d] has no date", i)}
		}
		out = append(out, weather.ForecastDay{
			Date:             fd.Date,
			AvgTemperatureC:  fd.Day.AvgtempC,
			AvgHumidityPct:   int(math.Round(fd.Day.Avghumidity)),
			MaxWindKph:       fd.Day.MaxwindKph,
			ConditionText:    fd.Day.Condition.Text,
			ConditionIconRef: fd.Day.Condition.Icon,
		})
	}

	// ISO dates sort chronologically as strings.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > days {
		out = out[:days]
	}
	return out, nil
}
