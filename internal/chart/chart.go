package chart

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sabarim/cryptodash/internal/historical"
)

// Spec is a line chart description in the shape plotly.js accepts for
// Plotly.newPlot(el, spec.data, spec.layout)
type Spec struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one line series
type Trace struct {
	Type string    `json:"type"`
	Mode string    `json:"mode"`
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
	Line Line      `json:"line"`
}

type Line struct {
	Color string `json:"color"`
	Dash  string `json:"dash,omitempty"`
}

type Text struct {
	Text string `json:"text"`
}

type Axis struct {
	Title Text `json:"title"`
}

type Font struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

type Legend struct {
	Orientation string  `json:"orientation"`
	YAnchor     string  `json:"yanchor"`
	Y           float64 `json:"y"`
	XAnchor     string  `json:"xanchor"`
	X           float64 `json:"x"`
}

// Annotation is a free-floating text label positioned in paper coordinates
type Annotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ShowArrow bool    `json:"showarrow"`
	Font      Font    `json:"font"`
}

type Layout struct {
	Title       Text         `json:"title"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	HoverMode   string       `json:"hovermode,omitempty"`
	PlotBGColor string       `json:"plot_bgcolor,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// IsPlaceholder reports whether the chart carries no series
func (s Spec) IsPlaceholder() bool {
	return len(s.Data) == 0
}

const (
	shortMAWindow = 7
	longMAWindow  = 30
)

// Build charts the daily average price of one asset over the selected window
// together with 7 and 30 day moving averages. Assets without at least two
// distinct days in the window get a placeholder chart with an annotation.
func Build(history historical.History, assetID string, window Window) Spec {
	label := displayName(assetID)

	entries := history.ForAsset(assetID)
	if len(entries) == 0 {
		return placeholder(fmt.Sprintf("Price Evolution for %s", label), fmt.Sprintf("No data found for %s", assetID), 20)
	}

	title := fmt.Sprintf("Price Evolution for %s (%s)", label, window)

	daily := DailyAverages(FilterWindow(entries, window))
	if len(daily) <= 1 {
		return placeholder(title, fmt.Sprintf("No data found for %s.", assetID), 16)
	}

	dates := make([]string, len(daily))
	prices := make([]float64, len(daily))
	for i, d := range daily {
		dates[i] = d.Date.Format("2006-01-02")
		prices[i] = d.Price
	}

	spec := Spec{
		Data: []Trace{lineTrace("Current Price", dates, prices, Line{Color: "blue"})},
		Layout: Layout{
			Title:       Text{Text: title},
			XAxis:       &Axis{Title: Text{Text: "Date"}},
			YAxis:       &Axis{Title: Text{Text: "Price (USD)"}},
			HoverMode:   "x unified",
			PlotBGColor: "white",
			Legend: &Legend{
				Orientation: "h",
				YAnchor:     "bottom",
				Y:           1.02,
				XAnchor:     "right",
				X:           1,
			},
		},
	}

	if len(daily) >= shortMAWindow {
		spec.Data = append(spec.Data, lineTrace("7 Days Moving Average", dates,
			MovingAverage(prices, shortMAWindow), Line{Color: "orange", Dash: "dot"}))
	}
	if len(daily) >= longMAWindow {
		spec.Data = append(spec.Data, lineTrace("30 Days Moving Average", dates,
			MovingAverage(prices, longMAWindow), Line{Color: "red", Dash: "dash"}))
	}

	return spec
}

func lineTrace(name string, x []string, y []float64, line Line) Trace {
	return Trace{Type: "scatter", Mode: "lines", Name: name, X: x, Y: y, Line: line}
}

func placeholder(title, message string, fontSize int) Spec {
	return Spec{
		Data: []Trace{},
		Layout: Layout{
			Title: Text{Text: title},
			Annotations: []Annotation{{
				Text: message,
				XRef: "paper",
				YRef: "paper",
				X:    0.5,
				Y:    0.5,
				Font: Font{Size: fontSize, Color: "gray"},
			}},
		},
	}
}

// displayName upper-cases the first letter of an asset id and lower-cases the rest
func displayName(id string) string {
	r, size := utf8.DecodeRuneInString(id)
	if r == utf8.RuneError {
		return id
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(id[size:])
}
