package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
)

// Data is the Chart.js data object produced by the backend. It is handed to
// the chart unchanged: Labels and Datasets are read-only views of the
// payload, and the payload is what gets encoded again. A Data built in code
// without a payload encodes its two fields.
type Data struct {
	Labels   []any
	Datasets []map[string]any

	raw json.RawMessage
}

type dataView struct {
	Labels   []any            `json:"labels"`
	Datasets []map[string]any `json:"datasets"`
}

func (d *Data) UnmarshalJSON(b []byte) error {
	var v dataView
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	d.Labels, d.Datasets = v.Labels, v.Datasets
	d.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (d Data) MarshalJSON() ([]byte, error) {
	if d.raw != nil {
		return d.raw, nil
	}
	return json.Marshal(dataView{Labels: d.Labels, Datasets: d.Datasets})
}

// ParseData decodes the chart_data string of an envelope.
func ParseData(raw string) (Data, error) {
	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Data{}, fmt.Errorf("decode chart data: %w", err)
	}
	if d.Datasets == nil {
		return Data{}, errors.New("decode chart data: no datasets")
	}
	return d, nil
}

// Config is a complete Chart.js configuration.
type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Options struct {
	Responsive          bool             `json:"responsive"`
	MaintainAspectRatio bool             `json:"maintainAspectRatio"`
	Plugins             Plugins          `json:"plugins"`
	Scales              map[string]Scale `json:"scales"`
}

type Plugins struct {
	Legend  Legend  `json:"legend"`
	Tooltip Tooltip `json:"tooltip"`
}

type Legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position"`
}

type Tooltip struct {
	Mode      string `json:"mode"`
	Intersect bool   `json:"intersect"`
}

type Scale struct {
	Display bool       `json:"display"`
	Title   ScaleTitle `json:"title"`
	Grid    Grid       `json:"grid"`
}

type ScaleTitle struct {
	Display bool `json:"display"`
}

type Grid struct {
	Display *bool  `json:"display,omitempty"`
	Color   string `json:"color,omitempty"`
}

// GridColor is the faint color of the horizontal gridlines.
const GridColor = "rgba(0, 0, 0, 0.05)"

// NewConfig wraps data in the dashboard's fixed line chart options: responsive,
// a legend only for multiple series, index-mode tooltips, no axis titles and
// faint horizontal gridlines only.
func NewConfig(data Data) Config {
	hidden := false
	return Config{
		Type: "line",
		Data: data,
		Options: Options{
			Responsive:          true,
			MaintainAspectRatio: true,
			Plugins: Plugins{
				Legend:  Legend{Display: len(data.Datasets) > 1, Position: "top"},
				Tooltip: Tooltip{Mode: "index", Intersect: false},
			},
			Scales: map[string]Scale{
				"x": {Display: true, Grid: Grid{Display: &hidden}},
				"y": {Display: true, Grid: Grid{Color: GridColor}},
			},
		},
	}
}

// Renderer turns a chart configuration into markup for a container.
type Renderer interface {
	Render(cfg Config) (string, error)
}

// CanvasRenderer emits a fresh <canvas> carrying the configuration in a
// data-chart attribute, for the page's Chart.js bootstrap to pick up.
type CanvasRenderer struct{}

func (CanvasRenderer) Render(cfg Config) (string, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode chart config: %w", err)
	}
	return `<canvas class="chartjs" data-chart="` + html.EscapeString(string(payload)) + `"></canvas>`, nil
}
