// Package chart loads dashboard charts from the backend and materializes
// them onto a page: either a static image or a Chart.js line chart, plus the
// analysis fragments that accompany them.
package chart

// Envelope statuses and chart types.
const (
	StatusSuccess = "success"

	TypeImage   = "image"
	TypeChartJS = "chartjs"
)

// Envelope is the body returned by both chart endpoints. Error responses use
// the same shape with Status set to something other than "success".
type Envelope struct {
	Status     string `json:"status"`
	ChartType  string `json:"chart_type,omitempty"`
	ChartImage string `json:"chart_image,omitempty"` // URL or data: URI
	ChartData  string `json:"chart_data,omitempty"`  // JSON-encoded Chart.js data object
	Message    string `json:"message,omitempty"`

	BotInfo           string `json:"bot_info,omitempty"`
	DetailedAnalysis  string `json:"detailed_analysis,omitempty"`
	PortfolioAnalysis string `json:"portfolio_analysis,omitempty"`
}

// OK reports whether the envelope carries a chart.
func (e *Envelope) OK() bool {
	return e != nil && e.Status == StatusSuccess
}
