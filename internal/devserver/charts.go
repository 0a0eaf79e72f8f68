package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"time"

	"github.com/stockstorm/widgets-go/chart"
)

// DefaultPeriodDays is the portfolio window when the request names none.
const DefaultPeriodDays = 365

// ChartSource produces chart envelopes together with the HTTP status they
// are served with.
type ChartSource interface {
	BotChart(ctx context.Context, botID string) (chart.Envelope, int)
	PortfolioChart(ctx context.Context, strategy string, periodDays int) (chart.Envelope, int)
}

// DemoBot is a bot with a fixed daily profit series, newest last.
type DemoBot struct {
	Name     string
	Strategy string
	Daily    []float64
}

// DemoCharts serves Chart.js envelopes built from in-memory bots.
type DemoCharts struct {
	Bots map[string]DemoBot
	Now  func() time.Time
}

// NewDemoCharts returns a source with two sample bots, "1" and "2".
func NewDemoCharts() *DemoCharts {
	return &DemoCharts{
		Bots: map[string]DemoBot{
			"1": {Name: "BTC grid", Strategy: "rei", Daily: []float64{10, 35, -15, 30, -35, 25}},
			"2": {Name: "ETH DCA", Strategy: "no_rei", Daily: []float64{5, 5, 10, -5, 15, 0}},
		},
		Now: time.Now,
	}
}

var palette = []string{"#4361ee", "#f72585", "#4cc9f0", "#7209b7", "#3a0ca3"}

func errorEnvelope(msg string) chart.Envelope {
	return chart.Envelope{Status: "error", Message: msg}
}

func (d *DemoCharts) BotChart(_ context.Context, botID string) (chart.Envelope, int) {
	bot, ok := d.Bots[botID]
	if !ok {
		return errorEnvelope("Bot not found"), http.StatusNotFound
	}
	labels := d.labels(len(bot.Daily))
	data, err := encodeData(lineData{
		Labels:   labels,
		Datasets: []series{newSeries(bot.Name, cumulative(bot.Daily), palette[0])},
	})
	if err != nil {
		return errorEnvelope(err.Error()), http.StatusInternalServerError
	}
	total := sum(bot.Daily)
	return chart.Envelope{
		Status:    chart.StatusSuccess,
		ChartType: chart.TypeChartJS,
		ChartData: data,
		BotInfo: fmt.Sprintf(`<h5>%s</h5><p>Strategy: %s</p>`,
			html.EscapeString(bot.Name), html.EscapeString(bot.Strategy)),
		DetailedAnalysis: fmt.Sprintf(`<p>Total profit over %d days: <strong>%.2f</strong></p>`, len(bot.Daily), total),
	}, http.StatusOK
}

func (d *DemoCharts) PortfolioChart(_ context.Context, strategy string, periodDays int) (chart.Envelope, int) {
	ids := make([]string, 0, len(d.Bots))
	for id, b := range d.Bots {
		if strategy == "" || b.Strategy == strategy {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return errorEnvelope("No bots match the selected strategy"), http.StatusNotFound
	}
	sort.Strings(ids)

	days := 0
	for _, id := range ids {
		days = max(days, min(len(d.Bots[id].Daily), periodDays))
	}
	out := lineData{Labels: d.labels(days)}
	var total float64
	for i, id := range ids {
		b := d.Bots[id]
		daily := b.Daily
		if len(daily) > days {
			daily = daily[len(daily)-days:]
		}
		total += sum(daily)
		out.Datasets = append(out.Datasets, newSeries(b.Name, padLeft(cumulative(daily), days), palette[i%len(palette)]))
	}
	data, err := encodeData(out)
	if err != nil {
		return errorEnvelope(err.Error()), http.StatusInternalServerError
	}
	return chart.Envelope{
		Status:    chart.StatusSuccess,
		ChartType: chart.TypeChartJS,
		ChartData: data,
		PortfolioAnalysis: fmt.Sprintf(`<p>%d bots, total profit <strong>%.2f</strong></p>`,
			len(ids), total),
	}, http.StatusOK
}

// labels returns n consecutive dates ending today.
func (d *DemoCharts) labels(n int) []string {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	end := now()
	out := make([]string, n)
	for i := range out {
		out[i] = end.AddDate(0, 0, i-n+1).Format("2006-01-02")
	}
	return out
}

// lineData is the Chart.js data object the dashboard backend emits.
type lineData struct {
	Labels   []string `json:"labels"`
	Datasets []series `json:"datasets"`
}

// series is one line; nil values are gaps.
type series struct {
	Label                string     `json:"label"`
	Data                 []*float64 `json:"data"`
	BorderColor          string     `json:"borderColor"`
	BackgroundColor      string     `json:"backgroundColor"`
	BorderWidth          float64    `json:"borderWidth"`
	PointRadius          float64    `json:"pointRadius"`
	PointBackgroundColor string     `json:"pointBackgroundColor"`
	Tension              float64    `json:"tension"`
	Fill                 bool       `json:"fill"`
}

func newSeries(label string, values []*float64, color string) series {
	return series{
		Label:                label,
		Data:                 values,
		BorderColor:          color,
		BackgroundColor:      color + "20",
		BorderWidth:          2,
		PointRadius:          3,
		PointBackgroundColor: color,
		Tension:              0.1,
		Fill:                 true,
	}
}

func encodeData(d lineData) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode chart data: %w", err)
	}
	return string(raw), nil
}

func cumulative(daily []float64) []*float64 {
	out := make([]*float64, len(daily))
	var acc float64
	for i, v := range daily {
		acc += v
		x := acc
		out[i] = &x
	}
	return out
}

// padLeft prefixes gaps so values line up with the newest labels.
func padLeft(values []*float64, n int) []*float64 {
	if len(values) >= n {
		return values
	}
	return append(make([]*float64, n-len(values)), values...)
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
