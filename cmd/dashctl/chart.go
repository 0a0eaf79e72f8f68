package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stockstorm/widgets-go/chart"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Fetch a dashboard chart and print a summary",
}

var chartBotCmd = &cobra.Command{
	Use:   "bot BOT_ID",
	Short: "Profit chart of one bot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page := chart.NewMemoryPage().
			Add(chart.BotContainerID, chart.BotIDAttr, args[0]).
			Add(chart.BotInfoID).
			Add(chart.DetailedAnalysisID)
		res, err := newChartLoader(page).LoadBotChart(cmd.Context(), args[0])
		return printChart(cmd.OutOrStdout(), page, chart.BotContainerID, res, err,
			chart.BotInfoID, chart.DetailedAnalysisID)
	},
}

var (
	flagStrategy string
	flagPeriod   string
	flagSanitize bool
)

var chartPortfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio profit chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		page := chart.NewMemoryPage().
			Add(chart.PortfolioContainerID).
			Add(chart.PortfolioAnalysisID)
		res, err := newChartLoader(page).LoadPortfolioChart(cmd.Context(), chart.Filter{Strategy: flagStrategy, Period: flagPeriod})
		return printChart(cmd.OutOrStdout(), page, chart.PortfolioContainerID, res, err, chart.PortfolioAnalysisID)
	},
}

func init() {
	f := chartPortfolioCmd.Flags()
	f.StringVar(&flagStrategy, "strategy", "", "strategy filter, e.g. rei or no_rei")
	f.StringVar(&flagPeriod, "period", "", "window in days (server default 365)")

	chartCmd.AddCommand(chartBotCmd, chartPortfolioCmd)
	chartCmd.PersistentFlags().BoolVar(&flagSanitize, "sanitize", false, "sanitize analysis fragments before display")
}

func newChartLoader(page chart.Page) *chart.Loader {
	opts := []chart.Option{
		chart.WithLogger(componentLogger("chart")),
		chart.WithSessionCookie(sessionCookie(appCfg)),
	}
	if flagSanitize {
		opts = append(opts, chart.WithSanitizedFragments())
	}
	return chart.NewLoader(appCfg.Site.BaseURL, page, opts...)
}

func printChart(w io.Writer, page *chart.MemoryPage, container string, res *chart.Result, loadErr error, fragments ...string) error {
	if loadErr != nil {
		if msg := plainText(page.HTML(container)); msg != "" {
			fmt.Fprintln(w, msg)
		}
		return loadErr
	}

	switch {
	case res.Config != nil:
		data := res.Config.Data
		if n := len(data.Labels); n > 0 {
			fmt.Fprintf(w, "%v .. %v (%d points)\n", data.Labels[0], data.Labels[n-1], n)
		}
		for _, ds := range data.Datasets {
			label, _ := ds["label"].(string)
			fmt.Fprintf(w, "  %-20s %s\n", label, lastValue(ds["data"]))
		}
	case res.Envelope.ChartType == chart.TypeImage:
		fmt.Fprintln(w, "image:", shorten(res.Envelope.ChartImage, 72))
	default:
		fmt.Fprintln(w, plainText(page.HTML(container)))
	}

	for _, id := range fragments {
		if text := plainText(page.HTML(id)); text != "" {
			fmt.Fprintf(w, "\n[%s]\n%s\n", id, text)
		}
	}
	return nil
}

// lastValue prints the newest non-gap point. Points are plain numbers or
// {x, y} objects.
func lastValue(data any) string {
	points, _ := data.([]any)
	for i := len(points) - 1; i >= 0; i-- {
		switch p := points[i].(type) {
		case float64:
			return fmt.Sprintf("%.2f", p)
		case map[string]any:
			if y, ok := p["y"].(float64); ok {
				return fmt.Sprintf("%.2f", y)
			}
		}
	}
	return "-"
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
