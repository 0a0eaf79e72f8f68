package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockstorm/widgets-go/chart"
	"github.com/stockstorm/widgets-go/livechat/rest"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	t.Helper()
	store := NewStore()
	token := store.AddUser(User{ID: 1, Username: "ala"})
	store.AddUser(User{ID: 2, Username: "ola"})
	_, err := store.Append(2, "hello")
	require.NoError(t, err)

	charts := NewDemoCharts()
	charts.Now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }

	srv := New(Options{Store: store, Charts: charts})
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return srv, hs, token
}

func getEnvelope(t *testing.T, url string) (chart.Envelope, int) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env chart.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env, resp.StatusCode
}

func TestMessagesRequiresSession(t *testing.T) {
	_, hs, _ := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	for _, cookie := range []*http.Cookie{nil, {Name: "sessionid", Value: "forged"}} {
		req, err := http.NewRequest(http.MethodGet, hs.URL+rest.MessagesPath, nil)
		require.NoError(t, err)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), LoginPath+"?next="))
	}
}

func TestMessagesThroughRestClient(t *testing.T) {
	_, hs, token := newTestServer(t)

	c := rest.NewClient(hs.URL)
	c.SetSessionCookie(&http.Cookie{Name: "sessionid", Value: token})
	resp, err := c.GetMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "ola", resp.Messages[0].Username)
	assert.Equal(t, "hello", resp.Messages[0].Message)
	assert.False(t, resp.Messages[0].IsSelf)
}

func TestBotChartEndpoint(t *testing.T) {
	_, hs, _ := newTestServer(t)

	env, status := getEnvelope(t, hs.URL+"/v1/ai/bot/1/chart")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.OK())
	assert.Equal(t, chart.TypeChartJS, env.ChartType)
	assert.Contains(t, env.BotInfo, "BTC grid")
	assert.NotEmpty(t, env.DetailedAnalysis)

	data, err := chart.ParseData(env.ChartData)
	require.NoError(t, err)
	require.Len(t, data.Datasets, 1)
	assert.Equal(t, "2024-05-10", data.Labels[len(data.Labels)-1])
	values, ok := data.Datasets[0]["data"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, values)
	assert.InDelta(t, 50.0, values[len(values)-1], 1e-9)
	assert.Equal(t, true, data.Datasets[0]["fill"])

	env, status = getEnvelope(t, hs.URL+"/v1/ai/bot/404/chart")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Bot not found", env.Message)
}

func TestPortfolioChartEndpoint(t *testing.T) {
	_, hs, _ := newTestServer(t)

	tests := []struct {
		name     string
		query    string
		status   int
		datasets int
		labels   int
	}{
		{"all bots", "", http.StatusOK, 2, 6},
		{"strategy filter", "?strategy=rei", http.StatusOK, 1, 6},
		{"period window", "?period=2", http.StatusOK, 2, 2},
		{"unknown strategy", "?strategy=martingale", http.StatusNotFound, 0, 0},
		{"bad period", "?period=abc", http.StatusBadRequest, 0, 0},
		{"negative period", "?period=-3", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, status := getEnvelope(t, hs.URL+chart.PortfolioChartPath+tt.query)
			assert.Equal(t, tt.status, status)
			if tt.status != http.StatusOK {
				assert.Equal(t, "error", env.Status)
				assert.NotEmpty(t, env.Message)
				return
			}
			data, err := chart.ParseData(env.ChartData)
			require.NoError(t, err)
			assert.Len(t, data.Datasets, tt.datasets)
			assert.Len(t, data.Labels, tt.labels)
			assert.NotEmpty(t, env.PortfolioAnalysis)
		})
	}
}

func TestChartLoaderAgainstServer(t *testing.T) {
	_, hs, _ := newTestServer(t)
	page := chart.NewMemoryPage().
		Add(chart.BotContainerID, chart.BotIDAttr, "2").
		Add(chart.BotInfoID).
		Add(chart.PortfolioContainerID).
		Add(chart.PortfolioAnalysisID)
	l := chart.NewLoader(hs.URL, page, chart.WithSanitizedFragments())

	require.NoError(t, chart.Bootstrap(context.Background(), l))
	assert.Contains(t, page.HTML(chart.BotContainerID), "<canvas")
	assert.Contains(t, page.HTML(chart.BotInfoID), "ETH DCA")
	assert.Contains(t, page.HTML(chart.PortfolioContainerID), "<canvas")

	res, err := l.PortfolioControls().OnStrategyChange(context.Background(), "no_rei")
	require.NoError(t, err)
	require.NotNil(t, res.Config)
	assert.False(t, res.Config.Options.Plugins.Legend.Display)

	_, err = l.LoadBotChart(context.Background(), "404")
	var se *chart.StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, page.HTML(chart.BotContainerID), "Bot not found")
}
