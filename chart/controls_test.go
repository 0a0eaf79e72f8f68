package chart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingServer struct {
	*httptest.Server
	mu   sync.Mutex
	uris []string
}

func newRecordingServer(t *testing.T) *recordingServer {
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.uris = append(rs.uris, r.URL.RequestURI())
		rs.mu.Unlock()
		_ = json.NewEncoder(w).Encode(Envelope{Status: StatusSuccess, ChartType: TypeImage, ChartImage: "/c.png"})
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) requests() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := append([]string(nil), rs.uris...)
	sort.Strings(out)
	return out
}

func TestPortfolioControlsSendBothValues(t *testing.T) {
	srv := newRecordingServer(t)
	page := newPage().
		Add(StrategyFilterID, "value", "").
		Add(PeriodFilterID, "value", "90")
	c := NewLoader(srv.URL, page).PortfolioControls()
	assert.Equal(t, Filter{Period: "90"}, c.Filter())

	ctx := context.Background()
	_, err := c.OnStrategyChange(ctx, "grid")
	require.NoError(t, err)
	_, err = c.OnPeriodChange(ctx, "30")
	require.NoError(t, err)
	_, err = c.OnStrategyChange(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/v1/ai/portfolio/chart?period=30",
		"/v1/ai/portfolio/chart?period=30&strategy=grid",
		"/v1/ai/portfolio/chart?period=90&strategy=grid",
	}, srv.requests())
	assert.Equal(t, Filter{Period: "30"}, c.Filter())
}

func TestBootstrap(t *testing.T) {
	tests := []struct {
		name string
		page *MemoryPage
		want []string
	}{
		{
			name: "both containers",
			page: newPage(),
			want: []string{"/v1/ai/bot/17/chart", "/v1/ai/portfolio/chart"},
		},
		{
			name: "bot container without id",
			page: NewMemoryPage().Add(BotContainerID).Add(PortfolioContainerID),
			want: []string{"/v1/ai/portfolio/chart"},
		},
		{
			name: "bot page only",
			page: NewMemoryPage().Add(BotContainerID, BotIDAttr, "5"),
			want: []string{"/v1/ai/bot/5/chart"},
		},
		{
			name: "no containers",
			page: NewMemoryPage(),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRecordingServer(t)
			require.NoError(t, Bootstrap(context.Background(), NewLoader(srv.URL, tt.page)))
			assert.Equal(t, tt.want, srv.requests())
		})
	}
}

func TestBootstrapReportsFailure(t *testing.T) {
	srv := envelopeServer(t, http.StatusNotFound, Envelope{Status: "error", Message: "Bot not found"})
	page := NewMemoryPage().Add(BotContainerID, BotIDAttr, "404")

	err := Bootstrap(context.Background(), NewLoader(srv.URL, page))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, page.HTML(BotContainerID), "Bot not found")
}
