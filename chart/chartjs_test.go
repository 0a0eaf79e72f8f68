package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseData(t *testing.T) {
	d, err := ParseData(`{"labels":["a","b"],"datasets":[{"label":"Profit","data":[1,null],"pointRadius":0}]}`)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, d.Labels)
	require.Len(t, d.Datasets, 1)
	assert.Equal(t, []any{1.0, nil}, d.Datasets[0]["data"])
	assert.Equal(t, 0.0, d.Datasets[0]["pointRadius"])

	for _, raw := range []string{`{"labels":[]}`, `[]`, `"x"`, ``, `null`, `{"datasets":[1]}`} {
		_, err := ParseData(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseDataKeepsPayload(t *testing.T) {
	raw := `{"labels":[1,2,3],"datasets":[{"label":"P","data":[{"x":1,"y":2}],"stepped":true,"yAxisID":"y2"}],"xLabels":["a"]}`
	d, err := ParseData(raw)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, d.Labels)
	assert.Equal(t, true, d.Datasets[0]["stepped"])

	out, err := json.Marshal(NewConfig(d))
	require.NoError(t, err)
	var decoded struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.JSONEq(t, raw, string(decoded.Data))
}

func TestDataMarshalWithoutPayload(t *testing.T) {
	out, err := json.Marshal(Data{Labels: []any{"a"}, Datasets: []map[string]any{{"label": "P"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":["a"],"datasets":[{"label":"P"}]}`, string(out))
}

func TestNewConfigLegend(t *testing.T) {
	assert.False(t, NewConfig(Data{}).Options.Plugins.Legend.Display)
	assert.False(t, NewConfig(Data{Datasets: make([]map[string]any, 1)}).Options.Plugins.Legend.Display)
	cfg := NewConfig(Data{Datasets: make([]map[string]any, 3)})
	assert.True(t, cfg.Options.Plugins.Legend.Display)
	assert.Equal(t, "top", cfg.Options.Plugins.Legend.Position)
	assert.True(t, cfg.Options.Responsive)
	assert.True(t, cfg.Options.MaintainAspectRatio)
}
