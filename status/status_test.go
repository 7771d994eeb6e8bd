package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/status/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	s := NewStatus(modules.StatusConfig{Listen: "127.0.0.1:0"}, Options{
		Unit: UnitStats{Name: "MeanClassifier", Type: "MODEL", API: "REST"},
	})

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, UnitStats{Name: "MeanClassifier", Type: "MODEL", API: "REST"}, resp.Unit)
	assert.NotEmpty(t, resp.Runtime.Go)
	assert.Positive(t, resp.Runtime.Goroutines)
}

func TestHealth(t *testing.T) {
	up := &health.Indicator{Name: "up", Check: func(ctx context.Context) error { return nil }}
	down := &health.Indicator{Name: "down", Check: func(ctx context.Context) error { return errors.New("unreachable") }}

	tests := []struct {
		desc       string
		indicators []*health.Indicator
		code       int
		body       string
	}{
		{
			desc:       "no indicators",
			indicators: nil,
			code:       200,
			body:       `{"status":"UP","components":{}}`,
		},
		{
			desc:       "nil indicators are skipped",
			indicators: []*health.Indicator{up, nil},
			code:       200,
			body:       `{"status":"UP","components":{"up":{"status":"UP"}}}`,
		},
		{
			desc:       "down",
			indicators: []*health.Indicator{up, down},
			code:       503,
			body:       `{"status":"DOWN","components":{"up":{"status":"UP"},"down":{"status":"DOWN","error":"unreachable"}}}`,
		},
	}
	for _, test := range tests {
		s := NewStatus(modules.StatusConfig{Listen: "127.0.0.1:0"}, Options{Indicators: test.indicators})
		rec := get(t, s.Handler(), "/health")
		assert.Equal(t, test.code, rec.Code, test.desc)
		assert.JSONEq(t, test.body, rec.Body.String(), test.desc)
	}
}

func TestDebugEndpoints(t *testing.T) {
	s := NewStatus(modules.StatusConfig{Listen: "127.0.0.1:0", DebugEndpoints: true}, Options{})
	for _, path := range []string{"/debug/pprof/goroutine?debug=1", "/debug/pprof/heap?debug=1", "/debug/pprof/cmdline"} {
		assert.Equal(t, http.StatusOK, get(t, s.Handler(), path).Code, path)
	}

	s = NewStatus(modules.StatusConfig{Listen: "127.0.0.1:0"}, Options{})
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/debug/pprof/heap").Code)
}

func TestStartStop(t *testing.T) {
	s := NewStatus(modules.StatusConfig{Listen: "127.0.0.1:0"}, Options{})
	require.NoError(t, s.Start())
	assert.NoError(t, s.Stop(context.Background()))
}
