package app

import (
	"testing"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIType(t *testing.T) {
	tests := []struct {
		in      string
		want    APIType
		wantErr string
	}{
		{in: "REST", want: APIRest},
		{in: "rest", want: APIRest},
		{in: "GRPC", want: APIGrpc},
		{in: "FBS", wantErr: "api type FBS is not supported, use REST or GRPC"},
		{in: "SOAP", wantErr: "invalid api type: SOAP"},
	}
	for _, test := range tests {
		got, err := ParseAPIType(test.in)
		if test.wantErr != "" {
			assert.EqualError(t, err, test.wantErr, test.in)
			continue
		}
		assert.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}
}

func newConfig() *config.Config {
	cfg := config.New()
	cfg.Server.Listen = "127.0.0.1:0"
	return cfg
}

func TestApplication(t *testing.T) {
	for _, api := range []APIType{APIRest, APIGrpc} {
		app, err := New(newConfig(), Options{
			Interface:   "MeanClassifier",
			API:         api,
			ServiceType: component.ServiceModel,
		})
		require.NoError(t, err, api)
		assert.NotEmpty(t, app.NodeID())
		assert.Equal(t, "MeanClassifier", app.Unit().Name())

		require.NoError(t, app.Start(), api)
		assert.ErrorIs(t, app.Start(), ErrApplicationStarted)
		require.NoError(t, app.Stop(), api)
		app.Wait()
		assert.ErrorIs(t, app.Stop(), ErrApplicationStopped)
	}
}

func TestApplicationErrors(t *testing.T) {
	tests := []struct {
		desc    string
		opts    Options
		params  string
		wantErr string
	}{
		{
			desc:    "unknown component",
			opts:    Options{Interface: "Missing", API: APIRest, ServiceType: component.ServiceModel},
			wantErr: "component not found: Missing",
		},
		{
			desc:    "unsupported service type",
			opts:    Options{Interface: "MeanClassifier", API: APIRest, ServiceType: component.ServiceRouter},
			wantErr: "component 'MeanClassifier' cannot serve as ROUTER",
		},
		{
			desc:    "bad parameters",
			opts:    Options{Interface: "MeanClassifier", API: APIRest, ServiceType: component.ServiceModel},
			params:  `[{"name":"intValue","value":"x","type":"INT"}]`,
			wantErr: "",
		},
	}
	for _, test := range tests {
		cfg := newConfig()
		cfg.Unit.Parameters = test.params
		_, err := New(cfg, test.opts)
		assert.Error(t, err, test.desc)
		if test.wantErr != "" {
			assert.EqualError(t, err, test.wantErr, test.desc)
		}
	}
}
