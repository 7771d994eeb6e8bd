package mcache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) *message.SeldonMessage {
	var msg message.SeldonMessage
	require.NoError(t, json.Unmarshal([]byte(s), &msg))
	return &msg
}

func TestKeyIgnoresMeta(t *testing.T) {
	a, err := Key(parse(t, `{"meta":{"puid":"1"},"data":{"ndarray":[[1,2]]}}`))
	require.NoError(t, err)
	b, err := Key(parse(t, `{"meta":{"puid":"2","tags":{"a":"b"}},"data":{"ndarray":[[1,2]]}}`))
	require.NoError(t, err)
	c, err := Key(parse(t, `{"data":{"ndarray":[[1,3]]}}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len(KeyPrefix)+64)
}

func TestWrap(t *testing.T) {
	c, err := NewFromConfig(modules.CacheConfig{Enabled: true, L1Size: 10, L1TTL: 60}, nil, nil)
	require.NoError(t, err)

	calls := 0
	predict := c.Wrap(func(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
		calls++
		return parse(t, `{"meta":{"puid":"first"},"data":{"names":["t:0"],"ndarray":[[0.5]]}}`), nil
	})

	resp, err := predict(context.TODO(), parse(t, `{"meta":{"puid":"first"},"data":{"ndarray":[[1]]}}`))
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Meta.Puid)

	resp, err = predict(context.TODO(), parse(t, `{"meta":{"puid":"second"},"data":{"ndarray":[[1]]}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "second", resp.Meta.Puid)
	assert.Equal(t, []string{"t:0"}, resp.Data.Names)
	assert.Equal(t, []any{[]any{0.5}}, resp.Data.Ndarray)

	resp, err = predict(context.TODO(), parse(t, `{"data":{"ndarray":[[1]]}}`))
	require.NoError(t, err)
	assert.Nil(t, resp.Meta)

	_, err = predict(context.TODO(), parse(t, `{"data":{"ndarray":[[2]]}}`))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHitRebuildsMeta(t *testing.T) {
	c, err := NewFromConfig(modules.CacheConfig{L1Size: 10, L1TTL: 60}, nil, nil)
	require.NoError(t, err)

	calls := 0
	predict := c.Wrap(func(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
		calls++
		resp := parse(t, `{"data":{"ndarray":[[0.5]]},"meta":{"metrics":[{"key":"hits","type":"COUNTER","value":1}]}}`)
		resp.Meta.Puid = req.Meta.Puid
		resp.Meta.Tags = map[string]any{"model": "v1"}
		for k, v := range req.Meta.Tags {
			resp.Meta.Tags[k] = v
		}
		resp.Meta.RequestPath = req.Meta.RequestPath
		return resp, nil
	})

	_, err = predict(context.TODO(), parse(t,
		`{"meta":{"puid":"a","tags":{"user":"alice"},"requestPath":{"m":"img:1"}},"data":{"ndarray":[[1]]}}`))
	require.NoError(t, err)

	resp, err := predict(context.TODO(), parse(t,
		`{"meta":{"puid":"b","tags":{"session":"s2"},"routing":{"r":1}},"data":{"ndarray":[[1]]}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "b", resp.Meta.Puid)
	assert.Equal(t, map[string]any{"model": "v1", "session": "s2"}, resp.Meta.Tags)
	assert.Equal(t, map[string]int32{"r": 1}, resp.Meta.Routing)
	assert.Empty(t, resp.Meta.RequestPath)
	require.Len(t, resp.Meta.Metrics, 1)
	assert.Equal(t, "hits", resp.Meta.Metrics[0].Key)
}

func TestFailuresAreNotCached(t *testing.T) {
	c, err := NewFromConfig(modules.CacheConfig{L1Size: 10}, nil, nil)
	require.NoError(t, err)
	req := parse(t, `{"strData":"x"}`)
	c.Put(context.TODO(), req, message.NewFailure("boom", "MICROSERVICE_INTERNAL_ERROR"))
	_, ok := c.Get(context.TODO(), req)
	assert.False(t, ok)
}
