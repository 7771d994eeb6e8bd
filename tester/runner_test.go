package tester

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/tester/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testContract(t *testing.T) *Contract {
	c, err := ParseContract([]byte(contractYAML))
	require.NoError(t, err)
	return c
}

func TestRunnerPredict(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().
		Predict(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
			assert.Equal(t, []int{2, 4}, req.Data.Tensor.Shape)
			assert.Equal(t, []string{"sepal_length", "pixel1", "pixel2", "pixel3"}, req.Data.Names)
			assert.NotEmpty(t, req.Meta.Puid)
			return &message.SeldonMessage{}, nil
		}).
		Times(5)

	var out bytes.Buffer
	r := NewRunner(client, testContract(t), Options{
		BatchSize:   2,
		NRequests:   5,
		Tensor:      true,
		Concurrency: 2,
		Puid:        true,
	}, &out)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Success)
	assert.Equal(t, 0, summary.Failure)
	assert.Empty(t, out.String())
}

func TestRunnerFeedback(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	resp := &message.SeldonMessage{Data: &message.DefaultData{Ndarray: []any{[]any{0.5}}}}
	gomock.InOrder(
		client.EXPECT().Predict(gomock.Any(), gomock.Any()).Return(resp, nil),
		client.EXPECT().
			SendFeedback(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fb *message.Feedback) (*message.SeldonMessage, error) {
				assert.Equal(t, 1.0, fb.Reward)
				assert.Same(t, resp, fb.Response)
				assert.Equal(t, []string{"class1", "class2"}, fb.Truth.Data.Names)
				assert.NotNil(t, fb.Request.Data.Ndarray)
				return &message.SeldonMessage{}, nil
			}),
	)

	var out bytes.Buffer
	r := NewRunner(client, testContract(t), Options{
		Endpoint:  EndpointSendFeedback,
		NRequests: 1,
		Print:     true,
	}, &out)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Success: 1, Latency: summary.Latency}, summary)
	assert.Contains(t, out.String(), "SENDING NEW REQUEST")
	assert.Contains(t, out.String(), "SENDING NEW FEEDBACK")
}

func TestRunnerFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().Predict(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused")).Times(3)
	client.EXPECT().SendFeedback(gomock.Any(), gomock.Any()).Times(0)

	r := NewRunner(client, testContract(t), Options{
		Endpoint:  EndpointSendFeedback,
		NRequests: 3,
	}, &bytes.Buffer{})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Failure: 3}, summary)
	assert.Equal(t, "3 requests: 0 succeeded, 3 failed, mean latency 0s", summary.String())
}

func TestParseEndpoint(t *testing.T) {
	e, err := ParseEndpoint("send-feedback")
	assert.NoError(t, err)
	assert.Equal(t, EndpointSendFeedback, e)

	_, err = ParseEndpoint("route")
	assert.EqualError(t, err, "invalid endpoint: route")
}
