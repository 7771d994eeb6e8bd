package tester

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AminuIsrael/seldon-core/constants"
	"github.com/AminuIsrael/seldon-core/message"
	"github.com/AminuIsrael/seldon-core/rpc"
	"github.com/go-resty/resty/v2"
	"google.golang.org/grpc"
)

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

// Client calls the prediction and feedback endpoints of a deployment.
type Client interface {
	Predict(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error)
	SendFeedback(ctx context.Context, fb *message.Feedback) (*message.SeldonMessage, error)
	Close() error
}

// Paths of the REST endpoints.
type Paths struct {
	Predict  string
	Feedback string
}

var (
	MicroservicePaths = Paths{Predict: "/predict", Feedback: "/send-feedback"}
	APIPaths          = Paths{Predict: "/api/v0.1/predictions", Feedback: "/api/v0.1/feedback"}
)

// RequestError is a non 2xx response.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

type RESTClient struct {
	client *resty.Client
	paths  Paths
	// form posts the message as the json form field
	form bool
}

type RESTOptions struct {
	BaseURL string
	Paths   Paths
	Form    bool
	Token   string
	Timeout time.Duration
}

func NewRESTClient(opts RESTOptions) *RESTClient {
	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout)
	for _, h := range constants.DefaultClientRequestHeaders {
		c.SetHeader(h.Name, h.Value)
	}
	if opts.Token != "" {
		c.SetAuthToken(opts.Token)
	}
	return &RESTClient{client: c, paths: opts.Paths, form: opts.Form}
}

func (c *RESTClient) post(ctx context.Context, path string, body any) (*message.SeldonMessage, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req := c.client.R().SetContext(ctx)
	if c.form {
		req.SetFormData(map[string]string{"json": string(b)})
	} else {
		req.SetHeader("Content-Type", constants.ContentTypeJSON).SetBody(b)
	}
	resp, err := req.Post(path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &RequestError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var out message.SeldonMessage
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &out, nil
}

func (c *RESTClient) Predict(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	return c.post(ctx, c.paths.Predict, req)
}

func (c *RESTClient) SendFeedback(ctx context.Context, fb *message.Feedback) (*message.SeldonMessage, error) {
	return c.post(ctx, c.paths.Feedback, fb)
}

func (c *RESTClient) Close() error {
	return nil
}

// NewGRPCClient calls the named service, seldon.protos.Model for a
// microservice and seldon.protos.Seldon for the external API.
func NewGRPCClient(target string, service string, token string, opts ...grpc.DialOption) (Client, error) {
	c, err := rpc.NewClient(target, service, opts...)
	if err != nil {
		return nil, err
	}
	if token != "" {
		c.WithToken(token)
	}
	return c, nil
}
