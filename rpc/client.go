package rpc

import (
	"context"

	"github.com/AminuIsrael/seldon-core/component"
	"github.com/AminuIsrael/seldon-core/message"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// TokenMetadata carries the OAuth token of calls to the Seldon service.
const TokenMetadata = "oauth_token"

type Client struct {
	conn    *grpc.ClientConn
	service string
	token   string
}

// NewClient creates a client calling the named service at target.
func NewClient(target string, service string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, service: service}, nil
}

// WithToken sends token as oauth_token metadata with every call.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, m component.Method, in any) (*message.SeldonMessage, error) {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, TokenMetadata, c.token)
	}
	var trailer metadata.MD
	out := new(message.SeldonMessage)
	err := c.conn.Invoke(ctx, "/"+c.service+"/"+string(m), in, out, grpc.Trailer(&trailer))
	if err != nil {
		return nil, fromStatus(err, trailer)
	}
	return out, nil
}

func (c *Client) Predict(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	return c.invoke(ctx, component.MethodPredict, req)
}

func (c *Client) Route(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	return c.invoke(ctx, component.MethodRoute, req)
}

func (c *Client) TransformInput(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	return c.invoke(ctx, component.MethodTransformInput, req)
}

func (c *Client) TransformOutput(ctx context.Context, req *message.SeldonMessage) (*message.SeldonMessage, error) {
	return c.invoke(ctx, component.MethodTransformOutput, req)
}

func (c *Client) Aggregate(ctx context.Context, list *message.SeldonMessageList) (*message.SeldonMessage, error) {
	return c.invoke(ctx, component.MethodAggregate, list)
}

func (c *Client) SendFeedback(ctx context.Context, fb *message.Feedback) (*message.SeldonMessage, error) {
	return c.invoke(ctx, component.MethodSendFeedback, fb)
}
