// Package client talks to a running offhours daemon over the gRPC bridge.
package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/offhours/internal/bridge"
	"github.com/ppiankov/offhours/internal/model"
	"github.com/ppiankov/offhours/internal/server"
)

// DefaultTimeout bounds each call.
const DefaultTimeout = 5 * time.Second

// Client is a bridge client.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// New creates a client for addr. The connection is established lazily.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to offhours daemon: %w", err)
	}
	return &Client{conn: conn, timeout: DefaultTimeout}, nil
}

// ScreenCall asks the daemon for a call response.
// Fail-open: any RPC error yields an allow response with reason error_fallback.
func (c *Client) ScreenCall(ctx context.Context, req bridge.ScreenCallRequest) (*bridge.ScreenCallResponse, error) {
	var resp bridge.ScreenCallResponse
	if err := c.invoke(ctx, server.MethodScreenCall, req, &resp); err != nil {
		return &bridge.ScreenCallResponse{
			Decision: failOpen(err),
		}, nil
	}
	return &resp, nil
}

// Decide asks the daemon for a decision.
// Fail-open: any RPC error yields Allow(error_fallback) with the error attached.
func (c *Client) Decide(ctx context.Context, req bridge.DecideRequest) (*bridge.Decision, error) {
	var d bridge.Decision
	if err := c.invoke(ctx, server.MethodDecide, req, &d); err != nil {
		fo := failOpen(err)
		fo.Feature = req.Feature
		return &fo, nil
	}
	return &d, nil
}

// InboundMessage forwards one message for auto-reply.
func (c *Client) InboundMessage(ctx context.Context, req bridge.MessageRequest) (*bridge.MessageResponse, error) {
	var resp bridge.MessageResponse
	if err := c.invoke(ctx, server.MethodInboundMessage, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UIEvent forwards one window-state change.
func (c *Client) UIEvent(ctx context.Context, req bridge.UIEventRequest) (*bridge.UIEventResponse, error) {
	var resp bridge.UIEventResponse
	if err := c.invoke(ctx, server.MethodUIEvent, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DND reports the device state and reconciles.
func (c *Client) DND(ctx context.Context, req bridge.DNDRequest) (*bridge.DNDResponse, error) {
	var resp bridge.DNDResponse
	if err := c.invoke(ctx, server.MethodDND, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Commands polls the queued commands.
func (c *Client) Commands(ctx context.Context) (*bridge.CommandsResponse, error) {
	var resp bridge.CommandsResponse
	if err := c.invoke(ctx, server.MethodCommands, bridge.CommandsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	in, err := bridge.ToStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, server.FullMethod(method), in, out); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return bridge.FromStruct(out, resp)
}

func failOpen(err error) bridge.Decision {
	d := bridge.DecisionOf(model.AllowBecause(model.ReasonErrorFallback))
	d.Error = fmt.Sprintf("daemon unreachable: %v", err)
	return d
}
