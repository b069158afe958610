package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"xandpulse/config"
	"xandpulse/models"
)

// MethodGetClusterNodes returns the cluster's node roster.
const MethodGetClusterNodes = "getClusterNodes"

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 32 << 20

// RPCClient speaks JSON-RPC 2.0 over HTTP POST. It is safe for concurrent use.
type RPCClient struct {
	httpClient *http.Client
	nextID     atomic.Int64
}

func NewRPCClient(cfg *config.Config) *RPCClient {
	timeout := 10 * time.Second

	configTimeout := cfg.RPCTimeoutDuration()
	if configTimeout > 0 && configTimeout <= 60*time.Second {
		timeout = configTimeout
	}

	return NewRPCClientWithHTTP(&http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     30 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	})
}

// NewRPCClientWithHTTP uses the given http.Client as-is.
func NewRPCClientWithHTTP(httpClient *http.Client) *RPCClient {
	c := &RPCClient{httpClient: httpClient}
	c.nextID.Store(time.Now().UnixMilli())
	return c
}

// Call sends one request envelope and returns the raw result payload.
// Errors are *TransportError, *ProtocolError or *MalformedResponseError.
func (c *RPCClient) Call(ctx context.Context, endpoint, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	rpcLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		rpcRequests.WithLabelValues(method, "transport").Inc()
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		rpcRequests.WithLabelValues(method, "transport").Inc()
		return nil, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", resp.Status),
		}
	}

	var rpcResp models.RPCResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rpcResp); err != nil {
		rpcRequests.WithLabelValues(method, "malformed").Inc()
		return nil, &MalformedResponseError{Reason: "failed to decode envelope", Err: err}
	}

	if rpcResp.Error != nil {
		rpcRequests.WithLabelValues(method, "protocol").Inc()
		return nil, &ProtocolError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if rpcResp.Result == nil {
		rpcRequests.WithLabelValues(method, "malformed").Inc()
		return nil, &MalformedResponseError{Reason: "envelope has neither result nor error"}
	}

	log.WithFields(log.Fields{
		"method":   method,
		"endpoint": endpoint,
		"id":       reqBody.ID,
		"bytes":    len(rpcResp.Result),
	}).Debug("rpc call succeeded")
	rpcRequests.WithLabelValues(method, "ok").Inc()

	return rpcResp.Result, nil
}

// GetClusterNodes calls getClusterNodes and decodes the roster, rejecting
// entries without a pubkey instead of coercing them.
func (c *RPCClient) GetClusterNodes(ctx context.Context, endpoint string) ([]models.RawClusterNode, error) {
	result, err := c.Call(ctx, endpoint, MethodGetClusterNodes, nil)
	if err != nil {
		return nil, err
	}
	return decodeClusterNodes(result)
}

func decodeClusterNodes(result json.RawMessage) ([]models.RawClusterNode, error) {
	trimmed := bytes.TrimSpace(result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &MalformedResponseError{Reason: "getClusterNodes result is null"}
	}

	var nodes []models.RawClusterNode
	if err := json.Unmarshal(trimmed, &nodes); err != nil {
		return nil, &MalformedResponseError{Reason: "getClusterNodes result is not a node list", Err: err}
	}

	for i, n := range nodes {
		if n.Pubkey == "" {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("node %d has no pubkey", i)}
		}
	}
	return nodes, nil
}
