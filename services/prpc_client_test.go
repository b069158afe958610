package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xandpulse/models"
)

// rpcServer answers every request with the status and body returned by respond.
func rpcServer(t *testing.T, respond func(req models.RPCRequest, raw []byte) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req models.RPCRequest
		require.NoError(t, json.Unmarshal(raw, &req))

		status, body := respond(req, raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func resultBody(id int64, result string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":%s}`, id, result)
}

const twoNodes = `[
	{"pubkey":"NodeA111","gossip":"10.0.0.1:8001","rpc":"10.0.0.1:8899","version":"0.6.0","featureSet":4215500110,"shredVersion":50093},
	{"pubkey":"NodeB222","gossip":null,"tpu":null,"version":null}
]`

func newTestRPCClient() *RPCClient {
	return NewRPCClientWithHTTP(&http.Client{Timeout: 2 * time.Second})
}

func TestRPCClient_GetClusterNodes_Success(t *testing.T) {
	var gotRaw []byte
	var gotReq models.RPCRequest
	srv := rpcServer(t, func(req models.RPCRequest, raw []byte) (int, string) {
		gotReq, gotRaw = req, raw
		return http.StatusOK, resultBody(req.ID, twoNodes)
	})

	before := testutil.ToFloat64(rpcRequests.WithLabelValues(MethodGetClusterNodes, "ok"))

	nodes, err := newTestRPCClient().GetClusterNodes(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "2.0", gotReq.JSONRPC)
	assert.Equal(t, MethodGetClusterNodes, gotReq.Method)
	assert.Contains(t, string(gotRaw), `"params":[]`)

	assert.Equal(t, "NodeA111", nodes[0].Pubkey)
	require.NotNil(t, nodes[0].Version)
	assert.Equal(t, "0.6.0", *nodes[0].Version)
	require.NotNil(t, nodes[0].FeatureSet)
	assert.Equal(t, uint32(4215500110), *nodes[0].FeatureSet)
	assert.Nil(t, nodes[1].Gossip)
	assert.Nil(t, nodes[1].Version)

	after := testutil.ToFloat64(rpcRequests.WithLabelValues(MethodGetClusterNodes, "ok"))
	assert.Equal(t, 1.0, after-before)
}

func TestRPCClient_Call_UniqueIDs(t *testing.T) {
	var mu sync.Mutex
	seen := map[int64]bool{}
	srv := rpcServer(t, func(req models.RPCRequest, _ []byte) (int, string) {
		mu.Lock()
		seen[req.ID] = true
		mu.Unlock()
		return http.StatusOK, resultBody(req.ID, `[]`)
	})

	client := newTestRPCClient()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Call(context.Background(), srv.URL, "getVersion", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 10)
}

func TestRPCClient_Call_PassesParams(t *testing.T) {
	var gotRaw []byte
	srv := rpcServer(t, func(req models.RPCRequest, raw []byte) (int, string) {
		gotRaw = raw
		return http.StatusOK, resultBody(req.ID, `{"ok":true}`)
	})

	result, err := newTestRPCClient().Call(context.Background(), srv.URL, "getThing", []any{"abc", 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(result))
	assert.Contains(t, string(gotRaw), `"params":["abc",5]`)
}

func TestRPCClient_HTTPStatusError(t *testing.T) {
	srv := rpcServer(t, func(models.RPCRequest, []byte) (int, string) {
		return http.StatusInternalServerError, `oops`
	})

	_, err := newTestRPCClient().GetClusterNodes(context.Background(), srv.URL)
	require.Error(t, err)

	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, http.StatusInternalServerError, transport.StatusCode)
	assert.Equal(t, srv.URL, transport.Endpoint)
}

func TestRPCClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestRPCClient().GetClusterNodes(context.Background(), url)

	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	assert.Zero(t, transport.StatusCode)
}

func TestRPCClient_ErrorEnvelope(t *testing.T) {
	srv := rpcServer(t, func(req models.RPCRequest, _ []byte) (int, string) {
		return http.StatusOK, fmt.Sprintf(
			`{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"Method not found"}}`, req.ID)
	})

	_, err := newTestRPCClient().GetClusterNodes(context.Background(), srv.URL)

	var protoErr *ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, models.RPCCodeMethodNotFound, protoErr.Code)
	assert.Equal(t, "Method not found", protoErr.Message)
}

func TestRPCClient_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body func(id int64) string
	}{
		{"not json", func(int64) string { return `<html>gateway</html>` }},
		{"no result or error", func(id int64) string { return fmt.Sprintf(`{"jsonrpc":"2.0","id":%d}`, id) }},
		{"null result", func(id int64) string { return resultBody(id, `null`) }},
		{"object result", func(id int64) string { return resultBody(id, `{"nodes":[]}`) }},
		{"missing pubkey", func(id int64) string { return resultBody(id, `[{"gossip":"1.2.3.4:8001"}]`) }},
		{"empty pubkey", func(id int64) string { return resultBody(id, `[{"pubkey":""}]`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := rpcServer(t, func(req models.RPCRequest, _ []byte) (int, string) {
				return http.StatusOK, tt.body(req.ID)
			})

			nodes, err := newTestRPCClient().GetClusterNodes(context.Background(), srv.URL)
			assert.Nil(t, nodes)

			var malformed *MalformedResponseError
			assert.True(t, errors.As(err, &malformed), "got %T: %v", err, err)
		})
	}
}

func TestRPCClient_EmptyRoster(t *testing.T) {
	srv := rpcServer(t, func(req models.RPCRequest, _ []byte) (int, string) {
		return http.StatusOK, resultBody(req.ID, `[]`)
	})

	nodes, err := newTestRPCClient().GetClusterNodes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestIsNonRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", &TransportError{Endpoint: "x", Err: errors.New("refused")}, false},
		{"http 503", &TransportError{Endpoint: "x", StatusCode: 503, Err: errors.New("503")}, false},
		{"parse error", &ProtocolError{Code: models.RPCCodeParseError}, true},
		{"invalid request", &ProtocolError{Code: models.RPCCodeInvalidRequest}, true},
		{"method not found", &ProtocolError{Code: models.RPCCodeMethodNotFound}, true},
		{"internal error", &ProtocolError{Code: models.RPCCodeInternalError}, false},
		{"malformed", &MalformedResponseError{Reason: "bad"}, true},
		{"enrichment", &EnrichmentError{Pubkey: "p", Err: errors.New("x")}, true},
		{"wrapped malformed", fmt.Errorf("fetch: %w", &MalformedResponseError{Reason: "bad"}), true},
		{"context", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNonRetryableError(tt.err))
		})
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "transport", errorKind(&TransportError{Err: errors.New("x")}))
	assert.Equal(t, "protocol", errorKind(&ProtocolError{Code: -32000}))
	assert.Equal(t, "malformed", errorKind(&MalformedResponseError{Reason: "x"}))
	assert.Equal(t, "enrichment", errorKind(&EnrichmentError{Err: errors.New("x")}))
	assert.Equal(t, "other", errorKind(errors.New("x")))
	assert.Equal(t, "other", errorKind(nil))
}
