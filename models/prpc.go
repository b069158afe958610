package models

import "encoding/json"

// JSON-RPC 2.0 Request
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// JSON-RPC 2.0 Response. Result stays nil when the field is absent from the body.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// JSON-RPC 2.0 Error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	RPCCodeParseError     = -32700
	RPCCodeInvalidRequest = -32600
	RPCCodeMethodNotFound = -32601
	RPCCodeInvalidParams  = -32602
	RPCCodeInternalError  = -32603
)

// ============================================
// getClusterNodes result entry
// ============================================

// RawClusterNode is one entry of the getClusterNodes result as sent by the
// cluster. Only Pubkey is required; everything else may be null or missing.
type RawClusterNode struct {
	Pubkey       string  `json:"pubkey"`
	Gossip       *string `json:"gossip"`
	TPU          *string `json:"tpu"`
	TPUQuic      *string `json:"tpuQuic"`
	RPC          *string `json:"rpc"`
	PubSub       *string `json:"pubsub"`
	Version      *string `json:"version"`
	FeatureSet   *uint32 `json:"featureSet"`
	ShredVersion *uint16 `json:"shredVersion"`
}
