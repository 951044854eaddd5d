package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"predictionScope/internal/decode"
	"predictionScope/internal/model"
)

// Reader is the read-only surface of the ledger node used by the engine.
type Reader interface {
	GetObject(ctx context.Context, id string) (model.ObjectSnapshot, error)
	MultiGetObjects(ctx context.Context, ids []string) ([]model.ObjectSnapshot, error)
	QueryEvents(ctx context.Context, query model.EventQuery) (model.EventPage, error)
	GetBalance(ctx context.Context, owner string) (uint64, error)
}

// Client speaks the node's JSON-RPC dialect over go-ethereum's generic RPC client.
type Client struct {
	rpcClient *rpc.Client
}

var _ Reader = (*Client)(nil)

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &Client{rpcClient: rpcClient}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

type objectOptions struct {
	ShowType    bool `json:"showType"`
	ShowContent bool `json:"showContent"`
}

var contentOptions = objectOptions{ShowType: true, ShowContent: true}

type objectResponse struct {
	Data *objectData `json:"data"`
}

type objectData struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content"`
}

type objectContent struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

// GetObject reads one object with its content. An absent object, or one without struct
// content, yields a snapshot with nil fields.
func (c *Client) GetObject(ctx context.Context, id string) (model.ObjectSnapshot, error) {
	var resp objectResponse
	if err := c.rpcClient.CallContext(ctx, &resp, "sui_getObject", id, contentOptions); err != nil {
		return model.ObjectSnapshot{}, fmt.Errorf("get object %s: %w: %w", id, model.ErrFetchFailure, err)
	}
	snapshot := toSnapshot(resp.Data)
	if snapshot.ID == "" {
		snapshot.ID = id
	}
	return snapshot, nil
}

// MultiGetObjects reads several objects in one call, preserving request order.
func (c *Client) MultiGetObjects(ctx context.Context, ids []string) ([]model.ObjectSnapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resp []objectResponse
	if err := c.rpcClient.CallContext(ctx, &resp, "sui_multiGetObjects", ids, contentOptions); err != nil {
		return nil, fmt.Errorf("multi get objects: %w: %w", model.ErrFetchFailure, err)
	}
	out := make([]model.ObjectSnapshot, 0, len(resp))
	for i, item := range resp {
		snapshot := toSnapshot(item.Data)
		if snapshot.ID == "" && i < len(ids) {
			snapshot.ID = ids[i]
		}
		out = append(out, snapshot)
	}
	return out, nil
}

type moduleFilter struct {
	MoveModule moveModule `json:"MoveModule"`
}

type moveModule struct {
	Package string `json:"package"`
	Module  string `json:"module"`
}

// QueryEvents reads one page of a module's event log.
func (c *Client) QueryEvents(ctx context.Context, query model.EventQuery) (model.EventPage, error) {
	filter := moduleFilter{MoveModule: moveModule{Package: query.Package, Module: query.Module}}
	var page model.EventPage
	if err := c.rpcClient.CallContext(ctx, &page, "suix_queryEvents", filter, query.Cursor, query.Limit, query.Descending); err != nil {
		return model.EventPage{}, fmt.Errorf("query events: %w: %w", model.ErrFetchFailure, err)
	}
	return page, nil
}

type balanceResponse struct {
	TotalBalance json.RawMessage `json:"totalBalance"`
}

// GetBalance returns the owner's balance of the native coin in base units.
func (c *Client) GetBalance(ctx context.Context, owner string) (uint64, error) {
	var resp balanceResponse
	if err := c.rpcClient.CallContext(ctx, &resp, "suix_getBalance", owner); err != nil {
		return 0, fmt.Errorf("get balance %s: %w: %w", owner, model.ErrFetchFailure, err)
	}
	return decode.AsUint64(decode.DecodeJSON(resp.TotalBalance)), nil
}

func toSnapshot(data *objectData) model.ObjectSnapshot {
	if data == nil {
		return model.ObjectSnapshot{}
	}
	snapshot := model.ObjectSnapshot{ID: data.ObjectID, Type: data.Type, Version: data.Version}
	if len(bytes.TrimSpace(data.Content)) == 0 {
		return snapshot
	}
	var content objectContent
	if err := json.Unmarshal(data.Content, &content); err != nil || content.DataType != "moveObject" {
		return snapshot
	}
	if snapshot.Type == "" {
		snapshot.Type = content.Type
	}
	snapshot.Fields = decode.AsRecord(decode.DecodeJSON(content.Fields))
	return snapshot
}
