package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"predictionScope/internal/model"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newRPCServer(t *testing.T, handle func(req rpcRequest) (any, int)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		result, status := handle(req)
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestGetObjectReadsFields(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) (any, int) {
		if req.Method != "sui_getObject" {
			t.Errorf("unexpected method %s", req.Method)
		}
		return map[string]any{
			"data": map[string]any{
				"objectId": "0xabc",
				"version":  "7",
				"content": map[string]any{
					"dataType": "moveObject",
					"type":     "0x1::market::Market",
					"fields": map[string]any{
						"admin":           "0xAD",
						"principal_vault": map[string]any{"value": "18446744073709551615"},
					},
				},
			},
		}, 0
	})

	snapshot, err := dial(t, srv.URL).GetObject(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	if !snapshot.Exists() {
		t.Fatalf("expected fields")
	}
	if snapshot.Type != "0x1::market::Market" {
		t.Fatalf("unexpected type %q", snapshot.Type)
	}
	vault, ok := snapshot.Fields["principal_vault"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested balance record")
	}
	if got := vault["value"]; got != "18446744073709551615" {
		t.Fatalf("unexpected vault value %v", got)
	}
}

func TestGetObjectMissingHasNoFields(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) (any, int) {
		return map[string]any{"error": map[string]any{"code": "notExists"}}, 0
	})

	snapshot, err := dial(t, srv.URL).GetObject(context.Background(), "0xdead")
	if err != nil {
		t.Fatalf("get object: %v", err)
	}
	if snapshot.Exists() {
		t.Fatalf("expected no fields, got %v", snapshot.Fields)
	}
	if snapshot.ID != "0xdead" {
		t.Fatalf("expected requested id, got %q", snapshot.ID)
	}
}

func TestQueryEventsSendsModuleFilter(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) (any, int) {
		if req.Method != "suix_queryEvents" {
			t.Errorf("unexpected method %s", req.Method)
		}
		if len(req.Params) != 4 {
			t.Errorf("expected 4 params, got %d", len(req.Params))
			return nil, http.StatusBadRequest
		}
		var filter moduleFilter
		if err := json.Unmarshal(req.Params[0], &filter); err != nil {
			t.Errorf("decode filter: %v", err)
		}
		if filter.MoveModule.Package != "0xpkg" || filter.MoveModule.Module != "market" {
			t.Errorf("unexpected filter %+v", filter)
		}
		if string(req.Params[1]) != "null" {
			t.Errorf("expected null cursor, got %s", req.Params[1])
		}
		return map[string]any{
			"data": []any{map[string]any{
				"id":          map[string]any{"txDigest": "D1", "eventSeq": "0"},
				"sender":      "0xs",
				"type":        "0xpkg::market::BetPlaced",
				"parsedJson":  map[string]any{"round_id": "1"},
				"timestampMs": "1700",
			}},
			"nextCursor":  map[string]any{"txDigest": "D1", "eventSeq": "0"},
			"hasNextPage": true,
		}, 0
	})

	page, err := dial(t, srv.URL).QueryEvents(context.Background(), model.EventQuery{
		Package: "0xpkg",
		Module:  "market",
		Limit:   100,
	})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID.TxDigest != "D1" {
		t.Fatalf("unexpected page %+v", page)
	}
	if !page.HasNextPage || page.NextCursor == nil || page.NextCursor.Key() != "D1:0" {
		t.Fatalf("unexpected cursor %+v", page.NextCursor)
	}
}

func TestGetBalanceParsesString(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) (any, int) {
		return map[string]any{"coinType": "0x2::sui::SUI", "totalBalance": "1500000000"}, 0
	})

	balance, err := dial(t, srv.URL).GetBalance(context.Background(), "0xowner")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance != 1_500_000_000 {
		t.Fatalf("unexpected balance %d", balance)
	}
}

func TestTransportErrorIsFetchFailure(t *testing.T) {
	srv := newRPCServer(t, func(req rpcRequest) (any, int) {
		return nil, http.StatusBadGateway
	})

	_, err := dial(t, srv.URL).GetBalance(context.Background(), "0xowner")
	if !errors.Is(err, model.ErrFetchFailure) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}
