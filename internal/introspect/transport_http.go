package introspect

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"linkcore/internal/logging"
	"linkcore/internal/store"
)

// rpcRequest mirrors the JSON-RPC style envelope the teacher's MCP client
// transport speaks, reused here server-side for the introspection surface.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HTTPServer exposes the wire-level endpoints named in spec.md §6 over a
// single JSON-RPC-style HTTP POST endpoint, grounded on the teacher's MCP
// HTTPTransport request/response envelope (internal/mcp/transport_http.go)
// used here as a server shape instead of a client.
type HTTPServer struct {
	api *API
}

// NewHTTPServer constructs an HTTPServer bound to an introspection API.
func NewHTTPServer(api *API) *HTTPServer {
	return &HTTPServer{api: api}
}

// Handler returns the http.Handler implementing every logical endpoint
// from spec.md §6's wire-level API table.
func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", h.handleRPC)
	mux.HandleFunc("/health", h.handleHealth)
	return mux
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRPCError(w, 0, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := h.dispatch(ctx, req.Method, req.Params)
	if err != nil {
		writeRPCError(w, req.ID, http.StatusOK, err.Error())
		return
	}

	writeJSON(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// dispatch maps a logical endpoint name from spec.md §6 onto an API call.
func (h *HTTPServer) dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "graph.get":
		var p struct {
			MaxNodes int `json:"max_nodes"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return h.api.GetGraph(p.MaxNodes)

	case "graph.activate":
		var p struct {
			Query string `json:"query"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return h.api.Activate(p.Query)

	case "graph.strengthen":
		var p struct {
			A     string  `json:"a"`
			B     string  `json:"b"`
			Delta float64 `json:"delta"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		strength, err := h.api.Strengthen(p.A, p.B, p.Delta)
		return map[string]float64{"strength": strength}, err

	case "graph.reindex":
		count, err := h.api.Reindex()
		return map[string]int{"links": count}, err

	case "score.breakdown":
		var p struct {
			Query string      `json:"query"`
			Facts []store.Fact `json:"facts"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return h.api.Score(ctx, p.Query, p.Facts)

	case "facts.list":
		var p struct {
			Profile string `json:"profile"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return h.api.store.ListFactsByProfile(p.Profile)

	case "facts.upsert":
		var f store.Fact
		if err := unmarshalParams(params, &f); err != nil {
			return nil, err
		}
		return h.api.UpsertFact(f)

	case "facts.delete":
		var p struct {
			Profile string `json:"profile"`
			Key     string `json:"key"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		deleted, err := h.api.DeleteFact(p.Profile, p.Key)
		return map[string]bool{"deleted": deleted}, err

	case "events.stream":
		var p struct {
			Kind  string `json:"kind"`
			Limit int    `json:"limit"`
		}
		if err := unmarshalParams(params, &p); err != nil {
			return nil, err
		}
		return h.api.store.ListEvents(p.Kind, p.Limit)

	case "loops.status":
		return h.api.store.ListLoopDescriptors()

	case "triggers.status":
		return h.api.store.ListTriggerDescriptors()

	default:
		return nil, unknownMethodError(method)
	}
}

func unmarshalParams(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func unknownMethodError(method string) error {
	return &methodNotFoundError{Method: method}
}

type methodNotFoundError struct{ Method string }

func (e *methodNotFoundError) Error() string { return "unknown method: " + e.Method }

func writeRPCError(w http.ResponseWriter, id, httpStatus int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: -32000, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get(logging.CategoryIntrospect).Warn("failed to encode response: %v", err)
	}
}
