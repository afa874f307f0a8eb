package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/graph-gophers/graphql-go"

	"todo-project/microservices/tasks-service/logging"
)

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler executes GraphQL requests against a parsed schema.
type GraphQLHandler struct {
	schema  *graphql.Schema
	timeout time.Duration
}

// NewGraphQLHandler serves schema over HTTP. A zero timeout leaves requests
// bounded only by the client's context.
func NewGraphQLHandler(schema *graphql.Schema, timeout time.Duration) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, timeout: timeout}
}

// Query serves /graphql. Queries are accepted over GET and POST; mutations
// only over POST. Resolver errors are reported in the body with status 200.
func (h *GraphQLHandler) Query(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGraphQLRequest(r)
	if err != nil {
		logging.Logger.Warnf("Event ID: INVALID_GRAPHQL_REQUEST, Description: %v", err)
		http.Error(w, "Invalid GraphQL request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Invalid GraphQL request: query is required", http.StatusBadRequest)
		return
	}
	if r.Method == http.MethodGet && operationKind(req.Query, req.OperationName) == "mutation" {
		logging.Logger.Warnf("Event ID: MUTATION_OVER_GET, Description: Rejected mutation %q sent with GET", req.OperationName)
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Mutations must be sent with POST", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	for _, qe := range resp.Errors {
		logging.Logger.Debugf("Event ID: GRAPHQL_ERROR, Description: operation %q failed at %v: %s", req.OperationName, qe.Path, qe.Message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_WRITE_FAILED, Description: Failed to write GraphQL response: %v", err)
	}
}

func decodeGraphQLRequest(r *http.Request) (graphQLRequest, error) {
	var req graphQLRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return req, err
			}
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
	}
	return req, nil
}

// Health reports that the service is up.
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Tasks service is running"))
}
