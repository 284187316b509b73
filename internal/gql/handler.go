package gql

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hookline/internal/db"
	"hookline/internal/db/models"
	"hookline/internal/plugin"
)

// SessionFunc extracts the caller session from an inbound request. Returning
// nil runs the execution unrestricted; the hosting process decides how
// requests are authenticated.
type SessionFunc func(r *http.Request) models.ReadAccessSession

// Handler serves GraphQL documents over HTTP POST.
type Handler struct {
	schema  *Schema
	db      *db.Session
	plugins *plugin.Manager
	session SessionFunc
	logger  *slog.Logger
}

// NewHandler builds the transport handler around a schema and its process
// wide resources.
func NewHandler(schema *Schema, dbSession *db.Session, plugins *plugin.Manager, session SessionFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		schema:  schema,
		db:      dbSession,
		plugins: plugins,
		session: session,
		logger:  logger.With("component", "graphql"),
	}
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	rc := &RequestContext{
		DB:      h.db,
		Plugins: h.plugins,
	}
	if h.session != nil {
		rc.Session = h.session(r)
	}
	requestID := uuid.NewString()
	started := time.Now()
	result := h.schema.Execute(r.Context(), ExecuteParams{
		Query:         req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		Context:       rc,
	})
	h.logger.Info("executed query",
		"request_id", requestID,
		"operation", req.OperationName,
		"errors", len(result.Errors),
		"duration", time.Since(started),
	)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("writing response", "request_id", requestID, "error", err)
	}
}
