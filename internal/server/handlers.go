package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/layerweave/pkg/buildinfo"
	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/observability"
	"github.com/matzehuels/layerweave/pkg/tree"
)

// =============================================================================
// Wire types
// =============================================================================

type treeResponse struct {
	GraphHash string         `json:"graph_hash"`
	Cached    bool           `json:"cached"`
	Trees     []*tree.Result `json:"trees"`
}

type bundleRequest struct {
	Graph   *graph.Document `json:"graph"`
	Options bundle.Options  `json:"options"`
	Edges   string          `json:"edges,omitempty"`
	Refresh bool            `json:"refresh,omitempty"`
}

type bundleResponse struct {
	GraphHash string          `json:"graph_hash"`
	Cached    bool            `json:"cached"`
	Stats     bundle.Stats    `json:"stats"`
	Paths     []graph.PathDoc `json:"paths"`
}

type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Get()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": info.Version,
		"commit":  info.Commit,
	})
}

// handleTree handles POST /v1/tree. The body is a graph document; the query
// selects the algorithm, layer and root.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	opts := s.defaults
	opts.SkipTree, opts.SkipBundle = false, true

	q := r.URL.Query()
	if v := q.Get("algorithm"); v != "" {
		opts.Algorithm = v
	}
	if v := q.Get("layer"); v != "" {
		layer, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidLayer, "layer must be an integer, got %q", v))
			return
		}
		opts.Layer = layer
	}
	if v := q.Get("root"); v != "" {
		opts.Root = v
		opts.RootStrategy = string(tree.Explicit)
	}
	if v := q.Get("root_strategy"); v != "" {
		opts.RootStrategy = v
	}
	opts.Refresh = q.Get("refresh") == "true"

	doc, err := graph.ReadDocument(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, bodyError(err))
		return
	}
	m, err := graph.Build(doc.Input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	result, err := s.runner.ExecuteModel(ctx, m, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, treeResponse{
		GraphHash: result.GraphHash,
		Cached:    result.CacheInfo.TreeHit,
		Trees:     result.Trees,
	})
}

// handleBundle handles POST /v1/bundle. Options in the body override the server
// defaults field by field. Workers stay under server control, max_edges can
// only tighten the server's limit and max_loops may not exceed it.
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	req := bundleRequest{Options: s.defaults.Bundle, Edges: s.defaults.Edges}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, bodyError(errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode bundle request")))
		return
	}
	if req.Graph == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "graph is required"))
		return
	}

	opts := s.defaults
	opts.SkipTree, opts.SkipBundle = true, false
	opts.Bundle = req.Options
	opts.Bundle.Workers = s.defaults.Bundle.Workers
	opts.Bundle.Logger = s.defaults.Bundle.Logger
	if opts.Bundle.MaxLoops > s.maxLoops {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidOptions,
			"max_loops %d exceeds the server limit of %d", opts.Bundle.MaxLoops, s.maxLoops))
		return
	}
	if opts.Bundle.MaxEdges == 0 || opts.Bundle.MaxEdges > s.maxEdges {
		opts.Bundle.MaxEdges = s.maxEdges
	}
	opts.Edges = req.Edges
	opts.Refresh = req.Refresh

	m, err := graph.Build(req.Graph.Input())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	result, err := s.runner.ExecuteModel(ctx, m, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundleResponse{
		GraphHash: result.GraphHash,
		Cached:    result.CacheInfo.BundleHit,
		Stats:     result.Bundle,
		Paths:     result.Paths,
	})
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusMethodNotAllowed
	}
	if strings.HasPrefix(string(code), "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = s.contextError(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := StatusFor(code)
	route := routePattern(r)
	observability.HTTP().OnError(r.Context(), r.Method, route, string(code))

	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "route", route, "err", err, "request_id", RequestID(r.Context()))
		if code == errors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   msg,
		RequestID: RequestID(r.Context()),
	})
}

// contextError reports an expired or cancelled request as TIMEOUT.
func (s *Server) contextError(err error) error {
	switch {
	case errors.GetCode(err) != "":
		return err
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, "request exceeded the %s limit", s.timeout)
	case stderrors.Is(err, context.Canceled):
		return errors.Wrap(errors.ErrCodeTimeout, err, "request cancelled")
	}
	return err
}

// bodyError reports an oversized body as TOO_LARGE.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.New(errors.ErrCodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
	}
	if stderrors.Is(err, io.EOF) {
		return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	return err
}

func errNotFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

func errMethodNotAllowed(method string) error {
	return errors.New(errors.ErrCodeUnsupported, "method %s not allowed", method)
}
