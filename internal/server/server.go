// Package server exposes the compile pipeline over HTTP. Every request
// carries its own source text; nothing is stored between requests.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"strand/loom/internal/config"
	"strand/loom/internal/ir"
	"strand/loom/internal/linker"
	"strand/loom/internal/lint"
	"strand/loom/internal/parser"
	"strand/loom/internal/query"
	"strand/loom/internal/validate"
	"strand/loom/internal/viz"
)

// Server is the HTTP front end.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New builds a server from loaded configuration.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Router assembles the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Serve.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/compile", s.handleCompile)
		r.Post("/lint", s.handleLint)
		r.Post("/graph", s.handleGraph)
		r.Post("/query/{op}", s.handleQuery)
	})
	return r
}

// ListenAndServe blocks serving on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Serve.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("listening", zap.String("addr", s.cfg.Serve.Addr))
	return srv.ListenAndServe()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// compileRequest is the common body for every compiling endpoint. Query
// arguments outside this core are ignored by the non-query handlers.
type compileRequest struct {
	Source   string `json:"source"`
	Filename string `json:"filename"`

	Node                    string   `json:"node,omitempty"`
	To                      string   `json:"to,omitempty"`
	MaxDepth                int      `json:"max_depth,omitempty"`
	IncludeCorrelations     bool     `json:"include_correlations,omitempty"`
	ExcludeTemporal         bool     `json:"exclude_temporal,omitempty"`
	Format                  string   `json:"format,omitempty"`
	GroupBy                 string   `json:"group_by,omitempty"`
	FilterByAxis            []string `json:"filter_by_axis,omitempty"`
	IncludeContext          bool     `json:"include_context,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
	Since                   string   `json:"since,omitempty"`
	IncludeTransitiveCauses bool     `json:"include_transitive_causes,omitempty"`
	IncludeTransitiveEffect bool     `json:"include_transitive_effect,omitempty"`
	IncludeRationale        bool     `json:"include_rationale,omitempty"`
	IncludeConsequences     bool     `json:"include_consequences,omitempty"`
	ShowRejectedReasons     bool     `json:"show_rejected_reasons,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": ir.Version})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	_, doc, ok := s.compileBody(w, r)
	if !ok {
		return
	}
	rep := lint.Run(doc, s.cfg.LintRules(), s.logger)
	lint.Advertise(doc, rep)
	writeJSON(w, http.StatusOK, map[string]any{"document": doc, "lint": rep})
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	_, doc, ok := s.compileBody(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lint.Run(doc, s.cfg.LintRules(), s.logger))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	_, doc, ok := s.compileBody(w, r)
	if !ok {
		return
	}
	g, err := viz.Project(doc)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, doc, ok := s.compileBody(w, r)
	if !ok {
		return
	}
	eng := query.Load(doc)

	op := chi.URLParam(r, "op")
	res, err := s.runQuery(eng, op, req)
	if err != nil {
		writeJSON(w, queryErrorStatus(err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) runQuery(eng *query.Engine, op string, req *compileRequest) (any, error) {
	maxDepth := req.MaxDepth
	if maxDepth == 0 {
		maxDepth = s.cfg.Query.MaxDepth
	}

	resolve := func(ref string) (string, error) {
		n, err := eng.Resolve(ref)
		if err != nil {
			return "", err
		}
		return n.ID, nil
	}

	switch op {
	case "why":
		id, err := resolve(req.Node)
		if err != nil {
			return nil, err
		}
		return eng.Why(id, query.WhyOptions{
			MaxDepth:            maxDepth,
			IncludeCorrelations: req.IncludeCorrelations,
			Format:              req.Format,
		})
	case "whatif":
		id, err := resolve(req.Node)
		if err != nil {
			return nil, err
		}
		return eng.WhatIf(id, query.WhatIfOptions{
			MaxDepth:            maxDepth,
			IncludeCorrelations: req.IncludeCorrelations,
			ExcludeTemporal:     req.ExcludeTemporal,
			Format:              req.Format,
		})
	case "tensions":
		opts := query.TensionsOptions{
			GroupBy:        req.GroupBy,
			FilterByAxis:   req.FilterByAxis,
			IncludeContext: req.IncludeContext,
		}
		if req.Scope != "" {
			id, err := resolve(req.Scope)
			if err != nil {
				return nil, err
			}
			opts.Scope = id
		}
		return eng.Tensions(opts)
	case "blocked":
		return eng.Blocked(query.BlockedOptions{
			Since:                   req.Since,
			IncludeTransitiveCauses: req.IncludeTransitiveCauses,
			IncludeTransitiveEffect: req.IncludeTransitiveEffect,
			Format:                  req.Format,
		})
	case "alternatives":
		id, err := resolve(req.Node)
		if err != nil {
			return nil, err
		}
		return eng.Alternatives(id, query.AlternativesOptions{
			Format:              req.Format,
			IncludeRationale:    req.IncludeRationale,
			IncludeConsequences: req.IncludeConsequences,
			ShowRejectedReasons: req.ShowRejectedReasons,
		})
	default:
		return nil, fmt.Errorf("unknown query operation %q", op)
	}
}

// compileBody decodes the request, compiles the source, and validates the
// result. Writes the error response itself when ok is false.
func (s *Server) compileBody(w http.ResponseWriter, r *http.Request) (*compileRequest, *ir.Document, bool) {
	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return nil, nil, false
	}
	if req.Filename == "" {
		req.Filename = "request.strand"
	}

	doc, err := parser.Parse(req.Source, req.Filename)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return nil, nil, false
	}
	linker.Link(doc)

	if rep := validate.Document(doc); !rep.Valid {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: fmt.Sprintf("compiled document failed validation: %v", rep.Errors),
		})
		return nil, nil, false
	}
	return &req, doc, true
}

func queryErrorStatus(err error) int {
	var nf *query.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	var amb *query.AmbiguousError
	var wt *query.WrongTypeError
	if errors.As(err, &amb) || errors.As(err, &wt) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
