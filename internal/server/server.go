// Package server exposes workspace trees over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /api/projects
//	GET /api/projects/{name}/tree      ?direct=1
//	GET /api/projects/{name}/levels    ?direct=1
//	GET /api/projects/{name}/layout    ?mode=all
//	GET /api/projects/{name}/graph.{format}  dot, dgml, svg, png, pdf
//
// Project names containing slashes must be path-escaped (%2F). The name "_"
// selects the workspace's startup project and "*" levels the whole
// workspace.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/reftree/reftree/pkg/buildinfo"
	"github.com/reftree/reftree/pkg/errors"
	treeio "github.com/reftree/reftree/pkg/io"
	"github.com/reftree/reftree/pkg/layout"
	"github.com/reftree/reftree/pkg/observability"
	"github.com/reftree/reftree/pkg/pipeline"
)

// Special project names in routes.
const (
	StartupName   = "_"
	WorkspaceName = "*"
)

// Options configures a Server.
type Options struct {
	Build  pipeline.BuildOptions // limits applied to every build
	Engine string                // image engine for svg, png and pdf
	Logger *log.Logger
}

// Server serves one workspace through a pipeline.Runner.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
}

// New creates a server.
func New(runner *pipeline.Runner, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = runner.Logger
	}
	if opts.Engine == "" {
		opts.Engine = pipeline.EngineBuiltin
	}
	return &Server{runner: runner, opts: opts, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.health)
	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", s.projects)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/tree", s.tree)
			r.Get("/levels", s.levels)
			r.Get("/layout", s.layout)
			r.Get("/graph.{format}", s.graph)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr, "workspace", s.runner.Workspace.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.Request().OnRequest(r.Context(), r.Method, route, status, time.Since(start))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type projectInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Startup bool   `json:"startup,omitempty"`
}

func (s *Server) projects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.runner.Projects(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	startup, _ := s.runner.Workspace.Startup(r.Context())

	out := make([]projectInfo, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectInfo{
			ID:      p.ID,
			Name:    p.Label(),
			Path:    p.Path,
			Kind:    p.Kind,
			Startup: p.ID == startup.ID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) build(r *http.Request) (*pipeline.Result, error) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProject, err, "bad project name")
	}

	opts := s.opts.Build
	switch name {
	case StartupName:
	case WorkspaceName:
		opts.All = true
	default:
		opts.Project = name
	}
	if v := r.URL.Query().Get("direct"); v != "" {
		direct, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "direct")
		}
		opts.Direct = direct
	}
	return s.runner.Build(r.Context(), opts)
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	res, err := s.build(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, treeio.FromTree(res.Tree, s.runner.Workspace.Name()))
}

type levelNode struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

func (s *Server) levels(w http.ResponseWriter, r *http.Request) {
	res, err := s.build(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	levels := res.Tree.Levels()
	out := make([][]levelNode, len(levels))
	for d, level := range levels {
		out[d] = make([]levelNode, 0, len(level))
		for _, n := range level {
			out[d] = append(out[d], levelNode{ID: n.Project.ID, Label: n.Label(), Inbound: n.Inbound, Outbound: n.Outbound})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	mode, err := layout.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.build(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := layout.Compute(res.Tree, layout.Options{Mode: mode})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	switch format {
	case pipeline.FormatDOT, pipeline.FormatDGML, pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF:
	default:
		s.fail(w, r, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q", format))
		return
	}

	res, err := s.build(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	artifacts, err := s.runner.Export(r.Context(), res.Tree, pipeline.ExportOptions{
		Formats:  []string{format},
		Mode:     q.Get("mode"),
		Engine:   s.opts.Engine,
		Detailed: q.Get("detailed") == "1" || q.Get("detailed") == "true",
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrCodeUnresolvedProject), errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeInvalidInput), errors.Is(err, errors.ErrCodeInvalidProject),
		errors.Is(err, errors.ErrCodeInvalidFormat), errors.Is(err, errors.ErrCodeInvalidMode):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCodeToolNotFound):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
