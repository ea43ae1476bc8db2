// Package server is the HTTP + WebSocket API surface for a11yscan.
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/a11yscan/internal/history"
	"github.com/raysh454/a11yscan/internal/jobs"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/scanner"
	_ "github.com/raysh454/a11yscan/internal/server/docs" // swagger spec
	"github.com/raysh454/a11yscan/internal/target"
)

// Scanner runs one synchronous scan. Errors are *scanner.Error.
type Scanner interface {
	Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error)
}

// Deps are the components the handlers drive. Jobs and History may be nil,
// in which case their routes answer 503.
type Deps struct {
	Scanner Scanner
	Jobs    *jobs.Orchestrator
	History *history.Store
}

// Server is the HTTP + WebSocket API surface for a11yscan.
type Server struct {
	cfg      Config
	deps     Deps
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer builds the router around deps.
func NewServer(cfg Config, deps Deps, logger logging.Logger) *Server {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         86400,
	}))

	r.Get("/health", s.handleHealth)

	// Scans
	r.Post("/scan", s.handleScan)

	// Jobs over REST
	r.Post("/jobs", s.handleStartJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSockets for job progress
	r.Get("/ws/jobs/{jobID}", s.handleJobWS)
	r.Get("/ws/scan", s.handleScanWS)

	// History
	r.Get("/scans", s.handleListScans)
	r.Get("/scans/{scanID}", s.handleGetScan)
	r.Get("/scans/{scanID}/diff", s.handleDiffScan)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		} else {
			r.Body = io.NopCloser(bytes.NewReader(nil))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, ErrorResponse{Error: msg})
}

// writeScanError renders a scan failure. Rate-limited responses carry
// only the message and a Retry-After header.
func (s *Server) writeScanError(w http.ResponseWriter, r *http.Request, err error) {
	var se *scanner.Error
	if !errors.As(err, &se) {
		se = scanner.Wrap(scanner.KindScanFailed, err)
	}
	msg := se.Msg
	if msg == "" {
		msg = scanner.Wrap(se.Kind, nil).Msg
	}

	resp := ErrorResponse{Error: msg}
	switch se.Kind {
	case scanner.KindRateLimited:
		w.Header().Set("Retry-After", retryAfterSeconds(se.RetryAfter))
	case scanner.KindScanFailed:
		resp.Code = string(se.Kind)
		resp.Debug = se.Debug()
	default:
		resp.Code = string(se.Kind)
	}
	writeJSON(w, r, statusFor(se.Kind), resp)
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind scanner.Kind) int {
	switch kind {
	case scanner.KindInvalidURL, scanner.KindNavigationFailed:
		return http.StatusBadRequest
	case scanner.KindRateLimited:
		return http.StatusTooManyRequests
	case scanner.KindNotConfigured, scanner.KindConnectionFailed:
		return http.StatusServiceUnavailable
	case scanner.KindScanFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// retryAfterSeconds rounds d up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIdentity is the caller's address as rewritten by middleware.RealIP.
func clientIdentity(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}

// decodeScanBody never fails: a malformed body yields an empty URL, which
// the scanner rejects after admission control.
func (s *Server) decodeScanBody(r *http.Request) ScanRequestBody {
	var body ScanRequestBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		s.logger.Warn("decoding scan body", logging.Field{Key: "error", Value: err.Error()})
		return ScanRequestBody{}
	}
	return body
}

func (s *Server) scanRequest(r *http.Request, url string) model.ScanRequest {
	return model.ScanRequest{TargetURL: url, ClientIdentity: clientIdentity(r)}
}

// --- HTTP handlers ---

// handleHealth godoc
// @Summary Liveness and wiring report
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		History: s.deps.History != nil,
		Jobs:    s.deps.Jobs != nil,
	})
}

// handleScan godoc
// @Summary Scan one page
// @Description Loads the page in a remote browser, runs the accessibility rules and scores the result.
// @Tags scans
// @Accept json
// @Produce json
// @Param body body ScanRequestBody true "Page to scan"
// @Success 200 {object} model.ScanResult
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /scan [post]
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	body := s.decodeScanBody(r)

	res, err := s.deps.Scanner.Scan(r.Context(), s.scanRequest(r, body.URL))
	if err != nil {
		s.writeScanError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Jobs (REST)

func (s *Server) jobsDisabled(w http.ResponseWriter, r *http.Request) bool {
	if s.deps.Jobs != nil {
		return false
	}
	writeError(w, r, http.StatusServiceUnavailable, "scan jobs are disabled")
	return true
}

// handleStartJob godoc
// @Summary Start a background scan
// @Tags jobs
// @Accept json
// @Produce json
// @Param body body ScanRequestBody true "Page to scan"
// @Success 202 {object} jobs.Job
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /jobs [post]
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	if s.jobsDisabled(w, r) {
		return
	}
	body := s.decodeScanBody(r)

	job, err := s.deps.Jobs.StartScanJob(r.Context(), s.scanRequest(r, body.URL))
	if err != nil {
		s.logger.Warn("starting scan job", logging.Field{Key: "error", Value: err.Error()})
		s.writeScanError(w, r, err)
		return
	}
	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "url", Value: job.URL})
	writeJSON(w, r, http.StatusAccepted, job)
}

// handleListJobs godoc
// @Summary List scan jobs, newest first
// @Tags jobs
// @Produce json
// @Success 200 {array} jobs.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobsDisabled(w, r) {
		return
	}
	list := s.deps.Jobs.ListJobs()
	s.logger.Info("listed jobs", logging.Field{Key: "count", Value: len(list)})
	writeJSON(w, r, http.StatusOK, list)
}

// handleGetJob godoc
// @Summary Get one scan job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job id"
// @Success 200 {object} jobs.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.jobsDisabled(w, r) {
		return
	}
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Jobs.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, r, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, r, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a scan job
// @Tags jobs
// @Param jobID path string true "Job id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if s.jobsDisabled(w, r) {
		return
	}
	jobID := chi.URLParam(r, "jobID")
	if err := s.deps.Jobs.CancelJob(jobID); err != nil {
		writeError(w, r, http.StatusNotFound, "job not found")
		return
	}
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, r, http.StatusNoContent, nil)
}

// WebSockets

// handleJobWS streams the events of an existing job. Disconnecting only
// stops the stream; the job keeps running.
func (s *Server) handleJobWS(w http.ResponseWriter, r *http.Request) {
	if s.jobsDisabled(w, r) {
		return
	}
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Jobs.GetJob(jobID)
	if job == nil {
		writeError(w, r, http.StatusNotFound, "job not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	_ = conn.WriteJSON(job)
	s.stream(conn, job, false)
}

// handleScanWS starts a job for ?url= and streams it. Disconnecting
// cancels the job.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	if s.jobsDisabled(w, r) {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.deps.Jobs.StartScanJob(r.Context(), s.scanRequest(r, r.URL.Query().Get("url")))
	if err != nil {
		s.logger.Warn("starting scan job", logging.Field{Key: "error", Value: err.Error()})
		var se *scanner.Error
		if errors.As(err, &se) {
			_ = conn.WriteJSON(ErrorResponse{Error: se.Msg, Code: string(se.Kind)})
		} else {
			_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		}
		return
	}

	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)
	s.stream(conn, job, true)
}

func (s *Server) stream(conn *websocket.Conn, job *jobs.Job, cancelOnDisconnect bool) {
	events, unsubscribe, err := s.deps.Jobs.Subscribe(job.ID)
	if err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}
	defer unsubscribe()

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			if cancelOnDisconnect {
				_ = s.deps.Jobs.CancelJob(job.ID)
			}
			return
		}
	}
}

// History

func (s *Server) historyDisabled(w http.ResponseWriter, r *http.Request) bool {
	if s.deps.History != nil {
		return false
	}
	writeError(w, r, http.StatusServiceUnavailable, "scan history is disabled")
	return true
}

// handleListScans godoc
// @Summary List stored scans, newest first
// @Tags history
// @Produce json
// @Param url query string false "Exact page URL"
// @Param host query string false "Host name"
// @Param since query string false "RFC 3339 lower bound"
// @Param limit query int false "Maximum results (default 20, max 200)"
// @Success 200 {array} model.ScanResult
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /scans [get]
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.historyDisabled(w, r) {
		return
	}
	q := r.URL.Query()

	var f history.Query
	if raw := q.Get("url"); raw != "" {
		url, err := target.Normalize(raw)
		if err != nil {
			writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: scanner.MsgInvalidURL, Code: string(scanner.KindInvalidURL)})
			return
		}
		f.URL = url
	}
	f.Host = strings.ToLower(strings.TrimSpace(q.Get("host")))
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		f.Since = since
	}
	if ls := q.Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			f.Limit = v
		}
	}

	list, err := s.deps.History.List(r.Context(), f)
	if err != nil {
		s.logger.Warn("listing scans", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, r, http.StatusInternalServerError, "could not list scans")
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// handleGetScan godoc
// @Summary Get a stored scan
// @Tags history
// @Produce json
// @Param scanID path string true "Scan id"
// @Success 200 {object} model.ScanResult
// @Failure 404 {object} ErrorResponse
// @Router /scans/{scanID} [get]
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	if s.historyDisabled(w, r) {
		return
	}
	res, ok := s.loadScan(w, r, chi.URLParam(r, "scanID"))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleDiffScan godoc
// @Summary Compare a stored scan with an earlier one
// @Description Without ?base= the newest earlier scan of the same URL is used.
// @Tags history
// @Produce json
// @Param scanID path string true "Scan id"
// @Param base query string false "Base scan id"
// @Success 200 {object} history.Comparison
// @Failure 404 {object} ErrorResponse
// @Router /scans/{scanID}/diff [get]
func (s *Server) handleDiffScan(w http.ResponseWriter, r *http.Request) {
	if s.historyDisabled(w, r) {
		return
	}
	head, ok := s.loadScan(w, r, chi.URLParam(r, "scanID"))
	if !ok {
		return
	}

	var base *model.ScanResult
	if baseID := r.URL.Query().Get("base"); baseID != "" {
		if base, ok = s.loadScan(w, r, baseID); !ok {
			return
		}
	} else {
		prev, err := s.deps.History.Previous(r.Context(), head)
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no earlier scan of this URL")
			return
		}
		if err != nil {
			s.logger.Warn("finding previous scan", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, r, http.StatusInternalServerError, "could not load scan")
			return
		}
		base = prev
	}

	writeJSON(w, r, http.StatusOK, history.Compare(base, head))
}

func (s *Server) loadScan(w http.ResponseWriter, r *http.Request, id string) (*model.ScanResult, bool) {
	res, err := s.deps.History.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "scan not found")
		return nil, false
	}
	if err != nil {
		s.logger.Warn("loading scan", logging.Field{Key: "scan_id", Value: id}, logging.Field{Key: "error", Value: err.Error()})
		writeError(w, r, http.StatusInternalServerError, "could not load scan")
		return nil, false
	}
	return res, true
}
