package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"airflow/config"
	"airflow/model"
	"airflow/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	addr        string
	readTimeout time.Duration
	upgrader    websocket.Upgrader
	svc         *service.Service
}

func NewServer(cfg config.Server, svc *service.Service, upgrader websocket.Upgrader) *Server {
	return &Server{
		addr:        cfg.Addr,
		readTimeout: cfg.ReadTimeout,
		upgrader:    upgrader,
		svc:         svc,
	}
}

// Routes builds the HTTP API and the websocket endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/fans", s.handleFans)
		r.Get("/applications", s.handleApplications)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/{id}", s.handleRun)
	})
	r.Get("/ws", s.serveWs)
	return r
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: s.readTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", s.addr).Info("服务启动")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("服务关闭")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": ww.Status(),
			"reqId":  middleware.GetReqID(r.Context()),
			"cost":   time.Since(start),
		}).Debug("http 请求")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog().Fans())
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog().Applications())
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req model.LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Wrap(model.CodeInvalidConfiguration, err, "invalid JSON"))
		return
	}
	ev, err := s.svc.Evaluate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 200 {
		limit = 200
	}
	runs, err := s.svc.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	ev, err := s.svc.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// StatusOf maps an error code to its HTTP status.
func StatusOf(err error) int {
	switch model.CodeOf(err) {
	case model.CodeInvalidGeometry, model.CodeInvalidConfiguration:
		return http.StatusBadRequest
	case model.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    model.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("请求处理失败")
	}
	writeJSON(w, status, errorBody{Code: model.CodeOf(err), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
