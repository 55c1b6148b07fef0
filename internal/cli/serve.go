package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/foamviz/signalviz/pkg/errors"
	"github.com/foamviz/signalviz/pkg/geometry"
	"github.com/foamviz/signalviz/pkg/pipeline"
)

const (
	// renderBacklog is how many requests may queue behind the one rendering.
	renderBacklog = 16
	// renderQueueTimeout bounds how long a queued request waits for its turn.
	renderQueueTimeout = 2 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered signal images over HTTP",
		Long: `Serve rendered images over HTTP.

Routes:
  GET /healthz                                  liveness probe
  GET /signals/{id}.png                         render an on-chain signal
  GET /render.png?lat=..&lon=..&radius=..       render arbitrary coordinates

Renders run one at a time; further requests queue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, cleanup, err := c.newRunner(ctx, true)
			defer cleanup()
			if err != nil {
				return err
			}
			return serve(ctx, addr, newRouter(runner, c.Logger), c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func serve(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// renderHandler serves PNG renders from a runner.
type renderHandler struct {
	runner *pipeline.Runner
	logger *log.Logger
}

func newRouter(runner *pipeline.Runner, logger *log.Logger) http.Handler {
	h := &renderHandler{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ThrottleBacklog(1, renderBacklog, renderQueueTimeout))
		r.Get("/signals/{id}.png", h.signal)
		r.Get("/render.png", h.place)
	})
	return r
}

func (h *renderHandler) signal(w http.ResponseWriter, r *http.Request) {
	id, err := errors.ValidateSignalID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.runner.RenderFromSignal(r.Context(), id, pipeline.Output{ReturnBytes: true})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePNG(w, res)
}

func (h *renderHandler) place(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := floatParam(q.Get("lat"), "lat")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lon, err := floatParam(q.Get("lon"), "lon")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	radius, err := floatParam(q.Get("radius"), "radius")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	coords := geometry.Coordinates{Lat: lat, Lon: lon}
	res, err := h.runner.RenderFromCoordinates(r.Context(), coords, radius, pipeline.Output{ReturnBytes: true})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePNG(w, res)
}

func floatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "missing query parameter %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "query parameter %q is not a number: %q", name, raw)
	}
	return v, nil
}

func writePNG(w http.ResponseWriter, res *pipeline.Result) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.Header().Set("X-Render-ID", res.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(res.PNG)
}

// errorResponse is the JSON body of every non-2xx answer.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (h *renderHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		h.logger.Error("render failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// statusFor maps error codes onto HTTP status codes.
func statusFor(err error) int {
	if stderrors.Is(err, context.Canceled) {
		return 499 // client closed request
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDomain, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSignalID, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs one line per request through the charm logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Millisecond),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
