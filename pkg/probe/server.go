package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"dealfeed/pkg/contextx"
	"dealfeed/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	httpServerReadHeaderTimeout = 5 * time.Second
	defaultCheckTimeout         = 2 * time.Second
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Check reports whether a dependency can serve traffic.
type Check func(ctx context.Context) error

type Options struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Checks are run by /ready; /healthz never touches dependencies.
	Checks       map[string]Check `json:"-"`
	CheckTimeout time.Duration    `json:"-"`
}

type state struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

type Server struct {
	listenAddress string
	options       Options
}

func NewServer(
	listenAddress string,
	options Options,
) Server {
	if options.CheckTimeout <= 0 {
		options.CheckTimeout = defaultCheckTimeout
	}

	return Server{
		listenAddress: listenAddress,
		options:       options,
	}
}

func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handlerHealthz)
	mux.HandleFunc("/ready", s.handlerReady)

	return mux
}

func (s Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		//nolint:exhaustruct
		Addr:              s.listenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: httpServerReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		if err := httpServer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger(ctx).Error("httpServer.Shutdown", logx.Error(err))
		}
	}()

	logger(ctx).Info("probe server started", slog.String("address", s.listenAddress))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer.ListenAndServe: %w", err)
	}

	logger(ctx).Info("probe server stopped")

	return nil
}

func (s Server) handlerHealthz(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, nil)
}

func (s Server) handlerReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.options.CheckTimeout)
	defer cancel()

	names := lo.Keys(s.options.Checks)
	slices.Sort(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))

	for _, name := range names {
		if err := s.options.Checks[name](ctx); err != nil {
			logger(ctx).Warn("readiness check failed", slog.String("check", name), logx.Error(err))

			results[name] = err.Error()
			status = http.StatusServiceUnavailable

			continue
		}

		results[name] = "ok"
	}

	s.write(w, status, results)
}

func (s Server) write(w http.ResponseWriter, status int, checks map[string]string) {
	body, _ := json.Marshal(state{ //nolint:errcheck,errchkjson
		Name:    s.options.Name,
		Version: s.options.Version,
		Checks:  checks,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck
}
