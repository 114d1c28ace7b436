package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abczzz13/realip"
	realipprom "github.com/abczzz13/realip/prometheus"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP service that echoes the resolved client address",
		Long: `serve starts an HTTP server with the following routes:

  GET /         the resolution of the calling request as JSON
  GET /healthz  liveness probe
  GET /metrics  Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := prometheus.NewRegistry()

			opts := append(a.settings.Options(),
				realip.WithLogger(resolverLogger{l: a.logger}),
				realipprom.WithRegisterer(registry),
			)
			resolver, err := realip.New(opts...)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.settings.Listen,
				Handler:           newHandler(resolver, registry, a.logger),
				ReadHeaderTimeout: 5 * time.Second,
			}

			return runServer(cmd.Context(), srv, a.logger)
		},
	}

	cmd.Flags().String("listen", ":8080", "Address the HTTP server listens on.")
	bindFlags(a.v, cmd.Flags(), map[string]string{keyListen: "listen"})

	return cmd
}

func runServer(ctx context.Context, srv *http.Server, logger *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting HTTP server.")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newHandler wires the router behind panic recovery, client address
// resolution and access logging, outermost first. The access log runs inside
// the resolver middleware so it can report the resolved address.
func newHandler(resolver *realip.Resolver, gatherer prometheus.Gatherer, logger *logrus.Logger) http.Handler {
	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path("/").HandlerFunc(echoResolution)
	router.Methods(http.MethodGet).Path("/healthz").HandlerFunc(healthz)
	router.Path("/metrics").Handler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	var h http.Handler = handlers.CustomLoggingHandler(io.Discard, router, accessLogFormatter(logger))
	h = resolver.Middleware(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger),
		handlers.PrintRecoveryStack(true),
	)(h)

	return h
}

func echoResolution(w http.ResponseWriter, r *http.Request) {
	res, _ := realip.FromContext(r.Context())

	status := http.StatusOK
	if !res.Valid() {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(viewOf(res))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

func accessLogFormatter(logger *logrus.Logger) handlers.LogFormatter {
	return func(_ io.Writer, params handlers.LogFormatterParams) {
		fields := logrus.Fields{
			"method":      params.Request.Method,
			"path":        params.URL.Path,
			"status":      params.StatusCode,
			"size":        params.Size,
			"remote_addr": params.Request.RemoteAddr,
		}
		if res, ok := realip.FromContext(params.Request.Context()); ok {
			fields["client_ip"] = res.Addr.String()
			fields["client_ip_source"] = res.Source
		}

		logger.WithContext(params.Request.Context()).WithFields(fields).Info("Handled HTTP request.")
	}
}
