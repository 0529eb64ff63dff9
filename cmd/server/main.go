package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmehra2102/PostDeck/internal/app"
	"github.com/dmehra2102/PostDeck/internal/infrastructure/config"
	"github.com/dmehra2102/PostDeck/internal/infrastructure/httpapi"
	"github.com/dmehra2102/PostDeck/internal/interceptors"
	cacheres "github.com/dmehra2102/PostDeck/internal/resource"
	"github.com/dmehra2102/PostDeck/internal/server"
	"github.com/dmehra2102/PostDeck/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

const (
	serviceName    = "postdeck"
	serviceVersion = "1.0.0"
)

var (
	fetchKeys  []string
	fetchPage  int
	fetchLimit int

	rootCmd = &cobra.Command{
		Use:           "postdeck",
		Short:         "Derived views and a request cache over a REST demo API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve views, cached reads and mutations over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	viewCmd = &cobra.Command{
		Use:   "view NAME [param=value...]",
		Short: "Load resources and print a view once",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runView,
	}

	fetchCmd = &cobra.Command{
		Use:   "fetch KEY",
		Short: `Print the payload of a read such as "GET /posts?_page=1"`,
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}
)

func init() {
	viewCmd.Flags().StringArrayVar(&fetchKeys, "fetch", []string{"GET /posts", "GET /todos", "GET /users"},
		"request keys loaded before the view is read")
	fetchCmd.Flags().IntVar(&fetchPage, "page", 0, "remote page number (_page)")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "remote page size (_limit)")
	rootCmd.AddCommand(serveCmd, viewCmd, fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting postdeck",
		zap.String("version", serviceVersion),
		zap.String("environment", cfg.Environment),
	)

	obs := cfg.GetObservabilityConfig()
	if obs.EnableTracing {
		shutdown, err := initTracer(obs.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
	}

	core, err := buildCore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize core", zap.Error(err))
	}
	defer core.Close()

	srvCfg := cfg.GetServerConfig()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.NewHandlers(core, logger), server.Options{
		RequestTimeout: srvCfg.RequestTimeout,
		EnableMetrics:  obs.EnableMetrics,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", srvCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer *grpc.Server
	if srvCfg.HealthPort > 0 {
		grpcServer = initHealthServer(cfg)
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", srvCfg.HealthPort))
		if err != nil {
			logger.Fatal("Failed to listen", zap.Error(err))
		}
		go func() {
			logger.Info("Health server starting", zap.Int("port", srvCfg.HealthPort))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("Health server stopped", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", zap.Int("port", srvCfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Shutdown timeout exceeded, forcing stop", zap.Error(err))
		return httpServer.Close()
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func runView(cmd *cobra.Command, args []string) error {
	core, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer core.Close()

	params := make(map[string]string)
	for _, arg := range args[1:] {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("view parameter %q must be key=value", arg)
		}
		params[k] = v
	}

	for _, key := range fetchKeys {
		if _, err := core.Request(cmd.Context(), key); err != nil {
			return fmt.Errorf("fetch %s: %w", key, err)
		}
	}

	value, rev, err := core.View(args[0], params)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{"view": args[0], "revision": rev, "value": value})
}

func runFetch(cmd *cobra.Command, args []string) error {
	core, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer core.Close()

	key := args[0]
	if q := httpapi.PageQuery(fetchPage, fetchLimit); len(q) > 0 {
		sep := "?"
		if strings.Contains(key, "?") {
			sep = "&"
		}
		key += sep + q.Encode()
	}

	payload, err := core.Request(cmd.Context(), key)
	if err != nil {
		return err
	}
	return printJSON(cmd, payload)
}

func setup() (*app.Core, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := initLogger(cfg)
	core, err := buildCore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return core, logger, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func buildCore(cfg *config.Config, logger *zap.Logger) (*app.Core, error) {
	api, err := httpapi.NewClient(cfg.GetAPIConfig(), http.DefaultTransport,
		interceptors.RecoveryInterceptor(logger),
		interceptors.LoggingInterceptor(logger),
		interceptors.MetricsInterceptor(),
		interceptors.AuthInterceptor(time.Now),
	)
	if err != nil {
		return nil, err
	}

	cacheCfg := cfg.GetCacheConfig()
	cache := cacheres.NewCache(
		cacheres.WithMaxAge(cacheCfg.MaxAge),
		cacheres.WithMaxAttempts(uint(cacheCfg.MaxAttempts)),
		cacheres.WithLoadTimeout(cacheCfg.LoadTimeout),
		cacheres.WithLogger(logger.Named("cache")),
	)

	st := store.New(store.InitialState(), logger.Named("store"))
	core := app.NewCore(st, cache, api, logger.Named("core"))

	if err := core.Dispatch(store.SetPageSize{PageSize: cfg.DefaultPageSize}); err != nil {
		return nil, err
	}
	if token := cfg.GetAPIConfig().Token; token != "" {
		if err := core.Login(token, 0); err != nil {
			return nil, fmt.Errorf("configured API token: %w", err)
		}
	}
	return core, nil
}

func initLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	zcfg.Encoding = cfg.LogFormat
	if cfg.LogFormat == "json" {
		zcfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	}

	logger, err := zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func initTracer(jaegerEndpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(jaegerEndpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, fmt.Errorf("Failed to create jaeger exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// initHealthServer serves grpc.health.v1 so orchestrators can probe the process.
func initHealthServer(cfg *config.Config) *grpc.Server {
	s := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           1 * time.Minute,
		}),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	// Register reflection for development
	if !cfg.IsProduction() {
		reflection.Register(s)
	}
	return s
}
