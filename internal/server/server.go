package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/elskow/fintrack/internal/api"
	"github.com/elskow/fintrack/internal/auth"
	"github.com/elskow/fintrack/internal/config"
	"github.com/elskow/fintrack/internal/wallet"
)

// ServiceName is the name reported by the gRPC health service.
const ServiceName = "fintrack.api"

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.AuthMiddleware
	WalletHandler  *wallet.Handler
}

func NewServer(p Params) *Server {
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(p.Config.GRPC.MaxReceiveMessageSize),
		grpc.MaxSendMsgSize(p.Config.GRPC.MaxSendMessageSize),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if p.Config.GRPC.EnableReflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		config: p.Config,
		log:    p.Logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port),
			Handler:      NewRouter(p.Logger, p.AuthHandler, p.AuthMiddleware, p.WalletHandler),
			ReadTimeout:  p.Config.Server.ReadTimeout,
			WriteTimeout: p.Config.Server.WriteTimeout,
		},
		grpcServer: grpcServer,
		health:     healthServer,
	}
}

// NewRouter builds the HTTP API. Everything under /api passes the bearer
// middleware, which lets public endpoints through.
func NewRouter(
	log *zap.Logger,
	authHandler *auth.Handler,
	authMiddleware *auth.AuthMiddleware,
	walletHandler *wallet.Handler,
) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteMessage(w, http.StatusNotFound, "Not found")
	})

	apiRouter := r.PathPrefix(api.Prefix).Subrouter()
	apiRouter.Use(api.Recover(log), api.RequestLogger(log), authMiddleware.Authenticate)

	apiRouter.HandleFunc(api.Health, func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}).Methods(http.MethodGet)

	authHandler.Register(apiRouter.PathPrefix(api.AuthPrefix).Subrouter())
	walletHandler.Register(apiRouter.PathPrefix(api.WalletsPrefix).Subrouter())

	return r
}

// Start binds both listeners and serves in the background. Bind failures are
// returned so that fx aborts startup.
func (s *Server) Start() error {
	httpListener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcAddr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.GRPC.Port)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		httpListener.Close()
		return fmt.Errorf("failed to listen for grpc: %w", err)
	}

	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	go func() {
		if err := s.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
			s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		}
	}()

	s.log.Info("Starting gRPC health server", zap.String("address", grpcAddr))
	go func() {
		if err := s.grpcServer.Serve(grpcListener); err != nil {
			s.log.Error("grpc server stopped", zap.Error(err))
		}
	}()

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("grpc_port", config.GRPC.Port)
		enc.AddBool("reflection_enabled", config.GRPC.EnableReflection)
		enc.AddString("challenge_backend", config.Challenge.Backend)
		enc.AddBool("smtp_configured", config.SMTP.Configured())
		return nil
	})
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	s.health.Shutdown()

	err := s.httpServer.Shutdown(ctx)
	s.grpcServer.GracefulStop()
	return err
}
