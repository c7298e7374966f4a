package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/controllers"
	"fitcoach/fitcoach/entitlements"
	"fitcoach/fitcoach/routes"
	"fitcoach/fitcoach/services/llm"
	"fitcoach/fitcoach/services/stream"
	"fitcoach/fitcoach/sources/psql"
	"fitcoach/fitcoach/sources/psql/dao"
	"fitcoach/fitcoach/sources/storage"
	"fitcoach/fitcoach/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const maxRetainedStreams = 1024

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	ents, err := entitlements.Load(cfg.EntitlementsFile)
	if err != nil {
		logging.ErrorLogger.Error("entitlements load error, using defaults", zap.Error(err))
		ents = entitlements.Defaults()
	}

	userDAO := dao.NewUserDAO(db.DB)
	chatDAO := dao.NewChatDAO(db.DB)
	streamDAO := dao.NewStreamDAO(db.DB)
	profileDAO := dao.NewProfileDAO(db.DB)
	trainingDAO := dao.NewTrainingDAO(db.DB)

	provider := llm.NewOpenAIClient(cfg)
	streams := stream.NewRegistry(cfg.StreamTimeout, maxRetainedStreams)

	authCtrl := controllers.NewAuthController(userDAO, cfg)
	chatCtrl := controllers.NewChatController(
		chatDAO, streamDAO, profileDAO, trainingDAO,
		provider, streams, ents, cfg.StreamTimeout,
	)
	profileCtrl := controllers.NewProfileController(profileDAO)
	trainingCtrl := controllers.NewTrainingController(trainingDAO)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/auth", routes.AuthRoutes(authCtrl))
	r.Mount("/chat-stream", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/profile", routes.ProfileRoutes(profileCtrl, cfg))
	r.Mount("/training-menu", routes.TrainingRoutes(trainingCtrl, cfg))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	// Attachment uploads degrade to unavailable when object storage is down.
	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		logging.ErrorLogger.Error("minio connection error, uploads disabled", zap.Error(err))
	} else {
		attachmentCtrl := controllers.NewAttachmentController(minioClient)
		r.Mount("/files", routes.FileRoutes(attachmentCtrl, cfg))
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	logging.AppLogger.Info("fitcoach server started", zap.String("addr", cfg.ServerAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	// Let detached model invocations finish persisting their turns.
	streams.Wait()
	logging.AppLogger.Info("server shutdown complete")
}
