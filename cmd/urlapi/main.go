package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vmikell/urlapi/internal/app/configs"
	"github.com/vmikell/urlapi/internal/app/handlers"
	"github.com/vmikell/urlapi/internal/app/logger"
	"github.com/vmikell/urlapi/internal/app/metrics"
	"github.com/vmikell/urlapi/internal/app/services"
	"github.com/vmikell/urlapi/internal/app/storage"
)

var (
	buildVersion string = "N/A"
	buildDate    string = "N/A"
	buildCommit  string = "N/A"
)

const dumpInterval = 5 * time.Second

func main() {
	config, err := configs.Parse()
	if err != nil {
		panic(err)
	}
	if err := logger.Initialize(config.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()
	showBuildInfo()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	var wg sync.WaitGroup
	store, err := configureStorage(ctx, config, &wg)
	if err != nil {
		logger.Log.Fatal("failed to configure storage", zap.Error(err))
	}
	recorder := metrics.NewRecorder()
	h := handlers.NewHandlers(
		services.NewRecordService(store, services.ListLimits{
			MaxPages: config.MaxListPages,
			MaxItems: config.MaxListItems,
		}),
		recorder,
	)

	if isLambda() {
		lambda.Start(h.HandleAPIGatewayProxy)
		return
	}
	startHTTPServer(ctx, config, h, recorder, store, &wg)
	wg.Wait()
}

func isLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

func startHTTPServer(
	ctx context.Context,
	config configs.Config,
	h handlers.Handlers,
	recorder *metrics.Recorder,
	store storage.Storage,
	wg *sync.WaitGroup) {

	server := http.Server{
		Handler: handlers.NewRouter(h, recorder),
		Addr:    config.ServerAddress,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		onExit(ctx, &server, store)
	}()

	logger.Log.Info("starting server",
		zap.String("address", config.ServerAddress),
		zap.String("storage", config.Storage),
	)
	var serveErr error
	if config.UseHTTPS() {
		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(config.TLSHost),
		}
		server.TLSConfig = manager.TLSConfig()
		serveErr = server.ListenAndServeTLS("", "")
	} else {
		serveErr = server.ListenAndServe()
	}

	if serveErr != nil && serveErr != http.ErrServerClosed {
		logger.Log.Fatal("server failed", zap.Error(serveErr))
	}
}

func onExit(ctx context.Context, server *http.Server, s storage.Storage) {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Info("failed to shutdown", zap.Error(err))
	}

	if db, ok := s.(*storage.DBStorage); ok {
		db.Close()
	}
}

// configureStorage picks the backend. A file-backed map storage is dumped
// periodically and once more when ctx is done; wg tracks that final dump.
func configureStorage(ctx context.Context, config configs.Config, wg *sync.WaitGroup) (storage.Storage, error) {
	switch {
	case config.UseDynamoStorage():
		client, err := storage.NewDynamoClient(ctx, config.AWSRegion, config.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		return storage.NewDynamoStorage(client, config.TableName, config.ScanPageSize), nil
	case config.UseDBStorage():
		return storage.NewDBStorage(config.DatabaseDSN, config.ScanPageSize)
	case config.UseFileStorage():
		fs := storage.NewFileStorage(config.FileStoragePath)
		store := storage.NewMapStorage(fs, config.ScanPageSize)
		records, err := fs.Snapshot()
		if err != nil {
			return nil, err
		}
		store.Restore(records)
		dumper := services.NewStorageDumper(store, dumpInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			dumper.Run(ctx)
		}()
		return store, nil
	default:
		return storage.NewMapStorage(nil, config.ScanPageSize), nil
	}
}

func showBuildInfo() {
	logger.Log.Info("build info", zap.String("build version", buildVersion))
	logger.Log.Info("build info", zap.String("build date", buildDate))
	logger.Log.Info("build info", zap.String("build commit", buildCommit))
}
