package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/your-org/imagemeta/internal/extractor"
	"github.com/your-org/imagemeta/pkg/config"
	"github.com/your-org/imagemeta/pkg/logger"
	"github.com/your-org/imagemeta/pkg/metrics"
	"github.com/your-org/imagemeta/pkg/notify"
	"github.com/your-org/imagemeta/pkg/recordstore"
	"github.com/your-org/imagemeta/pkg/storage/objectstore"
	"github.com/your-org/imagemeta/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(logger.Options{
		Level:       cfg.App.LogLevel,
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		Attributes:     tracing.ParseAttributes(cfg.Tracing.ResourceAttr),
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	objects, err := objectstore.New(ctx, objectstore.Config{
		Provider:       cfg.Storage.Provider,
		Endpoint:       cfg.Storage.Endpoint,
		Region:         cfg.Storage.Region,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		UseSSL:         cfg.Storage.UseSSL,
		ForcePathStyle: cfg.Storage.ForcePathStyle,
	})
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}

	records, err := recordstore.New(ctx, recordstore.Config{
		Provider:    cfg.Records.Provider,
		Table:       cfg.Records.Table,
		Endpoint:    cfg.Records.Endpoint,
		Region:      cfg.Records.Region,
		RedisAddr:   cfg.Records.RedisAddr,
		RedisDB:     cfg.Records.RedisDB,
		PostgresDSN: cfg.Records.PostgresDSN,
	})
	if err != nil {
		logr.Fatal("init record store", zap.Error(err))
	}

	notifier, err := notify.New(ctx, notify.Config{
		Provider: cfg.Notify.Provider,
		Channel:  cfg.Notify.Channel,
		Endpoint: cfg.Notify.Endpoint,
		Region:   cfg.Notify.Region,
		NATSURL:  cfg.Notify.NATSURL,
		Kafka: notify.KafkaOptions{
			Brokers:      cfg.Kafka.Brokers,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			Compression:  cfg.Kafka.CompressionCodec,
			MaxAttempts:  cfg.Kafka.Retries,
		},
	})
	if err != nil {
		logr.Fatal("init notifier", zap.Error(err))
	}

	var (
		sink           metrics.Sink = metrics.NewNoopSink()
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		sink = metrics.NewPrometheusSink(reg, logr)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	processor := extractor.NewProcessor(extractor.Params{
		Objects:        objects,
		Records:        records,
		Notifier:       notifier,
		Logger:         logr,
		Metrics:        sink,
		Concurrency:    cfg.Processor.Concurrency,
		MaxObjectBytes: cfg.Processor.MaxObjectBytes,
	})

	logr.Info("metadata extractor starting",
		zap.String("trigger", cfg.App.Trigger),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("records", cfg.Records.Provider),
		zap.String("notify", cfg.Notify.Provider),
	)

	if cfg.App.Trigger == "lambda" {
		// lambda.Start never returns; clients are reused across warm invocations.
		lambda.Start(extractor.NewLambdaHandler(processor))
		return
	}

	handler := extractor.NewHTTPHandler(processor, logr, cfg.HTTP.MaxBodyBytes, metricsHandler)
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := processor.Close(shutdownCtx); err != nil {
			logr.Error("processor shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("webhook listener starting", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Fatal("http server failed", zap.Error(err))
	}
}
