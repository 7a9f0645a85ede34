package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/moa-platform/checkout-service/config"
	"github.com/moa-platform/checkout-service/internal/api/rest"
	"github.com/moa-platform/checkout-service/internal/checkout"
	"github.com/moa-platform/checkout-service/internal/integration/moaapi"
	"github.com/moa-platform/checkout-service/internal/integration/tosspay"
	"github.com/moa-platform/checkout-service/internal/kafka"
	"github.com/moa-platform/checkout-service/internal/kafka/producer"
	"github.com/moa-platform/checkout-service/internal/metrics"
	"github.com/moa-platform/checkout-service/internal/repository"
	"github.com/moa-platform/checkout-service/internal/repository/postgres"
	"github.com/moa-platform/checkout-service/internal/session"
	"github.com/moa-platform/checkout-service/pkg/logger"
)

var log *logger.Logger

func init() {
	// Загружаем переменные окружения
	if err := godotenv.Load(); err != nil {
		// Пропускаем ошибку, если .env файл не найден
	}

	// Инициализация логгера
	logLevel := logger.INFO
	if os.Getenv("DEBUG") == "true" {
		logLevel = logger.DEBUG
	}
	log = logger.New(logLevel)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	// Создаем контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация Prometheus
	promRegistry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(promRegistry, log)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)

	// Запускаем сбор системных метрик
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Хранилище чекаутов: PostgreSQL или память
	var checkoutRepo repository.CheckoutRepository
	if cfg.Database.DSN != "" {
		dbPool, err := postgres.NewConnection(ctx, cfg.Database.DSN, log)
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()
		checkoutRepo = postgres.NewCheckoutRepository(dbPool, log)
	} else {
		log.Warn("DATABASE_DSN is not set, using in-memory checkout storage")
		checkoutRepo = repository.NewInMemoryCheckoutRepository(log)
	}

	// Хранилище сессий: Redis с фолбэком на память
	var sessions session.Store
	redisStore, err := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory sessions: %v", err)
		sessions = session.NewInMemoryStore(log)
	} else {
		defer redisStore.Close()
		sessions = redisStore
	}

	// Инициализация Kafka продюсера
	var events checkout.EventPublisher
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopics(cfg.Kafka.Brokers, log); err != nil {
			log.Fatal("Failed to ensure Kafka topics: %v", err)
		}

		kafkaConfig := kafka.NewConfig(cfg.Kafka.Brokers)
		saramaConfig := kafka.NewSaramaConfig(kafkaConfig, log)

		kafkaProducer, err := sarama.NewSyncProducer(kafkaConfig.Brokers, saramaConfig)
		if err != nil {
			log.Fatal("Failed to create Kafka producer: %v", err)
		}
		defer kafkaProducer.Close()

		events = producer.NewKafkaCheckoutProducer(kafkaProducer, log)
	} else {
		log.Warn("Kafka is disabled, checkout events will not be published")
	}

	// Клиенты внешних сервисов
	moaClient := moaapi.NewClient(moaapi.Config{
		BaseURL: cfg.MoaAPI.BaseURL,
		Token:   cfg.MoaAPI.ServiceToken,
		Timeout: time.Duration(cfg.MoaAPI.TimeoutSec) * time.Second,
	}, log)

	tossClient := tosspay.NewClient(tosspay.Config{
		BaseURL:    cfg.TossPay.BaseURL,
		SecretKey:  cfg.TossPay.SecretKey,
		SuccessURL: cfg.TossPay.SuccessURL,
		FailURL:    cfg.TossPay.FailURL,
	}, log)

	checkoutService := checkout.NewService(checkoutRepo, sessions, moaClient, tossClient, events, log)

	// Установка режима Gin
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настройка маршрутизатора
	router := rest.SetupRouter(checkoutService, moaClient, checkoutMetrics, promRegistry, log)

	// Создание и запуск HTTP сервера
	server := rest.NewServer(router, cfg, log)

	// Запуск сервера в горутине
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Останавливаем сервер
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
