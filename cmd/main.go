package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	createBookingHandler "github.com/m04kA/SMC-LifecycleService/internal/api/handlers/create_booking"
	getAvailableEventsHandler "github.com/m04kA/SMC-LifecycleService/internal/api/handlers/get_available_events"
	getBookingHandler "github.com/m04kA/SMC-LifecycleService/internal/api/handlers/get_booking"
	getHistoryHandler "github.com/m04kA/SMC-LifecycleService/internal/api/handlers/get_history"
	getResourceBookingsHandler "github.com/m04kA/SMC-LifecycleService/internal/api/handlers/get_resource_bookings"
	getUserBookingsHandler "github.com/m04kA/SMC-LifecycleService/internal/api/handlers/get_user_bookings"
	sendEventHandler "github.com/m04kA/SMC-LifecycleService/internal/api/handlers/send_event"
	"github.com/m04kA/SMC-LifecycleService/internal/api/middleware"
	"github.com/m04kA/SMC-LifecycleService/internal/config"
	bookingRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/booking"
	effectJournalRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/effectjournal"
	holdRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/hold"
	transitionLogRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/transitionlog"
	notifyClient "github.com/m04kA/SMC-LifecycleService/internal/integrations/notifyservice"
	paymentClient "github.com/m04kA/SMC-LifecycleService/internal/integrations/paymentgateway"
	payoutClient "github.com/m04kA/SMC-LifecycleService/internal/integrations/payoutservice"
	bookingsService "github.com/m04kA/SMC-LifecycleService/internal/service/bookings"
	effectsService "github.com/m04kA/SMC-LifecycleService/internal/service/effects"
	holdsService "github.com/m04kA/SMC-LifecycleService/internal/service/holds"
	reconcilerService "github.com/m04kA/SMC-LifecycleService/internal/service/reconciler"
	"github.com/m04kA/SMC-LifecycleService/internal/statemachine"
	sendEventUC "github.com/m04kA/SMC-LifecycleService/internal/usecase/send_event"
	"github.com/m04kA/SMC-LifecycleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-LifecycleService/pkg/logger"
	"github.com/m04kA/SMC-LifecycleService/pkg/metrics"
	"github.com/m04kA/SMC-LifecycleService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-LifecycleService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-LifecycleService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Таблица переходов жизненного цикла
	table := statemachine.MustNew()

	// Инициализируем интеграционных клиентов
	payments := paymentClient.NewClient(
		cfg.PaymentGateway.URL,
		time.Duration(cfg.PaymentGateway.Timeout)*time.Second,
		log,
	)
	notify := notifyClient.NewClient(
		cfg.NotifyService.URL,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		log,
	)
	payouts := payoutClient.NewClient(
		cfg.PayoutService.URL,
		time.Duration(cfg.PayoutService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (PaymentGateway=%s, NotifyService=%s, PayoutService=%s)",
		cfg.PaymentGateway.URL, cfg.NotifyService.URL, cfg.PayoutService.URL)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository       *bookingRepo.Repository
		holdRepository          *holdRepo.Repository
		transitionLogRepository *transitionLogRepo.Repository
		effectJournalRepository *effectJournalRepo.Repository
	)

	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		holdRepository = holdRepo.NewRepository(wrappedDB)
		transitionLogRepository = transitionLogRepo.NewRepository(wrappedDB)
		effectJournalRepository = effectJournalRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		holdRepository = holdRepo.NewRepository(db)
		transitionLogRepository = transitionLogRepo.NewRepository(db)
		effectJournalRepository = effectJournalRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	holdTTL := time.Duration(cfg.Lifecycle.HoldTTLMinutes) * time.Minute

	// Типизированный nil *metrics.Metrics в интерфейсном поле обходит
	// проверки на nil, поэтому выключенные метрики передаем явным nil
	var (
		effectsMetrics    effectsService.Metrics
		sendEventMetrics  sendEventUC.Metrics
		reconcilerMetrics reconcilerService.Metrics
	)
	if cfg.Metrics.Enabled {
		effectsMetrics = metricsCollector
		sendEventMetrics = metricsCollector
		reconcilerMetrics = metricsCollector
	}

	// Инициализируем сервисы
	holdManager := holdsService.NewManager(holdRepository, txMgr, log, holdTTL)

	dispatcher := effectsService.NewDispatcher(
		payments,
		notify,
		payouts,
		effectJournalRepository,
		effectsMetrics,
		log,
		cfg.Lifecycle.PayoutDelayDays,
	)

	bookingSvc := bookingsService.NewService(
		bookingRepository,
		transitionLogRepository,
		table,
		log,
	)

	// Инициализируем use cases
	sendEventUseCase := sendEventUC.NewUseCase(
		bookingRepository,
		transitionLogRepository,
		holdManager,
		dispatcher,
		table,
		txMgr,
		sendEventMetrics,
		log,
		holdTTL,
	)

	// Фоновый реконсилер: истечение удержаний, таймауты, ретеншн, повтор эффектов
	reconciler := reconcilerService.New(
		holdManager,
		bookingRepository,
		transitionLogRepository,
		effectJournalRepository,
		dispatcher,
		sendEventUseCase,
		reconcilerMetrics,
		log,
		reconcilerService.Config{
			HoldTTL:                holdTTL,
			PendingProviderTimeout: time.Duration(cfg.Lifecycle.PendingProviderTimeoutHours) * time.Hour,
			LogRetention:           time.Duration(cfg.Lifecycle.LogRetentionDays) * 24 * time.Hour,
			EffectRetryBackoff:     time.Duration(cfg.Lifecycle.EffectRetryBackoffSeconds) * time.Second,
		},
	)

	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	go reconciler.Run(reconcilerCtx, time.Duration(cfg.Lifecycle.SweepIntervalSeconds)*time.Second)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(bookingSvc, log)
	sendEvent := sendEventHandler.NewHandler(sendEventUseCase, bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getAvailableEvents := getAvailableEventsHandler.NewHandler(bookingSvc, log)
	getHistory := getHistoryHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getResourceBookings := getResourceBookingsHandler.NewHandler(bookingSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Расписание ресурса
	api.HandleFunc("/resources/{resourceId}/bookings", getResourceBookings.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(log))

	// Создание черновика бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{id}", getBooking.Handle).Methods(http.MethodGet)

	// Отправка события жизненного цикла
	protected.HandleFunc("/bookings/{id}/events", sendEvent.Handle).Methods(http.MethodPost)

	// Допустимые события из текущего состояния
	protected.HandleFunc("/bookings/{id}/events", getAvailableEvents.Handle).Methods(http.MethodGet)

	// Журнал переходов
	protected.HandleFunc("/bookings/{id}/history", getHistory.Handle).Methods(http.MethodGet)

	// Бронирования клиента
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	stopReconciler()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
