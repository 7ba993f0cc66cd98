package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/johanna-II/billing-engine/internal/application/billing"
	"github.com/johanna-II/billing-engine/internal/domain/payment"
	"github.com/johanna-II/billing-engine/internal/domain/shared/valueobject"
	"github.com/johanna-II/billing-engine/internal/infrastructure/config"
	"github.com/johanna-II/billing-engine/internal/infrastructure/logger"
	"github.com/johanna-II/billing-engine/internal/interfaces/http/handler"
	"github.com/johanna-II/billing-engine/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting billing engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	calculator := billing.NewCalculator(calculatorOptions(cfg, log)...)

	ginMode := gin.DebugMode
	if cfg.IsProduction() {
		ginMode = gin.ReleaseMode
	}
	engine := router.NewEngine(log, ginMode)

	billingHandler := handler.NewBillingHandler(calculator, log)
	router.NewRouter(engine).
		Register(router.NewBillingRoutes(billingHandler)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// calculatorOptions maps billing config onto calculator options,
// overlaying any configured fee rates onto the default schedule.
func calculatorOptions(cfg *config.Config, log *zap.Logger) []billing.CalculatorOption {
	opts := []billing.CalculatorOption{
		billing.WithVATRate(decimal.NewFromFloat(cfg.Billing.VATRate)),
		billing.WithLogger(log),
	}

	if currency := valueobject.Currency(cfg.Billing.Currency); currency.IsValid() {
		opts = append(opts, billing.WithCurrency(currency))
	} else {
		log.Warn("Unsupported currency in config, using default",
			zap.String("currency", cfg.Billing.Currency))
	}

	if len(cfg.Billing.FeeRates) > 0 {
		schedule := payment.DefaultFeeSchedule()
		for method, rate := range cfg.Billing.FeeRates {
			schedule[payment.PaymentMethod(method)] = payment.FeeRate{
				Rate:     decimal.NewFromFloat(rate.Rate),
				FixedFee: decimal.NewFromFloat(rate.FixedFee),
			}
		}
		opts = append(opts, billing.WithFeeSchedule(schedule))
	}

	return opts
}
