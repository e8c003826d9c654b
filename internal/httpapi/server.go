// Package httpapi exposes the finance services over JSON HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/moneyflow/internal/backup"
	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	defaultBodyLimit       int64 = 1 << 20
	importBodyLimit        int64 = 5 << 20
	settingAppAPIKey             = "APP_API_KEY"
	settingOpenClawAPIKey        = "OPENCLAW_API_KEY"
	routeOpenClawImport          = "/api/openclaw/v1/transactions/import"
	defaultShutdownTimeout       = 5 * time.Second
)

var (
	// ErrInvalidConfig reports missing router dependencies.
	ErrInvalidConfig = errors.New("httpapi: invalid configuration")

	registerTagNames sync.Once
)

// CategoryService manages categories.
type CategoryService interface {
	Create(ctx context.Context, input finance.CategoryInput) (finance.Category, error)
	List(ctx context.Context) ([]finance.Category, error)
	Update(ctx context.Context, categoryID finance.CategoryID, patch finance.CategoryPatch) (finance.Category, error)
	Remove(ctx context.Context, categoryID finance.CategoryID) error
}

// SettingsService reads and updates the UTC offset.
type SettingsService interface {
	UTCOffset(ctx context.Context) (finance.UTCOffset, error)
	UpdateUTCOffset(ctx context.Context, raw string) (finance.UTCOffset, error)
}

// TransactionService manages manual transactions.
type TransactionService interface {
	Create(ctx context.Context, categoryID finance.CategoryID, amount finance.AmountCents, date finance.Date, description *string) (finance.Transaction, error)
	List(ctx context.Context, filter finance.TransactionFilter) (finance.TransactionPage, error)
	Update(ctx context.Context, transactionID finance.TransactionID, patch finance.TransactionPatch) (finance.Transaction, error)
	Remove(ctx context.Context, transactionID finance.TransactionID) error
}

// RecurringService manages recurring templates and their monthly listing.
type RecurringService interface {
	Create(ctx context.Context, input finance.RecurringTemplateInput) (finance.RecurringTemplate, error)
	Remove(ctx context.Context, templateID finance.TemplateID) error
	ListForMonth(ctx context.Context, month *finance.YearMonth) ([]finance.Occurrence, error)
}

// ImportService serves the agent import API.
type ImportService interface {
	Import(ctx context.Context, items []finance.ImportItem) ([]finance.ImportResult, error)
	Get(ctx context.Context, rawKey string) (finance.Transaction, error)
	Remove(ctx context.Context, rawKey string) error
	ListCategories(ctx context.Context) ([]finance.Category, error)
}

// BackupService produces on-demand database archives.
type BackupService interface {
	Create(ctx context.Context) (backup.Result, error)
}

// Pinger checks database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config carries router settings.
type Config struct {
	AllowedOrigins []string
	AppAPIKey      string
	OpenClawAPIKey string
}

// Services bundles the dependencies served by the router. Backups may be nil when unsupported.
type Services struct {
	Categories   CategoryService
	Settings     SettingsService
	Transactions TransactionService
	Recurring    RecurringService
	Imports      ImportService
	Backups      BackupService
	Database     Pinger
}

func (services Services) validate() error {
	if services.Categories == nil || services.Settings == nil || services.Transactions == nil ||
		services.Recurring == nil || services.Imports == nil || services.Database == nil {
		return fmt.Errorf("%w: every service except backups is required", ErrInvalidConfig)
	}
	return nil
}

type httpHandler struct {
	logger   *zap.Logger
	services Services
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config, services Services, logger *zap.Logger) (*gin.Engine, error) {
	if err := services.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	useJSONFieldNames()
	handler := &httpHandler{logger: logger, services: services}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Content-Type", "Origin", "Accept", headerAPIKey, headerRequestID},
			ExposeHeaders: []string{headerTotalCount, headerRequestID, "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}))
	}
	router.Use(bodyLimit(defaultBodyLimit, map[string]int64{routeOpenClawImport: importBodyLimit}))

	api := router.Group("/api")
	api.GET("/health", handler.handleHealth)
	api.GET("/ready", handler.handleReady)

	api.GET("/categories", handler.handleListCategories)
	api.POST("/categories", handler.handleCreateCategory)
	api.PUT("/categories/:id", handler.handleUpdateCategory)
	api.DELETE("/categories/:id", handler.handleRemoveCategory)

	api.GET("/settings/timezone", handler.handleGetTimezone)
	api.PUT("/settings/timezone", handler.handleUpdateTimezone)

	api.GET("/recurring-expenses", handler.handleListRecurring)
	api.POST("/recurring-expenses", handler.handleCreateRecurring)
	api.DELETE("/recurring-expenses/:id", handler.handleRemoveRecurring)

	transactions := api.Group("/transactions", requireAPIKey(cfg.AppAPIKey, settingAppAPIKey))
	transactions.GET("", handler.handleListTransactions)
	transactions.POST("", handler.handleCreateTransaction)
	transactions.PUT("/:id", handler.handleUpdateTransaction)
	transactions.DELETE("/:id", handler.handleRemoveTransaction)

	backups := api.Group("/backup", requireAPIKey(cfg.AppAPIKey, settingAppAPIKey))
	backups.GET("/sqlite", handler.handleDownloadBackup)

	agent := api.Group("/openclaw/v1", requireAPIKey(cfg.OpenClawAPIKey, settingOpenClawAPIKey))
	agent.GET("/health", handler.handleHealth)
	agent.GET("/categories", handler.handleAgentListCategories)
	agent.POST("/categories", handler.handleCreateCategory)
	agent.PUT("/categories/:id", handler.handleUpdateCategory)
	agent.DELETE("/categories/:id", handler.handleRemoveCategory)
	agent.POST("/transactions/import", handler.handleImport)
	agent.GET("/transactions/:idempotencyKey", handler.handleAgentGetTransaction)
	agent.DELETE("/transactions/:idempotencyKey", handler.handleAgentRemoveTransaction)
	agent.GET("/recurring-expenses", handler.handleListRecurring)
	agent.POST("/recurring-expenses", handler.handleCreateRecurring)
	agent.DELETE("/recurring-expenses/:id", handler.handleRemoveRecurring)

	return router, nil
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger, shutdownTimeout time.Duration) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("moneyflow listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// useJSONFieldNames makes validation messages name fields the way clients send them.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		engine.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})
	})
}
