package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/johanna-II/billing-engine/internal/infrastructure/logger"
	"github.com/johanna-II/billing-engine/internal/interfaces/http/dto"
	"github.com/johanna-II/billing-engine/internal/interfaces/http/handler"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// BillingRoutes wires the billing handler's endpoints into the API group
type BillingRoutes struct {
	handler *handler.BillingHandler
}

// NewBillingRoutes creates the billing route registrar
func NewBillingRoutes(h *handler.BillingHandler) *BillingRoutes {
	return &BillingRoutes{handler: h}
}

// RegisterRoutes implements RouteRegistrar
func (r *BillingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	statements := rg.Group("/statements")
	{
		statements.POST("/preview", r.handler.PreviewStatement)
	}

	meteringGroup := rg.Group("/metering")
	{
		meteringGroup.POST("/aggregate", r.handler.AggregateMetering)
		meteringGroup.POST("/outliers", r.handler.DetectOutliers)
	}

	payments := rg.Group("/payments")
	{
		payments.POST("/reconcile", r.handler.ReconcilePayments)
		payments.POST("/fees", r.handler.PreviewFees)
		payments.GET("/retry-schedule", r.handler.RetrySchedule)
	}
}

// NewEngine builds a gin engine with the service's standard middleware
// stack and custom request validators installed.
func NewEngine(log *zap.Logger, mode string) *gin.Engine {
	gin.SetMode(mode)
	dto.RegisterCustomValidators()

	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.GinRecovery(log))
	return engine
}
