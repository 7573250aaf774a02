package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/example/perfumery/pkg/auth"
	"github.com/example/perfumery/pkg/metrics"
	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/ratelimit"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/service"
	"github.com/example/perfumery/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Orders interface {
	Create(ctx context.Context, req validation.CreateOrderRequest, userID *primitive.ObjectID) (*models.Order, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, f repository.OrderFilter) (*repository.List[models.Order], error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, p repository.Page) (*repository.List[models.Order], error)
	Update(ctx context.Context, id primitive.ObjectID, req validation.UpdateOrderRequest) (*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Products interface {
	List(ctx context.Context, f repository.ProductFilter) (*repository.List[models.Product], error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, req validation.ProductRequest) (*models.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, patch validation.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Users interface {
	Register(ctx context.Context, req validation.RegisterRequest) (*service.Session, error)
	Login(ctx context.Context, req validation.LoginRequest) (*service.Session, error)
	Create(ctx context.Context, req validation.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, p repository.Page) (*repository.List[models.User], error)
	Update(ctx context.Context, id primitive.ObjectID, patch validation.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type AuditHistory interface {
	History(ctx context.Context, entityID string, limit int64) ([]models.AuditLog, error)
}

// HealthReporter exposes the last dependency check results.
type HealthReporter interface {
	Status() (bool, map[string]string)
}

// Deps are the collaborators the HTTP surface is built from. Limiter,
// Metrics and Health are optional.
type Deps struct {
	Orders   Orders
	Products Products
	Users    Users
	Audit    AuditHistory
	Tokens   *auth.TokenManager

	Limiter   ratelimit.Limiter
	RateLimit int
	Metrics   *metrics.Metrics
	Health    HealthReporter
}

type Gateway struct {
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
}

func NewGateway(deps Deps, logger *zap.Logger) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	g := &Gateway{
		deps:   deps,
		logger: logger,
		router: router,
	}
	g.setupRoutes()
	return g
}

// Handler returns the router, for mounting in an http.Server.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/health", g.health)
	if g.deps.Metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.deps.Metrics.Handler()))
	}

	api := g.router.Group("/api")

	authenticate := auth.Authenticate(g.deps.Tokens, deny)
	signedIn := auth.RequireRole(deny)
	admin := auth.RequireRole(deny, models.RoleAdmin)

	api.POST("/auth/register", g.register)
	api.POST("/auth/login", g.login)
	api.GET("/me/orders", authenticate, signedIn, g.myOrders)

	products := api.Group("/products")
	{
		products.GET("", g.listProducts)
		products.GET("/:id", g.getProduct)
		products.POST("", authenticate, admin, g.createProduct)
		products.PATCH("/:id", authenticate, admin, g.updateProduct)
		products.DELETE("/:id", authenticate, admin, g.deleteProduct)
	}

	orders := api.Group("/orders")
	{
		// guest checkout: a stale token must not block the order
		orders.POST("", auth.TryAuthenticate(g.deps.Tokens), g.rateLimit(), g.createOrder)
		orders.GET("", authenticate, admin, g.listOrders)
		orders.GET("/:id", authenticate, admin, g.getOrder)
		orders.PATCH("/:id", authenticate, admin, g.updateOrder)
		orders.DELETE("/:id", authenticate, admin, g.deleteOrder)
	}

	users := api.Group("/users", authenticate, admin)
	{
		users.GET("", g.listUsers)
		users.POST("", g.createUser)
		users.GET("/:id", g.getUser)
		users.PATCH("/:id", g.updateUser)
		users.DELETE("/:id", g.deleteUser)
	}

	api.GET("/audit/:entityId", authenticate, admin, g.auditHistory)

	g.router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found", nil)
	})
}

func (g *Gateway) rateLimit() gin.HandlerFunc {
	if g.deps.Limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return ratelimit.Middleware(g.deps.Limiter, g.deps.RateLimit, g.logger, func(c *gin.Context) {
		if g.deps.Metrics != nil {
			g.deps.Metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
		}
		fail(c, http.StatusTooManyRequests, "too many requests, please try again later", nil)
	})
}

func (g *Gateway) health(c *gin.Context) {
	if g.deps.Health == nil {
		ok(c, http.StatusOK, gin.H{"status": "ok"})
		return
	}
	healthy, checks := g.deps.Health.Status()
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, errorEnvelope{
			Success: false,
			Error:   "unhealthy",
			Details: checks,
		})
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

const requestIDHeader = "X-Request-ID"

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDHeader)),
		)
	}
}
