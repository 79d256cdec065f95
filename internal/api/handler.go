package api

import (
	"context"
	"net/http"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/service"
	"commerce-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// CommerceService is the domain service behind the HTTP routes
type CommerceService interface {
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, string, int, error)
	CreateProduct(ctx context.Context, params service.CreateProductParams) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateOrderIdempotent(ctx context.Context, key string, userID uuid.UUID, lines []service.OrderLine) (*models.Order, []models.OrderItem, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	RecommendProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
}

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc    CommerceService
	env    string
	pinger Pinger
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler. pinger may be nil, in which case
// /ready always succeeds.
func NewHandler(svc CommerceService, env string, pinger Pinger) *Handler {
	return &Handler{
		svc:    svc,
		env:    env,
		pinger: pinger,
		logger: util.GetLogger(),
	}
}

// NewRouter builds a gin engine with all routes registered
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	h.SetupRoutes(router)
	return router
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.signup)
		auth.POST("/login", h.login)
	}

	router.POST("/products", h.createProduct)
	router.GET("/products", h.listProducts)

	router.POST("/orders", h.createOrder)
	router.GET("/orders/:user_id", h.listOrders)

	router.GET("/recommendations/:user_id", h.recommendations)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": h.env,
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), *req.Email, *req.Username, *req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	user, token, ttl, err := h.svc.Login(c.Request.Context(), *req.Username, *req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		UserID:           user.ID.String(),
		Token:            token,
		ExpiresInMinutes: ttl,
	})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), service.CreateProductParams{
		Name:        *req.Name,
		Description: *req.Description,
		Category:    *req.Category,
		PriceCents:  *req.PriceCents,
		Currency:    req.Currency,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProductResponse(product))
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProductResponses(products))
}

func (h *Handler) createOrder(c *gin.Context) {
	var req orderRequest
	if err := bindJSON(c, &req); err != nil {
		h.writeError(c, err)
		return
	}

	userID, lines, err := req.toLines()
	if err != nil {
		h.writeError(c, err)
		return
	}

	order, items, err := h.svc.CreateOrderIdempotent(c.Request.Context(), c.GetHeader("Idempotency-Key"), userID, lines)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order, items))
}

func (h *Handler) listOrders(c *gin.Context) {
	userID, err := parseUUID(c.Param("user_id"), "user_id")
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	orders, err := h.svc.ListOrders(ctx, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items, err := h.svc.ListOrderItems(ctx, orders[i].ID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		resp = append(resp, newOrderResponse(&orders[i], items))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) recommendations(c *gin.Context) {
	userID, err := parseUUID(c.Param("user_id"), "user_id")
	if err != nil {
		h.writeError(c, err)
		return
	}

	products, err := h.svc.RecommendProducts(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, recommendationsResponse{
		UserID:   userID.String(),
		Products: newProductResponses(products),
	})
}

// writeError maps an error to its status code and JSON body
func (h *Handler) writeError(c *gin.Context, err error) {
	var status int
	switch {
	case isRequestError(err), service.IsValidation(err):
		status = http.StatusBadRequest
	case service.IsAuthentication(err):
		status = http.StatusUnauthorized
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
