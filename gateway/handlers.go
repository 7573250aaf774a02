package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/example/perfumery/pkg/auth"
	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/pricing"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/service"
	"github.com/example/perfumery/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (g *Gateway) idParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		g.badRequest(c, "invalid id", err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (g *Gateway) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		g.badRequest(c, "invalid request body", err)
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func queryFloat(c *gin.Context, key string) *float64 {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func queryBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

func pageOf(c *gin.Context) repository.Page {
	return repository.Page{Page: queryInt(c, "page"), Limit: queryInt(c, "limit")}
}

// actor tags the request context with the signed-in user's email for the
// audit log.
func actor(c *gin.Context) *gin.Context {
	if claims, ok := auth.FromContext(c); ok {
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), claims.Email))
	}
	return c
}

// orders

func (g *Gateway) createOrder(c *gin.Context) {
	var req validation.CreateOrderRequest
	if !g.bind(c, &req) {
		g.orderFailed("malformed")
		return
	}

	var userID *primitive.ObjectID
	if claims, ok := auth.FromContext(c); ok {
		if id, err := primitive.ObjectIDFromHex(claims.Subject); err == nil {
			userID = &id
		}
	}

	order, err := g.deps.Orders.Create(c.Request.Context(), req, userID)
	if err != nil {
		g.orderFailed(failureReason(err))
		g.handleError(c, err)
		return
	}

	if g.deps.Metrics != nil {
		g.deps.Metrics.OrderCreated(order.TotalAmount)
	}
	ok(c, http.StatusCreated, gin.H{"id": order.ID.Hex()})
}

func (g *Gateway) orderFailed(reason string) {
	if g.deps.Metrics != nil {
		g.deps.Metrics.OrderFailed(reason)
	}
}

func failureReason(err error) string {
	var (
		verr     *validation.Error
		notFound *pricing.ProductNotFoundError
		variant  *pricing.VariantUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &notFound):
		return "product_not_found"
	case errors.As(err, &variant):
		return "variant_unavailable"
	default:
		return "store"
	}
}

func (g *Gateway) listOrders(c *gin.Context) {
	f := repository.OrderFilter{
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("paymentStatus")),
		Email:         c.Query("email"),
		Page:          pageOf(c),
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			g.badRequest(c, "invalid userId", err)
			return
		}
		f.UserID = &id
	}

	list, err := g.deps.Orders.List(c.Request.Context(), f)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (g *Gateway) myOrders(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		g.handleError(c, auth.ErrInvalidToken)
		return
	}

	list, err := g.deps.Orders.ListForUser(c.Request.Context(), userID, pageOf(c))
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (g *Gateway) getOrder(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	order, err := g.deps.Orders.Get(c.Request.Context(), id)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

func (g *Gateway) updateOrder(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	var req validation.UpdateOrderRequest
	if !g.bind(c, &req) {
		return
	}

	order, err := g.deps.Orders.Update(actor(c).Request.Context(), id, req)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

func (g *Gateway) deleteOrder(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	if err := g.deps.Orders.Delete(actor(c).Request.Context(), id); err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id.Hex()})
}

// products

func (g *Gateway) listProducts(c *gin.Context) {
	f := repository.ProductFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Featured: queryBool(c, "featured"),
		Search:   c.Query("search"),
		MinPrice: queryFloat(c, "minPrice"),
		MaxPrice: queryFloat(c, "maxPrice"),
		Sort:     c.Query("sort"),
		Page:     pageOf(c),
	}

	list, err := g.deps.Products.List(c.Request.Context(), f)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (g *Gateway) getProduct(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	product, err := g.deps.Products.Get(c.Request.Context(), id)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, product)
}

func (g *Gateway) createProduct(c *gin.Context) {
	var req validation.ProductRequest
	if !g.bind(c, &req) {
		return
	}
	product, err := g.deps.Products.Create(actor(c).Request.Context(), req)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, product)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	var patch validation.ProductPatch
	if !g.bind(c, &patch) {
		return
	}
	product, err := g.deps.Products.Update(actor(c).Request.Context(), id, patch)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, product)
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	if err := g.deps.Products.Delete(actor(c).Request.Context(), id); err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id.Hex()})
}

// users and auth

func (g *Gateway) register(c *gin.Context) {
	var req validation.RegisterRequest
	if !g.bind(c, &req) {
		return
	}
	session, err := g.deps.Users.Register(c.Request.Context(), req)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, session)
}

func (g *Gateway) login(c *gin.Context) {
	var req validation.LoginRequest
	if !g.bind(c, &req) {
		return
	}
	session, err := g.deps.Users.Login(c.Request.Context(), req)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, session)
}

func (g *Gateway) listUsers(c *gin.Context) {
	list, err := g.deps.Users.List(c.Request.Context(), pageOf(c))
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (g *Gateway) createUser(c *gin.Context) {
	var req validation.CreateUserRequest
	if !g.bind(c, &req) {
		return
	}
	user, err := g.deps.Users.Create(actor(c).Request.Context(), req)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

func (g *Gateway) getUser(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	user, err := g.deps.Users.Get(c.Request.Context(), id)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (g *Gateway) updateUser(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	var patch validation.UserPatch
	if !g.bind(c, &patch) {
		return
	}
	user, err := g.deps.Users.Update(actor(c).Request.Context(), id, patch)
	if err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (g *Gateway) deleteUser(c *gin.Context) {
	id, valid := g.idParam(c, "id")
	if !valid {
		return
	}
	if err := g.deps.Users.Delete(actor(c).Request.Context(), id); err != nil {
		g.handleError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id.Hex()})
}

func (g *Gateway) auditHistory(c *gin.Context) {
	if g.deps.Audit == nil {
		ok(c, http.StatusOK, []models.AuditLog{})
		return
	}
	logs, err := g.deps.Audit.History(c.Request.Context(), c.Param("entityId"), int64(queryInt(c, "limit")))
	if err != nil {
		g.handleError(c, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	ok(c, http.StatusOK, logs)
}
