package main

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/httpx"
	"storefront/internal/order"
	"storefront/internal/product"
	"storefront/internal/user"
	"storefront/internal/wishlist"
)

const pageSize = 10

// registerRequest payload for account creation.
// swagger:model registerRequest
type registerRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email"    example:"alice@example.com"`
	Password string `json:"password" example:"correct-horse"`
}

// loginRequest payload for login.
// swagger:model loginRequest
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileUpdateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type cartAddRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// checkoutRequest payload for placing an order.
// swagger:model checkoutRequest
type checkoutRequest struct {
	Address       string `json:"address"        example:"1 Main St"`
	PaymentMethod string `json:"payment_method" example:"card"`
}

// receipt is what the checkout page gets back.
// swagger:model receipt
type receipt struct {
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
	Status  string `json:"status"`
}

type cartLineView struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

func registerRoutes(
	r *gin.Engine,
	users user.Repository,
	products product.Repository,
	carts cart.Store,
	wishes wishlist.Store,
	engine order.Engine,
	tokens *auth.Tokens,
	sessions auth.SessionStore,
	uploadDir string,
) {
	r.POST("/auth/register", registerHandler(users))
	r.POST("/auth/login", loginHandler(users, tokens, sessions))

	r.GET("/products", listProductsHandler(products))
	r.GET("/products/:id", getProductHandler(products))

	authed := r.Group("/", httpx.Auth(tokens, sessions))
	authed.POST("/auth/logout", logoutHandler(sessions))
	authed.GET("/profile", getProfileHandler(users))
	authed.PUT("/profile", updateProfileHandler(users))

	authed.GET("/cart", getCartHandler(carts, products))
	authed.POST("/cart/items", addCartItemHandler(carts, products))
	authed.PUT("/cart/items/:product_id", updateCartItemHandler(carts))
	authed.DELETE("/cart/items/:product_id", removeCartItemHandler(carts))

	authed.GET("/wishlist", getWishlistHandler(wishes, products))
	authed.POST("/wishlist/:product_id", addWishlistItemHandler(wishes, products))
	authed.DELETE("/wishlist/:product_id", removeWishlistItemHandler(wishes))

	authed.POST("/checkout", checkoutHandler(engine))
	authed.GET("/orders", listOrdersHandler(engine))
	authed.GET("/orders/:id", getOrderHandler(engine))

	admin := authed.Group("/admin", httpx.RequireAdmin())
	admin.GET("/stats", adminStatsHandler(users, products, engine))
	admin.POST("/products", createProductHandler(products))
	admin.PUT("/products/:id", updateProductHandler(products))
	admin.DELETE("/products/:id", deleteProductHandler(products))
	admin.POST("/products/:id/image", uploadProductImageHandler(products, uploadDir))
}

// normalizePrice validates a decimal amount >= 0 and fixes it to two places.
func normalizePrice(s string) (string, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return "", false
	}
	return d.StringFixed(2), true
}

// registerHandler creates an account. Role is always "user": admin comes only
// from explicit provisioning at startup.
// @Summary Register
// @Accept json
// @Produce json
// @Param body body registerRequest true "Account"
// @Success 201
// @Router /auth/register [post]
func registerHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Email == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
			return
		}
		u := &user.User{
			ID:           uuid.NewString(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         user.RoleUser,
		}
		if err := users.Create(c.Request.Context(), u); err != nil {
			if errors.Is(err, user.ErrAlreadyExist) {
				c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": u.ID})
	}
}

// @Summary Login
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200
// @Router /auth/login [post]
func loginHandler(users user.Repository, tokens *auth.Tokens, sessions auth.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		// Same response for unknown email and wrong password.
		u, err := users.GetByEmail(c.Request.Context(), req.Email)
		if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		token, jti, err := tokens.Issue(u.ID, u.Username, u.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
			return
		}
		if err := sessions.Put(c.Request.Context(), jti, u.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func logoutHandler(sessions auth.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		if err := sessions.Revoke(c.Request.Context(), claims.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log out"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func getProfileHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func updateProfileHandler(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		var req profileUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		updatePassword := false
		var hash string
		if req.Password != "" {
			h, err := auth.HashPassword(req.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
				return
			}
			hash = h
			updatePassword = true
		}
		u := &user.User{ID: claims.UserID, Username: req.Username, PasswordHash: hash}
		if err := users.Update(c.Request.Context(), u, updatePassword); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
			return
		}
		out, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary List products
// @Description Search, filter and paginate the catalog
// @Produce json
// @Param q query string false "text search"
// @Param min_price query string false "minimum price"
// @Param max_price query string false "maximum price"
// @Param category query string false "category"
// @Param page query int false "page (1-based)"
// @Success 200 {object} product.ListResponse
// @Router /products [get]
func listProductsHandler(products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}
		q := product.Query{
			Q:        c.Query("q"),
			Category: c.Query("category"),
			Limit:    pageSize,
			Offset:   (page - 1) * pageSize,
		}
		// Non-numeric price bounds are ignored, like blank ones.
		if p, ok := normalizePrice(c.Query("min_price")); ok {
			q.MinPrice = p
		}
		if p, ok := normalizePrice(c.Query("max_price")); ok {
			q.MaxPrice = p
		}
		items, total, err := products.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
			return
		}
		if items == nil {
			items = []product.Product{}
		}
		totalPages := int((total + pageSize - 1) / pageSize)
		c.JSON(http.StatusOK, product.ListResponse{
			Q:          q.Q,
			Page:       page,
			TotalPages: totalPages,
			Total:      total,
			Items:      items,
		})
	}
}

func getProductHandler(products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := products.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func createProductHandler(products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and price are required"})
			return
		}
		price, ok := normalizePrice(req.Price)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a non-negative decimal"})
			return
		}
		p := &product.Product{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Price:       price,
			Category:    req.Category,
		}
		if err := products.Create(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		updatePrice := false
		var price string
		if req.Price != "" {
			p, ok := normalizePrice(req.Price)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a non-negative decimal"})
				return
			}
			price = p
			updatePrice = true
		}
		id := c.Param("id")
		if _, err := products.GetByID(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		p := &product.Product{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Price:       price,
			Category:    req.Category,
		}
		if err := products.Update(c.Request.Context(), p, updatePrice); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
			return
		}
		out, err := products.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteProductHandler(products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := products.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func uploadProductImageHandler(products product.Repository, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := products.GetByID(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		// Never trust the uploaded filename.
		name := uuid.NewString() + filepath.Ext(file.Filename)
		if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, name)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save image"})
			return
		}
		if err := products.SetImage(c.Request.Context(), id, name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save image"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"image": name})
	}
}

func adminStatsHandler(users user.Repository, products product.Repository, engine order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userCount, err := users.Count(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
			return
		}
		productCount, err := products.Count(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
			return
		}
		stats, err := engine.Stats(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"users":    userCount,
			"products": productCount,
			"orders":   stats.Orders,
			"sales":    stats.Sales,
		})
	}
}

func getCartHandler(carts cart.Store, products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		lines, err := carts.Lines(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load cart"})
			return
		}
		out := make([]cartLineView, 0, len(lines))
		for _, l := range lines {
			p, err := products.GetByID(c.Request.Context(), l.ProductID)
			if err != nil {
				// stale line, product was removed from the catalog
				continue
			}
			out = append(out, cartLineView{Product: *p, Quantity: l.Quantity})
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func addCartItemHandler(carts cart.Store, products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		var req cartAddRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if req.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
			return
		}
		if _, err := products.GetByID(c.Request.Context(), req.ProductID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err := carts.Add(c.Request.Context(), claims.UserID, req.ProductID, req.Quantity); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add to cart"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func updateCartItemHandler(carts cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		var req cartUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
			return
		}
		err := carts.SetQuantity(c.Request.Context(), claims.UserID, c.Param("product_id"), req.Quantity)
		if errors.Is(err, cart.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeCartItemHandler(carts cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		err := carts.Remove(c.Request.Context(), claims.UserID, c.Param("product_id"))
		if errors.Is(err, cart.ErrLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func getWishlistHandler(wishes wishlist.Store, products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		items, err := wishes.Items(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load wishlist"})
			return
		}
		out := make([]product.Product, 0, len(items))
		for _, it := range items {
			p, err := products.GetByID(c.Request.Context(), it.ProductID)
			if err != nil {
				continue
			}
			out = append(out, *p)
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func addWishlistItemHandler(wishes wishlist.Store, products product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		id := c.Param("product_id")
		if _, err := products.GetByID(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err := wishes.Add(c.Request.Context(), claims.UserID, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update wishlist"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeWishlistItemHandler(wishes wishlist.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		if err := wishes.Remove(c.Request.Context(), claims.UserID, c.Param("product_id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update wishlist"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// checkoutHandler turns the caller's cart into an order.
// @Summary Checkout
// @Accept json
// @Produce json
// @Param body body checkoutRequest true "Shipping and payment"
// @Success 201 {object} receipt
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /checkout [post]
func checkoutHandler(engine order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := engine.PlaceOrder(c.Request.Context(), claims.UserID, req.Address, req.PaymentMethod)
		switch {
		case errors.Is(err, order.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, order.ErrEmptyCart):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case errors.Is(err, order.ErrProductGone):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		case err != nil:
			// rolled back in full, safe to resubmit
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not place order, please retry"})
			return
		}
		c.JSON(http.StatusCreated, receipt{OrderID: o.ID, Total: o.Total, Status: o.Status})
	}
}

// @Summary Order history
// @Produce json
// @Success 200
// @Router /orders [get]
func listOrdersHandler(engine order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		orders, err := engine.ListByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
			return
		}
		if orders == nil {
			orders = []order.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func getOrderHandler(engine order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := httpx.Identity(c)
		o, items, err := engine.GetByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, order.ErrNotFound) || (err == nil && o.UserID != claims.UserID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load order"})
			return
		}
		if items == nil {
			items = []order.Item{}
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "items": items})
	}
}
