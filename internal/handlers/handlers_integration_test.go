package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"digistore/internal/handlers"
	"digistore/internal/middleware"
	"digistore/internal/models"
	"digistore/internal/repositories"
	"digistore/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers, services, and middleware wired the same way as in main.
func setupApp() (*fiber.App, *gorm.DB, error) {
	// Configure Viper for testing
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	// A uniquely named shared-cache database keeps each setupApp call
	// isolated while surviving GORM's connection pooling.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	err = db.AutoMigrate(
		&models.Profile{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Initialize Repositories
	profileRepo := repositories.NewGORMProfileRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// Initialize Services
	authService := services.NewAuthService(profileRepo, jwtSecret)
	catalogService := services.NewCatalogService(productRepo, categoryRepo)
	checkoutService := services.NewCheckoutService(orderRepo, productRepo, nil) // nil for RabbitMQ client
	accountService := services.NewAccountService(profileRepo, orderRepo)
	adminService := services.NewAdminService(productRepo, orderRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	accountHandler := handlers.NewAccountHandler(accountService)
	adminHandler := handlers.NewAdminHandler(adminService)

	app := fiber.New()

	apiV1 := app.Group("/api/v1")

	// Public surface
	authHandler.RegisterRoutes(apiV1)
	catalogHandler.RegisterRoutes(apiV1)

	// Authenticated surface
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	checkoutHandler.RegisterRoutes(protected)
	accountHandler.RegisterRoutes(protected)

	// Admin surface
	adminProtected := apiV1.Group("", middleware.AuthRequired(authService), middleware.AdminRequired(profileRepo))
	adminHandler.RegisterRoutes(adminProtected)

	if err := seedCatalogForTest(categoryRepo, productRepo); err != nil {
		return nil, nil, err
	}

	return app, db, nil
}

func strPtr(s string) *string { return &s }

// seedCatalogForTest populates two categories and a small catalog,
// including an inactive product that must stay invisible to customers.
func seedCatalogForTest(categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository) error {
	categories := []models.Category{
		{ID: "cat-books", Name: "Books", Slug: "books"},
		{ID: "cat-design", Name: "Design", Slug: "design"},
	}
	for i := range categories {
		if err := categoryRepo.Create(&categories[i]); err != nil {
			return fmt.Errorf("failed to seed category: %w", err)
		}
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	products := []models.Product{
		{ID: "ebook-101", Title: "Ebook 101", Slug: "ebook-101", Description: "Beginner ebook about Go", Price: 19.99, CategoryID: strPtr("cat-books"), IsActive: true, IsFeatured: true, Tags: []string{"go", "ebook"}, CreatedAt: base.Add(1 * time.Hour)},
		{ID: "icon-pack", Title: "Icon Pack", Slug: "icon-pack", Description: "A pack of vector icons", Price: 9.99, CategoryID: strPtr("cat-design"), IsActive: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "video-course", Title: "Video Course", Slug: "video-course", Description: "Advanced video course", Price: 49.99, CategoryID: strPtr("cat-books"), IsActive: true, IsFeatured: true, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "retired-template", Title: "Retired Template", Slug: "retired-template", Description: "No longer for sale", Price: 5.00, CategoryID: strPtr("cat-design"), IsActive: false, IsFeatured: true, CreatedAt: base.Add(4 * time.Hour)},
	}
	for i := range products {
		if err := productRepo.Create(&products[i]); err != nil {
			return fmt.Errorf("failed to seed product: %w", err)
		}
	}
	return nil
}

// registerAndLogin creates a profile through the API and returns a
// bearer token for it.
func registerAndLogin(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"email":     email,
		"password":  password,
		"full_name": "Test User",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"email": email, "password": password})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	resp.Body.Close()
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func getJSON(t *testing.T, app *fiber.App, path, token string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	token := registerAndLogin(t, app, "test@example.com", "password123")
	assert.NotEmpty(t, token)

	// Duplicate registration conflicts
	body, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password is rejected with a generic message
	body, _ = json.Marshal(map[string]string{"email": "test@example.com", "password": "wrong"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The registration response never includes the password hash
	var profile models.Profile
	status := getJSON(t, app, "/api/v1/account/profile", token, &profile)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "test@example.com", profile.Email)
	assert.False(t, profile.IsAdmin)
	assert.Empty(t, profile.Password)
}

func TestCatalogEndpoints(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	// Listing excludes inactive products and defaults to newest first
	var products []models.Product
	status := getJSON(t, app, "/api/v1/products", "", &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 3)
	assert.Equal(t, "video-course", products[0].ID)
	for _, p := range products {
		assert.True(t, p.IsActive)
	}

	// Category filter
	products = nil
	status = getJSON(t, app, "/api/v1/products?category=cat-books", "", &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 2)
	for _, p := range products {
		assert.Equal(t, "cat-books", *p.CategoryID)
	}

	// Price sorts
	products = nil
	status = getJSON(t, app, "/api/v1/products?sort=price-low", "", &products)
	assert.Equal(t, http.StatusOK, status)
	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(t, products[i-1].Price, products[i].Price)
	}

	products = nil
	status = getJSON(t, app, "/api/v1/products?sort=price-high", "", &products)
	assert.Equal(t, http.StatusOK, status)
	for i := 1; i < len(products); i++ {
		assert.GreaterOrEqual(t, products[i-1].Price, products[i].Price)
	}

	// Featured products: active featured only
	products = nil
	status = getJSON(t, app, "/api/v1/products/featured", "", &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 2)
	for _, p := range products {
		assert.True(t, p.IsFeatured)
		assert.True(t, p.IsActive)
	}

	// Search is case-insensitive over title and description
	products = nil
	status = getJSON(t, app, "/api/v1/products/search?q=VECTOR", "", &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 1)
	assert.Equal(t, "icon-pack", products[0].ID)

	products = nil
	status = getJSON(t, app, "/api/v1/products/search?q=nonexistent-token", "", &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, products)

	// Blank query is rejected
	status = getJSON(t, app, "/api/v1/products/search?q=", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Detail by slug; inactive slug yields not-found
	var product models.Product
	status = getJSON(t, app, "/api/v1/products/ebook-101", "", &product)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ebook-101", product.ID)
	assert.NotNil(t, product.Category)

	status = getJSON(t, app, "/api/v1/products/retired-template", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = getJSON(t, app, "/api/v1/products/no-such-slug", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Categories ordered by name
	var categories []models.Category
	status = getJSON(t, app, "/api/v1/categories", "", &categories)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, categories, 2)
	assert.Equal(t, "Books", categories[0].Name)
	assert.Equal(t, "Design", categories[1].Name)
}

func TestCheckoutFlow(t *testing.T) {
	app, db, err := setupApp()
	assert.NoError(t, err)

	token := registerAndLogin(t, app, "buyer@example.com", "password123")

	// Place an order for the 19.99 ebook
	body, _ := json.Marshal(map[string]string{"product_id": "ebook-101"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()
	assert.Equal(t, 19.99, order.TotalAmount)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "ebook-101", order.Items[0].ProductID)
	assert.Equal(t, 19.99, order.Items[0].Price)

	// The order shows up in the account history with its product joined
	var orders []models.Order
	status := getJSON(t, app, "/api/v1/account/orders", token, &orders)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
	assert.NotNil(t, orders[0].Items[0].Product)
	assert.Equal(t, "Ebook 101", orders[0].Items[0].Product.Title)

	// Editing the product's price later never rewrites the snapshot
	assert.NoError(t, db.Model(&models.Product{}).Where("id = ?", "ebook-101").Update("price", 39.99).Error)
	orders = nil
	status = getJSON(t, app, "/api/v1/account/orders", token, &orders)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 19.99, orders[0].TotalAmount)
	assert.Equal(t, 19.99, orders[0].Items[0].Price)

	// Checkout of an inactive product is refused without a write
	body, _ = json.Marshal(map[string]string{"product_id": "retired-template"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	var count int64
	assert.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestProfileEditing(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	token := registerAndLogin(t, app, "editor@example.com", "password123")

	body, _ := json.Marshal(map[string]string{"full_name": "Edited Name"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/account/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var profile models.Profile
	status := getJSON(t, app, "/api/v1/account/profile", token, &profile)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Edited Name", profile.FullName)
	assert.Equal(t, "editor@example.com", profile.Email, "email is immutable through this surface")

	// Blank name fails validation
	body, _ = json.Marshal(map[string]string{"full_name": ""})
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/account/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthGates(t *testing.T) {
	app, db, err := setupApp()
	assert.NoError(t, err)

	// Unauthenticated access to the protected surfaces
	status := getJSON(t, app, "/api/v1/account/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = getJSON(t, app, "/api/v1/admin/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader([]byte(`{"product_id":"ebook-101"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// No write happened for the rejected checkout
	var count int64
	assert.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// A regular authenticated user is turned away from the admin surface
	token := registerAndLogin(t, app, "regular@example.com", "password123")
	status = getJSON(t, app, "/api/v1/admin/products", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status = getJSON(t, app, "/api/v1/admin/orders", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminProductManagement(t *testing.T) {
	app, db, err := setupApp()
	assert.NoError(t, err)

	token := registerAndLogin(t, app, "admin@example.com", "password123")

	// Grant the admin flag the way an operator would: directly in the store
	assert.NoError(t, db.Model(&models.Profile{}).
		Where("email = ?", "admin@example.com").
		Update("is_admin", true).Error)

	// The admin listing includes the inactive seeded product
	var products []models.Product
	status := getJSON(t, app, "/api/v1/admin/products", token, &products)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, products, 4)

	// Create: tags arrive as a comma-separated string
	create := map[string]interface{}{
		"title":       "Font Bundle",
		"slug":        "font-bundle",
		"description": "A bundle of display fonts",
		"price":       29.99,
		"category_id": "cat-design",
		"is_active":   true,
		"tags":        "fonts, design , fonts",
	}
	body, _ := json.Marshal(create)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"fonts", "design", "fonts"}, created.Tags)
	assert.Equal(t, "cat-design", *created.CategoryID)

	// The new product is visible in the public catalog
	var product models.Product
	status = getJSON(t, app, "/api/v1/products/font-bundle", "", &product)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, product.ID)

	// Update: deactivating hides it from customers
	update := map[string]interface{}{
		"title":       "Font Bundle",
		"slug":        "font-bundle",
		"description": "A bundle of display fonts",
		"price":       24.99,
		"is_active":   false,
		"tags":        "fonts",
	}
	body, _ = json.Marshal(update)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/"+created.ID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	status = getJSON(t, app, "/api/v1/products/font-bundle", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Update of an unknown ID yields not-found
	req = httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/no-such-id", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Delete is immediate and final
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Validation failure is caught before any write
	body, _ = json.Marshal(map[string]interface{}{"title": "x"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminOrderOversight(t *testing.T) {
	app, db, err := setupApp()
	assert.NoError(t, err)

	buyerToken := registerAndLogin(t, app, "buyer1@example.com", "password123")
	otherToken := registerAndLogin(t, app, "buyer2@example.com", "password123")

	for _, token := range []string{buyerToken, otherToken} {
		body, _ := json.Marshal(map[string]string{"product_id": "icon-pack"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	adminToken := registerAndLogin(t, app, "overseer@example.com", "password123")
	assert.NoError(t, db.Model(&models.Profile{}).
		Where("email = ?", "overseer@example.com").
		Update("is_admin", true).Error)

	// Oversight spans both buyers' orders, items and products included
	var orders []models.Order
	status := getJSON(t, app, "/api/v1/admin/orders", adminToken, &orders)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, orders, 2)
	for _, o := range orders {
		assert.Len(t, o.Items, 1)
		assert.NotNil(t, o.Items[0].Product)
		assert.Equal(t, 9.99, o.Items[0].Price)
	}

	// Each buyer still only sees their own order
	orders = nil
	status = getJSON(t, app, "/api/v1/account/orders", buyerToken, &orders)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, orders, 1)
}
