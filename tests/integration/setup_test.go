package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"billbook/internal/handlers"
	"billbook/internal/logger"
	"billbook/internal/middleware"
	"billbook/internal/models"
	"billbook/internal/services"
	"billbook/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Transaction{},
		&models.LineItem{},
		&models.InventoryItem{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	inventoryService := services.NewInventoryService(db)
	transactionService := services.NewTransactionService(db, inventoryService)
	reportService := services.NewReportService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	transactions := protected.Group("/transactions")
	transactions.PUT("/:id", transactionHandler.UpsertTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	inventory := protected.Group("/inventory")
	inventory.GET("", inventoryHandler.GetInventory)
	inventory.POST("/rebuild", inventoryHandler.RebuildInventory)
	inventory.PUT("/:id", inventoryHandler.OverrideInventoryItem)

	reports := protected.Group("/reports")
	reports.GET("/monthly", reportHandler.GetMonthlySummary)
	reports.GET("/valuation", reportHandler.GetStockValuation)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// submitTransaction PUTs a transaction and fails the test on an unexpected status.
func (app *testApp) submitTransaction(t *testing.T, token, id, body string, wantStatus int) map[string]interface{} {
	t.Helper()
	rec := app.request("PUT", "/api/v1/transactions/"+id, body, token)
	if rec.Code != wantStatus {
		t.Fatalf("submit %s: expected %d, got %d: %s", id, wantStatus, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

// inventoryByKey fetches the inventory snapshot and indexes it by product key.
func (app *testApp) inventoryByKey(t *testing.T, token string) map[string]map[string]interface{} {
	t.Helper()
	rec := app.request("GET", "/api/v1/inventory", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("inventory fetch failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	byKey := make(map[string]map[string]interface{})
	for _, raw := range result["items"].([]interface{}) {
		item := raw.(map[string]interface{})
		byKey[item["id"].(string)] = item
	}
	return byKey
}
