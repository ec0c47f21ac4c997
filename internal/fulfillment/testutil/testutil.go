package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bitfantasy/loom/internal/fulfillment/entity"
	"github.com/bitfantasy/loom/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_loom"
	JWTSecret  = "loom-jwt-secret-key-2025"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "loom")
	password := getEnv("DB_PASSWORD", "loom123")
	dbname := getEnv("DB_NAME", "loom")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.Manufacturer{},
		&entity.UserManufacturerAssociation{},
		&entity.Product{},
		&entity.ProductVariant{},
		&entity.Order{},
		&entity.OrderLineItem{},
		&entity.OrderLineItemManufacturer{},
		&entity.ManufacturingRecord{},
		&entity.ManufacturingUpdate{},
		&entity.UpdateLineItem{},
		&entity.ManufacturerJob{},
		&entity.ManufacturerEvent{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": userID + "@test.com",
		"roles": roles,
		"iss":   "loom",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token for a default admin test user
func AdminToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", []string{entity.RoleAdmin})
}

// OpsToken returns a token for an ops test user
func OpsToken() string {
	return GenerateTestToken("test-ops-001", "Test Ops", []string{entity.RoleOps})
}

// ManufacturerToken returns a token for a manufacturer-role test user
func ManufacturerToken(userID string) string {
	return GenerateTestToken(userID, "Test Manufacturer User", []string{entity.RoleManufacturer})
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedManufacturer creates a manufacturer org
func SeedManufacturer(t *testing.T, db *gorm.DB, id, code, name string) *entity.Manufacturer {
	t.Helper()
	m := &entity.Manufacturer{
		ID:     id,
		Code:   code,
		Name:   name,
		Status: entity.ManufacturerStatusActive,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed manufacturer: %v", err)
	}
	return m
}

// SeedAssociation links a user to a manufacturer
func SeedAssociation(t *testing.T, db *gorm.DB, userID, manufacturerID string) *entity.UserManufacturerAssociation {
	t.Helper()
	assoc := &entity.UserManufacturerAssociation{
		ID:             fmt.Sprintf("assoc-%s", userID),
		UserID:         userID,
		ManufacturerID: manufacturerID,
	}
	if err := db.Create(assoc).Error; err != nil {
		t.Fatalf("Failed to seed association: %v", err)
	}
	return assoc
}

// SeedOrder creates an order with financial fields populated
func SeedOrder(t *testing.T, db *gorm.DB, id, orderNumber string) *entity.Order {
	t.Helper()
	total := 1280.50
	tax := 96.40
	order := &entity.Order{
		ID:           id,
		OrderNumber:  orderNumber,
		CustomerName: "Test Customer",
		Status:       "in_production",
		Total:        &total,
		Tax:          &tax,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	return order
}

// SeedLineItem creates an order line item with product and variant
func SeedLineItem(t *testing.T, db *gorm.DB, id, orderID, productName string, sortOrder int) *entity.OrderLineItem {
	t.Helper()

	basePrice := 12.50
	product := &entity.Product{
		ID:        "prod-" + id,
		Name:      productName,
		BasePrice: &basePrice,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}

	cost := 6.25
	variant := &entity.ProductVariant{
		ID:        "var-" + id,
		ProductID: product.ID,
		Code:      "VAR-" + id,
		Color:     "Navy",
		ImageURL:  "https://cdn.test/variant-" + id + ".png",
		Cost:      &cost,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("Failed to seed variant: %v", err)
	}

	unitPrice := 18.00
	item := &entity.OrderLineItem{
		ID:        id,
		OrderID:   orderID,
		ProductID: &product.ID,
		VariantID: &variant.ID,
		QtyS:      10,
		QtyM:      20,
		QtyL:      15,
		UnitPrice: &unitPrice,
		SortOrder: sortOrder,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to seed line item: %v", err)
	}
	return item
}

// SeedAssignment assigns a line item to a manufacturer
func SeedAssignment(t *testing.T, db *gorm.DB, lineItemID, manufacturerID string) {
	t.Helper()
	assignment := &entity.OrderLineItemManufacturer{
		ID:              "asg-" + lineItemID,
		OrderLineItemID: lineItemID,
		ManufacturerID:  manufacturerID,
	}
	if err := db.Create(assignment).Error; err != nil {
		t.Fatalf("Failed to seed line item assignment: %v", err)
	}
}

// SeedRecord creates a manufacturing record for an order
func SeedRecord(t *testing.T, db *gorm.DB, id, orderID string, manufacturerID *string) *entity.ManufacturingRecord {
	t.Helper()
	record := &entity.ManufacturingRecord{
		ID:             id,
		OrderID:        orderID,
		Status:         entity.PublicStatusAwaitingConfirmation,
		ManufacturerID: manufacturerID,
		Priority:       "normal",
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to seed manufacturing record: %v", err)
	}
	return record
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
