package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	"github.com/oggyb/swipe-engine/internal/app"
	"github.com/oggyb/swipe-engine/internal/auth"
	"github.com/oggyb/swipe-engine/internal/config"
	"github.com/oggyb/swipe-engine/internal/db"
	"github.com/oggyb/swipe-engine/internal/db/testutil"
	"github.com/oggyb/swipe-engine/internal/logger"
	"github.com/oggyb/swipe-engine/internal/server"
	"github.com/oggyb/swipe-engine/internal/service/catalog"
	"github.com/oggyb/swipe-engine/internal/service/swipe"
	"github.com/oggyb/swipe-engine/internal/service/users"
	"github.com/oggyb/swipe-engine/internal/service/wishlist"
)

type apiFixture struct {
	gdb    *gorm.DB
	router *gin.Engine
	tokens *auth.Tokens
	user   *db.User
	token  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.New()
	cfg.App.ENV = "test"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.RateLimit.RPS, cfg.RateLimit.Burst = 1000, 1000

	gdb := testutil.NewSQLite(t)
	appCtx := app.New(cfg, gdb, nil, logger.Discard())

	f := &apiFixture{
		gdb:    gdb,
		tokens: auth.NewTokens(cfg),
		router: server.NewRouter(appCtx,
			swipe.NewRegistrar(appCtx),
			catalog.NewRegistrar(appCtx),
			wishlist.NewRegistrar(appCtx),
			users.NewRegistrar(appCtx),
		),
		user: testutil.CreateUser(t, gdb, "+919100000001"),
	}
	tok, err := f.tokens.Mint(f.user.ID)
	require.NoError(t, err)
	f.token = tok
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	return f.send(t, f.request(t, method, path, body, token))
}

func (f *apiFixture) request(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (f *apiFixture) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestAPI_SwipeLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	p := testutil.CreateProduct(t, f.gdb, "Linen shirt")

	body := map[string]any{"productId": p.ID.String(), "action": "like", "context": map[string]any{"source": "explore", "position": 3}}
	code, out := f.do(t, http.MethodPost, "/api/swipes", body, f.token)
	require.Equal(t, http.StatusCreated, code, out)
	assert.Equal(t, "Swipe recorded successfully", out["message"])

	body["action"] = "super_like"
	code, out = f.do(t, http.MethodPost, "/api/swipes", body, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "Swipe updated successfully", out["message"])
	data := out["data"].(map[string]any)
	assert.Equal(t, true, data["isUpdate"])

	code, out = f.do(t, http.MethodGet, "/api/swipes/history?limit=5", nil, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.EqualValues(t, 1, out["data"].(map[string]any)["total"])

	code, out = f.do(t, http.MethodPost, "/api/swipes/undo", nil, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "Last swipe undone successfully", out["message"])

	code, out = f.do(t, http.MethodPost, "/api/swipes/undo", nil, f.token)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No swipes to undo", out["message"])

	reloaded := testutil.ReloadProduct(t, f.gdb, p.ID)
	assert.EqualValues(t, 0, reloaded.TotalLikes)
}

func TestAPI_ValidationErrors(t *testing.T) {
	f := newAPIFixture(t)

	code, out := f.do(t, http.MethodPost, "/api/swipes", map[string]any{
		"productId": "nope",
		"action":    "love",
		"context":   map[string]any{"position": -1},
	}, f.token)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", out["message"])
	assert.Equal(t, false, out["success"])
	assert.Len(t, out["errors"], 3)

	code, out = f.do(t, http.MethodGet, "/api/swipes/history?cursor=%25%25", nil, f.token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid pagination token", out["message"])
}

func TestAPI_RequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	code, out := f.do(t, http.MethodGet, "/api/swipes/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Access denied. No token provided.", out["message"])

	code, _ = f.do(t, http.MethodGet, "/api/swipes/stats?token="+f.token, nil, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestAPI_PublicProductRoutes(t *testing.T) {
	f := newAPIFixture(t)
	p := testutil.CreateProduct(t, f.gdb, "Denim jacket")

	code, out := f.do(t, http.MethodPost, "/api/swipes", map[string]any{"productId": p.ID.String(), "action": "like"}, f.token)
	require.Equal(t, http.StatusCreated, code, out)

	code, out = f.do(t, http.MethodGet, "/api/products/trending?days=7", nil, "")
	require.Equal(t, http.StatusOK, code, out)
	data := out["data"].(map[string]any)
	assert.EqualValues(t, 1, data["count"])

	code, out = f.do(t, http.MethodGet, "/api/products/"+p.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, code, out)
	product := out["data"].(map[string]any)["product"].(map[string]any)
	assert.EqualValues(t, 1, product["totalViews"])
	assert.EqualValues(t, 1, product["totalLikes"])

	code, _ = f.do(t, http.MethodGet, "/api/products/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPI_Wishlist(t *testing.T) {
	f := newAPIFixture(t)
	p := testutil.CreateProduct(t, f.gdb, "Silk scarf")

	code, out := f.do(t, http.MethodPost, "/api/wishlist", map[string]any{"productId": p.ID.String()}, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "Item added to wishlist successfully", out["message"])

	code, out = f.do(t, http.MethodPost, "/api/wishlist", map[string]any{"productId": p.ID.String()}, f.token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Product already in wishlist", out["message"])

	code, out = f.do(t, http.MethodGet, "/api/wishlist", nil, f.token)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, out["data"].(map[string]any)["count"])

	code, out = f.do(t, http.MethodGet, "/api/wishlist/"+p.ID.String()+"/status", nil, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, true, out["data"].(map[string]any)["inWishlist"])

	code, _ = f.do(t, http.MethodDelete, "/api/wishlist/"+p.ID.String(), nil, f.token)
	assert.Equal(t, http.StatusOK, code)
	code, out = f.do(t, http.MethodGet, "/api/wishlist/"+p.ID.String()+"/status", nil, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, false, out["data"].(map[string]any)["inWishlist"])
	code, out = f.do(t, http.MethodDelete, "/api/wishlist/"+p.ID.String(), nil, f.token)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product not in wishlist", out["message"])
}

func TestAPI_DeviceHeadersStayValidUTF8(t *testing.T) {
	f := newAPIFixture(t)
	p := testutil.CreateProduct(t, f.gdb, "Kurta")

	req := f.request(t, http.MethodPost, "/api/swipes", map[string]any{"productId": p.ID.String(), "action": "like"}, f.token)
	req.Header.Set("User-Agent", strings.Repeat("a", 254)+"é-browser")
	req.Header.Set("X-Platform", strings.Repeat("ü", 20))
	code, out := f.send(t, req)
	require.Equal(t, http.StatusCreated, code, out)

	var row db.Swipe
	require.NoError(t, f.gdb.Where("user_id = ? AND product_id = ?", f.user.ID, p.ID).First(&row).Error)
	assert.True(t, utf8.ValidString(row.Device.UserAgent))
	assert.Equal(t, strings.Repeat("a", 254), row.Device.UserAgent)
	assert.True(t, utf8.ValidString(row.Device.Platform))
	assert.Equal(t, strings.Repeat("ü", 16), row.Device.Platform)
}

func TestAPI_SwipeFeedHonorsPreferences(t *testing.T) {
	f := newAPIFixture(t)
	cheap := testutil.CreateProduct(t, f.gdb, "Cotton tee", testutil.WithPrice(400))
	mid := testutil.CreateProduct(t, f.gdb, "Linen shirt", testutil.WithPrice(1500))
	testutil.CreateProduct(t, f.gdb, "Wool coat", testutil.WithPrice(9000))

	code, out := f.do(t, http.MethodGet, "/api/products/swipe", nil, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.EqualValues(t, 3, out["data"].(map[string]any)["count"])

	code, out = f.do(t, http.MethodPut, "/api/users/preferences", map[string]any{"preferences": map[string]any{"priceRange": map[string]any{"min": 300, "max": 2000}}}, f.token)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "Preferences updated successfully", out["message"])
	prefs := out["data"].(map[string]any)["preferences"].(map[string]any)
	assert.EqualValues(t, 300, prefs["priceMin"])
	assert.EqualValues(t, 2000, prefs["priceMax"])

	code, out = f.do(t, http.MethodPost, "/api/swipes", map[string]any{"productId": cheap.ID.String(), "action": "skip"}, f.token)
	require.Equal(t, http.StatusCreated, code, out)

	code, out = f.do(t, http.MethodGet, "/api/products/swipe?limit=1", nil, f.token)
	require.Equal(t, http.StatusOK, code, out)
	data := out["data"].(map[string]any)
	products := data["products"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, mid.ID.String(), products[0].(map[string]any)["id"])
	assert.Equal(t, false, data["hasMore"])

	code, out = f.do(t, http.MethodPut, "/api/users/preferences", map[string]any{"preferences": map[string]any{"priceRange": map[string]any{"min": 900, "max": 100}}}, f.token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", out["message"])

	code, out = f.do(t, http.MethodPut, "/api/users/preferences", map[string]any{}, f.token)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Valid preferences object is required", out["message"])

	code, _ = f.do(t, http.MethodGet, "/api/products/swipe?limit=500", nil, f.token)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthcheck(t *testing.T) {
	f := newAPIFixture(t)

	code, out := f.do(t, http.MethodGet, "/healthcheck", nil, "")
	require.Equal(t, http.StatusOK, code)
	data := out["data"].(map[string]any)
	assert.Equal(t, "ok", data["db"])
	assert.Equal(t, "disabled", data["redis"])
}

func TestGRPCHealth(t *testing.T) {
	cfg := config.New()
	health := server.NewHealthRegistrar()
	srv := server.NewGRPCServer(cfg, health)
	health.SetServing(true)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	health.SetServing(false)
	resp, err = healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
