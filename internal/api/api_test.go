package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erazemk/sredstva/internal/auth"
	"github.com/erazemk/sredstva/internal/db"
	"github.com/erazemk/sredstva/internal/ledger"
	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret, ledger.New(database)))
	t.Cleanup(server.Close)

	// Create admin user.
	hash, err := auth.HashPassword("password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := store.CreateUser(context.Background(), database, "admin", hash, model.RoleAdmin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	return server, database, login(t, server, "admin", "password")
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated request, checks the status code and decodes the
// response into out if it is not nil.
func do(t *testing.T, method, url, token string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var e errorResponse
		json.NewDecoder(resp.Body).Decode(&e)
		t.Fatalf("%s %s: expected %d, got %d (%s)", method, url, wantStatus, resp.StatusCode, e.Error)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Test missing fields.
	body, _ = json.Marshal(map[string]string{"username": "admin"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	do(t, "GET", server.URL+"/api/sites", token, nil, http.StatusOK, nil)
	do(t, "POST", server.URL+"/api/auth/logout", token, nil, http.StatusOK, nil)
	do(t, "GET", server.URL+"/api/sites", token, nil, http.StatusUnauthorized, nil)
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/devices")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	server, database, _ := setupTestServer(t)

	// Create a regular user.
	hash, _ := auth.HashPassword("password1")
	user, err := store.CreateUser(context.Background(), database, "user1", hash, model.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	userToken, _, err := auth.GenerateToken(testJWTSecret, user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	// Regular users can read.
	do(t, "GET", server.URL+"/api/devices", userToken, nil, http.StatusOK, nil)

	// Regular user should not be able to create sites (manager+ required).
	do(t, "POST", server.URL+"/api/sites", userToken, map[string]string{"name": "HQ"}, http.StatusForbidden, nil)

	// Nor record movements.
	do(t, "POST", server.URL+"/api/transactions", userToken, ledger.Request{}, http.StatusForbidden, nil)

	// Regular user should not access /api/users.
	do(t, "GET", server.URL+"/api/users", userToken, nil, http.StatusForbidden, nil)
}

type apiFixture struct {
	server      *httptest.Server
	token       string
	warehouseID int64
	aliceID     int64
	laptopModel int64
	mouseModel  int64
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	server, _, token := setupTestServer(t)
	f := apiFixture{server: server, token: token}

	var site model.Site
	do(t, "POST", server.URL+"/api/sites", token, map[string]string{"name": "HQ"}, http.StatusCreated, &site)

	var wh model.Warehouse
	do(t, "POST", server.URL+"/api/warehouses", token,
		map[string]any{"site_id": site.ID, "name": "Main"}, http.StatusCreated, &wh)
	f.warehouseID = wh.ID

	var laptop, mouse model.DeviceType
	do(t, "POST", server.URL+"/api/device-types", token,
		map[string]any{"name": "Laptop", "has_serial": true}, http.StatusCreated, &laptop)
	do(t, "POST", server.URL+"/api/device-types", token,
		map[string]any{"name": "Mouse", "has_serial": false}, http.StatusCreated, &mouse)

	var m model.Model
	do(t, "POST", server.URL+"/api/models", token,
		map[string]any{"device_type_id": laptop.ID, "name": "ThinkPad T14"}, http.StatusCreated, &m)
	f.laptopModel = m.ID
	do(t, "POST", server.URL+"/api/models", token,
		map[string]any{"device_type_id": mouse.ID, "name": "MX Master"}, http.StatusCreated, &m)
	f.mouseModel = m.ID

	var alice model.User
	do(t, "POST", server.URL+"/api/users", token,
		map[string]string{"username": "alice", "password": "password1", "role": model.RoleUser}, http.StatusCreated, &alice)
	f.aliceID = alice.ID

	return f
}

func (f apiFixture) url(format string, args ...any) string {
	return f.server.URL + fmt.Sprintf(format, args...)
}

func TestAssignmentFlow(t *testing.T) {
	f := newAPIFixture(t)

	var d model.Device
	do(t, "POST", f.url("/api/devices"), f.token, map[string]any{
		"model_id": f.laptopModel, "serial": "S123", "warehouse_id": f.warehouseID,
	}, http.StatusCreated, &d)
	if d.Status != model.StatusInStock {
		t.Fatalf("expected IN_STOCK, got %s", d.Status)
	}

	assign := ledger.Request{
		Type:           model.TxAssignment,
		SrcWarehouseID: f.warehouseID,
		UserID:         f.aliceID,
		Lines:          []ledger.Line{{Serial: "S123"}},
	}
	var tx model.Transaction
	do(t, "POST", f.url("/api/transactions"), f.token, assign, http.StatusCreated, &tx)
	if tx.Status != model.TxStatusCompleted || tx.Reference == "" {
		t.Errorf("unexpected transaction: %+v", tx)
	}

	do(t, "GET", f.url("/api/devices/%d", d.ID), f.token, nil, http.StatusOK, &d)
	if d.Status != model.StatusAssigned || d.Location != model.HeldBy(f.aliceID) {
		t.Errorf("expected ASSIGNED to alice, got %s at %s", d.Status, d.Location)
	}

	// Assigning the same unit again conflicts.
	var e errorResponse
	req, _ := authRequest("POST", f.url("/api/transactions"), f.token, assign)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	json.NewDecoder(resp.Body).Decode(&e)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if e.Reason != "invalid_device_state" || len(e.Identifiers) != 1 || e.Identifiers[0] != "S123" {
		t.Errorf("unexpected error body: %+v", e)
	}

	var devices []model.Device
	do(t, "GET", f.url("/api/devices?user_id=%d", f.aliceID), f.token, nil, http.StatusOK, &devices)
	if len(devices) != 1 {
		t.Errorf("expected 1 device held by alice, got %d", len(devices))
	}

	var history []model.DeviceHistoryEntry
	do(t, "GET", f.url("/api/devices/%d/history", d.ID), f.token, nil, http.StatusOK, &history)
	if len(history) != 1 || history[0].Type != model.TxAssignment {
		t.Errorf("unexpected history: %+v", history)
	}

	// Alice cannot be deleted while she holds a device.
	do(t, "DELETE", f.url("/api/users/%d", f.aliceID), f.token, nil, http.StatusConflict, nil)
}

func TestBulkStockErrors(t *testing.T) {
	f := newAPIFixture(t)

	do(t, "POST", f.url("/api/stock/intake"), f.token, map[string]any{
		"pool": model.PoolWarehouse, "location_id": f.warehouseID, "model_id": f.mouseModel, "quantity": 3,
	}, http.StatusOK, nil)

	var stock []model.StockEntry
	do(t, "GET", f.url("/api/stock?pool=warehouse&location_id=%d", f.warehouseID), f.token, nil, http.StatusOK, &stock)
	if len(stock) != 1 || stock[0].Quantity != 3 {
		t.Fatalf("unexpected stock: %+v", stock)
	}

	req, _ := authRequest("POST", f.url("/api/transactions"), f.token, ledger.Request{
		Type:           model.TxAssignment,
		SrcWarehouseID: f.warehouseID,
		UserID:         f.aliceID,
		Lines:          []ledger.Line{{ModelID: f.mouseModel, Quantity: 5}},
	})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var e errorResponse
	json.NewDecoder(resp.Body).Decode(&e)
	resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if e.Reason != "insufficient_stock" || e.Available == nil || *e.Available != 3 || e.Requested != 5 {
		t.Errorf("unexpected error body: %+v", e)
	}
}

func TestTransactionErrorStatus(t *testing.T) {
	f := newAPIFixture(t)

	// Unknown serial is a 404.
	do(t, "POST", f.url("/api/transactions"), f.token, ledger.Request{
		Type:           model.TxAssignment,
		SrcWarehouseID: f.warehouseID,
		UserID:         f.aliceID,
		Lines:          []ledger.Line{{Serial: "NOPE"}},
	}, http.StatusNotFound, nil)

	// A request without lines is a 400.
	do(t, "POST", f.url("/api/transactions"), f.token, ledger.Request{
		Type:           model.TxAssignment,
		SrcWarehouseID: f.warehouseID,
		UserID:         f.aliceID,
	}, http.StatusBadRequest, nil)

	do(t, "GET", f.url("/api/transactions/999"), f.token, nil, http.StatusNotFound, nil)
	do(t, "POST", f.url("/api/transactions/999/confirm"), f.token, nil, http.StatusNotFound, nil)
	do(t, "GET", f.url("/api/transactions?type=NOPE"), f.token, nil, http.StatusBadRequest, nil)

	var list []model.Transaction
	do(t, "GET", f.url("/api/transactions"), f.token, nil, http.StatusOK, &list)
	if len(list) != 0 {
		t.Errorf("rejected requests must not be recorded, got %d", len(list))
	}
}

func TestStockReport(t *testing.T) {
	f := newAPIFixture(t)

	req, _ := authRequest("GET", f.url("/api/reports/stock.xlsx"), f.token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestHealth(t *testing.T) {
	database := db.NewTestDB(t)
	server := httptest.NewServer(HealthHandler(database))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestRegisterAndIntakeValidation(t *testing.T) {
	f := newAPIFixture(t)

	do(t, "POST", f.url("/api/devices"), f.token, map[string]any{
		"model_id": f.laptopModel, "serial": "S404", "warehouse_id": f.warehouseID + 100,
	}, http.StatusNotFound, nil)

	do(t, "POST", f.url("/api/stock/intake"), f.token, map[string]any{
		"pool": model.PoolWarehouse, "location_id": f.warehouseID, "model_id": f.mouseModel, "quantity": model.MaxQuantity,
	}, http.StatusOK, nil)
	do(t, "POST", f.url("/api/stock/intake"), f.token, map[string]any{
		"pool": model.PoolWarehouse, "location_id": f.warehouseID, "model_id": f.mouseModel, "quantity": 1,
	}, http.StatusBadRequest, nil)

	var stock []model.StockEntry
	do(t, "GET", f.url("/api/stock?pool=warehouse&location_id=%d", f.warehouseID), f.token, nil, http.StatusOK, &stock)
	if len(stock) != 1 || stock[0].Quantity != model.MaxQuantity {
		t.Fatalf("unexpected stock: %+v", stock)
	}
}
