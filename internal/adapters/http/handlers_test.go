package http_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/yuwankavi/Gas-Project/internal/adapters/http"
	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/core/spatial"
	"github.com/yuwankavi/Gas-Project/internal/core/usecases"
)

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
	})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Sellers: usecases.NewSellerService(spatial.New(), nil, nil, nil, "test", 0),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func createSeller(t *testing.T, app *fiber.App, name string, lng, lat float64) domain.Seller {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"address":"%s street","location":{"type":"Point","coordinates":[%g,%g]}}`,
		name, name, lng, lat)
	req := httptest.NewRequest("POST", "/api/sellers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var s domain.Seller
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	return s
}

func get(t *testing.T, app *fiber.App, url string) (int, []byte, map[string]string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", url, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, readBody(t, resp.Body), headers
}

func decodeNames(t *testing.T, body []byte) []string {
	t.Helper()
	var sellers []domain.Seller
	if err := json.Unmarshal(body, &sellers); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	out := make([]string, len(sellers))
	for i, s := range sellers {
		out[i] = s.Name
	}
	return out
}

// ---- Create ----

func TestCreateSeller_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"id":"client-id","name":"Kiosk","address":"1 Main St","location":{"type":"Point","coordinates":[13.4,52.5]}}`
	req := httptest.NewRequest("POST", "/api/sellers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var s domain.Seller
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.ID == "" || s.ID == "client-id" {
		t.Errorf("expected server-assigned id, got %q", s.ID)
	}
	if s.Name != "Kiosk" || s.Location == nil || s.Location.Lon != 13.4 || s.Location.Lat != 52.5 {
		t.Errorf("unexpected seller: %+v", s)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/sellers/"+s.ID {
		t.Errorf("expected Location header, got %q", loc)
	}
}

func TestCreateSeller_Invalid(t *testing.T) {
	app := setupApp(makeDeps())

	testCases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing name", `{"address":"x","location":{"type":"Point","coordinates":[0,0]}}`},
		{"missing address", `{"name":"x","location":{"type":"Point","coordinates":[0,0]}}`},
		{"missing location", `{"name":"x","address":"y"}`},
		{"latitude out of range", `{"name":"x","address":"y","location":{"type":"Point","coordinates":[0,91]}}`},
		{"wrong geometry", `{"name":"x","address":"y","location":{"type":"LineString","coordinates":[0,0]}}`},
		{"short coordinates", `{"name":"x","address":"y","location":{"type":"Point","coordinates":[0]}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/sellers", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req, -1)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var apiErr handler.APIError
			json.NewDecoder(resp.Body).Decode(&apiErr)
			if apiErr.Code != "bad_request" || apiErr.Message == "" {
				t.Errorf("unexpected error body: %+v", apiErr)
			}
		})
	}
}

// ---- Nearby ----

func TestNearbySellers_DefaultRadius(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "A", 0, 0)
	createSeller(t, app, "close", 0.03, 0) // ~3.3 km
	createSeller(t, app, "B", 1, 0)        // ~111 km

	status, body, _ := get(t, app, "/api/sellers/nearby?lng=0&lat=0")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	got := decodeNames(t, body)
	if strings.Join(got, ",") != "A,close" {
		t.Errorf("expected [A close], got %v", got)
	}
	if strings.Contains(string(body), `"distance"`) {
		t.Errorf("expected no distance without withDistance, got %s", body)
	}
}

func TestNearbySellers_MaxDistanceInMeters(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "A", 0, 0)
	createSeller(t, app, "B", 1, 0)

	_, body, _ := get(t, app, "/api/sellers/nearby?lng=0&lat=0&maxDistance=50000")
	if got := decodeNames(t, body); strings.Join(got, ",") != "A" {
		t.Errorf("50 km: expected [A], got %v", got)
	}

	_, body, _ = get(t, app, "/api/sellers/nearby?lng=0&lat=0&maxDistance=200000")
	if got := decodeNames(t, body); strings.Join(got, ",") != "A,B" {
		t.Errorf("200 km: expected [A B], got %v", got)
	}
}

func TestNearbySellers_WithDistance(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "A", 0, 0)
	createSeller(t, app, "B", 1, 0)

	status, body, _ := get(t, app, "/api/sellers/nearby?lng=0&lat=0&maxDistance=200000&withDistance=true")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var hits []struct {
		Name     string  `json:"name"`
		Distance float64 `json:"distance"`
	}
	if err := json.Unmarshal(body, &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].Distance != 0 || hits[1].Distance != 111.19 {
		t.Errorf("unexpected annotated hits: %+v", hits)
	}
}

func TestNearbySellers_EmptyResultIsArray(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/api/sellers/nearby?lng=10&lat=10")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestNearbySellers_BadParams(t *testing.T) {
	app := setupApp(makeDeps())

	for _, url := range []string{
		"/api/sellers/nearby",
		"/api/sellers/nearby?lng=0",
		"/api/sellers/nearby?lat=0",
		"/api/sellers/nearby?lng=abc&lat=0",
		"/api/sellers/nearby?lng=0&lat=95",
		"/api/sellers/nearby?lng=200&lat=0",
		"/api/sellers/nearby?lng=NaN&lat=0",
		"/api/sellers/nearby?lng=0&lat=0&maxDistance=-1",
		"/api/sellers/nearby?lng=0&lat=0&maxDistance=far",
		"/api/sellers/nearby?lng=0&lat=0&maxDistance=Inf",
	} {
		status, body, _ := get(t, app, url)
		if status != 400 {
			t.Errorf("%s: expected 400, got %d", url, status)
			continue
		}
		var apiErr handler.APIError
		json.Unmarshal(body, &apiErr)
		if apiErr.Code != "bad_request" {
			t.Errorf("%s: expected bad_request, got %q", url, apiErr.Code)
		}
	}
}

func TestNearbySellers_ZeroLatitudeIsPresent(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "equator", 5, 0)

	status, body, _ := get(t, app, "/api/sellers/nearby?lng=5&lat=0&maxDistance=0")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if got := decodeNames(t, body); len(got) != 1 {
		t.Errorf("expected the coincident seller, got %v", got)
	}
}

// ---- Legacy aliases ----

func TestNearSellers_UnboundedWithoutMaxDistance(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "C", 10, 10)
	createSeller(t, app, "A", 0, 0)
	createSeller(t, app, "B", 1, 0)

	status, body, headers := get(t, app, "/api/sellers/near?lng=0&lat=0")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if got := decodeNames(t, body); strings.Join(got, ",") != "A,B,C" {
		t.Errorf("expected [A B C], got %v", got)
	}
	if headers["Deprecation"] != "true" {
		t.Errorf("expected Deprecation header, got %q", headers["Deprecation"])
	}
	if !strings.Contains(headers["Link"], "/api/sellers/nearby") {
		t.Errorf("expected successor link, got %q", headers["Link"])
	}
}

func TestNearbyWithDistance_AlwaysAnnotates(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "A", 0, 0)

	status, body, headers := get(t, app, "/api/sellers/nearby-with-distance?lng=0&lat=0")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"distance":0`) {
		t.Errorf("expected distance field, got %s", body)
	}
	if headers["Sunset"] == "" {
		t.Error("expected Sunset header")
	}
}

func TestNearbySellers_NotDeprecated(t *testing.T) {
	app := setupApp(makeDeps())

	_, _, headers := get(t, app, "/api/sellers/nearby?lng=0&lat=0")
	if headers["Deprecation"] != "" {
		t.Errorf("nearby must not be marked deprecated, got %q", headers["Deprecation"])
	}
}

// ---- Get / List ----

func TestGetSeller_Success(t *testing.T) {
	app := setupApp(makeDeps())
	created := createSeller(t, app, "Moyua", -2.935, 43.263)

	status, body, headers := get(t, app, "/api/sellers/"+created.ID)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var s domain.Seller
	json.Unmarshal(body, &s)
	if s.Name != "Moyua" {
		t.Errorf("expected Moyua, got %s", s.Name)
	}
	if !strings.Contains(headers["Cache-Control"], "immutable") {
		t.Errorf("expected immutable Cache-Control, got %q", headers["Cache-Control"])
	}
}

func TestGetSeller_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/api/sellers/nonexistent-id")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	var apiErr handler.APIError
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %q", apiErr.Code)
	}
}

func TestListSellers_RegistrationOrder(t *testing.T) {
	app := setupApp(makeDeps())
	for i := 0; i < 3; i++ {
		createSeller(t, app, fmt.Sprintf("s%d", i), float64(i), 0)
	}

	status, body, headers := get(t, app, "/api/sellers")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if got := decodeNames(t, body); strings.Join(got, ",") != "s0,s1,s2" {
		t.Errorf("expected registration order, got %v", got)
	}
	if headers["Cache-Control"] != "no-cache" {
		t.Errorf("expected no-cache, got %q", headers["Cache-Control"])
	}
}

func TestNearbySellers_ETagRevalidation(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "A", 0, 0)

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/sellers/nearby?lng=0&lat=0", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/api/sellers/nearby?lng=0&lat=0", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != fiber.StatusNotModified {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())
	createSeller(t, app, "A", 0, 0)

	status, body, _ := get(t, app, "/health")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result map[string]interface{}
	json.Unmarshal(body, &result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", result["status"])
	}
	if result["sellers"] != float64(1) {
		t.Errorf("expected 1 seller, got %v", result["sellers"])
	}
}

func TestReady_NoBackends(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/ready")
	if status != 200 {
		t.Fatalf("expected 200 with nothing configured, got %d", status)
	}
	if !strings.Contains(string(body), "not configured") {
		t.Errorf("expected not configured checks, got %s", body)
	}
}

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	_, _, headers := get(t, app, "/health")
	if headers["X-Api-Version"] != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", headers["X-Api-Version"])
	}
	if headers["X-Content-Type-Options"] != "nosniff" {
		t.Errorf("expected nosniff, got %q", headers["X-Content-Type-Options"])
	}
}

func TestRateLimit(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.RateLimit = 2 }))

	for i := 0; i < 2; i++ {
		if status, _, _ := get(t, app, "/health"); status != 200 {
			t.Fatalf("request %d: expected 200, got %d", i, status)
		}
	}
	status, body, _ := get(t, app, "/health")
	if status != 429 {
		t.Fatalf("expected 429, got %d", status)
	}
	if !strings.Contains(string(body), "rate_limited") {
		t.Errorf("expected rate_limited code, got %s", body)
	}
}

// ---- GraphQL ----

func postGraphQL(t *testing.T, app *fiber.App, query string) map[string]interface{} {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	return result
}

func TestGraphQL_CreateAndNearby(t *testing.T) {
	app := setupApp(makeDeps())

	result := postGraphQL(t, app, `mutation { createSeller(name: "A", address: "1 St", lng: 0, lat: 0) { id name } }`)
	if result["errors"] != nil {
		t.Fatalf("unexpected errors: %v", result["errors"])
	}
	postGraphQL(t, app, `mutation { createSeller(name: "B", address: "2 St", lng: 1, lat: 0) { id } }`)

	result = postGraphQL(t, app, `{ sellersNearby(lng: 0, lat: 0, maxDistance: 200000, withDistance: true) { name distance location { lng lat } } }`)
	data := result["data"].(map[string]interface{})
	hits := data["sellersNearby"].([]interface{})
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	second := hits[1].(map[string]interface{})
	if second["name"] != "B" || second["distance"] != 111.19 {
		t.Errorf("unexpected second hit: %v", second)
	}
}

func TestGraphQL_ValidationErrorSurfaces(t *testing.T) {
	app := setupApp(makeDeps())

	result := postGraphQL(t, app, `{ sellersNearby(lng: 0, lat: 95) { name } }`)
	errs, ok := result["errors"].([]interface{})
	if !ok || len(errs) == 0 {
		t.Fatalf("expected errors, got %v", result)
	}
	msg := errs[0].(map[string]interface{})["message"].(string)
	if !strings.Contains(msg, "latitude") {
		t.Errorf("expected latitude message, got %q", msg)
	}
}

func TestGraphQL_BadBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader("not json"))
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- WebSocket ----

func TestWatch_RequiresNATS(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, _ := get(t, app, "/ws/sellers?lng=0&lat=0")
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()

	app.Use(handler.AccessLogMiddleware())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
