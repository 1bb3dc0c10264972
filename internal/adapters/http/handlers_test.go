package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	apphttp "github.com/samirrijal/mapbuffer/internal/adapters/http"
	"github.com/samirrijal/mapbuffer/internal/adapters/kernel"
	"github.com/samirrijal/mapbuffer/internal/adapters/memory"
	"github.com/samirrijal/mapbuffer/internal/adapters/render"
	"github.com/samirrijal/mapbuffer/internal/core/usecases"
)

func newTestApp() *fiber.App {
	store := memory.NewLayerStore()
	layers := usecases.NewLayerService(store, nil)
	deps := &apphttp.Dependencies{
		Layers:   layers,
		Buffers:  usecases.NewBufferService(store, kernel.NewPlanar(64, 1), nil, nil, 0),
		Queries:  usecases.NewQueryService(layers),
		Previews: usecases.NewPreviewService(layers, render.NewPreview(), nil, 0),
		Version:  "test",
	}
	app := fiber.New()
	apphttp.SetupRoutes(app, deps)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte, http.Header) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data, resp.Header
}

func decodeError(t *testing.T, data []byte) apphttp.APIError {
	t.Helper()
	var e apphttp.APIError
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("invalid error body %s: %v", data, err)
	}
	return e
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		path string
		want string
	}{
		{"/v1/health", `"status":"healthy"`},
		{"/v1/ready", `"status":"ready"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body, _ := do(t, app, "GET", tt.path, "")
			if code != fiber.StatusOK {
				t.Fatalf("expected 200, got %d: %s", code, body)
			}
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("expected %s in %s", tt.want, body)
			}
		})
	}
}

func TestLayerLifecycle(t *testing.T) {
	app := newTestApp()

	code, body, _ := do(t, app, "POST", "/v1/layers", `{"id":"roads","z_index":3}`)
	if code != fiber.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", code, body)
	}

	code, body, _ = do(t, app, "POST", "/v1/layers", `{"id":"roads"}`)
	if code != fiber.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", code)
	}
	if e := decodeError(t, body); e.Code != "conflict" {
		t.Errorf("expected conflict code, got %q", e.Code)
	}

	code, body, _ = do(t, app, "GET", "/v1/layers/roads", "")
	if code != fiber.StatusOK {
		t.Fatalf("get: expected 200, got %d", code)
	}
	var layer struct {
		ID      string `json:"id"`
		ZIndex  int    `json:"z_index"`
		Visible bool   `json:"visible"`
	}
	if err := json.Unmarshal(body, &layer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if layer.ID != "roads" || layer.ZIndex != 3 || !layer.Visible {
		t.Errorf("unexpected layer %+v", layer)
	}

	code, _, _ = do(t, app, "PUT", "/v1/layers/roads/visibility", `{"visible":false}`)
	if code != fiber.StatusOK {
		t.Fatalf("visibility: expected 200, got %d", code)
	}

	code, _, _ = do(t, app, "DELETE", "/v1/layers/roads", "")
	if code != fiber.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", code)
	}

	code, body, _ = do(t, app, "GET", "/v1/layers/roads", "")
	if code != fiber.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
	if e := decodeError(t, body); e.Code != "not_found" || e.Status != 404 {
		t.Errorf("unexpected error body %+v", e)
	}
}

func TestListLayersPagination(t *testing.T) {
	app := newTestApp()
	for _, id := range []string{"a1", "a2", "a3"} {
		if code, body, _ := do(t, app, "POST", "/v1/layers", `{"id":"`+id+`"}`); code != fiber.StatusCreated {
			t.Fatalf("create %s: %d %s", id, code, body)
		}
	}

	code, body, hdr := do(t, app, "GET", "/v1/layers?q=a&limit=2", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var page struct {
		Data       []json.RawMessage  `json:"data"`
		Pagination apphttp.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Data) != 2 || page.Pagination.Total != 3 {
		t.Errorf("expected 2 of 3 layers, got %d of %d", len(page.Data), page.Pagination.Total)
	}
	link := hdr.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "q=a") {
		t.Errorf("unexpected Link header %q", link)
	}
}

func TestBufferLine(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"left", `{"layer_id":"buf","mode":"left","distance_km":1,"coordinates":[[0,0],[0,10]]}`, fiber.StatusCreated},
		{"side alias", `{"layer_id":"buf","mode":"side","distance_km":1,"coordinates":[[0,0],[0,10]]}`, fiber.StatusCreated},
		{"missing mode", `{"layer_id":"buf","distance_km":1,"coordinates":[[0,0],[0,10]]}`, fiber.StatusBadRequest},
		{"unknown mode", `{"layer_id":"buf","mode":"up","distance_km":1,"coordinates":[[0,0],[0,10]]}`, fiber.StatusBadRequest},
		{"zero distance", `{"layer_id":"buf","mode":"around","distance_km":0,"coordinates":[[0,0],[0,10]]}`, fiber.StatusBadRequest},
		{"no geometry", `{"layer_id":"buf","mode":"around","distance_km":1}`, fiber.StatusBadRequest},
		{"bad json", `{`, fiber.StatusBadRequest},
		{"missing reference", `{"layer_id":"buf","mode":"left","distance_km":1,"feature":{"layer_id":"nope","feature_id":"x"}}`, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			code, body, _ := do(t, app, "POST", "/v1/buffers/line", tt.body)
			if code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, code, body)
			}
		})
	}
}

func TestBufferLineStoresFeature(t *testing.T) {
	app := newTestApp()

	code, body, _ := do(t, app, "POST", "/v1/buffers/line",
		`{"layer_id":"buf","mode":"right","distance_km":1,"coordinates":[[0,0],[0,10]]}`)
	if code != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, body)
	}
	var f struct {
		Type     string `json:"type"`
		Geometry struct {
			Type string `json:"type"`
		} `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	}
	if err := json.Unmarshal(body, &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != "Feature" || f.Geometry.Type != "Polygon" || f.Properties["mode"] != "right" {
		t.Errorf("unexpected feature %s", body)
	}

	code, body, hdr := do(t, app, "GET", "/v1/layers/buf/features", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got := hdr.Get("X-Total-Count"); got != "1" {
		t.Errorf("expected X-Total-Count 1, got %q", got)
	}
	if !strings.Contains(string(body), `"FeatureCollection"`) {
		t.Errorf("expected a FeatureCollection, got %s", body)
	}
}

func TestBufferRoutesAreUnderBuffers(t *testing.T) {
	app := newTestApp()

	code, _, _ := do(t, app, "POST", "/v1/buffer",
		`{"layer_id":"buf","mode":"around","distance_km":1,"coordinates":[[0,0],[0,10]]}`)
	if code != fiber.StatusNotFound {
		t.Errorf("expected 404 for /v1/buffer, got %d", code)
	}
}

func TestBufferLineIncludeLine(t *testing.T) {
	app := newTestApp()

	code, body, _ := do(t, app, "POST", "/v1/buffers/line",
		`{"layer_id":"buf","mode":"flat","distance_km":1,"include_line":true,"coordinates":[[0,0],[0,10]]}`)
	if code != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, body)
	}
	_, _, hdr := do(t, app, "GET", "/v1/layers/buf/features", "")
	if got := hdr.Get("X-Total-Count"); got != "2" {
		t.Errorf("expected X-Total-Count 2, got %q", got)
	}
}

func TestCompose(t *testing.T) {
	app := newTestApp()

	code, body, _ := do(t, app, "POST", "/v1/buffers/compose", `{"distance_km":1,"coordinates":[[0,0],[0,10]]}`)
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	var res map[string]json.RawMessage
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mode := range []string{"around", "flat", "left", "right"} {
		if _, ok := res[mode]; !ok {
			t.Errorf("missing %s buffer", mode)
		}
	}

	// nothing is stored
	code, body, _ = do(t, app, "GET", "/v1/layers", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(string(body), `"total":0`) {
		t.Errorf("compose created layers: %s", body)
	}
}

func TestPointIn(t *testing.T) {
	app := newTestApp()
	square := `[[[0,0],[4,0],[4,4],[0,4],[0,0]]]`

	tests := []struct {
		name  string
		point string
		want  string
	}{
		{"inside", "[1,1]", `"inside":true`},
		{"outside", "[5,5]", `"inside":false`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body, _ := do(t, app, "POST", "/v1/queries/point-in", `{"point":`+tt.point+`,"polygon":`+square+`}`)
			if code != fiber.StatusOK {
				t.Fatalf("expected 200, got %d: %s", code, body)
			}
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("expected %s, got %s", tt.want, body)
			}
		})
	}
}

func TestPreviewPNG(t *testing.T) {
	app := newTestApp()
	if code, body, _ := do(t, app, "POST", "/v1/buffers/line",
		`{"layer_id":"buf","mode":"flat","distance_km":1,"coordinates":[[0,0],[0,10]]}`); code != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", code, body)
	}

	code, body, hdr := do(t, app, "GET", "/v1/layers/buf/preview.png?width=64&height=64", "")
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, body)
	}
	if ct := hdr.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Error("body is not a PNG")
	}

	if code, _, _ := do(t, app, "GET", "/v1/layers/buf/preview.png?width=4", ""); code != fiber.StatusBadRequest {
		t.Errorf("expected 400 for tiny preview, got %d", code)
	}
}

func TestGraphQLLayers(t *testing.T) {
	app := newTestApp()
	if code, _, _ := do(t, app, "POST", "/v1/layers", `{"id":"parks"}`); code != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	code, body, _ := do(t, app, "POST", "/graphql", `{"query":"{ layers { id visible } }"}`)
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(string(body), `"id":"parks"`) {
		t.Errorf("expected parks layer in %s", body)
	}
}

func TestNearbyRequiresCoordinates(t *testing.T) {
	app := newTestApp()

	code, body, _ := do(t, app, "GET", "/v1/layers/pts/nearby?lon=200&lat=0", "")
	if code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", code, body)
	}
	code, _, _ = do(t, app, "GET", "/v1/layers/pts/nearby", "")
	if code != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
