package config_test

import (
	"strings"
	"testing"

	"github.com/samirrijal/mapbuffer/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("mapbuffer-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Geometry.Kernel != "planar" || cfg.Geometry.CircleSegments != 64 {
		t.Errorf("unexpected geometry defaults %+v", cfg.Geometry)
	}
	if cfg.Layers.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Layers.Backend)
	}
	if cfg.Valkey.Prefix != "mapbuffer:" || cfg.NATS.Durable != "mapbuffer-layer-events" {
		t.Errorf("unexpected backend defaults %+v %+v", cfg.Valkey, cfg.NATS)
	}
	if cfg.Telemetry.ServiceName != "mapbuffer-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAPBUFFER_GEOMETRY_KERNEL", "geodesic")
	t.Setenv("MAPBUFFER_SERVER_PORT", "9090")

	cfg, err := config.Load("mapbuffer-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Geometry.Kernel != "geodesic" {
		t.Errorf("expected geodesic, got %q", cfg.Geometry.Kernel)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected 9090, got %d", cfg.Server.Port)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 0, ReadTimeout: 10, WriteTimeout: 10},
		Layers:   config.LayersConfig{Backend: "redis"},
		Geometry: config.GeometryConfig{Kernel: "spherical", CircleSegments: 4, UnitsPerKm: 1},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "layers.backend", "geometry.kernel", "circle_segments"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestValidate_PostgresNeedsDatabase(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Layers:   config.LayersConfig{Backend: "postgres"},
		Geometry: config.GeometryConfig{Kernel: "planar", CircleSegments: 64, UnitsPerKm: 1},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "database.host") {
		t.Fatalf("expected database.host error, got %v", err)
	}
}
