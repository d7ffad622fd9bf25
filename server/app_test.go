package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/ridemap"
	"github.com/meikuraledutech/ridemap/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, opts ...ridemap.Option) (*fiber.App, *memory.MemStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	opts = append([]ridemap.Option{
		ridemap.WithSource(ridemap.SeededSource(1)),
		ridemap.WithLogger(logger),
	}, opts...)
	return newApp(store, ridemap.DefaultBiomes(), logger, opts...), store
}

func do(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func createRun(t *testing.T, app *fiber.App, body string) ridemap.Run {
	t.Helper()
	resp, data := do(t, app, http.MethodPost, "/runs", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var run ridemap.Run
	require.NoError(t, json.Unmarshal(data, &run))
	return run
}

func TestCreateAndGetRun(t *testing.T) {
	app, _ := newTestApp(t)
	run := createRun(t, app, `{"totalDistanceKm": 60, "difficulty": "hard"}`)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, ridemap.DifficultyHard, run.Config.Difficulty)
	assert.Equal(t, 3, run.RunLength)
	assert.Equal(t, "hub", run.CurrentNodeID)
	require.NoError(t, ridemap.Validate(&run))

	resp, data := do(t, app, http.MethodGet, "/runs/"+run.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got ridemap.Run
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Len(t, got.Edges, len(run.Edges))

	resp, data = do(t, app, http.MethodGet, "/runs/"+run.ID+"/nodes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var nodes []ridemap.Node
	require.NoError(t, json.Unmarshal(data, &nodes))
	assert.Len(t, nodes, len(run.Nodes))

	resp, data = do(t, app, http.MethodGet, "/runs/"+run.ID+"/edges", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edges []ridemap.Edge
	require.NoError(t, json.Unmarshal(data, &edges))
	assert.Len(t, edges, len(run.Edges))
}

func TestCreateRunSeeded(t *testing.T) {
	app, _ := newTestApp(t)
	a := createRun(t, app, `{"totalDistanceKm": 45, "seed": 7}`)
	b := createRun(t, app, `{"totalDistanceKm": 45, "seed": 7}`)

	assert.NotEqual(t, a.ID, b.ID)
	require.Len(t, b.Edges, len(a.Edges))
	for i := range a.Edges {
		assert.Equal(t, a.Edges[i].Profile.Segments(), b.Edges[i].Profile.Segments())
	}
}

func TestCreateRunRejects(t *testing.T) {
	app, _ := newTestApp(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"totalDistanceKm":`, http.StatusBadRequest},
		{"zero distance", `{"totalDistanceKm": 0}`, http.StatusUnprocessableEntity},
		{"negative distance", `{"totalDistanceKm": -5}`, http.StatusUnprocessableEntity},
		{"unknown difficulty", `{"totalDistanceKm": 10, "difficulty": "brutal"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, app, http.MethodPost, "/runs", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, string(data))
		})
	}
}

func TestSeededRunKeepsGeneratorOptions(t *testing.T) {
	const limit = 0.03
	app, _ := newTestApp(t, ridemap.WithGradeCap(limit))
	run := createRun(t, app, `{"totalDistanceKm": 80, "difficulty": "hard", "seed": 4}`)

	require.NotEmpty(t, run.Edges)
	for _, e := range run.Edges {
		for _, s := range e.Profile.Segments() {
			assert.LessOrEqual(t, math.Abs(s.Grade), limit+1e-12, "edge %s -> %s", e.From, e.To)
		}
	}
}

func TestGetRunNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	resp, _ := do(t, app, http.MethodGet, "/runs/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteRun(t *testing.T) {
	app, _ := newTestApp(t)
	run := createRun(t, app, `{"totalDistanceKm": 20}`)

	resp, _ := do(t, app, http.MethodDelete, "/runs/"+run.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/runs/"+run.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/edges/"+run.Edges[0].ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSetPosition(t *testing.T) {
	app, store := newTestApp(t)
	run := createRun(t, app, `{"totalDistanceKm": 20}`)

	resp, _ := do(t, app, http.MethodPut, "/runs/"+run.ID+"/position", `{"nodeId": "s0-c0"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	got, err := store.GetRun(t.Context(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "s0-c0", got.CurrentNodeID)
	assert.Equal(t, []string{"hub", "s0-c0"}, got.Visited)

	resp, _ = do(t, app, http.MethodPut, "/runs/"+run.ID+"/position", `{"nodeId": "nowhere"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/runs/missing/position", `{"nodeId": "hub"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPut, "/runs/"+run.ID+"/position", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEdgeEndpoints(t *testing.T) {
	app, store := newTestApp(t)
	run := createRun(t, app, `{"totalDistanceKm": 30}`)
	edge, ok := run.EdgeBetween("hub", "s0-c0")
	require.True(t, ok)
	base := "/edges/" + edge.ID

	t.Run("get", func(t *testing.T) {
		resp, data := do(t, app, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got ridemap.Edge
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, edge.Profile.Segments(), got.Profile.Segments())
		assert.Equal(t, edge.Profile.TotalDistanceM(), got.Profile.TotalDistanceM())
	})

	t.Run("profile", func(t *testing.T) {
		resp, data := do(t, app, http.MethodGet, base+"/profile?step=250", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Summary ridemap.ProfileSummary `json:"summary"`
			Samples []sample               `json:"samples"`
		}
		require.NoError(t, json.Unmarshal(data, &body))
		require.NotEmpty(t, body.Samples)
		assert.Zero(t, body.Samples[0].DistanceM)
		assert.InDelta(t, edge.Profile.TotalDistanceM(), body.Samples[len(body.Samples)-1].DistanceM, 1e-9)
		assert.Equal(t, edge.Profile.Len(), body.Summary.Segments)

		for _, step := range []string{"abc", "NaN", "Inf", "-Inf", "0", "-10", "1e-9"} {
			resp, _ = do(t, app, http.MethodGet, base+"/profile?step="+step, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "step=%s", step)
		}
	})

	t.Run("profile step longer than edge", func(t *testing.T) {
		resp, data := do(t, app, http.MethodGet, base+"/profile?step=1e12", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Samples []sample `json:"samples"`
		}
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Len(t, body.Samples, 2)
	})

	t.Run("at", func(t *testing.T) {
		resp, data := do(t, app, http.MethodGet, base+"/at?d=0", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			DistanceM         float64         `json:"distanceM"`
			Grade             float64         `json:"grade"`
			ElevationM        float64         `json:"elevationM"`
			Surface           ridemap.Surface `json:"surface"`
			RollingResistance float64         `json:"rollingResistance"`
		}
		require.NoError(t, json.Unmarshal(data, &body))
		// Every course opens on a flat bookend.
		assert.Zero(t, body.Grade)
		assert.Zero(t, body.ElevationM)
		assert.Equal(t, ridemap.SurfaceAt(edge.Profile, 0), body.Surface)
		assert.Equal(t, ridemap.RollingResistance(body.Surface), body.RollingResistance)

		for _, d := range []string{"x", "NaN", "Inf", "-Inf"} {
			resp, _ = do(t, app, http.MethodGet, base+"/at?d="+d, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "d=%s", d)
		}
	})

	t.Run("inverted", func(t *testing.T) {
		resp, data := do(t, app, http.MethodGet, base+"/inverted", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var inv ridemap.Profile
		require.NoError(t, json.Unmarshal(data, &inv))
		assert.Equal(t, ridemap.Invert(edge.Profile).Segments(), inv.Segments())
	})

	t.Run("cleared", func(t *testing.T) {
		resp, _ := do(t, app, http.MethodPut, base+"/cleared", `{"cleared": true}`)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		got, err := store.GetEdge(t.Context(), edge.ID)
		require.NoError(t, err)
		assert.True(t, got.Cleared)

		resp, _ = do(t, app, http.MethodPut, "/edges/missing/cleared", `{"cleared": true}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing", func(t *testing.T) {
		for _, suffix := range []string{"", "/profile", "/at", "/inverted"} {
			resp, _ := do(t, app, http.MethodGet, "/edges/missing"+suffix, "")
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, suffix)
		}
	})
}

func TestBiomesEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	resp, data := do(t, app, http.MethodGet, "/biomes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var table ridemap.BiomeTable
	require.NoError(t, json.Unmarshal(data, &table))
	assert.Equal(t, ridemap.DefaultBiomes(), table)
}

func TestSchemaEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	run := createRun(t, app, `{"totalDistanceKm": 20}`)

	resp, _ := do(t, app, http.MethodPost, "/schema", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/schema", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/runs/"+run.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	createRun(t, app, `{"totalDistanceKm": 20}`)

	resp, data := do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "ridemap_runs_generated_total")
	assert.Contains(t, string(data), "ridemap_generate_duration_seconds")
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("BIOMES_FILE", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, ridemap.DefaultBiomes(), cfg.Biomes)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biomes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("biomes:\n  - name: steppe\n    hazard_grade: 0.02\n"), 0o600))

	t.Setenv("DATABASE_URL", "postgres://localhost/ridemap")
	t.Setenv("LISTEN_ADDR", ":8080")
	t.Setenv("BIOMES_FILE", path)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/ridemap", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	require.Len(t, cfg.Biomes, 1)
	assert.Equal(t, "steppe", cfg.Biomes[0].Name)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfigBadLevel(t *testing.T) {
	t.Setenv("BIOMES_FILE", "")
	t.Setenv("LOG_LEVEL", "loud")
	_, err := loadConfig()
	assert.Error(t, err)
}
