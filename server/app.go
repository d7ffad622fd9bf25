package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/meikuraledutech/ridemap"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type createRunRequest struct {
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	Difficulty      string  `json:"difficulty"`
	Seed            *int64  `json:"seed,omitempty"`
}

type clearedRequest struct {
	Cleared bool `json:"cleared"`
}

type positionRequest struct {
	NodeID string `json:"nodeId"`
}

type sample struct {
	DistanceM  float64 `json:"distanceM"`
	ElevationM float64 `json:"elevationM"`
}

// maxSamples bounds the number of points a single profile request may return.
const maxSamples = 100_000

type api struct {
	store  ridemap.Store
	biomes ridemap.BiomeTable
	logger *slog.Logger
	// genOpts configure every generator; seeded requests append a source.
	genOpts []ridemap.Option
	gen     *ridemap.Generator
}

func newApp(store ridemap.Store, biomes ridemap.BiomeTable, logger *slog.Logger, genOpts ...ridemap.Option) *fiber.App {
	a := &api{
		store:   store,
		biomes:  biomes,
		logger:  logger,
		genOpts: genOpts,
		gen:     ridemap.NewGenerator(genOpts...),
	}
	app := fiber.New()

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := a.store.CreateSchema(c.Context()); err != nil {
			return a.fail(c, 500, err)
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := a.store.DropSchema(c.Context()); err != nil {
			return a.fail(c, 500, err)
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Runs ──────────────────────────────────────────────────────────
	app.Post("/runs", a.createRun)

	app.Get("/runs/:id", func(c fiber.Ctx) error {
		run, err := a.store.GetRun(c.Context(), c.Params("id"))
		if err != nil {
			return a.fail(c, 500, err)
		}
		if run == nil {
			return c.Status(404).JSON(fiber.Map{"error": "run not found"})
		}
		return c.JSON(run)
	})

	app.Delete("/runs/:id", func(c fiber.Ctx) error {
		if err := a.store.DeleteRun(c.Context(), c.Params("id")); err != nil {
			return a.fail(c, 500, err)
		}
		return c.SendStatus(204)
	})

	app.Get("/runs/:id/nodes", func(c fiber.Ctx) error {
		nodes, err := a.store.ListNodes(c.Context(), c.Params("id"))
		if err != nil {
			return a.fail(c, 500, err)
		}
		return c.JSON(nodes)
	})

	app.Get("/runs/:id/edges", func(c fiber.Ctx) error {
		edges, err := a.store.ListEdges(c.Context(), c.Params("id"))
		if err != nil {
			return a.fail(c, 500, err)
		}
		return c.JSON(edges)
	})

	app.Put("/runs/:id/position", func(c fiber.Ctx) error {
		var req positionRequest
		if err := c.Bind().JSON(&req); err != nil || req.NodeID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		err := a.store.SetPosition(c.Context(), c.Params("id"), req.NodeID)
		if errors.Is(err, ridemap.ErrRunNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "run not found"})
		}
		if errors.Is(err, ridemap.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return a.fail(c, 500, err)
		}
		return c.SendStatus(204)
	})

	// ── Edges ─────────────────────────────────────────────────────────
	app.Get("/edges/:id", func(c fiber.Ctx) error {
		e, ok, err := a.edge(c)
		if !ok {
			return err
		}
		return c.JSON(e)
	})

	app.Put("/edges/:id/cleared", func(c fiber.Ctx) error {
		var req clearedRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		err := a.store.SetEdgeCleared(c.Context(), c.Params("id"), req.Cleared)
		if errors.Is(err, ridemap.ErrEdgeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "edge not found"})
		}
		if err != nil {
			return a.fail(c, 500, err)
		}
		return c.SendStatus(204)
	})

	app.Get("/edges/:id/profile", func(c fiber.Ctx) error {
		e, ok, err := a.edge(c)
		if !ok {
			return err
		}
		step, err := floatQuery(c, "step", 100)
		if err != nil || step <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "invalid step"})
		}
		if e.Profile.TotalDistanceM()/step > maxSamples {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("step too small, at most %d samples per request", maxSamples)})
		}
		samples := []sample{}
		for d, elev := range ridemap.SampleElevation(e.Profile, step) {
			samples = append(samples, sample{DistanceM: d, ElevationM: elev})
		}
		return c.JSON(fiber.Map{
			"summary": ridemap.Summarize(e.Profile),
			"samples": samples,
		})
	})

	app.Get("/edges/:id/at", func(c fiber.Ctx) error {
		e, ok, err := a.edge(c)
		if !ok {
			return err
		}
		d, err := floatQuery(c, "d", 0)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid distance"})
		}
		surface := ridemap.SurfaceAt(e.Profile, d)
		return c.JSON(fiber.Map{
			"distanceM":         d,
			"grade":             ridemap.GradeAt(e.Profile, d),
			"elevationM":        ridemap.ElevationAt(e.Profile, d),
			"surface":           surface,
			"rollingResistance": ridemap.RollingResistance(surface),
		})
	})

	app.Get("/edges/:id/inverted", func(c fiber.Ctx) error {
		e, ok, err := a.edge(c)
		if !ok {
			return err
		}
		return c.JSON(ridemap.Invert(e.Profile))
	})

	// ── Misc ──────────────────────────────────────────────────────────
	app.Get("/biomes", func(c fiber.Ctx) error {
		return c.JSON(a.biomes)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

func (a *api) createRun(c fiber.Ctx) error {
	var req createRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	difficulty, err := ridemap.ParseDifficulty(req.Difficulty)
	if err != nil {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}
	cfg := ridemap.RunConfig{TotalDistanceKm: req.TotalDistanceKm, Difficulty: difficulty}
	if err := cfg.Validate(); err != nil {
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}

	gen := a.gen
	if req.Seed != nil {
		opts := append(slices.Clone(a.genOpts), ridemap.WithSource(ridemap.SeededSource(*req.Seed)))
		gen = ridemap.NewGenerator(opts...)
	}
	run := gen.NewRun(cfg)

	saved, err := a.store.SaveRun(c.Context(), run)
	if err != nil {
		return a.fail(c, 500, err)
	}
	return c.Status(201).JSON(saved)
}

// edge loads the edge named by the :id param. When ok is false the response
// has already been written and err is the handler's return value.
func (a *api) edge(c fiber.Ctx) (*ridemap.Edge, bool, error) {
	e, err := a.store.GetEdge(c.Context(), c.Params("id"))
	if err != nil {
		return nil, false, a.fail(c, 500, err)
	}
	if e == nil {
		return nil, false, c.Status(404).JSON(fiber.Map{"error": "edge not found"})
	}
	return e, true, nil
}

func (a *api) fail(c fiber.Ctx, status int, err error) error {
	a.logger.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"error", err,
	)
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// floatQuery parses a finite float query parameter, returning def when absent.
func floatQuery(c fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite", key)
	}
	return v, nil
}
