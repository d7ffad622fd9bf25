package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/ridemap"
	"github.com/meikuraledutech/ridemap/postgres"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store ridemap.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Generate a 60 km normal run ───────────────────────────────────
	gen := ridemap.NewGenerator(ridemap.WithSource(ridemap.SeededSource(7)))
	run := gen.NewRun(ridemap.RunConfig{TotalDistanceKm: 60, Difficulty: ridemap.DifficultyNormal})
	fmt.Printf("generated run %s: %d spokes, %d nodes, %d edges, ~%.0f m typical path\n",
		run.ID, run.RunLength, len(run.Nodes), len(run.Edges), run.TotalMapDistanceM)

	saved, err := store.SaveRun(ctx, run)
	if err != nil {
		log.Fatalf("save run: %v", err)
	}

	// ── Retrieve ──────────────────────────────────────────────────────
	result, err := store.GetRun(ctx, saved.ID)
	if err != nil {
		log.Fatalf("get run: %v", err)
	}
	fmt.Printf("\nrun retrieved, current node %s, visited %v\n", result.CurrentNodeID, result.Visited)

	// ── Ride the first edge out of the hub ────────────────────────────
	first := result.Edges[0]
	sum := ridemap.Summarize(first.Profile)
	fmt.Printf("\nedge %s -> %s: %.0f m, +%.1f/-%.1f m\n", first.From, first.To, sum.TotalDistanceM, sum.AscentM, sum.DescentM)
	for d, elev := range ridemap.SampleElevation(first.Profile, first.Profile.TotalDistanceM()/8) {
		fmt.Printf("  %7.1f m  elev %6.2f m  grade %+.3f  %s\n", d, elev,
			ridemap.GradeAt(first.Profile, d), ridemap.SurfaceAt(first.Profile, d))
	}

	if err := store.SetEdgeCleared(ctx, first.ID, true); err != nil {
		log.Fatalf("clear edge: %v", err)
	}
	if err := store.SetPosition(ctx, saved.ID, first.To); err != nil {
		log.Fatalf("set position: %v", err)
	}
	fmt.Printf("\nedge %s cleared, moved to %s\n", first.ID, first.To)

	// ── Final state ───────────────────────────────────────────────────
	final, err := store.GetRun(ctx, saved.ID)
	if err != nil {
		log.Fatalf("get run: %v", err)
	}
	printJSON(map[string]any{
		"currentNodeId": final.CurrentNodeID,
		"visited":       final.Visited,
		"runLength":     final.RunLength,
	})

	// Cleanup
	if err := store.DeleteRun(ctx, saved.ID); err != nil {
		log.Fatalf("delete run: %v", err)
	}
	fmt.Println("\nrun deleted")
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
