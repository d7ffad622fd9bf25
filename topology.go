package ridemap

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	kmPerSpoke = 20.0
	minSpokes  = 2
	maxSpokes  = 8

	chainNodes    = 4
	islandNodes   = 6
	nodesPerSpoke = chainNodes + islandNodes

	// Edge length weights in units of baseKm.
	legWeight     = 1.0
	bossLegWeight = 1.5
	finaleWeight  = 2.0
	// spokeWeight is one representative pass down a spoke: every chain leg,
	// then entry, one middle branch, pre-boss and the boss leg.
	spokeWeight = chainNodes*legWeight + 3*legWeight + bossLegWeight

	minBaseKm = 0.1

	// Baseline grades before difficulty and destination scaling. The boss leg
	// never falls below the spoke's hazard grade.
	chainGrade  = 0.02
	islandGrade = 0.04
	bossGrade   = 0.08
	finaleGrade = 0.06

	// DefaultGradeCap bounds an edge's max grade after all multipliers.
	DefaultGradeCap = 0.25

	hubID    = "hub"
	finishID = "finish"
)

// Layout constants, in normalized map units.
const (
	layoutCenter     = 0.5
	layoutRingStep   = 0.05
	layoutBranchGap  = 0.045
	layoutFinaleRing = 0.12
)

// interiorWeights are the pick weights for standard, event and hard.
var (
	interiorTypes   = [...]NodeType{NodeStandard, NodeEvent, NodeHard}
	interiorWeights = []float64{0.5, 0.3, 0.2}
)

// NumSpokes returns the number of biome spokes for a run of km kilometers.
func NumSpokes(km float64) int {
	n := int(math.Round(km / kmPerSpoke))
	if n < minSpokes {
		return minSpokes
	}
	if n > maxSpokes {
		return maxSpokes
	}
	return n
}

// Generator builds run maps. It holds no per-run state; one Generator may
// serve many runs as long as its Source tolerates the caller's concurrency.
type Generator struct {
	src      Source
	logger   *slog.Logger
	biomes   BiomeTable
	gradeCap float64
	newID    func() string
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource sets the random source used for node types and terrain.
func WithSource(src Source) Option {
	return func(g *Generator) {
		if src != nil {
			g.src = src
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithBiomes sets the biome table used when a RunConfig carries none.
func WithBiomes(t BiomeTable) Option {
	return func(g *Generator) {
		if len(t) > 0 {
			g.biomes = t
		}
	}
}

// WithGradeCap sets the hard ceiling on any edge's max grade.
func WithGradeCap(c float64) Option {
	return func(g *Generator) {
		if c > 0 {
			g.gradeCap = c
		}
	}
}

// NewGenerator returns a Generator with an unseeded source, the default
// logger and the built-in biome table unless overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		src:      RandomSource(),
		logger:   slog.Default(),
		biomes:   DefaultBiomes(),
		gradeCap: DefaultGradeCap,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewRun generates a fresh run for cfg.
func (g *Generator) NewRun(cfg RunConfig) *Run {
	run := &Run{}
	g.Generate(run, cfg)
	return run
}

// Generate builds the full map for cfg into run, replacing any nodes and
// edges it held. The hub becomes the current and only visited node.
//
// Every edge length is a multiple of a single baseKm solved so that one
// representative full clear (down every spoke to its boss, plus the finale)
// sums to cfg.TotalDistanceKm. Riders who take other branches will ride a
// slightly different total.
func (g *Generator) Generate(run *Run, cfg RunConfig) {
	started := time.Now()

	numSpokes := NumSpokes(cfg.TotalDistanceKm)
	totalWeight := float64(numSpokes)*spokeWeight + finaleWeight
	baseKm := math.Max(minBaseKm, cfg.TotalDistanceKm/totalWeight)

	biomes := BiomeTable(cfg.Biomes)
	if len(biomes) == 0 {
		biomes = g.biomes
	}

	b := &graphBuilder{
		gen:    g,
		baseKm: baseKm,
		scale:  cfg.Difficulty.GradeScale(),
		index:  make(map[string]int, numSpokes*nodesPerSpoke+2),
		nodes:  make([]Node, 0, numSpokes*nodesPerSpoke+2),
	}

	b.addNode(Node{ID: hubID, Type: NodeStart, Position: Point{X: layoutCenter, Y: layoutCenter}})

	// One extra angular slot leaves a gap after the last spoke for the finale.
	step := 2 * math.Pi / float64(numSpokes+1)
	for i := 0; i < numSpokes; i++ {
		b.buildSpoke(i, float64(i)*step, biomes.For(i))
	}

	b.addNode(Node{
		ID:       finishID,
		Type:     NodeFinish,
		Floor:    1,
		Position: place(float64(numSpokes)*step, layoutFinaleRing, 0),
	})
	b.connect(hubID, finishID, finaleWeight, finaleGrade, "")

	if run.ID == "" {
		run.ID = g.newID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Config = cfg
	run.Nodes = b.nodes
	run.Edges = b.edges
	run.CurrentNodeID = hubID
	run.Visited = []string{hubID}
	run.RunLength = numSpokes
	run.TotalMapDistanceM = totalWeight * baseKm * 1000

	elapsed := time.Since(started)
	runsGenerated.WithLabelValues(string(cfg.Difficulty)).Inc()
	generateDuration.Observe(elapsed.Seconds())
	g.logger.Info("run map generated",
		"run_id", run.ID,
		"spokes", numSpokes,
		"base_km", baseKm,
		"difficulty", string(cfg.Difficulty),
		"nodes", len(run.Nodes),
		"edges", len(run.Edges),
		"total_map_m", run.TotalMapDistanceM,
		"duration", elapsed,
	)
}

// graphBuilder is the single path through which nodes and edges are created,
// keeping Node.Next and the edge list in step.
type graphBuilder struct {
	gen    *Generator
	baseKm float64
	scale  float64
	index  map[string]int
	nodes  []Node
	edges  []Edge
}

func (b *graphBuilder) addNode(n Node) string {
	n.Next = []string{}
	b.index[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
	return n.ID
}

// connect synthesizes terrain for from -> to and records the edge.
func (b *graphBuilder) connect(from, to string, weight, baseGrade float64, surface Surface) {
	dst := b.nodes[b.index[to]]
	grade := baseGrade * b.scale * destinationMultiplier(dst.Type)
	grade = math.Min(grade, b.gen.gradeCap)

	profile := Synthesize(b.gen.src, b.baseKm*weight, grade, surface)
	b.edges = append(b.edges, Edge{
		ID:      b.gen.newID(),
		From:    from,
		To:      to,
		Profile: profile,
	})
	src := &b.nodes[b.index[from]]
	src.Next = append(src.Next, to)
}

// buildSpoke emits the chain and island for spoke i at angle theta.
func (b *graphBuilder) buildSpoke(i int, theta float64, biome BiomeConfig) {
	id := func(part string) string { return fmt.Sprintf("s%d-%s", i, part) }
	node := func(part string, t NodeType, floor int, perp float64) string {
		return b.addNode(Node{
			ID:       id(part),
			Type:     t,
			Floor:    floor,
			Position: place(theta, float64(floor)*layoutRingStep, perp),
			Biome:    biome.Name,
		})
	}

	prev := hubID
	for k := 0; k < chainNodes; k++ {
		cur := node(fmt.Sprintf("c%d", k), NodeStandard, k+1, 0)
		if k == 0 {
			b.connect(prev, cur, legWeight, biome.HazardGrade, biome.HazardSurface)
		} else {
			b.connect(prev, cur, legWeight, chainGrade, "")
		}
		prev = cur
	}

	floor := chainNodes + 1
	entry := node("entry", b.interiorType(), floor, 0)
	b.connect(prev, entry, legWeight, islandGrade, "")

	floor++
	mids := []string{
		node("left", b.interiorType(), floor, -layoutBranchGap),
		node("shop", NodeShop, floor, 0),
		node("right", b.interiorType(), floor, layoutBranchGap),
	}
	for _, m := range mids {
		b.connect(entry, m, legWeight, islandGrade, "")
	}

	floor++
	pre := node("preboss", b.interiorType(), floor, 0)
	for _, m := range mids {
		b.connect(m, pre, legWeight, islandGrade, "")
	}

	floor++
	boss := node("boss", NodeBoss, floor, 0)
	b.connect(pre, boss, bossLegWeight, math.Max(bossGrade, biome.HazardGrade), "")
}

func (b *graphBuilder) interiorType() NodeType {
	return interiorTypes[pick(b.gen.src, interiorWeights)]
}

// destinationMultiplier steepens edges by the type of node they lead into.
func destinationMultiplier(t NodeType) float64 {
	switch t {
	case NodeHard, NodeElite:
		return 1.5
	case NodeBoss:
		return 2.0
	case NodeFinish:
		return 2.5
	case NodeStart, NodeStandard, NodeShop, NodeEvent:
		return 1.0
	default:
		return 1.0
	}
}

// place converts polar layout coordinates around the hub into a map point.
// radial runs along the spoke, perp across it.
func place(theta, radial, perp float64) Point {
	sin, cos := math.Sincos(theta)
	return Point{
		X: layoutCenter + radial*cos - perp*sin,
		Y: layoutCenter + radial*sin + perp*cos,
	}
}
