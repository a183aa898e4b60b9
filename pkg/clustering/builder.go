// Package clustering groups contact records into duplicate clusters.
//
// Every pair of records may be compared, so a run costs O(n²) comparisons, each up to
// O(L²) for the name edit distance. That is fine for address-book sized inputs (hundreds
// to low thousands of records) and is the scaling ceiling of this package. Callers should
// run large builds off latency-sensitive paths.
package clustering

import (
	"context"
	"fmt"
	"sort"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/fingerprint"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/scoring"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Strategy selects how pairwise matches become groups
type Strategy string

const (
	// StrategySeedAnchored compares candidates only against the group's seed record.
	// Chained duplicates (A~B, B~C, A!~C) may land in one group or be split depending
	// on seed order.
	StrategySeedAnchored Strategy = "seed_anchored"
	// StrategyUnionFind groups the transitive closure of the duplicate relation.
	StrategyUnionFind Strategy = "union_find"
)

// ParseStrategy converts a configuration value into a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategySeedAnchored:
		return StrategySeedAnchored, nil
	case StrategyUnionFind:
		return StrategyUnionFind, nil
	default:
		return "", fmt.Errorf("unknown cluster strategy %q", s)
	}
}

// Options configures a Builder
type Options struct {
	Strategy Strategy
	// Parallelism > 1 evaluates all pairs concurrently before grouping. The grouping pass
	// itself stays sequential, so results are identical to a sequential build.
	Parallelism int
	Scoring     scoring.Options
}

// DefaultOptions returns the seed-anchored, sequential configuration
func DefaultOptions() Options {
	return Options{
		Strategy:    StrategySeedAnchored,
		Parallelism: 1,
	}
}

// Builder groups records into duplicate clusters
type Builder struct {
	logger  ectologger.Logger
	options Options
}

// NewBuilder creates a new cluster builder
func NewBuilder(logger ectologger.Logger, options Options) *Builder {
	if options.Strategy == "" {
		options.Strategy = StrategySeedAnchored
	}
	if options.Parallelism < 1 {
		options.Parallelism = 1
	}
	return &Builder{
		logger:  logger,
		options: options,
	}
}

// Strategy returns the configured grouping strategy
func (b *Builder) Strategy() Strategy {
	return b.options.Strategy
}

// Build groups the records, in their given order, into duplicate groups of two or more.
// Members are ordered by completeness score descending and groups by size descending,
// both stable. The input is never modified.
func (b *Builder) Build(ctx context.Context, records []models.ContactRecord) ([]models.DuplicateGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "clustering.Builder.Build")
	defer span.End()

	profiles := make([]matching.Profile, len(records))
	for i := range records {
		profiles[i] = matching.NewProfile(records[i])
	}

	match := func(i, j int) bool {
		return matching.MatchProfiles(profiles[i], profiles[j]) != matching.ReasonNone
	}
	if b.options.Parallelism > 1 && len(records) > 1 {
		matrix, err := b.pairMatrix(ctx, profiles)
		if err != nil {
			return nil, err
		}
		match = matrix.matches
	}

	var (
		components [][]int
		err        error
	)
	switch b.options.Strategy {
	case StrategyUnionFind:
		components, err = unionFind(ctx, len(records), match)
	default:
		components, err = seedAnchored(ctx, len(records), match)
	}
	if err != nil {
		return nil, err
	}

	groups := make([]models.DuplicateGroup, 0, len(components))
	for _, component := range components {
		if len(component) < 2 {
			continue
		}
		members := make([]models.ContactRecord, len(component))
		for i, idx := range component {
			members[i] = records[idx]
		}
		ranked, scores := scoring.Rank(members, b.options.Scoring)
		group := models.DuplicateGroup{
			Members: ranked,
			Scores:  scores,
		}
		group.Key = fingerprint.GroupKey(group.MemberIDs())
		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Size() > groups[j].Size()
	})

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"record_count": len(records),
		"group_count":  len(groups),
		"strategy":     b.options.Strategy,
		"parallelism":  b.options.Parallelism,
	}).Debug("Built duplicate groups")

	return groups, nil
}

// seedAnchored walks the records in order. Each unvisited record seeds a group and claims
// every later unvisited record that matches the seed itself.
func seedAnchored(ctx context.Context, n int, match func(i, j int) bool) ([][]int, error) {
	visited := make([]bool, n)
	components := make([][]int, 0)

	for seed := 0; seed < n; seed++ {
		if visited[seed] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		visited[seed] = true
		component := []int{seed}

		// every record before the seed is already visited
		for other := seed + 1; other < n; other++ {
			if visited[other] {
				continue
			}
			if match(seed, other) {
				component = append(component, other)
				visited[other] = true
			}
		}
		components = append(components, component)
	}

	return components, nil
}

// unionFind joins every matching pair and returns the connected components ordered by
// their first record, members in input order.
func unionFind(ctx context.Context, n int, match func(i, j int) bool) ([][]int, error) {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			if !match(i, j) {
				continue
			}
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			// the smaller index stays root so component order follows input order
			if ri < rj {
				parent[rj] = ri
			} else {
				parent[ri] = rj
			}
		}
	}

	positions := make(map[int]int)
	components := make([][]int, 0)
	for i := 0; i < n; i++ {
		root := find(i)
		pos, ok := positions[root]
		if !ok {
			pos = len(components)
			positions[root] = pos
			components = append(components, nil)
		}
		components[pos] = append(components[pos], i)
	}

	return components, nil
}

// pairMatrix holds the upper triangle of the pairwise duplicate relation
type pairMatrix struct {
	rows [][]bool
}

func (m *pairMatrix) matches(i, j int) bool {
	if i > j {
		i, j = j, i
	}
	if i == j {
		return false
	}
	return m.rows[i][j-i-1]
}

// pairMatrix evaluates every pair concurrently, one row per task
func (b *Builder) pairMatrix(ctx context.Context, profiles []matching.Profile) (*pairMatrix, error) {
	ctx, span := tracing.StartSpan(ctx, "clustering.Builder.pairMatrix")
	defer span.End()

	n := len(profiles)
	matrix := &pairMatrix{rows: make([][]bool, n)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.Parallelism)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]bool, n-i-1)
			for j := i + 1; j < n; j++ {
				row[j-i-1] = matching.MatchProfiles(profiles[i], profiles[j]) != matching.ReasonNone
			}
			matrix.rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matrix, nil
}
