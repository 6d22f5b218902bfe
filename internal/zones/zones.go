// Package zones discovers a round's map zones from its coordinate samples.
// No map metadata is used: zones are grid cells of where play actually
// happened, merged into rectangular blocks of cells when there are too many.
package zones

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/pable/go-cs-tactics/internal/config"
	"github.com/pable/go-cs-tactics/internal/geom"
	"github.com/pable/go-cs-tactics/internal/model"
)

type point struct {
	p    r2.Point
	side model.Side
}

// cellRect is an inclusive block of grid cells.
type cellRect struct{ r0, r1, c0, c1 int }

func (a cellRect) union(b cellRect) cellRect {
	return cellRect{min(a.r0, b.r0), max(a.r1, b.r1), min(a.c0, b.c0), max(a.c1, b.c1)}
}

func (a cellRect) intersects(b cellRect) bool {
	return a.r0 <= b.r1 && b.r0 <= a.r1 && a.c0 <= b.c1 && b.c0 <= a.c1
}

type cluster struct {
	members  []point
	centroid r2.Point
	cells    cellRect // grid cells owned; disjoint across clusters
	order    int      // rank after grid seeding, used for stable tie-breaks
}

func (c *cluster) recenter() {
	var sx, sy float64
	for _, m := range c.members {
		sx += m.p.X
		sy += m.p.Y
	}
	n := float64(len(c.members))
	c.centroid = r2.Point{X: sx / n, Y: sy / n}
}

// Generate returns the zone catalogue for one round. Identical input always
// yields identical zones. Empty input yields no zones.
func Generate(samples []model.TelemetrySample, cfg config.Zones) []model.MapZone {
	pts := downsample(samples, cfg)
	if len(pts) == 0 {
		return nil
	}

	planar := make([]r2.Point, len(pts))
	for i, p := range pts {
		planar[i] = p.p
	}
	bounds := geom.Bounds(planar)
	size := bounds.Size()

	var clusters []*cluster
	if size.X == 0 && size.Y == 0 {
		clusters = []*cluster{{members: pts, centroid: pts[0].p}}
	} else {
		clusters = seedGrid(pts, bounds, cfg.TargetCount)
		clusters = mergeDown(clusters, cfg.TargetCount)
	}
	return publish(clusters, bounds, cfg)
}

// Locate returns the label of the first zone containing p, or Unmapped.
func Locate(zones []model.MapZone, p r2.Point) string {
	for _, z := range zones {
		if z.Contains(p) {
			return z.Label
		}
	}
	return model.Unmapped
}

// downsample keeps every Nth sample. A uniform stride keeps sparse regions
// represented, unlike random sampling.
func downsample(samples []model.TelemetrySample, cfg config.Zones) []point {
	n := len(samples)
	if n == 0 {
		return nil
	}
	stride := cfg.DownsampleStride
	if stride <= 0 {
		maxPts := cfg.MaxClusterSamples
		if maxPts <= 0 {
			maxPts = n
		}
		stride = (n + maxPts - 1) / maxPts
	}
	if stride < 1 {
		stride = 1
	}
	out := make([]point, 0, n/stride+1)
	for i := 0; i < n; i += stride {
		s := samples[i]
		out = append(out, point{p: s.Planar(), side: s.Side})
	}
	return out
}

// seedGrid buckets points into a roughly square grid over bounds; every
// non-empty cell becomes a cluster, largest first.
func seedGrid(pts []point, bounds r2.Rect, target int) []*cluster {
	if target < 1 {
		target = 1
	}
	gridSize := int(math.Ceil(math.Sqrt(float64(target))))
	size := bounds.Size()
	cellW := size.X / float64(gridSize)
	cellH := size.Y / float64(gridSize)

	type cellKey struct{ row, col int }
	cells := make(map[cellKey]*cluster)
	for _, p := range pts {
		k := cellKey{
			row: cellIndex(p.p.Y, bounds.Y.Lo, cellH, gridSize),
			col: cellIndex(p.p.X, bounds.X.Lo, cellW, gridSize),
		}
		c := cells[k]
		if c == nil {
			c = &cluster{cells: cellRect{k.row, k.row, k.col, k.col}}
			cells[k] = c
		}
		c.members = append(c.members, p)
	}

	keys := make([]cellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := cells[keys[i]], cells[keys[j]]
		if len(ci.members) != len(cj.members) {
			return len(ci.members) > len(cj.members)
		}
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	out := make([]*cluster, len(keys))
	for i, k := range keys {
		c := cells[k]
		c.order = i
		c.recenter()
		out[i] = c
	}
	return out
}

func cellIndex(v, lo, width float64, gridSize int) int {
	if width <= 0 {
		return 0
	}
	i := int((v - lo) / width)
	if i >= gridSize {
		i = gridSize - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// mergeDown folds the smallest cluster into its nearest neighbour until at
// most target clusters remain. A merge is only allowed when the combined
// block of cells touches no third cluster, so every cluster keeps a
// rectangular block of cells to itself and published zones overlap by no
// more than their padding. If no such merge exists the remaining clusters
// are kept even when there are more than target.
func mergeDown(clusters []*cluster, target int) []*cluster {
	if target < 1 {
		target = 1
	}
	for len(clusters) > target {
		sortClusters(clusters)
		if !mergeOne(clusters) {
			break
		}
		clusters = compact(clusters)
	}
	sortClusters(clusters)
	return clusters
}

// mergeOne merges the smallest mergeable cluster into its nearest allowed
// neighbour and empties it. It reports whether a merge happened.
func mergeOne(clusters []*cluster) bool {
	for s := len(clusters) - 1; s >= 0; s-- {
		small := clusters[s]
		nearest, best := -1, math.Inf(1)
		var block cellRect
		for i, c := range clusters {
			if i == s {
				continue
			}
			u := c.cells.union(small.cells)
			if !blockFree(clusters, u, i, s) {
				continue
			}
			if d := geom.Distance2D(c.centroid, small.centroid); d < best {
				nearest, best, block = i, d, u
			}
		}
		if nearest < 0 {
			continue
		}
		dst := clusters[nearest]
		dst.members = append(dst.members, small.members...)
		dst.cells = block
		dst.recenter()
		small.members = nil
		return true
	}
	return false
}

func blockFree(clusters []*cluster, block cellRect, skip ...int) bool {
next:
	for i, c := range clusters {
		for _, k := range skip {
			if i == k {
				continue next
			}
		}
		if c.cells.intersects(block) {
			return false
		}
	}
	return true
}

func compact(clusters []*cluster) []*cluster {
	kept := clusters[:0]
	for _, c := range clusters {
		if len(c.members) > 0 {
			kept = append(kept, c)
		}
	}
	return kept
}

func sortClusters(clusters []*cluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		if len(clusters[i].members) != len(clusters[j].members) {
			return len(clusters[i].members) > len(clusters[j].members)
		}
		return clusters[i].order < clusters[j].order
	})
}

// publish turns clusters into padded, named zones.
func publish(clusters []*cluster, bounds r2.Rect, cfg config.Zones) []model.MapZone {
	zones := make([]model.MapZone, len(clusters))
	spawnTaken := map[model.Side]bool{}
	used := map[string]bool{}

	for i, c := range clusters {
		memberPts := make([]r2.Point, len(c.members))
		var countA, countB int
		for j, m := range c.members {
			memberPts[j] = m.p
			switch m.side {
			case model.SideA:
				countA++
			case model.SideB:
				countB++
			}
		}

		z := model.MapZone{
			Bounds:   geom.Bounds(memberPts).ExpandedByMargin(cfg.PaddingMargin),
			Centroid: c.centroid,
			Samples:  len(c.members),
		}

		if side := dominantSide(countA, countB, cfg.SpawnDominance); side != model.SideNone && !spawnTaken[side] {
			spawnTaken[side] = true
			z.Spawn = side
			z.Label = side.String() + " Spawn"
		} else {
			z.Label = positionName(c.centroid, bounds)
		}
		if used[z.Label] {
			z.Label = fallbackName(i, used)
		}
		used[z.Label] = true
		zones[i] = z
	}
	return zones
}

func dominantSide(countA, countB int, threshold float64) model.Side {
	total := countA + countB
	if total == 0 {
		return model.SideNone
	}
	switch {
	case float64(countA)/float64(total) >= threshold:
		return model.SideA
	case float64(countB)/float64(total) >= threshold:
		return model.SideB
	}
	return model.SideNone
}

// positionName describes where c sits inside the round's bounding rectangle.
func positionName(c r2.Point, bounds r2.Rect) string {
	size := bounds.Size()
	nx, ny := 0.5, 0.5
	if size.X > 0 {
		nx = (c.X - bounds.X.Lo) / size.X
	}
	if size.Y > 0 {
		ny = (c.Y - bounds.Y.Lo) / size.Y
	}

	var parts []string
	switch {
	case ny >= 2.0/3:
		parts = append(parts, "North")
	case ny <= 1.0/3:
		parts = append(parts, "South")
	}
	switch {
	case nx <= 1.0/3:
		parts = append(parts, "West")
	case nx >= 2.0/3:
		parts = append(parts, "East")
	}
	if len(parts) == 0 {
		return "Mid"
	}
	return strings.Join(parts, " ")
}

func fallbackName(i int, used map[string]bool) string {
	for n := i + 1; ; n++ {
		name := fmt.Sprintf("Zone %d", n)
		if !used[name] {
			return name
		}
	}
}
