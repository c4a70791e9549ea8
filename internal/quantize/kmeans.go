package quantize

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/maax3v3/colorbynumber/internal/grid"
)

// point is a color in RGB space.
type point [3]float64

func distSq(a, b point) float64 {
	d0 := a[0] - b[0]
	d1 := a[1] - b[1]
	d2 := a[2] - b[2]
	return d0*d0 + d1*d1 + d2*d2
}

// clustering is the outcome of one k-means fit.
type clustering struct {
	centers    []point
	assign     []int // point index -> cluster
	inertia    float64
	iterations int
}

// kmeans fits k centers to weighted points. Every random draw comes from a
// PCG stream seeded with seed, so identical input gives identical output.
// The best of restarts runs (lowest inertia, earlier run on ties) wins.
func kmeans(points []point, weights []float64, k int, seed uint64, restarts, maxIter int, tol float64) clustering {
	rng := rand.New(rand.NewPCG(seed, seed))
	tolAbs := tol * meanVariance(points, weights)

	var best clustering
	for run := 0; run < max(1, restarts); run++ {
		centers := initPlusPlus(points, weights, k, rng)
		c := lloyd(points, weights, centers, maxIter, tolAbs)
		if run == 0 || c.inertia < best.inertia {
			best = c
		}
	}
	return best
}

// meanVariance is the mean over channels of the weighted variance, the
// scale the convergence tolerance is relative to.
func meanVariance(points []point, weights []float64) float64 {
	if len(points) < 2 {
		return 0
	}
	ch := make([]float64, len(points))
	var total float64
	for c := 0; c < 3; c++ {
		for i, p := range points {
			ch[i] = p[c]
		}
		v := stat.Variance(ch, weights)
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total / 3
}

// initPlusPlus seeds centers with k-means++: the first center is drawn in
// proportion to weight, each next one in proportion to weight times the
// squared distance to the closest chosen center. When every point already
// coincides with a center the last center is repeated; duplicates lose every
// tie in assignment and end up as empty clusters.
func initPlusPlus(points []point, weights []float64, k int, rng *rand.Rand) []point {
	centers := make([]point, 0, k)
	centers = append(centers, points[weightedPick(weights, floats.Sum(weights), rng)])

	closest := make([]float64, len(points))
	for i, p := range points {
		closest[i] = distSq(p, centers[0])
	}

	scores := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i := range points {
			scores[i] = weights[i] * closest[i]
			total += scores[i]
		}
		if total == 0 {
			centers = append(centers, centers[len(centers)-1])
			continue
		}
		next := points[weightedPick(scores, total, rng)]
		centers = append(centers, next)
		for i, p := range points {
			if d := distSq(p, next); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centers
}

func weightedPick(scores []float64, total float64, rng *rand.Rand) int {
	target := rng.Float64() * total
	var cumulative float64
	for i, s := range scores {
		cumulative += s
		if cumulative > target {
			return i
		}
	}
	// Rounding can leave target just above the running sum.
	for i := len(scores) - 1; i >= 0; i-- {
		if scores[i] > 0 {
			return i
		}
	}
	return 0
}

// lloyd refines centers until the total squared center shift drops to
// tolAbs or maxIter is reached, then performs a final assignment.
func lloyd(points []point, weights []float64, centers []point, maxIter int, tolAbs float64) clustering {
	k := len(centers)
	assign := make([]int, len(points))
	iterations := 0

	for iter := 0; iter < maxIter; iter++ {
		iterations++
		assignNearest(points, centers, assign)

		sums := make([]point, k)
		counts := make([]float64, k)
		for i, p := range points {
			c := assign[i]
			w := weights[i]
			sums[c][0] += p[0] * w
			sums[c][1] += p[1] * w
			sums[c][2] += p[2] * w
			counts[c] += w
		}

		var shift float64
		for c := range centers {
			if counts[c] == 0 {
				// Empty cluster keeps its previous center.
				continue
			}
			next := point{sums[c][0] / counts[c], sums[c][1] / counts[c], sums[c][2] / counts[c]}
			d := floats.Distance(centers[c][:], next[:], 2)
			shift += d * d
			centers[c] = next
		}
		if shift <= tolAbs {
			break
		}
	}

	assignNearest(points, centers, assign)
	var inertia float64
	for i, p := range points {
		inertia += weights[i] * distSq(p, centers[assign[i]])
	}
	return clustering{centers: centers, assign: assign, inertia: inertia, iterations: iterations}
}

// assignNearest writes the index of the closest center for every point.
// Ties go to the lowest center index. Points are split into disjoint
// chunks, one per worker.
func assignNearest(points []point, centers []point, assign []int) {
	n := len(points)
	grid.ParallelRows(n, func(start, end int) {
		for i := start; i < end; i++ {
			best := 0
			bestD := distSq(points[i], centers[0])
			for c := 1; c < len(centers); c++ {
				if d := distSq(points[i], centers[c]); d < bestD {
					bestD = d
					best = c
				}
			}
			assign[i] = best
		}
	})
}
