package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

type fitRun struct {
	assign     []int
	centroids  [][]float64
	inertia    float64
	iterations int
}

// run performs Restarts seeded k-means runs and keeps the lowest inertia,
// the earliest run winning ties.
func (c *Classifier) run(points [][]float64, k int) fitRun {
	rng := rand.New(rand.NewSource(c.Seed))
	var best fitRun
	for r := 0; r < c.Restarts; r++ {
		cur := lloyd(points, seedPlusPlus(points, k, rng), c.MaxIter, c.Tolerance)
		c.logger().Debug("kmeans restart", "run", r, "inertia", cur.inertia, "iterations", cur.iterations)
		if r == 0 || cur.inertia < best.inertia {
			best = cur
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// nearest returns the closest centroid; ties go to the lowest index.
func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for j, c := range centroids {
		if d := sqDist(p, c); d < bestD {
			best, bestD = j, d
		}
	}
	return best, bestD
}

// seedPlusPlus picks k initial centroids with k-means++ weighting.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	d2 := make([]float64, len(points))
	for i, p := range points {
		d2[i] = sqDist(p, centroids[0])
	}
	for len(centroids) < k {
		total := floats.Sum(d2)
		var pick int
		if total == 0 {
			pick = rng.Intn(len(points))
		} else {
			target := rng.Float64() * total
			acc := 0.0
			pick = len(points) - 1
			for i, w := range d2 {
				acc += w
				if acc > target {
					pick = i
					break
				}
			}
		}
		c := append([]float64(nil), points[pick]...)
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

// lloyd iterates assignment and update steps until the largest centroid
// shift is within tol or maxIter is reached.
func lloyd(points [][]float64, centroids [][]float64, maxIter int, tol float64) fitRun {
	k, dims := len(centroids), len(points[0])
	assign := make([]int, len(points))
	sizes := make([]int, k)
	iter := 0
	for iter < maxIter {
		iter++
		for j := range sizes {
			sizes[j] = 0
		}
		for i, p := range points {
			assign[i], _ = nearest(p, centroids)
			sizes[assign[i]]++
		}
		reseedEmpty(points, centroids, assign, sizes)

		next := make([][]float64, k)
		for j := range next {
			next[j] = make([]float64, dims)
		}
		for i, p := range points {
			floats.Add(next[assign[i]], p)
		}
		shift := 0.0
		for j := range next {
			floats.Scale(1/float64(sizes[j]), next[j])
			shift = math.Max(shift, floats.Distance(next[j], centroids[j], 2))
		}
		centroids = next
		if shift <= tol {
			break
		}
	}

	// final assignment against the converged centroids
	inertia := 0.0
	for j := range sizes {
		sizes[j] = 0
	}
	for i, p := range points {
		var d float64
		assign[i], d = nearest(p, centroids)
		sizes[assign[i]]++
		inertia += d
	}
	if reseedEmpty(points, centroids, assign, sizes) {
		inertia = 0
		for i, p := range points {
			inertia += sqDist(p, centroids[assign[i]])
		}
	}
	return fitRun{assign: assign, centroids: centroids, inertia: inertia, iterations: iter}
}

// reseedEmpty moves, for every empty cluster, the point farthest from its
// centroid among clusters with more than one member. It reports whether any
// cluster was reseeded.
func reseedEmpty(points [][]float64, centroids [][]float64, assign, sizes []int) bool {
	moved := false
	for j := range sizes {
		if sizes[j] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, p := range points {
			if sizes[assign[i]] < 2 {
				continue
			}
			if d := sqDist(p, centroids[assign[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			return moved
		}
		sizes[assign[far]]--
		assign[far] = j
		sizes[j] = 1
		centroids[j] = append([]float64(nil), points[far]...)
		moved = true
	}
	return moved
}
