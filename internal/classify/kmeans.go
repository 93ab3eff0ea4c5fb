package classify

import (
	"math"
	"math/rand/v2"
)

// kmeans clusters points into k groups using k-means++ seeding followed by
// Lloyd iterations. It returns the cluster index of every point and the
// cluster centroids. The result depends only on points, k and rng.
func kmeans(points [][]float32, k, maxIter int, rng *rand.Rand) ([]int, [][]float64) {
	n := len(points)
	dim := len(points[0])

	centroids := seedCentroids(points, k, rng)
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	counts := make([]int, k)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for range maxIter {
		changed := false
		for i, p := range points {
			c := nearestCentroid(p, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		clear(counts)
		for c := range sums {
			clear(sums[c])
		}
		for i, p := range points {
			c := assign[i]
			counts[c]++
			for j, x := range p {
				sums[c][j] += float64(x)
			}
		}
		for c := range centroids {
			// an empty cluster keeps its previous centroid
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	return assign, centroids
}

func seedCentroids(points [][]float32, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, toFloat64(points[rng.IntN(n)]))

	dist := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				d = min(d, sqDist(p, c))
			}
			dist[i] = d
			total += d
		}

		next := rng.IntN(n)
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, toFloat64(points[next]))
	}

	return centroids
}

func nearestCentroid(p []float32, centroids [][]float64) int {
	best, bestDist := 0, sqDist(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := sqDist(p, centroids[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(p []float32, c []float64) float64 {
	var sum float64
	for j, x := range p {
		d := float64(x) - c[j]
		sum += d * d
	}
	return sum
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
