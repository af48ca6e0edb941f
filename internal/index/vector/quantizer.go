package vector

import "sort"

// kmeansIterations bounds training; it usually converges earlier.
const kmeansIterations = 25

// quantizer partitions vectors around centroids learned once by spherical
// k-means. A nil quantizer means a flat index.
type quantizer struct {
	nlist  int
	nprobe int

	centroids []float32
	lists     [][]int64
	assign    []int32
}

func (q *quantizer) trained() bool {
	return q != nil && q.centroids != nil
}

// train learns centroids from a flat slice of normalised vectors.
// Seeds are evenly spaced batch members, so training is deterministic.
func (q *quantizer) train(vectors []float32, dim int) {
	n := len(vectors) / dim
	k := q.nlist
	if k > n {
		k = n
	}
	q.nlist = k

	centroids := make([]float32, k*dim)
	for c := 0; c < k; c++ {
		src := c * n / k
		copy(centroids[c*dim:(c+1)*dim], vectors[src*dim:(src+1)*dim])
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best := nearest(centroids, vectors[i*dim:(i+1)*dim], dim)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]float64, k*dim)
		counts := make([]int, k)
		for i := 0; i < n; i++ {
			c := assign[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				sums[c*dim+d] += float64(vectors[i*dim+d])
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			mean := make([]float32, dim)
			for d := 0; d < dim; d++ {
				mean[d] = float32(sums[c*dim+d] / float64(counts[c]))
			}
			if v, err := normalise(mean, dim); err == nil {
				copy(centroids[c*dim:(c+1)*dim], v)
			}
		}
	}

	q.centroids = centroids
	q.lists = make([][]int64, k)
	q.assign = nil
}

// add assigns a vector to its nearest centroid.
func (q *quantizer) add(vid int64, v []float32, dim int) {
	c := nearest(q.centroids, v, dim)
	q.lists[c] = append(q.lists[c], vid)
	q.assign = append(q.assign, int32(c))
}

// probe returns the nprobe partitions closest to the query.
func (q *quantizer) probe(query []float32, dim int) []int {
	type scored struct {
		part  int
		score float32
	}
	parts := make([]scored, q.nlist)
	for c := 0; c < q.nlist; c++ {
		parts[c] = scored{part: c, score: dot(query, q.centroids[c*dim:(c+1)*dim])}
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].score != parts[j].score {
			return parts[i].score > parts[j].score
		}
		return parts[i].part < parts[j].part
	})

	n := q.nprobe
	if n > len(parts) {
		n = len(parts)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = parts[i].part
	}
	return out
}

// cloneEmpty copies the trained centroids without any assignments.
func (q *quantizer) cloneEmpty() *quantizer {
	out := &quantizer{nlist: q.nlist, nprobe: q.nprobe}
	if q.trained() {
		out.centroids = append([]float32(nil), q.centroids...)
		out.lists = make([][]int64, q.nlist)
	}
	return out
}

func nearest(centroids, v []float32, dim int) int {
	best, bestScore := 0, float32(0)
	for c := 0; c*dim < len(centroids); c++ {
		s := dot(v, centroids[c*dim:(c+1)*dim])
		if c == 0 || s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
