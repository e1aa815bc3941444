package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/clubshelf/clubshelf/internal/books"
)

// DefaultSimilarityThreshold is the minimum cosine similarity at which two
// groups are considered the same book. 0.75 keeps "Sorcerer's Stone" and
// "Philosopher's Stone" together without merging unrelated titles.
const DefaultSimilarityThreshold = 0.75

// Embedder turns short strings into dense vectors such that semantically
// similar strings map to nearby vectors under cosine similarity. The
// backend is injectable so clustering can be tested with fake vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ClusterGroups merges pre-groups whose key embeddings fall within the
// similarity threshold, using average-linkage agglomerative clustering
// over cosine distance. An embedding failure is fatal for the stage.
//
// Each resulting cluster's representative is the first record of its
// largest member group (first encountered on ties); the cluster key is
// that group's normalized key.
func ClusterGroups(ctx context.Context, groups *PreGroups, embedder Embedder, similarityThreshold float64) ([]books.Cluster, error) {
	keys := groups.Keys

	switch len(keys) {
	case 0:
		return nil, nil
	case 1:
		// No embedding call needed for a single group.
		members := groups.Members[keys[0]]
		return []books.Cluster{books.BuildCluster(keys[0], members[0], members)}, nil
	}

	if similarityThreshold < 0 || similarityThreshold > 1 {
		return nil, fmt.Errorf("similarity threshold %v out of range [0,1]", similarityThreshold)
	}

	slog.Info("Encoding group keys", "groups", len(keys))
	start := time.Now()
	vectors, err := embedder.Embed(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d group keys: %w", len(keys), err)
	}
	if len(vectors) != len(keys) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d keys", len(vectors), len(keys))
	}
	slog.Info("Encoding complete", "elapsed", time.Since(start).Round(time.Millisecond))

	distanceCutoff := 1.0 - similarityThreshold
	labels := agglomerate(vectors, distanceCutoff)

	// Group keys by label, labels in first-seen order to keep the output
	// deterministic with respect to the input.
	var order []int
	byLabel := make(map[int][]string)
	for i, key := range keys {
		label := labels[i]
		if _, ok := byLabel[label]; !ok {
			order = append(order, label)
		}
		byLabel[label] = append(byLabel[label], key)
	}

	clusters := make([]books.Cluster, 0, len(order))
	for _, label := range order {
		clusterKeys := byLabel[label]

		var all []books.RawBookRecord
		for _, k := range clusterKeys {
			all = append(all, groups.Members[k]...)
		}

		// Representative comes from the group with the most records.
		best := clusterKeys[0]
		for _, k := range clusterKeys[1:] {
			if len(groups.Members[k]) > len(groups.Members[best]) {
				best = k
			}
		}
		rep := groups.Members[best][0]

		clusters = append(clusters, books.BuildCluster(best, rep, all))
	}

	slog.Info("Clustering complete", "groups", len(keys), "clusters", len(clusters))
	return clusters, nil
}

// agglomerate runs average-linkage hierarchical clustering over cosine
// distance and returns a cluster label per input vector. Pairs are merged
// while their linkage distance is strictly below the cutoff.
func agglomerate(vectors [][]float32, distanceCutoff float64) []int {
	n := len(vectors)

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := cosineDistance(vectors[i], vectors[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	active := make([]bool, n)
	size := make([]int, n)
	members := make([][]int, n)
	for i := range active {
		active[i] = true
		size[i] = 1
		members[i] = []int{i}
	}

	for {
		bi, bj := -1, -1
		best := math.MaxFloat64
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if dist[i][j] < best {
					best = dist[i][j]
					bi, bj = i, j
				}
			}
		}
		if bi < 0 || best >= distanceCutoff {
			break
		}

		// Lance-Williams update for average linkage: the distance from the
		// merged cluster to any other is the size-weighted mean.
		ni, nj := float64(size[bi]), float64(size[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			d := (ni*dist[bi][k] + nj*dist[bj][k]) / (ni + nj)
			dist[bi][k] = d
			dist[k][bi] = d
		}

		members[bi] = append(members[bi], members[bj]...)
		size[bi] += size[bj]
		active[bj] = false
	}

	labels := make([]int, n)
	label := 0
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		for _, m := range members[i] {
			labels[m] = label
		}
		label++
	}
	return labels
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
