package chromemdb

import (
	"context"
	"fmt"
	"math"

	"github.com/philippgille/chromem-go"

	"multimodal-rag/internal/models"
)

// AsRetriever returns a retriever over the collection using searchType.
func (m *VectorDBManager) AsRetriever(searchType string, topK int) (models.Retriever, error) {
	if topK <= 0 {
		return nil, models.NewError(models.ErrValidation, "as retriever", "top_k must be positive, got %d", topK)
	}

	r := &retriever{m: m, searchType: searchType, topK: topK}
	switch searchType {
	case models.SearchSimilarity, models.SearchScoreThreshold:
	case models.SearchMMR:
		r.fetchK = max(m.opts.FetchK, topK)
		r.lambda = m.opts.Lambda
	default:
		return nil, models.NewError(models.ErrConfiguration, "as retriever", "unsupported search type %q", searchType)
	}
	return r, nil
}

type retriever struct {
	m          *VectorDBManager
	searchType string
	topK       int
	fetchK     int
	lambda     float32
}

func (r *retriever) Invoke(ctx context.Context, query string) ([]models.IndexedDocument, error) {
	if query == "" {
		return nil, models.NewError(models.ErrValidation, "retrieve", "query is empty")
	}

	queryVec, err := r.m.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	n := r.topK
	if r.searchType == models.SearchMMR {
		n = r.fetchK
	}
	results, err := r.m.SearchWithQueryOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryVec,
		NResults:       n,
	})
	if err != nil {
		return nil, err
	}

	switch r.searchType {
	case models.SearchMMR:
		results = maxMarginalRelevance(queryVec, results, r.topK, r.lambda)
	case models.SearchScoreThreshold:
		kept := results[:0]
		for _, res := range results {
			if res.Similarity >= r.m.opts.ScoreThreshold {
				kept = append(kept, res)
			}
		}
		results = kept
	}
	return toDocuments(results)
}

func toDocuments(results []chromem.Result) ([]models.IndexedDocument, error) {
	docs := make([]models.IndexedDocument, 0, len(results))
	for _, res := range results {
		meta, err := models.MetadataFromMap(res.Metadata)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", res.ID, err)
		}
		docs = append(docs, models.IndexedDocument{
			ID:       res.ID,
			Content:  res.Content,
			Metadata: meta,
			Score:    res.Similarity,
		})
	}
	return docs, nil
}

// maxMarginalRelevance picks k results greedily, trading relevance to the
// query (weight lambda) against similarity to results already picked.
// Candidates are expected in descending similarity order.
func maxMarginalRelevance(query []float32, candidates []chromem.Result, k int, lambda float32) []chromem.Result {
	if len(candidates) <= 1 || k <= 0 {
		return candidates
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := []int{0}
	used := map[int]bool{0: true}
	for len(selected) < k {
		best, bestScore := -1, float32(math.Inf(-1))
		for i, c := range candidates {
			if used[i] {
				continue
			}
			var redundancy float32 = -1
			for _, s := range selected {
				if sim := cosine(c.Embedding, candidates[s].Embedding); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*cosine(query, c.Embedding) - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		selected = append(selected, best)
		used[best] = true
	}

	out := make([]chromem.Result, 0, k)
	for _, i := range selected {
		out = append(out, candidates[i])
	}
	return out
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
