package models

import "context"

// DocumentStore is the vector store capability the pipeline writes into.
type DocumentStore interface {
	AddDocuments(ctx context.Context, docs []IndexedDocument) error
	AsRetriever(searchType string, topK int) (Retriever, error)
}

// Retriever answers a natural-language query with the best matching documents.
type Retriever interface {
	Invoke(ctx context.Context, query string) ([]IndexedDocument, error)
}

// retriever search types
const (
	SearchSimilarity     = "similarity"
	SearchMMR            = "mmr"
	SearchScoreThreshold = "similarity_score_threshold"
)
