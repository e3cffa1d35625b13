package chromemdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"multimodal-rag/internal/helper"
	"multimodal-rag/internal/models"
)

// Options configures the chromem-backed store.
type Options struct {
	Path           string
	CollectionName string
	InMemory       bool
	Compress       bool
	EncryptionKey  string

	// retriever tuning
	FetchK         int
	Lambda         float32
	ScoreThreshold float32
}

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
	embed      chromem.EmbeddingFunc
	opts       Options
	filePath   string
}

// NewVectorDBManager opens (or creates) the database and its collection.
func NewVectorDBManager(opts Options, embed chromem.EmbeddingFunc) (*VectorDBManager, error) {
	if opts.CollectionName == "" {
		return nil, models.NewError(models.ErrConfiguration, "new vector db", "collection name is required")
	}

	var db *chromem.DB
	var err error
	if opts.InMemory {
		db = chromem.NewDB()
	} else {
		if err := helper.CreateFolder(opts.Path); err != nil {
			return nil, err
		}
		db, err = chromem.NewPersistentDB(opts.Path, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:       db,
		embed:    embed,
		opts:     opts,
		filePath: filepath.Join(opts.Path, opts.CollectionName+".chromem"),
	}
	if _, err := m.GetOrCreateCollection(opts.CollectionName); err != nil {
		return nil, err
	}
	return m, nil
}

// GetOrCreateCollection selects the collection later calls operate on.
func (m *VectorDBManager) GetOrCreateCollection(collectionName string) (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(collectionName, nil, m.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// AddDocuments embeds and stores docs. Documents without an ID get a UUID.
func (m *VectorDBManager) AddDocuments(ctx context.Context, docs []models.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			var err error
			if id, err = helper.GenerateUUID(); err != nil {
				return err
			}
		}
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:       id,
			Content:  doc.Content,
			Metadata: doc.Metadata.ToMap(),
		})
	}

	if err := m.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Debug().Str("collection", m.collection.Name).Int("documents", len(chromemDocs)).Msg("Added documents")
	return nil
}

// Count returns the number of documents in the collection.
func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

// SearchWithQueryOptions runs a raw chromem query, clamping NResults to the
// collection size.
func (m *VectorDBManager) SearchWithQueryOptions(ctx context.Context, opts chromem.QueryOptions) ([]chromem.Result, error) {
	if opts.QueryText == "" && opts.QueryEmbedding == nil {
		return nil, models.NewError(models.ErrValidation, "search", "either query or embedding must be provided")
	}

	count := m.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if opts.NResults > count {
		opts.NResults = count
	}

	results, err := m.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// DeleteCollection drops the current collection and recreates it empty.
func (m *VectorDBManager) DeleteCollection() error {
	name := m.collection.Name
	if err := m.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	_, err := m.GetOrCreateCollection(name)
	return err
}

// ExportPath is where Export writes and Import reads.
func (m *VectorDBManager) ExportPath() string {
	return m.filePath
}

// Export writes the collection to a single file, encrypted when an
// encryption key is configured.
func (m *VectorDBManager) Export() error {
	if err := m.checkKey(); err != nil {
		return err
	}
	if err := helper.CreateFolder(filepath.Dir(m.filePath)); err != nil {
		return err
	}

	log.Debug().
		Str("collection", m.collection.Name).
		Str("file", m.filePath).
		Bool("compress", m.opts.Compress).
		Bool("encrypted", m.opts.EncryptionKey != "").
		Msg("Exporting collection")

	if err := m.db.ExportToFile(m.filePath, m.opts.Compress, m.opts.EncryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads a previous export of the collection.
func (m *VectorDBManager) Import() error {
	if err := m.checkKey(); err != nil {
		return err
	}
	if _, err := os.Stat(m.filePath); err != nil {
		return models.WrapError(models.ErrNotFound, "import "+m.filePath, err)
	}

	name := m.collection.Name
	if err := m.db.ImportFromFile(m.filePath, m.opts.EncryptionKey, name); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	c := m.db.GetCollection(name, m.embed)
	if c == nil {
		return models.NewError(models.ErrNotFound, "import "+m.filePath, "collection %q not in export", name)
	}
	m.collection = c
	return nil
}

func (m *VectorDBManager) checkKey() error {
	if k := m.opts.EncryptionKey; k != "" && len(k) != 32 {
		return models.NewError(models.ErrConfiguration, "vector db export", "encryption key must be 32 bytes, got %d", len(k))
	}
	return nil
}

// Reset empties the collection before a fresh ingest.
func (m *VectorDBManager) Reset(_ context.Context) error {
	return m.DeleteCollection()
}
