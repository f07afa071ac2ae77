package smoke

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/agentplatform/chromactl/internal/logger"
	"github.com/agentplatform/chromactl/pkg/config"
)

// RunEmbedded exercises a local persistent store under the configured data
// directory. It never touches the network, so it works whether or not a
// server is running.
//
// The store lives in its own subdirectory of the data dir and the collection
// is recreated on every run, so the post-insert count is always exactly the
// corpus size.
func RunEmbedded(ctx context.Context, cfg *config.Config) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()

	dbPath := filepath.Join(cfg.Server.DataDir, "smoke")
	logger.Debug("opening embedded store", "path", dbPath, "run_id", runID)

	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, opErr("open", err)
	}

	name := cfg.Smoke.Collection
	if err := db.DeleteCollection(name); err != nil {
		return nil, opErr("collection", fmt.Errorf("resetting %q: %w", name, err))
	}

	col, err := db.GetOrCreateCollection(name, map[string]string{"run_id": runID}, localEmbedding())
	if err != nil {
		return nil, opErr("collection", err)
	}

	docs := make([]chromem.Document, 0, len(corpus))
	for _, d := range corpus {
		docs = append(docs, chromem.Document{
			ID:      runID + "-" + d.suffix,
			Content: d.content,
			Metadata: map[string]string{
				"topic":  d.topic,
				"run_id": runID,
			},
		})
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, opErr("insert", err)
	}

	count := col.Count()
	if count != len(corpus) {
		return nil, opErr("count", fmt.Errorf("expected %d documents, found %d", len(corpus), count))
	}

	results, err := col.Query(ctx, queryText, cfg.Smoke.Results, nil, nil)
	if err != nil {
		return nil, opErr("query", err)
	}
	if len(results) != cfg.Smoke.Results {
		return nil, opErr("query", fmt.Errorf("expected %d results, got %d", cfg.Smoke.Results, len(results)))
	}

	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Content)
	}

	logger.Info("embedded smoke run passed",
		"collection", name,
		"count", count,
		"results", len(results),
		"elapsed", time.Since(start))

	return &Report{
		Mode:       "embedded",
		Collection: name,
		RunID:      runID,
		Inserted:   len(docs),
		Count:      count,
		QueryText:  queryText,
		Results:    contents,
		Elapsed:    time.Since(start),
	}, nil
}
