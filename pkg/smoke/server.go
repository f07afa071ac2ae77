package smoke

import (
	"context"
	"fmt"
	"time"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/google/uuid"

	"github.com/agentplatform/chromactl/internal/logger"
	"github.com/agentplatform/chromactl/pkg/config"
)

// RunServer exercises a running ChromaDB server over its HTTP API. The
// collection is dropped and recreated on every run so the post-insert count
// is always exactly the corpus size; embeddings are computed server-side.
func RunServer(ctx context.Context, cfg *config.Config) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	baseURL := cfg.Server.BaseURL()

	logger.Debug("connecting to server", "url", baseURL, "run_id", runID)

	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(baseURL))
	if err != nil {
		return nil, opErr("open", err)
	}
	defer func() { _ = client.Close() }()

	name := cfg.Smoke.Collection
	// A leftover collection from a previous run would skew the count check.
	if err := client.DeleteCollection(ctx, name); err != nil {
		logger.Debug("no previous collection to drop", "collection", name, "error", err)
	}

	col, err := client.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, opErr("collection", err)
	}

	ids := make([]chroma.DocumentID, 0, len(corpus))
	texts := make([]string, 0, len(corpus))
	metadatas := make([]chroma.DocumentMetadata, 0, len(corpus))
	for _, d := range corpus {
		ids = append(ids, chroma.DocumentID(runID+"-"+d.suffix))
		texts = append(texts, d.content)
		metadatas = append(metadatas, chroma.NewDocumentMetadata(
			chroma.NewStringAttribute("topic", d.topic),
			chroma.NewStringAttribute("run_id", runID),
		))
	}

	if err := col.Add(ctx,
		chroma.WithIDs(ids...),
		chroma.WithTexts(texts...),
		chroma.WithMetadatas(metadatas...),
	); err != nil {
		return nil, opErr("insert", err)
	}

	count, err := col.Count(ctx)
	if err != nil {
		return nil, opErr("count", err)
	}
	if count != len(corpus) {
		return nil, opErr("count", fmt.Errorf("expected %d documents, found %d", len(corpus), count))
	}

	qr, err := col.Query(ctx,
		chroma.WithQueryTexts(queryText),
		chroma.WithNResults(cfg.Smoke.Results),
	)
	if err != nil {
		return nil, opErr("query", err)
	}

	groups := qr.GetDocumentsGroups()
	if len(groups) == 0 {
		return nil, opErr("query", fmt.Errorf("no result group for query %q", queryText))
	}
	docs := groups[0]
	if len(docs) != cfg.Smoke.Results {
		return nil, opErr("query", fmt.Errorf("expected %d results, got %d", cfg.Smoke.Results, len(docs)))
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.ContentString())
	}

	logger.Info("server smoke run passed",
		"url", baseURL,
		"collection", name,
		"count", count,
		"results", len(docs),
		"elapsed", time.Since(start))

	return &Report{
		Mode:       "server",
		Collection: name,
		RunID:      runID,
		Inserted:   len(ids),
		Count:      count,
		QueryText:  queryText,
		Results:    contents,
		Elapsed:    time.Since(start),
	}, nil
}
