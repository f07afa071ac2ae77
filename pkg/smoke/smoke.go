// Package smoke exercises a ChromaDB database end to end: create a
// collection, insert a small known document set, verify the count, and run a
// similarity query. Two modes share the same shape: embedded mode works on a
// local persistent store and needs no running server; server mode drives the
// HTTP API of a live server.
package smoke

// document is one entry of the fixed exercise corpus.
type document struct {
	suffix  string
	content string
	topic   string
}

// corpus is the known document set every smoke run inserts. Three documents
// with distinct topics so the similarity query has something to rank.
var corpus = []document{
	{"doc-1", "ChromaDB stores document embeddings for similarity search", "database"},
	{"doc-2", "The heartbeat endpoint reports whether the server is alive", "operations"},
	{"doc-3", "Collections group related documents with their metadata", "database"},
}

// queryText is what every smoke run searches for. It shares vocabulary with
// the corpus so even a trivial embedding ranks documents meaningfully.
const queryText = "grouping related documents and their metadata"
