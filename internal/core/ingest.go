// ABOUTME: Document ingestion pipeline: walk, parse, chunk, embed, store
// ABOUTME: Reindexing clears the store first so removed documents disappear
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/harper/docchat-standalone/internal/llm"
	"github.com/harper/docchat-standalone/internal/models"
	"github.com/harper/docchat-standalone/internal/storage"
)

var (
	// ErrDocsPathMissing means the configured documentation root does
	// not exist.
	ErrDocsPathMissing = errors.New("documentation path does not exist")
)

var frontMatterRe = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n?`)

// Ingestor builds the vector index from a directory of markdown files.
type Ingestor struct {
	store    storage.VectorStore
	embedder llm.Embedder
	chunker  *Chunker
	docsRoot string
	logger   *zap.Logger
}

func NewIngestor(store storage.VectorStore, embedder llm.Embedder, chunker *Chunker, docsRoot string, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		docsRoot: docsRoot,
		logger:   logger,
	}
}

// Ingest rebuilds the index from scratch and returns the number of
// chunks stored. Files that fail to parse are skipped, not fatal.
func (in *Ingestor) Ingest(ctx context.Context) (int, error) {
	in.logger.Info("starting document ingestion", zap.String("docs_root", in.docsRoot))

	if _, err := os.Stat(in.docsRoot); err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrDocsPathMissing, in.docsRoot)
		}
		return 0, fmt.Errorf("stat docs path: %w", err)
	}

	if err := in.store.Clear(ctx); err != nil {
		return 0, fmt.Errorf("clear vector store: %w", err)
	}

	files, err := in.findMarkdownFiles()
	if err != nil {
		return 0, fmt.Errorf("scan docs path: %w", err)
	}
	in.logger.Info("found markdown files", zap.Int("count", len(files)))

	var allChunks []models.DocumentChunk
	for _, file := range files {
		docPath, title, content, err := ParseMarkdownFile(file, in.docsRoot)
		if err != nil {
			in.logger.Error("failed to process file", zap.String("file", file), zap.Error(err))
			continue
		}

		chunks := in.chunker.Chunk(content, docPath, title)
		allChunks = append(allChunks, chunks...)

		in.logger.Info("processed document",
			zap.String("doc_path", docPath),
			zap.Int("chunks", len(chunks)))
	}

	if len(allChunks) == 0 {
		in.logger.Warn("no chunks created from documents")
		return 0, nil
	}

	embedded, err := in.embedChunks(ctx, allChunks)
	if err != nil {
		return 0, err
	}

	records := make([]storage.Record, len(embedded))
	for i, chunk := range embedded {
		metadata := map[string]string{
			"doc_path": chunk.DocPath,
			"title":    chunk.Title,
		}
		for k, v := range chunk.Metadata {
			metadata[k] = v
		}
		records[i] = storage.Record{
			ID:        chunk.ID,
			Embedding: chunk.Embedding,
			Document:  chunk.Text,
			Metadata:  metadata,
		}
	}

	if err := in.store.Add(ctx, records); err != nil {
		return 0, fmt.Errorf("add chunks to vector store: %w", err)
	}

	in.logger.Info("ingestion complete", zap.Int("chunks", len(records)))
	return len(records), nil
}

// findMarkdownFiles walks the docs root collecting .md files. Dotfiles,
// dot-directories, and node_modules are skipped.
func (in *Ingestor) findMarkdownFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(in.docsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != in.docsRoot && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// embedChunks embeds each chunk sequentially. A chunk that repeatedly
// fails to embed is dropped with an error log so one bad chunk cannot
// sink a full reindex.
func (in *Ingestor) embedChunks(ctx context.Context, chunks []models.DocumentChunk) ([]models.DocumentChunk, error) {
	in.logger.Info("embedding chunks", zap.Int("count", len(chunks)))

	embedded := make([]models.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := in.embedder.Embed(ctx, chunk.Text, llm.RoleDocument)
		if err != nil {
			in.logger.Error("failed to embed chunk",
				zap.String("chunk_id", chunk.ID),
				zap.Error(err))
			continue
		}
		chunk.Embedding = vector
		embedded = append(embedded, chunk)

		if (i+1)%10 == 0 {
			in.logger.Info("embedding progress",
				zap.Int("done", i+1),
				zap.Int("total", len(chunks)))
		}
	}

	return embedded, nil
}

// ParseMarkdownFile reads a markdown file and returns its path relative
// to the docs root, its title, and its body. The title comes from YAML
// front-matter when present, otherwise from the filename.
func ParseMarkdownFile(path, docsRoot string) (docPath, title, content string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", "", fmt.Errorf("read file: %w", err)
	}

	content = string(raw)
	title = ""

	if m := frontMatterRe.FindStringSubmatch(content); m != nil {
		var meta struct {
			Title string `yaml:"title"`
		}
		if err := yaml.Unmarshal([]byte(m[1]), &meta); err == nil {
			title = meta.Title
		}
		content = content[len(m[0]):]
	}

	if title == "" {
		title = TitleFromFilename(path)
	}

	docPath, err = filepath.Rel(docsRoot, path)
	if err != nil {
		return "", "", "", fmt.Errorf("relativize path: %w", err)
	}
	docPath = filepath.ToSlash(docPath)

	return docPath, title, content, nil
}

// TitleFromFilename derives a human-readable title from a file name:
// "getting-started.md" becomes "Getting Started".
func TitleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.Fields(strings.ReplaceAll(stem, "-", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
