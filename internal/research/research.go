// Package research composes the index, decomposer, workflow engine and
// external backends into multi-source research runs.
package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anhoffmann/deepscout/internal/decompose"
	"github.com/anhoffmann/deepscout/internal/index"
	"github.com/anhoffmann/deepscout/internal/llm"
	"github.com/anhoffmann/deepscout/internal/parser"
	"github.com/anhoffmann/deepscout/internal/websearch"
)

// Depth controls how many documents a topic lookup retrieves.
type Depth string

const (
	DepthQuick         Depth = "quick"
	DepthStandard      Depth = "standard"
	DepthComprehensive Depth = "comprehensive"
)

func (d Depth) limit() int {
	switch d {
	case DepthQuick:
		return 3
	case DepthComprehensive:
		return 10
	default:
		return 5
	}
}

// Model is the generative backend the orchestrator prompts.
type Model interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error)
	AnalyzeWithContext(ctx context.Context, query, contextText string) (string, error)
	SynthesizeSources(ctx context.Context, sources []string) (string, error)
	CompareDocuments(ctx context.Context, doc1, doc2 string) (string, error)
}

// Indexer is the knowledge-base surface the orchestrator consumes.
type Indexer interface {
	Add(ctx context.Context, chunks []parser.Chunk, metadatas []map[string]string) ([]string, error)
	Query(ctx context.Context, text string, k int, filter map[string]string) ([]index.Result, error)
	Stats(ctx context.Context) (index.Stats, error)
}

// Searcher is the optional web-search source. A nil Searcher omits the web
// source entirely.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]websearch.Result, error)
}

// Config bounds a research run.
type Config struct {
	MaxSubtasks     int
	RetrievalLimit  int
	MaxContextChars int
	Workers         int
}

func (c Config) withDefaults() Config {
	if c.MaxSubtasks <= 0 {
		c.MaxSubtasks = 5
	}
	if c.RetrievalLimit <= 0 {
		c.RetrievalLimit = 5
	}
	if c.MaxContextChars <= 0 {
		c.MaxContextChars = 12000
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// Orchestrator runs research flows over the configured sources.
type Orchestrator struct {
	model      Model
	decomposer *decompose.Decomposer
	idx        Indexer
	search     Searcher
	assembler  *index.ContextAssembler
	cfg        Config
	progress   *Progress
}

// New creates an orchestrator. search may be nil to disable the web source.
func New(model Model, decomposer *decompose.Decomposer, idx Indexer, search Searcher, cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		model:      model,
		decomposer: decomposer,
		idx:        idx,
		search:     search,
		assembler:  index.NewAssembler(cfg.MaxContextChars),
		cfg:        cfg,
		progress:   newProgress(),
	}
}

// Ask answers a question from the knowledge base, falling back to direct
// generation when retrieval finds nothing.
func (o *Orchestrator) Ask(ctx context.Context, question string) (string, error) {
	contextText, err := o.kbContext(ctx, question, o.cfg.RetrievalLimit)
	if err != nil {
		return "", err
	}

	if contextText == index.EmptyContext {
		return o.model.Generate(ctx,
			fmt.Sprintf("Answer this question to the best of your knowledge: %s", question),
			llm.GenerateOptions{Temperature: 0.7, MaxTokens: 2048})
	}

	return o.model.AnalyzeWithContext(ctx, question, contextText)
}

// QuickAnswer answers a question from the knowledge base and, when
// available, the web. A failing or absent web source degrades to knowledge
// base only.
func (o *Orchestrator) QuickAnswer(ctx context.Context, question string) (string, error) {
	kbContext, err := o.kbContext(ctx, question, 3)
	if err != nil {
		return "", err
	}

	webContext := ""
	if o.search != nil {
		results, err := o.search.Search(ctx, question, 3)
		if err != nil {
			slog.Warn("web search degraded", "error", err)
		} else {
			lines := make([]string, 0, 2)
			for _, r := range results {
				lines = append(lines, fmt.Sprintf("%s: %s", r.Title, r.Snippet))
				if len(lines) == 2 {
					break
				}
			}
			webContext = strings.Join(lines, "\n")
		}
	}

	combined := fmt.Sprintf("Knowledge Base:\n%s\n\nWeb Results:\n%s", kbContext, webContext)
	return o.model.AnalyzeWithContext(ctx, question, combined)
}

// ResearchTopic retrieves and summarizes what the knowledge base holds on a
// topic.
func (o *Orchestrator) ResearchTopic(ctx context.Context, topic string, depth Depth) (string, int, error) {
	results, err := o.idx.Query(ctx, topic, depth.limit(), nil)
	if err != nil {
		return "", 0, err
	}
	if len(results) == 0 {
		return "No relevant information found in knowledge base.", 0, nil
	}

	contextText := o.assembler.Assemble(results)
	prompt := fmt.Sprintf(`Based on the following context, provide a comprehensive research summary about: %s

Context:
%s

Provide:
1. Overview (2-3 paragraphs)
2. Key Points (bullet list)
3. Conclusions (1-2 paragraphs)

Research Summary:`, topic, contextText)

	summary, err := o.model.Generate(ctx, prompt, llm.GenerateOptions{Temperature: 0.5, MaxTokens: 2048})
	if err != nil {
		return "", 0, err
	}
	return summary, len(results), nil
}

// CompareTopics researches two topics in the knowledge base and contrasts
// the findings.
func (o *Orchestrator) CompareTopics(ctx context.Context, topic1, topic2 string) (string, error) {
	summary1, _, err := o.ResearchTopic(ctx, topic1, DepthStandard)
	if err != nil {
		return "", fmt.Errorf("research %q: %w", topic1, err)
	}
	summary2, _, err := o.ResearchTopic(ctx, topic2, DepthStandard)
	if err != nil {
		return "", fmt.Errorf("research %q: %w", topic2, err)
	}

	return o.model.CompareDocuments(ctx, summary1, summary2)
}

// AddKnowledge chunks free text and stores it under the given source id.
func (o *Orchestrator) AddKnowledge(ctx context.Context, content, source string, chunkSize, overlap int) ([]string, error) {
	chunks, err := parser.ChunkDocument(content, source, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return o.idx.Add(ctx, chunks, nil)
}

// IngestFile loads, chunks and indexes one document.
func (o *Orchestrator) IngestFile(ctx context.Context, path string, chunkSize, overlap int) ([]string, error) {
	chunks, err := parser.LoadAndChunk(path, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		slog.Warn("document yielded no text", "path", path)
		return []string{}, nil
	}
	return o.idx.Add(ctx, chunks, nil)
}

// IngestDirectory loads, chunks and indexes every supported document under
// a directory.
func (o *Orchestrator) IngestDirectory(ctx context.Context, dir string, extensions []string, chunkSize, overlap int) ([]string, error) {
	chunks, err := parser.LoadDirectory(dir, extensions, chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []string{}, nil
	}
	return o.idx.Add(ctx, chunks, nil)
}

// Stats reports the knowledge-base collection stats.
func (o *Orchestrator) Stats(ctx context.Context) (index.Stats, error) {
	return o.idx.Stats(ctx)
}

// Progress returns a snapshot of the current deep-research run.
func (o *Orchestrator) Progress() ProgressSnapshot {
	return o.progress.snapshot()
}

// kbContext retrieves and assembles knowledge-base context for a query.
func (o *Orchestrator) kbContext(ctx context.Context, query string, k int) (string, error) {
	results, err := o.idx.Query(ctx, query, k, nil)
	if err != nil {
		return "", fmt.Errorf("query knowledge base: %w", err)
	}
	return o.assembler.Assemble(results), nil
}
