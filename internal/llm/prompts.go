package llm

import (
	"context"
	"fmt"
	"strings"
)

// SummaryStyle selects the shape of a summary.
type SummaryStyle string

const (
	StyleComprehensive SummaryStyle = "comprehensive"
	StyleConcise       SummaryStyle = "concise"
	StyleBullet        SummaryStyle = "bullet"
)

const researchSystemPrompt = `You are a helpful research assistant.
Use the provided context to answer questions accurately and comprehensively.
Always cite sources when available.`

// AnalyzeWithContext answers a query grounded in retrieved context.
func (m *Model) AnalyzeWithContext(ctx context.Context, query, contextText string) (string, error) {
	prompt := fmt.Sprintf(`Context:
%s

Question: %s

Please provide a detailed answer based on the context above.`, contextText, query)

	return m.Generate(ctx, prompt, GenerateOptions{
		System:      researchSystemPrompt,
		Temperature: 0.7,
		MaxTokens:   2048,
	})
}

// Summarize condenses text in the requested style, targeting maxWords words.
func (m *Model) Summarize(ctx context.Context, text string, style SummaryStyle, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 300
	}

	var prompt string
	switch style {
	case StyleBullet:
		prompt = fmt.Sprintf(`Create a bullet-point summary of the following text.
Extract the %d most important points.

Text:
%s

Bullet Summary:`, maxWords/20, text)

	case StyleConcise:
		prompt = fmt.Sprintf(`Create a concise summary of the following text in no more than %d words.
Focus only on the most critical information.

Text:
%s

Concise Summary:`, maxWords, text)

	default:
		prompt = fmt.Sprintf(`Create a comprehensive summary of the following text in approximately %d words.
Include key details, main arguments, and important conclusions.

Text:
%s

Comprehensive Summary:`, maxWords, text)
	}

	return m.Generate(ctx, prompt, GenerateOptions{Temperature: 0.5, MaxTokens: 1024})
}

// SynthesizeSources merges findings from several sources into one coherent
// summary, resolving contradictions between them.
func (m *Model) SynthesizeSources(ctx context.Context, sources []string) (string, error) {
	var combined strings.Builder
	for i, source := range sources {
		fmt.Fprintf(&combined, "\n\n--- Source %d ---\n%s", i+1, source)
	}

	prompt := fmt.Sprintf(`Synthesize the information from the following %d sources into a coherent summary.
Identify common themes, resolve contradictions, and provide a comprehensive overview.
%s

Synthesized Summary:`, len(sources), combined.String())

	return m.Generate(ctx, prompt, GenerateOptions{Temperature: 0.5, MaxTokens: 2048})
}

// CompareDocuments contrasts two documents and synthesizes their relationship.
func (m *Model) CompareDocuments(ctx context.Context, doc1, doc2 string) (string, error) {
	prompt := fmt.Sprintf(`Compare and contrast the following two documents:

Document 1:
%s

Document 2:
%s

Please provide:
1. Common themes and agreements
2. Key differences
3. Unique points in each document
4. Overall synthesis

Comparison:`, doc1, doc2)

	return m.Generate(ctx, prompt, GenerateOptions{Temperature: 0.4, MaxTokens: 2048})
}

// ExtractKeyPoints pulls out the numPoints most important points as a list.
func (m *Model) ExtractKeyPoints(ctx context.Context, text string, numPoints int) ([]string, error) {
	if numPoints <= 0 {
		numPoints = 5
	}

	prompt := fmt.Sprintf(`Extract the %d most important key points from the following text.
Return them as a numbered list.

Text:
%s

Key Points:`, numPoints, text)

	response, err := m.Generate(ctx, prompt, GenerateOptions{Temperature: 0.3})
	if err != nil {
		return nil, err
	}

	var points []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !containsAlnum(line) {
			continue
		}
		points = append(points, line)
		if len(points) == numPoints {
			break
		}
	}
	return points, nil
}

func containsAlnum(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
