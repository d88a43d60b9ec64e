package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

// fakeLLM returns canned responses and records the messages it received.
type fakeLLM struct {
	response string
	err      error
	noChoice bool

	lastMessages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMessages = messages
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoice {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func TestModel_Generate(t *testing.T) {
	fake := &fakeLLM{response: "the answer"}
	model := NewModelFromLLM(fake, "test-model")

	got, err := model.Generate(context.Background(), "question", GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "the answer" {
		t.Errorf("Generate() = %q, want %q", got, "the answer")
	}
	if len(fake.lastMessages) != 1 {
		t.Errorf("got %d messages, want 1 (no system prompt)", len(fake.lastMessages))
	}
}

func TestModel_GenerateWithSystem(t *testing.T) {
	fake := &fakeLLM{response: "ok"}
	model := NewModelFromLLM(fake, "test-model")

	_, err := model.Generate(context.Background(), "question", GenerateOptions{System: "be brief"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(fake.lastMessages) != 2 {
		t.Fatalf("got %d messages, want 2", len(fake.lastMessages))
	}
	if fake.lastMessages[0].Role != llms.ChatMessageTypeSystem {
		t.Errorf("first message role = %v, want system", fake.lastMessages[0].Role)
	}
}

func TestModel_GenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeLLM
	}{
		{name: "backend error", fake: &fakeLLM{err: errors.New("connection refused")}},
		{name: "no choices", fake: &fakeLLM{noChoice: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewModelFromLLM(tt.fake, "test-model")
			_, err := model.Generate(context.Background(), "question", GenerateOptions{})
			if !errors.Is(err, ErrGeneration) {
				t.Errorf("Generate() error = %v, want ErrGeneration", err)
			}
		})
	}
}

func TestModel_AnalyzeWithContext(t *testing.T) {
	fake := &fakeLLM{response: "grounded answer"}
	model := NewModelFromLLM(fake, "test-model")

	got, err := model.AnalyzeWithContext(context.Background(), "what is X?", "X is a thing.")
	if err != nil {
		t.Fatalf("AnalyzeWithContext() error = %v", err)
	}
	if got != "grounded answer" {
		t.Errorf("AnalyzeWithContext() = %q", got)
	}

	// Context and query must both appear in the prompt.
	prompt := textOf(t, fake.lastMessages[len(fake.lastMessages)-1])
	if !strings.Contains(prompt, "X is a thing.") || !strings.Contains(prompt, "what is X?") {
		t.Errorf("prompt missing context or query: %q", prompt)
	}
}

func TestModel_SummarizeStyles(t *testing.T) {
	tests := []struct {
		style    SummaryStyle
		wantWord string
	}{
		{style: StyleComprehensive, wantWord: "comprehensive"},
		{style: StyleConcise, wantWord: "concise"},
		{style: StyleBullet, wantWord: "bullet-point"},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			fake := &fakeLLM{response: "summary"}
			model := NewModelFromLLM(fake, "test-model")

			_, err := model.Summarize(context.Background(), "long text", tt.style, 100)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			prompt := textOf(t, fake.lastMessages[0])
			if !strings.Contains(strings.ToLower(prompt), tt.wantWord) {
				t.Errorf("prompt for style %q missing %q", tt.style, tt.wantWord)
			}
		})
	}
}

func TestModel_SynthesizeSources(t *testing.T) {
	fake := &fakeLLM{response: "synthesis"}
	model := NewModelFromLLM(fake, "test-model")

	_, err := model.SynthesizeSources(context.Background(), []string{"finding one", "finding two"})
	if err != nil {
		t.Fatalf("SynthesizeSources() error = %v", err)
	}

	prompt := textOf(t, fake.lastMessages[0])
	for _, want := range []string{"--- Source 1 ---", "--- Source 2 ---", "finding one", "finding two"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestModel_ExtractKeyPoints(t *testing.T) {
	fake := &fakeLLM{response: "1. First point\n\n2. Second point\n---\n3. Third point"}
	model := NewModelFromLLM(fake, "test-model")

	points, err := model.ExtractKeyPoints(context.Background(), "text", 2)
	if err != nil {
		t.Fatalf("ExtractKeyPoints() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0] != "1. First point" || points[1] != "2. Second point" {
		t.Errorf("points = %v", points)
	}
}

// textOf extracts the concatenated text parts of a message.
func textOf(t *testing.T, msg llms.MessageContent) string {
	t.Helper()
	var sb strings.Builder
	for _, part := range msg.Parts {
		if tp, ok := part.(llms.TextContent); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}
