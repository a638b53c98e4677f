package llm

import (
	"context"
	"errors"
	"testing"
)

type stubGenerator struct {
	resp ContentResponse
	err  error
}

func (s *stubGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	return s.resp, s.err
}

type stubRecorder struct {
	metas []AgentMeta
	err   error
}

func (r *stubRecorder) RecordMeta(meta AgentMeta) error {
	r.metas = append(r.metas, meta)
	return r.err
}

func TestWithMetrics(t *testing.T) {
	usage := TokenUsage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7, Model: "m"}

	t.Run("RecordsUsage", func(t *testing.T) {
		rec := &stubRecorder{}
		gen := WithMetrics(&stubGenerator{resp: ContentResponse{Content: "ok", Usage: usage}}, "clipper", rec, nil)

		resp, err := gen.GenerateContent(context.Background(), "p")
		if err != nil {
			t.Fatalf("GenerateContent failed: %v", err)
		}
		if resp.Content != "ok" {
			t.Errorf("Expected content to pass through, got %q", resp.Content)
		}
		if len(rec.metas) != 1 || rec.metas[0].AgentName != "clipper" || rec.metas[0].Usage != usage {
			t.Errorf("Unexpected recorded metas: %+v", rec.metas)
		}
	})

	t.Run("RecorderFailureIgnored", func(t *testing.T) {
		rec := &stubRecorder{err: errors.New("db locked")}
		gen := WithMetrics(&stubGenerator{resp: ContentResponse{Content: "ok"}}, "clipper", rec, nil)
		if _, err := gen.GenerateContent(context.Background(), "p"); err != nil {
			t.Errorf("Expected recorder errors to be swallowed, got %v", err)
		}
	})

	t.Run("GenerationFailureNotRecorded", func(t *testing.T) {
		rec := &stubRecorder{}
		gen := WithMetrics(&stubGenerator{err: errors.New("boom")}, "clipper", rec, nil)
		if _, err := gen.GenerateContent(context.Background(), "p"); err == nil {
			t.Error("Expected the generation error")
		}
		if len(rec.metas) != 0 {
			t.Errorf("Expected nothing recorded, got %+v", rec.metas)
		}
	})
}
