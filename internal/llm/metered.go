package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Recorder persists the metadata of one generation.
type Recorder interface {
	RecordMeta(meta AgentMeta) error
}

type meteredGenerator struct {
	next      TextGenerator
	agentName string
	recorder  Recorder
	logger    *zap.Logger
}

// WithMetrics wraps gen so every successful generation is recorded under
// agentName. Recording failures are logged and otherwise ignored.
func WithMetrics(gen TextGenerator, agentName string, recorder Recorder, logger *zap.Logger) TextGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &meteredGenerator{next: gen, agentName: agentName, recorder: recorder, logger: logger}
}

func (m *meteredGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	start := time.Now()
	resp, err := m.next.GenerateContent(ctx, prompt)
	if err != nil {
		return resp, err
	}

	meta := AgentMeta{AgentName: m.agentName, Usage: resp.Usage, Latency: time.Since(start)}
	if err := m.recorder.RecordMeta(meta); err != nil {
		m.logger.Warn("failed to record llm usage",
			zap.String("agent", m.agentName),
			zap.Error(err))
	}
	return resp, nil
}
