package metricsdb

type ExecutionMetric struct {
	ID               int64
	AgentName        string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	LatencyMs        int64
	Timestamp        int64
}
