package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoggingProvider is a decorator that records every LLM request as a
// structured log entry.
type LoggingProvider struct {
	inner  Provider
	logger *zap.Logger
}

// WithLogging wraps a Provider with structured request logging.
func WithLogging(p Provider, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	fields := []zap.Field{
		zap.String("purpose", purpose),
		zap.String("model", l.inner.ModelID()),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		zap.Int("images", countImages(req)),
	}

	if resp != nil {
		fields = append(fields,
			zap.String("served_by", resp.Model),
			zap.Int("input_tokens", resp.Usage.InputTokens),
			zap.Int("output_tokens", resp.Usage.OutputTokens),
			zap.String("stop_reason", resp.StopReason),
		)
		if cost := LookupCost(resp.Model); cost != nil {
			fields = append(fields, zap.Float64("est_cost_usd",
				cost.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens)))
		}
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		l.logger.Warn("llm request failed", fields...)
		return resp, err
	}

	l.logger.Info("llm request", fields...)
	return resp, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func countImages(req Request) int {
	n := 0
	for _, m := range req.Messages {
		n += len(m.Images)
	}
	return n
}
