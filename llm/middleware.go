package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
)

type rateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// WithRateLimit makes every call wait for a limiter token first.
func WithRateLimit(next Client, limiter *rate.Limiter) Client {
	if limiter == nil {
		return next
	}
	return &rateLimited{next: next, limiter: limiter}
}

func (r *rateLimited) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Complete(ctx, messages)
}

func (r *rateLimited) CompleteWithTool(ctx context.Context, messages []Message, tool Tool, forced string) (*ToolCall, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.CompleteWithTool(ctx, messages, tool, forced)
}

type instrumented struct {
	next Client
	m    *metrics.Metrics
	log  *logger.Logger
}

// WithMetrics records count, latency and outcome of every call.
func WithMetrics(next Client, m *metrics.Metrics, log *logger.Logger) Client {
	return &instrumented{next: next, m: m, log: log}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	elapsed := time.Since(start)
	i.m.LLMRequestsTotal.WithLabelValues(op, status).Inc()
	i.m.LLMRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	i.log.LogLLMCall(op, elapsed, err)
}

func (i *instrumented) Complete(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()
	text, err := i.next.Complete(ctx, messages)
	i.observe("complete", start, err)
	return text, err
}

func (i *instrumented) CompleteWithTool(ctx context.Context, messages []Message, tool Tool, forced string) (*ToolCall, error) {
	start := time.Now()
	call, err := i.next.CompleteWithTool(ctx, messages, tool, forced)
	i.observe("tool:"+tool.Name, start, err)
	return call, err
}
