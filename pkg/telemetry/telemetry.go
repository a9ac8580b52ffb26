// Package telemetry 为宏查找与标记解析器记录 OpenTelemetry 指标。
//
// 指标通过全局 MeterProvider 上报，调用方负责配置 provider；
// 未配置时 otel 默认使用 no-op 实现，包装器几乎没有开销。
//
// 指标：
//   - macro.lookup.calls / markup.resolver.calls - 调用次数，属性 source 与 outcome
//   - macro.lookup.latency_ms / markup.resolver.latency_ms - 调用耗时
//
// outcome 取值为 hit、miss、error。
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/markup"
)

// MeterName 为本包使用的 Meter 名称。
const MeterName = "github.com/lwmacct/251218-go-pkg-markup"

// 指标名称。
const (
	LookupCalls     = "macro.lookup.calls"
	LookupLatency   = "macro.lookup.latency_ms"
	ResolverCalls   = "markup.resolver.calls"
	ResolverLatency = "markup.resolver.latency_ms"
)

// outcome 属性取值。
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// instruments 一组调用计数与耗时指标。
type instruments struct {
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

func newInstruments(calls, latency, what string) (*instruments, error) {
	meter := otel.Meter(MeterName)

	c, err := meter.Int64Counter(calls,
		metric.WithDescription("Number of "+what+" calls"),
	)
	if err != nil {
		return nil, err
	}

	l, err := meter.Float64Histogram(latency,
		metric.WithDescription(what+" latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{calls: c, latency: l}, nil
}

func (in *instruments) record(source string, start time.Time, ok bool, err error) {
	outcome := OutcomeMiss
	switch {
	case err != nil:
		outcome = OutcomeError
	case ok:
		outcome = OutcomeHit
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	)
	in.calls.Add(ctx, 1, attrs)
	in.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

// ═══════════════════════════════════════════════════════════════════════════
// 包装器
// ═══════════════════════════════════════════════════════════════════════════

// InstrumentLookup 返回记录指标的 Lookup，source 作为指标属性。
//
// 指标初始化失败时记录警告并原样返回 l。
func InstrumentLookup(source string, l macro.Lookup) macro.Lookup {
	in, err := newInstruments(LookupCalls, LookupLatency, "macro lookup")
	if err != nil {
		slog.Warn("telemetry: lookup metrics unavailable", "source", source, "error", err)
		return l
	}

	return macro.LookupFunc(func(key string) (string, bool, error) {
		start := time.Now()
		v, ok, err := l.Lookup(key)
		in.record(source, start, ok, err)

		return v, ok, err
	})
}

// InstrumentResolver 返回记录指标的 Resolver，source 作为指标属性。
//
// 指标初始化失败时记录警告并原样返回 r。
func InstrumentResolver(source string, r markup.Resolver) markup.Resolver {
	in, err := newInstruments(ResolverCalls, ResolverLatency, "markup resolver")
	if err != nil {
		slog.Warn("telemetry: resolver metrics unavailable", "source", source, "error", err)
		return r
	}

	return markup.ResolverFunc(func(name string, args []string) (string, bool, error) {
		start := time.Now()
		v, ok, err := r.Resolve(name, args)
		in.record(source, start, ok, err)

		return v, ok, err
	})
}
