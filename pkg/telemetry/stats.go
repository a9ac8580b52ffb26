package telemetry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Stats 进程内的指标汇总，用于命令行输出调用统计。
type Stats struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	previous metric.MeterProvider
}

// NewStats 安装基于手动读取器的全局 MeterProvider。
//
// 需在创建包装器之前调用；Shutdown 会恢复之前的 provider。
func NewStats() *Stats {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	s := &Stats{
		reader:   reader,
		provider: provider,
		previous: otel.GetMeterProvider(),
	}
	otel.SetMeterProvider(provider)

	return s
}

// Collect 汇总所有整数计数器，键格式为 name{k=v,...}，属性按键排序。
func (s *Stats) Collect(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("telemetry: collect metrics: %w", err)
	}

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				attrs := dp.Attributes.ToSlice()
				parts := make([]string, len(attrs))
				for i, kv := range attrs {
					parts[i] = string(kv.Key) + "=" + kv.Value.Emit()
				}
				out[m.Name+"{"+strings.Join(parts, ",")+"}"] += dp.Value
			}
		}
	}

	return out, nil
}

// Fprint 将计数器按键排序写入 w，每行一项。
func (s *Stats) Fprint(ctx context.Context, w io.Writer) error {
	counts, err := s.Collect(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s %d\n", k, counts[k]); err != nil {
			return fmt.Errorf("telemetry: write stats: %w", err)
		}
	}

	return nil
}

// Shutdown 关闭 provider 并恢复之前的全局 MeterProvider。
func (s *Stats) Shutdown(ctx context.Context) error {
	otel.SetMeterProvider(s.previous)

	if err := s.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutdown meter provider: %w", err)
	}

	return nil
}
