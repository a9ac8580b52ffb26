package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/markup"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/telemetry"
)

// setupStats 安装测试用 MeterProvider，测试结束时恢复。
func setupStats(t *testing.T) *telemetry.Stats {
	t.Helper()

	stats := telemetry.NewStats()
	t.Cleanup(func() {
		if err := stats.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down stats: %v", err)
		}
	})

	return stats
}

func TestInstrumentLookup(t *testing.T) {
	stats := setupStats(t)

	boom := errors.New("boom")
	base := macro.LookupFunc(func(key string) (string, bool, error) {
		switch key {
		case "bad":
			return "", false, boom
		case "name":
			return "World", true, nil
		}
		return "", false, nil
	})
	lookup := telemetry.InstrumentLookup("test", base)

	out, err := macro.Expand("${name} ${name} ${missing}", lookup)
	require.NoError(t, err)
	assert.Equal(t, "World World ", out)

	_, err = macro.Expand("${bad}", lookup)
	require.ErrorIs(t, err, boom)

	counts, err := stats.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["macro.lookup.calls{outcome=hit,source=test}"])
	assert.Equal(t, int64(1), counts["macro.lookup.calls{outcome=miss,source=test}"])
	assert.Equal(t, int64(1), counts["macro.lookup.calls{outcome=error,source=test}"])
}

func TestInstrumentResolver(t *testing.T) {
	stats := setupStats(t)

	builtin := telemetry.InstrumentResolver("builtin", markup.Builtin)
	fallback := telemetry.InstrumentResolver("fallback", markup.ResolverFunc(func(string, []string) (string, bool, error) {
		return "fb", true, nil
	}))

	out, err := markup.Expand("?select|,a*?nope|*", markup.DefaultDelimiters, builtin, fallback)
	require.NoError(t, err)
	assert.Equal(t, "afb", out)

	var buf bytes.Buffer
	require.NoError(t, stats.Fprint(context.Background(), &buf))
	assert.Equal(t,
		"markup.resolver.calls{outcome=hit,source=builtin} 1\n"+
			"markup.resolver.calls{outcome=hit,source=fallback} 1\n"+
			"markup.resolver.calls{outcome=miss,source=builtin} 1\n",
		buf.String())
}
