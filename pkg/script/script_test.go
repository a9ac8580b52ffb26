package script_test

import (
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/itsatony/go-cuserr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/markup"
	"github.com/lwmacct/251218-go-pkg-markup/pkg/script"
)

const testScript = `
function greet(who) { return "hello " + who; }
function count() { return String(arguments.length); }
function sum(a, b) { return Number(a) + Number(b); }
function nothing() {}
function nil() { return null; }
function fail() { throw new Error("boom"); }
function spin() { for (;;) {} }
function busy(n) { var x = 0; for (var i = 0; i < Number(n); i++) { x += i; } return "done"; }
function ok() { return "ok"; }
var notAFunction = 42;
`

func newResolver(t *testing.T, opts ...script.Option) *script.Resolver {
	t.Helper()

	r, err := script.New("test.js", testScript, opts...)
	require.NoError(t, err)

	return r
}

func TestResolver_Resolve(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		name   string
		fn     string
		args   []string
		want   string
		wantOK bool
	}{
		{name: "string result", fn: "greet", args: []string{"world"}, want: "hello world", wantOK: true},
		{name: "args spread", fn: "count", args: []string{"a", "b", "c"}, want: "3", wantOK: true},
		{name: "number result", fn: "sum", args: []string{"1", "2"}, want: "3", wantOK: true},
		{name: "undefined result", fn: "nothing"},
		{name: "null result", fn: "nil"},
		{name: "exception", fn: "fail"},
		{name: "missing function", fn: "missing"},
		{name: "not callable", fn: "notAFunction"},
		{name: "runtime eval", fn: "eval", args: []string{"1+1"}},
		{name: "runtime Function", fn: "Function", args: []string{"return 1"}},
		{name: "runtime Object", fn: "Object", args: []string{"x"}},
		{name: "runtime String", fn: "String", args: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := r.Resolve(tt.fn, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Timeout(t *testing.T) {
	r := newResolver(t, script.WithTimeout(50*time.Millisecond))

	_, ok, err := r.Resolve("spin", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// 中断状态已清除，后续调用正常
	got, ok, err := r.Resolve("greet", []string{"again"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello again", got)
}

func TestNew_SyntaxError(t *testing.T) {
	_, err := script.New("bad.js", "function (")
	require.Error(t, err)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	name, ok := customErr.GetMetadata(script.MetaKeyScript)
	assert.True(t, ok)
	assert.Equal(t, "bad.js", name)
}

func TestNew_TopLevelThrow(t *testing.T) {
	_, err := script.New("throw.js", `throw new Error("init")`)
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scripts/tools.js", []byte(`function shout(s) { return s.toUpperCase() + "!"; }`), 0o644))

	r, err := script.Load(fs, "/scripts/tools.js")
	require.NoError(t, err)
	assert.Equal(t, "/scripts/tools.js", r.Name())

	out, err := markup.ExpandWith("?shout|?select|,hey**", r)
	require.NoError(t, err)
	assert.Equal(t, "HEY!", out)

	_, err = script.Load(fs, "/scripts/missing.js")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	path, ok := customErr.GetMetadata(script.MetaKeyPath)
	assert.True(t, ok)
	assert.Equal(t, "/scripts/missing.js", path)
}

func TestResolver_BuiltinPrecedence(t *testing.T) {
	r, err := script.New("shadow.js", `function select() { return "script"; } function other() { return "script"; }`)
	require.NoError(t, err)

	out, err := markup.ExpandWith("?select|a*/?other|*", r)
	require.NoError(t, err)
	assert.Equal(t, "a/script", out)
}

func TestResolver_TimeoutDoesNotLeak(t *testing.T) {
	r := newResolver(t, script.WithTimeout(time.Millisecond))

	iterations := 2000
	if testing.Short() {
		iterations = 200
	}

	misses := 0
	for i := range iterations {
		// 循环长度在超时前后变化，覆盖调用结束与定时器触发相互交错的情况
		_, _, err := r.Resolve("busy", []string{strconv.Itoa(1000 * (i % 64))})
		require.NoError(t, err)

		got, ok, err := r.Resolve("ok", nil)
		require.NoError(t, err)
		if !ok || got != "ok" {
			misses++
		}
	}
	assert.Zero(t, misses, "a finished call must not interrupt the next one")
}

func TestResolver_VarFunction(t *testing.T) {
	r, err := script.New("var.js", `var twice = function(s) { return s + s; };`)
	require.NoError(t, err)

	got, ok, err := r.Resolve("twice", []string{"ab"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abab", got)
}
