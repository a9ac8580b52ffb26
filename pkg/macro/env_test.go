package macro_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/251218-go-pkg-markup/pkg/macro"
)

func TestExpandEnv_ShellParameterExpansion(t *testing.T) {
	t.Setenv("SHELL_SET", "set-value")
	t.Setenv("SHELL_EMPTY", "")

	tests := []struct {
		name     string
		template string
		want     string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "basic expansion",
			template: `prefix-${SHELL_SET}-suffix`,
			want:     "prefix-set-value-suffix",
		},
		{
			name:     "missing expands to empty",
			template: `x=${SHELL_MISSING}`,
			want:     "x=",
		},
		{
			name:     "fallback with colon treats empty as unset",
			template: `${SHELL_EMPTY:-fallback}`,
			want:     "fallback",
		},
		{
			name:     "fallback without colon keeps empty",
			template: `x=${SHELL_EMPTY-fallback}`,
			want:     "x=",
		},
		{
			name:     "alternate with colon",
			template: `${SHELL_SET:+alt}`,
			want:     "alt",
		},
		{
			name:     "nested fallback",
			template: `${SHELL_MISSING:-${SHELL_SET}}`,
			want:     "set-value",
		},
		{
			name:     "assignment updates snapshot",
			template: `${SHELL_NEW:=value}-${SHELL_NEW}`,
			want:     "value-value",
		},
		{
			name:     "literal dollar",
			template: `$$${SHELL_SET}`,
			want:     "$set-value",
		},
		{
			name:     "non parameter kept",
			template: `${1abc}`,
			want:     "${1abc}",
		},
		{
			name:     "required var triggers error",
			template: `${SHELL_MISSING:?missing}`,
			wantErr:  true,
			errMsg:   "missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := macro.ExpandEnv(tt.template)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandEnv_JSONConfig(t *testing.T) {
	t.Setenv("API_KEY", "sk-test-123")
	t.Setenv("MODEL", "gpt-4")

	jsonConfig := `{"name": "${AGENT_NAME:-test-agent}", "model": "${MODEL:-gpt-3.5-turbo}", "api_key": "${API_KEY}", "max_tokens": 2048}`

	expanded, err := macro.ExpandEnv(jsonConfig)
	require.NoError(t, err)
	assert.Contains(t, expanded, "test-agent", "AGENT_NAME should fall back")
	assert.Contains(t, expanded, `"model": "gpt-4"`)
	assert.Contains(t, expanded, "sk-test-123")
}

func TestEnvLookup(t *testing.T) {
	env := macro.EnvFrom(map[string]string{
		"SET":   "v",
		"EMPTY": "",
	})

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{key: "SET", want: "v", wantOK: true},
		{key: "MISSING", wantOK: false},
		{key: "EMPTY", want: "", wantOK: true},
		{key: "EMPTY:-dflt", want: "dflt", wantOK: true},
		{key: "EMPTY-dflt", want: "", wantOK: true},
		{key: "MISSING-dflt", want: "dflt", wantOK: true},
		{key: "SET:+alt", want: "alt", wantOK: true},
		{key: "EMPTY:+alt", want: "", wantOK: true},
		{key: "EMPTY+alt", want: "alt", wantOK: true},
		{key: "not a name", wantOK: false},
		{key: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok, err := env.Lookup(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvLookup_AssignAndRequired(t *testing.T) {
	vars := map[string]string{"A": "1"}
	env := macro.EnvFrom(vars)

	got, err := macro.Expand("${B:=two}/${B}/${A=x}", env)
	require.NoError(t, err)
	assert.Equal(t, "two/two/1", got)
	assert.NotContains(t, vars, "B", "snapshot is a copy")

	_, err = macro.Expand("${C:?need C}", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need C")

	_, err = macro.Expand("${C?}", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter null or not set")
}

func TestEnvLookup_WordIsExpanded(t *testing.T) {
	env := macro.EnvFrom(map[string]string{"HOST": "db"})
	lookup := macro.Chain{macro.Map{"port": "5432", "dsn": "${HOST}:${port}"}, env}

	got, err := macro.Expand("${URL:-dsn=${dsn}", lookup)
	require.NoError(t, err)
	assert.Equal(t, "dsn=${dsn", got, "word is re-expanded, unterminated stays")

	got, err = macro.Expand("${dsn}", lookup)
	require.NoError(t, err)
	assert.Equal(t, "db:5432", got)

	// 结束定界符取第一个 "}"，嵌套 fallback 需使用 ExpandEnv
	got, err = macro.Expand("${MISSING:-${HOST}}", env)
	require.NoError(t, err)
	assert.Equal(t, "${HOST}", got)
}

func TestEnvLookup_ColonOperators(t *testing.T) {
	vars := map[string]string{"SET": "v"}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{key: "build-type", wantOK: false},
		{key: "build+type", wantOK: false},
		{key: "build=type", wantOK: false},
		{key: "build?type", wantOK: false},
		{key: "SET", want: "v", wantOK: true},
		{key: "MISSING:-dflt", want: "dflt", wantOK: true},
		{key: "SET:+alt", want: "alt", wantOK: true},
	}

	env := macro.EnvFrom(vars, macro.ColonOperators())
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok, err := env.Lookup(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := macro.New(macro.WithInvalid("?")).Expand("${build-type}", env)
	require.NoError(t, err)
	assert.Equal(t, "?", got)

	got, err = macro.Expand("${build-type}", macro.EnvFrom(vars))
	require.NoError(t, err)
	assert.Equal(t, "type", got, "bare operators stay enabled by default")
}
