package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML))
	assert.IsType(t, &TableFormatter{}, NewFormatter(FormatTable))
	assert.IsType(t, &TableFormatter{}, NewFormatter("unknown"))
}

type entry struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, entry{Key: "alice", Value: 42}))
	assert.Equal(t, "{\n  \"key\": \"alice\",\n  \"value\": 42\n}\n", buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := []entry{
		{Key: "alice", Value: map[string]any{"roles": []string{"admin"}}},
		{Key: "bob", Value: "hi"},
	}
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, data))
	assert.Equal(t, `- key: alice
  value:
    roles:
      - admin
- key: bob
  value: hi
`, buf.String())
}

type keyList []string

func (k keyList) Table() *Table {
	t := NewTable("KEY")
	for _, key := range k {
		t.AddRow(key)
	}
	return t
}

func TestTableFormatter(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		tbl := NewTable("KEY", "TYPE")
		tbl.AddRow("alice", "int")
		tbl.AddRow("bob-the-builder", "")

		var buf bytes.Buffer
		require.NoError(t, (&TableFormatter{}).Format(&buf, tbl))
		assert.Equal(t, "KEY              TYPE\nalice            int\nbob-the-builder  -\n", buf.String())
	})

	t.Run("tabular without headers", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&TableFormatter{NoHeaders: true}).Format(&buf, keyList{"a", "b\tc"}))
		assert.Equal(t, "a\nb c\n", buf.String())
	})

	t.Run("string", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&TableFormatter{}).Format(&buf, "ok"))
		assert.Equal(t, "ok\n", buf.String())
	})

	t.Run("fallback to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&TableFormatter{}).Format(&buf, map[string]int{"n": 1}))
		assert.JSONEq(t, `{"n":1}`, buf.String())
	})

	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&TableFormatter{}).Format(&buf, nil))
		assert.Empty(t, buf.String())
	})
}
