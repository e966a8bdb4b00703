package hivemind

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(Config{})
	require.NoError(t, err)
	return b
}

func TestReadDefaults(t *testing.T) {
	req := newBuilder(t).Read(ReadArgs{})

	assert.Equal(t, DefaultTargetTool, req.Tool)
	assert.Equal(t, "SELECT ID, CREATED_AT, SOURCE, CATEGORY, WORKSTREAM, SUMMARY, PRIORITY, STATUS"+
		" FROM SOVEREIGN_MIND.RAW.HIVE_MIND WHERE 1=1 ORDER BY CREATED_AT DESC LIMIT ?", req.Arguments.SQL)
	assert.Equal(t, []any{DefaultReadLimit}, req.Arguments.Bindings)
}

func TestReadFiltersAreBound(t *testing.T) {
	hostile := "x' OR '1'='1"
	req := newBuilder(t).Read(ReadArgs{Limit: 500, Workstream: hostile, Source: "CLAUDE"})

	assert.Contains(t, req.Arguments.SQL, "WHERE 1=1 AND WORKSTREAM = ? AND SOURCE = ?")
	assert.NotContains(t, req.Arguments.SQL, hostile)
	assert.Equal(t, []any{hostile, "CLAUDE", MaxReadLimit}, req.Arguments.Bindings)
	assert.Equal(t, strings.Count(req.Arguments.SQL, "?"), len(req.Arguments.Bindings))
}

func TestWrite(t *testing.T) {
	req, err := newBuilder(t).Write(WriteArgs{
		Source:   "CLAUDE",
		Category: "DECISION",
		Summary:  "Ship v2 on O'Hare timeline",
		Details:  map[string]any{"owner": "ops"},
		Priority: "high",
		Tags:     []string{"release", "v2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO SOVEREIGN_MIND.RAW.HIVE_MIND (SOURCE, CATEGORY, WORKSTREAM, SUMMARY, DETAILS, PRIORITY, TAGS)"+
		" SELECT ?, ?, ?, ?, PARSE_JSON(?), ?, PARSE_JSON(?)", req.Arguments.SQL)
	assert.Equal(t, []any{
		"CLAUDE", "DECISION", DefaultWorkstream, "Ship v2 on O'Hare timeline",
		`{"owner":"ops"}`, "HIGH", `["release","v2"]`,
	}, req.Arguments.Bindings)
}

func TestWriteWithoutTagsBindsNull(t *testing.T) {
	req, err := newBuilder(t).Write(WriteArgs{Source: "s", Category: "c", Summary: "x"})
	require.NoError(t, err)
	assert.Equal(t, "{}", req.Arguments.Bindings[4])
	assert.Equal(t, DefaultPriority, req.Arguments.Bindings[5])
	assert.Nil(t, req.Arguments.Bindings[6])
}

func TestWriteValidation(t *testing.T) {
	b := newBuilder(t)
	tests := []struct {
		name string
		args WriteArgs
	}{
		{"missing source", WriteArgs{Category: "c", Summary: "s"}},
		{"missing summary", WriteArgs{Source: "s", Category: "c"}},
		{"long summary", WriteArgs{Source: "s", Category: "c", Summary: strings.Repeat("a", MaxSummaryLength+1)}},
		{"bad priority", WriteArgs{Source: "s", Category: "c", Summary: "x", Priority: "URGENT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Write(tt.args)
			assert.True(t, types.IsKind(err, types.SemanticKindInvalidArguments), "got %v", err)
		})
	}
}

func TestNewBuilderRejectsUnsafeTable(t *testing.T) {
	for _, table := range []string{"T; DROP TABLE X", "a.b.c.d", "1BAD", "x y"} {
		_, err := NewBuilder(Config{Table: table})
		assert.Error(t, err, table)
	}
	b, err := NewBuilder(Config{Table: "DB.SCHEMA.MEMORY", TargetTool: "wh_query"})
	require.NoError(t, err)
	req := b.Read(ReadArgs{})
	assert.Equal(t, "wh_query", req.Tool)
	assert.Contains(t, req.Arguments.SQL, "FROM DB.SCHEMA.MEMORY ")
}

func TestToolsExecute(t *testing.T) {
	tools := Tools(newBuilder(t))
	require.Len(t, tools, 2)
	assert.Equal(t, "read", tools[0].Name())
	assert.Equal(t, "write", tools[1].Name())
	assert.Equal(t, []string{"source", "category", "summary"}, tools[1].InputSchema().Required)

	out, err := tools[0].Execute(context.Background(), json.RawMessage(`{"limit":3,"category":"CONTEXT"}`))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "sm_query_snowflake", decoded["tool"])
	args := decoded["arguments"].(map[string]any)
	assert.Equal(t, []any{"CONTEXT", 3.0}, args["bindings"])

	_, err = tools[1].Execute(context.Background(), json.RawMessage(`{"source":"s"}`))
	assert.Error(t, err)
}
