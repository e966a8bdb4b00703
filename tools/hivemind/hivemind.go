// Package hivemind builds statements against the shared Hive Mind table.
//
// The tools never touch the warehouse themselves. Each returns a request
// description naming the SQL tool to call next, with every user value passed
// as a positional binding.
package hivemind

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

const (
	DefaultTable       = "SOVEREIGN_MIND.RAW.HIVE_MIND"
	DefaultTargetTool  = "sm_query_snowflake"
	DefaultReadLimit   = 10
	MaxReadLimit       = 50
	MaxSummaryLength   = 2000
	DefaultWorkstream  = "GENERAL"
	DefaultPriority    = "MEDIUM"
	executionNote      = "Execute with a second tools/call using the tool and arguments above"
	tableNameMaxLength = 255
)

var (
	priorities = []string{"HIGH", "MEDIUM", "LOW"}
	tableName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*){0,2}$`)
)

// Config selects the table and the tool that executes the statements.
type Config struct {
	Table      string
	TargetTool string
}

// Request is the description returned by both tools.
type Request struct {
	Tool      string    `json:"tool"`
	Arguments Statement `json:"arguments"`
	Note      string    `json:"note"`
}

// Statement is SQL with positional bindings.
type Statement struct {
	SQL      string `json:"sql"`
	Bindings []any  `json:"bindings"`
}

// Builder produces Hive Mind statements.
type Builder struct {
	table  string
	target string
}

// NewBuilder validates cfg. The table name is interpolated into SQL, so it
// must be a plain (optionally qualified) identifier.
func NewBuilder(cfg Config) (*Builder, error) {
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = DefaultTable
	}
	if len(table) > tableNameMaxLength || !tableName.MatchString(table) {
		return nil, fmt.Errorf("hivemind: invalid table name %q", table)
	}
	target := strings.TrimSpace(cfg.TargetTool)
	if target == "" {
		target = DefaultTargetTool
	}
	return &Builder{table: table, target: target}, nil
}

// ReadArgs filters a read.
type ReadArgs struct {
	Limit      int
	Workstream string
	Category   string
	Source     string
}

// Read returns the newest entries matching the filters.
func (b *Builder) Read(args ReadArgs) Request {
	limit := args.Limit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	limit = min(limit, MaxReadLimit)

	conditions := []string{"1=1"}
	bindings := []any{}
	for _, filter := range []struct {
		column string
		value  string
	}{
		{"WORKSTREAM", args.Workstream},
		{"CATEGORY", args.Category},
		{"SOURCE", args.Source},
	} {
		if filter.value == "" {
			continue
		}
		conditions = append(conditions, filter.column+" = ?")
		bindings = append(bindings, filter.value)
	}
	bindings = append(bindings, limit)

	sql := "SELECT ID, CREATED_AT, SOURCE, CATEGORY, WORKSTREAM, SUMMARY, PRIORITY, STATUS" +
		" FROM " + b.table +
		" WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY CREATED_AT DESC LIMIT ?"
	return b.request(sql, bindings)
}

// WriteArgs is one new entry.
type WriteArgs struct {
	Source     string         `json:"source"`
	Category   string         `json:"category"`
	Workstream string         `json:"workstream"`
	Summary    string         `json:"summary"`
	Details    map[string]any `json:"details"`
	Priority   string         `json:"priority"`
	Tags       []string       `json:"tags"`
}

// Write returns an insert for args after validating it.
func (b *Builder) Write(args WriteArgs) (Request, error) {
	for _, required := range []struct{ name, value string }{
		{"source", args.Source},
		{"category", args.Category},
		{"summary", args.Summary},
	} {
		if strings.TrimSpace(required.value) == "" {
			return Request{}, types.NewInvalidArgumentsError(required.name+" is required", map[string]any{"argument": required.name})
		}
	}
	if utf8.RuneCountInString(args.Summary) > MaxSummaryLength {
		return Request{}, types.NewInvalidArgumentsError(
			fmt.Sprintf("summary exceeds %d characters", MaxSummaryLength),
			map[string]any{"argument": "summary"})
	}

	workstream := args.Workstream
	if workstream == "" {
		workstream = DefaultWorkstream
	}
	priority := strings.ToUpper(strings.TrimSpace(args.Priority))
	if priority == "" {
		priority = DefaultPriority
	}
	if !slices.Contains(priorities, priority) {
		return Request{}, types.NewInvalidArgumentsError(
			fmt.Sprintf("priority must be one of %s", strings.Join(priorities, ", ")),
			map[string]any{"argument": "priority"})
	}

	details := args.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return Request{}, fmt.Errorf("hivemind: encode details: %w", err)
	}
	var tags any
	if len(args.Tags) > 0 {
		encoded, err := json.Marshal(args.Tags)
		if err != nil {
			return Request{}, fmt.Errorf("hivemind: encode tags: %w", err)
		}
		tags = string(encoded)
	}

	// Snowflake rejects PARSE_JSON inside VALUES, hence INSERT ... SELECT.
	sql := "INSERT INTO " + b.table +
		" (SOURCE, CATEGORY, WORKSTREAM, SUMMARY, DETAILS, PRIORITY, TAGS)" +
		" SELECT ?, ?, ?, ?, PARSE_JSON(?), ?, PARSE_JSON(?)"
	return b.request(sql, []any{
		args.Source,
		args.Category,
		workstream,
		args.Summary,
		string(detailsJSON),
		priority,
		tags,
	}), nil
}

func (b *Builder) request(sql string, bindings []any) Request {
	return Request{
		Tool:      b.target,
		Arguments: Statement{SQL: sql, Bindings: bindings},
		Note:      executionNote,
	}
}
