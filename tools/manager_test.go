package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.New(slog.LevelError, logger.FormatJSON, io.Discard))
	os.Exit(m.Run())
}

// TestTool implements Tool interface for testing
type TestTool struct {
	name        string
	description string
	schema      mcp.InputSchema
	executor    func(ctx context.Context, args json.RawMessage) ([]byte, error)
}

func (t *TestTool) Name() string {
	return t.name
}

func (t *TestTool) Description() string {
	return t.description
}

func (t *TestTool) InputSchema() mcp.InputSchema {
	return t.schema
}

func (t *TestTool) Execute(ctx context.Context, args json.RawMessage) ([]byte, error) {
	return t.executor(ctx, args)
}

func newTestTool(name string, executor func(ctx context.Context, args json.RawMessage) ([]byte, error)) *TestTool {
	return &TestTool{
		name:        name,
		description: name + " tool",
		schema:      mcp.ObjectSchema(nil),
		executor:    executor,
	}
}

func TestToolManager(t *testing.T) {
	manager := NewManager("test")

	testTool := newTestTool("testTool", func(context.Context, json.RawMessage) ([]byte, error) {
		return json.Marshal("test result")
	})
	if err := manager.RegisterTool(testTool); err != nil {
		t.Fatalf("RegisterTool: %v", err)
	}

	result, err := manager.Invoke(context.Background(), "testTool", map[string]any{})
	if err != nil {
		t.Errorf("Invoke failed: %v", err)
	}
	if result != "test result" {
		t.Errorf("Expected 'test result', got %v", result)
	}

	_, err = manager.Invoke(context.Background(), "nonExistentTool", map[string]any{})
	if !IsToolNotFound(err) {
		t.Errorf("Expected tool not found error, got %v", err)
	}

	errorTool := newTestTool("errorTool", func(context.Context, json.RawMessage) ([]byte, error) {
		return nil, fmt.Errorf("test error")
	})
	manager.RegisterTool(errorTool)

	_, err = manager.Invoke(context.Background(), "errorTool", map[string]any{})
	if err == nil || err.Error() != "test error" {
		t.Errorf("Expected error from errorTool, got %v", err)
	}
}

func TestRegisterToolRejectsInvalid(t *testing.T) {
	manager := NewManager("test")
	if err := manager.RegisterTool(nil); err == nil {
		t.Error("expected error for nil tool")
	}
	if err := manager.RegisterTool(newTestTool("", nil)); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestListToolsKeepsRegistrationOrder(t *testing.T) {
	manager := NewManager("test")
	noop := func(context.Context, json.RawMessage) ([]byte, error) { return []byte(`{}`), nil }
	for _, name := range []string{"zeta", "alpha", "mid"} {
		manager.RegisterTool(newTestTool(name, noop))
	}
	// Replacing keeps the original slot.
	manager.RegisterTool(newTestTool("alpha", noop))

	descriptors, err := manager.ListTools()
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, d := range descriptors {
		names = append(names, d.Name)
	}
	if fmt.Sprint(names) != "[zeta alpha mid]" {
		t.Fatalf("unexpected order: %v", names)
	}
}

func TestInvokePassesArguments(t *testing.T) {
	manager := NewManager("test")
	manager.RegisterTool(newTestTool("echo", func(_ context.Context, args json.RawMessage) ([]byte, error) {
		return args, nil
	}))

	result, err := manager.Invoke(context.Background(), "echo", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if m, ok := result.(map[string]any); !ok || len(m) != 0 {
		t.Fatalf("nil args should arrive as {}, got %#v", result)
	}

	result, _ = manager.Invoke(context.Background(), "echo", map[string]any{"limit": 5})
	if result.(map[string]any)["limit"] != 5.0 {
		t.Fatalf("unexpected result %#v", result)
	}
}

type closeRecorder struct {
	name  string
	order *[]string
	err   error
}

func (c closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestCloseReleasesInReverseOrder(t *testing.T) {
	manager := NewManager("test")
	var order []string
	manager.AddCloser(closeRecorder{name: "db", order: &order})
	manager.AddCloser(closeRecorder{name: "client", order: &order, err: errors.New("boom")})

	err := manager.Close()
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected joined error, got %v", err)
	}
	if fmt.Sprint(order) != "[client db]" {
		t.Fatalf("unexpected close order %v", order)
	}
	if err := manager.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestConcurrentToolExecution(t *testing.T) {
	manager := NewManager("test")

	slowTool := newTestTool("slowTool", func(context.Context, json.RawMessage) ([]byte, error) {
		time.Sleep(100 * time.Millisecond)
		return json.Marshal("slow result")
	})
	manager.RegisterTool(slowTool)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := manager.Invoke(context.Background(), "slowTool", map[string]any{})
			if err != nil {
				t.Errorf("Concurrent Invoke failed: %v", err)
			}
			if result != "slow result" {
				t.Errorf("Expected 'slow result', got %v", result)
			}
		}()
	}
	wg.Wait()
}
