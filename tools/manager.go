package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jstewartrr/sm-mcp-gateway-v2/gateway"
	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
	"github.com/jstewartrr/sm-mcp-gateway-v2/mcp"
	"github.com/jstewartrr/sm-mcp-gateway-v2/tools/types"
)

var ErrToolNotFound = errors.New("tool not found")

func IsToolNotFound(err error) bool {
	return errors.Is(err, ErrToolNotFound)
}

// Manager is an ordered tool set that serves as one gateway backend. Tools
// are listed in registration order.
type Manager struct {
	name    string
	order   []string
	tools   map[string]types.Tool
	closers []io.Closer
	mutex   sync.RWMutex
}

// NewManager creates a new tool manager for the named backend
func NewManager(name string) *Manager {
	return &Manager{
		name:  name,
		tools: make(map[string]types.Tool),
	}
}

// Name returns the backend name the manager was created with.
func (m *Manager) Name() string {
	return m.name
}

// RegisterTool registers a new tool. Re-registering a name replaces the tool
// but keeps its original position.
func (m *Manager) RegisterTool(tool types.Tool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if tool == nil {
		return errors.New("tool cannot be nil")
	}

	name := tool.Name()
	if name == "" {
		return errors.New("tool name cannot be empty")
	}

	if _, exists := m.tools[name]; !exists {
		m.order = append(m.order, name)
	}
	m.tools[name] = tool
	logger.Debug("Tool registered", "backend", m.name, "name", name)
	return nil
}

// RegisterTools registers tools in order and stops at the first failure.
func (m *Manager) RegisterTools(tools ...types.Tool) error {
	for _, tool := range tools {
		if err := m.RegisterTool(tool); err != nil {
			return err
		}
	}
	return nil
}

// AddCloser attaches a resource released by Close.
func (m *Manager) AddCloser(c io.Closer) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closers = append(m.closers, c)
}

// GetTool retrieves a tool by name
func (m *Manager) GetTool(name string) (types.Tool, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tool, exists := m.tools[name]
	return tool, exists
}

// Tools returns all registered tools in order
func (m *Manager) Tools() []types.Tool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tools := make([]types.Tool, 0, len(m.order))
	for _, name := range m.order {
		tools = append(tools, m.tools[name])
	}
	return tools
}

// ExecuteTool executes a tool by name with the given arguments
func (m *Manager) ExecuteTool(ctx context.Context, name string, args json.RawMessage) ([]byte, error) {
	tool, exists := m.GetTool(name)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	logger.Debug("Executing tool", "backend", m.name, "name", name, "args", string(args))
	return tool.Execute(ctx, args)
}

// ListTools returns the descriptors of every registered tool.
func (m *Manager) ListTools() ([]mcp.Tool, error) {
	tools := m.Tools()
	descriptors := make([]mcp.Tool, 0, len(tools))
	for _, tool := range tools {
		descriptors = append(descriptors, mcp.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return descriptors, nil
}

// Invoke converts the argument map to JSON, runs the tool and decodes its
// JSON result.
func (m *Manager) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}

	resultJSON, err := m.ExecuteTool(ctx, name, argsJSON)
	if err != nil {
		return nil, err
	}
	if len(resultJSON) == 0 {
		return nil, nil
	}

	var result any
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", name, err)
	}
	return result, nil
}

// Close releases attached resources in reverse order.
func (m *Manager) Close() error {
	m.mutex.Lock()
	closers := m.closers
	m.closers = nil
	m.mutex.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ gateway.Backend    = (*Manager)(nil)
	_ types.ToolRegistry = (*Manager)(nil)
)
