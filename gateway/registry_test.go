package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllContinuesPastFailures(t *testing.T) {
	a := &fakeBackend{tools: toolsNamed("one")}
	c := &fakeBackend{tools: toolsNamed("three")}
	registry := RegisterAll(context.Background(), []Spec{
		staticSpec("a", a),
		failingSpec("b", "missing credentials"),
		staticSpec("c", c),
	})

	require.Equal(t, []string{"a", "b", "c"}, registry.Prefixes())

	regA, ok := registry.Lookup("a")
	require.True(t, ok)
	assert.True(t, regA.Healthy())

	regB, ok := registry.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, StateFailed, regB.State)
	assert.Nil(t, regB.Backend)
	assert.EqualError(t, regB.Err, "missing credentials")

	regC, ok := registry.Lookup("c")
	require.True(t, ok)
	assert.True(t, regC.Healthy())
}

func TestRegisterAllRecoversFactoryPanic(t *testing.T) {
	registry := RegisterAll(context.Background(), []Spec{
		{Prefix: "boom", Factory: func(context.Context) (Backend, error) { panic("bad wiring") }},
		{Prefix: "nil", Factory: func(context.Context) (Backend, error) { return nil, nil }},
		{Prefix: "nofactory"},
		staticSpec("ok", &fakeBackend{}),
	})

	for _, prefix := range []string{"boom", "nil", "nofactory"} {
		reg, ok := registry.Lookup(prefix)
		require.True(t, ok, prefix)
		assert.Equal(t, StateFailed, reg.State, prefix)
		assert.Error(t, reg.Err, prefix)
	}
	reg, _ := registry.Lookup("ok")
	assert.True(t, reg.Healthy())
}

func TestRegisterAllRejectsBadPrefixes(t *testing.T) {
	registry := RegisterAll(context.Background(), []Spec{
		staticSpec("", &fakeBackend{}),
		staticSpec("has_underscore", &fakeBackend{}),
		staticSpec(ReservedPrefix, &fakeBackend{}),
	})

	for _, reg := range registry.Registrations() {
		assert.Equal(t, StateFailed, reg.State, reg.Prefix)
		assert.True(t, errors.Is(reg.Err, ErrInvalidPrefix), reg.Prefix)
	}
}

func TestRegisterAllKeepsFirstDuplicate(t *testing.T) {
	first := &fakeBackend{tools: toolsNamed("x")}
	second := &fakeBackend{tools: toolsNamed("y")}
	registry := RegisterAll(context.Background(), []Spec{
		staticSpec("dup", first),
		staticSpec("dup", second),
	})

	require.Equal(t, 1, registry.Len())
	reg, _ := registry.Lookup("dup")
	assert.Same(t, first, reg.Backend)
}

func TestRegistryLookupUnknown(t *testing.T) {
	registry := RegisterAll(context.Background(), nil)
	_, ok := registry.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Len())
}

func TestRegistryClose(t *testing.T) {
	a := &fakeBackend{}
	registry := RegisterAll(context.Background(), []Spec{
		staticSpec("a", a),
		failingSpec("b", "nope"),
	})
	require.NoError(t, registry.Close())
	assert.True(t, a.closed.Load())
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		local  string
		ok     bool
	}{
		{"sm_query_snowflake", "sm", "query_snowflake", true},
		{"asana_get_task", "asana", "get_task", true},
		{"nounderscore", "", "", false},
		{"_leading", "", "", false},
		{"trailing_", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, local, ok := SplitName(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.prefix, prefix)
				assert.Equal(t, tt.local, local)
			}
		})
	}
	assert.Equal(t, "drive_list_files", QualifiedName("drive", "list_files"))
}
