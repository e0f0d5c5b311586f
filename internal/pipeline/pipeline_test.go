package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scatha/internal/pipeline"
)

// S5: a bare comma-separated list with no explicit grouping parses and
// lowers to a single implicit foreach node.
func TestParseImplicitForeach(t *testing.T) {
	nodes, err := pipeline.Parse("mem2reg, simplifycfg[aggressive]")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	root := nodes[0]
	assert.Equal(t, "foreach", root.Name)
	require.Len(t, root.Functions, 2)
	assert.Equal(t, "mem2reg", root.Functions[0].Name)
	assert.Empty(t, root.Functions[0].Args)
	assert.Equal(t, "simplifycfg", root.Functions[1].Name)
	require.Len(t, root.Functions[1].Args, 1)
	assert.Equal(t, "aggressive", root.Functions[1].Args[0].Key)
	assert.True(t, root.Functions[1].Args[0].Bare)
}

// S6: an unterminated "(" is a parse failure.
func TestParseUnterminatedGroupFails(t *testing.T) {
	_, err := pipeline.Parse("mem2reg(")
	assert.Error(t, err)
}

func TestParseExplicitModuleWithFunctionList(t *testing.T) {
	nodes, err := pipeline.Parse("cgscc(mem2reg, dce[threshold:3])")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	m := nodes[0]
	assert.Equal(t, "cgscc", m.Name)
	require.Len(t, m.Functions, 2)
	assert.Equal(t, "mem2reg", m.Functions[0].Name)
	assert.Equal(t, "dce", m.Functions[1].Name)
	require.Len(t, m.Functions[1].Args, 1)
	assert.Equal(t, "threshold", m.Functions[1].Args[0].Key)
	assert.Equal(t, "3", m.Functions[1].Args[0].Value)
	assert.False(t, m.Functions[1].Args[0].Bare)
}

func TestParseMixedTopLevelIsNotLoweredToForeach(t *testing.T) {
	nodes, err := pipeline.Parse(`mem2reg, cgscc(dce, simplifycfg[limit:10, note:"x"])`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "mem2reg", nodes[0].Name)
	assert.Equal(t, "cgscc", nodes[1].Name)
	require.Len(t, nodes[1].Functions, 2)

	args := nodes[1].Functions[1].Args
	require.Len(t, args, 2)
	assert.Equal(t, "10", args[0].Value)
	assert.Equal(t, "x", args[1].Value)
}

func TestParseEmptyStringFails(t *testing.T) {
	_, err := pipeline.Parse("")
	assert.Error(t, err)
}
