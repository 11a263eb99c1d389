package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdump-dev/rdump/internal/lang"
)

func newTestEngine(t *testing.T) (*Engine, *lang.Registry) {
	t.Helper()
	reg, err := lang.Load()
	require.NoError(t, err)
	return NewEngine(reg), reg
}

func TestEvaluateGoStructName(t *testing.T) {
	eng, reg := newTestEngine(t)
	p := reg.ForName("go")
	src := []byte(`package t

type User struct {
	ID uint32
}

type Order struct{}
`)
	tree := eng.Parse(p, src)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.True(t, eng.Evaluate(p, "struct", tree, src, "User"))
	assert.False(t, eng.Evaluate(p, "struct", tree, src, "Ghost"))
	assert.True(t, eng.Evaluate(p, "struct", tree, src, "."))
}

func TestEvaluateGoImportStripsQuotes(t *testing.T) {
	eng, reg := newTestEngine(t)
	p := reg.ForName("go")
	src := []byte(`package t

import "fmt"

func main() { fmt.Println("hi") }
`)
	tree := eng.Parse(p, src)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.True(t, eng.Evaluate(p, "import", tree, src, "fmt"))
	assert.False(t, eng.Evaluate(p, "import", tree, src, "\"fmt\""))
}

func TestEvaluateWildcardAbsence(t *testing.T) {
	eng, reg := newTestEngine(t)
	p := reg.ForName("python")

	empty := []byte("x = 1\n")
	tree := eng.Parse(p, empty)
	require.NotNil(t, tree)
	defer tree.Close()
	assert.False(t, eng.Evaluate(p, "import", tree, empty, "."))

	withImport := []byte("import os\n")
	tree2 := eng.Parse(p, withImport)
	require.NotNil(t, tree2)
	defer tree2.Close()
	assert.True(t, eng.Evaluate(p, "import", tree2, withImport, "."))
}

func TestEvaluateNilTreeIsFalse(t *testing.T) {
	eng, reg := newTestEngine(t)
	p := reg.ForName("go")
	assert.False(t, eng.Evaluate(p, "struct", nil, nil, "User"))
}

func TestReactHookVsCustomHook(t *testing.T) {
	eng, reg := newTestEngine(t)
	p := reg.ForName("javascript")
	src := []byte(`
function Widget() {
	const [x, setX] = useState(0);
	const data = useWidgetData();
	return null;
}
`)
	tree := eng.Parse(p, src)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.True(t, eng.Evaluate(p, "hook", tree, src, "useState"))
	assert.False(t, eng.Evaluate(p, "hook", tree, src, "useWidgetData"))
	assert.True(t, eng.Evaluate(p, "customhook", tree, src, "useWidgetData"))
	assert.False(t, eng.Evaluate(p, "customhook", tree, src, "useState"))
}

func TestReactPredicatesGatedByJSXFlag(t *testing.T) {
	eng, reg := newTestEngine(t)
	ts := reg.ForName("typescript")
	src := []byte(`const useThing = () => useState(0);`)
	tree := eng.Parse(ts, src)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.False(t, eng.Evaluate(ts, "hook", tree, src, "."))
}

func TestEvaluateComponentNameCapitalization(t *testing.T) {
	eng, reg := newTestEngine(t)
	p := reg.ForName("tsx")
	src := []byte(`
function Button() { return <button/>; }
function useCounter() { return 0; }
`)
	tree := eng.Parse(p, src)
	require.NotNil(t, tree)
	defer tree.Close()

	assert.True(t, eng.Evaluate(p, "component", tree, src, "Button"))
	assert.False(t, eng.Evaluate(p, "component", tree, src, "useCounter"))
}
