package scripting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testInput() Input {
	return Input{
		App:    "github",
		Path:   "/apps/github/app.py",
		Source: "class App:\n    pass\n",
		Tools:  []string{"create_issue", "get_repo"},
		Calls:  []Call{{Caller: "create_issue", Callee: "get_repo"}},
	}
}

func TestRun_ExposesGlobals(t *testing.T) {
	t.Parallel()
	r := NewRunner(nil)
	script := `
if app != "github" { fail("wrong app") }
if path != "/apps/github/app.py" { fail("wrong path") }
if len(source) == 0 { fail("empty source") }
if len(tools) != 2 || tools[0] != "create_issue" { fail("wrong tools") }
if len(calls) != 1 { fail("wrong calls") }
if calls[0]["caller"] != "create_issue" { fail("wrong caller") }
if calls[0]["callee"] != "get_repo" { fail("wrong callee") }
`
	require.NoError(t, r.Run(context.Background(), script, "check.risor", testInput()))
}

func TestRun_FailAbortsWithMessage(t *testing.T) {
	t.Parallel()
	r := NewRunner(nil)
	err := r.Run(context.Background(), `fail("too many internal calls")`, "check.risor", testInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check failed for github: too many internal calls")
	assert.Contains(t, err.Error(), "check.risor")
}

func TestRun_FailRequiresStringMessage(t *testing.T) {
	t.Parallel()
	r := NewRunner(nil)
	err := r.Run(context.Background(), `fail(42)`, "check.risor", testInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message must be a string")
}

func TestRun_SyntaxErrorReported(t *testing.T) {
	t.Parallel()
	r := NewRunner(nil)
	err := r.Run(context.Background(), `if {`, "check.risor", testInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check.risor")
}

func TestRun_LogGoesThroughLogger(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	r := NewRunner(zap.New(core))

	require.NoError(t, r.Run(context.Background(), `log("inspected module")`, "check.risor", testInput()))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "inspected module", entries[0].Message)
	assert.Equal(t, "github", entries[0].ContextMap()["app"])
}
