package toolshift

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallReport_FormatGroupsByModule(t *testing.T) {
	t.Parallel()
	report := &CallReport{Modules: []ModuleCalls{
		{App: "github", Edges: []CallEdge{
			{Caller: "create_issue", Callee: "get_repo"},
			{Caller: "list_issues", Callee: "get_repo"},
		}},
		{App: "slack", Edges: nil},
		{App: "trello", Edges: []CallEdge{
			{Caller: "move_card", Callee: "get_board"},
		}},
	}}

	var buf bytes.Buffer
	report.Format(&buf)
	assert.Equal(t, `Applications with internal tool function calls:
- github:
  - 'create_issue' calls 'get_repo'
  - 'list_issues' calls 'get_repo'
- trello:
  - 'move_card' calls 'get_board'
`, buf.String())
}

func TestCallReport_FormatEmptyBatch(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	(&CallReport{}).Format(&buf)
	assert.Equal(t, "No applications with internal tool function calls found.\n", buf.String())
}

func TestCallReport_FormatAllModulesEdgeless(t *testing.T) {
	t.Parallel()
	report := &CallReport{Modules: []ModuleCalls{
		{App: "zenquotes"},
		{App: "serpapi"},
	}}

	var buf bytes.Buffer
	report.Format(&buf)
	assert.Equal(t, "No applications with internal tool function calls found.\n", buf.String())
}
