package toolshift

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The testdata apps mirror real wrapper modules: github has an internal
// call chain, zenquotes does not.

func TestAnalyzeCalls_Fixtures(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, filepath.Join("testdata", "apps"))
	report, err := e.AnalyzeCalls(context.Background(), []string{"github", "zenquotes"})
	require.NoError(t, err)

	var out bytes.Buffer
	report.Format(&out)
	assert.Equal(t, `Applications with internal tool function calls:
- github:
  - 'create_issue' calls 'get_repository'
  - 'list_issues' calls 'get_repository'
`, out.String())
}

func TestRunChecks_FixtureScripts(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, filepath.Join("testdata", "apps"))

	hasTools := filepath.Join("scripts", "checks", "has_tools.risor")
	require.NoError(t, e.RunChecks(context.Background(), hasTools, []string{"github", "zenquotes"}))

	noInternal := filepath.Join("scripts", "checks", "no_internal_calls.risor")
	require.NoError(t, e.RunChecks(context.Background(), noInternal, []string{"zenquotes"}))

	err := e.RunChecks(context.Background(), noInternal, []string{"github"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered operations must not call each other")
}

func TestAsyncify_FixtureEndToEnd(t *testing.T) {
	t.Parallel()
	// Rewrites mutate files, so work on a copy of the fixture.
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "apps", "github", "app.py"))
	require.NoError(t, err)
	path := writeApp(t, dir, "github", string(src))

	e, _ := newTestEngine(t, dir)
	defs, err := e.AsyncifyDefs(context.Background(), []string{"github"})
	require.NoError(t, err)
	assert.Equal(t, 1, defs.Converted)

	calls, err := e.AsyncifyCalls(context.Background(), []string{"github"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls.Converted)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "async def get_repository(self, owner: str, repo: str) -> dict:")
	assert.Contains(t, text, "async def list_issues(self, owner: str, repo: str, state: str = \"open\") -> list:")
	assert.Contains(t, text, "async def create_issue(self, owner: str, repo: str, title: str, body: str = \"\") -> dict:")
	assert.Contains(t, text, `response = await self._aget(f"{self.base_url}/repos/{owner}/{repo}")`)
	assert.Contains(t, text, "response = await self._apost(")
	// Helpers and the registration method stay synchronous.
	assert.Contains(t, text, "def _build_headers(self) -> dict:")
	assert.NotContains(t, text, "async def _build_headers")
	assert.NotContains(t, text, "async def list_tools")
	// Internal tool-to-tool calls are not HTTP helpers and stay as-is.
	assert.Contains(t, text, "repository = self.get_repository(owner, repo)")
}
