package toolshift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-mcp/toolshift/internal/pysrc"
)

// applyEdits splices a pass's edits and returns the rewritten source.
func applyEdits(t *testing.T, mod *pysrc.Module, edits []pysrc.Edit) string {
	t.Helper()
	out, err := pysrc.Apply(mod.Src, edits)
	require.NoError(t, err)
	return string(out)
}

func TestAsyncifyFunctions_ConvertsRegisteredDef(t *testing.T) {
	t.Parallel()
	mod := parseModule(t, `class App:
    def list_tools(self):
        return [self.get_x]

    def get_x(self, url):
        return self._get(url)
`)

	reg := ExtractRegistry(mod)
	out := applyEdits(t, mod, AsyncifyFunctions(mod, reg))
	assert.Equal(t, `class App:
    def list_tools(self):
        return [self.get_x]

    async def get_x(self, url):
        return self._get(url)
`, out)
}

func TestAsyncifyFunctions_PreservesSignatureAndDecorators(t *testing.T) {
	t.Parallel()
	mod := parseModule(t, `class App:
    def list_tools(self):
        return [self.fetch]

    @retry(times=3)
    def fetch(self, url: str, timeout: int = 30) -> dict:
        """Fetch a resource."""
        return self._get(url)
`)

	reg := ExtractRegistry(mod)
	out := applyEdits(t, mod, AsyncifyFunctions(mod, reg))
	assert.Contains(t, out, "@retry(times=3)\n    async def fetch(self, url: str, timeout: int = 30) -> dict:")
	assert.Contains(t, out, `"""Fetch a resource."""`)
}

func TestAsyncifyFunctions_RegistrationMethodUntouched(t *testing.T) {
	t.Parallel()
	mod := parseModule(t, `class App:
    def list_tools(self):
        return [self.foo]

    def foo(self):
        pass

    def helper(self):
        pass
`)

	reg := ExtractRegistry(mod)
	out := applyEdits(t, mod, AsyncifyFunctions(mod, reg))
	assert.Contains(t, out, "def list_tools(self):")
	assert.NotContains(t, out, "async def list_tools")
	assert.Contains(t, out, "async def foo(self):")
	assert.NotContains(t, out, "async def helper")
}

func TestAsyncifyFunctions_AlreadyAsyncUntouched(t *testing.T) {
	t.Parallel()
	mod := parseModule(t, `class App:
    def list_tools(self):
        return [self.foo]

    async def foo(self):
        pass
`)

	reg := ExtractRegistry(mod)
	assert.Empty(t, AsyncifyFunctions(mod, reg))
}

func TestAsyncifyFunctions_Idempotent(t *testing.T) {
	t.Parallel()
	src := `class App:
    def list_tools(self):
        return [self.foo]

    def foo(self):
        pass
`
	mod := parseModule(t, src)
	reg := ExtractRegistry(mod)
	once := applyEdits(t, mod, AsyncifyFunctions(mod, reg))

	again := parseModule(t, once)
	assert.Empty(t, AsyncifyFunctions(again, ExtractRegistry(again)))
}

func TestAsyncifyFunctions_RegisteredNameWithoutDefinition(t *testing.T) {
	t.Parallel()
	// A name that is only ever returned, never defined, converts
	// nothing.
	mod := parseModule(t, `class App:
    def list_tools(self):
        return [self.ghost]
`)

	reg := ExtractRegistry(mod)
	assert.Empty(t, AsyncifyFunctions(mod, reg))
}

func TestAsyncifyFunctions_EmptyRegistry(t *testing.T) {
	t.Parallel()
	mod := parseModule(t, `def foo():
    pass
`)

	assert.Nil(t, AsyncifyFunctions(mod, Registry{}))
}
