package passthrough

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gensweep/internal/testutil"
)

func newResolver(t *testing.T) (*testutil.Tree, Resolver) {
	t.Helper()
	tree := testutil.NewTree(t)
	tree.WriteAll(map[string]string{
		"src/img/logo.png":      "png",
		"src/img/icons/a.svg":   "svg",
		"src/img/.hidden":       "dot",
		"src/css/site.CSS":      "css",
		"assets/fonts/mono.ttf": "ttf",
		"robots.txt":            "txt",
	})
	return tree, Resolver{ProjectRoot: tree.Root, InputRoot: "src", OutputRoot: "_site"}
}

func slash(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return out
}

func TestIsGlob(t *testing.T) {
	assert.True(t, IsGlob("src/**/*.png"))
	assert.True(t, IsGlob("img/logo.{png,jpg}"))
	assert.True(t, IsGlob("file?.txt"))
	assert.True(t, IsGlob("[ab].txt"))
	assert.False(t, IsGlob("src/img"))
}

func TestResolve_DirectoryMirrorsInsideInputRoot(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "src/img"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"_site/img/logo.png",
		"_site/img/icons/a.svg",
		"_site/img/.hidden",
	}, slash(got))
}

func TestResolve_DirectoryOutsideInputRootMirrorsFromProject(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "assets"})
	require.NoError(t, err)
	assert.Equal(t, []string{"_site/assets/fonts/mono.ttf"}, slash(got))
}

func TestResolve_DirectoryWithTargetKeepsStructure(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "src/img", Target: "static"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"_site/static/logo.png",
		"_site/static/icons/a.svg",
		"_site/static/.hidden",
	}, slash(got))
}

func TestResolve_SingleFile(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "robots.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"_site/robots.txt"}, slash(got))

	got, err = r.Resolve(Spec{Source: "robots.txt", Target: "meta"})
	require.NoError(t, err)
	assert.Equal(t, []string{"_site/meta"}, slash(got))
}

func TestResolve_GlobMirrors(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "src/**/*.svg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"_site/img/icons/a.svg"}, slash(got))
}

func TestResolve_GlobIsCaseInsensitive(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "src/css/*.css"})
	require.NoError(t, err)
	assert.Equal(t, []string{"_site/css/site.CSS"}, slash(got))
}

func TestResolve_GlobIncludesDotFiles(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "src/img/*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"_site/img/.hidden", "_site/img/logo.png"}, slash(got))
}

func TestResolve_GlobWithTargetFlattens(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "src/img/**/*.{png,svg}", Target: "flat"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"_site/flat/logo.png", "_site/flat/a.svg"}, slash(got))
}

func TestResolve_GlobNoMatches(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.Resolve(Spec{Source: "src/**/*.gif"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve_Errors(t *testing.T) {
	_, r := newResolver(t)

	_, err := r.Resolve(Spec{})
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = r.Resolve(Spec{Source: "missing"})
	assert.Error(t, err)
}

func TestResolveAll(t *testing.T) {
	_, r := newResolver(t)

	got, err := r.ResolveAll([]Spec{
		{Source: "robots.txt"},
		{Source: "assets/fonts/*.ttf", Target: "fonts"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"_site/robots.txt", "_site/fonts/mono.ttf"}, slash(got))

	_, err = r.ResolveAll([]Spec{{Source: "robots.txt"}, {Source: "nope"}})
	assert.Error(t, err)
}
