package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/roach88/gensweep/internal/testutil"
)

// project is a temporary site the CLI is pointed at with --project-root.
type project struct {
	*testutil.Tree
}

func newProject(t *testing.T) *project {
	t.Helper()
	return &project{Tree: testutil.NewTree(t)}
}

// run executes gensweep with args against the project. stdout and stderr are
// captured separately.
func (p *project) run(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(append([]string{"--project-root", p.Root}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
