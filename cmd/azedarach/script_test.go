package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"rsc.io/script"
	"rsc.io/script/scripttest"
)

// TestScripts drives the CLI surface end to end via testdata/script/*.txt,
// against fake bd/git/tmux binaries so no real project, git repo, or tmux
// server is required.
func TestScripts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts are POSIX shell, not supported on windows")
	}

	binDir := t.TempDir()
	buildAzedarach(t, binDir)
	fakeToolDir := writeFakeTools(t)

	engine := &script.Engine{
		Cmds:  script.DefaultCmds(),
		Conds: script.DefaultConds(),
	}
	env := append(os.Environ(),
		"PATH="+binDir+string(os.PathListSeparator)+fakeToolDir+string(os.PathListSeparator)+os.Getenv("PATH"),
		"HOME="+t.TempDir(),
		"XDG_CONFIG_HOME="+t.TempDir(),
		"AZEDARACH_DEBUG=",
	)
	scripttest.Test(t, context.Background(), engine, env, filepath.Join("testdata", "script", "*.txt"))
}

func buildAzedarach(t *testing.T, dir string) {
	t.Helper()
	out := filepath.Join(dir, "azedarach")
	cmd := exec.Command("go", "build", "-o", out, ".")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("building azedarach for script tests: %v\n%s", err, output)
	}
}

const fakeBdScript = `#!/bin/sh
if [ "$BD_FAIL" = "1" ]; then
  echo "bd: command not found" 1>&2
  exit 127
fi
case "$1" in
  list) echo '[]' ;;
  show) echo '{}' ;;
  *) echo '{}' ;;
esac
exit 0
`

const fakeGitScript = `#!/bin/sh
case "$*" in
  *"rev-list --left-right --count"*) echo "0	0" ;;
  *) echo "" ;;
esac
exit 0
`

const fakeTmuxScript = `#!/bin/sh
case "$*" in
  *has-session*) echo "can't find session" 1>&2; exit 1 ;;
  *) exit 0 ;;
esac
`

func writeFakeTools(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
			t.Fatalf("writing fake %s: %v", name, err)
		}
	}
	write("bd", fakeBdScript)
	write("git", fakeGitScript)
	write("tmux", fakeTmuxScript)
	return dir
}
