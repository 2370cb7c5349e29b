package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/bytecode"
	"github.com/emojicode/emojicode/internal/bytecode/reader"
	"github.com/emojicode/emojicode/internal/compiler"
	"github.com/emojicode/emojicode/internal/diag"
	"github.com/emojicode/emojicode/internal/parser"
	"github.com/emojicode/emojicode/internal/sema"
	"github.com/emojicode/emojicode/internal/types"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.emojic")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const flagProgram = `🐇🦉🍱
🐏🏁🍱
🍚
🍚
`

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	return log
}

func TestRunCompilesToOutputFile(t *testing.T) {
	cmd := buildRootCommand(testLogger())
	src := writeSource(t, flagProgram)
	out := filepath.Join(t.TempDir(), "out.emojib")

	cmd.SetArgs([]string{"-o", out, src})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	prog, err := reader.Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, prog.Classes, 1)
	require.Equal(t, '🦉', prog.Classes[0].Name)
}

func TestRunReportsDiagnosticsAndFailsOnBadSource(t *testing.T) {
	cmd := buildRootCommand(testLogger())
	src := writeSource(t, "🐇🦉🍱\n🙈\n🍚\n")
	out := filepath.Join(t.TempDir(), "out.emojib")

	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-o", out, src})

	require.Error(t, cmd.Execute())
	require.NoFileExists(t, out)
}

func TestRunPrintsReportInsteadOfWritingBytecode(t *testing.T) {
	cmd := buildRootCommand(testLogger())
	src := writeSource(t, flagProgram)
	out := filepath.Join(t.TempDir(), "out.emojib")

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"-r", "-o", out, src})
	require.NoError(t, cmd.Execute())

	require.Contains(t, stdout.String(), "Classes:")
	require.NoFileExists(t, out)
}

func TestVersionFlagPrintsVersionAndSkipsCompilation(t *testing.T) {
	cmd := buildRootCommand(testLogger())
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"-v"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, version+"\n", stdout.String())
}

func TestNoInputsIsAnError(t *testing.T) {
	cmd := buildRootCommand(testLogger())
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func compileFixture(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	prog := types.NewProgram()
	diags := &diag.Sink{}
	p, err := parser.New("fixture.emojic", strings.NewReader(src), prog, diags)
	require.NoError(t, err)
	p.Parse()
	require.False(t, diags.Fatal(), "%v", diags.All())
	require.Empty(t, sema.AssignVTIs(prog))
	bc := compiler.Compile(prog, diags)
	require.False(t, diags.Fatal(), "%v", diags.All())
	return bc
}

func TestExecuteRunsStartupFlag(t *testing.T) {
	bc := compileFixture(t, flagProgram)
	require.NoError(t, execute(testLogger(), bc))
}
