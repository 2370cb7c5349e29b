package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/report"
	"github.com/emojicode/emojicode/internal/types"
)

func TestDumpListsClassesProtocolsAndEnums(t *testing.T) {
	prog := types.NewProgram()

	base := types.NewClass('A', '🔶')
	base.Super = base
	base.Methods['🐾'] = &types.Procedure{Name: '🐾', VTI: 0}
	prog.AddClass(base)

	proto := &types.Protocol{Name: 'P', Methods: []*types.Procedure{{Name: '🐾'}}}
	prog.AddProtocol(proto)

	e := types.NewEnum('E', '🔶')
	e.Add('x', 0, false)
	prog.AddEnum(e)

	var buf bytes.Buffer
	require.NoError(t, report.Dump(&buf, prog, ""))

	out := buf.String()
	require.Contains(t, out, "Classes:")
	require.Contains(t, out, "A : (root)")
	require.Contains(t, out, "Protocols:")
	require.Contains(t, out, "Enums:")
}

func TestDumpIncludesPackageHeaderWhenScoped(t *testing.T) {
	prog := types.NewProgram()
	var buf bytes.Buffer
	require.NoError(t, report.Dump(&buf, prog, "files"))
	require.Contains(t, buf.String(), "Package report (files)")
}
