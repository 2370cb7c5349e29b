package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/sema"
	"github.com/emojicode/emojicode/internal/types"
)

func TestAssignVTIsInheritsAndExtends(t *testing.T) {
	prog := types.NewProgram()

	base := types.NewClass('🦴', 0)
	base.Super = base
	base.Methods['🏃'] = &types.Procedure{Name: '🏃'}
	prog.AddClass(base)

	sub := types.NewClass('🐕', 0)
	sub.Super = base
	sub.Methods['🏃'] = &types.Procedure{Name: '🏃'} // override
	sub.Methods['🐾'] = &types.Procedure{Name: '🐾'} // new
	prog.AddClass(sub)

	errs := sema.AssignVTIs(prog)
	require.Empty(t, errs)

	require.Equal(t, 0, base.Methods['🏃'].VTI)
	require.Equal(t, 0, sub.Methods['🏃'].VTI, "override must inherit the superclass VTI")
	require.Equal(t, 1, sub.Methods['🐾'].VTI, "new method extends the counter")
}

func TestAssignVTIsOverrideFinalIsRejected(t *testing.T) {
	prog := types.NewProgram()

	base := types.NewClass('🦴', 0)
	base.Super = base
	base.Methods['🏃'] = &types.Procedure{Name: '🏃', Final: true}
	prog.AddClass(base)

	sub := types.NewClass('🐕', 0)
	sub.Super = base
	sub.Methods['🏃'] = &types.Procedure{Name: '🏃'}
	prog.AddClass(sub)

	errs := sema.AssignVTIs(prog)
	require.Len(t, errs, 1)
}

func TestAssignVTIsInitializerNeverInherits(t *testing.T) {
	prog := types.NewProgram()

	base := types.NewClass('🦴', 0)
	base.Super = base
	base.Initializers['🆕'] = &types.Procedure{Name: '🆕'}
	prog.AddClass(base)

	sub := types.NewClass('🐕', 0)
	sub.Super = base
	sub.InheritsInitializers = true
	sub.Initializers['🆕'] = &types.Procedure{Name: '🆕'}
	prog.AddClass(sub)

	errs := sema.AssignVTIs(prog)
	require.Empty(t, errs)
	require.Equal(t, 0, base.Initializers['🆕'].VTI)
	require.Equal(t, 1, sub.Initializers['🆕'].VTI, "initializers always get a fresh VTI")
}

func TestProtocolTableDispatchIsConstantTime(t *testing.T) {
	prog := types.NewProgram()

	proto := &types.Protocol{Name: '🗣', Methods: []*types.Procedure{{Name: '💬'}}}
	prog.AddProtocol(proto)

	class := types.NewClass('🐕', 0)
	class.Super = class
	class.Methods['💬'] = &types.Procedure{Name: '💬'}
	class.Protocols = append(class.Protocols, proto)
	prog.AddClass(class)

	errs := sema.AssignVTIs(prog)
	require.Empty(t, errs)

	require.NotNil(t, class.ProtocolTable)
	cell := class.ProtocolTable.Cells[proto.Index-class.ProtocolTable.MinIndex]
	require.Equal(t, class.Methods['💬'].VTI, cell[0])
}
