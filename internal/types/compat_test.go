package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emojicode/emojicode/internal/types"
)

func TestCompatibleReflexive(t *testing.T) {
	samples := []types.Type{
		types.Boolean(),
		types.Integer(),
		types.Double(),
		types.Symbol(),
		types.Something(),
		types.SomeObject(),
		types.Nothingness(),
	}
	for _, ty := range samples {
		require.True(t, types.Compatible(ty, ty, nil), "%v should be self-compatible", ty)
	}
}

func TestCompatibleSomethingAcceptsAnything(t *testing.T) {
	require.True(t, types.Compatible(types.Integer(), types.Something(), nil))
	require.True(t, types.Compatible(types.Nothingness(), types.Something(), nil))
}

func TestCompatibleOptionalAcceptsNothingness(t *testing.T) {
	target := types.Integer().AsOptional()
	require.True(t, types.Compatible(types.Nothingness(), target, nil))
	require.False(t, types.Compatible(types.Nothingness(), types.Integer(), nil))
}

func TestCompatibleClassInheritance(t *testing.T) {
	base := types.NewClass('🦴', 0)
	base.Super = base
	sub := types.NewClass('🐕', 0)
	sub.Super = base

	require.True(t, types.Compatible(types.ClassType(sub), types.ClassType(base), nil))
	require.False(t, types.Compatible(types.ClassType(base), types.ClassType(sub), nil))
}

func TestCompatibleProtocolConformance(t *testing.T) {
	proto := &types.Protocol{Name: '🗣', Index: 0}
	class := types.NewClass('🐕', 0)
	class.Super = class
	class.Protocols = append(class.Protocols, proto)

	require.True(t, types.Compatible(types.ClassType(class), types.ProtocolType(proto), nil))
}

func TestCompatibleCallableContravariantArgsCovariantReturn(t *testing.T) {
	base := types.NewClass('🦴', 0)
	base.Super = base
	sub := types.NewClass('🐕', 0)
	sub.Super = base

	// (sub) -> sub is compatible with (base) -> base? Arg must be
	// contravariant: to's arg (base) must accept a's arg... concretely we
	// check that a callable accepting the wider type can stand in for one
	// accepting the narrower type.
	a := types.Callable([]types.Type{types.ClassType(base)}, types.ClassType(sub))
	to := types.Callable([]types.Type{types.ClassType(sub)}, types.ClassType(base))
	require.True(t, types.Compatible(a, to, nil))
	require.False(t, types.Compatible(to, a, nil))
}

func TestCompatibleGenericReferenceResolution(t *testing.T) {
	elem := types.NewClass('🍎', 0)
	elem.Super = elem

	container := types.NewClass('📦', 0)
	container.Super = container
	container.OwnGenericArgs = []types.GenericParam{{Name: 'T', Constraint: types.ClassType(elem)}}

	ref := types.GenericRef(0)
	require.True(t, types.Compatible(ref, types.ClassType(elem), container))
	require.True(t, types.Compatible(types.ClassType(elem), ref, container))
}
