package types_test

import (
	"math"
	"testing"

	"github.com/loxlang/lox/lang/types"
	"github.com/stretchr/testify/require"
)

func TestNumberEquality(t *testing.T) {
	nan := types.NumberValue(math.NaN())
	require.False(t, types.Equal(nan, nan), "NaN must never equal itself")

	sum := types.NumberValue(0.1 + 0.2)
	require.True(t, types.Equal(sum, types.NumberValue(0.3)))

	require.True(t, types.Equal(types.NumberValue(0), types.NumberValue(math.Copysign(0, -1))))
}

func TestTruthiness(t *testing.T) {
	falsey := []types.Value{
		types.NilValue,
		types.BoolValue(false),
		types.NumberValue(0),
		types.ObjValue(types.NewString("")),
		types.ObjValue(types.NewArray(nil)),
	}
	for _, v := range falsey {
		require.False(t, v.Truthy())
	}

	truthy := []types.Value{
		types.BoolValue(true),
		types.NumberValue(1),
		types.ObjValue(types.NewString("x")),
		types.ObjValue(types.NewArray([]types.Value{types.NumberValue(0)})),
	}
	for _, v := range truthy {
		require.True(t, v.Truthy())
	}
}

func TestDifferentKindsNeverEqual(t *testing.T) {
	require.False(t, types.Equal(types.NilValue, types.BoolValue(false)))
	require.False(t, types.Equal(types.NumberValue(0), types.BoolValue(false)))
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "7", types.FormatNumber(7))
	require.Equal(t, "2", types.FormatNumber(2.0))
	require.Equal(t, "1.5", types.FormatNumber(1.5))
}

func TestObjectDisplay(t *testing.T) {
	fn := types.NewFunction()
	require.Equal(t, "<script>", fn.Display())

	fn.Name = types.NewString("make")
	require.Equal(t, "<fn make>", fn.Display())

	class := types.NewClass(types.NewString("Pair"))
	require.Equal(t, "Pair", class.Display())

	inst := types.NewInstance(class)
	require.Equal(t, "Pair instance", inst.Display())
}
