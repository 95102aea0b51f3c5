package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitAssignsFreshValueExceptForVoidOps(t *testing.T) {
	f := NewFunction(0, 1, 0, 0, false)
	b := f.EntryBlock()

	v := f.Emit(b, Instr{Op: OpConstNumber, Number: 1})
	require.NotZero(t, v, "a value-producing op must get a fresh Dst")

	v2 := f.Emit(b, Instr{Op: OpConstNumber, Number: 2})
	require.NotEqual(t, v, v2, "successive value-producing ops must get distinct Dsts")

	store := f.Emit(b, Instr{Op: OpStoreSlot, Args: []Value{v}, SlotIdx: 0})
	require.Zero(t, store, "a store op must not produce a value")

	handlerPush := f.Emit(b, Instr{Op: OpPushHandler, Target: 0})
	require.Zero(t, handlerPush, "push-handler must not produce a value")
}

func TestNewBlockAssignsSequentialIDs(t *testing.T) {
	f := NewFunction(1, 0, 0, 0, false)
	b1 := f.NewBlock()
	b2 := f.NewBlock()
	require.NotEqual(t, b1, b2)
	require.Len(t, f.Blocks, 3) // entry block plus the two just created
}

func TestModuleLookupByFuncID(t *testing.T) {
	f0 := NewFunction(0, 0, 0, 0, false)
	f5 := NewFunction(5, 0, 0, 0, false)
	mod := &Module{Functions: []*Function{f0, f5}}

	require.Same(t, f5, mod.Lookup(5))
	require.Nil(t, mod.Lookup(3))
}

func TestOpStringNamesEveryOp(t *testing.T) {
	require.Equal(t, "push-handler", OpPushHandler.String())
	require.Equal(t, "store-property", OpStoreProperty.String())
}
