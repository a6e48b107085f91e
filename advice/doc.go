// Package advice implements function-reference interception through a
// registry-backed dispatch table.
//
// Go offers no way to patch a live function symbol, so interception is
// explicit: a function is registered in a Table under a namespace and a
// name, producing a Slot. Callers invoke the function through the slot
// (or through Table.Call), and the slot dispatches to whatever callable
// is currently in place. Installing a callable on a slot swaps the
// dispatch target; removing it restores the previous one. The slot value
// itself is the stable identity of the function: it survives re-binds and
// install/remove cycles, and it is valid as a map key.
//
// While an installed callable is executing, the slot is visible on the
// call's context as the active target (see ActiveTarget), so generic
// callables can report which function they are standing in for.
package advice
