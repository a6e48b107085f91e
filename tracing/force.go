package tracing

import "reflect"

// Force realizes a lazily-produced sequence. If v is a push iterator (a
// func assignable to iter.Seq[T] or iter.Seq2[K, V]), Force runs it to
// completion now and returns a replay iterator of the same dynamic type that
// yields the captured elements. The replay iterator is pure and can be
// ranged over any number of times. Any other value, including channels,
// pull iterators, and nil iterators, is returned unchanged.
func Force(v any) any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	if !isSequenceType(rv.Type()) || rv.IsNil() {
		return v
	}

	return replaySequence(rv.Type(), realizeSequence(rv))
}

// isSequenceType matches func(yield func(T) bool) and
// func(yield func(K, V) bool), the shapes of iter.Seq and iter.Seq2.
func isSequenceType(t reflect.Type) bool {
	if t.Kind() != reflect.Func || t.IsVariadic() {
		return false
	}

	if t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}

	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.IsVariadic() {
		return false
	}

	if yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return false
	}

	return yield.NumIn() == 1 || yield.NumIn() == 2
}

// isSequence reports whether v can be walked as a sequence. Nil iterators
// are excluded: they have the shape but cannot be called.
func isSequence(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Func && !rv.IsNil() &&
		isSequenceType(rv.Type())
}

// realizeSequence drives the iterator to completion, collecting one row of
// yielded values per element. Side effects inside the producer happen here.
func realizeSequence(rv reflect.Value) [][]reflect.Value {
	var elems [][]reflect.Value

	yieldType := rv.Type().In(0)
	yes := reflect.ValueOf(true).Convert(yieldType.Out(0))

	yield := reflect.MakeFunc(yieldType,
		func(args []reflect.Value) []reflect.Value {
			row := make([]reflect.Value, len(args))
			copy(row, args)
			elems = append(elems, row)

			return []reflect.Value{yes}
		})

	rv.Call([]reflect.Value{yield})

	return elems
}

// replaySequence builds an iterator of type t that yields the captured
// rows, honoring early termination by the consumer.
func replaySequence(t reflect.Type, elems [][]reflect.Value) any {
	return reflect.MakeFunc(t,
		func(args []reflect.Value) []reflect.Value {
			yield := args[0]
			for _, row := range elems {
				if !yield.Call(row)[0].Bool() {
					break
				}
			}

			return nil
		}).Interface()
}

// sequenceElements walks a sequence and returns its rows as plain values.
// It must only be applied to replay iterators: walking an unrealized
// sequence would trigger the producer's side effects.
func sequenceElements(v any) [][]any {
	rv := reflect.ValueOf(v)
	rows := realizeSequence(rv)

	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		vals := make([]any, 0, len(row))
		for _, rc := range row {
			vals = append(vals, rc.Interface())
		}
		out = append(out, vals)
	}

	return out
}
