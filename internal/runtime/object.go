// ==============================================================================================
// FILE: internal/runtime/object.go
// ==============================================================================================
// PACKAGE: runtime
// PURPOSE: Property access for internal/ir's OpLoadProperty/OpStoreProperty. Grounded on spec.md
//          §9's open question ("object property lookup in the source is noted as slow... naive
//          dictionary semantics; an implementation is free to optimize below the contract") —
//          this build takes the naive dictionary path, no shape/hidden-class optimization.
//          Promise.prototype.then is the one built-in method this engine's otherwise-bare object
//          model needs to satisfy spec.md §8's scenario 4 (`f().then(print)`), so it is special-
//          cased here as a host-backed Closure rather than adding a general prototype-chain
//          mechanism an engine this small has no other use for.
// ==============================================================================================

package runtime

func (rt *Runtime) loadProperty(base Value, key string) Value {
	switch base.Kind {
	case KindPromise:
		if key == "then" {
			id := base.Promise
			return ClosureValue(&Closure{Host: func(rt *Runtime, args []Value) (Status, Value) {
				if len(args) == 0 || args[0].Kind != KindClosure {
					return StatusNormal, Undefined
				}
				rt.AwaitPromiseWithCallback(id, args[0].Closure)
				return StatusNormal, Undefined
			}})
		}
		return Undefined
	case KindObject:
		if v, ok := base.Object.Properties[key]; ok {
			return v
		}
		return Undefined
	case KindString:
		if key == "length" {
			return NumberValue(float64(len([]rune(base.Str))))
		}
		return Undefined
	default:
		return Undefined
	}
}

func (rt *Runtime) storeProperty(base Value, key string, v Value) {
	if base.Kind == KindObject {
		base.Object.Properties[key] = v
	}
	// Storing a property onto a non-object base (including undefined/null) is a silent no-op in
	// this subset rather than a thrown TypeError — this engine's limited object model has no
	// general property-bag coercion path to raise that error from.
}
