// Package evaluate implements lazily evaluated configuration slots. A slot is
// either a literal or a computation that declares, by name, the runtime inputs
// it needs (the component, its state, the owning record, a search term...).
//
// Callers assemble an Args map per evaluation and the slot injects only the
// declared params into the computation. Absent params resolve to neutral
// defaults through the Inputs accessors, so computations never fail because an
// optional input was not supplied.
//
//	limit := evaluate.Computed(func(in evaluate.Inputs) (int, error) {
//		if in.String(evaluate.ParamSearch) == "" {
//			return 10, nil
//		}
//		return 50, nil
//	}, evaluate.ParamSearch)
//
//	n, err := limit.Evaluate(ctx, evaluate.Args{evaluate.ParamSearch: "ada"})
package evaluate
