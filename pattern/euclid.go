package pattern

// Bjorklund spreads k onsets as evenly as possible over n steps.
// k is clamped into [0, n]; n < 1 gives nil.
func Bjorklund(k, n int) []bool {
	if n < 1 {
		return nil
	}
	k = max(0, min(k, n))

	ons := make([][]bool, k)
	for i := range ons {
		ons[i] = []bool{true}
	}
	offs := make([][]bool, n-k)
	for i := range offs {
		offs[i] = []bool{false}
	}

	// pair the larger group off against the smaller until one group
	// has at most a single member left
	for min(len(ons), len(offs)) > 1 {
		if len(ons) > len(offs) {
			m := len(offs)
			paired := make([][]bool, m)
			for i := 0; i < m; i++ {
				paired[i] = concat(ons[i], offs[i])
			}
			ons, offs = paired, ons[m:]
		} else {
			m := len(ons)
			paired := make([][]bool, m)
			for i := 0; i < m; i++ {
				paired[i] = concat(ons[i], offs[i])
			}
			ons, offs = paired, offs[m:]
		}
	}

	out := make([]bool, 0, n)
	for _, g := range ons {
		out = append(out, g...)
	}
	for _, g := range offs {
		out = append(out, g...)
	}
	return out
}

func concat(a, b []bool) []bool {
	out := make([]bool, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// Euclid is the Bjorklund rhythm as a one cycle boolean sequence, rotated
// left by rotation steps. Off steps are false events, so Struct skips them
// and Mask silences them.
func Euclid(k, n, rotation int) Pattern[bool] {
	base := Bjorklund(k, n)
	if base == nil {
		return Silence[bool]()
	}
	rot := rotation % n
	if rot < 0 {
		rot += n
	}
	steps := make([]bool, n)
	for i := range steps {
		steps[i] = base[(i+rot)%n]
	}
	return Seq(steps...)
}

// EuclidOnsets is the set of on-step indices of Euclid(k, n, rotation).
func EuclidOnsets(k, n, rotation int) []int {
	var out []int
	base := Bjorklund(k, n)
	for i := range base {
		if base[(i+((rotation%n)+n)%n)%n] {
			out = append(out, i)
		}
	}
	return out
}

// EuclidStruct re-times p onto a euclidean rhythm.
func EuclidStruct[T any](k, n, rotation int) func(Pattern[T]) Pattern[T] {
	return func(p Pattern[T]) Pattern[T] { return p.Struct(Euclid(k, n, rotation)) }
}
