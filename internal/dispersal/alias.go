package dispersal

// aliasAtom is one Vose alias-method bucket: sampled with probability
// Prob in favour of its own index and (1-Prob) in favour of Alias.
type aliasAtom struct {
	Prob  float64
	Alias uint32
}

// aliasRange indexes a contiguous run of atoms inside a shared flat
// backing buffer, one range per dispersal source. A zero-length range
// means the source disperses nowhere (its row was entirely zero before
// weighting — spec §4.2 "All zero rows collapse to empty ranges").
type aliasRange struct {
	Start, Len uint32
}

// buildVoseAlias constructs a Vose (1991) alias table for the discrete
// distribution given by weights (need not sum to 1; renormalised here).
// Returns the atoms for this one row; the caller appends them to a
// shared flat buffer and records the resulting aliasRange.
func buildVoseAlias(weights []float64) []aliasAtom {
	n := len(weights)
	atoms := make([]aliasAtom, n)
	if n == 0 {
		return atoms
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return nil
	}

	scaled := make([]float64, n)
	for i, w := range weights {
		scaled[i] = w / sum * float64(n)
	}

	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, s := range scaled {
		if s < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		atoms[s] = aliasAtom{Prob: scaled[s], Alias: uint32(l)}
		scaled[l] = scaled[l] + scaled[s] - 1
		if scaled[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}

	// Residual over/underfull indices are rounding error, not a real
	// non-unit probability: round them to full buckets (Vose 1991).
	for _, l := range large {
		atoms[l] = aliasAtom{Prob: 1, Alias: uint32(l)}
	}
	for _, s := range small {
		atoms[s] = aliasAtom{Prob: 1, Alias: uint32(s)}
	}

	return atoms
}

// sampleAlias draws one index from a Vose alias table built over n
// atoms, given a uniform index in [0,n) and a uniform unit sample.
func sampleAlias(atoms []aliasAtom, index uint32, unit float64) uint32 {
	a := atoms[index]
	if unit < a.Prob {
		return index
	}
	return a.Alias
}
