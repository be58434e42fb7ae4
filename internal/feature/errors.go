package feature

import (
	"fmt"
	"strings"
)

// FeatureOrderError reports a disagreement between an assembled vector's
// key set and the canonical feature order. A silent mismatch would corrupt
// every downstream prediction (values would bind to the wrong names), so
// assembly fails loudly and names the offending keys.
type FeatureOrderError struct {
	// Missing lists canonical names absent from the produced vector.
	Missing []string

	// Extra lists produced names absent from the canonical order.
	Extra []string
}

// Error implements the error interface.
func (e *FeatureOrderError) Error() string {
	var b strings.Builder
	b.WriteString("feature order mismatch")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing keys [%s]", strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, ": unexpected keys [%s]", strings.Join(e.Extra, ", "))
	}
	return b.String()
}

// verifyOrder compares got against the canonical names and returns a
// FeatureOrderError when the sets or their order differ.
func verifyOrder(got, canonical []string) error {
	if len(got) == len(canonical) {
		same := true
		for i := range got {
			if got[i] != canonical[i] {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}

	gotSet := make(map[string]bool, len(got))
	for _, n := range got {
		gotSet[n] = true
	}
	canonSet := make(map[string]bool, len(canonical))
	for _, n := range canonical {
		canonSet[n] = true
	}

	err := &FeatureOrderError{}
	for _, n := range canonical {
		if !gotSet[n] {
			err.Missing = append(err.Missing, n)
		}
	}
	for _, n := range got {
		if !canonSet[n] {
			err.Extra = append(err.Extra, n)
		}
	}
	// Same set, different order still corrupts positional binding.
	if len(err.Missing) == 0 && len(err.Extra) == 0 {
		err.Extra = append(err.Extra, "(same keys, different order)")
	}
	return err
}
