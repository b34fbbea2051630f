package algo

// Run is a maximal stretch of equal values in a run-length encoding.
type Run struct {
	Start  int
	Length int
	Value  bool
}

// RunLengths encodes mask into its maximal runs, in order.
func RunLengths(mask []bool) []Run {
	if len(mask) == 0 {
		return nil
	}
	runs := make([]Run, 0, 8)
	cur := Run{Start: 0, Length: 1, Value: mask[0]}
	for i := 1; i < len(mask); i++ {
		if mask[i] == cur.Value {
			cur.Length++
			continue
		}
		runs = append(runs, cur)
		cur = Run{Start: i, Length: 1, Value: mask[i]}
	}
	return append(runs, cur)
}

// LongestRun returns the first occurrence of the longest run of true values.
// The boolean is false when mask holds no true value.
func LongestRun(mask []bool) (Run, bool) {
	var best Run
	found := false
	for _, r := range RunLengths(mask) {
		if !r.Value {
			continue
		}
		if !found || r.Length > best.Length {
			best = r
			found = true
		}
	}
	return best, found
}
