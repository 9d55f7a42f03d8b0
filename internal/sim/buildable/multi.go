package buildable

// checkMulti keeps a drag on a single island: every result already accepted
// in the session must share the candidate's island. Rejected results impose
// no constraint.
func checkMulti(before []Result, st Result) (Result, Verdict) {
	for _, b := range before {
		if !b.Buildable {
			continue
		}
		if b.Island != st.Island {
			return st, Reject
		}
	}
	return st, Continue
}
