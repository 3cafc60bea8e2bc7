package classad

// These helpers replace the brittle regex/string-probe inspection the
// original matcher used to spot "other.JobID" and "other.Site" hints in
// a Requirements expression (see DESIGN.md). Instead of scanning source
// text, they walk the parsed AST and only recognize comparisons that
// are reachable through a chain of top-level && conjuncts — a clause
// buried inside an || or a ! does not count as a pin, matching the
// spec's "top-level" qualifier.

// topLevelConjuncts flattens a chain of && nodes into its leaves,
// without descending into || or ! or comparison operands.
func topLevelConjuncts(e Expr) []Expr {
	if l, ok := e.(Logical); ok && l.Op == OpAnd {
		return append(topLevelConjuncts(l.Left), topLevelConjuncts(l.Right)...)
	}
	return []Expr{e}
}

// FindJobIDHint looks for a top-level "other.JobID == <N>" conjunct and
// returns N if found.
func FindJobIDHint(e Expr) (int64, bool) {
	for _, c := range topLevelConjuncts(e) {
		cmp, ok := c.(Compare)
		if !ok || cmp.Op != CmpEq {
			continue
		}
		if n, ok := jobIDEquality(cmp.Left, cmp.Right); ok {
			return n, true
		}
		if n, ok := jobIDEquality(cmp.Right, cmp.Left); ok {
			return n, true
		}
	}
	return 0, false
}

func jobIDEquality(ref, lit Expr) (int64, bool) {
	r, ok := ref.(Ref)
	if !ok || r.Qualifier != "other" || r.Name != "JobID" {
		return 0, false
	}
	n, ok := lit.(IntLit)
	if !ok {
		return 0, false
	}
	return int64(n), true
}

// FindSitePins returns every site name pinned by a top-level
// "other.Site == \"<S>\"" conjunct. A queue is eligible for a banned
// site only when exactly one such pin exists and it equals the agent's
// site — callers check len(result) == 1.
func FindSitePins(e Expr) []string {
	var sites []string
	for _, c := range topLevelConjuncts(e) {
		cmp, ok := c.(Compare)
		if !ok || cmp.Op != CmpEq {
			continue
		}
		if s, ok := sitePin(cmp.Left, cmp.Right); ok {
			sites = append(sites, s)
			continue
		}
		if s, ok := sitePin(cmp.Right, cmp.Left); ok {
			sites = append(sites, s)
		}
	}
	return sites
}

func sitePin(ref, lit Expr) (string, bool) {
	r, ok := ref.(Ref)
	if !ok || r.Qualifier != "other" || r.Name != "Site" {
		return "", false
	}
	s, ok := lit.(StringLit)
	if !ok {
		return "", false
	}
	return string(s), true
}
