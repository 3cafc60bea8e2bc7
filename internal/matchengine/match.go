// Package matchengine implements the two-way satisfaction check between
// two descriptors, grounded on the original matcher's matchJob/general
// scan symmetric-match logic (see DESIGN.md).
package matchengine

import (
	"errors"

	"github.com/gridmatch/matcher/pkg/classad"
)

// ErrBothInvalid is MatchError: returned only when neither descriptor
// can be evaluated in either direction.
var ErrBothInvalid = errors.New("matchengine: both descriptors invalid")

// Result reports left-to-right, right-to-left, and symmetric
// satisfaction between two descriptors A and B.
type Result struct {
	LTR bool // A.Requirements satisfied by B
	RTL bool // B.Requirements satisfied by A
	Sym bool // LTR && RTL
}

// Match evaluates A's Requirements against B and B's Requirements
// against A. An evaluation error in one direction taints only that
// direction (EvaluateRequirements never itself errors — see
// pkg/classad/eval.go — so in practice this only returns ErrBothInvalid
// when both descriptors are nil).
func Match(a, b *classad.Descriptor) (Result, error) {
	if a == nil && b == nil {
		return Result{}, ErrBothInvalid
	}
	ltr, rtl := false, false
	if a != nil {
		lv, _ := classad.EvaluateRequirements(a, b)
		ltr = lv
	}
	if b != nil {
		rv, _ := classad.EvaluateRequirements(b, a)
		rtl = rv
	}
	return Result{LTR: ltr, RTL: rtl, Sym: ltr && rtl}, nil
}
