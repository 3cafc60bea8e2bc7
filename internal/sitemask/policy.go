// Package sitemask implements the active-mask/single-site-pin filter
// described in spec.md §4.3 and §4.5 step 4a: a queue for a banned site
// is still eligible if its Requirements pin exactly that one site.
package sitemask

import (
	"github.com/gridmatch/matcher/pkg/classad"
	"github.com/gridmatch/matcher/pkg/domain"
)

// Eligible reports whether a queue whose Requirements is queueReq may be
// considered for a resource at agentSite, given the currently active
// mask. When agentSite is allowed every queue is eligible; when it is
// banned a queue is eligible only when its Requirements pins exactly one
// site and that site is agentSite.
func Eligible(queueReq classad.Expr, agentSite string, mask domain.SiteMask) bool {
	if mask.Allows(agentSite) {
		return true
	}
	pins := classad.FindSitePins(queueReq)
	return len(pins) == 1 && pins[0] == agentSite
}
