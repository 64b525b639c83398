package addrsort

// Compare ranks two candidate destination addresses, both in v6-shaped
// form, against the locally available source address classes. It
// returns >0 if a is preferred, <0 if b is preferred and 0 if the
// input order should be kept.
//
// Of the rules from RFC 6724 section 6 this implements:
//
//	Rule 1: not implemented
//	Rule 2: implemented
//	Rules 3, 4: not applicable
//	Rules 5, 6: implemented
//	Rules 7, 9: not applicable
//	Rule 8: implemented
//	Rule 10: implemented
//
// Rules 2 and 5 are defined over the source address that would be
// selected for each destination. Instead of running source address
// selection, the summary is consulted: if any source of the
// candidate's scope (or label) is configured, selection would prefer
// one of them and the rule matches; if none is configured the rule
// cannot match.
func Compare(a, b [16]byte, sum Summary) int {
	// Rule 2: prefer matching scope. The resolver rarely returns
	// anything but global scope destinations, but check anyway.
	aScope := ScopeOf(a)
	bScope := ScopeOf(b)
	aMatch := sum.scopeMatch(a, aScope)
	bMatch := sum.scopeMatch(b, bScope)
	// This decides when there is no global IPv6 source (only
	// link-local), or no usable IPv4 source.
	if aMatch && !bMatch {
		return 1
	}
	if bMatch && !aMatch {
		return -1
	}

	// Rule 5: prefer matching label. IPv4-mapped is its own label,
	// so IPv4 and IPv6 candidates are compared on the same footing.
	aLabel := LabelOf(a)
	bLabel := LabelOf(b)
	aMatch = sum.labelMatch(aLabel)
	bMatch = sum.labelMatch(bLabel)
	if aMatch && !bMatch {
		return 1
	}
	if bMatch && !aMatch {
		return -1
	}

	// Rule 6: prefer higher precedence. With one general IPv6
	// source and one general IPv6 destination this picks IPv6 over
	// IPv4; ULA against ULA passes rule 5 but ranks below here.
	aPrec := Precedence(aLabel)
	bPrec := Precedence(bLabel)
	if aPrec > bPrec {
		return 1
	}
	if bPrec > aPrec {
		return -1
	}

	// Rule 8: prefer smaller scope.
	if aScope < bScope {
		return 1
	}
	if bScope < aScope {
		return -1
	}

	// Rule 10: otherwise, leave the order unchanged.
	return 0
}
