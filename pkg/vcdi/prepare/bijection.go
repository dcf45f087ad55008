package prepare

import (
	"regexp"
	"strings"

	"vcdi/pkg/vcdi/vcerrors"
)

// rawBlankNodePattern matches the blank-node labels json-gold's ToRDF
// assigns before canonicalization (e.g. "_:b0"), as opposed to relabel's
// post-canonicalization "_:c14n<N>" pattern.
var rawBlankNodePattern = regexp.MustCompile(`_:[A-Za-z0-9._-]+`)

// skeleton replaces every blank-node label in stmt with a fixed placeholder,
// so two statements that differ only in blank-node naming compare equal.
func skeleton(stmt string, pattern *regexp.Regexp) string {
	return pattern.ReplaceAllString(stmt, "_:?")
}

// matchBijection finds the blank-node relabeling that turns `from` into `to`
// (as equal multisets of statements), where `from` uses fromPattern-shaped
// labels and `to` uses toPattern-shaped labels. It is a thin wrapper over
// bijectionSearch that additionally requires `from` and `to` to be the same
// size, since PartitionStatements' raw-to-canonical correspondence is a true
// permutation of one statement set.
func matchBijection(from, to []string, fromPattern, toPattern *regexp.Regexp) (map[string]string, error) {
	if len(from) != len(to) {
		return nil, vcerrors.New(vcerrors.KindCountMismatch, "statement counts differ between the two label schemes")
	}
	return bijectionSearch(from, to, fromPattern, toPattern)
}

// RecomputeReducedLabelMap finds the blank-node relabeling that turns each of
// reducedStatements (canonicalized independently from a reduced, disclosed
// credential, carrying that canonicalization's own "_:c14n<N>" labels) into
// its counterpart inside fullStatements (the issuer's relabeled,
// HMAC-labeled statement set). Unlike matchBijection, reducedStatements is
// expected to be a proper subset of the graph fullStatements describes, so no
// count check applies; the derive engine uses this to recover the HMAC
// identifier a disclosed blank node must carry in the derived proof's label
// map. The result is in the label map's bare wire form: "c14n0" -> "uXYZ",
// without the "_:" prefix on either side.
func RecomputeReducedLabelMap(reducedStatements, fullStatements []string) (map[string]string, error) {
	assignment, err := bijectionSearch(reducedStatements, fullStatements, relabelCanonicalPattern, hmacLabelPattern)
	if err != nil {
		return nil, err
	}
	bare := make(map[string]string, len(assignment))
	for from, to := range assignment {
		bare[strings.TrimPrefix(from, "_:")] = strings.TrimPrefix(to, "_:")
	}
	return bare, nil
}

// hmacLabelPattern matches relabel's HMAC-derived blank-node identifiers
// (mirroring relabel's own unexported hmacIDPattern, at the regex level only
// to avoid a package coupling - see relabelCanonicalPattern in partition.go).
var hmacLabelPattern = regexp.MustCompile(`_:u[A-Za-z0-9_-]+`)

// bijectionSearch is the shared constraint-propagation primitive behind both
// matchBijection and RecomputeReducedLabelMap: in both cases, two statement
// lists describe the same (or, for the subset case, an overlapping) RDF
// graph under two different blank-node naming schemes, and the only way to
// relate them is a search over candidate substitutions.
//
// The search locks in an assignment the first time exactly one candidate
// substitution is consistent with everything discovered so far; it reports
// vcerrors.KindLabelMapAmbiguous if more than one assignment remains
// consistent after scanning every statement.
func bijectionSearch(from, to []string, fromPattern, toPattern *regexp.Regexp) (map[string]string, error) {
	// Group `to` statements by skeleton so candidates can be found in
	// near-constant time instead of a full cross product.
	toBySkeleton := make(map[string][]string)
	for _, stmt := range to {
		sk := skeleton(stmt, toPattern)
		toBySkeleton[sk] = append(toBySkeleton[sk], stmt)
	}

	assignment := make(map[string]string) // from-label -> to-label
	claimedBy := make(map[string]string)  // to-label -> from-label that owns it

	changed := true
	remaining := append([]string(nil), from...)
	for changed {
		changed = false
		stillRemaining := remaining[:0]

		for _, stmt := range remaining {
			sk := skeleton(stmt, fromPattern)
			candidates := toBySkeleton[sk]
			if len(candidates) == 0 {
				return nil, vcerrors.New(vcerrors.KindCountMismatch, "no matching statement found for "+stmt)
			}

			fromLabels := fromPattern.FindAllString(stmt, -1)
			consistent := map[string]bool{}
			var survivors []string

			for _, cand := range candidates {
				toLabels := toPattern.FindAllString(cand, -1)
				if len(toLabels) != len(fromLabels) {
					continue
				}
				ok := true
				local := map[string]string{}
				for i, fl := range fromLabels {
					tl := toLabels[i]
					if existing, has := assignment[fl]; has && existing != tl {
						ok = false
						break
					}
					if owner, has := claimedBy[tl]; has && owner != fl {
						ok = false
						break
					}
					if lv, has := local[fl]; has && lv != tl {
						ok = false
						break
					}
					local[fl] = tl
				}
				if ok {
					survivors = append(survivors, cand)
					key := strings.Join(toLabels, ",")
					consistent[key] = true
				}
			}

			switch {
			case len(survivors) == 0:
				return nil, vcerrors.New(vcerrors.KindCountMismatch, "no consistent candidate for "+stmt)
			case len(consistent) == 1:
				toLabels := toPattern.FindAllString(survivors[0], -1)
				for i, fl := range fromLabels {
					assignment[fl] = toLabels[i]
					claimedBy[toLabels[i]] = fl
				}
				changed = true
			default:
				stillRemaining = append(stillRemaining, stmt)
			}
		}
		remaining = stillRemaining
	}

	if len(remaining) > 0 {
		return nil, vcerrors.New(vcerrors.KindLabelMapAmbiguous, "blank-node bijection is ambiguous for the remaining statements")
	}
	return assignment, nil
}

// applyBijection substitutes labels in statements per mapping, leaving
// unmapped blank nodes untouched.
func applyBijection(statements []string, mapping map[string]string, pattern *regexp.Regexp) []string {
	out := make([]string, len(statements))
	for i, stmt := range statements {
		out[i] = pattern.ReplaceAllStringFunc(stmt, func(match string) string {
			if mapped, ok := mapping[match]; ok {
				return mapped
			}
			return match
		})
	}
	return out
}
