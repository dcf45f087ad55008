package prepare

import (
	"sort"

	"vcdi/pkg/vcdi/relabel"
)

// Prepared is the statement-preparer result: the relabeled statements
// in byte-lexicographic order, the label map that produced them, and the
// mandatory/non-mandatory partition of indexes into SortedStatements.
// Invariant: MandatoryIndexes and NonMandatoryIndexes are disjoint, both
// ascending, and their union covers [0, len(SortedStatements)).
type Prepared struct {
	SortedStatements    []string
	LabelMap            map[string]string
	MandatoryIndexes    []int
	NonMandatoryIndexes []int
}

// PrepareWithKey runs the preparer pipeline for the issuer (base-proof) path:
// relabel allStatements under hmacKey, sort, and classify.
// mandatoryIndexesIntoCanonical indexes allStatements (pre-sort, pre-relabel).
func PrepareWithKey(allStatements []string, mandatoryIndexesIntoCanonical []int, hmacKey []byte) (*Prepared, error) {
	relabeled, labelMap, err := relabel.Relabel(allStatements, hmacKey)
	if err != nil {
		return nil, err
	}
	return prepare(relabeled, mandatoryIndexesIntoCanonical, labelMap), nil
}

// PrepareWithMap runs the preparer pipeline for the derive/verify path: apply an
// existing label map to allStatements (no HMAC recomputation), sort, and
// classify.
func PrepareWithMap(allStatements []string, mandatoryIndexesIntoCanonical []int, labelMap map[string]string) *Prepared {
	relabeled := relabel.ApplyLabelMap(allStatements, labelMap)
	return prepare(relabeled, mandatoryIndexesIntoCanonical, labelMap)
}

// prepare sorts the already-relabeled statements and classifies each sorted
// position as mandatory or non-mandatory.
//
// Edge case: duplicate statements that straddle the
// mandatory/non-mandatory boundary are resolved by classifying a statement
// TEXT as mandatory if ANY of its canonical-index occurrences were
// mandatory - so all copies of a duplicated mandatory statement end up
// mandatory, not just the one at the originally-mandatory index.
func prepare(relabeled []string, mandatoryIndexesIntoCanonical []int, labelMap map[string]string) *Prepared {
	mandatoryStmtSet := make(map[string]bool, len(mandatoryIndexesIntoCanonical))
	for _, idx := range mandatoryIndexesIntoCanonical {
		mandatoryStmtSet[relabeled[idx]] = true
	}

	sorted := append([]string(nil), relabeled...)
	sort.Strings(sorted)

	var mandatoryIdx, nonMandatoryIdx []int
	for i, stmt := range sorted {
		if mandatoryStmtSet[stmt] {
			mandatoryIdx = append(mandatoryIdx, i)
		} else {
			nonMandatoryIdx = append(nonMandatoryIdx, i)
		}
	}

	return &Prepared{
		SortedStatements:    sorted,
		LabelMap:            labelMap,
		MandatoryIndexes:    mandatoryIdx,
		NonMandatoryIndexes: nonMandatoryIdx,
	}
}
