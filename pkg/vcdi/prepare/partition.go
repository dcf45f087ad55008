package prepare

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"vcdi/pkg/vcdi/vcerrors"

	"github.com/piprate/json-gold/ld"
)

// wellKnownPredicates seeds the compacted-term -> IRI lookup with the VC 2.0
// vocabulary terms every credential uses; resolveTerm extends it with
// whatever the document's own inline @context additionally declares.
var wellKnownPredicates = map[string]string{
	"type":              "http://www.w3.org/1999/02/22-rdf-syntax-ns#type",
	"issuer":            "https://www.w3.org/2018/credentials#issuer",
	"validFrom":         "https://www.w3.org/2018/credentials#validFrom",
	"validUntil":        "https://www.w3.org/2018/credentials#validUntil",
	"credentialSubject": "https://www.w3.org/2018/credentials#credentialSubject",
	"credentialStatus":  "https://www.w3.org/2018/credentials#credentialStatus",
	"credentialSchema":  "https://www.w3.org/2018/credentials#credentialSchema",
}

// PartitionResult is what PartitionStatements returns: the full canonical
// statement list plus the subset of its indexes that the requested pointers
// address, together with the root node's rdf:type statements, which are
// always selected.
type PartitionResult struct {
	AllStatements   []string
	SelectedIndexes map[int]bool
}

// Canonicalizer is the minimal canonicalization dependency this package
// needs, declared locally to avoid importing pkg/vcdi/canonical (which would
// create an import cycle once the SD engines wire both together).
type Canonicalizer interface {
	Canonicalize(ctx context.Context, doc any) ([]byte, error)
}

// PartitionStatements canonicalizes doc and identifies which canonical
// N-Quad statements are reachable from each of pointers. It separately
// converts doc to RDF with json-gold's ToRDF (which assigns its own,
// pre-canonicalization blank-node labels), resolves each pointer against
// that raw graph by walking predicate edges from the root subject, then
// maps the matched raw statements onto their canonical counterparts via a
// blank-node bijection search (see matchBijection).
//
// Predicate resolution for each pointer segment is looked up in the
// document's own @context when it is an inline term map, falling back to
// the VC 2.0 vocabulary's well-known terms. Pointers into vocabulary outside
// both of these (a claim whose context is an external document this
// resolver cannot introspect) are a known scope limit: extend
// wellKnownPredicates or the document's context rather than expanding this
// package into a full JSON-LD context processor.
func PartitionStatements(ctx context.Context, doc map[string]any, pointers []Pointer, canon Canonicalizer, loader ld.DocumentLoader) (*PartitionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindCancelled, "partitioning cancelled", err)
	}

	canonicalBytes, err := canon.Canonicalize(ctx, doc)
	if err != nil {
		return nil, err
	}
	allStatements := splitStatements(string(canonicalBytes))

	opts := ld.NewJsonLdOptions("")
	if loader != nil {
		opts.DocumentLoader = loader
	}
	proc := ld.NewJsonLdProcessor()
	rdfResult, err := proc.ToRDF(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("prepare: converting document to RDF: %w", err)
	}
	dataset, ok := rdfResult.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("prepare: unexpected ToRDF result type %T", rdfResult)
	}
	rawQuads := dataset.Graphs["@default"]

	serializer := &ld.NQuadRDFSerializer{}
	serialized, err := serializer.Serialize(dataset)
	if err != nil {
		return nil, fmt.Errorf("prepare: serializing raw RDF dataset: %w", err)
	}
	rawStatements := splitStatements(serialized.(string))

	bijection, err := matchBijection(rawStatements, allStatements, rawBlankNodePattern, relabelCanonicalPattern)
	if err != nil {
		return nil, err
	}

	rootID, err := rootSubject(rawQuads, doc)
	if err != nil {
		return nil, err
	}

	selectedRaw := map[string]bool{}
	for _, q := range rawQuads {
		if q.Subject != nil && q.Subject.GetValue() == rootID && q.Predicate != nil &&
			q.Predicate.GetValue() == wellKnownPredicates["type"] {
			selectedRaw[rawStatementOf(q)] = true
		}
	}

	for _, p := range pointers {
		stmts, err := selectPointer(doc, rawQuads, rootID, p)
		if err != nil {
			return nil, err
		}
		for _, s := range stmts {
			selectedRaw[s] = true
		}
	}

	selected := map[int]bool{}
	canonicalToIndex := map[string]int{}
	for i, s := range allStatements {
		canonicalToIndex[s] = i
	}
	for rawStmt := range selectedRaw {
		mapped := applyBijection([]string{rawStmt}, bijection, rawBlankNodePattern)[0]
		if idx, ok := canonicalToIndex[mapped]; ok {
			selected[idx] = true
		}
	}

	return &PartitionResult{AllStatements: allStatements, SelectedIndexes: selected}, nil
}

// relabelCanonicalPattern mirrors relabel.blankNodePattern; duplicated here
// (rather than imported) to keep this package's only dependency on
// relabel's conventions at the regex level, not a package coupling.
var relabelCanonicalPattern = regexp.MustCompile(`_:c14n[0-9]+`)

func splitStatements(nquads string) []string {
	lines := strings.Split(strings.TrimRight(nquads, "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// rawStatementOf serializes one default-graph quad the way the N-Quads
// serializer writes its line, so a selected quad can be located textually
// among the serialized raw statements.
func rawStatementOf(q *ld.Quad) string {
	return formatNode(q.Subject) + " " + formatNode(q.Predicate) + " " + formatNode(q.Object) + " ."
}

func formatNode(n ld.Node) string {
	switch v := n.(type) {
	case *ld.IRI:
		return "<" + v.Value + ">"
	case *ld.BlankNode:
		return v.Attribute
	case *ld.Literal:
		val := `"` + nquadEscaper.Replace(v.Value) + `"`
		switch {
		case v.Language != "":
			return val + "@" + v.Language
		case v.Datatype != "" && v.Datatype != ld.XSDString:
			return val + "^^<" + v.Datatype + ">"
		default:
			return val
		}
	default:
		return n.GetValue()
	}
}

var nquadEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// rootSubject finds the RDF subject identifying the document's root node:
// its "id" field if present, else the subject of its rdf:type statement
// (there must be exactly one root node with a VerifiableCredential type per
// the data model).
func rootSubject(rawQuads []*ld.Quad, doc map[string]any) (string, error) {
	if id, ok := doc["id"].(string); ok && id != "" {
		return id, nil
	}
	for _, q := range rawQuads {
		if q.Predicate != nil && q.Predicate.GetValue() == wellKnownPredicates["type"] {
			return q.Subject.GetValue(), nil
		}
	}
	return "", vcerrors.New(vcerrors.KindInvalidArgument, "document has no identifiable root subject")
}

// selectPointer walks pointer's segments as predicate edges from root,
// returning the raw N-Quad statement lines that the final segment's value
// contributes: a single statement for a scalar leaf, or the transitive
// closure of all statements reachable from a nested object/array value.
func selectPointer(doc map[string]any, rawQuads []*ld.Quad, rootID string, pointer Pointer) ([]string, error) {
	segs, err := pointer.segments()
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return allRawStatements(rawQuads), nil
	}

	currentSubject := rootID
	var lastQuads []*ld.Quad
	for i, seg := range segs {
		predIRI := resolveTerm(doc, seg)
		lastQuads = nil
		for _, q := range rawQuads {
			if q.Subject == nil || q.Predicate == nil || q.Object == nil {
				continue
			}
			if q.Subject.GetValue() != currentSubject || q.Predicate.GetValue() != predIRI {
				continue
			}
			lastQuads = append(lastQuads, q)
			if i < len(segs)-1 {
				currentSubject = q.Object.GetValue()
				break
			}
		}
		if len(lastQuads) == 0 {
			return nil, vcerrors.New(vcerrors.KindInvalidArgument, fmt.Sprintf("pointer %q: no RDF statement for segment %q", pointer, seg))
		}
	}

	var out []string
	for _, q := range lastQuads {
		if strings.HasPrefix(q.Object.GetValue(), "_:") {
			out = append(out, closureFrom(rawQuads, q.Object.GetValue())...)
		} else {
			out = append(out, rawStatementOf(q))
		}
	}
	return out, nil
}

// closureFrom returns every raw statement reachable from subjectID by
// following blank-node object edges, i.e. the whole sub-object the pointer
// addressed.
func closureFrom(rawQuads []*ld.Quad, subjectID string) []string {
	visited := map[string]bool{}
	queue := []string{subjectID}
	var out []string

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		for _, q := range rawQuads {
			if q.Subject == nil || q.Subject.GetValue() != id {
				continue
			}
			out = append(out, rawStatementOf(q))
			if q.Object != nil && strings.HasPrefix(q.Object.GetValue(), "_:") && !visited[q.Object.GetValue()] {
				queue = append(queue, q.Object.GetValue())
			}
		}
	}
	return out
}

func allRawStatements(rawQuads []*ld.Quad) []string {
	out := make([]string, 0, len(rawQuads))
	for _, q := range rawQuads {
		out = append(out, rawStatementOf(q))
	}
	return out
}

// resolveTerm maps a compacted JSON-LD term to its full IRI by checking the
// document's own inline @context first (covering credential-specific
// claims), then the well-known VC 2.0 vocabulary.
func resolveTerm(doc map[string]any, term string) string {
	if ctxVal, ok := doc["@context"]; ok {
		if iri, ok := lookupInlineContext(ctxVal, term); ok {
			return iri
		}
	}
	if iri, ok := wellKnownPredicates[term]; ok {
		return iri
	}
	return term
}

func lookupInlineContext(ctxVal any, term string) (string, bool) {
	switch c := ctxVal.(type) {
	case []any:
		for _, entry := range c {
			if iri, ok := lookupInlineContext(entry, term); ok {
				return iri, true
			}
		}
	case map[string]any:
		if v, ok := c[term]; ok {
			switch tv := v.(type) {
			case string:
				return tv, true
			case map[string]any:
				if id, ok := tv["@id"].(string); ok {
					return id, true
				}
			}
		}
	}
	return "", false
}
