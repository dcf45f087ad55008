// Package prepare implements the statement-preparer and selective-disclosure
// partitioning steps: RFC 6901 JSON Pointer mechanics, mapping pointers to
// canonical N-Quad statements, and the sort/classify pipeline that turns a
// canonicalized credential into the sorted, labeled, mandatory/non-mandatory
// statement sets the SD engines consume.
package prepare

import (
	"fmt"
	"strconv"
	"strings"

	"vcdi/pkg/vcdi/vcerrors"
)

// Pointer is an RFC 6901 JSON Pointer, e.g. "/credentialSubject/name".
type Pointer string

// segments splits a pointer into its unescaped reference tokens. An empty
// pointer (root) yields no segments.
func (p Pointer) segments() ([]string, error) {
	s := string(p)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, fmt.Sprintf("JSON Pointer %q must start with '/'", s))
	}
	parts := strings.Split(s[1:], "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		parts[i] = part
	}
	return parts, nil
}

// Get resolves pointer against doc, returning the value found there.
func Get(doc any, pointer Pointer) (any, error) {
	segs, err := pointer.segments()
	if err != nil {
		return nil, err
	}

	current := doc
	for _, seg := range segs {
		switch v := current.(type) {
		case map[string]any:
			val, ok := v[seg]
			if !ok {
				return nil, vcerrors.New(vcerrors.KindInvalidArgument, fmt.Sprintf("pointer %q: key %q not found", pointer, seg))
			}
			current = val
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, vcerrors.New(vcerrors.KindInvalidArgument, fmt.Sprintf("pointer %q: invalid array index %q", pointer, seg))
			}
			current = v[idx]
		default:
			return nil, vcerrors.New(vcerrors.KindInvalidArgument, fmt.Sprintf("pointer %q: cannot descend into %T", pointer, current))
		}
	}
	return current, nil
}

// set writes value into target at pointer, creating intermediate objects as
// needed. Used by SelectJsonLdFragments to rebuild a reduced document.
func set(target map[string]any, pointer Pointer, value any) error {
	segs, err := pointer.segments()
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return vcerrors.New(vcerrors.KindInvalidArgument, "cannot set the document root")
	}

	current := any(target)
	for _, seg := range segs[:len(segs)-1] {
		m, ok := current.(map[string]any)
		if !ok {
			return vcerrors.New(vcerrors.KindInvalidArgument, fmt.Sprintf("cannot descend through non-object at %q", seg))
		}
		child, ok := m[seg]
		if !ok {
			child = make(map[string]any)
			m[seg] = child
		}
		current = child
	}

	m, ok := current.(map[string]any)
	if !ok {
		return vcerrors.New(vcerrors.KindInvalidArgument, "cannot set value under a non-object parent")
	}
	m[segs[len(segs)-1]] = value
	return nil
}

// SelectJsonLdFragments builds a reduced JSON-LD document containing only
// the paths named by pointers, plus the original @context (required for the
// reduced document to canonicalize against the same vocabulary) and any
// top-level "id"/"type" fields, which the reduced graph needs to remain a
// valid, addressable JSON-LD node per the data model's root-type invariant.
func SelectJsonLdFragments(doc map[string]any, pointers []Pointer) (map[string]any, error) {
	reduced := map[string]any{}
	if ctx, ok := doc["@context"]; ok {
		reduced["@context"] = ctx
	}
	if id, ok := doc["id"]; ok {
		reduced["id"] = id
	}
	if typ, ok := doc["type"]; ok {
		reduced["type"] = typ
	}

	for _, p := range pointers {
		val, err := Get(doc, p)
		if err != nil {
			return nil, err
		}
		if err := set(reduced, p, val); err != nil {
			return nil, err
		}
	}
	return reduced, nil
}

// RemoveJsonLdFragments deletes the paths named by pointers from doc, in
// place. A pointer whose path is absent is a no-op rather than an error, so
// an exclusion can name a claim that was never selected in the first place.
// Only object members can be removed; excluding an individual array element
// would leave a hole that shifts its siblings' pointers, so that is rejected.
func RemoveJsonLdFragments(doc map[string]any, pointers []Pointer) error {
	for _, p := range pointers {
		segs, err := p.segments()
		if err != nil {
			return err
		}
		if len(segs) == 0 {
			return vcerrors.New(vcerrors.KindInvalidArgument, "cannot remove the document root")
		}

		current := any(doc)
		missing := false
		for _, seg := range segs[:len(segs)-1] {
			m, ok := current.(map[string]any)
			if !ok {
				missing = true
				break
			}
			child, ok := m[seg]
			if !ok {
				missing = true
				break
			}
			current = child
		}
		if missing {
			continue
		}

		m, ok := current.(map[string]any)
		if !ok {
			return vcerrors.New(vcerrors.KindInvalidArgument,
				fmt.Sprintf("exclusion pointer %q addresses into a non-object value", p))
		}
		delete(m, segs[len(segs)-1])
	}
	return nil
}
