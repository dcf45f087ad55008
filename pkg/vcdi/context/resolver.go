// Package context resolves JSON-LD @context documents for RDFC-1.0
// canonicalization: an embedded store of pinned well-known contexts, an
// HTTP fallback for everything else, and a TTL cache in front of both,
// merged into one Resolver since this module has no web-service layer that
// needs them kept apart.
package context

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vcdi/pkg/vcdi/vcerrors"
	"vcdi/pkg/vcdilog"

	"github.com/jellydator/ttlcache/v3"
	"github.com/piprate/json-gold/ld"
)

//go:embed data/*.jsonld
var embeddedFS embed.FS

// Well-known context URLs this module ships pinned copies of.
const (
	VCContextV2URL = "https://www.w3.org/ns/credentials/v2"
	VCContextV1URL = "https://www.w3.org/2018/credentials/v1"
)

var embeddedFiles = map[string]string{
	VCContextV2URL: "data/credentials-v2.jsonld",
	VCContextV1URL: "data/credentials-v1.jsonld",
}

// Document is a resolved context document paired with the SHA-256 hash of
// its bytes, so callers can pin an issuer-configured hash against whatever
// the resolver actually loaded.
type Document struct {
	URL      string
	Body     any
	Hash     string
	Embedded bool
}

// Resolver loads and caches JSON-LD context documents, and doubles as an
// ld.DocumentLoader for the RDFC canonicalizer. Embedded documents are
// pinned permanently; anything else is fetched over HTTP and cached with a
// TTL.
type Resolver struct {
	cache      *ttlcache.Cache[string, *Document]
	httpClient *http.Client
	log        *vcdilog.Log
}

// NewResolver builds a Resolver, preloads the embedded well-known contexts,
// and starts the cache's background eviction loop. Stop must be called to
// release that goroutine.
func NewResolver(ttl time.Duration, log *vcdilog.Log) (*Resolver, error) {
	if log == nil {
		log = vcdilog.NewSimple("context")
	}
	cache := ttlcache.New[string, *Document](
		ttlcache.WithTTL[string, *Document](ttl),
	)

	r := &Resolver{
		cache:      cache,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}

	for url, filename := range embeddedFiles {
		if err := r.preload(url, filename); err != nil {
			return nil, fmt.Errorf("context: preloading %s: %w", url, err)
		}
	}

	go cache.Start()
	return r, nil
}

// Stop halts the cache's background eviction goroutine.
func (r *Resolver) Stop() { r.cache.Stop() }

func (r *Resolver) preload(url, filename string) error {
	raw, err := embeddedFS.ReadFile(filename)
	if err != nil {
		return err
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("parsing embedded context: %w", err)
	}

	sum := sha256.Sum256(raw)
	r.cache.Set(url, &Document{
		URL:      url,
		Body:     body,
		Hash:     hex.EncodeToString(sum[:]),
		Embedded: true,
	}, ttlcache.NoTTL)
	return nil
}

// Get resolves url, returning the embedded pinned copy if this resolver
// ships one, else fetching and caching it over HTTP.
func (r *Resolver) Get(ctx context.Context, url string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindCancelled, "context resolution cancelled", err)
	}

	if item := r.cache.Get(url); item != nil {
		return item.Value(), nil
	}

	doc, err := r.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	r.cache.Set(url, doc, ttlcache.DefaultTTL)
	return doc, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("context: building request for %s: %w", url, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("context: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("context: fetching %s: HTTP %d", url, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("context: parsing %s: %w", url, err)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("context: re-marshaling %s: %w", url, err)
	}
	sum := sha256.Sum256(raw)

	r.log.Debug("fetched context document", "url", url)
	return &Document{URL: url, Body: body, Hash: hex.EncodeToString(sum[:])}, nil
}

// ValidatePinned checks that the context at url, as currently resolvable,
// hashes to wantHash. Used to pin the base VC context against a
// known-good hash before trusting any credential that declares it.
func (r *Resolver) ValidatePinned(ctx context.Context, url, wantHash string) error {
	doc, err := r.Get(ctx, url)
	if err != nil {
		return err
	}
	if doc.Hash != wantHash {
		return vcerrors.New(vcerrors.KindInvalidArgument,
			fmt.Sprintf("context %s hash mismatch: expected %s, got %s", url, wantHash, doc.Hash))
	}
	return nil
}

// LoadDocument implements ld.DocumentLoader so a Resolver can be handed
// directly to canonical.NewRDFC.
func (r *Resolver) LoadDocument(url string) (*ld.RemoteDocument, error) {
	doc, err := r.Get(context.Background(), url)
	if err != nil {
		return nil, err
	}
	return &ld.RemoteDocument{DocumentURL: url, Document: doc.Body}, nil
}
