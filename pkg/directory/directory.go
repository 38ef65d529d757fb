// Package directory resolves identities to their long-term public
// keys and caches the results for the life of a session, grounded in
// original_source/src/lib.rs's `fetch_peer_key`/`get_peer_key` and
// `rest::request`, restructured as an explicit collaborator interface
// per the spec's treatment of the HTTPS directory as external to the
// core (the teacher's pkg/network doesn't have an equivalent lookup,
// so the HTTP client shape follows net/http idiom directly).
package directory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ZentaChain/zentalk-client/pkg/clienterr"
	"github.com/ZentaChain/zentalk-client/pkg/identity"
)

// Lookup resolves a single identity to its long-term public key. It is
// the external collaborator the messaging core calls through on a
// cache miss.
type Lookup interface {
	Lookup(ctx context.Context, id identity.ID) (identity.PublicKey, error)
}

// Cache is a trust-on-first-use, session-scoped map from identity to
// public key. Entries are never evicted or refreshed; this mirrors
// original_source/src/lib.rs's `peers: HashMap<ThreemaID, PublicKey>`
// exactly -- no negative caching, no TTL.
type Cache struct {
	lookup  Lookup
	entries map[identity.ID]identity.PublicKey
}

// NewCache wraps lookup with an in-memory cache.
func NewCache(lookup Lookup) *Cache {
	return &Cache{lookup: lookup, entries: make(map[identity.ID]identity.PublicKey)}
}

// Get returns id's long-term public key, consulting the cache first
// and falling back to the collaborator on a miss. A successful lookup
// is cached; a failed one is not retried until the next Get call (no
// negative caching).
func (c *Cache) Get(ctx context.Context, id identity.ID) (identity.PublicKey, error) {
	if pk, ok := c.entries[id]; ok {
		return pk, nil
	}

	pk, err := c.lookup.Lookup(ctx, id)
	if err != nil {
		return identity.PublicKey{}, clienterr.New(clienterr.RequestError, err)
	}

	c.entries[id] = pk
	return pk, nil
}

// directoryResponse mirrors the `GET /identity/{id}` JSON body.
type directoryResponse struct {
	Identity  string `json:"identity"`
	PublicKey string `json:"publicKey"`
}

// HTTPLookup is the default Lookup implementation, issuing
// `GET {BaseURL}/identity/{id}` over TLS, verifying the server against
// the root CA pool its Client was configured with.
type HTTPLookup struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPLookup builds an HTTPLookup whose TLS root pool is pinnedCA.
// A non-nil pinnedCA replaces the platform root store rather than
// adding to it; a nil pinnedCA leaves the platform root store in use.
func NewHTTPLookup(baseURL string, pinnedCA *x509.CertPool) *HTTPLookup {
	return &HTTPLookup{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{RootCAs: pinnedCA},
			},
		},
	}
}

// Lookup implements Lookup.
func (h *HTTPLookup) Lookup(ctx context.Context, id identity.ID) (identity.PublicKey, error) {
	url := fmt.Sprintf("%s/identity/%s", h.BaseURL, id.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return identity.PublicKey{}, clienterr.New(clienterr.RequestError, err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return identity.PublicKey{}, clienterr.New(clienterr.RequestError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return identity.PublicKey{}, clienterr.New(clienterr.RequestError, fmt.Errorf("directory lookup: status %d", resp.StatusCode))
	}

	var body directoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return identity.PublicKey{}, clienterr.New(clienterr.RequestError, err)
	}

	raw, err := base64.StdEncoding.DecodeString(body.PublicKey)
	if err != nil || len(raw) != 32 {
		return identity.PublicKey{}, clienterr.New(clienterr.InvalidPublicKey, err)
	}

	var pk identity.PublicKey
	copy(pk[:], raw)
	return pk, nil
}
