package content

import (
	"fmt"
	"strings"
)

// Resolver derives token asset locations from the collection CID.
type Resolver struct {
	cid     string
	gateway string
}

func NewResolver(cid, gateway string) *Resolver {
	return &Resolver{
		cid:     strings.Trim(cid, "/"),
		gateway: strings.TrimRight(gateway, "/"),
	}
}

func (r *Resolver) CID() string {
	return r.cid
}

// MetadataURI is the URI stored on chain for tokenID.
func (r *Resolver) MetadataURI(tokenID uint64) string {
	return fmt.Sprintf("ipfs://%s/%d.json", r.cid, tokenID)
}

// ImageURI is the public gateway URL of the token's image.
func (r *Resolver) ImageURI(tokenID uint64) string {
	return fmt.Sprintf("%s/%s/%d.svg", r.gateway, r.cid, tokenID)
}

// GatewayURL rewrites an ipfs:// URI onto the HTTP gateway. Other URIs are
// returned unchanged.
func (r *Resolver) GatewayURL(uri string) string {
	if rest, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		return r.gateway + "/" + strings.TrimPrefix(rest, "ipfs/")
	}
	return uri
}
