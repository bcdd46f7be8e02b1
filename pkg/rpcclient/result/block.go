package result

import "strings"

// Block is the JSON block representation returned by /block/{hash}.
type Block struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"header"`
	// Child is the hash of the next block if it's already known to the node.
	Child string `json:"child,omitempty"`
}

// BlockHeader is the part of the block header used by the client.
type BlockHeader struct {
	Chain  uint64 `json:"chain"`
	Height uint64 `json:"height"`
	Parent string `json:"parent"`
}

// BlockResponse wraps the block.
type BlockResponse struct {
	OK    bool   `json:"ok"`
	Block *Block `json:"block"`
}

// SameHash compares two hex-encoded hashes ignoring the case.
func SameHash(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
