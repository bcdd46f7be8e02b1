package config

import (
	"fmt"
	"net/url"

	"github.com/thepower/tpgo/pkg/core/block"
	"github.com/thepower/tpgo/pkg/pow"
	"github.com/thepower/tpgo/pkg/txerr"
)

// ProtocolConfiguration represents network-related settings.
type ProtocolConfiguration struct {
	// Chain is the number of the shard chain transactions are sent to.
	Chain uint32 `yaml:"Chain"`
	// Endpoint is the node API base URL.
	Endpoint string `yaml:"Endpoint"`
	// PoWDifficulty is the number of leading zero bits required from the
	// registration transaction hash.
	PoWDifficulty int `yaml:"PoWDifficulty"`
	// GasToken and GasValue form the GAS purpose entry added to contract
	// calls.
	GasToken string `yaml:"GasToken"`
	GasValue uint64 `yaml:"GasValue"`
	// SignatureCountPolicy is either "distinct" (default) or "each".
	SignatureCountPolicy string `yaml:"SignatureCountPolicy"`
}

// Validate checks ProtocolConfiguration for internal consistency and returns
// an error if anything inappropriate found.
func (p *ProtocolConfiguration) Validate() error {
	if p.Endpoint != "" {
		u, err := url.Parse(p.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: invalid Endpoint %q", txerr.ErrConfiguration, p.Endpoint)
		}
	}
	if p.PoWDifficulty < 0 || p.PoWDifficulty > pow.MaxDifficulty {
		return fmt.Errorf("%w: PoWDifficulty %d is out of [0, %d] range", txerr.ErrConfiguration, p.PoWDifficulty, pow.MaxDifficulty)
	}
	if p.GasToken == "" && p.GasValue != 0 {
		return fmt.Errorf("%w: GasValue is set without GasToken", txerr.ErrConfiguration)
	}
	_, err := p.Policy()
	return err
}

// Policy returns parsed SignatureCountPolicy.
func (p *ProtocolConfiguration) Policy() (block.SignaturePolicy, error) {
	return block.ParseSignaturePolicy(p.SignatureCountPolicy)
}

// PoWDifficulties returns per-chain difficulty map for the configured chain.
func (p *ProtocolConfiguration) PoWDifficulties() map[uint64]int {
	return map[uint64]int{uint64(p.Chain): p.PoWDifficulty}
}
