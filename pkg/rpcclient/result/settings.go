package result

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"

	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/txerr"
)

// SettingsResponse is returned by /settings.
type SettingsResponse struct {
	OK       bool     `json:"ok"`
	Settings Settings `json:"settings"`
}

// Settings contains network settings relevant for transaction composition
// and block verification.
type Settings struct {
	Chain   map[string]ChainSettings `json:"chain"`
	Keys    map[string]string        `json:"keys"`
	Current CurrentSettings          `json:"current"`
}

// ChainSettings are per-chain consensus parameters.
type ChainSettings struct {
	MinSig int `json:"minsig"`
}

// CurrentSettings holds fee parameters per fee currency.
type CurrentSettings struct {
	Fee map[string]FeeParams `json:"fee"`
}

// FeeParams are fee parameters for a single currency.
type FeeParams struct {
	Base      uint64 `json:"base"`
	BaseExtra uint64 `json:"baseextra"`
	KB        uint64 `json:"kb"`
}

// MinSig returns the quorum threshold for the chain.
func (s *Settings) MinSig(chain uint64) (int, error) {
	cs, ok := s.Chain[strconv.FormatUint(chain, 10)]
	if !ok {
		return 0, fmt.Errorf("%w: no settings for chain %d", txerr.ErrConfiguration, chain)
	}
	if cs.MinSig <= 0 {
		return 0, fmt.Errorf("%w: invalid minsig %d for chain %d", txerr.ErrConfiguration, cs.MinSig, chain)
	}
	return cs.MinSig, nil
}

// ValidatorKeys returns decoded validator public keys in key name order.
func (s *Settings) ValidatorKeys() ([][]byte, error) {
	names := make([]string, 0, len(s.Keys))
	for name := range s.Keys {
		names = append(names, name)
	}
	sort.Strings(names)
	res := make([][]byte, 0, len(names))
	for _, name := range names {
		k, err := base64.StdEncoding.DecodeString(s.Keys[name])
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", txerr.ErrEncoding, name, err)
		}
		res = append(res, k)
	}
	return res, nil
}

// FeeSettings returns fee settings for the currency. If cur is empty the
// first currency (in alphabetical order) is used. ok is false when there are
// no fee parameters for the currency.
func (s *Settings) FeeSettings(cur string) (transaction.FeeSettings, bool) {
	if cur == "" {
		for c := range s.Current.Fee {
			if cur == "" || c < cur {
				cur = c
			}
		}
	}
	p, ok := s.Current.Fee[cur]
	if !ok {
		return transaction.FeeSettings{}, false
	}
	return transaction.FeeSettings{FeeCur: cur, Fee: p.Base, BaseEx: p.BaseExtra, KB: p.KB}, true
}
