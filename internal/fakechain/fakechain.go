/*
Package fakechain implements an in-memory chain served over the node REST API
for tests.
*/
package fakechain

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thepower/tpgo/pkg/core/block"
	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/crypto/hash"
	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/rpcclient/result"
)

// FakeChain is a set of blocks with a head, validators and submitted
// transactions. Node behavior can be scripted with Set* handlers, they're
// called with the chain lock held.
type FakeChain struct {
	t      testing.TB
	mu     sync.Mutex
	srv    *httptest.Server
	Chain  uint64
	MinSig int

	Validators []*keys.PrivateKey

	keys   map[string]string
	fee    map[string]result.FeeParams

	blocks map[string]*block.Block
	child  map[string]string
	head   string
	code   map[string][]byte

	sent  []string
	calls map[string]int

	sendTxF    func(tx string) result.SendTx
	txStatusF  func(txid string, n int) *result.TxStatus
	lastBlockF func(n int) *result.Block
}

// New creates a chain with n validators and a genesis block and starts an
// HTTP server for it. The server is closed on test cleanup.
func New(t testing.TB, chain uint64, validators int, minSig int) *FakeChain {
	c := &FakeChain{
		t:      t,
		Chain:  chain,
		MinSig: minSig,
		keys:   make(map[string]string),
		fee:    map[string]result.FeeParams{"SK": {Base: 10, BaseExtra: 200, KB: 5}},
		blocks: make(map[string]*block.Block),
		child:  make(map[string]string),
		code:   make(map[string][]byte),
		calls:  make(map[string]int),
	}
	for i := 0; i < validators; i++ {
		k, err := keys.NewPrivateKey()
		require.NoError(t, err)
		c.Validators = append(c.Validators, k)
		c.keys["node"+strconv.Itoa(i)] = k.PublicKey().Base64()
	}
	c.AddBlock(minSig)
	c.srv = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.srv.Close)
	return c
}

// URL returns the API endpoint.
func (c *FakeChain) URL() string {
	return c.srv.URL + "/api"
}

// Head returns the hash of the head block.
func (c *FakeChain) Head() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// AddBlock creates a new head block signed by the first signers
// validators.
func (c *FakeChain) AddBlock(signers int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		parent []byte
		height uint64
	)
	if c.head != "" {
		parent, _ = hex.DecodeString(c.head)
		height = c.blocks[c.head].Header.Height + 1
	}
	b := &block.Block{Header: block.Header{
		Chain:  c.Chain,
		Height: height,
		Parent: parent,
		Roots: []block.Root{
			{Name: "txroot", Value: []byte{byte(height), 1}},
			{Name: "ledger_hash", Value: []byte{byte(height), 2}},
		},
	}}
	h := b.Header.Hash()
	for _, k := range c.Validators[:signers] {
		s, err := transaction.SignPayload(h[:], k)
		require.NoError(c.t, err)
		b.Sign = append(b.Sign, s)
	}
	hash := hex.EncodeToString(h[:])
	c.blocks[hash] = b
	if c.head != "" {
		c.child[c.head] = hash
	}
	c.head = hash
	return hash
}

// Block returns the block by hash.
func (c *FakeChain) Block(hash string) *block.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[strings.ToLower(hash)]
}

// PutCode sets contract code for the address.
func (c *FakeChain) PutCode(address []byte, code []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code[strings.ToUpper(hex.EncodeToString(address))] = code
}

// CallCount returns the number of handled requests of the call.
func (c *FakeChain) CallCount(call string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[call]
}

// Sent returns submitted transactions.
func (c *FakeChain) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.sent...)
}

// SetKeys replaces validator keys reported in settings.
func (c *FakeChain) SetKeys(keys map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = keys
}

// SetFee replaces fee parameters reported in settings.
func (c *FakeChain) SetFee(fee map[string]result.FeeParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fee = fee
}

// SetSendTx sets /tx/new handler, by default any decodable envelope is
// accepted.
func (c *FakeChain) SetSendTx(f func(tx string) result.SendTx) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendTxF = f
}

// SetTxStatus sets /tx/status handler, n is the poll number starting from 1.
// By default transactions are reported as included into the head block.
func (c *FakeChain) SetTxStatus(f func(txid string, n int) *result.TxStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txStatusF = f
}

// SetLastBlock sets /block/last handler, n is the call number starting
// from 1.
func (c *FakeChain) SetLastBlock(f func(n int) *result.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastBlockF = f
}

// JSONBlock returns the block the way /block/{hash} reports it.
func (c *FakeChain) JSONBlock(hash string) *result.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jsonBlock(hash)
}

func (c *FakeChain) jsonBlock(hash string) *result.Block {
	b, ok := c.blocks[hash]
	if !ok {
		return nil
	}
	return &result.Block{
		Hash:  hash,
		Child: c.child[hash],
		Header: result.BlockHeader{
			Chain:  b.Header.Chain,
			Height: b.Header.Height,
			Parent: hex.EncodeToString(b.Header.Parent),
		},
	}
}

func (c *FakeChain) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	switch {
	case len(path) == 2 && path[0] == "block":
		c.calls["block"]++
		var b *result.Block
		if path[1] == "last" {
			c.calls["block_last"]++
			if c.lastBlockF != nil {
				b = c.lastBlockF(c.calls["block_last"])
			} else {
				b = c.jsonBlock(c.head)
			}
		} else {
			b = c.jsonBlock(strings.ToLower(path[1]))
		}
		if b == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "msg": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, result.BlockResponse{OK: true, Block: b})
	case len(path) == 2 && path[0] == "binblock":
		c.calls["binblock"]++
		b, ok := c.blocks[strings.ToLower(path[1])]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		raw, err := b.Bytes()
		require.NoError(c.t, err)
		w.Header().Set("Content-Type", "application/msgpack")
		_, _ = w.Write(raw)
	case len(path) == 1 && path[0] == "settings":
		c.calls["settings"]++
		writeJSON(w, http.StatusOK, result.SettingsResponse{OK: true, Settings: result.Settings{
			Chain:   map[string]result.ChainSettings{strconv.FormatUint(c.Chain, 10): {MinSig: c.MinSig}},
			Keys:    c.keys,
			Current: result.CurrentSettings{Fee: c.fee},
		}})
	case len(path) == 2 && path[0] == "tx" && path[1] == "new" && r.Method == http.MethodPost:
		c.calls["tx_new"]++
		var req struct {
			Tx string `json:"tx"`
		}
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, result.SendTx{Msg: "bad request"})
			return
		}
		c.sent = append(c.sent, req.Tx)
		if c.sendTxF != nil {
			writeJSON(w, http.StatusOK, c.sendTxF(req.Tx))
			return
		}
		env, err := transaction.DecodeEnvelope(req.Tx)
		if err != nil {
			writeJSON(w, http.StatusOK, result.SendTx{Msg: "bad tx"})
			return
		}
		writeJSON(w, http.StatusOK, result.SendTx{OK: true, TxID: TxID(env)})
	case len(path) == 3 && path[0] == "tx" && path[1] == "status":
		c.calls["tx_status"]++
		if c.txStatusF != nil {
			writeJSON(w, http.StatusOK, c.txStatusF(path[2], c.calls["tx_status"]))
			return
		}
		writeJSON(w, http.StatusOK, result.TxStatus{Res: &result.TxResult{OK: true, Res: json.RawMessage(`"ok"`), Block: c.head}})
	case len(path) == 3 && path[0] == "address" && path[2] == "code":
		c.calls["code"]++
		code, ok := c.code[path[1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(code)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// TxID returns a transaction id the fake chain assigns to the envelope.
func TxID(env *transaction.Envelope) string {
	h := hash.Sha256(env.Body)
	return strings.ToUpper(hex.EncodeToString(h[:8]))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
