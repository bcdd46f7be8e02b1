/*
Package journal keeps track of submitted transactions and their confirmation
state, so that a transaction which was accepted by the node but not confirmed
yet can be re-queried instead of being sent again.
*/
package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thepower/tpgo/pkg/core/storage"
	"github.com/thepower/tpgo/pkg/rpcclient/waiter"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown transactions.
var ErrNotFound = errors.New("transaction is not in the journal")

// Entry is a journal record of a single transaction.
type Entry struct {
	TxID    string       `msgpack:"id"`
	State   waiter.State `msgpack:"state"`
	Updated int64        `msgpack:"updated"`
}

// UpdatedAt returns the time of the last state change.
func (e Entry) UpdatedAt() time.Time {
	return time.UnixMilli(e.Updated)
}

// Journal stores transaction states in the Store.
type Journal struct {
	lock  sync.Mutex
	store storage.Store
	now   func() time.Time
}

// New creates a journal on top of the store.
func New(s storage.Store) *Journal {
	return &Journal{store: s, now: time.Now}
}

func key(txid string) []byte {
	return storage.JournalTx.Key([]byte(txid))
}

// Record saves the transaction state.
func (j *Journal) Record(txid string, s waiter.State) error {
	if txid == "" {
		return errors.New("empty transaction id")
	}
	data, err := msgpack.Marshal(&Entry{TxID: txid, State: s, Updated: j.now().UnixMilli()})
	if err != nil {
		return err
	}
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.store.Put(key(txid), data)
}

// Get returns the transaction entry.
func (j *Journal) Get(txid string) (*Entry, error) {
	data, err := j.store.Get(key(txid))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, txid)
		}
		return nil, err
	}
	e := new(Entry)
	if err := msgpack.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("bad journal entry %s: %w", txid, err)
	}
	return e, nil
}

// Delete removes the transaction from the journal.
func (j *Journal) Delete(txid string) error {
	j.lock.Lock()
	defer j.lock.Unlock()
	return j.store.Delete(key(txid))
}

// List returns all entries sorted by transaction id. If pendingOnly is set,
// only transactions in non-final states are returned.
func (j *Journal) List(pendingOnly bool) ([]Entry, error) {
	var (
		res    []Entry
		decErr error
	)
	err := j.store.Seek(storage.SeekRange{Prefix: storage.JournalTx.Bytes()}, func(k, v []byte) bool {
		var e Entry
		if decErr = msgpack.Unmarshal(v, &e); decErr != nil {
			decErr = fmt.Errorf("bad journal entry %s: %w", k[1:], decErr)
			return false
		}
		if !pendingOnly || !e.State.IsFinal() {
			res = append(res, e)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return res, decErr
}

// Hook returns a function suitable for waiter.Options.OnStateChange that
// records every state of submitted transactions. Recording errors are only
// logged.
func (j *Journal) Hook(log *zap.Logger) func(string, waiter.State) {
	if log == nil {
		log = zap.NewNop()
	}
	return func(txid string, s waiter.State) {
		if txid == "" {
			return
		}
		if err := j.Record(txid, s); err != nil {
			log.Warn("failed to record transaction state",
				zap.String("txid", txid),
				zap.Stringer("state", s),
				zap.Error(err))
		}
	}
}
