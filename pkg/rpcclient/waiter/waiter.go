/*
Package waiter implements transaction confirmation: submission, status
polling, waiting for the next block and validation of the block that
includes the transaction.
*/
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thepower/tpgo/pkg/rpcclient/result"
	"github.com/thepower/tpgo/pkg/txerr"
	"go.uber.org/zap"
)

// Default polling parameters.
const (
	DefaultPollInterval   = time.Second
	DefaultStatusAttempts = 60
	DefaultBlockAttempts  = 10
)

// RPC is an interface required from the node client.
type RPC interface {
	SendTx(ctx context.Context, tx string) (string, error)
	GetTxStatus(ctx context.Context, txid string) (*result.TxStatus, error)
	GetBlock(ctx context.Context, hash string) (*result.Block, error)
	VerifyBlock(ctx context.Context, hash string) (int, error)
}

// PollConfig is a configuration of polling steps.
type PollConfig struct {
	// Interval is a time interval between subsequent polls.
	Interval time.Duration `yaml:"Interval"`
	// StatusAttempts is the maximum number of status requests.
	StatusAttempts int `yaml:"StatusAttempts"`
	// BlockAttempts is the maximum number of latest block requests made
	// while waiting for the block following the transaction's one.
	BlockAttempts int `yaml:"BlockAttempts"`
}

// Options are Waiter options, all of them are optional.
type Options struct {
	PollConfig
	// OnStateChange is called on every state transition (including the
	// final one) from the goroutine running Confirm.
	OnStateChange func(txid string, s State)
	Logger        *zap.Logger
}

// Waiter drives transaction confirmation lifecycles. It has no state of its
// own, so a single Waiter can serve any number of concurrent lifecycles.
type Waiter struct {
	rpc  RPC
	opts Options
	log  *zap.Logger
}

// New creates a Waiter, zero PollConfig values are replaced with defaults.
func New(rpc RPC, opts Options) *Waiter {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.StatusAttempts <= 0 {
		opts.StatusAttempts = DefaultStatusAttempts
	}
	if opts.BlockAttempts <= 0 {
		opts.BlockAttempts = DefaultBlockAttempts
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Waiter{rpc: rpc, opts: opts, log: log}
}

// lifecycle is a single transaction confirmation.
type lifecycle struct {
	*Waiter
	log   *zap.Logger
	txid  string
	start time.Time
}

func (w *Waiter) newLifecycle(txid string) *lifecycle {
	return &lifecycle{
		Waiter: w,
		log:    w.log.With(zap.String("trace", uuid.NewString())),
		txid:   txid,
		start:  time.Now(),
	}
}

func (l *lifecycle) enter(s State) {
	l.log.Debug("state changed", zap.String("txid", l.txid), zap.Stringer("state", s))
	if l.opts.OnStateChange != nil {
		l.opts.OnStateChange(l.txid, s)
	}
}

func (l *lifecycle) fail(s State, err error) error {
	l.enter(s)
	observeOutcome(s, l.start)
	l.log.Info("transaction failed",
		zap.String("txid", l.txid),
		zap.Stringer("state", s),
		zap.Error(err))
	return &Error{TxID: l.txid, State: s, Err: err}
}

// Confirm submits base64-encoded transaction and waits until it's included
// into a validated block. It returns transaction id on success and *Error
// otherwise. Context cancellation is treated as a timeout of the current
// step.
func (w *Waiter) Confirm(ctx context.Context, tx string) (string, error) {
	l := w.newLifecycle("")
	l.enter(Submitted)
	txid, err := w.rpc.SendTx(ctx, tx)
	if err != nil {
		if !errors.Is(err, txerr.ErrNetworkRejection) {
			err = withCause(txerr.ErrNetworkRejection, err)
		}
		return "", l.fail(RejectedByNode, err)
	}
	l.txid = txid
	l.log.Info("transaction submitted", zap.String("txid", txid))
	return txid, l.await(ctx)
}

// Await waits for confirmation of the already submitted transaction. It
// returns nil if the transaction is included into a validated block and
// *Error otherwise.
func (w *Waiter) Await(ctx context.Context, txid string) error {
	return w.newLifecycle(txid).await(ctx)
}

func (l *lifecycle) await(ctx context.Context) error {
	l.enter(Polling)
	blockHash, err := l.pollStatus(ctx)
	if err != nil {
		if errors.Is(err, txerr.ErrNetworkRejection) {
			return l.fail(RejectedByNode, err)
		}
		return l.fail(StatusTimeout, err)
	}

	l.enter(BlockPending)
	if err := l.waitNextBlock(ctx, blockHash); err != nil {
		if errors.Is(err, txerr.ErrBlockRejected) {
			return l.fail(BlockRejected, err)
		}
		return l.fail(NextBlockTimeout, err)
	}

	n, err := l.verifyBlock(ctx, blockHash)
	if err != nil {
		return l.fail(BlockInvalid, err)
	}
	l.enter(BlockValidated)
	observeOutcome(BlockValidated, l.start)
	l.log.Info("transaction confirmed",
		zap.String("txid", l.txid),
		zap.String("block", blockHash),
		zap.Int("signatures", n),
		zap.Duration("took", time.Since(l.start)))
	return nil
}

// sleep waits for the poll interval, it returns ctx error if the context is
// done earlier.
func (l *lifecycle) sleep(ctx context.Context) error {
	t := time.NewTimer(l.opts.Interval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pollStatus polls transaction status until it's final and returns the hash
// of the block including the transaction.
func (l *lifecycle) pollStatus(ctx context.Context) (string, error) {
	var lastErr error
	for i := 1; ; i++ {
		st, err := l.rpc.GetTxStatus(ctx, l.txid)
		switch {
		case ctx.Err() != nil:
			return "", fmt.Errorf("%w: %w", txerr.ErrStatusTimeout, ctx.Err())
		case err != nil:
			l.log.Debug("status request failed", zap.String("txid", l.txid), zap.Int("attempt", i), zap.Error(err))
			lastErr = err
		case st.Res == nil:
		case st.Res.Error:
			return "", txerr.Reject(st.Res.Message())
		case st.Res.Block == "":
			return "", fmt.Errorf("%w: no block in final status", txerr.ErrEncoding)
		default:
			return st.Res.Block, nil
		}
		if i >= l.opts.StatusAttempts {
			if lastErr != nil {
				return "", withCause(fmt.Errorf("%w after %d attempts", txerr.ErrStatusTimeout, i), lastErr)
			}
			return "", fmt.Errorf("%w after %d attempts", txerr.ErrStatusTimeout, i)
		}
		if err := l.sleep(ctx); err != nil {
			return "", fmt.Errorf("%w: %w", txerr.ErrStatusTimeout, err)
		}
	}
}

// waitNextBlock waits until the block is followed by another one.
func (l *lifecycle) waitNextBlock(ctx context.Context, hash string) error {
	var lastErr error
	for i := 1; ; i++ {
		done, err := l.checkNextBlock(ctx, hash)
		switch {
		case ctx.Err() != nil:
			return fmt.Errorf("%w: %w", txerr.ErrNextBlockTimeout, ctx.Err())
		case errors.Is(err, txerr.ErrBlockRejected):
			return err
		case err != nil:
			l.log.Debug("block request failed", zap.String("block", hash), zap.Int("attempt", i), zap.Error(err))
			lastErr = err
		case done:
			return nil
		}
		if i >= l.opts.BlockAttempts {
			if lastErr != nil {
				return withCause(fmt.Errorf("%w after %d attempts", txerr.ErrNextBlockTimeout, i), lastErr)
			}
			return fmt.Errorf("%w after %d attempts", txerr.ErrNextBlockTimeout, i)
		}
		if err := l.sleep(ctx); err != nil {
			return fmt.Errorf("%w: %w", txerr.ErrNextBlockTimeout, err)
		}
	}
}

// verifyBlock checks validator signatures of the block. Transport failures
// are retried within the block attempts budget and end with ErrVerifyTimeout,
// errors of the block itself end with ErrBlockInvalid. Configuration errors
// are returned as is.
func (l *lifecycle) verifyBlock(ctx context.Context, hash string) (int, error) {
	var lastErr error
	for i := 1; ; i++ {
		n, err := l.rpc.VerifyBlock(ctx, hash)
		switch {
		case err == nil:
			return n, nil
		case ctx.Err() != nil:
			return 0, fmt.Errorf("%w: %w", txerr.ErrVerifyTimeout, ctx.Err())
		case errors.Is(err, txerr.ErrConsensus), errors.Is(err, txerr.ErrConfiguration):
			return 0, err
		case errors.Is(err, txerr.ErrEncoding), errors.Is(err, txerr.ErrCrypto):
			return 0, withCause(txerr.ErrBlockInvalid, err)
		case txerr.Category(err) != nil:
			return 0, err
		}
		l.log.Debug("block verification failed", zap.String("block", hash), zap.Int("attempt", i), zap.Error(err))
		lastErr = err
		if i >= l.opts.BlockAttempts {
			return 0, withCause(fmt.Errorf("%w after %d attempts", txerr.ErrVerifyTimeout, i), lastErr)
		}
		if err := l.sleep(ctx); err != nil {
			return 0, fmt.Errorf("%w: %w", txerr.ErrVerifyTimeout, err)
		}
	}
}

// withCause returns target annotated with err. err stays reachable via
// errors.Is and errors.As only when it has no category of its own, so the
// result always matches a single category.
func withCause(target, err error) error {
	if txerr.Category(err) == nil {
		return fmt.Errorf("%w: %w", target, err)
	}
	return fmt.Errorf("%w: %v", target, err)
}

// checkNextBlock checks whether the block is no longer the latest one and
// it's a part of the chain.
func (l *lifecycle) checkNextBlock(ctx context.Context, hash string) (bool, error) {
	last, err := l.rpc.GetBlock(ctx, "last")
	if err != nil {
		return false, err
	}
	if result.SameHash(last.Hash, hash) {
		return false, nil
	}
	if result.SameHash(last.Header.Parent, hash) {
		return true, nil
	}
	own, err := l.rpc.GetBlock(ctx, hash)
	if err != nil {
		return false, err
	}
	if own.Child == "" {
		return false, fmt.Errorf("%w: %s has no child, head is %s", txerr.ErrBlockRejected, hash, last.Hash)
	}
	return true, nil
}
