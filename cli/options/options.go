/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thepower/tpgo/cli/input"
	"github.com/thepower/tpgo/pkg/composer"
	"github.com/thepower/tpgo/pkg/config"
	"github.com/thepower/tpgo/pkg/core/storage"
	"github.com/thepower/tpgo/pkg/io"
	"github.com/thepower/tpgo/pkg/journal"
	"github.com/thepower/tpgo/pkg/rpcclient"
	"github.com/thepower/tpgo/pkg/rpcclient/waiter"
	"github.com/thepower/tpgo/pkg/services/metrics"
	"github.com/thepower/tpgo/pkg/txerr"
	"github.com/thepower/tpgo/pkg/wallet"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeout is the default timeout used for node requests.
const DefaultTimeout = 10 * time.Second

// DefaultAwaitableTimeout is the default timeout of commands waiting for
// transaction confirmation: full status polling budget plus next block
// waiting.
const DefaultAwaitableTimeout = 90 * time.Second

// RPCEndpointFlag is a long flag name for the node endpoint. It can be used
// to check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// Wallet is a set of flags used for wallet operations.
var Wallet = []cli.Flag{
	cli.StringFlag{
		Name:  "wallet, w",
		Usage: "wallet to use to get the key for transaction signing",
	},
	cli.StringFlag{
		Name:  "account, a",
		Usage: "account (address, public key or label) to use, the default one if not specified",
	},
}

// RPC is a set of flags used for node connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "node API address (overrides configuration)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Usage: "Timeout for the operation",
	},
}

// ConfigFile is a flag for commands that use client configuration.
var ConfigFile = cli.StringFlag{
	Name:  "config-file, c",
	Usage: "path to the configuration file (default configuration is used if not specified)",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// Await is a flag for commands sending transactions.
var Await = cli.BoolFlag{
	Name:  "await",
	Usage: "wait for the transaction to be included into a validated block",
}

// Common is a set of flags every node-related command has.
var Common = append([]cli.Flag{ConfigFile, Debug}, RPC...)

var (
	errNoEndpoint = errors.New("no node endpoint specified, use option '--" + RPCEndpointFlag + "' or '-r' or set Endpoint in the configuration")
	errNoWallet   = errors.New("no wallet parameter found, specify it with the '--wallet' or '-w' flag")
)

// GetConfigFromContext loads the configuration file given with --config-file
// or returns the default configuration.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Default(), nil
}

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	if ctx.Bool("await") {
		return GetAwaitContext(ctx)
	}
	return getTimeoutContext(ctx, DefaultTimeout)
}

// GetAwaitContext returns a context.Context for commands that always wait
// for transaction confirmation, user-set timeout is respected.
func GetAwaitContext(ctx *cli.Context) (context.Context, func()) {
	return getTimeoutContext(ctx, DefaultAwaitableTimeout)
}

func getTimeoutContext(ctx *cli.Context, def time.Duration) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = def
	}
	return context.WithTimeout(context.Background(), dur)
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil
	cc.OutputPaths = []string{"stderr"}

	if logPath := cfg.LogPath; logPath != "" {
		if err := io.MakeDirForFile(logPath, "logger"); err != nil {
			return nil, nil, err
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// Env is the set of objects most commands need: configuration, logger and
// (when an endpoint is known) the node client.
type Env struct {
	Config config.Config
	Log    *zap.Logger
	Client *rpcclient.Client

	metrics *metrics.Service
}

// NewEnv loads configuration, creates the logger and the node client.
func NewEnv(ctx *cli.Context, needClient bool) (*Env, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	env := &Env{Config: cfg, Log: log}
	if !needClient {
		return env, nil
	}
	endpoint := ctx.String(RPCEndpointFlag)
	if endpoint == "" {
		endpoint = cfg.ProtocolConfiguration.Endpoint
	}
	if endpoint == "" {
		return nil, cli.NewExitError(errNoEndpoint, 1)
	}
	policy, err := cfg.ProtocolConfiguration.Policy()
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	env.Client, err = rpcclient.New(endpoint, rpcclient.Options{
		RequestTimeout:  cfg.ApplicationConfiguration.RequestTimeout,
		Chain:           uint64(cfg.ProtocolConfiguration.Chain),
		SignaturePolicy: policy,
		Logger:          log,
	})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	env.metrics = metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log)
	if err := env.metrics.Start(); err != nil {
		env.Client.Close()
		return nil, cli.NewExitError(err, 1)
	}
	return env, nil
}

// Close releases Env resources.
func (e *Env) Close() {
	if e.Client != nil {
		e.Client.Close()
	}
	if e.metrics != nil {
		e.metrics.ShutDown()
	}
	_ = e.Log.Sync()
}

// Composer returns a transaction composer configured from Env.
func (e *Env) Composer() *composer.Composer {
	p := e.Config.ProtocolConfiguration
	return composer.New(composer.Options{
		PoWDifficulty: p.PoWDifficulties(),
		GasToken:      p.GasToken,
		GasValue:      p.GasValue,
		Logger:        e.Log,
	})
}

// OpenJournal opens the transaction journal store.
func (e *Env) OpenJournal() (*journal.Journal, storage.Store, error) {
	st, err := storage.NewStore(e.Config.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open journal: %w", err)
	}
	return journal.New(st), st, nil
}

// Waiter returns a confirmation waiter recording states to the journal (if
// given).
func (e *Env) Waiter(j *journal.Journal) *waiter.Waiter {
	opts := waiter.Options{
		PollConfig: e.Config.ApplicationConfiguration.Poll,
		Logger:     e.Log,
	}
	if j != nil {
		opts.OnStateChange = j.Hook(e.Log)
	}
	return waiter.New(e.Client, opts)
}

// GetAccFromContext opens the wallet and returns the account selected with
// --account (or the default one) unlocked.
func GetAccFromContext(ctx *cli.Context) (*wallet.Account, *wallet.Wallet, error) {
	wPath := ctx.String("wallet")
	if len(wPath) == 0 {
		return nil, nil, errNoWallet
	}
	wall, err := wallet.NewWalletFromFile(wPath)
	if err != nil {
		return nil, nil, err
	}
	acc, err := GetUnlockedAccount(wall, ctx.String("account"))
	if err != nil {
		return nil, nil, err
	}
	return acc, wall, nil
}

// GetUnlockedAccount returns the account from the wallet and asks for its
// password to decrypt it.
func GetUnlockedAccount(wall *wallet.Wallet, name string) (*wallet.Account, error) {
	acc := wall.GetAccount(name)
	if acc == nil {
		if name == "" {
			return nil, errors.New("wallet has no default account")
		}
		return nil, fmt.Errorf("%w: %s", wallet.ErrAccountNotFound, name)
	}
	if acc.CanSign() {
		return acc, nil
	}
	pass, err := input.ReadPassword(fmt.Sprintf("Enter password for %s > ", accountName(acc)))
	if err != nil {
		return nil, fmt.Errorf("error reading password: %w", err)
	}
	if err := acc.Decrypt(pass, wall.Scrypt); err != nil {
		return nil, err
	}
	return acc, nil
}

func accountName(acc *wallet.Account) string {
	switch {
	case acc.Label != "":
		return acc.Label
	case acc.Address != "":
		return acc.Address
	default:
		return acc.PublicKey
	}
}

// ConfirmationError adds a hint to timeouts of transactions accepted by
// the node.
func ConfirmationError(err error) error {
	var werr *waiter.Error
	if errors.As(err, &werr) && werr.Submitted() && errors.Is(err, txerr.ErrTimeout) {
		return fmt.Errorf("%w (the transaction was accepted by the node, use 'tx status %s' instead of resending it)", err, werr.TxID)
	}
	return err
}

// SendTx sends the transaction and optionally waits for its confirmation,
// the transaction is recorded into the journal in any case.
func (e *Env) SendTx(gctx context.Context, ctx *cli.Context, tx string) error {
	j, st, err := e.OpenJournal()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer st.Close()

	if !ctx.Bool("await") {
		txid, err := e.Client.SendTx(gctx, tx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if err := j.Record(txid, waiter.Submitted); err != nil {
			e.Log.Warn("failed to record transaction", zap.String("txid", txid), zap.Error(err))
		}
		fmt.Fprintln(ctx.App.Writer, txid)
		return nil
	}
	txid, err := e.Waiter(j).Confirm(gctx, tx)
	if err != nil {
		return cli.NewExitError(ConfirmationError(err), 1)
	}
	fmt.Fprintln(ctx.App.Writer, txid)
	return nil
}
