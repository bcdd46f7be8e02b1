package contract

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/thepower/tpgo/cli/flags"
	"github.com/thepower/tpgo/cli/options"
	"github.com/thepower/tpgo/pkg/composer"
	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/smartcontract/codecache"
	"github.com/urfave/cli"
)

// NewCommands returns 'contract' command.
func NewCommands() []cli.Command {
	codeFlags := append([]cli.Flag{cli.StringFlag{
		Name:  "out, o",
		Usage: "file to write the code to (hex is printed if not given)",
	}}, options.Common...)
	callFlags := append([]cli.Flag{
		cli.Uint64Flag{
			Name:  "seq",
			Usage: "sequence number (current time in milliseconds by default)",
		},
		cli.StringFlag{
			Name:  "fee-currency",
			Usage: "currency to pay fee in (the first one in node settings by default)",
		},
		cli.StringFlag{
			Name:  "gas-token",
			Usage: "token to pay gas in (configured one by default)",
		},
		cli.Uint64Flag{
			Name:  "gas-value",
			Usage: "amount of gas token (configured one by default)",
		},
		cli.BoolFlag{
			Name:  "dump",
			Usage: "print signed transaction instead of sending it",
		},
		options.Await,
	}, options.Common...)
	callFlags = append(callFlags, options.Wallet...)
	return []cli.Command{{
		Name:  "contract",
		Usage: "work with smart contracts",
		Subcommands: []cli.Command{
			{
				Name:      "code",
				Usage:     "fetch contract code",
				UsageText: "tpgo contract code [-o <file>] <address>...",
				Action:    code,
				Flags:     codeFlags,
			},
			{
				Name:      "call",
				Usage:     "complete, sign and send a contract call transaction",
				UsageText: "tpgo contract call -w <wallet> [-a <account>] [--seq <seq>] [--gas-token <token>] [--gas-value <value>] [--await] [--dump] <body>",
				Description: `Completes the base64-encoded call transaction body produced by
   contract tooling: adds timestamp, sequence number, sender address, gas
   and fee (patches only get the fee), signs it with the account key and
   sends it.
`,
				Action: call,
				Flags:  callFlags,
			},
		},
	}}
}

func code(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.NewExitError(errors.New("no contract address given"), 1)
	}
	out := ctx.String("out")
	if out != "" && len(ctx.Args()) > 1 {
		return cli.NewExitError(errors.New("--out can only be used with a single address"), 1)
	}
	env, exitErr := options.NewEnv(ctx, true)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	cache := codecache.New(env.Client, env.Config.ApplicationConfiguration.CodeCacheSize, env.Log)
	for _, arg := range ctx.Args() {
		addr, err := flags.ParseAddress(arg)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		c, err := cache.GetOrLoad(gctx, addr)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if out != "" {
			if err := os.WriteFile(out, c, 0o644); err != nil {
				return cli.NewExitError(err, 1)
			}
			continue
		}
		fmt.Fprintf(ctx.App.Writer, "%s: %s\n", arg, hex.EncodeToString(c))
	}
	return nil
}

func call(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.NewExitError(errors.New("no call body given"), 1)
	}
	raw, err := base64.StdEncoding.DecodeString(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("bad call body: %w", err), 1)
	}
	body, err := transaction.DecodeBody(raw)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	env, exitErr := options.NewEnv(ctx, true)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	acc, wall, err := options.GetAccFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer wall.Close()
	if acc.Address == "" {
		return cli.NewExitError(errors.New("account has no address, register it first"), 1)
	}
	from, err := flags.ParseAddress(acc.Address)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	seq := ctx.Uint64("seq")
	if !ctx.IsSet("seq") {
		seq = uint64(time.Now().UnixMilli())
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	s, err := env.Client.GetSettings(gctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fs, _ := s.FeeSettings(ctx.String("fee-currency"))
	comp := env.Composer()
	b, err := comp.PrepareFromContractCall(fs, from, seq, body,
		composer.WithGas(ctx.String("gas-token"), ctx.Uint64("gas-value")))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tx, err := comp.SignAndPack(b, acc.PrivateKey())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if ctx.Bool("dump") {
		fmt.Fprintln(ctx.App.Writer, tx)
		return nil
	}
	return env.SendTx(gctx, ctx, tx)
}
