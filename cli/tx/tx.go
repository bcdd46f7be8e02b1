package tx

import (
	"errors"
	"fmt"
	"time"

	"github.com/thepower/tpgo/cli/flags"
	"github.com/thepower/tpgo/cli/options"
	"github.com/thepower/tpgo/pkg/composer"
	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/wallet"
	"github.com/urfave/cli"
)

var (
	errNoTx         = errors.New("no transaction given")
	errUnregistered = errors.New("account has no address, register it first")
)

var (
	feeCurFlag = cli.StringFlag{
		Name:  "fee-currency",
		Usage: "currency to pay fee in (the first one in node settings by default)",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "print signed transaction instead of sending it",
	}
	transferBaseFlags = []cli.Flag{
		flags.AddressFlag{
			Name:  "to, t",
			Usage: "destination address (hex)",
		},
		cli.StringFlag{
			Name:  "token",
			Usage: "token to transfer",
		},
		cli.Uint64Flag{
			Name:  "amount",
			Usage: "amount of token to transfer",
		},
		cli.StringFlag{
			Name:  "message, m",
			Usage: "message attached to the transfer",
		},
		cli.Uint64Flag{
			Name:  "seq",
			Usage: "sequence number (current time in milliseconds by default)",
		},
		feeCurFlag,
	}
)

// NewCommands returns 'tx' command.
func NewCommands() []cli.Command {
	var (
		walletFlags   = join(options.Common, options.Wallet)
		transferFlags = join(transferBaseFlags, walletFlags, []cli.Flag{options.Await, dumpFlag})
		feeFlags      = join([]cli.Flag{flags.AddressFlag{
			Name:  "from, f",
			Usage: "source address (hex)",
		}}, transferBaseFlags, options.Common)
		awaitFlags = join(options.Common, []cli.Flag{options.Await})
	)
	return []cli.Command{{
		Name:  "tx",
		Usage: "compose, sign, send and track transactions",
		Subcommands: []cli.Command{
			{
				Name:      "transfer",
				Usage:     "transfer tokens and/or send a message",
				UsageText: "tpgo tx transfer -w <wallet> [-a <account>] --to <addr> [--token <token> --amount <amount>] [-m <message>] [--seq <seq>] [--await] [--dump]",
				Description: `Composes a transfer from the wallet account address, pays fee
   according to node settings, signs and sends it. If --dump is given the
   signed transaction is printed instead. If --await is given the command
   waits for the transaction to be included into a validated block.
`,
				Action: transfer,
				Flags:  transferFlags,
			},
			{
				Name:      "register",
				Usage:     "register the account key and get an address",
				UsageText: "tpgo tx register -w <wallet> [-a <account>] [--referrer <ref>]",
				Description: `Composes a registration transaction for the account key (this
   involves proof-of-work computation), sends it, waits for confirmation and
   saves the assigned address into the wallet.
`,
				Action: register,
				Flags: join(walletFlags, []cli.Flag{cli.StringFlag{
					Name:  "referrer",
					Usage: "referrer of the new account",
				}}),
			},
			{
				Name:      "sign",
				Usage:     "add a signature to a transaction",
				UsageText: "tpgo tx sign -w <wallet> [-a <account>] <tx>",
				Action:    sign,
				Flags:     walletFlags,
			},
			{
				Name:      "decode",
				Usage:     "decode a transaction and check its signatures",
				UsageText: "tpgo tx decode <tx>",
				Action:    decode,
			},
			{
				Name:      "fee",
				Usage:     "calculate transfer fee",
				UsageText: "tpgo tx fee --from <addr> --to <addr> [--token <token> --amount <amount>] [-m <message>]",
				Action:    fee,
				Flags:     feeFlags,
			},
			{
				Name:      "send",
				Usage:     "send a signed transaction",
				UsageText: "tpgo tx send [--await] <tx>",
				Action:    send,
				Flags:     awaitFlags,
			},
			{
				Name:      "status",
				Usage:     "get transaction status",
				UsageText: "tpgo tx status <txid>",
				Action:    status,
				Flags:     options.Common,
			},
			{
				Name:      "pending",
				Usage:     "list transactions which are not confirmed yet",
				UsageText: "tpgo tx pending [--await]",
				Description: `Lists journal transactions in non-final states. If --await is
   given every one of them is re-queried and waited for.
`,
				Action: pending,
				Flags:  awaitFlags,
			},
		},
	}}
}

func join(sets ...[]cli.Flag) []cli.Flag {
	var res []cli.Flag
	for _, s := range sets {
		res = append(res, s...)
	}
	return res
}

func getTransfer(ctx *cli.Context, from []byte) (composer.Transfer, error) {
	to := ctx.Generic("to").(*flags.Address)
	if !to.IsSet {
		return composer.Transfer{}, errors.New("no destination address given")
	}
	seq := ctx.Uint64("seq")
	if !ctx.IsSet("seq") {
		seq = uint64(time.Now().UnixMilli())
	}
	return composer.Transfer{
		From:    from,
		To:      to.Bytes(),
		Token:   ctx.String("token"),
		Amount:  ctx.Uint64("amount"),
		Message: ctx.String("message"),
		Seq:     seq,
	}, nil
}

func accountAddress(acc *wallet.Account) ([]byte, error) {
	if acc.Address == "" {
		return nil, errUnregistered
	}
	return flags.ParseAddress(acc.Address)
}

func transfer(ctx *cli.Context) error {
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
	from, err := accountAddress(acc)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	t, err := getTransfer(ctx, from)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	fs, err := getFeeSettings(gctx, env, ctx.String("fee-currency"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tx, err := env.Composer().ComposeTransfer(fs, acc.PrivateKey(), t)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if ctx.Bool("dump") {
		fmt.Fprintln(ctx.App.Writer, tx)
		return nil
	}
	return env.SendTx(gctx, ctx, tx)
}

func register(ctx *cli.Context) error {
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
	if acc.Address != "" {
		return cli.NewExitError(fmt.Errorf("account is already registered with address %s", acc.Address), 1)
	}

	chain := env.Config.ProtocolConfiguration.Chain
	gctx, cancel := options.GetAwaitContext(ctx)
	defer cancel()
	tx, err := env.Composer().ComposeRegister(gctx, uint64(chain), acc.PrivateKey(), ctx.String("referrer"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	j, st, err := env.OpenJournal()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer st.Close()
	txid, err := env.Waiter(j).Confirm(gctx, tx)
	if err != nil {
		return cli.NewExitError(options.ConfirmationError(err), 1)
	}
	s, err := env.Client.GetTxStatus(gctx, txid)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if s.Res == nil || s.Res.Message() == "" {
		return cli.NewExitError(fmt.Errorf("no address in registration result of %s", txid), 1)
	}
	acc.Address = s.Res.Message()
	acc.Chain = chain
	if err := wall.Save(); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, acc.Address)
	return nil
}

func sign(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.NewExitError(errNoTx, 1)
	}
	env, err := transaction.DecodeEnvelope(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	acc, wall, err := options.GetAccFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer wall.Close()
	if err := env.Sign(acc.PrivateKey()); err != nil {
		return cli.NewExitError(err, 1)
	}
	s, err := env.Base64()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, s)
	return nil
}

func fee(ctx *cli.Context) error {
	from := ctx.Generic("from").(*flags.Address)
	if !from.IsSet {
		return cli.NewExitError(errors.New("no source address given"), 1)
	}
	env, exitErr := options.NewEnv(ctx, true)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	t, err := getTransfer(ctx, from.Bytes())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	fs, err := getFeeSettings(gctx, env, ctx.String("fee-currency"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	p, ok, err := env.Composer().CalculateFee(fs, t)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !ok {
		fmt.Fprintln(ctx.App.Writer, "no fee")
		return nil
	}
	fmt.Fprintf(ctx.App.Writer, "%d %s\n", p.Amount, p.Token)
	return nil
}
