package tx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thepower/tpgo/cli/options"
	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/rpcclient/waiter"
	"github.com/urfave/cli"
)

func getFeeSettings(ctx context.Context, env *options.Env, cur string) (transaction.FeeSettings, error) {
	s, err := env.Client.GetSettings(ctx)
	if err != nil {
		return transaction.FeeSettings{}, fmt.Errorf("can't get fee settings: %w", err)
	}
	fs, ok := s.FeeSettings(cur)
	if !ok && cur != "" {
		return transaction.FeeSettings{}, fmt.Errorf("no fee settings for %s", cur)
	}
	return fs, nil
}

func send(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.NewExitError(errNoTx, 1)
	}
	tx := ctx.Args().First()
	if _, err := transaction.DecodeEnvelope(tx); err != nil {
		return cli.NewExitError(err, 1)
	}
	env, exitErr := options.NewEnv(ctx, true)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	return env.SendTx(gctx, ctx, tx)
}

func status(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.NewExitError(errors.New("no transaction id given"), 1)
	}
	txid := ctx.Args().First()
	env, exitErr := options.NewEnv(ctx, true)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	s, err := env.Client.GetTxStatus(gctx, txid)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	switch {
	case s.Res == nil:
		fmt.Fprintln(ctx.App.Writer, "pending")
	case s.Res.Error:
		fmt.Fprintf(ctx.App.Writer, "error: %s\n", s.Res.Message())
	default:
		fmt.Fprintf(ctx.App.Writer, "ok, block %s: %s\n", s.Res.Block, s.Res.Message())
	}
	return nil
}

func pending(ctx *cli.Context) error {
	await := ctx.Bool("await")
	env, exitErr := options.NewEnv(ctx, await)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	j, st, err := env.OpenJournal()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer st.Close()
	list, err := j.List(true)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if !await {
		for _, e := range list {
			fmt.Fprintf(ctx.App.Writer, "%s\t%s\t%s\n", e.TxID, e.State, e.UpdatedAt().UTC().Format(time.RFC3339))
		}
		return nil
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	w := env.Waiter(j)
	var failed int
	for _, e := range list {
		err := w.Await(gctx, e.TxID)
		if err != nil {
			failed++
			fmt.Fprintf(ctx.App.Writer, "%s\t%v\n", e.TxID, err)
			continue
		}
		fmt.Fprintf(ctx.App.Writer, "%s\t%s\n", e.TxID, waiter.BlockValidated)
	}
	if failed != 0 {
		return cli.NewExitError(fmt.Errorf("%d of %d transactions failed", failed, len(list)), 1)
	}
	return nil
}
