package block

import (
	"errors"
	"fmt"

	"github.com/thepower/tpgo/cli/options"
	"github.com/urfave/cli"
)

// NewCommands returns 'block' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "block",
		Usage: "inspect blocks",
		Subcommands: []cli.Command{
			{
				Name:      "verify",
				Usage:     "check block has enough valid validator signatures",
				UsageText: "tpgo block verify <hash>",
				Action:    verify,
				Flags:     options.Common,
			},
			{
				Name:      "show",
				Usage:     "print block header and child",
				UsageText: "tpgo block show <hash|last>",
				Action:    show,
				Flags:     options.Common,
			},
		},
	}}
}

func blockArg(ctx *cli.Context) (string, error) {
	if !ctx.Args().Present() {
		return "", errors.New("no block hash given")
	}
	return ctx.Args().First(), nil
}

func verify(ctx *cli.Context) error {
	hash, err := blockArg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	env, exitErr := options.NewEnv(ctx, true)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	n, err := env.Client.VerifyBlock(gctx, hash)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "block %s is valid, %d signatures\n", hash, n)
	return nil
}

func show(ctx *cli.Context) error {
	hash, err := blockArg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	env, exitErr := options.NewEnv(ctx, true)
	if exitErr != nil {
		return exitErr
	}
	defer env.Close()
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	b, err := env.Client.GetBlock(gctx, hash)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "hash: %s\nchain: %d\nheight: %d\nparent: %s\nchild: %s\n",
		b.Hash, b.Header.Chain, b.Header.Height, b.Header.Parent, b.Child)
	return nil
}
