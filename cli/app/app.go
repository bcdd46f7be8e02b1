package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/thepower/tpgo/cli/block"
	"github.com/thepower/tpgo/cli/contract"
	"github.com/thepower/tpgo/cli/tx"
	"github.com/thepower/tpgo/cli/wallet"
	"github.com/thepower/tpgo/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "tpgo\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a tpgo instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "tpgo"
	ctl.Version = config.Version
	ctl.Usage = "Go client for ThePower blockchain"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	ctl.Commands = append(ctl.Commands, tx.NewCommands()...)
	ctl.Commands = append(ctl.Commands, block.NewCommands()...)
	ctl.Commands = append(ctl.Commands, contract.NewCommands()...)
	return ctl
}
