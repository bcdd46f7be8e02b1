package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/thepower/tpgo/cli/input"
	"github.com/thepower/tpgo/cli/options"
	"github.com/thepower/tpgo/pkg/crypto/keys"
	"github.com/thepower/tpgo/pkg/wallet"
	"github.com/urfave/cli"
)

var errNoPath = errors.New("wallet path is mandatory and should be passed using (--wallet, -w) flags")

var (
	walletPathFlag = cli.StringFlag{
		Name:  "wallet, w",
		Usage: "Target location of the wallet file",
	}
	wifFlag = cli.StringFlag{
		Name:  "wif",
		Usage: "WIF of the key to import instead of generating a new one",
	}
	labelFlag = cli.StringFlag{
		Name:  "label, l",
		Usage: "Label of the account",
	}
)

// NewCommands returns 'wallet' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "wallet",
		Usage: "create and manage a wallet",
		Subcommands: []cli.Command{
			{
				Name:      "init",
				Usage:     "create a new wallet with a single account",
				UsageText: "tpgo wallet init -w <path> [--label <label>] [--wif <wif>]",
				Description: `Creates a new wallet file with one account. The key is generated
   randomly unless --wif is given. Passphrase used to encrypt the key is
   requested interactively.
`,
				Action: initWallet,
				Flags:  []cli.Flag{walletPathFlag, labelFlag, wifFlag},
			},
			{
				Name:      "add",
				Usage:     "add an account to an existing wallet",
				UsageText: "tpgo wallet add -w <path> [--label <label>] [--wif <wif>]",
				Action:    addAccount,
				Flags:     []cli.Flag{walletPathFlag, labelFlag, wifFlag},
			},
			{
				Name:      "dump",
				Usage:     "check and dump an existing wallet",
				UsageText: "tpgo wallet dump -w <path> [--decrypt]",
				Action:    dumpWallet,
				Flags: []cli.Flag{
					walletPathFlag,
					cli.BoolFlag{
						Name:  "decrypt, d",
						Usage: "Decrypt encrypted keys and print WIFs",
					},
				},
			},
		},
	}}
}

func initWallet(ctx *cli.Context) error {
	path := ctx.String("wallet")
	if len(path) == 0 {
		return cli.NewExitError(errNoPath, 1)
	}
	wall, err := wallet.NewWallet(path)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := createAccount(ctx, wall); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmtPrintWallet(ctx.App.Writer, wall)
	fmt.Fprintf(ctx.App.Writer, "wallet successfully created, file location is %s\n", wall.Path())
	return nil
}

func addAccount(ctx *cli.Context) error {
	path := ctx.String("wallet")
	if len(path) == 0 {
		return cli.NewExitError(errNoPath, 1)
	}
	wall, err := wallet.NewWalletFromFile(path)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := createAccount(ctx, wall); err != nil {
		return cli.NewExitError(err, 1)
	}
	acc := wall.Accounts[len(wall.Accounts)-1]
	fmt.Fprintln(ctx.App.Writer, acc.PublicKey)
	return nil
}

func createAccount(ctx *cli.Context, wall *wallet.Wallet) error {
	var (
		priv *keys.PrivateKey
		err  error
	)
	if wif := ctx.String("wif"); wif != "" {
		priv, err = keys.NewPrivateKeyFromWIF(wif)
	} else {
		priv, err = keys.NewPrivateKey()
	}
	if err != nil {
		return err
	}
	phrase, err := input.ConfirmPassword("Enter passphrase > ")
	if err != nil {
		return err
	}
	if _, err := wall.ImportAccount(priv, ctx.String("label"), phrase); err != nil {
		return err
	}
	return wall.Save()
}

func dumpWallet(ctx *cli.Context) error {
	wall, err := openWallet(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer wall.Close()
	fmtPrintWallet(ctx.App.Writer, wall)
	if ctx.Bool("decrypt") {
		for _, acc := range wall.Accounts {
			if _, err := options.GetUnlockedAccount(wall, acc.PublicKey); err != nil {
				return cli.NewExitError(err, 1)
			}
			fmt.Fprintf(ctx.App.Writer, "%s %s\n", acc.PublicKey, acc.PrivateKey().WIF())
		}
	}
	return nil
}

func openWallet(ctx *cli.Context) (*wallet.Wallet, error) {
	path := ctx.String("wallet")
	if len(path) == 0 {
		return nil, errNoPath
	}
	return wallet.NewWalletFromFile(path)
}

func fmtPrintWallet(w io.Writer, wall *wallet.Wallet) {
	b, _ := json.MarshalIndent(wall, "", "  ")
	fmt.Fprintln(w, string(b))
}
