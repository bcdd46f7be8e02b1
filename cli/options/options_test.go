package options

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thepower/tpgo/pkg/config"
	"github.com/thepower/tpgo/pkg/rpcclient/waiter"
	"github.com/thepower/tpgo/pkg/txerr"
	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"
)

func TestGetTimeoutContext(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		start := time.Now()
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		actualCtx, cancel := GetTimeoutContext(ctx)
		defer cancel()
		end := time.Now()
		dl, _ := actualCtx.Deadline()
		require.True(t, start.Before(dl) && dl.Before(end.Add(DefaultTimeout)))
	})

	t.Run("await", func(t *testing.T) {
		start := time.Now()
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		set.Bool("await", true, "")
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		actualCtx, cancel := GetTimeoutContext(ctx)
		defer cancel()
		dl, _ := actualCtx.Deadline()
		require.True(t, dl.After(start.Add(DefaultTimeout)))
	})

	t.Run("set", func(t *testing.T) {
		start := time.Now()
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		set.Duration("timeout", time.Duration(20), "")
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		actualCtx, cancel := GetTimeoutContext(ctx)
		defer cancel()
		end := time.Now()
		dl, _ := actualCtx.Deadline()
		require.True(t, start.Before(dl) && dl.Before(end.Add(time.Nanosecond*20)))
	})
}

func TestHandleLoggingParams(t *testing.T) {
	d := t.TempDir()
	testLog := filepath.Join(d, "file.log")

	t.Run("logdir is a file", func(t *testing.T) {
		logfile := filepath.Join(d, "logdir")
		require.NoError(t, os.WriteFile(logfile, []byte{1, 2, 3}, os.ModePerm))
		cfg := config.ApplicationConfiguration{
			LogPath: filepath.Join(logfile, "file.log"),
		}
		_, _, err := HandleLoggingParams(false, cfg)
		require.Error(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath:  testLog,
			LogLevel: "qwerty",
		}
		_, _, err := HandleLoggingParams(false, cfg)
		require.Error(t, err)
	})

	t.Run("default", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath: testLog,
		}
		logger, lvl, err := HandleLoggingParams(false, cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = logger.Sync() })
		require.Equal(t, zapcore.InfoLevel, lvl.Level())
		require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("warn", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath:  testLog,
			LogLevel: "warn",
		}
		logger, _, err := HandleLoggingParams(false, cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = logger.Sync() })
		require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
		require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("debug", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath: testLog,
		}
		logger, _, err := HandleLoggingParams(true, cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = logger.Sync() })
		require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})
}

func TestGetConfigFromContext(t *testing.T) {
	set := flag.NewFlagSet("flagSet", flag.ExitOnError)
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	cfg, err := GetConfigFromContext(ctx)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)

	set = flag.NewFlagSet("flagSet", flag.ExitOnError)
	set.String("config-file", filepath.Join("..", "..", "config", "tpgo.yml"), "")
	ctx = cli.NewContext(cli.NewApp(), set, nil)
	cfg, err = GetConfigFromContext(ctx)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:49841/api", cfg.ProtocolConfiguration.Endpoint)
}

func TestConfirmationError(t *testing.T) {
	verifyErr := &waiter.Error{TxID: "TX1", State: waiter.BlockInvalid,
		Err: fmt.Errorf("%w after 10 attempts", txerr.ErrVerifyTimeout)}
	err := ConfirmationError(verifyErr)
	require.ErrorIs(t, err, txerr.ErrVerifyTimeout)
	require.Contains(t, err.Error(), "tx status TX1")

	statusErr := &waiter.Error{TxID: "TX1", State: waiter.StatusTimeout, Err: txerr.ErrStatusTimeout}
	require.Contains(t, ConfirmationError(statusErr).Error(), "accepted by the node")

	invalid := &waiter.Error{TxID: "TX1", State: waiter.BlockInvalid, Err: txerr.ErrBlockInvalid}
	require.Equal(t, error(invalid), ConfirmationError(invalid))

	notSent := &waiter.Error{State: waiter.RejectedByNode, Err: txerr.ErrNetworkRejection}
	require.Equal(t, error(notSent), ConfirmationError(notSent))
}
