// Command nostrhost is a browser native messaging host that signs nostr
// events with keys held in the OS credential store.
//
// Run with no subcommand, it serves length-prefixed JSON requests on stdin and
// writes responses to stdout until the browser closes the pipe. Arguments the
// browser appends (extension origin, manifest path, --parent-window) are
// ignored.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joncooperworks/nostrhost/crypto/keystore"
	"github.com/joncooperworks/nostrhost/dispatch"
	"github.com/joncooperworks/nostrhost/logging"
	"github.com/joncooperworks/nostrhost/signer"
)

// Environment variables providing flag defaults. Browsers start the host
// without a shell, so these are the usual way to configure it.
const (
	envService      = "NOSTRHOST_SERVICE"
	envKeychain     = "NOSTRHOST_KEYCHAIN"
	envFileDir      = "NOSTRHOST_FILE_DIR"
	envFilePassword = "NOSTRHOST_FILE_PASSWORD"
	envLogFile      = "NOSTRHOST_LOG_FILE"
	envLogLevel     = "NOSTRHOST_LOG_LEVEL"
)

// app holds the resolved configuration and the constructors the commands use.
type app struct {
	store   keystore.Config
	logging logging.Config

	openStore func(keystore.Config) (keystore.SecretStore, error)
	newLogger func(logging.Config) (*zap.Logger, error)
}

func newApp() *app {
	return &app{
		openStore: keystore.NewSecretStore,
		newLogger: logging.New,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "nostrhost",
		Short: "Native messaging host that signs nostr events with keychain-held keys",
		Long: `nostrhost answers NIP-07 style requests from a browser extension over
native messaging. Secrets are read from the OS credential store for every
request and never leave the process.

Supported request types: getPublicKey, signEvent, getRelays,
nip04.encrypt, nip04.decrypt.`,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.store.ServiceName, "service", envOr(envService, keystore.DefaultServiceName), "credential store service name secrets are stored under")
	flags.StringVar(&a.store.KeychainName, "keychain", envOr(envKeychain, ""), "macOS keychain name (default: login keychain)")
	flags.StringVar(&a.store.FileDir, "file-dir", envOr(envFileDir, ""), "use the encrypted file backend in this directory (Linux)")
	flags.StringVar(&a.store.FilePassword, "file-password", envOr(envFilePassword, ""), "password for the encrypted file backend")
	flags.StringVar(&a.logging.File, "log-file", envOr(envLogFile, ""), "write logs to this rotating file instead of stderr")
	flags.StringVar(&a.logging.Level, "log-level", envOr(envLogLevel, logging.DefaultLevel), "log level: debug, info, warn, error")

	root.AddCommand(
		newAccountsCmd(a),
		newPubkeyCmd(a),
		newVerifyCmd(),
	)
	return root
}

func (a *app) serve(cmd *cobra.Command) error {
	logger, err := a.newLogger(a.logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, err := a.signer()
	if err != nil {
		logger.Error("failed to open secret store", zap.String("error_kind", dispatch.ErrorKind(err)))
		return err
	}

	d, err := dispatch.New(s, logger)
	if err != nil {
		return err
	}

	logger.Info("native messaging host started",
		zap.String("service", a.store.ServiceName),
		zap.Int("pid", os.Getpid()),
	)
	err = d.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		logger.Info("host interrupted")
		return nil
	}
	if err != nil {
		logger.Error("host stopped", zap.String("error_kind", dispatch.ErrorKind(err)))
	}
	return err
}

func (a *app) signer() (*signer.Signer, error) {
	store, err := a.openStore(a.store)
	if err != nil {
		return nil, err
	}
	return signer.New(store, nil)
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
