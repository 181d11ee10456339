package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/st-keller/versionwatch"
	"github.com/st-keller/versionwatch/config"
	"github.com/st-keller/versionwatch/logger"
	"github.com/st-keller/versionwatch/manifest"
	"github.com/st-keller/versionwatch/transport"
	"github.com/st-keller/versionwatch/types"
	"github.com/st-keller/versionwatch/update"
)

type watchOptions struct {
	configPath string
	cfg        config.Config // flag values, applied only when set
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a manifest and prompt when a new version is deployed",
		Long: `Fetches the manifest once as a baseline, then every interval. On the first
change it asks for confirmation on stdin and, if confirmed, runs --exec.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), &cfg, opts.cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&opts.cfg.URL, "url", "", "manifest URL, absolute or relative to --base-url")
	f.StringVar(&opts.cfg.BaseURL, "base-url", "", "base URL relative manifest URLs resolve against")
	f.Int64Var(&opts.cfg.IntervalMS, "interval", 0, "polling interval in milliseconds")
	f.StringVar(&opts.cfg.Message, "message", "", "confirmation message")
	f.BoolVar(&opts.cfg.Silent, "silent", false, "suppress diagnostic output")
	f.StringVar(&opts.cfg.Exec, "exec", "", "shell command run when the reload is confirmed")
	f.StringVar(&opts.cfg.CAPath, "ca", "", "CA bundle for HTTPS manifests")
	return cmd
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config, flags config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "url":
			cfg.URL = flags.URL
		case "base-url":
			cfg.BaseURL = flags.BaseURL
		case "interval":
			cfg.IntervalMS = flags.IntervalMS
		case "message":
			cfg.Message = flags.Message
		case "silent":
			cfg.Silent = flags.Silent
		case "exec":
			cfg.Exec = flags.Exec
		case "ca":
			cfg.CAPath = flags.CAPath
		}
	})
}

func watch(ctx context.Context, cfg config.Config, in io.Reader, out, errOut io.Writer) error {
	log := logger.New(errOut, cfg.Silent)
	prompter := &linePrompter{in: bufio.NewReader(in), out: out}
	reloader := shellReloader(ctx, cfg.Exec, out, errOut)

	done := make(chan error, 1)
	var baselineErr error

	m, err := versionwatch.New(versionwatch.Config{
		Interval: update.Millis(cfg.IntervalMS),
		URL:      cfg.URL,
		BaseURL:  cfg.BaseURL,
		Message:  cfg.Message,
		Silent:   cfg.Silent,
		Logger:   &log,
		TLS: transport.Options{
			CAPath:   cfg.CAPath,
			CertPath: cfg.CertPath,
			KeyPath:  cfg.KeyPath,
		},
		OnError: func(err error) {
			var fe *versionwatch.FetchError
			if errors.As(err, &fe) && fe.Phase == versionwatch.PhaseBaseline {
				baselineErr = err
			}
		},
		OnNewVersion: func(rec manifest.VersionRecord) {
			fmt.Fprintf(out, "📦 New version: %s\n", rec.Version) //nolint:errcheck
			_, err := versionwatch.ConfirmAndReload(prompter, reloader, messageOr(cfg.Message))
			done <- err
		},
	})
	if err != nil {
		return err
	}

	// The baseline fetch runs synchronously, so baselineErr is settled when Start returns.
	// Running() is not consulted: a fast first tick may already have stopped the monitor.
	m.Start(ctx)
	if baselineErr != nil {
		return fmt.Errorf("failed to start version checking: %w", baselineErr)
	}
	defer m.Stop()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

func messageOr(msg string) string {
	if msg == "" {
		return versionwatch.DefaultMessage
	}
	return msg
}

// linePrompter asks a yes/no question on a line-oriented terminal.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *linePrompter) Confirm(message string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", message) //nolint:errcheck
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// shellReloader runs command through sh; without a command it only prints a hint.
func shellReloader(ctx context.Context, command string, out, errOut io.Writer) types.Reloader {
	if command == "" {
		return types.ReloadFunc(func() error {
			_, err := fmt.Fprintln(out, "🔄 Restart the application to load the new version.")
			return err
		})
	}
	return types.ReloadFunc(func() error {
		c := exec.CommandContext(ctx, "sh", "-c", command)
		c.Stdout = out
		c.Stderr = errOut
		return c.Run()
	})
}
