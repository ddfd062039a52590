package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"faqchat/internal/config"
	"faqchat/internal/dialog"
	"faqchat/internal/logging"
	"faqchat/internal/protocol"
	"faqchat/internal/terminal"
	"faqchat/internal/transport"
	"faqchat/internal/widget"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("faqchat failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	var seed int64

	cmd := &cobra.Command{
		Use:           "faqchat",
		Short:         "Chat with the FAQ bot from the terminal",
		Long:          "Type a question and press Enter. Type the number of a suggested question to get its answer.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, cfg, rand.New(rand.NewSource(seed)))
		},
	}
	cmd.Flags().StringVar(&cfg.ChatURL, "url", cfg.ChatURL, "chat websocket URL")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for canned replies (0 picks one)")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, cfg config.Config, rng *rand.Rand) error {
	renderer := terminal.New(cmd.OutOrStdout())
	tr := transport.New(protocol.NewResponseRegistry(), renderer, rng,
		transport.WithLogger(log.Logger),
		transport.WithHandshakeTimeout(cfg.DialTimeout),
	)
	if err := tr.Dial(ctx, cfg.ChatURL); err != nil {
		return err
	}
	defer tr.Close()
	log.Debug().Str("url", cfg.ChatURL).Msg("connected")

	w := widget.New(tr, renderer, dialog.NewDefaultMatcher(rng), widget.WithLogger(log.Logger))
	events := make(chan widget.Event)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(events)
		return forwardLines(egCtx, cmd.InOrStdin(), renderer, events)
	})
	eg.Go(func() error {
		return w.Run(egCtx, events)
	})

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
