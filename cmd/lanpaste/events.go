package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/lanpaste/internal/ipc"
	"go.klb.dev/lanpaste/internal/logging"
	"go.klb.dev/lanpaste/internal/message"
)

func newEventsCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow texts from the LAN and local clipboard changes",
		Long: `Streams the daemon's event feed until interrupted. Each line shows the time,
the source (server, clipboard or server-info) and the text.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runEvents(cmd.Context(), cmd.OutOrStdout(), v) },
	}

	f := cmd.Flags()
	f.Bool("json", false, "one JSON object per event")
	f.Bool("full", false, "print full texts instead of a one-line preview")
	addConfigFlag(cmd)

	return cmd
}

func runEvents(ctx context.Context, w io.Writer, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	jsonOut := v.GetBool("json")
	full := v.GetBool("full")
	enc := json.NewEncoder(w)

	return ipc.Subscribe(ctx, func(m *message.Message) error {
		if m.Type != message.TypeEvent {
			return nil
		}
		if jsonOut {
			return enc.Encode(m)
		}
		return printEvent(w, m, full)
	})
}

func printEvent(w io.Writer, m *message.Message, full bool) error {
	text := m.Text
	if !full {
		text = logging.Preview(text)
	}
	_, err := fmt.Fprintf(w, "%s  %-11s  %s\n", m.Time.Local().Format("15:04:05"), m.Source, text)
	return err
}
