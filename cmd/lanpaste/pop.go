package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/lanpaste/internal/ipc"
	"go.klb.dev/lanpaste/internal/message"
)

func newPopCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "pop",
		Short: "Print the oldest text received from the LAN (like pbpaste)",
		Long: `Removes the oldest queued text from the daemon's backlog and writes it to
stdout. When the backlog is empty nothing is printed (exit 0).

  lanpaste pop --apply     # also place it on the local clipboard
  lanpaste pop --all       # drain the whole backlog, one text per line`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runPop(cmd.OutOrStdout(), v) },
	}

	f := cmd.Flags()
	f.Bool("apply", false, "write the popped text to the local clipboard too")
	f.Bool("all", false, "pop until the backlog is empty")
	addConfigFlag(cmd)

	return cmd
}

func runPop(w io.Writer, v *viper.Viper) error {
	apply := v.GetBool("apply")
	all := v.GetBool("all")

	for {
		reply, err := ipc.Call(&message.Message{Type: message.TypePop, Apply: apply})
		if err != nil {
			return fmt.Errorf("pop: %w", err)
		}
		if !reply.OK {
			return nil
		}
		if all {
			_, err = fmt.Fprintln(w, reply.Text)
		} else {
			_, err = io.WriteString(w, reply.Text)
		}
		if err != nil || !all {
			return err
		}
	}
}
