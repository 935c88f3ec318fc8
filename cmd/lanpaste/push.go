package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/lanpaste/internal/ipc"
	"go.klb.dev/lanpaste/internal/message"
)

func newPushCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "push [text...]",
		Short: "Send text to every open lanpaste page",
		Long: `Broadcasts text to the web clients of the running daemon. The text is taken
from the arguments (joined by spaces) or, with none, read from stdin:

  echo hello | lanpaste push
  lanpaste push --clipboard`,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, args []string) error { return runPush(cmd, v, args) },
	}

	f := cmd.Flags()
	f.Bool("clipboard", false, "push the daemon's current local clipboard instead")
	addConfigFlag(cmd)

	return cmd
}

func runPush(cmd *cobra.Command, v *viper.Viper, args []string) error {
	req := &message.Message{Type: message.TypePush}
	switch {
	case v.GetBool("clipboard"):
		if len(args) > 0 {
			return errors.New("--clipboard takes no text arguments")
		}
		req.Type = message.TypePushClipboard
	case len(args) > 0:
		req.Text = strings.Join(args, " ")
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		req.Text = string(b)
	}

	reply, err := ipc.Call(req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	if !reply.OK {
		return errors.New("push: sync server is not running")
	}
	return nil
}
