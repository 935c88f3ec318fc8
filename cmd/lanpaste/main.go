// lanpaste: share text between this machine and phones on the same LAN.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lanpaste",
		Short: "Share text with phones on your LAN",
		Long: `lanpaste serves a small web page on the local network. Open it on a phone,
type or paste text, and it lands in a queue on this machine; text pushed from
here shows up on every open page.

Run "lanpaste serve" to start the daemon. Use "lanpaste push/pop/status/events"
to talk to it from the same machine.

Config file search order (first found wins):
  /etc/lanpaste/lanpaste.toml
  $HOME/.config/lanpaste/lanpaste.toml
  path supplied via --config

All flags can be set via LANPASTE_<FLAG> env vars or config-file keys.
See "lanpaste serve --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newPushCmd(),
		newPopCmd(),
		newStatusCmd(),
		newEventsCmd(),
		newIPCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lanpaste %s\n", Version)
		},
	}
}
