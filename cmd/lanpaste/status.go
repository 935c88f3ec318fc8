package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/lanpaste/internal/ipc"
	"go.klb.dev/lanpaste/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's address, clients and backlog",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindViper(cmd, v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return runStatus(cmd.OutOrStdout(), v) },
	}

	f := cmd.Flags()
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(w io.Writer, v *viper.Viper) error {
	reply, err := ipc.Call(&message.Message{Type: message.TypeStatus})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if reply.Status == nil {
		return fmt.Errorf("status: unexpected %s reply", reply.Type)
	}

	if v.GetBool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reply.Status)
	}
	printStatus(w, reply.Status)
	return nil
}

func printStatus(w io.Writer, st *message.Status) {
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "State:\t%s\n", st.State)
	if st.Address != "" {
		fmt.Fprintf(tw, "Address:\t%s\n", st.Address)
	}
	fmt.Fprintf(tw, "Clients:\t%d\n", st.Clients)
	fmt.Fprintf(tw, "Backlog:\t%d\n", st.Backlog)
	clipboard := st.Clipboard
	if clipboard == "" {
		clipboard = "disabled"
	}
	fmt.Fprintf(tw, "Clipboard:\t%s\n", clipboard)
	fmt.Fprintf(tw, "Socket:\t%s\n", ipc.SocketPath())
	_ = tw.Flush()
}
