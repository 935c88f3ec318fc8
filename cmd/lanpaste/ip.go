package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/lanpaste/internal/netif"
)

func newIPCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ip",
		Short: "Print the LAN address the page would be advertised on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIP(cmd.OutOrStdout(), verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also list every interface considered")

	return cmd
}

func runIP(w io.Writer, verbose bool) error {
	ifaces, err := netif.Discover()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, netif.Advertised(ifaces))
	if verbose {
		printInterfaces(w, ifaces)
	}
	return nil
}

func printInterfaces(w io.Writer, ifaces []netif.Interface) {
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\nINTERFACE\tADDRESSES\n")
	for _, ifc := range ifaces {
		addrs := make([]string, len(ifc.Addrs))
		for i, a := range ifc.Addrs {
			addrs[i] = a.String()
		}
		fmt.Fprintf(tw, "%s\t%s\n", ifc.Name, strings.Join(addrs, ", "))
	}
	_ = tw.Flush()
}
