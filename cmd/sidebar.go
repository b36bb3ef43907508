package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/spf13/cobra"
)

var sidebarCmd = &cobra.Command{
	Use:   "sidebar <crate> [module]",
	Short: "Print a module's navigation sidebar as markdown",
	Long:  `Print the grouped item listing for a crate module. With no module argument the crate root is shown. The module is a "::"-separated path relative to the crate root, e.g. "ttf_parser" or "style::properties".`,
	Args:  cobra.RangeArgs(1, 2),
	Run:   runSidebar,
}

var sidebarVersion string

func init() {
	sidebarCmd.Flags().StringVar(&sidebarVersion, "version", "", "crate version (defaults to the latest indexed)")
}

func runSidebar(cmd *cobra.Command, args []string) {
	req := rpc.SidebarRequest{Crate: args[0], Version: sidebarVersion}
	if len(args) > 1 {
		req.Module = args[1]
	}

	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Sidebar(context.Background(), req)
	if err != nil {
		log.Fatalf("sidebar failed: %v", err)
	}

	fmt.Println(resp.Markdown)
}
