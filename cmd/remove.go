package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <crate>",
	Short: "Remove an indexed crate",
	Long:  `Drop a crate's indexed sidebar items and trait implementors. Without --version the latest indexed version is removed.`,
	Args:  cobra.ExactArgs(1),
	Run:   runRemove,
}

var removeVersion string

func init() {
	removeCmd.Flags().StringVar(&removeVersion, "version", "", "crate version (defaults to the latest indexed)")
}

func runRemove(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.RemoveCrate(context.Background(), rpc.RemoveCrateRequest{
		Crate:   args[0],
		Version: removeVersion,
	})
	if err != nil {
		log.Fatalf("remove failed: %v", err)
	}

	fmt.Printf("removed %s@%s\n", resp.Crate, resp.Version)
}
