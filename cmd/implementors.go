package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/spf13/cobra"
)

var implementorsCmd = &cobra.Command{
	Use:   "implementors <crate> <trait-path>",
	Short: "List the implementors of a trait, grouped by library",
	Example: `  rustnav implementors cosmic-text core::fmt::Debug
  rustnav implementors fontdb --version 0.16 core::clone::Clone`,
	Args: cobra.ExactArgs(2),
	Run:  runImplementors,
}

var implementorsVersion string

func init() {
	implementorsCmd.Flags().StringVar(&implementorsVersion, "version", "", "crate version (defaults to the latest indexed)")
}

func runImplementors(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Implementors(context.Background(), rpc.ImplementorsRequest{
		Crate:   args[0],
		Version: implementorsVersion,
		Trait:   args[1],
	})
	if err != nil {
		log.Fatalf("implementors failed: %v", err)
	}

	fmt.Println(resp.Markdown)
}
