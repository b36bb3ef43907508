package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/spf13/cobra"
)

var searchCratesCmd = &cobra.Command{
	Use:   "search-crates <query>",
	Short: "Search crates.io for crates to index",
	Args:  cobra.ExactArgs(1),
	Run:   runSearchCrates,
}

var searchCratesLimit int

func init() {
	searchCratesCmd.Flags().IntVar(&searchCratesLimit, "limit", 10, "maximum number of results")
}

func runSearchCrates(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.SearchCrates(context.Background(), rpc.SearchCratesRequest{
		Query: args[0],
		Limit: searchCratesLimit,
	})
	if err != nil {
		log.Fatalf("search-crates failed: %v", err)
	}

	for _, r := range resp.Results {
		indexed := ""
		if r.IndexedVersion != "" {
			indexed = fmt.Sprintf(" [indexed: %s]", r.IndexedVersion)
		}
		fmt.Printf("  %s@%s (%d downloads)%s\n    %s\n", r.Name, r.MaxVersion, r.Downloads, indexed, r.Description)
	}
}
