package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/fatih/color"
	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed items by name and summary",
	Example: `  rustnav search "font family"
  rustnav search Attrs --crate cosmic-text --kind struct`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

var (
	searchCrates []string
	searchKinds  []string
	searchLimit  int
)

func init() {
	searchCmd.Flags().StringSliceVar(&searchCrates, "crate", nil, "restrict to these crates")
	searchCmd.Flags().StringSliceVar(&searchKinds, "kind", nil, "restrict to these kinds (struct, enum, trait, ...)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Search(context.Background(), rpc.SearchRequest{
		Query:  args[0],
		Crates: searchCrates,
		Kinds:  searchKinds,
		Limit:  searchLimit,
	})
	if err != nil {
		log.Fatalf("search failed: %v", err)
	}

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return
	}

	kindColor := color.New(color.FgCyan)
	nameColor := color.New(color.Bold)
	crateColor := color.New(color.Faint)

	for _, r := range resp.Results {
		path := r.Module
		if path != "" {
			path += "::"
		}
		fmt.Printf("  %s %s%s  %s\n",
			kindColor.Sprintf("%-8s", r.Kind),
			crateColor.Sprint(path),
			nameColor.Sprint(r.Name),
			crateColor.Sprintf("(%s@%s)", r.CrateName, r.CrateVersion))
		if r.Summary != "" {
			fmt.Printf("           %s\n", r.Summary)
		}
	}
}
