package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/rustnav/rustnav/internal/config"
	"github.com/rustnav/rustnav/internal/daemon"
	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [crate[@version] ...]",
	Short: "Index crate navigation metadata from docs.rs",
	Long:  `Fetch, parse, validate, and index the sidebar listings of Rust crates. Version defaults to "latest".`,
	Example: `  rustnav add cosmic-text
  rustnav add cosmic-text@0.12 fontdb@0.16
  rustnav add --dir target/doc mycrate`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAdd,
}

var addDir string

func init() {
	addCmd.Flags().StringVar(&addDir, "dir", "", "ingest a locally built doc tree (cargo doc's target/doc) instead of fetching")
}

func runAdd(cmd *cobra.Command, args []string) {
	var specs []rpc.CrateSpec
	for _, arg := range args {
		name, version, _ := strings.Cut(arg, "@")
		specs = append(specs, rpc.CrateSpec{Name: name, Version: version, Dir: addDir})
	}

	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.AddCrates(context.Background(), specs, func(msg string) {
		fmt.Printf("  %s\n", msg)
	})
	if err != nil {
		log.Fatalf("failed to add crates: %v", err)
	}

	for _, r := range resp.Results {
		switch {
		case r.Error != "":
			fmt.Printf("  %s@%s: error: %s\n", r.Name, r.Version, r.Error)
		case r.Warnings > 0:
			fmt.Printf("  %s@%s: %d items in %d modules (%d warnings)\n", r.Name, r.Version, r.Items, r.Modules, r.Warnings)
		default:
			fmt.Printf("  %s@%s: %d items in %d modules\n", r.Name, r.Version, r.Items, r.Modules)
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexed crates and daemon state",
	Run:   runStatus,
}

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Status(context.Background())
	if err != nil {
		log.Fatalf("status failed: %v", err)
	}

	if statusJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(resp.Crates) == 0 {
		fmt.Println("no crates indexed")
		return
	}

	for _, c := range resp.Crates {
		state := "processing"
		if c.Processed {
			state = "ready"
		}
		fmt.Printf("  %s@%s [%s] %d items, %d traits\n", c.Name, c.Version, state, c.Items, c.Traits)
	}
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Run:   runStop,
}

func runStop(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	if err := client.Shutdown(context.Background()); err != nil {
		// Connection reset is expected, the daemon exits after responding
		fmt.Println("daemon stopped")
		return
	}
	fmt.Println("daemon stopped")
}
