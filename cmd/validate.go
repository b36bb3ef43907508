package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/rustnav/rustnav/internal/rpc"
	"github.com/rustnav/rustnav/internal/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <crate>",
	Short: "Check an indexed crate's navigation data for structural problems",
	Long:  `Re-check the indexed sidebar and implementor data: duplicate names within a kind group, unknown kinds, implementor entries referencing undeclared libraries, malformed markup. Exits non-zero if any errors are found.`,
	Args:  cobra.ExactArgs(1),
	Run:   runValidate,
}

var (
	validateVersion string
	validateStrict  bool
)

func init() {
	validateCmd.Flags().StringVar(&validateVersion, "version", "", "crate version (defaults to the latest indexed)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		log.Fatalf("failed to connect to daemon: %v", err)
	}

	resp, err := client.Validate(context.Background(), rpc.ValidateRequest{
		Crate:   args[0],
		Version: validateVersion,
		Strict:  validateStrict,
	})
	if err != nil {
		log.Fatalf("validate failed: %v", err)
	}

	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow)
	okColor := color.New(color.FgGreen)

	for _, f := range resp.Findings {
		sev := warnColor.Sprint(f.Severity)
		if f.Severity == validate.SeverityError {
			sev = errColor.Sprint(f.Severity)
		}
		fmt.Printf("  %s [%s] %s: %s\n", sev, f.Check, f.Location, f.Message)
	}

	if resp.Passed {
		okColor.Printf("%s@%s: ok (%d findings)\n", resp.Crate, resp.Version, len(resp.Findings))
		return
	}

	errColor.Printf("%s@%s: validation failed\n", resp.Crate, resp.Version)
	os.Exit(1)
}
