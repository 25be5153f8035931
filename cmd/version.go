package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and check it against the portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("practiz", version)

		check, _ := cmd.Flags().GetBool("check")
		if !check {
			return nil
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		c, err := portalClient(cmd).CheckCompatibility(ctx, version)
		if err != nil {
			return err
		}
		switch {
		case c.Minimum == "":
			fmt.Println("The portal does not require a minimum version.")
		case c.OK:
			fmt.Printf("Compatible with the portal (minimum %s).\n", c.Minimum)
		default:
			return fmt.Errorf("this build is older than the portal's minimum %s; please update", c.Minimum)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("check", false, "Also check the portal's minimum client version")
}
