package cmd

import (
	"fmt"

	"github.com/rnwolfe/vmdeck/internal/version"
	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show which vmdeck build is running",
	Long: `Print the vmdeck release, the commit it was built from, the build date,
and the Go toolchain and platform. Use --short in scripts.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "Print the release only")
}

func runVersion(_ *cobra.Command, _ []string) error {
	info := version.Get()
	if versionShort {
		fmt.Println(info.Version)
		return nil
	}
	fmt.Printf("vmdeck %s\n", info)
	fmt.Printf("  built with %s for %s\n", info.GoVersion, info.Platform)
	return nil
}
