package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rnwolfe/vmdeck/internal/config"
	"github.com/rnwolfe/vmdeck/internal/ui"
	"github.com/spf13/cobra"
)

var vmExportOut string

var vmExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the inventory as YAML",
	Args:  cobra.NoArgs,
	RunE:  runVMExport,
}

var vmImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Add VMs from a YAML inventory",
	Long: `Add every VM listed in a YAML inventory (the format "vmdeck vm export"
writes). Names already registered are skipped. Entries without a console
get the configured default protocol and host.`,
	Args: cobra.ExactArgs(1),
	RunE: runVMImport,
}

func init() {
	vmExportCmd.Flags().StringVarP(&vmExportOut, "output", "o", "-", `Output file ("-" for stdout)`)
}

func runVMExport(_ *cobra.Command, _ []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	if vmExportOut == "" || vmExportOut == "-" {
		return vms.Export(os.Stdout)
	}

	f, err := os.OpenFile(vmExportOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", vmExportOut, err)
	}
	if err := vms.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", vmExportOut, err)
	}
	ui.Ok(fmt.Sprintf("Exported inventory to %s", ui.Accent.Render(vmExportOut)))
	return nil
}

func runVMImport(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	defaults, err := consoleFromFlags(cfg, "", "", 0)
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := vms.Import(r, defaults)
	if err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Imported %d machine(s)", len(res.Added)))
	if len(res.Skipped) > 0 {
		ui.Warn(fmt.Sprintf("Skipped %d already registered: %s", len(res.Skipped), strings.Join(res.Skipped, ", ")))
	}
	return nil
}
