package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rnwolfe/vmdeck/internal/config"
	"github.com/rnwolfe/vmdeck/internal/fuzzy"
	"github.com/rnwolfe/vmdeck/internal/store"
	"github.com/rnwolfe/vmdeck/internal/toolbar"
	"github.com/rnwolfe/vmdeck/internal/ui"
	"github.com/rnwolfe/vmdeck/internal/version"
	"github.com/rnwolfe/vmdeck/internal/vm"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmdeck",
	Short: "Find, tidy and open your virtual machines from the terminal",
	Long: `vmdeck keeps a local inventory of your VMs and finds them fast.
Type a few letters of a name, alias or tag and vmdeck ranks the matches.`,
	RunE: runDashboard,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Err(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(vmCmd)
	rootCmd.AddCommand(toolbarCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// openInventory opens the database and the VM store on top of it. Callers
// close the returned DB.
func openInventory() (*store.DB, *vm.Store, error) {
	db, err := store.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return db, vm.NewStore(db.Conn()), nil
}

// configuredMode returns the search mode from config, falling back to fuzzy.
func configuredMode(cfg *config.Config) fuzzy.Mode {
	m, err := fuzzy.ParseMode(cfg.Search.Mode)
	if err != nil {
		return fuzzy.ModeFuzzy
	}
	return m
}

// runDashboard shows the at-a-glance status when you just type `vmdeck`.
func runDashboard(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println(ui.Greet(cfg.User.Name))
	fmt.Println()

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := vms.Count()
	if err != nil {
		return fmt.Errorf("counting vms: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		fmt.Println("  No machines yet.")
		ui.Tip(fmt.Sprintf("%s to register one.", ui.Accent.Render("vmdeck vm add <name>")))
		fmt.Println()
		return nil
	}

	parts := make([]string, 0, len(vm.AllStates))
	for _, st := range vm.AllStates {
		if n := counts[st]; n > 0 {
			parts = append(parts, ui.StateStyle(string(st)).Render(fmt.Sprintf("%d %s", n, st)))
		}
	}
	ui.Kv(ui.IconVM+" Machines", fmt.Sprintf("%d  %s", total, strings.Join(parts, ui.Muted.Render(" "+ui.IconDot+" "))))

	tb, err := toolbar.Load(db.Conn(), toolbar.Default(configuredMode(cfg)))
	if err != nil {
		return fmt.Errorf("loading toolbar: %w", err)
	}
	ui.Kv("  Toolbar", toolbarSummary(tb))
	ui.Kv("  vmdeck", version.Short())

	if tb.Query != "" || tb.StateFilter != "" {
		ui.Tip(fmt.Sprintf("%s to run the saved search.", ui.Accent.Render("vmdeck vm search")))
	} else {
		ui.Tip(fmt.Sprintf("%s to find a machine.", ui.Accent.Render("vmdeck vm pick")))
	}
	fmt.Println()
	return nil
}

func toolbarSummary(st toolbar.State) string {
	q := st.Query
	if q == "" {
		q = "(empty)"
	}
	state := string(st.StateFilter)
	if state == "" {
		state = "all"
	}
	return fmt.Sprintf("query %s %s state %s %s %s %s sort %s",
		q, ui.IconDot, state, ui.IconDot, st.Mode, ui.IconDot, st.Sort)
}
