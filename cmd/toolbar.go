package cmd

import (
	"fmt"

	"github.com/rnwolfe/vmdeck/internal/config"
	"github.com/rnwolfe/vmdeck/internal/fuzzy"
	"github.com/rnwolfe/vmdeck/internal/nav"
	"github.com/rnwolfe/vmdeck/internal/toolbar"
	"github.com/rnwolfe/vmdeck/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	toolbarQuery string
	toolbarState string
	toolbarMode  string
	toolbarSort  string
)

var toolbarCmd = &cobra.Command{
	Use:   "toolbar",
	Short: "Show or change the saved search toolbar",
	Long: `The toolbar is the search state vmdeck remembers between runs: query,
state filter, search mode and sort order. "vmdeck vm search" and
"vmdeck vm pick" start from it.`,
	RunE: runToolbarShow,
}

var toolbarShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved toolbar",
	Args:  cobra.NoArgs,
	RunE:  runToolbarShow,
}

var toolbarSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change toolbar fields",
	Long:  `Change only the fields whose flags are given; the rest stay as saved.`,
	Args:  cobra.NoArgs,
	RunE:  runToolbarSet,
}

var toolbarResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the saved toolbar",
	Args:  cobra.NoArgs,
	RunE:  runToolbarReset,
}

func init() {
	toolbarCmd.AddCommand(toolbarShowCmd)
	toolbarCmd.AddCommand(toolbarSetCmd)
	toolbarCmd.AddCommand(toolbarResetCmd)

	toolbarSetCmd.Flags().StringVarP(&toolbarQuery, "query", "q", "", "Search query")
	toolbarSetCmd.Flags().StringVarP(&toolbarState, "state", "s", "", `State filter ("all" for none)`)
	toolbarSetCmd.Flags().StringVarP(&toolbarMode, "mode", "m", "", "Search mode (fuzzy, contains)")
	toolbarSetCmd.Flags().StringVar(&toolbarSort, "sort", "", "Sort order (score, name, state)")
}

func loadToolbar() (toolbar.State, error) {
	cfg, err := config.Load()
	if err != nil {
		return toolbar.State{}, fmt.Errorf("loading config: %w", err)
	}
	db, _, err := openInventory()
	if err != nil {
		return toolbar.State{}, err
	}
	defer db.Close()
	return toolbar.Load(db.Conn(), toolbar.Default(configuredMode(cfg)))
}

func runToolbarShow(_ *cobra.Command, _ []string) error {
	st, err := loadToolbar()
	if err != nil {
		return err
	}
	printToolbar(st)
	return nil
}

func printToolbar(st toolbar.State) {
	ui.Header(nav.Render(nav.Crumbs("toolbar"), ui.Crumb))
	fmt.Println()
	q := st.Query
	if q == "" {
		q = ui.Muted.Render("(empty)")
	}
	state := string(st.StateFilter)
	if state == "" {
		state = "all"
	}
	ui.Kv("Query", q)
	ui.Kv("State", state)
	ui.Kv("Mode", string(st.Mode))
	ui.Kv("Sort", string(st.Sort))
	fmt.Println()
}

func runToolbarSet(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, _, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := toolbar.Load(db.Conn(), toolbar.Default(configuredMode(cfg)))
	if err != nil {
		return err
	}

	changed := 0
	var parseErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if parseErr != nil {
			return
		}
		changed++
		switch f.Name {
		case "query":
			st.Query = toolbarQuery
		case "state":
			st.StateFilter, parseErr = parseStateFilter(toolbarState)
		case "mode":
			st.Mode, parseErr = fuzzy.ParseMode(toolbarMode)
		case "sort":
			st.Sort, parseErr = toolbar.ParseSort(toolbarSort)
		}
	})
	if parseErr != nil {
		return parseErr
	}
	if changed == 0 {
		return fmt.Errorf("nothing to set (use --query, --state, --mode or --sort)")
	}

	if err := toolbar.Save(db.Conn(), st); err != nil {
		return fmt.Errorf("saving toolbar: %w", err)
	}
	ui.Ok("Toolbar saved")
	printToolbar(st)
	return nil
}

func runToolbarReset(_ *cobra.Command, _ []string) error {
	db, _, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := toolbar.Reset(db.Conn()); err != nil {
		return fmt.Errorf("resetting toolbar: %w", err)
	}
	ui.Ok("Toolbar reset")
	return nil
}
