package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rnwolfe/vmdeck/internal/config"
	"github.com/rnwolfe/vmdeck/internal/console"
	"github.com/rnwolfe/vmdeck/internal/fuzzy"
	"github.com/rnwolfe/vmdeck/internal/keymap"
	"github.com/rnwolfe/vmdeck/internal/nav"
	"github.com/rnwolfe/vmdeck/internal/store"
	"github.com/rnwolfe/vmdeck/internal/toolbar"
	"github.com/rnwolfe/vmdeck/internal/tui"
	"github.com/rnwolfe/vmdeck/internal/ui"
	"github.com/rnwolfe/vmdeck/internal/vm"
	"github.com/spf13/cobra"
)

var (
	vmSearchState string
	vmSearchMode  string
	vmSearchSort  string
	vmSearchLimit int
	vmSearchSave  bool
)

var vmSearchCmd = &cobra.Command{
	Use:     "search [query...]",
	Aliases: []string{"find"},
	Short:   "Rank VMs against a query",
	Long: `Rank VMs by how well their name, alias or tags match the query.
Flags not given fall back to the saved toolbar (see "vmdeck toolbar").`,
	RunE: runVMSearch,
}

var vmPickCmd = &cobra.Command{
	Use:   "pick [query...]",
	Short: "Pick a VM interactively",
	Long: `Open a fuzzy picker over the inventory. Enter shows the VM; the
rename, delete and console shortcuts act on the highlighted VM
(see "vmdeck keys"). The last query and mode are saved to the toolbar.`,
	RunE: runVMPick,
}

func init() {
	vmSearchCmd.Flags().StringVarP(&vmSearchState, "state", "s", "", `Only VMs in this state ("all" for every state)`)
	vmSearchCmd.Flags().StringVarP(&vmSearchMode, "mode", "m", "", "Search mode (fuzzy, contains)")
	vmSearchCmd.Flags().StringVar(&vmSearchSort, "sort", "", "Sort order (score, name, state)")
	vmSearchCmd.Flags().IntVarP(&vmSearchLimit, "limit", "n", 0, "Maximum results (0 = search.limit)")
	vmSearchCmd.Flags().BoolVar(&vmSearchSave, "save", false, "Save query and flags as the toolbar")
}

// searchToolbar starts from the saved toolbar and overrides it with the
// query arguments and the flags the user passed.
func searchToolbar(cmd *cobra.Command, db *store.DB, cfg *config.Config, args []string) (toolbar.State, error) {
	st, err := toolbar.Load(db.Conn(), toolbar.Default(configuredMode(cfg)))
	if err != nil {
		return st, fmt.Errorf("loading toolbar: %w", err)
	}
	if len(args) > 0 {
		st.Query = strings.Join(args, " ")
	}
	if cmd == nil {
		return st, nil
	}

	flags := cmd.Flags()
	if flags.Changed("state") {
		if st.StateFilter, err = parseStateFilter(vmSearchState); err != nil {
			return st, err
		}
	}
	if flags.Changed("mode") {
		if st.Mode, err = fuzzy.ParseMode(vmSearchMode); err != nil {
			return st, err
		}
	}
	if flags.Changed("sort") {
		if st.Sort, err = toolbar.ParseSort(vmSearchSort); err != nil {
			return st, err
		}
	}
	return st, nil
}

// parseStateFilter accepts a state name, or "all"/"" for no filter.
func parseStateFilter(s string) (vm.State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return "", nil
	}
	return vm.ParseState(s)
}

func runVMSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := searchToolbar(cmd, db, cfg, args)
	if err != nil {
		return err
	}

	list, err := vms.List("")
	if err != nil {
		return err
	}
	results := toolbar.Apply(st, list)

	if vmSearchSave {
		if err := toolbar.Save(db.Conn(), st); err != nil {
			return fmt.Errorf("saving toolbar: %w", err)
		}
	}

	limit := vmSearchLimit
	if limit <= 0 {
		limit = cfg.Search.Limit
	}
	shown := results
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	ui.Header(nav.Render(nav.Crumbs(nav.Join("vms", "search")), ui.Crumb))
	fmt.Println(ui.Muted.Render("  " + toolbarSummary(st)))
	fmt.Println()

	if len(results) == 0 {
		fmt.Println(ui.Muted.Render("  No matches."))
		fmt.Println()
		return nil
	}

	for _, r := range shown {
		fmt.Println(searchLine(r, st.Mode))
	}
	fmt.Println()
	summary := fmt.Sprintf("  %d match(es)", len(results))
	if len(shown) < len(results) {
		summary += fmt.Sprintf(", showing %d", len(shown))
	}
	fmt.Println(ui.Muted.Render(summary))
	if vmSearchSave {
		ui.Ok("Toolbar saved")
	}
	fmt.Println()
	return nil
}

func searchLine(r fuzzy.Ranked[vm.VM], mode fuzzy.Mode) string {
	v := r.Item
	line := vmLine(v, ui.Highlight(v.Name, r.Matches[v.Name]))
	if mode == fuzzy.ModeFuzzy && r.Score > 0 {
		line += ui.Muted.Render(fmt.Sprintf("  %.1f", r.Score))
	}
	// Say why a VM matched when its name did not.
	if _, byName := r.Matches[v.Name]; !byName && len(r.Matches) > 0 {
		via := make([]string, 0, len(r.Matches))
		for _, t := range vm.SearchTexts(v) {
			if pos, ok := r.Matches[t]; ok && t != v.Name {
				via = append(via, ui.Highlight(t, pos))
			}
		}
		line += ui.Muted.Render("  via ") + strings.Join(via, ui.Muted.Render(", "))
	}
	return line
}

func runVMPick(_ *cobra.Command, args []string) error {
	if !tui.IsTTY() {
		return fmt.Errorf("vm pick needs a terminal; use %s instead", ui.Accent.Render("vmdeck vm search"))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	st, err := searchToolbar(nil, db, cfg, args)
	if err != nil {
		return err
	}
	list, err := vms.List(st.StateFilter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println(ui.Muted.Render("  No machines to pick from."))
		return nil
	}

	items := make([]tui.Item, len(list))
	for i, v := range list {
		items[i] = v
	}

	res, err := tui.Run(items,
		tui.WithTitle(nav.Render(nav.Crumbs("vms"), ui.Crumb)),
		tui.WithQuery(st.Query),
		tui.WithMode(st.Mode),
		tui.WithKeys(keymap.Default()),
	)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	st.Query, st.Mode = res.Query, res.Mode
	if err := toolbar.Save(db.Conn(), st); err != nil {
		log.Printf("warning: saving toolbar: %v", err)
	}

	picked := res.Item.(vm.VM)
	return actOnPick(cfg, vms, picked, res.Action)
}

// actOnPick carries out the shortcut the picker closed with.
func actOnPick(cfg *config.Config, vms *vm.Store, v vm.VM, action keymap.Action) error {
	switch action {
	case keymap.ActionRename:
		ui.Header(nav.Render(nav.Crumbs(nav.Join("vms", v.Name, "rename")), ui.Crumb))
		fmt.Printf("  New name for %s: ", ui.Accent.Render(v.Name))
		name := readLine(os.Stdin)
		if name == "" {
			ui.Warn("Cancelled.")
			return nil
		}
		return renameVM(vms, v.ID, name)
	case keymap.ActionDelete:
		return removeVM(vms, v, false)
	case keymap.ActionConsole:
		return openConsole(cfg, v)
	default:
		printVM(v)
		return nil
	}
}

func openConsole(cfg *config.Config, v vm.VM) error {
	uri, err := console.Launcher{Viewer: cfg.Console.Viewer}.Open(v)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Opened %s %s %s", ui.Accent.Render(v.Name), ui.IconArrow, uri))
	return nil
}
