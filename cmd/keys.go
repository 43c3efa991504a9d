package cmd

import (
	"fmt"
	"strings"

	"github.com/rnwolfe/vmdeck/internal/keymap"
	"github.com/rnwolfe/vmdeck/internal/nav"
	"github.com/rnwolfe/vmdeck/internal/ui"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:     "keys",
	Aliases: []string{"shortcuts"},
	Short:   "List the picker's keyboard shortcuts",
	Args:    cobra.NoArgs,
	RunE:    runKeys,
}

var keyDescriptions = map[keymap.Action]string{
	keymap.ActionUp:      "Move up",
	keymap.ActionDown:    "Move down",
	keymap.ActionSelect:  "Show the VM",
	keymap.ActionCancel:  "Close the picker",
	keymap.ActionErase:   "Delete a query character",
	keymap.ActionClear:   "Clear the query",
	keymap.ActionRename:  "Rename the VM",
	keymap.ActionDelete:  "Remove the VM",
	keymap.ActionConsole: "Open the VM's console",
	keymap.ActionMode:    "Switch fuzzy / contains",
}

func runKeys(_ *cobra.Command, _ []string) error {
	km := keymap.Default()

	ui.Header(nav.Render(nav.Crumbs("keys"), ui.Crumb))
	fmt.Println()

	var order []keymap.Action
	seen := map[keymap.Action]bool{}
	for _, b := range km.Bindings() {
		if !seen[b.Action] {
			seen[b.Action] = true
			order = append(order, b.Action)
		}
	}

	for _, a := range order {
		keys := km.KeysFor(a)
		styled := make([]string, len(keys))
		for i, k := range keys {
			styled[i] = ui.KeyStyle.Render(k)
		}
		desc := keyDescriptions[a]
		if desc == "" {
			desc = string(a)
		}
		pad := 22 - len(strings.Join(keys, ", "))
		if pad < 1 {
			pad = 1
		}
		fmt.Printf("  %s%s%s\n", strings.Join(styled, ui.Muted.Render(", ")), strings.Repeat(" ", pad), desc)
	}
	fmt.Println()
	return nil
}
