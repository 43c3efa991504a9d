package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rnwolfe/vmdeck/internal/config"
	"github.com/rnwolfe/vmdeck/internal/console"
	"github.com/rnwolfe/vmdeck/internal/nav"
	"github.com/rnwolfe/vmdeck/internal/tui"
	"github.com/rnwolfe/vmdeck/internal/ui"
	"github.com/rnwolfe/vmdeck/internal/vm"
	"github.com/spf13/cobra"
)

var (
	vmAddAlias    string
	vmAddTags     []string
	vmAddState    string
	vmAddProtocol string
	vmAddHost     string
	vmAddPort     int
	vmAddNotes    string

	vmListState  string
	vmRmYes      bool
	vmNotesClear bool
)

var vmCmd = &cobra.Command{
	Use:     "vm",
	Aliases: []string{"vms"},
	Short:   "Manage the VM inventory",
	Long:    `Register, find, rename and remove virtual machines.`,
	RunE:    runVMList,
}

func init() {
	vmCmd.AddCommand(vmAddCmd)
	vmCmd.AddCommand(vmListCmd)
	vmCmd.AddCommand(vmShowCmd)
	vmCmd.AddCommand(vmRenameCmd)
	vmCmd.AddCommand(vmRmCmd)
	vmCmd.AddCommand(vmStateCmd)
	vmCmd.AddCommand(vmTagCmd)
	vmCmd.AddCommand(vmUntagCmd)
	vmCmd.AddCommand(vmAliasCmd)
	vmCmd.AddCommand(vmNotesCmd)
	vmCmd.AddCommand(vmSearchCmd)
	vmCmd.AddCommand(vmPickCmd)
	vmCmd.AddCommand(vmImportCmd)
	vmCmd.AddCommand(vmExportCmd)

	vmAddCmd.Flags().StringVarP(&vmAddAlias, "alias", "a", "", "Short alias to find the VM by")
	vmAddCmd.Flags().StringSliceVarP(&vmAddTags, "tag", "t", nil, "Tag (repeatable or comma-separated)")
	vmAddCmd.Flags().StringVarP(&vmAddState, "state", "s", "", "Initial state (running, paused, shutoff, crashed)")
	vmAddCmd.Flags().StringVar(&vmAddProtocol, "protocol", "", "Console protocol (vnc, spice); defaults to console.default_protocol")
	vmAddCmd.Flags().StringVar(&vmAddHost, "host", "", "Console host; defaults to console.default_host")
	vmAddCmd.Flags().IntVar(&vmAddPort, "port", 0, "Console port (0 = protocol default)")
	vmAddCmd.Flags().StringVar(&vmAddNotes, "notes", "", "Markdown notes")

	vmListCmd.Flags().StringVarP(&vmListState, "state", "s", "", "Only list VMs in this state")
	vmRmCmd.Flags().BoolVarP(&vmRmYes, "yes", "y", false, "Skip confirmation prompt")
	vmNotesCmd.Flags().BoolVar(&vmNotesClear, "clear", false, "Remove the notes")
}

// --- add ---

var vmAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a VM",
	Args:  cobra.ExactArgs(1),
	RunE:  runVMAdd,
}

func runVMAdd(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts := vm.AddOptions{
		Alias: vmAddAlias,
		Tags:  vmAddTags,
		Notes: vmAddNotes,
	}
	if vmAddState != "" {
		if opts.State, err = vm.ParseState(vmAddState); err != nil {
			return err
		}
	}

	opts.Console, err = consoleFromFlags(cfg, vmAddProtocol, vmAddHost, vmAddPort)
	if err != nil {
		return err
	}

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.Add(args[0], opts)
	if err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Added %s", ui.Accent.Render(v.Name)))
	ui.Kv("ID", v.ID)
	if uri, err := console.URI(v.Console); err == nil {
		ui.Kv("Console", uri)
	}
	return nil
}

// consoleFromFlags builds a console endpoint, filling blanks from config.
func consoleFromFlags(cfg *config.Config, protocol, host string, port int) (vm.Console, error) {
	if protocol == "" {
		protocol = cfg.Console.DefaultProtocol
	}
	p, err := console.ParseProtocol(protocol)
	if err != nil {
		return vm.Console{}, err
	}
	if host == "" {
		host = cfg.Console.DefaultHost
	}
	if port < 0 || port > 65535 {
		return vm.Console{}, fmt.Errorf("invalid console port %d", port)
	}
	return vm.Console{Protocol: string(p), Host: host, Port: port}, nil
}

// --- ls ---

var vmListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List registered VMs",
	Args:    cobra.NoArgs,
	RunE:    runVMList,
}

func runVMList(_ *cobra.Command, _ []string) error {
	var filter vm.State
	if vmListState != "" {
		st, err := vm.ParseState(vmListState)
		if err != nil {
			return err
		}
		filter = st
	}

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := vms.List(filter)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println()
		fmt.Println(ui.Muted.Render("  No machines registered."))
		ui.Tip(fmt.Sprintf("%s to add one.", ui.Accent.Render("vmdeck vm add <name>")))
		fmt.Println()
		return nil
	}

	fmt.Println()
	for _, v := range list {
		fmt.Println(vmLine(v, v.Name))
	}
	fmt.Println()
	fmt.Println(ui.Muted.Render(fmt.Sprintf("  %d machine(s)", len(list))))
	fmt.Println()
	return nil
}

// vmLine renders one VM row. name is passed pre-rendered so search results
// can highlight it.
func vmLine(v vm.VM, name string) string {
	icon := ui.IconStopped
	if v.State == vm.StateRunning {
		icon = ui.IconRunning
	}
	pad := 24 - len([]rune(v.Name))
	if pad < 1 {
		pad = 1
	}

	line := fmt.Sprintf("  %s %s%s%s",
		ui.StateStyle(string(v.State)).Render(icon),
		name,
		strings.Repeat(" ", pad),
		ui.StateStyle(string(v.State)).Render(fmt.Sprintf("%-8s", v.State)),
	)
	var extra []string
	if v.Alias != "" {
		extra = append(extra, "aka "+v.Alias)
	}
	for _, t := range v.Tags {
		extra = append(extra, "#"+t)
	}
	if len(extra) > 0 {
		line += "  " + ui.Muted.Render(ui.Truncate(strings.Join(extra, " "), ui.Width(80)-40))
	}
	return line
}

// --- show ---

var vmShowCmd = &cobra.Command{
	Use:   "show <vm>",
	Short: "Show a VM's details and notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runVMShow,
}

func runVMShow(_ *cobra.Command, args []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.Get(args[0])
	if err != nil {
		return err
	}
	printVM(*v)
	return nil
}

func printVM(v vm.VM) {
	ui.Header(nav.Render(nav.Crumbs(nav.Join("vms", v.Name)), ui.Crumb))
	fmt.Println()
	ui.Kv("ID", v.ID)
	ui.Kv("State", ui.StateStyle(string(v.State)).Render(string(v.State)))
	if v.Alias != "" {
		ui.Kv("Alias", v.Alias)
	}
	if len(v.Tags) > 0 {
		tags := make([]string, len(v.Tags))
		for i, t := range v.Tags {
			tags[i] = ui.Tag.Render(t)
		}
		ui.Kv("Tags", strings.Join(tags, " "))
	}
	if uri, err := console.URI(v.Console); err == nil {
		ui.Kv("Console", uri)
	} else {
		ui.Kv("Console", ui.Muted.Render("not configured"))
	}
	ui.Kv("Added", v.CreatedAt.Local().Format("2006-01-02 15:04"))
	ui.Kv("Updated", v.UpdatedAt.Local().Format("2006-01-02 15:04"))

	if strings.TrimSpace(v.Notes) != "" {
		fmt.Println()
		fmt.Println(ui.Notes(v.Notes))
	}
	fmt.Println()
}

// --- rename ---

var vmRenameCmd = &cobra.Command{
	Use:     "rename <vm> <new-name>",
	Aliases: []string{"mv"},
	Short:   "Rename a VM",
	Args:    cobra.ExactArgs(2),
	RunE:    runVMRename,
}

func runVMRename(_ *cobra.Command, args []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	return renameVM(vms, args[0], args[1])
}

func renameVM(vms *vm.Store, ref, newName string) error {
	old, err := vms.Get(ref)
	if err != nil {
		return err
	}
	v, err := vms.Rename(old.ID, newName)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Renamed %s %s %s", old.Name, ui.IconArrow, ui.Accent.Render(v.Name)))
	return nil
}

// --- rm ---

var vmRmCmd = &cobra.Command{
	Use:     "rm <vm>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a VM from the inventory",
	Long:    `Remove a VM record. The machine itself is not touched.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runVMRm,
}

func runVMRm(_ *cobra.Command, args []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.Get(args[0])
	if err != nil {
		return err
	}
	return removeVM(vms, *v, vmRmYes)
}

func removeVM(vms *vm.Store, v vm.VM, yes bool) error {
	if !yes {
		if !tui.IsTTY() {
			return fmt.Errorf("non-interactive remove requires --yes")
		}
		if !confirmRemove(v.Name) {
			ui.Warn("Cancelled.")
			return nil
		}
	}
	if _, err := vms.Remove(v.ID); err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Removed %s", ui.Accent.Render(v.Name)))
	return nil
}

func confirmRemove(name string) bool {
	fmt.Printf("  %s [y/N] ", ui.Warning.Render(fmt.Sprintf("Remove %q from the inventory?", name)))
	answer := strings.ToLower(readLine(os.Stdin))
	return answer == "y" || answer == "yes"
}

func readLine(r io.Reader) string {
	line, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(line)
}

// --- state / tag / untag / alias ---

var vmStateCmd = &cobra.Command{
	Use:   "state <vm> <state>",
	Short: "Record a VM's power state",
	Args:  cobra.ExactArgs(2),
	RunE:  runVMState,
}

func runVMState(_ *cobra.Command, args []string) error {
	st, err := vm.ParseState(args[1])
	if err != nil {
		return err
	}

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.SetState(args[0], st)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("%s is %s", ui.Accent.Render(v.Name), ui.StateStyle(string(st)).Render(string(st))))
	return nil
}

var vmTagCmd = &cobra.Command{
	Use:   "tag <vm> <tag>...",
	Short: "Add tags to a VM",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runVMTag,
}

func runVMTag(_ *cobra.Command, args []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.Tag(args[0], args[1:]...)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("%s tags: %s", ui.Accent.Render(v.Name), strings.Join(v.Tags, ", ")))
	return nil
}

var vmUntagCmd = &cobra.Command{
	Use:   "untag <vm> <tag>...",
	Short: "Remove tags from a VM",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runVMUntag,
}

func runVMUntag(_ *cobra.Command, args []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.Untag(args[0], args[1:]...)
	if err != nil {
		return err
	}
	tags := strings.Join(v.Tags, ", ")
	if tags == "" {
		tags = "(none)"
	}
	ui.Ok(fmt.Sprintf("%s tags: %s", ui.Accent.Render(v.Name), tags))
	return nil
}

var vmAliasCmd = &cobra.Command{
	Use:   "alias <vm> [alias]",
	Short: "Set or clear a VM's alias",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runVMAlias,
}

func runVMAlias(_ *cobra.Command, args []string) error {
	alias := ""
	if len(args) == 2 {
		alias = args[1]
	}

	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.SetAlias(args[0], alias)
	if err != nil {
		return err
	}
	if v.Alias == "" {
		ui.Ok(fmt.Sprintf("Cleared alias of %s", ui.Accent.Render(v.Name)))
	} else {
		ui.Ok(fmt.Sprintf("%s is now also %s", ui.Accent.Render(v.Name), ui.Accent.Render(v.Alias)))
	}
	return nil
}

// --- notes ---

var vmNotesCmd = &cobra.Command{
	Use:   "notes <vm> [text|-]",
	Short: "Show or set a VM's markdown notes",
	Long: `Without text, print the notes. With text, replace them.
Use "-" to read the notes from stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runVMNotes,
}

func runVMNotes(_ *cobra.Command, args []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	if vmNotesClear {
		v, err := vms.SetNotes(args[0], "")
		if err != nil {
			return err
		}
		ui.Ok(fmt.Sprintf("Cleared notes of %s", ui.Accent.Render(v.Name)))
		return nil
	}

	if len(args) == 1 {
		v, err := vms.Get(args[0])
		if err != nil {
			return err
		}
		if strings.TrimSpace(v.Notes) == "" {
			fmt.Println(ui.Muted.Render("  No notes."))
			return nil
		}
		fmt.Println(ui.Notes(v.Notes))
		return nil
	}

	text := args[1]
	if text == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading notes: %w", err)
		}
		text = string(raw)
	}
	v, err := vms.SetNotes(args[0], text)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Saved notes for %s", ui.Accent.Render(v.Name)))
	return nil
}
