package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/rnwolfe/vmdeck/internal/config"
	"github.com/rnwolfe/vmdeck/internal/console"
	"github.com/rnwolfe/vmdeck/internal/nav"
	"github.com/rnwolfe/vmdeck/internal/ui"
	"github.com/rnwolfe/vmdeck/internal/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const passphraseEnv = "VMDECK_CONSOLE_PASSPHRASE"

var (
	consoleSetProtocol string
	consoleSetHost     string
	consoleSetPort     int

	consolePasswdShow  bool
	consolePasswdClear bool
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open and configure remote consoles",
	Long: `Open a VM's VNC or SPICE console in an external viewer
(console.viewer, remote-viewer by default), print its URI, or manage the
encrypted console password store.`,
}

var consoleOpenCmd = &cobra.Command{
	Use:   "open <vm>",
	Short: "Open a VM's console in the viewer",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsoleOpen,
}

var consoleURICmd = &cobra.Command{
	Use:   "uri <vm>",
	Short: "Print a VM's console URI",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsoleURI,
}

var consoleSetCmd = &cobra.Command{
	Use:   "set <vm>",
	Short: "Change a VM's console endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsoleSet,
}

var consolePasswdCmd = &cobra.Command{
	Use:   "passwd <vm>",
	Short: "Store, show or clear a VM's console password",
	Long: `Console passwords are kept in an age-encrypted file in the data
directory. The passphrase comes from ` + passphraseEnv + ` or a prompt.
Without flags the new password is read from the terminal, or from the
first line of stdin when piped.`,
	Args: cobra.ExactArgs(1),
	RunE: runConsolePasswd,
}

func init() {
	consoleCmd.AddCommand(consoleOpenCmd)
	consoleCmd.AddCommand(consoleURICmd)
	consoleCmd.AddCommand(consoleSetCmd)
	consoleCmd.AddCommand(consolePasswdCmd)

	consoleSetCmd.Flags().StringVar(&consoleSetProtocol, "protocol", "", "Console protocol (vnc, spice)")
	consoleSetCmd.Flags().StringVar(&consoleSetHost, "host", "", "Console host")
	consoleSetCmd.Flags().IntVar(&consoleSetPort, "port", 0, "Console port (0 = protocol default)")

	consolePasswdCmd.Flags().BoolVar(&consolePasswdShow, "show", false, "Print the stored password")
	consolePasswdCmd.Flags().BoolVar(&consolePasswdClear, "clear", false, "Forget the stored password")
}

func getVM(ref string) (*vm.VM, error) {
	db, vms, err := openInventory()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return vms.Get(ref)
}

func runConsoleOpen(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	v, err := getVM(args[0])
	if err != nil {
		return err
	}
	return openConsole(cfg, *v)
}

func runConsoleURI(_ *cobra.Command, args []string) error {
	v, err := getVM(args[0])
	if err != nil {
		return err
	}
	uri, err := console.URI(v.Console)
	if err != nil {
		return fmt.Errorf("%s: %w", v.Name, err)
	}
	fmt.Println(uri)
	return nil
}

func runConsoleSet(cmd *cobra.Command, args []string) error {
	db, vms, err := openInventory()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := vms.Get(args[0])
	if err != nil {
		return err
	}

	c := v.Console
	var flagErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "protocol":
			p, err := console.ParseProtocol(consoleSetProtocol)
			if err != nil {
				flagErr = err
				return
			}
			c.Protocol = string(p)
		case "host":
			c.Host = strings.TrimSpace(consoleSetHost)
		case "port":
			c.Port = consoleSetPort
		}
	})
	if flagErr != nil {
		return flagErr
	}

	uri, err := console.URI(c)
	if err != nil {
		return err
	}
	if _, err := vms.SetConsole(v.ID, c); err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("%s console %s %s", ui.Accent.Render(v.Name), ui.IconArrow, uri))
	return nil
}

func runConsolePasswd(_ *cobra.Command, args []string) error {
	if consolePasswdShow && consolePasswdClear {
		return fmt.Errorf("--show and --clear are mutually exclusive")
	}

	v, err := getVM(args[0])
	if err != nil {
		return err
	}

	if consolePasswdClear {
		passphrase, err := readPassphrase(false)
		if err != nil {
			return err
		}
		if err := console.NewPasswords(passphrase).Delete(v.ID); err != nil {
			return passwordsErr(err)
		}
		ui.Ok(fmt.Sprintf("Forgot console password for %s", ui.Accent.Render(v.Name)))
		return nil
	}

	if consolePasswdShow {
		passphrase, err := readPassphrase(false)
		if err != nil {
			return err
		}
		pw, err := console.NewPasswords(passphrase).Get(v.ID)
		if err != nil {
			return passwordsErr(err)
		}
		fmt.Println(pw)
		return nil
	}

	ui.Header(nav.Render(nav.Crumbs(nav.Join("vms", v.Name, "console")), ui.Crumb))
	password, err := readSecret("  Console password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("console password can't be empty")
	}

	passphrase, err := readPassphrase(true)
	if err != nil {
		return err
	}
	if err := console.NewPasswords(passphrase).Set(v.ID, password); err != nil {
		return passwordsErr(err)
	}
	ui.Ok(fmt.Sprintf("Stored console password for %s", ui.Accent.Render(v.Name)))
	return nil
}

func passwordsErr(err error) error {
	switch {
	case errors.Is(err, console.ErrWrongPassphrase):
		return fmt.Errorf("%w (check %s)", err, passphraseEnv)
	case errors.Is(err, console.ErrNoPassword):
		return fmt.Errorf("%w; run %s", err, ui.Accent.Render("vmdeck console passwd <vm>"))
	}
	return err
}

// readPassphrase resolves the password store passphrase:
//  1. VMDECK_CONSOLE_PASSPHRASE (always wins)
//  2. Interactive TTY prompt
func readPassphrase(confirm bool) (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("passphrase required: set %s or run interactively", passphraseEnv)
	}

	passphrase, err := readSecret("  Store passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", fmt.Errorf("passphrase can't be empty")
	}

	if confirm {
		again, err := readSecret("  Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		if again != passphrase {
			return "", fmt.Errorf("passphrases do not match")
		}
	}
	return passphrase, nil
}

// readSecret reads a line without echo from the terminal, or the first line
// of stdin when it is not a terminal.
func readSecret(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return readLine(os.Stdin), nil
	}
	fmt.Fprint(os.Stderr, ui.Muted.Render(prompt))
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
