package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/rnwolfe/vmdeck/internal/fuzzy"
	"github.com/rnwolfe/vmdeck/internal/keymap"
	"github.com/rnwolfe/vmdeck/internal/ui"
)

// Item is the interface that list items must implement for the picker.
type Item interface {
	// SearchTexts returns every string the item can be found by.
	SearchTexts() []string
	// Title returns the main display text.
	Title() string
	// Description returns optional secondary text (can be empty).
	Description() string
}

// PickerOption configures a Picker.
type PickerOption func(*Picker)

// WithTitle sets the heading displayed above the picker.
func WithTitle(title string) PickerOption {
	return func(p *Picker) { p.title = title }
}

// WithPrompt sets the search prompt character(s).
func WithPrompt(prompt string) PickerOption {
	return func(p *Picker) { p.prompt = prompt }
}

// WithHeight sets the maximum visible items (0 = auto).
func WithHeight(h int) PickerOption {
	return func(p *Picker) { p.height = h }
}

// WithQuery pre-fills the search input.
func WithQuery(q string) PickerOption {
	return func(p *Picker) { p.query = q }
}

// WithMode sets the initial search mode.
func WithMode(m fuzzy.Mode) PickerOption {
	return func(p *Picker) { p.mode = m }
}

// WithKeys replaces the default shortcuts.
func WithKeys(m *keymap.Map) PickerOption {
	return func(p *Picker) { p.keys = m }
}

// Result is what the user did in the picker.
type Result struct {
	Item Item
	// Action is ActionSelect for enter, or the shortcut used
	// (rename, delete, console).
	Action keymap.Action
	// Query and Mode are the search state when the picker closed.
	Query string
	Mode  fuzzy.Mode
}

// Picker is a fuzzy-search list selector built on Bubbletea.
// Use Run() for the common case, or create a Picker and drive it manually.
type Picker struct {
	title  string
	prompt string
	height int
	mode   fuzzy.Mode
	keys   *keymap.Map

	items    []Item
	filtered []fuzzy.Ranked[Item]
	query    string
	cursor   int
	offset   int // viewport scroll offset
	chosen   Item
	action   keymap.Action
	canceled bool

	termWidth  int
	termHeight int
}

// NewPicker creates a Picker with the given items and options.
func NewPicker(items []Item, opts ...PickerOption) *Picker {
	p := &Picker{
		prompt:     "> ",
		height:     10,
		mode:       fuzzy.ModeFuzzy,
		keys:       keymap.Default(),
		items:      items,
		termWidth:  80,
		termHeight: 24,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.applyFilter()
	return p
}

// Run shows a picker and returns what the user chose.
// Returns nil and no error if the user canceled.
func Run(items []Item, opts ...PickerOption) (*Result, error) {
	p := NewPicker(items, opts...)
	prog := tea.NewProgram(p, tea.WithAltScreen())
	m, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}
	return m.(*Picker).Result(), nil
}

// Result returns the outcome once the picker has quit, or nil if the user
// canceled or nothing was chosen.
func (p *Picker) Result() *Result {
	if p.canceled || p.chosen == nil {
		return nil
	}
	return &Result{Item: p.chosen, Action: p.action, Query: p.query, Mode: p.mode}
}

// IsTTY returns true when stdin is connected to a terminal.
func IsTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// --- Bubbletea model implementation ---

func (p *Picker) Init() tea.Cmd {
	return nil
}

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.termWidth = msg.Width
		p.termHeight = msg.Height
		return p, nil

	case tea.KeyMsg:
		// Pasted text arrives as one multi-rune message; never read it as a key name.
		if msg.Type != tea.KeyRunes || len(msg.Runes) == 1 {
			if action, ok := p.keys.Lookup(msg.String()); ok {
				return p.dispatch(action)
			}
		}
		if (msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace) && !msg.Alt {
			p.query += string(msg.Runes)
			if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
				p.query += " "
			}
			p.applyFilter()
		}
		return p, nil
	}
	return p, nil
}

func (p *Picker) dispatch(action keymap.Action) (tea.Model, tea.Cmd) {
	switch action {
	case keymap.ActionCancel:
		p.canceled = true
		return p, tea.Quit

	case keymap.ActionSelect, keymap.ActionRename, keymap.ActionDelete, keymap.ActionConsole:
		if len(p.filtered) == 0 {
			if action == keymap.ActionSelect {
				return p, tea.Quit
			}
			return p, nil
		}
		p.chosen = p.filtered[p.cursor].Item
		p.action = action
		return p, tea.Quit

	case keymap.ActionUp:
		if p.cursor > 0 {
			p.cursor--
			if p.cursor < p.offset {
				p.offset = p.cursor
			}
		}

	case keymap.ActionDown:
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
			vis := p.visibleHeight()
			if p.cursor >= p.offset+vis {
				p.offset = p.cursor - vis + 1
			}
		}

	case keymap.ActionErase:
		if rs := []rune(p.query); len(rs) > 0 {
			p.query = string(rs[:len(rs)-1])
			p.applyFilter()
		}

	case keymap.ActionClear:
		p.query = ""
		p.applyFilter()

	case keymap.ActionMode:
		if p.mode == fuzzy.ModeContains {
			p.mode = fuzzy.ModeFuzzy
		} else {
			p.mode = fuzzy.ModeContains
		}
		p.applyFilter()
	}
	return p, nil
}

func (p *Picker) View() string {
	var b strings.Builder

	if p.title != "" {
		b.WriteString("  " + ui.Title.Render(p.title) + "\n\n")
	}

	cursor := lipgloss.NewStyle().Foreground(ui.Teal).Bold(true).Render(p.prompt)
	b.WriteString("  " + cursor + p.query + blinkCursor() + "\n\n")

	vis := p.visibleHeight()
	end := p.offset + vis
	if end > len(p.filtered) {
		end = len(p.filtered)
	}

	if len(p.filtered) == 0 {
		b.WriteString("  " + ui.Muted.Render("No matches") + "\n")
	} else {
		for i := p.offset; i < end; i++ {
			b.WriteString(p.renderItem(p.filtered[i], i == p.cursor) + "\n")
		}
	}

	b.WriteString("\n")
	status := ui.Muted.Render(fmt.Sprintf("  %d/%d · %s", len(p.filtered), len(p.items), p.mode))
	help := ui.Muted.Render(" · ↑↓ navigate · enter select · " + p.hint(keymap.ActionRename, "rename") +
		" · " + p.hint(keymap.ActionDelete, "delete") + " · " + p.hint(keymap.ActionConsole, "console") +
		" · esc cancel")
	b.WriteString(status + help + "\n")

	return b.String()
}

// --- internal helpers ---

func (p *Picker) hint(action keymap.Action, label string) string {
	keys := p.keys.KeysFor(action)
	if len(keys) == 0 {
		return label
	}
	return keys[0] + " " + label
}

func (p *Picker) visibleHeight() int {
	h := p.height
	if h <= 0 || h > p.termHeight-6 {
		h = p.termHeight - 6
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (p *Picker) applyFilter() {
	p.filtered = fuzzy.Search(p.mode, p.items, p.query, Item.SearchTexts)
	p.cursor = 0
	p.offset = 0
}

func (p *Picker) renderItem(r fuzzy.Ranked[Item], selected bool) string {
	pointer := "  "
	titleStyle := lipgloss.NewStyle()

	if selected {
		pointer = ui.Accent.Render(ui.IconArrow + " ")
		titleStyle = lipgloss.NewStyle().Foreground(ui.Teal).Bold(true)
	}

	title := r.Item.Title()
	if pos, ok := r.Matches[title]; ok {
		title = ui.Highlight(title, pos)
	} else {
		title = titleStyle.Render(title)
	}

	desc := r.Item.Description()
	if desc != "" {
		desc = "  " + ui.Muted.Render(desc)
	}

	return "  " + pointer + title + desc
}

func blinkCursor() string {
	return lipgloss.NewStyle().Foreground(ui.Teal).Render("▎")
}
