package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dedene/socialthread-cli/internal/api"
	"github.com/dedene/socialthread-cli/internal/media"
)

// State represents the current phase of the browser.
type State int

const (
	// StateBrowsing is the filterable post list.
	StateBrowsing State = iota
	// StateConfirmDelete asks before deleting the selected post.
	StateConfirmDelete
	// StateOverlay collects custom overlay text for the selected image.
	StateOverlay
	// StateDone means the browser is finished and ready to quit.
	StateDone
)

// Action is what the user chose to do with the selected post.
type Action int

const (
	ActionNone Action = iota
	ActionOpen
	ActionCopy
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "open"
	case ActionCopy:
		return "copy"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Result is the outcome of a browser session.
type Result struct {
	Action Action
	Post   api.Post
	// URL is the URL to open or copy: the post's display URL, or a
	// recomposed one when the user typed custom overlay text.
	URL string
}

const helpLine = "enter/o: open | c: copy | t: overlay text | d: delete | /: filter | esc: quit"

// Model is the bubbletea model for the feed browser.
type Model struct {
	state     State
	list      list.Model
	opts      media.Options
	result    Result
	cancelled bool
	width     int
	height    int
	ready     bool

	overlay textinput.Model
}

// NewBrowser creates a browser Model over posts. opts controls the display
// URLs shown for, opened from and copied from each post.
func NewBrowser(posts []api.Post, opts media.Options) Model {
	items := make([]list.Item, len(posts))
	for i, p := range posts {
		items[i] = NewPostItem(p, opts)
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Social Thread"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	return Model{
		state: StateBrowsing,
		list:  l,
		opts:  opts,
	}
}

// Init returns the initial command. The list handles its own init internally.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
		m.list.SetSize(wsm.Width, wsm.Height-2)
		m.overlay.Width = max(wsm.Width-4, 0)
		m.ready = true

		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		return m.cancel()
	}

	switch m.state {
	case StateBrowsing:
		return m.updateBrowsing(msg)
	case StateConfirmDelete:
		return m.updateConfirm(msg)
	case StateOverlay:
		return m.updateOverlay(msg)
	}

	return m, nil
}

func (m Model) cancel() (tea.Model, tea.Cmd) {
	m.cancelled = true
	m.result = Result{}
	m.state = StateDone

	return m, tea.Quit
}

func (m Model) finish(a Action, item PostItem, url string) (tea.Model, tea.Cmd) {
	m.result = Result{Action: a, Post: item.Post(), URL: url}
	m.state = StateDone

	return m, tea.Quit
}

func (m Model) updateBrowsing(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	if isKey && m.list.FilterState() != list.Filtering {
		item, hasItem := m.list.SelectedItem().(PostItem)

		switch keyMsg.String() {
		case "esc", "q":
			if m.list.FilterState() == list.FilterApplied && keyMsg.String() == "esc" {
				break // let the list clear the filter
			}

			return m.cancel()

		case "enter", "o":
			if hasItem {
				return m.finish(ActionOpen, item, item.DisplayURL())
			}

			return m, nil

		case "c":
			if hasItem {
				return m.finish(ActionCopy, item, item.DisplayURL())
			}

			return m, nil

		case "d":
			if !hasItem {
				return m, nil
			}

			if !item.Post().IsOwner {
				return m, m.list.NewStatusMessage("You can only delete your own posts")
			}

			m.state = StateConfirmDelete

			return m, nil

		case "t":
			if !hasItem {
				return m, nil
			}

			if media.KindOf(item.Post()) != media.KindImage {
				return m, m.list.NewStatusMessage("Text overlays apply to images only")
			}

			return m.startOverlay(item)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m Model) startOverlay(item PostItem) (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Placeholder = item.Post().Caption
	ti.CharLimit = 200

	if m.width > 4 {
		ti.Width = m.width - 4
	}

	ti.Focus()

	m.overlay = ti
	m.state = StateOverlay

	return m, textinput.Blink
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch strings.ToLower(keyMsg.String()) {
	case "y":
		if item, ok := m.list.SelectedItem().(PostItem); ok {
			return m.finish(ActionDelete, item, item.DisplayURL())
		}

		m.state = StateBrowsing
	case "n", "esc":
		m.state = StateBrowsing
	}

	return m, nil
}

func (m Model) updateOverlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = StateBrowsing
			return m, nil

		case "enter":
			item, ok := m.list.SelectedItem().(PostItem)
			if !ok {
				m.state = StateBrowsing
				return m, nil
			}

			p := item.Post()
			p.Caption = m.overlay.Value()

			// Typed text is applied even when captions are off in config.
			opts := m.opts
			opts.NoOverlay = false

			return m.finish(ActionCopy, item, media.DisplayURL(p, opts))
		}
	}

	var cmd tea.Cmd
	m.overlay, cmd = m.overlay.Update(msg)

	return m, cmd
}

// View renders the current state.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.state {
	case StateBrowsing:
		return m.list.View() + "\n  " + helpLine
	case StateConfirmDelete:
		return m.viewConfirm()
	case StateOverlay:
		return m.viewOverlay()
	}

	return ""
}

func (m Model) viewConfirm() string {
	item, _ := m.list.SelectedItem().(PostItem)
	return fmt.Sprintf("\n  Delete post %q (%s)? [y/N]\n", item.Title(), item.Post().ID)
}

func (m Model) viewOverlay() string {
	item, _ := m.list.SelectedItem().(PostItem)

	var b strings.Builder

	fmt.Fprintf(&b, "Post: %s\n\n", item.Title())
	fmt.Fprintf(&b, "  Overlay text: %s\n", m.overlay.View())
	b.WriteString("\n  Enter: copy URL | Esc: back | Ctrl+C: quit\n")

	return b.String()
}

// Result returns what the user chose. Action is ActionNone when cancelled.
func (m Model) Result() Result { return m.result }

// Cancelled returns true if the user quit without choosing an action.
func (m Model) Cancelled() bool { return m.cancelled }

// State returns the current browser state.
func (m Model) State() State { return m.state }
