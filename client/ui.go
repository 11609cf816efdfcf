package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/puyokura/cmppfeed/compose"
	"github.com/puyokura/cmppfeed/model"
	"github.com/puyokura/cmppfeed/route"
	"github.com/puyokura/cmppfeed/session"
)

var (
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E05A5A"))
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#E0A75A")).
			Padding(1, 2)
)

type modelState struct {
	network *Network

	route    string
	identity string

	login  textinput.Model
	draft  textinput.Model
	feed   viewport.Model
	ready  bool
	width  int
	height int

	// notice blocks all input until dismissed.
	notice     string
	status     string
	submitting bool
	lastAck    string
}

func initialModel(net *Network) modelState {
	login := textinput.New()
	login.Placeholder = "Your display name"
	login.CharLimit = 64
	login.Width = 30

	draft := textinput.New()
	draft.Placeholder = "Student name"
	draft.CharLimit = 256
	draft.Width = 30

	m := modelState{
		network: net,
		login:   login,
		draft:   draft,
		feed:    viewport.New(80, 10),
	}

	m.identity = net.Identity()
	if m.identity == model.DefaultIdentity {
		m = m.navigate(route.Login)
	} else {
		m = m.navigate(route.Compose)
	}
	return m
}

func (m modelState) Init() tea.Cmd {
	return textinput.Blink
}

// navigate switches the current route and moves focus to its input.
func (m modelState) navigate(r string) modelState {
	m.route = r
	m.login.Blur()
	m.draft.Blur()

	path, name, err := route.Parse(r)
	if err != nil {
		log.Printf("bad route %q: %v", r, err)
		return m
	}
	switch path {
	case route.Login:
		m.login.Focus()
	case route.Compose:
		m.draft.Focus()
	case route.FeedPath:
		m.feed.SetContent(m.feedContent(name))
		m.feed.GotoTop()
	}
	return m
}

func (m modelState) path() string {
	path, _, _ := route.Parse(m.route)
	return path
}

func (m modelState) Update(msg tea.Msg) (next tea.Model, cmd tea.Cmd) {
	// Panic recovery to catch crashes
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in Update: %v", r)
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			log.Printf("Stack trace:\n%s", buf[:n])
			next, cmd = m, nil
		}
	}()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.feed.Width = msg.Width
		m.feed.Height = max(msg.Height-6, 3)
		m.login.Width = max(msg.Width-4, 10)
		m.draft.Width = max(msg.Width-4, 10)
		m.ready = true
		return m, nil

	case navigateMsg:
		return m.navigate(string(msg)), nil

	case submittedMsg:
		m.submitting = false
		m.status = ""
		m.draft.SetValue("")
		m.lastAck = ackMessage(msg.result.Ack)
		if m.path() == route.FeedPath {
			_, name, _ := route.Parse(m.route)
			m.feed.SetContent(m.feedContent(name))
		}
		return m, nil

	case submitFailedMsg:
		m.submitting = false
		var verr *compose.ValidationError
		switch {
		case errors.As(msg.err, &verr):
			m.notice = "Please enter a student name before posting."
		case errors.Is(msg.err, compose.ErrSubmitInFlight):
			m.status = "Still posting, please wait."
		default:
			// The draft stays in the input so the user can retry.
			m.status = "Could not post: " + msg.err.Error()
		}
		return m, nil

	case loggedInMsg:
		m.identity = msg.name
		m.status = ""
		m.login.SetValue("")
		return m.navigate(route.Compose), nil

	case loginFailedMsg:
		m.status = "Could not sign in: " + msg.err.Error()
		return m, nil

	case signedOutMsg:
		m.identity = model.DefaultIdentity
		m.lastAck = ""
		if msg.err != nil {
			m.status = "Signed out, but the stored name could not be removed."
		} else {
			m.status = ""
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m modelState) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.notice != "" {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.notice = ""
		}
		return m, nil
	}

	if msg.Type == tea.KeyEsc {
		return m, tea.Quit
	}

	switch m.path() {
	case route.Login:
		if msg.Type == tea.KeyEnter {
			name := m.login.Value()
			if strings.TrimSpace(name) == "" {
				m.notice = "Please enter a display name."
				return m, nil
			}
			return m, m.network.Login(name)
		}

	case route.Compose:
		switch msg.Type {
		case tea.KeyCtrlO:
			return m, m.network.SignOut()
		case tea.KeyEnter:
			draft := model.PostDraft{StudentName: m.draft.Value()}
			if draft.Blank() {
				m.notice = "Please enter a student name before posting."
				return m, nil
			}
			m.submitting = true
			m.status = ""
			return m, m.network.SubmitPost(draft.StudentName)
		}

	case route.FeedPath:
		switch {
		case msg.Type == tea.KeyCtrlO:
			return m, m.network.SignOut()
		case msg.String() == "n":
			return m.navigate(route.Compose), nil
		}
	}

	return m.updateFocused(msg)
}

func (m modelState) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.path() {
	case route.Login:
		m.login, cmd = m.login.Update(msg)
	case route.Compose:
		m.draft, cmd = m.draft.Update(msg)
	case route.FeedPath:
		m.feed, cmd = m.feed.Update(msg)
	}
	return m, cmd
}

func (m modelState) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch m.path() {
	case route.Login:
		b.WriteString(titleStyle.Render("Sign in"))
		b.WriteString("\n")
		b.WriteString(m.login.View())
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter: sign in • esc: quit"))
	case route.Compose:
		b.WriteString(titleStyle.Render("New post"))
		b.WriteString("\n")
		b.WriteString(m.draft.View())
		b.WriteString("\n\n")
		if m.submitting {
			b.WriteString(hintStyle.Render("posting..."))
		} else {
			b.WriteString(hintStyle.Render("enter: post • ctrl+o: sign out • esc: quit"))
		}
	case route.FeedPath:
		b.WriteString(m.feed.View())
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("n: new post • ctrl+o: sign out • esc: quit"))
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(noticeStyle.Render(m.notice + "\n\n" + hintStyle.Render("enter: ok")))
	}
	return b.String()
}

func (m modelState) header() string {
	return fmt.Sprintf("%s %s  %s",
		badgeStyle.Render(session.Badge(m.identity)),
		m.identity,
		hintStyle.Render(m.route),
	)
}

func (m modelState) feedContent(name string) string {
	if name == "" {
		name = "everyone"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Feed for " + name))
	b.WriteString("\n\n")
	if m.lastAck != "" {
		b.WriteString(m.lastAck)
	} else {
		b.WriteString(hintStyle.Render("Nothing here yet."))
	}
	return b.String()
}

// ackMessage pulls the "message" field out of an acknowledgment, falling
// back to the raw JSON.
func ackMessage(ack model.SubmissionResult) string {
	var a model.Ack
	if err := json.Unmarshal(ack, &a); err == nil && a.Message != "" {
		return a.Message
	}
	return string(ack)
}
