package main

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/puyokura/cmppfeed/compose"
	"github.com/puyokura/cmppfeed/logging"
	"github.com/puyokura/cmppfeed/model"
	"github.com/puyokura/cmppfeed/route"
	"github.com/puyokura/cmppfeed/session"
)

// Backend is the part of the server API the client uses. *api.Client
// implements it.
type Backend interface {
	compose.Poster
	Register(ctx context.Context, body any) (model.SubmissionResult, error)
}

// Network turns server and store operations into tea.Cmds so that they run
// off the event loop and report back with a message.
type Network struct {
	ctx      context.Context
	backend  Backend
	workflow *compose.Workflow
	store    session.ReadWriter
	nav      route.Navigator
	logger   logging.Logger
}

func NewNetwork(ctx context.Context, backend Backend, store session.ReadWriter, nav route.Navigator, logger logging.Logger) *Network {
	return &Network{
		ctx:      ctx,
		backend:  backend,
		workflow: compose.New(backend, nav, logger),
		store:    store,
		nav:      nav,
		logger:   logger,
	}
}

// navigateMsg asks the UI to switch to another route.
type navigateMsg string

// programNavigator forwards navigation into the running program. It must only
// be used from tea.Cmds, never from Update.
type programNavigator struct {
	program *tea.Program
}

func (p *programNavigator) Navigate(r string) {
	p.program.Send(navigateMsg(r))
}

type (
	submittedMsg struct {
		result compose.Result
	}
	submitFailedMsg struct {
		err error
	}
	loggedInMsg struct {
		name string
	}
	loginFailedMsg struct {
		err error
	}
	signedOutMsg struct {
		err error
	}
)

// SubmitPost runs the submission workflow for name.
func (n *Network) SubmitPost(name string) tea.Cmd {
	return func() tea.Msg {
		draft := model.PostDraft{StudentName: name}
		res, err := n.workflow.Submit(n.ctx, &draft)
		if err != nil {
			return submitFailedMsg{err: err}
		}
		return submittedMsg{result: res}
	}
}

// Login registers name with the server and stores it as the identity.
func (n *Network) Login(name string) tea.Cmd {
	return func() tea.Msg {
		name = strings.TrimSpace(name)
		ack, err := n.backend.Register(n.ctx, model.RegisterPayload{Name: name})
		if err != nil {
			n.logger.Error(n.ctx, "registration failed", "error", err)
			return loginFailedMsg{err: err}
		}
		n.logger.Info(n.ctx, "registered", "name", name, "response", string(ack))

		if err := n.store.Write(n.ctx, name); err != nil {
			n.logger.Error(n.ctx, "store identity failed", "error", err)
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{name: name}
	}
}

// SignOut clears the identity and navigates to the login route.
func (n *Network) SignOut() tea.Cmd {
	return func() tea.Msg {
		err := session.SignOut(n.ctx, n.store, n.nav)
		if err != nil {
			n.logger.Error(n.ctx, "sign-out failed to clear identity", "error", err)
		}
		return signedOutMsg{err: err}
	}
}

// Identity reads the stored display name.
func (n *Network) Identity() string {
	return n.store.Read(n.ctx)
}
