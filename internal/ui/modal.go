package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmRequest is one pending question for the modal dialog.
type confirmRequest struct {
	title   string
	message string
	reply   chan bool
}

type confirmMsg confirmRequest

// ModalConfirmer routes confirmations into a running bubbletea program,
// which shows them as a modal dialog and sends the answer back.
type ModalConfirmer struct {
	requests chan confirmRequest
}

// NewModalConfirmer returns a confirmer with no program attached yet.
// Confirm blocks until a program is listening.
func NewModalConfirmer() *ModalConfirmer {
	return &ModalConfirmer{requests: make(chan confirmRequest)}
}

func (m *ModalConfirmer) Confirm(ctx context.Context, title, message string) bool {
	req := confirmRequest{title: title, message: message, reply: make(chan bool, 1)}
	select {
	case m.requests <- req:
	case <-ctx.Done():
		return false
	}
	select {
	case ok := <-req.reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

// wait delivers the next request to the program.
func (m *ModalConfirmer) wait() tea.Cmd {
	return func() tea.Msg {
		return confirmMsg(<-m.requests)
	}
}

// answer resolves req. It never blocks.
func (req confirmRequest) answer(ok bool) {
	select {
	case req.reply <- ok:
	default:
	}
}
