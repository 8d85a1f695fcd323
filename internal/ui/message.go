package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// run ties comparison messages to the comparison that produced them so a canceled run can't leak into the next.
type Msg struct {
	kind MsgKind
	run  int
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgComparisonComplete
	MsgBrowserOpened
)

type comparisonOutcome struct {
	result *models.ComparisonResult
	err    error
}

type browserOutcome struct {
	url string
	err error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(run int, update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, run: run, data: update}
}

// comparisonCompleteMsg is the constructor for [MsgComparisonComplete]
func comparisonCompleteMsg(run int, result *models.ComparisonResult, err error) Msg {
	return Msg{kind: MsgComparisonComplete, run: run, data: comparisonOutcome{result, err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(url string, err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: browserOutcome{url, err}}
}
