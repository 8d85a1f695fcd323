package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/incommon/internal/formatter"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/desertthunder/incommon/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	CompareView
	ResultView
)

// logDepth is how many recent progress messages the compare view keeps on screen.
const logDepth = 6

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	comparer tasks.Comparer
	site     *services.Site
	open     func(url string) error

	inputs  [2]textinput.Model
	focus   int
	handles [2]string

	run      int
	cancel   context.CancelFunc
	updates  chan tasks.ProgressUpdate
	done     chan Msg
	progress tasks.ProgressUpdate
	recent   []string
	spinner  spinner.Model
	bar      progress.Model

	pairList list.Model
	result   *models.ComparisonResult
	err      error
	status   string

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model. When both handles are given the comparison starts immediately.
func NewModel(ctx context.Context, comparer tasks.Comparer, site *services.Site, handleA, handleB string) *Model {
	m := &Model{
		ctx:      ctx,
		view:     InputView,
		comparer: comparer,
		site:     site,
		open:     shared.OpenBrowser,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	for i, placeholder := range []string{"first member", "second member"} {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 256
		ti.Width = 40
		m.inputs[i] = ti
	}
	m.inputs[0].SetValue(handleA)
	m.inputs[1].SetValue(handleB)
	m.inputs[0].Focus()

	if a, b, err := services.ParsePair(handleA, handleB); err == nil {
		m.handles = [2]string{a, b}
		m.view = CompareView
	}
	return m
}

// Init starts the comparison when handles were supplied, otherwise blinks the cursor.
func (m *Model) Init() tea.Cmd {
	if m.view == CompareView {
		return m.startCompare()
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultView && m.result != nil {
			m.pairList.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case CompareView:
			return m.handleCompareKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != CompareView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		if msg.run != m.run {
			return m, nil
		}
		update := msg.data.(tasks.ProgressUpdate)
		m.progress = update
		m.recent = append(m.recent, update.Message)
		if len(m.recent) > logDepth {
			m.recent = m.recent[len(m.recent)-logDepth:]
		}
		return m, m.waitForProgress()

	case MsgComparisonComplete:
		if msg.run != m.run {
			return m, nil
		}
		outcome := msg.data.(comparisonOutcome)
		m.finishRun()
		m.view = ResultView
		m.result = outcome.result
		m.err = outcome.err
		if m.err == nil && m.result != nil {
			m.pairList = list.New(pairItems(m.result), list.NewDefaultDelegate(), 0, 0)
			m.pairList.Title = formatter.Summary(m.result)
			m.pairList.SetSize(m.listSize())
		}
		return m, nil

	case MsgBrowserOpened:
		outcome := msg.data.(browserOutcome)
		if outcome.err != nil {
			m.status = fmt.Sprintf("Could not open browser: %v", outcome.err)
		} else {
			m.status = "Opened " + outcome.url
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case InputView:
		return m.renderInput()
	case CompareView:
		return m.renderCompare()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort), key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.prev):
		return m, m.setFocus(m.focus - 1)
	case key.Matches(msg, m.keys.submit):
		if m.focus == 0 && m.inputs[1].Value() == "" {
			return m, m.setFocus(1)
		}
		a, b, err := services.ParsePair(m.inputs[0].Value(), m.inputs[1].Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.handles = [2]string{a, b}
		m.view = CompareView
		return m, m.startCompare()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) handleCompareKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.finishRun()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.finishRun()
		m.run++
		m.view = InputView
		return m, m.setFocus(0)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.result != nil && m.pairList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.pairList, cmd = m.pairList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back) && m.pairList.FilterState() == list.Unfiltered:
		m.reset()
		return m, m.setFocus(0)
	case key.Matches(msg, m.keys.open):
		if m.result == nil {
			return m, nil
		}
		if item, ok := m.pairList.SelectedItem().(pairItem); ok {
			return m, m.openFilm(item.pair.Key)
		}
		return m, nil
	}

	if m.result == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.pairList, cmd = m.pairList.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case InputView:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	case ResultView:
		if m.result != nil {
			m.pairList, cmd = m.pairList.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	return m.inputs[m.focus].Focus()
}

func (m *Model) reset() {
	m.view = InputView
	m.result = nil
	m.err = nil
	m.status = ""
	m.recent = nil
	m.progress = tasks.ProgressUpdate{}
}

func (m *Model) listSize() (int, int) {
	w, h := m.width-4, m.height-6
	if w <= 0 {
		w = 76
	}
	if h <= 0 {
		h = 18
	}
	return w, h
}

// startCompare runs the comparison in a goroutine. Updates are drained one message at a time by waitForProgress.
func (m *Model) startCompare() tea.Cmd {
	m.run++
	m.recent = nil
	m.progress = tasks.ProgressUpdate{}
	m.err = nil

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.updates = make(chan tasks.ProgressUpdate, 64)
	m.done = make(chan Msg, 1)

	run, updates, done := m.run, m.updates, m.done
	a, b := m.handles[0], m.handles[1]
	go func() {
		result, err := m.comparer.Compare(ctx, updates, a, b)
		close(updates)
		done <- comparisonCompleteMsg(run, result, err)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	run, updates, done := m.run, m.updates, m.done
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return <-done
		}
		return progressUpdateMsg(run, update)
	}
}

func (m *Model) finishRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) openFilm(slug string) tea.Cmd {
	url := m.site.FilmURL(slug)
	open := m.open
	return func() tea.Msg {
		return browserOpenedMsg(url, open(url))
	}
}

func (m *Model) renderInput() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Films in common"))
	b.WriteString("\n")
	for i, owner := range []string{"Member A", "Member B"} {
		b.WriteString(styles.label.Render(owner))
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n\n")
	}
	if m.err != nil {
		b.WriteString(styles.err.Render(m.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.submit, m.keys.back}))
	return b.String()
}

func (m *Model) renderCompare() string {
	a, b := m.handles[0], m.handles[1]
	title := styles.title.Render(fmt.Sprintf("Comparing %s and %s",
		styles.ownerA.Render(a), styles.ownerB.Render(b)))

	var body strings.Builder
	body.WriteString(m.spinner.View())
	body.WriteString(" ")
	body.WriteString(m.phaseLabel())
	body.WriteString("\n")

	if m.progress.Phase == tasks.FetchPosters && m.progress.Total > 0 {
		body.WriteString("\n")
		body.WriteString(m.bar.ViewAs(float64(m.progress.Step) / float64(m.progress.Total)))
		body.WriteString("\n")
	}

	if len(m.recent) > 0 {
		body.WriteString("\n")
		for _, line := range m.recent {
			body.WriteString(styles.help.Render(line))
			body.WriteString("\n")
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, body.String(), helpView)
}

func (m *Model) phaseLabel() string {
	switch m.progress.Phase {
	case tasks.HarvestPage, tasks.HarvestDone:
		owner := styles.ownerA.Render(m.progress.Owner)
		if m.progress.Owner == m.handles[1] {
			owner = styles.ownerB.Render(m.progress.Owner)
		}
		return fmt.Sprintf("Reading %s's films...", owner)
	case tasks.MatchFilms:
		return "Matching films..."
	case tasks.FetchPosters:
		return fmt.Sprintf("Fetching posters (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Complete:
		return "Done"
	default:
		return "Fetching profiles..."
	}
}

func (m *Model) renderResult() string {
	if m.err != nil {
		msg := fmt.Sprintf("Comparison failed: %v", m.err)
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}
	if m.result == nil {
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	var status string
	if m.status != "" {
		status = "\n" + styles.help.Render(m.status)
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.open, m.keys.restart, m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s", m.pairList.View(), status, helpView)
}
