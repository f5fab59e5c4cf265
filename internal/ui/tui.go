package ui

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkopets/asyncdb/internal/db"
	"github.com/tkopets/asyncdb/internal/dispatch"
	apperrors "github.com/tkopets/asyncdb/internal/errors"
	"github.com/tkopets/asyncdb/internal/print"
	"github.com/tkopets/asyncdb/internal/query"
)

// Catppuccin Mocha.
var (
	borderColor = lipgloss.Color("#595B72")
	titleColor  = lipgloss.Color("#89DCEB")
	accentColor = lipgloss.Color("#C0A1F0")
	errorColor  = lipgloss.Color("#F38BA8")
	okColor     = lipgloss.Color("#A6E3A1")
	mutedColor  = lipgloss.Color("#9399B2")

	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(accentColor)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor)
	okStyle     = lipgloss.NewStyle().Foreground(okColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

const (
	maxLogLines = 500
	maxColWidth = 40
	// result sets above this size are only counted in the log
	maxLoggedRows = 10
)

// submitter is the part of the dispatcher the model needs.
type submitter interface {
	Submit(cmd query.Command)
}

// eventMsg carries a dispatcher event into the bubbletea loop.
type eventMsg struct {
	ev query.Event
}

type model struct {
	d       submitter
	label   string
	records int
	offset  func(n int) int

	ready    bool
	failed   bool
	prepared bool // lookup statement sent to the worker
	log      []string
	result   table.Model

	width, height int
}

func newModel(d submitter, label string, records int) model {
	t := table.New(table.WithFocused(true), table.WithHeight(10))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderForeground(borderColor).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#1E1E2E")).Background(titleColor)
	t.SetStyles(styles)

	return model{
		d:       d,
		label:   label,
		records: records,
		offset:  rand.IntN,
		result:  t,
	}
}

// Run shows the UI until the user quits. The dispatcher is started here and
// stopped on return.
func Run(ctx context.Context, d *dispatch.Dispatcher, label string, records int, logger *slog.Logger) error {
	p := tea.NewProgram(newModel(d, label, records), tea.WithAltScreen(), tea.WithContext(ctx))

	d.Subscribe(func(ev query.Event) { p.Send(eventMsg{ev: ev}) })
	if err := d.Start(); err != nil {
		return err
	}
	defer stop(d, logger)

	_, err := p.Run()
	return err
}

type stopper interface {
	Stop() error
}

func stop(d stopper, logger *slog.Logger) {
	if err := d.Stop(); err != nil {
		logger.Warn("closing connection failed", "err", err)
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.dispatchDemo()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.result.SetWidth(max(msg.Width-4, 20))
		m.result.SetHeight(max(msg.Height/2-4, 3))
		return m, nil
	case eventMsg:
		m.handleEvent(msg.ev)
		return m, nil
	}

	var cmd tea.Cmd
	m.result, cmd = m.result.Update(msg)
	return m, cmd
}

func (m *model) dispatchDemo() {
	if !m.ready {
		m.appendLog(mutedStyle.Render("not ready yet"))
		return
	}

	offset := 0
	if m.records > pageSize {
		offset = m.offset(m.records - pageSize)
	}

	m.appendLog("Running queries, please wait...")
	cmds := DemoBatch(offset, !m.prepared)
	m.prepared = true
	for _, c := range cmds {
		if e, ok := c.(query.Execute); ok && e.SQL != "" {
			m.appendLog(fmt.Sprintf("%s:: Executing: %s", e.QueryID, e.SQL))
		}
		m.d.Submit(c)
	}
	m.appendLog("Dispatched all queries.")
}

func (m *model) handleEvent(ev query.Event) {
	switch e := ev.(type) {
	case query.Ready:
		m.ready = e.OK
		m.failed = e.Err != nil
		if e.Err != nil {
			m.appendLog(errorStyle.Render(query.Describe(ev)))
		}
	case query.Progress:
		m.appendLog(e.Message)
	case query.Results:
		m.appendLog(query.Describe(ev))
		if e.Rows.Len() > maxLoggedRows {
			m.appendLog(fmt.Sprintf("%s:: more than %d", e.QueryID, maxLoggedRows))
		} else {
			for _, row := range e.Rows.Data {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = print.FormatCell(v)
				}
				m.appendLog(fmt.Sprintf("%s: %s", e.QueryID, strings.Join(cells, ",")))
			}
		}
		m.showRows(e.Rows)
	case query.PrepareFailed:
		if e.QueryID == lookupID && apperrors.KindOf(e.Err) != apperrors.DuplicateStatement {
			m.prepared = false
		}
		m.appendLog(errorStyle.Render(query.Describe(ev)))
	case query.ExecuteFailed, query.Rejected:
		m.appendLog(errorStyle.Render(query.Describe(ev)))
	default:
		m.appendLog(mutedStyle.Render(query.Describe(ev)))
	}
}

// showRows replaces the result table. Rows are cleared first so the table
// never renders old rows against new columns.
func (m *model) showRows(rows *db.Rows) {
	cols := make([]table.Column, len(rows.Columns))
	for i, c := range rows.Columns {
		cols[i] = table.Column{Title: c.Name, Width: min(max(len(c.Name), 4), maxColWidth)}
	}

	data := make([]table.Row, len(rows.Data))
	for r, row := range rows.Data {
		cells := make(table.Row, len(cols))
		for i := range cols {
			if i < len(row) {
				cells[i] = print.FormatCell(row[i])
				cols[i].Width = min(max(cols[i].Width, len(cells[i])), maxColWidth)
			}
		}
		data[r] = cells
	}

	m.result.SetRows(nil)
	m.result.SetColumns(cols)
	m.result.SetRows(data)
	m.result.GotoTop()
}

func (m *model) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m model) View() string {
	status := mutedStyle.Render("connecting…")
	switch {
	case m.ready:
		status = okStyle.Render("ready")
	case m.failed:
		status = errorStyle.Render("connection failed")
	}
	header := fmt.Sprintf("%s  %s  %s", titleStyle.Render("ASYNCDB"), accentStyle.Render(strings.ToUpper(m.label)), status)

	logHeight := 10
	if m.height > 0 {
		logHeight = max(m.height-m.result.Height()-10, 3)
	}
	lines := m.log
	if len(lines) > logHeight {
		lines = lines[len(lines)-logHeight:]
	}

	width := max(m.width-2, 20)
	logPane := paneStyle.Width(width - 2).Render(titleStyle.Render("Log") + "\n" + strings.Join(lines, "\n"))
	resultPane := paneStyle.Width(width - 2).Render(titleStyle.Render("Results") + "\n" + m.result.View())

	help := mutedStyle.Render("g: run queries  ↑/↓: scroll results  q: quit")
	if !m.ready {
		help = mutedStyle.Render("g: waiting for database  q: quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, logPane, resultPane, help)
}
