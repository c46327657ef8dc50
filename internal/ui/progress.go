package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gofast/gofast/internal/utils"
)

type sentMsg int64

type finishMsg struct{ err error }

// transferModel renders one file's progress bar.
type transferModel struct {
	icon  string
	name  string
	total int64
	sent  int64
	bar   progress.Model
	done  bool
	err   error
}

func newTransferModel(icon, name string, total int64) transferModel {
	return transferModel{
		icon:  icon,
		name:  name,
		total: total,
		bar: progress.New(
			progress.WithGradient(ProgressStart, ProgressEnd),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

func (m transferModel) Init() tea.Cmd {
	return nil
}

func (m transferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sentMsg:
		m.sent = min(int64(msg), m.total)
	case finishMsg:
		m.done = true
		m.err = msg.err
		if msg.err == nil {
			m.sent = m.total
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m transferModel) percent() float64 {
	if m.total <= 0 {
		return 1
	}
	return float64(m.sent) / float64(m.total)
}

func (m transferModel) View() string {
	var b strings.Builder

	icon := m.icon
	switch {
	case m.done && m.err != nil:
		icon = IconError
	case m.done:
		icon = IconSuccess
	}

	fmt.Fprintf(&b, "%s %s %s %5.1f%% %s",
		icon,
		BoldStyle.Width(24).Render(utils.TruncateString(m.name, 22)),
		m.bar.ViewAs(m.percent()),
		m.percent()*100,
		MutedStyle.Render(fmt.Sprintf("(%s/%s)", utils.FormatSize(m.sent), utils.FormatSize(m.total))),
	)
	if m.done && m.err != nil {
		b.WriteString(" " + ErrorStyle.Render(m.err.Error()))
	}
	b.WriteString("\n")
	return b.String()
}

// TransferProgress shows a progress bar for one file while the chat prompt
// keeps stdin.
type TransferProgress struct {
	program *tea.Program
	exited  chan struct{}
}

// NewSendProgress creates a progress bar for an outgoing file.
func NewSendProgress(name string, total int64) *TransferProgress {
	model := newTransferModel(IconSend, name, total)
	return &TransferProgress{
		program: tea.NewProgram(model, tea.WithInput(nil), tea.WithOutput(Out)),
		exited:  make(chan struct{}),
	}
}

func (p *TransferProgress) Start() {
	go func() {
		defer close(p.exited)
		if _, err := p.program.Run(); err != nil {
			PrintWarningf("progress display failed: %v", err)
		}
	}()
}

// Update reports how many bytes have left the buffer.
func (p *TransferProgress) Update(sent int64) {
	p.program.Send(sentMsg(sent))
}

// Finish renders the final state and waits for the display to exit.
func (p *TransferProgress) Finish(err error) {
	p.program.Send(finishMsg{err: err})
	<-p.exited
}
