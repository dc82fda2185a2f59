package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/mnxnorm/internal/tui/components"
)

// Progress reports pipeline stages. Interactive output is a bubbletea
// spinner per stage; otherwise one plain line is printed per finished stage.
// Progress satisfies services.StageObserver.
type Progress struct {
	out     io.Writer
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

// NewProgress writes to out. The spinner program starts immediately when
// interactive is true; call Close to stop it.
func NewProgress(out io.Writer, interactive bool) *Progress {
	p := &Progress{out: out}
	if !interactive {
		return p
	}
	p.program = tea.NewProgram(newProgressModel(), tea.WithOutput(out), tea.WithInput(nil))
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
	return p
}

func (p *Progress) StageStarted(stage string) {
	if p.program != nil {
		p.program.Send(stageStartedMsg{stage: stage})
	}
}

func (p *Progress) StageFinished(stage string, elapsed time.Duration, err error) {
	if p.program != nil {
		p.program.Send(stageFinishedMsg{stage: stage, elapsed: elapsed, err: err})
		return
	}
	fmt.Fprintln(p.out, stageLine(stage, elapsed, err))
}

// Close stops the spinner program and waits for its final frame.
func (p *Progress) Close() {
	if p.program == nil {
		return
	}
	p.once.Do(func() {
		p.program.Send(progressClosedMsg{})
		<-p.done
	})
}

func stageLine(stage string, elapsed time.Duration, err error) string {
	if err != nil {
		return fmt.Sprintf("%s %s: %v", SymbolCross, stage, err)
	}
	return fmt.Sprintf("%s %s (%s)", SymbolCheck, stage, elapsed.Round(time.Millisecond))
}

type (
	stageStartedMsg  struct{ stage string }
	stageFinishedMsg struct {
		stage   string
		elapsed time.Duration
		err     error
	}
	progressClosedMsg struct{}
)

type progressModel struct {
	finished []string
	spinner  components.Spinner
	active   bool
	closed   bool
}

func newProgressModel() progressModel {
	return progressModel{}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageStartedMsg:
		m.spinner = components.NewSpinner(msg.stage + "...")
		m.active = true
		return m, m.spinner.Init()
	case stageFinishedMsg:
		m.active = false
		line := stageLine(msg.stage, msg.elapsed, msg.err)
		if msg.err != nil {
			line = ErrorStyle.Render(line)
		} else {
			line = SuccessStyle.Render(line)
		}
		m.finished = append(m.finished, line)
		return m, nil
	case progressClosedMsg:
		m.closed = true
		m.active = false
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	if m.active {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	for _, line := range m.finished {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.active {
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	}
	return b.String()
}
