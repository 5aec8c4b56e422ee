package results

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Step is one slow call of a scan, shown with its label while it runs.
type Step struct {
	Label string
	Run   func(context.Context) error
}

type stepDoneMsg struct {
	index int
	err   error
}

type progressModel struct {
	ctx     context.Context
	steps   []Step
	current int
	spinner spinner.Model
	styles  styles
	err     error
	done    bool
}

func newProgressModel(ctx context.Context, steps []Step) progressModel {
	return progressModel{
		ctx:   ctx,
		steps: steps,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("209"))),
		),
		styles: newStyles(),
	}
}

func (m progressModel) runStep(index int) tea.Cmd {
	step := m.steps[index]
	ctx := m.ctx
	return func() tea.Msg {
		return stepDoneMsg{index: index, err: step.Run(ctx)}
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runStep(0))
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepDoneMsg:
		if msg.err != nil || msg.index == len(m.steps)-1 {
			m.err = msg.err
			m.done = true
			return m, tea.Quit
		}
		m.current = msg.index + 1
		return m, m.runStep(m.current)
	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	counter := ""
	if len(m.steps) > 1 {
		counter = m.styles.header.Render(fmt.Sprintf("[%d/%d] ", m.current+1, len(m.steps)))
	}
	return fmt.Sprintf("%s %s%s", m.spinner.View(), counter, m.steps[m.current].Label)
}

// RunSteps runs steps in order behind a spinner written to output and
// returns the first error. A canceled ctx is reported as ctx.Err().
func RunSteps(ctx context.Context, output io.Writer, steps ...Step) error {
	if len(steps) == 0 {
		return nil
	}

	p := tea.NewProgram(
		newProgressModel(ctx, steps),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	result, ok := finalModel.(progressModel)
	if !ok {
		return ErrUnexpectedRenderModel
	}
	return result.err
}
