package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/shared"
)

const DefaultCommand = "ffplay"

// DefaultArgs play a stream without a window and exit when it ends.
var DefaultArgs = []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}

// ExecOpts configures an [ExecPlayer].
type ExecOpts struct {
	Command string   // Executable to run (default: ffplay)
	Args    []string // Arguments placed before the locator (default: DefaultArgs when Command is unset)
	Logger  *log.Logger
}

// ExecPlayer plays previews by running an external command with the locator as its last argument.
//
// The process exiting on its own is reported as natural completion. Stop kills the process and
// suppresses the completion callback.
type ExecPlayer struct {
	command string
	args    []string
	logger  *log.Logger

	mu    sync.Mutex
	procs map[string]*process
}

type process struct {
	cmd     *exec.Cmd
	stopped bool
}

// NewExecPlayer creates a player from opts.
func NewExecPlayer(opts ExecOpts) *ExecPlayer {
	if opts.Command == "" {
		opts.Command = DefaultCommand
		if opts.Args == nil {
			opts.Args = DefaultArgs
		}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &ExecPlayer{
		command: opts.Command,
		args:    append([]string(nil), opts.Args...),
		logger:  shared.WithLogger(opts.Logger, "component", "player"),
		procs:   make(map[string]*process),
	}
}

// Start launches the player for locator and returns a handle for Stop.
//
// ctx only guards the launch: once started, the process runs until it exits or Stop kills it.
// onComplete always runs on a separate goroutine.
func (p *ExecPlayer) Start(ctx context.Context, locator string, onComplete func(handle string)) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("%w: empty locator", shared.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	args := append(append([]string(nil), p.args...), locator)
	cmd := exec.Command(p.command, args...)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", p.command, err)
	}

	handle := shared.GenerateID()
	proc := &process{cmd: cmd}

	p.mu.Lock()
	p.procs[handle] = proc
	p.mu.Unlock()

	p.logger.Debug("player started", "handle", handle, "pid", cmd.Process.Pid)
	go p.wait(handle, proc, onComplete)
	return handle, nil
}

func (p *ExecPlayer) wait(handle string, proc *process, onComplete func(string)) {
	err := proc.cmd.Wait()

	p.mu.Lock()
	stopped := proc.stopped
	delete(p.procs, handle)
	p.mu.Unlock()

	if stopped {
		return
	}
	if err != nil {
		p.logger.Warn("player exited with error", "handle", handle, "err", err)
	}
	if onComplete != nil {
		onComplete(handle)
	}
}

// Stop kills the process behind handle. Unknown or finished handles are ignored.
func (p *ExecPlayer) Stop(handle string) error {
	p.mu.Lock()
	proc, ok := p.procs[handle]
	if ok {
		proc.stopped = true
	}
	p.mu.Unlock()

	if !ok {
		return nil
	}
	if err := proc.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop player: %w", err)
	}
	p.logger.Debug("player stopped", "handle", handle)
	return nil
}

// Running reports how many players have not exited yet.
func (p *ExecPlayer) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.procs)
}
