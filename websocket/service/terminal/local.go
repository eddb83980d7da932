package terminal

import (
	"context"
	"os"
	"os/exec"

	"github.com/creack/pty"

	"filedeck/logging"
)

// PTYShell is a login shell attached to a pseudo-terminal.
type PTYShell struct {
	terminate context.CancelFunc

	*os.File
}

func (p *PTYShell) Resize(rows, cols int) error {
	return pty.Setsize(p.File, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func (p *PTYShell) Close() error {
	p.terminate()
	return p.File.Close()
}

// LocalProvider starts shells on the host machine.
type LocalProvider struct{}

func (l *LocalProvider) NewShell(cwd string) (Shell, error) {
	ctx, cancel := context.WithCancel(context.Background())

	command := exec.CommandContext(ctx, "bash", "-l")

	if cwd != "" {
		command.Dir = cwd
	} else {
		command.Dir = defaultCwd()
	}

	command.Env = append(os.Environ(), "TERM=xterm-256color")

	f, err := pty.Start(command)
	if err != nil {
		logging.S().Errorw("failed to start pty", "cwd", command.Dir, "error", err)
		cancel()
		return nil, err
	}

	sh := &PTYShell{
		File:      f,
		terminate: cancel,
	}

	go func() {
		<-ctx.Done()
		sh.Close()
	}()

	return sh, nil
}
