package juju

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// fakeResponse is a canned reply for one command.
type fakeResponse struct {
	stdout string
	err    error
}

// fakeRunner records commands and replies from per-subcommand queues. The
// last queued reply for a subcommand repeats once the queue is drained.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []Command
	responses map[string][]fakeResponse
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string][]fakeResponse)}
}

func (f *fakeRunner) on(sub string, replies ...fakeResponse) *fakeRunner {
	f.responses[sub] = append(f.responses[sub], replies...)
	return f
}

// subcommand returns the first argument that is not a global flag.
func subcommand(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "--") {
			return a
		}
	}
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	sub := subcommand(cmd.Args)
	queue := f.responses[sub]
	var resp fakeResponse
	switch len(queue) {
	case 0:
	case 1:
		resp = queue[0]
	default:
		resp = queue[0]
		f.responses[sub] = queue[1:]
	}
	f.mu.Unlock()

	if resp.stdout != "" && cmd.Stdout != nil {
		_, _ = cmd.Stdout.Write([]byte(resp.stdout))
	}
	return resp.err
}

func (f *fakeRunner) argsOf(sub string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, c := range f.calls {
		if subcommand(c.Args) == sub {
			out = append(out, c.Args)
		}
	}
	return out
}

func (f *fakeRunner) envOf(sub string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if subcommand(c.Args) == sub {
			return c.Env
		}
	}
	return nil
}

var errBoom = errors.New("boom")
