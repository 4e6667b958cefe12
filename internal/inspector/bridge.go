package inspector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const stderrTailBytes = 32 * 1024

// Bridge owns the lifecycle of one long-lived Python subprocess and is the
// only code in this repo that crosses the language boundary (§4.3). All
// requests are synchronous from the caller's perspective; the bridge
// serializes them internally since only one can be in flight at a time.
type Bridge struct {
	command []string
	logger  *zap.Logger

	mu          sync.Mutex
	proc        *process
	backoff     *backoff.ExponentialBackOff
	nextAttempt time.Time
	lastErr     error
}

type process struct {
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Reader
	stderr *tailBuffer
}

// NewBridge constructs a Bridge for the given interpreter invocation
// (typically `[python, -m, djls_inspector]` or similar; the command is
// caller-supplied configuration, never guessed). logger receives Info/Warn
// subprocess lifecycle events (spawn, crash, respawn, §A.1); a nil logger
// disables logging rather than panicking.
func NewBridge(command []string, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		command: command,
		logger:  logger,
		backoff: backoff.NewExponentialBackOff(),
	}
}

// Templatetags issues a TemplatetagsRequest (§3.2, §6.1).
func (b *Bridge) Templatetags(ctx context.Context) (*Inventory, error) {
	var inv Inventory
	if err := b.call(ctx, kindTemplatetags, struct{}{}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// PythonEnv issues a PythonEnvRequest.
func (b *Bridge) PythonEnv(ctx context.Context) (*PythonEnv, error) {
	var env PythonEnv
	if err := b.call(ctx, kindPythonEnv, struct{}{}, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// DjangoInit issues a DjangoInitRequest, returning whether django.setup()
// succeeded inside the subprocess.
func (b *Bridge) DjangoInit(ctx context.Context) (bool, error) {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := b.call(ctx, kindDjangoInit, struct{}{}, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// TemplateDirs issues a TemplateDirsRequest.
func (b *Bridge) TemplateDirs(ctx context.Context) ([]string, error) {
	var resp struct {
		Dirs []string `json:"dirs"`
	}
	if err := b.call(ctx, kindTemplateDirs, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Dirs, nil
}

// Close terminates the subprocess, if running. Safe to call even if no
// subprocess was ever started.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proc == nil {
		return nil
	}
	err := terminate(b.proc.cmd)
	b.proc = nil
	return err
}

// call sends one request and waits for its matching response, respawning
// the subprocess first if it is not currently running. A crashed
// subprocess is respawned lazily here, on the next call, never eagerly
// (§4.3): the caller is responsible for invalidating any previously
// obtained inventory via compare-then-set once an error is returned.
func (b *Bridge) call(ctx context.Context, kind requestKind, req, resp any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc == nil {
		if err := b.respawnLocked(); err != nil {
			return err
		}
	}

	id := newRequestID()
	if err := writeRequest(b.proc.stdin, kind, id, req); err != nil {
		b.killLocked()
		return err
	}
	if err := b.proc.stdin.Flush(); err != nil {
		b.killLocked()
		return fmt.Errorf("inspector: flush request: %w", err)
	}

	env, err := readResponse(b.proc.stdout, id)
	if err != nil {
		stderr := b.proc.stderr.String()
		b.logger.Warn("inspector: subprocess crashed, will respawn lazily", zap.Error(err), zap.String("stderr_tail", stderr))
		b.killLocked()
		if stderr != "" {
			return fmt.Errorf("%w (stderr: %s)", err, stderr)
		}
		return err
	}
	if resp != nil && len(env.Data) > 0 {
		if err := decodeInto(env.Data, resp); err != nil {
			return err
		}
	}
	b.backoff.Reset()
	return nil
}

// respawnLocked starts a fresh subprocess, refusing to try again before
// the backoff policy's next allowed attempt if the previous respawn
// failed — this is what keeps a persistently broken interpreter from
// being busy-looped (§C.3).
func (b *Bridge) respawnLocked() error {
	if now := time.Now(); now.Before(b.nextAttempt) {
		return fmt.Errorf("inspector: respawn backing off until %s: %w", b.nextAttempt.Format(time.RFC3339), b.lastErr)
	}

	if len(b.command) == 0 {
		return errors.New("inspector: no interpreter command configured")
	}

	b.logger.Info("inspector: spawning subprocess", zap.Strings("command", b.command))

	cmd := exec.Command(b.command[0], b.command[1:]...) //nolint:gosec // command is explicit configuration
	configureProcessGroup(cmd)
	stderr := newTailBuffer(stderrTailBytes)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return b.recordFailureLocked(fmt.Errorf("inspector: stdin pipe: %w", err))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return b.recordFailureLocked(fmt.Errorf("inspector: stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return b.recordFailureLocked(fmt.Errorf("inspector: start: %w", err))
	}

	b.proc = &process{
		cmd:    cmd,
		stdin:  bufio.NewWriter(stdin),
		stdout: bufio.NewReader(stdout),
		stderr: stderr,
	}
	b.lastErr = nil
	b.nextAttempt = time.Time{}
	return nil
}

func (b *Bridge) recordFailureLocked(err error) error {
	b.lastErr = err
	b.nextAttempt = time.Now().Add(b.backoff.NextBackOff())
	b.logger.Warn("inspector: respawn failed, backing off", zap.Error(err), zap.Time("next_attempt", b.nextAttempt))
	return err
}

func (b *Bridge) killLocked() {
	if b.proc == nil {
		return
	}
	_ = terminate(b.proc.cmd)
	b.proc = nil
}

func terminate(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := cmd.Process.Pid
	var termErr error
	if err := killProcessGroup(pid, syscall.SIGTERM); err != nil && !isNoSuchProcess(err) {
		termErr = err
		if killErr := cmd.Process.Kill(); killErr != nil && !isNoSuchProcess(killErr) {
			termErr = errors.Join(termErr, killErr)
		}
	}
	_ = cmd.Wait()
	return termErr
}
