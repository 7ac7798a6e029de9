// Package minify drives the external JavaScript minifier.
package minify

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

// Minifier compresses one script into another. Paths are relative to the site root.
type Minifier interface {
	// Prepare makes sure the tool is available and reports whether it had to be installed.
	Prepare(ctx context.Context) (installed bool, err error)
	Minify(ctx context.Context, src, dst string) error
}

// RunFunc executes a command and returns its combined output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Terser shells out to the terser CLI.
type Terser struct {
	root        string
	bin         string
	autoInstall bool

	run      RunFunc
	lookPath func(string) (string, error)

	mu       sync.Mutex
	resolved string
}

type Option func(*Terser)

// WithRunner replaces process execution.
func WithRunner(run RunFunc) Option {
	return func(t *Terser) { t.run = run }
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(t *Terser) { t.lookPath = fn }
}

// NewTerser minifies files under root using bin, installing it through npm when
// autoInstall is set and the binary is not on PATH.
func NewTerser(root, bin string, autoInstall bool, opts ...Option) *Terser {
	if bin == "" {
		bin = "terser"
	}
	t := &Terser{
		root:        root,
		bin:         bin,
		autoInstall: autoInstall,
		run:         execRun,
		lookPath:    exec.LookPath,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

var _ Minifier = (*Terser)(nil)

// Prepare resolves the binary once per Terser.
func (t *Terser) Prepare(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resolved != "" {
		return false, nil
	}

	if p, err := t.lookPath(t.bin); err == nil {
		t.resolved = p
		return false, nil
	}

	if !t.autoInstall {
		return false, apperrors.Newf(apperrors.CodeUnavailable, "%s not found in PATH", t.bin)
	}

	logger.L().Info("installing minifier", zap.String("package", "terser"))
	if out, err := t.run(ctx, "npm", "install", "-g", "terser"); err != nil {
		return false, apperrors.Wrap(err, apperrors.CodeUnavailable, "npm install -g terser").
			WithMeta("output", strings.TrimSpace(string(out)))
	}

	p, err := t.lookPath(t.bin)
	if err != nil {
		return true, apperrors.Wrap(err, apperrors.CodeUnavailable, t.bin+" still not found after install")
	}
	t.resolved = p
	return true, nil
}

// Args is the argument list for minifying src into dst.
func (t *Terser) Args(src, dst string) []string {
	return []string{t.abs(src), "-o", t.abs(dst), "--compress", "--mangle"}
}

// Minify runs terser on one file.
func (t *Terser) Minify(ctx context.Context, src, dst string) error {
	t.mu.Lock()
	bin := t.resolved
	t.mu.Unlock()
	if bin == "" {
		return apperrors.New(apperrors.CodeInternal, "minifier used before Prepare")
	}

	logger.L().Debug("minifying script", zap.String("src", src), zap.String("dst", dst))
	if out, err := t.run(ctx, bin, t.Args(src, dst)...); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, fmt.Sprintf("minify %s", src)).
			WithMeta("output", strings.TrimSpace(string(out)))
	}
	return nil
}

func (t *Terser) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.root, filepath.FromSlash(p))
}
