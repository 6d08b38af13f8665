package directives

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrNoWorkspace = errors.New("no workspace root is open")

// Result is the outcome of applying one directive. Err is nil on success.
type Result struct {
	Directive    Directive
	ResolvedPath string
	Err          error
}

func (r Result) Message() string {
	if r.Err != nil {
		return fmt.Sprintf("Failed to write file %s: %s", r.Directive.TargetPath, r.Err)
	}
	return fmt.Sprintf("✅ Wrote to file: %s", r.Directive.TargetPath)
}

type Processor struct {
	fs   afero.Fs
	root string
}

type ProcessorOption func(*Processor)

// WithWorkspaceRoot sets the directory relative paths are resolved against.
func WithWorkspaceRoot(root string) ProcessorOption {
	return func(p *Processor) {
		p.root = root
	}
}

func NewProcessor(fs afero.Fs, options ...ProcessorOption) *Processor {
	p := &Processor{fs: fs}
	for _, o := range options {
		o(p)
	}
	return p
}

func NewOsProcessor(root string) *Processor {
	return NewProcessor(afero.NewOsFs(), WithWorkspaceRoot(root))
}

// Apply parses text and writes every directive. A failing directive does not
// stop the ones after it.
func (p *Processor) Apply(text string) []Result {
	directives := Parse(text)
	ret := make([]Result, 0, len(directives))
	for _, d := range directives {
		r := Result{Directive: d}
		r.ResolvedPath, r.Err = p.apply(d)
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("path", d.TargetPath).Msg("could not apply write_file directive")
		} else {
			log.Info().Str("path", r.ResolvedPath).Int("bytes", len(d.Body)).Msg("applied write_file directive")
		}
		ret = append(ret, r)
	}
	return ret
}

func (p *Processor) apply(d Directive) (string, error) {
	path, err := p.Resolve(d.TargetPath)
	if err != nil {
		return "", err
	}
	if err := p.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, err
	}
	if err := afero.WriteFile(p.fs, path, []byte(d.Body), 0o644); err != nil {
		return path, err
	}
	return path, nil
}

// Resolve maps a directive path to a filesystem path. Paths with a volume
// marker or a leading separator are absolute, everything else is relative to
// the workspace root.
func (p *Processor) Resolve(target string) (string, error) {
	if target == "" {
		return "", errors.New("empty path")
	}
	if IsAbsolute(target) {
		return target, nil
	}
	if p.root == "" {
		return "", ErrNoWorkspace
	}
	return filepath.Join(p.root, target), nil
}

func IsAbsolute(target string) bool {
	return strings.Contains(target, ":") ||
		strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, `\`) ||
		strings.HasPrefix(target, string(os.PathSeparator))
}
