package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	nberrors "github.com/pythonot/nbrun/internal/errors"
	"github.com/pythonot/nbrun/internal/logfields"
)

// Executor runs a notebook in place inside the working directory.
type Executor interface {
	Execute(ctx context.Context, path string) error
}

// NbconvertExecutor shells out to jupyter nbconvert:
//
//	jupyter nbconvert --to notebook --ExecutePreprocessor.timeout=600 --execute --inplace <path>
//
// The timeout is the preprocessor's per-cell limit; the overall invocation
// runs until the notebook finishes or the context is canceled.
type NbconvertExecutor struct {
	jupyter string
	timeout time.Duration
}

// NewNbconvertExecutor creates an executor using the given jupyter executable.
func NewNbconvertExecutor(jupyter string, timeout time.Duration) *NbconvertExecutor {
	return &NbconvertExecutor{
		jupyter: jupyter,
		timeout: timeout,
	}
}

// Available checks that the jupyter executable can be found before any
// notebook is copied, so a missing installation fails the run up front.
func (e *NbconvertExecutor) Available() error {
	if _, err := exec.LookPath(e.jupyter); err != nil {
		return nberrors.Wrap(err, nberrors.CategoryExecution, "jupyter executable not found").
			WithContext("jupyter", e.jupyter)
	}
	return nil
}

func (e *NbconvertExecutor) args(path string) []string {
	return []string{
		"nbconvert",
		"--to", "notebook",
		fmt.Sprintf("--ExecutePreprocessor.timeout=%d", int(e.timeout.Seconds())),
		"--execute",
		"--inplace",
		path,
	}
}

// Execute runs the notebook at path in place. Converter output is passed
// through so execution progress and tracebacks stay visible.
func (e *NbconvertExecutor) Execute(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, e.jupyter, e.args(path)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Debug("Executing notebook", logfields.Path(path))
	if err := cmd.Run(); err != nil {
		return nberrors.Wrap(err, nberrors.CategoryExecution, "notebook execution failed").
			WithContext("path", path)
	}
	return nil
}
