package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/waveline/strobe/internal/blocks"
	"github.com/waveline/strobe/internal/compile"
	"github.com/waveline/strobe/internal/cueload"
)

// ErrCodeGeneric is the fallback error code for errors that carry no
// code of their own.
const ErrCodeGeneric = "C000"

// loadAndCompile loads a CUE patch file and runs the full pipeline
// against the builtin catalog. Load errors come back as-is; the compile
// result always has a populated frontend.
func loadAndCompile(path string) (*compile.Result, []error) {
	snap, errs := cueload.LoadFile(path)
	if len(errs) > 0 {
		return nil, errs
	}
	return compile.Compile(snap, blocks.Builtin()), nil
}

// errorCode extracts the code from a loader error.
func errorCode(err error) (string, string) {
	var loadErr *cueload.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// outputLoadErrors reports loader errors and returns the command error.
func outputLoadErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := errorCode(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		})
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Load failed")
		fmt.Fprintln(formatter.Writer)
		for _, err := range errs {
			fmt.Fprintf(formatter.Writer, "  %v\n", err)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("load failed with %d error(s)", len(errs)))
}
