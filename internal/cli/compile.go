package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wherekit/internal/compiler"
	"github.com/roach88/wherekit/internal/harness"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	OutputDir string // directory for YAML scenario files
}

// CompiledScenario is one CUE scenario and the filter it builds.
type CompiledScenario struct {
	Name   string   `json:"name"`
	Where  string   `json:"where"`
	SQL    string   `json:"sql"`
	Params []any    `json:"params"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// CompilationResult holds every compiled scenario.
type CompilationResult struct {
	Scenarios []CompiledScenario `json:"scenarios"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <cue-dir>",
		Short: "Compile CUE scenarios",
		Long: `Compile the "scenario" structs of a CUE package.

Every scenario is built and its rendered filter and parameterized SQL are
printed. With --output-dir each scenario is also written as a YAML file
that "wherekit run" accepts.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "write scenarios as YAML files to this directory")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadCUEScenarios(dir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return formatter.Fail(ExitCommandError, code, message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &CompilationResult{}
	for _, s := range loadResult.Scenarios {
		formatter.VerboseLog("Compiling scenario: %s", s.Name)
		run, err := harness.Run(s)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalid, fmt.Sprintf("scenario %s: %v", s.Name, err))
		}
		result.Scenarios = append(result.Scenarios, CompiledScenario{
			Name:   s.Name,
			Where:  run.Where,
			SQL:    run.SQL,
			Params: run.Params,
			Pass:   run.Pass,
			Errors: run.Errors,
		})
	}

	if opts.OutputDir != "" {
		if err := writeScenarioFiles(loadResult.Scenarios, opts.OutputDir); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing scenario files: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.OutputDir)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputDir string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "\u2713 Compiled %d scenario(s)\n\n", len(result.Scenarios))
	for _, s := range result.Scenarios {
		fmt.Fprintf(w, "%s:\n", s.Name)
		fmt.Fprintf(w, "  where:  %s\n", s.Where)
		fmt.Fprintf(w, "  sql:    %s\n", s.SQL)
		fmt.Fprintf(w, "  params: %v\n", s.Params)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  ! %s\n", e)
		}
	}

	if outputDir != "" {
		fmt.Fprintf(w, "\nWrote %d scenario file(s) to %s\n", len(result.Scenarios), outputDir)
	}
	return nil
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "\u2717 Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeScenarioFiles writes each scenario to <dir>/<name>.yaml.
func writeScenarioFiles(scenarios []*harness.Scenario, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, s := range scenarios {
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", s.Name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, s.Name+".yaml"), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", s.Name, err)
		}
	}
	return nil
}
