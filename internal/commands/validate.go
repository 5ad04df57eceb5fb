package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/finconsol/internal/ingest"
)

type validateOutput struct {
	File   string   `yaml:"file"`
	Status string   `yaml:"status"`
	Errors []string `yaml:"errors,omitempty"`
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Run upload intake checks against a local budget file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runValidate(args[0])
			if err != nil {
				return err
			}
			if err := writeYAML(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if out.Status != string(ingest.StatusValid) {
				return fmt.Errorf("%s: %d problems", out.File, len(out.Errors))
			}
			return nil
		},
	}
}

func runValidate(path string) (validateOutput, error) {
	name := filepath.Base(path)
	if !ingest.Supported(name) {
		return validateOutput{}, fmt.Errorf("%w: %s", ingest.ErrUnsupportedFile, name)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return validateOutput{}, fmt.Errorf("reading %s: %w", path, err)
	}
	problems, err := ingest.SheetValidator{}.Validate(name, content)
	if err != nil {
		return validateOutput{}, fmt.Errorf("reading %s: %w", name, err)
	}
	out := validateOutput{File: name, Status: string(ingest.StatusValid)}
	if len(problems) > 0 {
		out.Status = string(ingest.StatusError)
		out.Errors = problems
	}
	return out, nil
}
