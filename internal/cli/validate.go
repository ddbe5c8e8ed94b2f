package cli

import (
	"encoding/json"
	"fmt"

	"github.com/asaidimu/go-fetchxml/core/query"
	"github.com/spf13/cobra"
)

// ValidationReport lists the structural problems of a query document.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Check a query document without rendering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	doc, err := LoadDocument(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading "+path, err)
	}

	var report ValidationReport
	for _, e := range doc.Schema.Validate() {
		report.Errors = append(report.Errors, e.Error())
	}
	for _, linked := range doc.Linked {
		for _, e := range linked.Validate() {
			report.Errors = append(report.Errors, e.Error())
		}
	}
	for _, e := range query.ValidateDSL(&doc.Query).Errors {
		report.Errors = append(report.Errors, e.Error())
	}
	report.Valid = len(report.Errors) == 0

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	} else if report.Valid {
		fmt.Fprintf(w, "✓ %s is valid\n", path)
	} else {
		for _, e := range report.Errors {
			fmt.Fprintf(w, "✗ %s\n", e)
		}
	}

	if !report.Valid {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d validation error(s)", len(report.Errors))}
	}
	return nil
}
