package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/asaidimu/go-fetchxml/core/fetchxml"
	"github.com/asaidimu/go-fetchxml/dataverse"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Compact bool
	Output  string // output file path
}

// RenderResult is the JSON form of a rendered query.
type RenderResult struct {
	Entity   string `json:"entity"`
	FetchXML string `json:"fetchxml"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <query-file>",
		Short: "Render a query document to FetchXML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "remove whitespace between elements")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	doc, err := LoadDocument(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading "+path, err)
	}
	logger.Debug("Loaded query document",
		zap.String("path", path),
		zap.String("entity", doc.Schema.Name),
		zap.Int("linked", len(doc.Linked)))

	options := []dataverse.Option{dataverse.WithLogger(logger)}
	for _, linked := range doc.Linked {
		options = append(options, dataverse.WithLinkedEntity(linked))
	}
	generator, err := dataverse.NewFetchQuery(doc.Schema, options...)
	if err != nil {
		return WrapExitError(ExitFailure, "creating generator", err)
	}

	out, err := generator.GenerateFetchXML(&doc.Query)
	if err != nil {
		return WrapExitError(ExitFailure, "rendering query", err)
	}
	if opts.Compact {
		out = fetchxml.SanitizeQuery(out)
	}

	if opts.Format == "json" {
		data, err := json.MarshalIndent(RenderResult{Entity: doc.Schema.Name, FetchXML: out}, "", "  ")
		if err != nil {
			return err
		}
		out = string(data)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(out+"\n"), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "writing "+opts.Output, err)
		}
		logger.Debug("Wrote FetchXML", zap.String("path", opts.Output))
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
