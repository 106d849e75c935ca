package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"whitepaper-guard/analysis/domain"
	"whitepaper-guard/analysis/infra"

	"github.com/spf13/cobra"
)

// identificador de admissão das análises locais
const cliIdentifier = "cli"

func newAnalyzeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a local whitepaper (.pdf, .html or text) and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadViper(*cfgFile)
			if err != nil {
				return err
			}
			cfg, err := readConfig(v)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), false, cfg.diagnostics)

			doc, err := infra.ExtractFile(args[0], cfg.fetchMaxChars)
			if err != nil {
				return describe(err, cfg.diagnostics)
			}

			a, err := buildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			sub, err := a.service.Submit(cmd.Context(), cliIdentifier, doc.Text)
			if err != nil {
				return describe(err, cfg.diagnostics)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"file":          args[0],
				"result":        sub.Analysis.Result,
				"rubricVersion": sub.Analysis.RubricVersion,
				"model":         sub.Analysis.Model,
				"truncated":     sub.Analysis.Truncated,
			})
		},
	}
}

// describe formata erros classificados; os demais (arquivo, config) saem como estão.
func describe(err error, diagnostics bool) error {
	var ce *domain.ClassifiedError
	if !errors.As(err, &ce) {
		return err
	}
	if diagnostics && ce.Detail != "" {
		return fmt.Errorf("%s: %s (%s)", ce.Kind, ce.Message, ce.Detail)
	}
	return fmt.Errorf("%s: %s", ce.Kind, ce.Message)
}
