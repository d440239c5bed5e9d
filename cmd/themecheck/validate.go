package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pitabwire/obsthemes/internal/catalog"
	"github.com/pitabwire/obsthemes/model"
)

const stdinName = "<stdin>"

type validateOptions struct {
	dir    string
	format string
	strict bool
}

func newValidateCmd(global *globalOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate theme files, or every theme in the theme directory",
		Long: "Validate the named theme files, or every theme in the theme directory when\n" +
			"no files are given. Use - to read a document from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", opts.format)
			}
			tk, err := global.setup(opts.dir)
			if err != nil {
				return err
			}
			defer tk.logger.Sync()
			return runValidate(cmd, tk, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "", "theme directory (overrides config)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on warnings as well as errors")
	return cmd
}

func runValidate(cmd *cobra.Command, tk *toolkit, opts *validateOptions, args []string) error {
	ctx := cmd.Context()

	var (
		result model.CatalogValidation
		err    error
	)
	if len(args) == 0 {
		var files []model.ThemeFile
		files, err = tk.loader.Scan(ctx, tk.cfg.Themes.Directory)
		if err != nil {
			return err
		}
		tk.logger.Debug("validating theme directory",
			zap.String("dir", tk.cfg.Themes.Directory), zap.Int("themes", len(files)))
		result, err = tk.aggregator.ValidateFiles(ctx, files)
	} else {
		result, err = validateArgs(cmd, tk, args)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printValidation(out, result)
	}

	if result.ErrorCount() > 0 || (opts.strict && result.WarningCount() > 0) {
		return errFailed
	}
	return nil
}

// validateArgs validates the named files in argument order. Files that cannot
// be read are reported as failed documents rather than aborting the run.
func validateArgs(cmd *cobra.Command, tk *toolkit, args []string) (model.CatalogValidation, error) {
	var (
		docs   []catalog.Document
		failed = map[int]model.DocumentValidation{}
	)
	for i, arg := range args {
		doc, err := loadArg(cmd.InOrStdin(), tk.loader, arg)
		if err != nil {
			tk.logger.Debug("unreadable theme file", zap.String("path", arg), zap.Error(err))
			failed[i] = model.DocumentValidation{Name: arg, Error: fmt.Sprintf("Could not read file: %v", err)}
			continue
		}
		docs = append(docs, doc)
	}

	validated, err := tk.aggregator.ValidateDocuments(cmd.Context(), docs)
	if err != nil {
		return model.CatalogValidation{}, err
	}
	if len(failed) == 0 {
		return validated, nil
	}

	merged := make([]model.DocumentValidation, 0, len(args))
	next := 0
	for i := range args {
		if dv, ok := failed[i]; ok {
			merged = append(merged, dv)
			continue
		}
		merged = append(merged, validated.Validations[next])
		next++
	}
	return model.CatalogValidation{Validations: merged, DuplicateIDs: validated.DuplicateIDs}, nil
}

func loadArg(stdin io.Reader, loader *catalog.Loader, arg string) (catalog.Document, error) {
	if arg != "-" {
		doc, err := loader.LoadFile(arg)
		if err != nil {
			return catalog.Document{}, err
		}
		doc.Name = arg
		return doc, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return catalog.Document{}, fmt.Errorf("reading stdin: %w", err)
	}
	doc := catalog.Document{Text: string(data)}
	doc.Name = stdinName
	doc.Size = int64(len(data))
	return doc, nil
}

func printValidation(w io.Writer, result model.CatalogValidation) {
	for _, v := range result.Validations {
		if v.Report == nil {
			fmt.Fprintf(w, "%s: FAILED\n  error    %s\n", v.Name, v.Error)
			continue
		}
		r := v.Report
		status := "OK"
		if !r.Valid() {
			status = "INVALID"
		}
		fmt.Fprintf(w, "%s: %s (%d errors, %d warnings, %d variables)\n",
			v.Name, status, r.Summary.Errors, r.Summary.Warnings, r.Summary.VarsCount)
		for _, d := range r.Errors {
			printDiagnostic(w, model.SeverityError, d)
		}
		for _, d := range r.Warnings {
			printDiagnostic(w, model.SeverityWarning, d)
		}
	}
	fmt.Fprintf(w, "\n%d themes checked: %d errors, %d warnings\n",
		len(result.Validations), result.ErrorCount(), result.WarningCount())
}

func printDiagnostic(w io.Writer, sev model.Severity, d model.Diagnostic) {
	if d.Line > 0 {
		fmt.Fprintf(w, "  %-8s line %d  %s  %s\n", sev, d.Line, d.Code, d.Message)
		return
	}
	fmt.Fprintf(w, "  %-8s %s  %s\n", sev, d.Code, d.Message)
}
