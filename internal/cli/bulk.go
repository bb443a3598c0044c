package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/appdir/internal/client"
	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/repository"
)

func newBatchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file|->",
		Short: "Add many apps from a JSON or CSV file",
		Long: `Add every app listed in a file. The file is either a JSON array of apps
or CSV with a header row; the CSV header must name at least name, directUrl
and category. Optional CSV columns: description, tags (separated by ';'),
author, authorUrl, status, isTop.

Apps whose directUrl is already in the catalog are skipped.

Examples:
  appdirctl batch apps.csv
  cat apps.json | appdirctl batch -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			patches, err := ParsePatches(data)
			if err != nil {
				return err
			}
			res, err := s.svc.AddBatch(cmd.Context(), patches)
			if err != nil {
				return describe(err)
			}
			printBatch(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newImportCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import apps from an export file",
		Long: `Import records produced by 'appdirctl export' (a JSON array of apps).
Ids, counters and timestamps are kept; apps whose directUrl is already in
the catalog are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var records []domain.App
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}
			res, err := s.svc.Import(cmd.Context(), records)
			if err != nil {
				return describe(err)
			}
			printBatch(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newExportCmd(s *session) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apps, err := s.svc.Apps(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return writeJSON(cmd.OutOrStdout(), apps)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := writeJSON(f, apps); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "exported %d app(s) to %s", len(apps), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

func printBatch(w io.Writer, res repository.BatchResult) {
	ok(w, "%d added, %d skipped", len(res.Added), len(res.Skipped))
	for _, u := range res.Skipped {
		fmt.Fprintf(w, "  skipped %s (already listed)\n", u)
	}
}

// describe expands the server's validation details into the error text.
func describe(err error) error {
	var ce *client.Error
	if !errors.As(err, &ce) || ce.Kind != client.KindValidation || len(ce.Details) == 0 {
		return err
	}

	var perItem map[string][]string
	if json.Unmarshal(ce.Details, &perItem) != nil {
		return err
	}
	keys := make([]string, 0, len(perItem))
	for k := range perItem {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	var b strings.Builder
	b.WriteString(ce.Message)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  item %s: %s", k, strings.Join(perItem[k], "; "))
	}
	return errors.New(b.String())
}
