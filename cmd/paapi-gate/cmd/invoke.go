package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	invokeFile  string
	invokeTools bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Run a batch from a file or stdin",
	Long: `Run a batch of PAAPI parameter sets and print one envelope per entry.

The batch is read from --file, or from stdin when --file is empty or "-".
It may be JSON or YAML, either a list of entries or an object with an
"items" list. Envelopes are written to stdout as a JSON array, in input
order. A failing entry never stops the batch.

Examples:
  # Two lookups and a search
  echo '[{"operation":"getItems","itemIds":"B08N5KWB9H,B07FZ8S74R"},
         {"operation":"searchItems","keywords":"kettle"}]' | paapi-gate invoke

  # Simplified product tools from a YAML file
  paapi-gate invoke --tools --file batch.yaml`,
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeFile, "file", "f", "", "Batch file (JSON or YAML); stdin when empty or \"-\"")
	invokeCmd.Flags().BoolVar(&invokeTools, "tools", false, "Entries are searchProducts/getProductDetails tool entries")
	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	in := cmd.InOrStdin()
	if invokeFile != "" && invokeFile != "-" {
		f, err := os.Open(invokeFile)
		if err != nil {
			return fmt.Errorf("failed to open batch: %w", err)
		}
		defer f.Close()
		in = f
	}

	entries, err := readBatch(in)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var results any
	if invokeTools {
		results = a.tools.Execute(ctx, a.creds, entries)
	} else {
		results = a.invocations.Execute(ctx, a.creds, entries)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// readBatch decodes a JSON or YAML batch into raw entries. The YAML decoder
// accepts JSON as well, so one path serves both.
func readBatch(r io.Reader) ([]json.RawMessage, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty batch")
		}
		return nil, fmt.Errorf("invalid batch: %w", err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["items"].([]any)
		if !ok {
			return nil, errors.New(`invalid batch: expected a list or an object with an "items" list`)
		}
		items = list
	default:
		return nil, errors.New(`invalid batch: expected a list or an object with an "items" list`)
	}

	entries := make([]json.RawMessage, len(items))
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("invalid batch entry %d: %w", i, err)
		}
		entries[i] = raw
	}
	return entries, nil
}
