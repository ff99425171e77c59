package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pendergraft/zoppel/pkg/client"
)

// printJSON writes v indented.
func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReceipt writes a transaction summary, or the receipt as JSON with
// --json.
func printReceipt(out io.Writer, r *client.Receipt) error {
	if jsonOutput {
		return printJSON(out, r)
	}
	status := "✅"
	if r.Status != "success" {
		status = "❌"
	}
	fmt.Fprintf(out, "%s %s.%s %s\n", status, r.Contract, r.Method, r.Status)
	fmt.Fprintf(out, "   tx:    %s (seq %d, block %d)\n", r.Hash, r.Seq, r.BlockNumber)
	if r.Error != "" {
		fmt.Fprintf(out, "   error: %s\n", r.Error)
	}
	for _, l := range r.Logs {
		fmt.Fprintf(out, "   %s %s\n", l.Name, formatFields(l.Fields))
	}
	return nil
}

// txError prints the reverted transaction attached to err, then returns err.
func txError(out io.Writer, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Transaction != nil {
		printReceipt(out, apiErr.Transaction)
	}
	return err
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + fields[k]
	}
	return strings.Join(parts, " ")
}
