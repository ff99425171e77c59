package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/zoppel/pkg/client"
)

func createChainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Chain explorer commands",
	}

	cmd.AddCommand(createChainInfoCmd())
	cmd.AddCommand(createChainTxsCmd())
	cmd.AddCommand(createChainEventsCmd())

	return cmd
}

func createChainInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the chain head",
		RunE: func(cmd *cobra.Command, args []string) error {
			head, err := newClient().Head(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, head)
			}
			fmt.Fprintf(out, "Chain %d\n", head.ChainID)
			fmt.Fprintf(out, "  Block:        %d (%s)\n", head.BlockNumber, head.BlockTime.Format(time.RFC3339))
			fmt.Fprintf(out, "  Transactions: %d\n", head.Transactions)
			names := make([]string, 0, len(head.Contracts))
			for name := range head.Contracts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %-12s  %s\n", name, head.Contracts[name])
			}
			return nil
		},
	}
}

func createChainTxsCmd() *cobra.Command {
	var q client.TransactionQuery

	cmd := &cobra.Command{
		Use:   "txs",
		Short: "List transactions",
		Long: `List recorded transactions, newest first.

EXAMPLES:
  zoppel chain txs --contract artifacts --status reverted
  zoppel chain txs --asc --limit 50
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := newClient().ListTransactions(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, list)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tBLOCK\tCALL\tCALLER\tSTATUS\tHASH")
			for _, tx := range list.Data {
				fmt.Fprintf(w, "%d\t%d\t%s.%s\t%s\t%s\t%s\n", tx.Seq, tx.BlockNumber, tx.Contract, tx.Method, tx.Caller, tx.Status, tx.Hash)
			}
			w.Flush()
			if list.Pagination.HasMore {
				fmt.Fprintf(out, "\nMore results: --cursor %s\n", list.Pagination.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Contract, "contract", "", "filter by contract")
	cmd.Flags().StringVar(&q.Method, "method", "", "filter by method")
	cmd.Flags().StringVar(&q.Caller, "from", "", "filter by caller")
	cmd.Flags().StringVar(&q.Status, "status", "", "filter by status (success or reverted)")
	cmd.Flags().BoolVar(&q.Ascending, "asc", false, "oldest first")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "page size")
	cmd.Flags().StringVar(&q.Cursor, "cursor", "", "pagination cursor")
	return cmd
}

func createChainEventsCmd() *cobra.Command {
	var q client.EventQuery

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List events",
		Long: `List recorded events in emission order.

EXAMPLES:
  zoppel chain events --contract zoppel --name Transfer
  zoppel chain events --tx 0xabc...
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := newClient().ListEvents(cmd.Context(), q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, list)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BLOCK\tCONTRACT\tEVENT\tFIELDS")
			for _, e := range list.Data {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.BlockNumber, e.Contract, e.Name, formatFields(e.Fields))
			}
			w.Flush()
			if list.Pagination.HasMore {
				fmt.Fprintf(out, "\nMore results: --cursor %s\n", list.Pagination.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Contract, "contract", "", "filter by contract")
	cmd.Flags().StringVar(&q.Name, "name", "", "filter by event name")
	cmd.Flags().StringVar(&q.TxHash, "tx", "", "filter by transaction hash")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "page size")
	cmd.Flags().StringVar(&q.Cursor, "cursor", "", "pagination cursor")
	return cmd
}

func createAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Native account commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "balance <address>",
		Short: "Show the native balance and nonce of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := newClient().GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, acct)
			}
			fmt.Fprintf(out, "%s\n", acct.Address)
			fmt.Fprintf(out, "  Balance: %s wei\n", acct.Balance)
			fmt.Fprintf(out, "  Nonce:   %d\n", acct.Nonce)
			if acct.Contract != "" {
				fmt.Fprintf(out, "  Contract: %s\n", acct.Contract)
			}
			return nil
		},
	})

	send := txCmd("send <to> <wei>", "Send native currency from the caller", 2,
		func(cmd *cobra.Command, c *client.Client, args []string) (*client.Receipt, error) {
			return c.Send(cmd.Context(), args[0], args[1])
		})
	cmd.AddCommand(send)

	return cmd
}
