package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pendergraft/zoppel/pkg/client"
)

func createArtifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artifact",
		Aliases: []string{"artifacts"},
		Short:   "Artifact collection commands",
	}

	cmd.AddCommand(createArtifactInfoCmd())
	cmd.AddCommand(createArtifactMintCmd())
	cmd.AddCommand(createArtifactBatchMintCmd())
	cmd.AddCommand(createArtifactListCmd())
	cmd.AddCommand(createArtifactURICmd())
	cmd.AddCommand(createArtifactTransferCmd())
	cmd.AddCommand(txCmd("set-base-uri <uri>", "Replace the prefix of every token URI", 1,
		func(cmd *cobra.Command, c *client.Client, args []string) (*client.Receipt, error) {
			return c.SetBaseURI(cmd.Context(), args[0])
		}))
	cmd.AddCommand(txCmd("concede <account>", "Grant the minter role and pay the stipend", 1,
		func(cmd *cobra.Command, c *client.Client, args []string) (*client.Receipt, error) {
			return c.ConcedeMinter(cmd.Context(), args[0])
		}))
	cmd.AddCommand(txCmd("revoke <account>", "Revoke the minter role", 1,
		func(cmd *cobra.Command, c *client.Client, args []string) (*client.Receipt, error) {
			return c.RevokeMinter(cmd.Context(), args[0])
		}))
	cmd.AddCommand(txCmd("fund <wei>", "Send native currency to the collection", 1,
		func(cmd *cobra.Command, c *client.Client, args []string) (*client.Receipt, error) {
			return c.FundCollection(cmd.Context(), args[0])
		}))
	cmd.AddCommand(txCmd("set-stipend <wei>", "Change the minter stipend", 1,
		func(cmd *cobra.Command, c *client.Client, args []string) (*client.Receipt, error) {
			return c.SetStipend(cmd.Context(), args[0])
		}))

	return cmd
}

type txFunc func(cmd *cobra.Command, c *client.Client, args []string) (*client.Receipt, error)

// txCmd builds a command that submits one transaction from positional args.
func txCmd(use, short string, nargs int, fn txFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := fn(cmd, newClient(), args)
			if err != nil {
				return txError(cmd.ErrOrStderr(), err)
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}
}

func createArtifactInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the collection summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newClient().CollectionInfo(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, info)
			}
			fmt.Fprintf(out, "%s (%s)\n", info.Name, info.Symbol)
			fmt.Fprintf(out, "  Address:       %s\n", info.Address)
			fmt.Fprintf(out, "  Admin:         %s\n", info.Admin)
			fmt.Fprintf(out, "  Base URI:      %s\n", info.BaseURI)
			fmt.Fprintf(out, "  Tokens:        %d (next id %d)\n", info.TotalSupply, info.NextTokenID)
			fmt.Fprintf(out, "  Stipend:       %s wei\n", info.StipendAmount)
			fmt.Fprintf(out, "  Balance:       %s wei\n", info.Balance)
			return nil
		},
	}
}

func createArtifactMintCmd() *cobra.Command {
	var to, uri string

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint an artifact",
		Long: `Mint the next artifact for --to. The caller needs the minter role.

EXAMPLES:
  zoppel artifact mint --to 0x7099... --uri 1.json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, receipt, err := newClient().Mint(cmd.Context(), to, uri)
			if err != nil {
				return txError(cmd.ErrOrStderr(), err)
			}
			if !jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "Minted token %s\n", id)
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient (required)")
	cmd.Flags().StringVar(&uri, "uri", "", "URI suffix appended to the base URI")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func createArtifactBatchMintCmd() *cobra.Command {
	var to, uris []string

	cmd := &cobra.Command{
		Use:   "batch-mint",
		Short: "Mint one artifact per recipient",
		Long: `Mint one artifact per recipient in order. --to and --uri must have the
same length.

EXAMPLES:
  zoppel artifact batch-mint --to 0xaaa...,0xbbb... --uri a.json,b.json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, receipt, err := newClient().BatchMint(cmd.Context(), to, uris)
			if err != nil {
				return txError(cmd.ErrOrStderr(), err)
			}
			if !jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "Minted tokens %s\n", strings.Join(ids, ", "))
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "recipients (required)")
	cmd.Flags().StringSliceVar(&uris, "uri", nil, "URI suffixes")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func createArtifactListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <owner>",
		Short: "List the artifacts of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owned, err := newClient().ListArtifacts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, owned)
			}
			if owned.Balance == 0 {
				fmt.Fprintf(out, "%s owns no artifacts\n", owned.Owner)
				return nil
			}
			fmt.Fprintf(out, "%s owns %d artifacts:\n", owned.Owner, owned.Balance)
			for i, id := range owned.IDs {
				fmt.Fprintf(out, "  #%s  %s\n", id, owned.URIs[i])
			}
			return nil
		},
	}
}

func createArtifactURICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uri <token-id>",
		Short: "Show the owner and URI of an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := newClient().GetArtifact(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, token)
			}
			fmt.Fprintln(out, token.URI)
			fmt.Fprintf(out, "  owner: %s\n", token.Owner)
			if token.Approved != "" {
				fmt.Fprintf(out, "  approved: %s\n", token.Approved)
			}
			return nil
		},
	}
}

func createArtifactTransferCmd() *cobra.Command {
	var t client.ArtifactTransfer

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer an artifact",
		Long: `Transfer an artifact. The caller needs the marketplace role and must own
the token or be approved for it.

EXAMPLES:
  zoppel artifact transfer --from 0xaaa... --to 0xbbb... --id 3
  zoppel artifact transfer --from 0xaaa... --to 0xbbb... --id 3 --safe --data 0x01
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := newClient().TransferArtifact(cmd.Context(), t)
			if err != nil {
				return txError(cmd.ErrOrStderr(), err)
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&t.From, "from", "", "current owner (required)")
	cmd.Flags().StringVar(&t.To, "to", "", "recipient (required)")
	cmd.Flags().StringVar(&t.TokenID, "id", "", "token id (required)")
	cmd.Flags().BoolVar(&t.Safe, "safe", false, "use safeTransferFrom")
	cmd.Flags().StringVar(&t.Data, "data", "", "hex data for a safe transfer")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
