package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/pendergraft/zoppel/internal/zoppel/domain"
	"github.com/pendergraft/zoppel/pkg/client"
)

func createTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Zoppel token commands",
	}

	cmd.AddCommand(createTokenInfoCmd())
	cmd.AddCommand(createTokenBalanceCmd())
	cmd.AddCommand(createTokenTransferCmd())
	cmd.AddCommand(createTokenApproveCmd())
	cmd.AddCommand(createTokenPermitCmd())

	return cmd
}

func createTokenInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the token summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := newClient().TokenInfo(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(out, info)
			}
			fmt.Fprintf(out, "%s (%s)\n", info.Name, info.Symbol)
			fmt.Fprintf(out, "  Address:      %s\n", info.Address)
			fmt.Fprintf(out, "  Owner:        %s\n", info.Owner)
			fmt.Fprintf(out, "  Decimals:     %d\n", info.Decimals)
			fmt.Fprintf(out, "  Total supply: %s\n", info.TotalSupply)
			fmt.Fprintf(out, "  Max supply:   %s\n", info.MaxSupply)
			fmt.Fprintf(out, "  Domain:       %s v%s chain %d\n", info.Domain.Name, info.Domain.Version, info.Domain.ChainID)
			return nil
		},
	}
}

func createTokenBalanceCmd() *cobra.Command {
	var spender string

	cmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Show a token balance, or an allowance with --spender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			out := cmd.OutOrStdout()
			if spender != "" {
				allowance, err := c.Allowance(cmd.Context(), args[0], spender)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, allowance)
				return nil
			}
			balance, err := c.TokenBalance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, balance)
			return nil
		},
	}

	cmd.Flags().StringVar(&spender, "spender", "", "show the allowance of spender instead")
	return cmd
}

func createTokenTransferCmd() *cobra.Command {
	var to, from, amount string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer tokens",
		Long: `Transfer tokens from the caller, or from --from using the caller's allowance.

EXAMPLES:
  zoppel token transfer --to 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 --amount 1000
  zoppel token transfer --from 0xf39F... --to 0x7099... --amount 5
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			var receipt *client.Receipt
			var err error
			if from != "" {
				receipt, err = c.TransferFrom(cmd.Context(), from, to, amount)
			} else {
				receipt, err = c.Transfer(cmd.Context(), to, amount)
			}
			if err != nil {
				return txError(cmd.ErrOrStderr(), err)
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient (required)")
	cmd.Flags().StringVar(&from, "from", "", "spend from this owner's allowance")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units (required)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func createTokenApproveCmd() *cobra.Command {
	var spender, amount string

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Set the allowance of a spender",
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := newClient().Approve(cmd.Context(), spender, amount)
			if err != nil {
				return txError(cmd.ErrOrStderr(), err)
			}
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}

	cmd.Flags().StringVar(&spender, "spender", "", "spender (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units (required)")
	_ = cmd.MarkFlagRequired("spender")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func createTokenPermitCmd() *cobra.Command {
	var spender, value, keyFile string
	var ttl time.Duration
	var submit bool

	cmd := &cobra.Command{
		Use:   "permit",
		Short: "Sign an EIP-2612 permit",
		Long: `Sign a permit with a local private key. The owner is the key's address.

The key is read from --key-file or ZOPPEL_PRIVATE_KEY (hex). The signed permit
is printed as JSON, or relayed to the server with --submit.

EXAMPLES:
  ZOPPEL_PRIVATE_KEY=ac09... zoppel token permit --spender 0x7099... --value 100 --submit
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := loadPrivateKey(keyFile)
			if err != nil {
				return err
			}
			return runTokenPermit(cmd.Context(), cmd.OutOrStdout(), newClient(), key, spender, value, ttl, submit)
		},
	}

	cmd.Flags().StringVar(&spender, "spender", "", "spender (required)")
	cmd.Flags().StringVar(&value, "value", "", "allowance in base units (required)")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "file holding the hex private key")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "permit validity from now")
	cmd.Flags().BoolVar(&submit, "submit", false, "relay the permit to the server")
	_ = cmd.MarkFlagRequired("spender")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func runTokenPermit(ctx context.Context, out io.Writer, c *client.Client, key string, spender, value string, ttl time.Duration, submit bool) error {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	if !common.IsHexAddress(spender) {
		return fmt.Errorf("invalid spender: %q", spender)
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	owner := crypto.PubkeyToAddress(priv.PublicKey)

	info, err := c.TokenInfo(ctx)
	if err != nil {
		return err
	}
	nonce, err := c.PermitNonce(ctx, owner.Hex())
	if err != nil {
		return err
	}

	deadline := uint256.NewInt(uint64(time.Now().Add(ttl).Unix()))
	sig, err := domain.SignPermit(priv, domain.Domain{
		Name:              info.Domain.Name,
		Version:           info.Domain.Version,
		ChainID:           info.Domain.ChainID,
		VerifyingContract: common.HexToAddress(info.Domain.VerifyingContract),
	}, domain.Permit{
		Owner:    owner,
		Spender:  common.HexToAddress(spender),
		Value:    amount,
		Nonce:    uint256.NewInt(nonce),
		Deadline: deadline,
	})
	if err != nil {
		return err
	}

	permit := client.Permit{
		Owner:    owner.Hex(),
		Spender:  common.HexToAddress(spender).Hex(),
		Value:    amount.Dec(),
		Deadline: strconv.FormatUint(deadline.Uint64(), 10),
		V:        sig.V,
		R:        sig.R.Hex(),
		S:        sig.S.Hex(),
	}
	if !submit {
		return printJSON(out, permit)
	}
	receipt, err := c.SubmitPermit(ctx, permit)
	if err != nil {
		return txError(out, err)
	}
	return printReceipt(out, receipt)
}

// loadPrivateKey reads a hex key from path, or from ZOPPEL_PRIVATE_KEY.
func loadPrivateKey(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading key file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if env := os.Getenv("ZOPPEL_PRIVATE_KEY"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no private key: use --key-file or ZOPPEL_PRIVATE_KEY")
}
