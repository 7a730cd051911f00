package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"swapScope/internal/asset"
	"swapScope/internal/errs"
	"swapScope/internal/memo"
)

func newMemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Encode or decode transaction memos",
	}

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Encode a SWAP memo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := assetFlag(cmd)
			if err != nil {
				return err
			}
			address, _ := cmd.Flags().GetString("address")
			limitText, _ := cmd.Flags().GetString("limit")
			var limit *big.Int
			if limitText != "" {
				parsed, ok := new(big.Int).SetString(limitText, 10)
				if !ok {
					return fmt.Errorf("%w: limit %q", errs.ErrInvalidParameter, limitText)
				}
				limit = parsed
			}
			return printMemo(cmd, func() (string, error) { return memo.SwapMemo(target, address, limit) })
		},
	}
	swapCmd.Flags().String("asset", "", "output asset, e.g. BTC.BTC")
	swapCmd.Flags().String("address", "", "destination address")
	swapCmd.Flags().String("limit", "", "minimum output in base units (1e8)")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Encode an ADD memo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := assetFlag(cmd)
			if err != nil {
				return err
			}
			return printMemo(cmd, func() (string, error) { return memo.DepositMemo(target) })
		},
	}
	addCmd.Flags().String("asset", "", "pool asset")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Encode a WITHDRAW memo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := assetFlag(cmd)
			if err != nil {
				return err
			}
			bps, _ := cmd.Flags().GetInt("bps")
			return printMemo(cmd, func() (string, error) { return memo.WithdrawMemo(target, bps) })
		},
	}
	withdrawCmd.Flags().String("asset", "", "pool asset")
	withdrawCmd.Flags().Int("bps", memo.MaxBasisPoints, "share to withdraw in basis points (1-10000)")

	donateCmd := &cobra.Command{
		Use:   "donate",
		Short: "Encode a DONATE memo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := assetFlag(cmd)
			if err != nil {
				return err
			}
			return printMemo(cmd, func() (string, error) { return memo.DonateMemo(target) })
		},
	}
	donateCmd.Flags().String("asset", "", "pool asset")

	parseCmd := &cobra.Command{
		Use:   "parse <memo>",
		Short: "Decode a memo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := memo.Parse(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "op:      %s\n", m.Op)
			fmt.Fprintf(out, "asset:   %s\n", m.Asset)
			if m.Address != "" {
				fmt.Fprintf(out, "address: %s\n", m.Address)
			}
			if m.Limit != nil {
				fmt.Fprintf(out, "limit:   %s\n", m.Limit)
			}
			if m.Op == memo.OpWithdraw {
				fmt.Fprintf(out, "bps:     %d\n", m.BasisPoints)
			}
			fmt.Fprintf(out, "memo:    %s\n", m)
			return nil
		},
	}

	cmd.AddCommand(swapCmd, addCmd, withdrawCmd, donateCmd, parseCmd)
	return cmd
}

func assetFlag(cmd *cobra.Command) (asset.Asset, error) {
	text, _ := cmd.Flags().GetString("asset")
	a, ok := asset.Parse(text)
	if !ok {
		return asset.Asset{}, fmt.Errorf("%w: %q", errs.ErrInvalidAsset, text)
	}
	return a, nil
}

func printMemo(cmd *cobra.Command, build func() (string, error)) error {
	encoded, err := build()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), encoded)
	return nil
}
