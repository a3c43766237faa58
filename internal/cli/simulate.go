package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var simulatePrice float64

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Evaluate a given price against the thresholds and alert as the monitor would",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrice <= 0 {
			return errors.New("--price must be greater than zero")
		}
		return getApp().SimulateAlert(cmd.Context(), decimal.NewFromFloat(simulatePrice))
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "Bitcoin price in USD to evaluate")
}
