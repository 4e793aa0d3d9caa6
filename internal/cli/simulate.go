package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateComex     float64
	simulateShanghai  float64
	simulateFX        float64
	simulateBenchmark float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次价格偏差并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateComex <= 0 || simulateShanghai <= 0 || simulateFX <= 0 {
			return errors.New("--comex、--shanghai 与 --fx 必须大于 0")
		}

		comex := decimal.NewFromFloat(simulateComex)
		shanghai := decimal.NewFromFloat(simulateShanghai)
		fx := decimal.NewFromFloat(simulateFX)
		benchmark := decimal.NewFromFloat(simulateBenchmark)
		return getApp().SimulateAlert(cmd.Context(), comex, shanghai, fx, benchmark)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateComex, "comex", 0, "COMEX 白银价格 (USD/oz)")
	simulateCmd.Flags().Float64Var(&simulateShanghai, "shanghai", 0, "上海现货白银价格 (CNY/kg)")
	simulateCmd.Flags().Float64Var(&simulateFX, "fx", 7.28, "USD/CNY 汇率")
	simulateCmd.Flags().Float64Var(&simulateBenchmark, "benchmark", 0, "预置基准价 (USD/oz), 为 0 时按首次观测初始化")
}
