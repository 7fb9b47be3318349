package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Howie-Waves/StockMate/internal/strategyconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "분석 프로파일 검증/해시",
	Long: `분석 프로파일 YAML 을 검증하거나 해시를 계산합니다.

Example:
  go run ./cmd/stockmate config validate config/analysis/default.yaml
  go run ./cmd/stockmate config hash config/analysis/default.yaml
  go run ./cmd/stockmate config show`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate [profile.yaml]",
		Short: "프로파일 검증",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigValidate,
	}

	configHashCmd = &cobra.Command{
		Use:   "hash [profile.yaml]",
		Short: "프로파일 SHA256",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigHash,
	}

	configShowCmd = &cobra.Command{
		Use:   "show [profile.yaml]",
		Short: "적용될 프로파일 출력 (기본값 포함)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigShow,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configHashCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := strategyconfig.Load(args[0])
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("%s (profile %s v%s) is valid", args[0], cfg.Meta.ProfileID, cfg.Meta.Version))
	for _, w := range strategyconfig.Warn(cfg) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	return nil
}

func runConfigHash(cmd *cobra.Command, args []string) error {
	cfg, _, err := strategyconfig.Load(args[0])
	if err != nil {
		return err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}
	return printJSON(cfg)
}
