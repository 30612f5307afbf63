package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-doc-translator/internal/logger"
)

// NewModelsCommand 创建 models 子命令
func NewModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models [filter]",
		Short: "列出端点可用的模型，可选模糊过滤",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.Debug)
			defer func() {
				_ = log.Sync()
			}()

			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			trans := buildTranslator(cfg, provider, log, nil)
			defer func() {
				_ = trans.Close()
			}()

			ctx := cmd.Context()
			if err := trans.CheckConnectivity(ctx); err != nil {
				color.Red("端点不可达: %s", cfg.BaseURL)
				return err
			}

			models, err := trans.ListModels(ctx)
			if err != nil {
				return fmt.Errorf("failed to list models: %w", err)
			}

			if len(args) > 0 {
				ranks := fuzzy.RankFindNormalizedFold(args[0], models)
				sort.Sort(ranks)
				models = models[:0]
				for _, r := range ranks {
					models = append(models, r.Target)
				}
			} else {
				sort.Strings(models)
			}

			if len(models) == 0 {
				fmt.Println("没有匹配的模型")
				return nil
			}
			fmt.Printf("可用模型 (%d 个):\n", len(models))
			for _, m := range models {
				marker := "  "
				if m == cfg.Model {
					marker = color.GreenString("* ")
				}
				fmt.Printf("%s%s\n", marker, m)
			}
			return nil
		},
	}
}
