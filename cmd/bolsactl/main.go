package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "bolsactl",
		Short: "Bolsa FEUCN - административные команды",
		Long: `bolsactl выполняет служебные операции над базой биржи:
миграции, создание первого администратора, закрытие просроченных офферов
и проверку незавершенных отзывов пользователя.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to YAML config")

	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(seedAdminCmd(&configPath))
	rootCmd.AddCommand(closeExpiredCmd(&configPath))
	rootCmd.AddCommand(pendingReviewsCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}
