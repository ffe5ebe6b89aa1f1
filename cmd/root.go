package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ragcompare/src/log"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ragcompare",
	Short: "Compare chunking and prompting strategies for retrieval augmented generation",
	Long: `ragcompare indexes one document with several chunking strategies and answers
questions with a choice of prompting strategies, so that the combinations can be
compared side by side or scored against reference answers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	_ = viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))

	settingDefaultConfig()
}

func initConfig() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}

	if err := log.Setup(viper.GetBool("log.debug")); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	if viper.ConfigFileUsed() != "" {
		log.Debug("config loaded", "file", viper.ConfigFileUsed())
	}
	return nil
}
