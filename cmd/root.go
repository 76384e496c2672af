package cmd

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	configFlag  = "config"
	envFileFlag = "env-file"
)

var rootFlags = map[string]cobraflags.Flag{
	configFlag: &cobraflags.StringFlag{
		Name:  configFlag,
		Value: "",
		Usage: "Path to a YAML config file; APP_* environment variables override it",
	},
	envFileFlag: &cobraflags.StringFlag{
		Name:  envFileFlag,
		Value: ".env",
		Usage: "dotenv file loaded before the configuration is read",
	},
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "app2automate",
		Short: "Blog backend with a PostgreSQL primary store and a Redis search index",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			envFile := rootFlags[envFileFlag].GetString()
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	for _, sub := range []*cobra.Command{
		newServeCommand(),
		newMigrateCommand(),
		newReindexCommand(),
		newReconcileCommand(),
	} {
		cobraflags.RegisterMap(sub, rootFlags)
		rootCmd.AddCommand(sub)
	}
	return rootCmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
