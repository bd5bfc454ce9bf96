package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/ui"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration",
	}

	cmd.AddCommand(
		configShowCmd(),
		configInitCmd(),
		configPathCmd(),
	)
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			shown := *cfg
			if shown.Source.Token != "" {
				shown.Source.Token = "********"
			}
			if shown.Neo4j.Password != "" {
				shown.Neo4j.Password = "********"
			}
			if err := toml.NewEncoder(os.Stdout).Encode(shown); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
		},
	}
}

func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration if none exists",
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := os.Stat(config.Path()); err == nil {
				fmt.Printf("  Config already exists at %s\n", config.Path())
				return
			}
			if err := config.EnsureExists(); err != nil {
				ui.Bad.Printf("  Failed to write config: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Wrote %s\n", ui.StatusIcon(true), config.Path())
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.Path())
		},
	}
}
