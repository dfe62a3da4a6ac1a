package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settableKeys are the keys `config set` accepts, with their checks
var settableKeys = map[string]func(string) error{
	"server_url": func(v string) error {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server_url must be an absolute URL")
		}
		return nil
	},
	"output": func(v string) error {
		switch v {
		case "table", "json", "yaml":
			return nil
		}
		return fmt.Errorf("output must be table, json or yaml")
	},
	"default_platform": func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("default_platform must not be empty")
		}
		return nil
	},
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive first-time setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)
			ask := func(prompt, def string) string {
				fmt.Printf("%s [%s]: ", prompt, def)
				v, _ := reader.ReadString('\n')
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
				return def
			}

			values := map[string]string{
				"server_url":       ask("Server URL", viper.GetString("server_url")),
				"output":           ask("Default output format (table/json/yaml)", "table"),
				"default_platform": ask("Default platform for new posts", "instagram"),
			}
			for key, val := range values {
				if err := settableKeys[key](val); err != nil {
					return err
				}
				viper.Set(key, val)
			}

			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Fprintf(stdout, "Configuration saved to %s\n", configPath())
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (server_url, output, default_platform)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			check, ok := settableKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown key %q", args[0])
			}
			if err := check(args[1]); err != nil {
				return err
			}

			viper.Set(args[0], args[1])
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.HasPrefix(args[0], "auth") {
				return fmt.Errorf("credentials are not printed; use 'creatorhub auth whoami'")
			}
			val := viper.Get(args[0])
			if val == nil {
				fmt.Fprintf(stdout, "%s: (not set)\n", args[0])
			} else {
				fmt.Fprintf(stdout, "%s: %v\n", args[0], val)
			}
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := viper.AllSettings()
			keys := make([]string, 0, len(settings))
			for key := range settings {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				if key == "auth" {
					fmt.Fprintf(stdout, "%s: (credentials stored)\n", key)
					continue
				}
				fmt.Fprintf(stdout, "%s: %v\n", key, settings[key])
			}
			return nil
		},
	}
}

// configPath is the --config file when given, else the default location
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	dir, err := configDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

func writeConfig() error {
	return viper.WriteConfigAs(configPath())
}
