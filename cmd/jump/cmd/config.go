package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/jump/configs"
	"github.com/Aman-CERP/jump/internal/config"
	jerrors "github.com/Aman-CERP/jump/internal/errors"
	"github.com/Aman-CERP/jump/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the user and project configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/jump/config.yaml)
  3. Project config (.jump.yaml)
  4. Environment variables (JUMP_*)`,
		Example: `  # Create user config from template
  jump config init

  # Create .jump.yaml in the project root
  jump config init --project

  # Show effective configuration
  jump config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Create the user configuration file from a template, or with --project
the project file .jump.yaml.

With --force an existing user config is backed up and upgraded: settings
added since it was written are filled with their defaults and your values
are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if project {
				return runConfigInitProject(cmd, force)
			}
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Upgrade an existing user config, or overwrite .jump.yaml")
	cmd.Flags().BoolVar(&project, "project", false, "Create .jump.yaml in the project root")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the user config from a backup",
		Long: `Restore the user configuration from a backup made by 'jump config init
--force'. Without an argument the newest backup is used. The current file
is backed up first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup := ""
			if len(args) == 1 {
				backup = args[0]
			}
			return runConfigRestore(cmd, backup)
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Status("💡", "Use --force to upgrade with new defaults (preserves your settings)")
			return nil
		}
		return runConfigUpgrade(out, configPath)
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to create config directory", err)
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to write config file", err)
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	out.Status("💡", "Run 'jump config show' to verify")
	return nil
}

func runConfigUpgrade(out *output.Writer, configPath string) error {
	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return err
	}

	existing, err := config.LoadUserConfig()
	if err != nil {
		return err
	}
	if existing == nil {
		return jerrors.New(jerrors.ErrCodeConfigNotFound, "config file disappeared during upgrade", nil)
	}

	added := existing.MergeNewDefaults()
	if err := existing.WriteYAML(configPath); err != nil {
		return err
	}

	out.Success("Configuration upgraded")
	out.Statusf("📁", "Location: %s", configPath)
	out.Statusf("💾", "Backup: %s", backupPath)
	if len(added) == 0 {
		out.Status("✓", "Your configuration is already up to date")
		return nil
	}
	out.Status("✨", "New options added with defaults:")
	for _, key := range added {
		out.Statusf("", "  - %s", key)
	}
	return nil
}

func runConfigInitProject(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	if existing := config.ProjectConfigPath(root); existing != "" && !force {
		out.Warning("Project configuration already exists")
		out.Statusf("📁", "Location: %s", existing)
		out.Status("💡", "Use --force to overwrite it")
		return nil
	}

	path := filepath.Join(root, config.ProjectConfigFile)
	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return jerrors.New(jerrors.ErrCodeInvalidPath, "failed to write project config", err)
	}
	out.Success("Created project configuration")
	out.Statusf("📁", "Location: %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg        *config.Config
		sourceDesc string
	)
	switch source {
	case "merged":
		root, merged, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = merged
		sourceDesc = fmt.Sprintf("merged (defaults + user + project + env) for %s", root)

	case "user":
		path := config.GetUserConfigPath()
		user, err := config.LoadUserConfig()
		if err != nil {
			return err
		}
		if user == nil {
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", path)
			out.Status("💡", "Run 'jump config init' to create one")
			return nil
		}
		cfg = user
		sourceDesc = fmt.Sprintf("user (%s)", path)

	case "project":
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		path := config.ProjectConfigPath(root)
		if path == "" {
			out.Warning("No project configuration file found")
			out.Statusf("📁", "Expected at: %s", filepath.Join(root, config.ProjectConfigFile))
			out.Status("💡", "Run 'jump config init --project' to create one")
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return jerrors.New(jerrors.ErrCodeConfigNotFound, "failed to read project config", err)
		}
		cfg = config.NewConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return jerrors.New(jerrors.ErrCodeConfigInvalid, "failed to parse project config "+path, err)
		}
		sourceDesc = fmt.Sprintf("project (%s)", path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return jerrors.ValidationError(fmt.Sprintf("invalid source: %s (use: merged, user, project, defaults)", source), nil)
	}

	if jsonOutput {
		data, err := cfg.JSON()
		if err != nil {
			return jerrors.InternalError("failed to marshal config", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Newline()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return jerrors.InternalError("failed to marshal config", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}

func runConfigRestore(cmd *cobra.Command, backup string) error {
	out := output.New(cmd.OutOrStdout())

	if backup == "" {
		backups, err := config.ListUserConfigBackups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return jerrors.New(jerrors.ErrCodeConfigNotFound, "no config backups found", nil).
				WithSuggestion("Backups are made by 'jump config init --force'")
		}
		backup = backups[0]
	}

	if err := config.RestoreUserConfig(backup); err != nil {
		return err
	}
	out.Success("Configuration restored")
	out.Statusf("💾", "From: %s", backup)
	return nil
}
