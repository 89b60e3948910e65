package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/attachvault/pkg/configs"
)

// redacted 替换输出中的密钥.
const redacted = "******"

var (
	// config 子命令，执行前先加载 --config 指定的配置.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configs.InitConfig(configPath)
		},
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Run: func(cmd *cobra.Command, args []string) {
			file := configs.GetViper().ConfigFileUsed()
			if file == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and env only)")
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), file)
		},
	}

	// 以 JSON 打印生效的配置，--debug 时附带 viper 的调试输出.
	showCmd = &cobra.Command{
		Use:     "show",
		Short:   "print the effective config values",
		Aliases: []string{"debug"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				configs.GetViper().Debug()
			}

			b, err := sonic.ConfigStd.MarshalIndent(redact(*configs.GetConfig()), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}

	// 加载成功即说明配置通过了 rule 校验.
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "load and validate the config",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "config ok")
		},
	}
)

// redact 隐藏口令类字段.
func redact(c configs.AppConfig) configs.AppConfig {
	for _, secret := range []*string{
		&c.DB.Password,
		&c.S3.SecretAccessKey,
		&c.KV.Redis.Password,
		&c.KV.NATS.Password,
		&c.MQ.Common.Password,
		&c.MQ.Redis.Password,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}

	return c
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd, showCmd, validateCmd)

	rootCmd.AddCommand(configCmd)
}
