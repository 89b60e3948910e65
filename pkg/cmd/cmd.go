// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/attachvault/pkg/app"
	"github.com/yeisme/attachvault/pkg/configs"
)

var (
	// configPath 配置文件所在目录或文件路径.
	configPath string
	// debug 输出更多信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:     "attachvault",
		Short:   "Attachment storage service",
		Version: configs.AppVersion,
		// 不带子命令时启动服务
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewApp(configPath).Run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose output")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerTypeCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
