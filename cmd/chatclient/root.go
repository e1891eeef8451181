package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	serverKey = "server"
	tokenKey  = "token"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "chatclient",
		Short:         "Terminal client for the realtime chat server",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chatclient.yaml)")
	root.PersistentFlags().String("server", "http://localhost:3001", "chat server base URL")
	root.PersistentFlags().String("token", "", "JWT issued by signup or login")
	viper.BindPFlag(serverKey, root.PersistentFlags().Lookup("server"))
	viper.BindPFlag(tokenKey, root.PersistentFlags().Lookup("token"))

	root.AddCommand(newLoginCmd(), newSignupCmd(), newChatCmd())
	return root
}

// initConfig reads the config file and CHATCLIENT_* environment variables.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chatclient")
	}

	viper.SetEnvPrefix("chatclient")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// socketURL turns the server base URL into the websocket endpoint.
func socketURL(server string) string {
	server = strings.TrimRight(server, "/")
	switch {
	case strings.HasPrefix(server, "https://"):
		server = "wss://" + strings.TrimPrefix(server, "https://")
	case strings.HasPrefix(server, "http://"):
		server = "ws://" + strings.TrimPrefix(server, "http://")
	}
	return server + "/socket"
}
