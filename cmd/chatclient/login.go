package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Message string `json:"message"`
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in and print a token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd, "/api/auth/login", "logged in", args[0], args[1])
		},
	}
}

func newSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup <username> <password>",
		Short: "Create an account and print a token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd, "/api/auth/signup", "signed up", args[0], args[1])
		},
	}
}

// authenticate posts credentials to path, prints the token on stdout and a
// "<done> as <user>" note on stderr.
func authenticate(cmd *cobra.Command, path, done, username, password string) error {
	url := strings.TrimRight(viper.GetString(serverKey), "/") + path

	agent := fiber.Post(url).JSON(map[string]string{
		"username": username,
		"password": password,
	})
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request %s: %w", url, errors.Join(errs...))
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("unexpected response (%d): %s", status, body)
	}
	if status >= 300 {
		return fmt.Errorf("%s (%d)", resp.Message, status)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s as %s (id %d)\n", done, resp.User.Username, resp.User.ID)
	fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
	return nil
}
