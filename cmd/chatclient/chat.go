package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/realtime-chat/pkg/chatclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newChatCmd() *cobra.Command {
	var channelID int64

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a channel and chat from the terminal",
		Long: `Join a channel, print every event from the server and send each line read
from stdin as a message. Lines starting with "/join <id>" switch channel.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := viper.GetString(tokenKey)
			if token == "" {
				return errors.New("a token is required (--token or CHATCLIENT_TOKEN)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			client, err := chatclient.Dial(dialCtx, socketURL(viper.GetString(serverKey)), token)
			cancel()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.JoinChannel(channelID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "joined channel %d\n", channelID)

			lines := readLines(ctx, cmd.InOrStdin())
			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-client.Events():
					if !ok {
						return errors.New("connection closed by server")
					}
					printEvent(cmd.OutOrStdout(), event)
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					if err := handleLine(client, &channelID, line); err != nil {
						return err
					}
				}
			}
		},
	}

	cmd.Flags().Int64Var(&channelID, "channel", 1, "channel id to join")
	return cmd
}

func handleLine(client *chatclient.Client, channelID *int64, line string) error {
	line = strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(line, "/join "); ok {
		var id int64
		if _, err := fmt.Sscan(rest, &id); err != nil {
			return nil
		}
		*channelID = id
		return client.JoinChannel(id)
	}
	if line == "" {
		return nil
	}
	return client.SendMessage(*channelID, line)
}

// readLines streams lines from r until it ends or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func printEvent(w io.Writer, e chatclient.Event) {
	switch e.Name {
	case "newMessage":
		var m struct {
			Username  string    `json:"username"`
			Content   string    `json:"content"`
			CreatedAt time.Time `json:"created_at"`
		}
		if e.Decode(&m) == nil {
			fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), m.Username, m.Content)
			return
		}
	case "onlineUsers":
		var users []struct {
			Username string `json:"username"`
		}
		if e.Decode(&users) == nil {
			names := make([]string, len(users))
			for i, u := range users {
				names[i] = u.Username
			}
			fmt.Fprintf(w, "* online: %s\n", strings.Join(names, ", "))
			return
		}
	case "userTyping", "userStopTyping":
		var t struct {
			Username string `json:"username"`
		}
		if e.Decode(&t) == nil {
			if e.Name == "userTyping" {
				fmt.Fprintf(w, "* %s is typing...\n", t.Username)
			}
			return
		}
	case "error":
		var p struct {
			Message string `json:"message"`
		}
		if e.Decode(&p) == nil {
			fmt.Fprintf(w, "! %s\n", p.Message)
			return
		}
	}

	data, _ := json.Marshal(e)
	fmt.Fprintf(w, "%s\n", data)
}
