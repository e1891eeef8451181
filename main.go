package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/example/realtime-chat/modules/api"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/example/realtime-chat/modules/store"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Realtime Chat - Fiber + EventBus ===")

	shutdownTimeout := defaultShutdownTimeout
	if d, err := time.ParseDuration(os.Getenv("SHUTDOWN_TIMEOUT")); err == nil && d > 0 {
		shutdownTimeout = d
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	if err := registerModules(app); err != nil {
		log.Fatalf("Failed to register modules: %v", err)
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// registerModules creates the chat modules, wires the in-process hub and
// session factory between them and registers them with app.
func registerModules(app mono.MonoApplication) error {
	logger := app.Logger()

	storeModule := store.NewModule(logger.WithModule("store"))
	authModule := auth.NewModule(logger.WithModule("auth"))
	broadcastModule := broadcast.NewModule(logger.WithModule("broadcast"))
	chatModule := chat.NewModule(logger.WithModule("chat"))
	apiModule := api.NewModule(logger.WithModule("api"))

	// The hub and sessions are in-process objects, not container services.
	chatModule.SetHub(broadcastModule.GetHub())
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetSessions(chatModule)

	// Order: independent modules first, then modules with dependencies
	// - store: channels and messages (ServiceProviderModule)
	// - auth: signup, login, token validation (ServiceProviderModule)
	// - broadcast: presence, rooms and fan-out (EventConsumerModule)
	// - chat: socket event handling (EventEmitterModule, depends on store)
	// - api: Fiber HTTP/WebSocket server (depends on auth and store)
	modules := []mono.Module{storeModule, authModule, broadcastModule, chatModule, apiModule}
	for _, m := range modules {
		if err := app.Register(m); err != nil {
			return fmt.Errorf("failed to register %s module: %w", m.Name(), err)
		}
	}
	return nil
}

func printStartupInfo() {
	port := getEnv("PORT", "3001")

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /api/health              - Health check")
	log.Println("  POST   /api/auth/signup         - Create an account")
	log.Println("  POST   /api/auth/login          - Log in")
	log.Println("  GET    /api/channels            - List channels (Bearer)")
	log.Println("  POST   /api/channels            - Create a channel (Bearer)")
	log.Println("  GET    /api/messages/:channelId - Channel history (Bearer)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/socket?token=<jwt>):", port)
	log.Println("  Client events: joinChannel, sendMessage, typing, stopTyping")
	log.Println("  Server events: onlineUsers, newMessage, userTyping, userStopTyping, error")
	log.Println("")
	log.Println("Try it: go run ./cmd/chatclient chat --token <jwt> --channel 1")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
