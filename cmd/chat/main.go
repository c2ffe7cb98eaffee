// Package main is the interactive chat client.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/skybridge-ai/chat-client/internal/auth"
	"github.com/skybridge-ai/chat-client/internal/config"
	"github.com/skybridge-ai/chat-client/internal/delivery"
	"github.com/skybridge-ai/chat-client/internal/model"
	"github.com/skybridge-ai/chat-client/internal/session"
	"github.com/skybridge-ai/chat-client/internal/state"
	"github.com/skybridge-ai/chat-client/internal/store"
	"github.com/skybridge-ai/chat-client/pkg/logger"
	"github.com/skybridge-ai/chat-client/pkg/tracing"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Interactive chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "environment file to load")
	return cmd
}

func run(ctx context.Context, envFile string) error {
	_ = godotenv.Load(envFile)
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chat-client", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing")
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	orch, err := compose(ctx, cfg, log)
	if err != nil {
		return err
	}

	if err := orch.Bootstrap(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load conversations: %v\n", err)
	}
	if !orch.State().Snapshot().Auth.IsAuthenticated {
		return fmt.Errorf("not authenticated; set COGNITO_REFRESH_TOKEN or enable BYPASS_LOGIN")
	}

	return repl(ctx, orch)
}

// compose picks exactly one backend/sender/provider combination from the
// mode switches. The orchestrator itself never sees a mode flag.
func compose(ctx context.Context, cfg *config.Config, log *logger.Logger) (*session.Orchestrator, error) {
	var (
		creds   auth.Provider
		backend store.Backend
		sender  delivery.Sender
	)

	switch {
	case cfg.BypassLogin, cfg.BypassAuth, cfg.UseMockData:
		creds = &auth.StaticProvider{AlwaysAuthenticated: true}
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.CognitoRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		creds = auth.NewCognitoProvider(
			cognito.NewFromConfig(awsCfg),
			cfg.CognitoClientID,
			cfg.CognitoRefreshToken,
			log,
		)
	}

	switch {
	case cfg.UseMockData:
		mem := store.NewMemory()
		mem.SeedSampleData()
		backend = mem
	case cfg.UseLocalStore:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		backend = store.NewRedisLocal(rdb, log)
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		backend = store.NewDynamo(
			dynamodb.NewFromConfig(awsCfg),
			cfg.ChatHistoryTable,
			cfg.ConversationsTable,
			log,
		)
	}

	if cfg.UseMockData {
		sender = &delivery.CannedSender{Delay: time.Second}
	} else {
		opts := []delivery.Option{
			delivery.WithTimeout(cfg.RequestTimeout),
			delivery.WithRetryPolicy(cfg.MaxAttempts, cfg.RetryBaseDelay),
		}
		if cfg.BypassAuth {
			opts = append(opts, delivery.WithBypassAuth())
		}
		sender = delivery.NewClient(cfg.APIEndpoint, creds, log, opts...)
	}

	return session.NewOrchestrator(state.NewStore(), backend, sender, creds, log), nil
}

func repl(ctx context.Context, orch *session.Orchestrator) error {
	fmt.Println("chat ready; /help for commands")
	renderConversations(orch.State().Snapshot())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if err := handle(ctx, orch, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// handle dispatches one line of input. The recover keeps a bug in any
// command from killing the session; the REPL renders the failure and
// carries on.
func handle(ctx context.Context, orch *session.Orchestrator, line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("something went wrong: %v", r)
		}
	}()

	switch {
	case line == "/help":
		fmt.Println("/new, /list, /open <n>, /delete <n>, /logout, /quit; anything else sends a message")
		return nil

	case line == "/new":
		conv, err := orch.NewConversation(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("created %s\n", conv.ConversationID)
		return nil

	case line == "/list":
		if err := orch.LoadConversations(ctx); err != nil {
			return err
		}
		renderConversations(orch.State().Snapshot())
		return nil

	case strings.HasPrefix(line, "/open "):
		conv, err := pickConversation(orch, strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
		if err != nil {
			return err
		}
		if err := orch.OpenConversation(ctx, conv.ConversationID); err != nil {
			return err
		}
		renderMessages(orch.State().Snapshot())
		return nil

	case strings.HasPrefix(line, "/delete "):
		conv, err := pickConversation(orch, strings.TrimSpace(strings.TrimPrefix(line, "/delete ")))
		if err != nil {
			return err
		}
		if err := orch.DeleteConversation(ctx, conv.ConversationID); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", conv.ConversationID)
		return nil

	case line == "/logout":
		if err := orch.SignOut(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "remote sign-out failed; local session ended anyway")
		}
		return nil

	case strings.HasPrefix(line, "/"):
		return fmt.Errorf("unknown command %q", line)

	default:
		if err := orch.SendMessage(ctx, line); err != nil {
			return err
		}
		renderMessages(orch.State().Snapshot())
		return nil
	}
}

// pickConversation resolves a 1-based list index or a raw conversation id.
func pickConversation(orch *session.Orchestrator, arg string) (model.Conversation, error) {
	snapshot := orch.State().Snapshot()

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(snapshot.Conversations) {
			return model.Conversation{}, fmt.Errorf("no conversation #%d", n)
		}
		return snapshot.Conversations[n-1], nil
	}

	if conv, ok := snapshot.Conversation(arg); ok {
		return conv, nil
	}
	return model.Conversation{}, fmt.Errorf("unknown conversation %q", arg)
}

func renderConversations(s state.AppState) {
	if len(s.Conversations) == 0 {
		fmt.Println("no conversations; /new to start one")
		return
	}
	for i, conv := range s.Conversations {
		marker := " "
		if conv.ConversationID == s.ActiveConversationID {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s (%d messages)\n", marker, i+1, conv.Title, conv.MessageCount)
	}
}

func renderMessages(s state.AppState) {
	for _, msg := range s.ActiveMessages() {
		prefix := "you"
		if msg.MessageType == model.MessageTypeSystem {
			prefix = "bot"
		}
		suffix := ""
		switch msg.Status {
		case model.StatusSending:
			suffix = " …"
		case model.StatusError:
			suffix = " [failed]"
		}
		ts := time.UnixMilli(msg.Timestamp).Format("15:04")
		fmt.Printf("[%s] %s: %s%s\n", ts, prefix, msg.Content, suffix)
	}
}
