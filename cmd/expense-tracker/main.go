package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/assistant"
	"github.com/zombor/expense-tracker/internal/auth"
	"github.com/zombor/expense-tracker/internal/receipt"
	"github.com/zombor/expense-tracker/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; flags and the environment still apply
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded .env file")
	}

	fs := ff.NewFlagSet("expense-tracker")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "expense-tracker.db", "Database file path")
		storagePath     = fs.StringLong("storage", "./documents", "Directory uploaded documents are archived in")
		scannerType     = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		chatType        = fs.StringLong("chat", "", "Chat model: 'gemini', 'ollama' or 'none' (defaults to the scanner type)")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model used for scanning")
		geminiChatModel = fs.StringLong("gemini-chat-model", "gemini-2.5-flash", "Google Gemini model used for chat")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama vision model name (e.g., llava, qwen2-vl)")
		ollamaChatModel = fs.StringLong("ollama-chat-model", "llama3", "Ollama text model used for chat")
		jwtSecret       = fs.StringLong("jwt-secret", "", "Secret for signing identity tokens; empty disables token checks")
		jwtIssuer       = fs.StringLong("jwt-issuer", "expense-tracker", "Issuer claim of identity tokens")
		tokenDuration   = fs.DurationLong("token-duration", 24*time.Hour, "Lifetime of issued identity tokens")
		issueToken      = fs.StringLong("issue-token", "", "Print an identity token for this user id and exit")
		issueTokenEmail = fs.StringLong("issue-token-email", "", "Email claim for --issue-token")
		smtpAddr        = fs.StringLong("smtp-addr", "", "SMTP relay (host:port) for invoice reminders; empty logs reminders instead")
		smtpFrom        = fs.StringLong("smtp-from", "reminders@localhost", "Sender address of invoice reminders")
		smtpUser        = fs.StringLong("smtp-user", "", "SMTP username")
		smtpPassword    = fs.StringLong("smtp-password", "", "SMTP password")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var issuer *auth.Issuer
	if *jwtSecret != "" {
		var err error
		issuer, err = auth.NewIssuer(*jwtSecret, *jwtIssuer, *tokenDuration)
		if err != nil {
			slog.Error("Failed to initialize token issuer", "error", err)
			os.Exit(1)
		}
	}

	if *issueToken != "" {
		if issuer == nil {
			slog.Error("--issue-token requires --jwt-secret")
			os.Exit(1)
		}
		token, err := issuer.Sign(*issueToken, *issueTokenEmail)
		if err != nil {
			slog.Error("Failed to sign token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		os.Exit(0)
	}

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
	case "gemini":
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer scanner.Close()

	// Initialize chat model; without one the assistant still answers
	// greetings and empty-data questions
	if *chatType == "" {
		*chatType = *scannerType
	}
	var model assistant.Model
	switch *chatType {
	case "gemini":
		if apiKey == "" {
			slog.Error("Gemini API key is required for chat. Set --gemini-key or use --chat none")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini chat model...", "model", *geminiChatModel)
		gemini, err := assistant.NewGemini(apiKey, *geminiChatModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini chat model", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		model = gemini
	case "ollama":
		slog.Info("Initializing Ollama chat model...", "url", *ollamaURL, "model", *ollamaChatModel)
		model = assistant.NewOllama(*ollamaURL, *ollamaChatModel)
	case "none":
		slog.Warn("Chat model disabled")
	default:
		slog.Error("Invalid chat type", "type", *chatType, "valid", "gemini, ollama or none")
		os.Exit(1)
	}

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	receiptService := receipt.NewService(db, scanner, store)
	if *smtpAddr != "" {
		notifier, err := receipt.NewSMTPNotifier(*smtpAddr, *smtpFrom, *smtpUser, *smtpPassword)
		if err != nil {
			slog.Error("Failed to initialize SMTP notifier", "error", err)
			os.Exit(1)
		}
		receiptService.SetNotifier(notifier)
		slog.Info("Invoice reminders are mailed", "relay", *smtpAddr)
	}

	// Initialize server
	server := receipt.NewServer(receiptService, assistant.New(model), issuer)
	if issuer == nil {
		slog.Warn("Token checks disabled; requests are scoped by the user_id query parameter")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}
