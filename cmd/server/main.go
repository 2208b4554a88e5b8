package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/mklimuk/thoughtflow/pkg/ai"
	"github.com/mklimuk/thoughtflow/pkg/api"
	"github.com/mklimuk/thoughtflow/pkg/capture"
	"github.com/mklimuk/thoughtflow/pkg/db"
	"github.com/mklimuk/thoughtflow/pkg/export"
	"github.com/mklimuk/thoughtflow/pkg/integration/discord"
	"github.com/mklimuk/thoughtflow/pkg/integration/telegram"
	"github.com/mklimuk/thoughtflow/pkg/sync"
)

func main() {
	dbPath := flag.String("db", "thoughtflow.db", "Path to SQLite DB")
	port := flag.String("port", "8080", "HTTP Port")
	aiProvider := flag.String("ai-provider", "gemini", "AI provider: gemini or openai")
	exportDir := flag.String("export", "exports", "Directory for exported documents")
	gitSync := flag.Bool("git-sync", false, "Commit and push the export directory after each export")
	flag.Parse()

	// Initialize DB
	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	repo := db.NewRepository(database)

	// Initialize AI Client. A missing credential is a configuration error and
	// fails startup; call failures at runtime fall back to the default
	// destination instead.
	var aiClient ai.Generator
	switch *aiProvider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when using openai provider")
		}
		aiClient = ai.NewOpenAIClient(key)
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required when using gemini provider")
		}
		geminiClient, err := ai.NewGeminiClient(context.Background(), key)
		if err != nil {
			log.Fatalf("Failed to create AI client: %v", err)
		}
		defer geminiClient.Close()
		aiClient = geminiClient
	default:
		log.Fatalf("Unknown AI provider: %s", *aiProvider)
	}

	classifier := ai.NewClassifier(aiClient)
	svc := capture.NewService(repo, classifier)

	// Initialize Exporter and optional Git sync of the export directory
	exporter := export.NewExporter(*exportDir)
	var gitManager *sync.GitManager
	if *gitSync {
		gitManager = sync.NewGitManager(*exportDir)
	}

	// Initialize Router
	router := api.NewRouter(repo, svc, exporter, gitManager)

	// Initialize Discord Bot (Optional)
	discordToken := os.Getenv("DISCORD_TOKEN")
	if discordToken != "" {
		bot, err := discord.NewBot(discordToken, svc)
		if err != nil {
			log.Printf("Failed to create Discord bot: %v", err)
		} else {
			if err := bot.Start(); err != nil {
				log.Printf("Failed to start Discord bot: %v", err)
			} else {
				log.Println("Discord Bot started")
				defer bot.Stop()
			}
		}
	}

	// Initialize Telegram Bot (Optional)
	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	if telegramToken != "" {
		tgBot, err := telegram.NewBot(telegramToken, svc)
		if err != nil {
			log.Printf("Failed to create Telegram bot: %v", err)
		} else {
			if err := tgBot.Start(); err != nil {
				log.Printf("Failed to start Telegram bot: %v", err)
			} else {
				log.Println("Telegram Bot started")
				defer tgBot.Stop()
			}
		}
	}

	log.Printf("Starting server on :%s", *port)
	if err := http.ListenAndServe(":"+*port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
