package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deskwise/deskwise/internal/profile"
	"github.com/deskwise/deskwise/server"
	"github.com/deskwise/deskwise/store"
	"github.com/deskwise/deskwise/store/db"
)

const (
	greetingBanner = `deskwise - conversational assistant for your documents and inbox`
)

var rootCmd = &cobra.Command{
	Use:   "deskwise",
	Short: "A conversational assistant over business documents and email",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:               viper.GetString("mode"),
			Addr:               viper.GetString("addr"),
			Port:               viper.GetInt("port"),
			Data:               viper.GetString("data"),
			Driver:             viper.GetString("driver"),
			DSN:                viper.GetString("dsn"),
			AIBaseURL:          viper.GetString("ai-base-url"),
			AIAPIKey:           viper.GetString("ai-api-key"),
			AIChatModel:        viper.GetString("ai-chat-model"),
			AIEmbeddingModel:   viper.GetString("ai-embedding-model"),
			InboxProviderURL:   viper.GetString("inbox-provider-url"),
			InboxProviderToken: viper.GetString("inbox-provider-token"),
			IngestEnabled:      viper.GetBool("ingest-enabled"),
		}
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			os.Exit(1)
		}
		if err := dbDriver.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		storeInstance := store.New(dbDriver, instanceProfile)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		errChan := make(chan error, 1)
		go func() {
			if err := s.Start(ctx); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		fmt.Println(greetingBanner)
		fmt.Println(instanceProfile)

		select {
		case <-ctx.Done():
		case err := <-errChan:
			slog.Error("server error", "error", err)
		}

		s.Shutdown(context.Background())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of the server, can be "prod", "dev" or "demo"`)
	flags.String("addr", "", "address of the server")
	flags.Int("port", 8081, "port of the server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	flags.String("dsn", "", "database source name / connection string")
	flags.String("ai-base-url", "", "base URL of the OpenAI-compatible endpoint")
	flags.String("ai-api-key", "", "API key for the model endpoint")
	flags.String("ai-chat-model", "", "chat model name")
	flags.String("ai-embedding-model", "", "embedding model name")
	flags.String("inbox-provider-url", "", "base URL of the inbox bridge service")
	flags.String("inbox-provider-token", "", "bearer token for the inbox bridge service")
	flags.Bool("ingest-enabled", true, "run the background document ingest runner")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("deskwise")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
