package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/hh-interviewer/internal/auth"
	"github.com/spigell/hh-interviewer/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :5000)")
	serveCmd.Flags().String("users-file", "", "JSON file with registered users (default users.json)")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("users-file", serveCmd.Flags().Lookup("users-file"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config, err := setup()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting the hh-interviewer", zap.String("version", version))

	app, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the application", zap.Error(err))
	}

	users, err := auth.OpenUsers(config.UsersFile, bcrypt.DefaultCost, logger)
	if err != nil {
		logger.Fatal("opening the users file", zap.Error(err), zap.String("path", config.UsersFile))
	}

	srv := server.New(server.Config{
		Listen:         config.Listen,
		AllowOrigins:   config.CORS.AllowOrigins,
		MaxUploadBytes: config.MaxUploadBytes,
		Debug:          viper.GetBool("debug"),
	}, server.Deps{
		Coach:    app.coach,
		Users:    users,
		Tokens:   auth.NewTokens(config.Session.TokenTTL),
		Gatherer: app.registry,
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("stopped")
}
