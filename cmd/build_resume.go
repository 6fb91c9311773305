package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildResumeCmd = &cobra.Command{
	Use:   "build-resume",
	Short: "Generate a resume from free-form notes",
	Run: func(cmd *cobra.Command, _ []string) {
		buildResume(cmd)
	},
}

func init() {
	rootCmd.AddCommand(buildResumeCmd)

	buildResumeCmd.Flags().StringP("input", "i", "-", "file with notes about yourself, - reads stdin")
}

func buildResume(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config, err := setup()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	path, _ := cmd.Flags().GetString("input")

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		logger.Fatal("reading the input", zap.Error(err), zap.String("path", path))
	}

	app, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the application", zap.Error(err))
	}

	resume, err := app.coach.BuildResume(ctx, string(data))
	if err != nil {
		logger.Fatal("generating the resume", zap.Error(err))
	}

	fmt.Println(resume)
}
