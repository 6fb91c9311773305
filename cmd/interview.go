package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/hh-interviewer/internal/coach"
	"github.com/spigell/hh-interviewer/internal/interview"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// localIdentity owns the single session of a terminal interview.
const localIdentity = "local"

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("resume", "r", "", "resume file (.pdf or .txt)")
	interviewCmd.MarkFlagRequired("resume")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config, err := setup()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	path, _ := cmd.Flags().GetString("resume")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err), zap.String("path", path))
	}

	app, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the application", zap.Error(err))
	}

	greeting, err := app.coach.Upload(ctx, localIdentity, filepath.Base(path), data)
	if err != nil {
		logger.Fatal("analysing the resume", zap.Error(err), zap.String("outcome", coach.Outcome(err)))
	}
	fmt.Printf("\n%s\n\n", greeting)

	if err := chatLoop(ctx, app.coach); err != nil {
		logger.Fatal("interview aborted", zap.Error(err))
	}
}

func chatLoop(ctx context.Context, c *coach.Coach) error {
	prompt := promptui.Prompt{Label: "You"}

	for {
		input, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		result := c.Chat(ctx, localIdentity, input)
		fmt.Printf("\n%s\n", result.Response)

		if result.Metrics != nil {
			m := result.Metrics
			fmt.Printf("\n[eye contact %d%%, sentiment %s, expression %s, clarity %s, confidence %s]\n",
				m.Engagement, m.Sentiment, m.Expression, m.Clarity, m.Confidence)
		}
		if len(result.Tips) > 0 {
			fmt.Printf("Tips:\n- %s\n", strings.Join(result.Tips, "\n- "))
		}
		fmt.Println()

		if result.Stage == interview.StageCompleted && result.Kind == interview.ReplyFeedback {
			return nil
		}
	}
}
