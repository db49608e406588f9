package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-quiz/internal/logger"
	"github.com/spigell/career-quiz/internal/quiz"
)

const (
	PromptSubmit = "Submit answers"
	PromptCancel = "Cancel"
)

var errCancelled = errors.New("quiz cancelled")

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take the career quiz in the terminal and analyze the answers",
	Run: func(cmd *cobra.Command, _ []string) {
		takeQuiz(cmd)
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().StringP("user", "u", "", "user id the result is saved for")
	quizCmd.MarkFlagRequired("user")
}

func takeQuiz(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	userID, _ := cmd.Flags().GetString("user")

	application, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing the application", zap.Error(err))
	}
	defer application.Close()

	questions, err := application.store.ListQuestions(ctx)
	if err != nil {
		logger.Fatal("loading questions", zap.Error(err))
	}
	if len(questions) == 0 {
		logger.Fatal("the question catalog is empty", zap.String("hint", "fill the questions table first"))
	}

	answers, err := askQuestions(questions, selectPrompt)
	if errors.Is(err, errCancelled) || errors.Is(err, promptui.ErrInterrupt) {
		logger.Info("quiz cancelled")
		return
	}
	if err != nil {
		logger.Fatal("asking questions", zap.Error(err))
	}

	result, err := application.analyzer.Analyze(ctx, userID, answers)
	if err != nil {
		logger.Fatal("analyzing answers", zap.Error(err))
	}

	printResult(cmd.OutOrStdout(), result)
}

// selectFunc shows a list and returns the chosen index.
type selectFunc func(label string, items []string) (int, error)

func selectPrompt(label string, items []string) (int, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  len(items),
	}
	index, _, err := prompt.Run()
	return index, err
}

func askQuestions(questions []quiz.Question, choose selectFunc) ([]quiz.SubmittedAnswer, error) {
	answers := make([]quiz.SubmittedAnswer, 0, len(questions))

	for i, question := range questions {
		if len(question.Options) == 0 {
			continue
		}

		items := make([]string, 0, len(question.Options))
		for _, option := range question.Options {
			items = append(items, option.Text)
		}

		label := fmt.Sprintf("[%d/%d] %s", i+1, len(questions), question.QuestionText)
		index, err := choose(label, items)
		if err != nil {
			return nil, err
		}

		answers = append(answers, quiz.SubmittedAnswer{
			QuestionID:       question.ID,
			SelectedOptionID: question.Options[index].ID,
		})
	}

	index, err := choose(fmt.Sprintf("%d answers given. Proceed?", len(answers)), []string{PromptSubmit, PromptCancel})
	if err != nil {
		return nil, err
	}
	if index != 0 {
		return nil, errCancelled
	}

	return answers, nil
}

func printResult(w io.Writer, result *quiz.Result) {
	fmt.Fprintf(w, "\n%s\n\n", result.CareerRecommendation)
	if len(result.ProfessionIDs) > 0 {
		fmt.Fprintf(w, "Professions: %s\n", strings.Join(result.ProfessionIDs, ", "))
	}

	if len(result.SuitableCourses) == 0 {
		fmt.Fprintln(w, "No matching courses found.")
		return
	}

	fmt.Fprintln(w, "Suitable courses:")
	for _, course := range result.SuitableCourses {
		line := "  - " + course.Title
		if course.Title == "" {
			line = "  - " + course.ID
		}
		if course.Provider != "" {
			line += " (" + course.Provider + ")"
		}
		if course.URL != "" {
			line += " " + course.URL
		}
		fmt.Fprintln(w, line)
	}
}
