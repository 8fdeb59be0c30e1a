package main

import (
	"github.com/spf13/cobra"

	"github.com/mind-engage/quizgrade/internal/grading"
)

var validateAnswerCmd = &cobra.Command{
	Use:   "validate-answer",
	Short: "Score one {quiz, answer, peerReviews} entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in *grading.Entry
		if err := readInput(cmd, &in); err != nil {
			return err
		}
		v, err := engineFor(cmd).ValidateAnswer(in)
		if err != nil {
			return err
		}
		return printJSON(cmd, v)
	},
}

var validateProgressCmd = &cobra.Command{
	Use:   "validate-progress",
	Short: "Score an {answered, notAnswered, rejected} progress document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var p grading.Progress
		if err := readInput(cmd, &p); err != nil {
			return err
		}
		return printJSON(cmd, engineFor(cmd).ValidateProgress(p))
	},
}
