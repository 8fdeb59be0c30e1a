package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/quizgrade/internal/grading"
)

var rootCmd = &cobra.Command{
	Use:           "quizctl",
	Short:         "Offline quiz grading tools",
	Long:          "quizctl scores answers and progress documents with the grading engine, without a server or database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("file", "f", "-", "JSON input file, - for stdin")
	rootCmd.PersistentFlags().Duration("regex-timeout", 100*time.Millisecond, "Time limit per regular expression match")

	rootCmd.AddCommand(validateAnswerCmd)
	rootCmd.AddCommand(validateProgressCmd)
	rootCmd.AddCommand(tokenCmd)
}

func engineFor(cmd *cobra.Command) *grading.Engine {
	d, _ := cmd.Flags().GetDuration("regex-timeout")
	return grading.New(grading.WithRegexTimeout(d))
}

// readInput decodes the --file document, or stdin when it is "-".
func readInput(cmd *cobra.Command, v any) error {
	path, _ := cmd.Flags().GetString("file")
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
