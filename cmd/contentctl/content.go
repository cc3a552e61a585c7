package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/mastery-api/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load topics and questions from a YAML course file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		course, err := service.LoadCourse(f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		env, err := newContentEnv(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.close()

		summary, err := env.content.SeedCourse(cmd.Context(), course)
		if err != nil {
			printRowErrors(cmd, err)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Topics created: %d, reused: %d. Questions created: %d\n",
			summary.TopicsCreated, summary.TopicsReused, summary.QuestionsCreated)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import questions from an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := service.ParseQuestionsXLSX(f)
		if err != nil {
			printRowErrors(cmd, err)
			return fmt.Errorf("%s: %w", path, err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		env, err := newContentEnv(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.close()

		imported, err := env.content.ImportQuestions(cmd.Context(), rows)
		if err != nil {
			printRowErrors(cmd, err)
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions\n", imported)
		return nil
	},
}

// printRowErrors выводит построчные ошибки импорта, по одной на строку
func printRowErrors(cmd *cobra.Command, err error) {
	var importErr *service.ImportError
	if !errors.As(err, &importErr) {
		return
	}
	for _, r := range importErr.Rows {
		fmt.Fprintf(cmd.ErrOrStderr(), "  row %d: %s\n", r.Row, r.Message)
	}
}

func init() {
	seedCmd.Flags().String("file", "", "Path to course YAML file")
	seedCmd.MarkFlagRequired("file")

	importCmd.Flags().String("file", "", "Path to XLSX workbook")
	importCmd.MarkFlagRequired("file")
}
