package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	practicescreen "github.com/abhisek/practiz/internal/screens/practice"
	"github.com/abhisek/practiz/internal/screens/picker"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start a practice or homework session right away",
	Example: `  practiz practice --subject MATH --grade 3
  practiz practice --homework hw-101`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		grade, _ := cmd.Flags().GetInt("grade")
		homework, _ := cmd.Flags().GetString("homework")

		src := practice.Source{HomeworkID: homework, Grade: grade}
		if subject != "" {
			src.Subject = question.ParseSubject(subject)
			if !slices.Contains(question.AllSubjects, src.Subject) {
				return fmt.Errorf("unknown subject %q (want one of %v)", subject, question.AllSubjects)
			}
		}
		if grade < 0 || grade > picker.MaxGrade {
			return fmt.Errorf("grade must be between 1 and %d", picker.MaxGrade)
		}
		if src.IsHomework() && (subject != "" || grade != 0) {
			return fmt.Errorf("--homework cannot be combined with --subject or --grade")
		}

		title := picker.SessionTitle(src)
		if src.IsHomework() {
			title = "Homework " + homework
		}
		return runApp(cmd, func(svc *screens.Services) screen.Screen {
			return practicescreen.New(svc, src, title)
		})
	},
}

func init() {
	practiceCmd.Flags().StringP("subject", "s", "", "Subject: MATH, LANGUAGE, READING or LITERACY")
	practiceCmd.Flags().IntP("grade", "g", 0, "Grade level, 0 for all")
	practiceCmd.Flags().String("homework", "", "Homework id to work on instead of free practice")
}
