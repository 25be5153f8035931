package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the learner's saved results from the portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		verbose, _ := cmd.Flags().GetBool("verbose")
		if page < 1 || size < 1 {
			return fmt.Errorf("--page and --size must be positive")
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		client, _, err := signedInClient(ctx, cmd, st)
		if err != nil {
			return err
		}
		hp, err := client.History(ctx, page, size)
		if err != nil {
			return err
		}
		if len(hp.List) == 0 {
			fmt.Println("No results yet.")
			return nil
		}

		fmt.Printf("%-19s  %-28s  %8s  %5s\n", "Date", "Name", "Correct", "Wrong")
		fmt.Println(strings.Repeat("─", 68))
		for _, e := range hp.List {
			fmt.Printf("%-19s  %-28s  %3d/%-4s  %5d\n",
				e.Date, truncate(e.Name, 28), e.CorrectCount, e.Total, e.WrongCount)
			if !verbose {
				continue
			}
			qs, err := e.DecodeQuestions()
			if err != nil {
				fmt.Printf("    (questions unreadable: %v)\n", err)
				continue
			}
			for _, q := range qs {
				fmt.Printf("    %-7s  %-30s  %s → %s (%d tries)\n",
					q.Status, truncate(q.Stem, 30), q.UserAnswer, q.Answer, q.Attempts)
			}
		}
		pages := (hp.Total + int64(size) - 1) / int64(size)
		fmt.Printf("\nPage %d of %d (%d results)\n", page, max(pages, 1), hp.Total)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("page", "p", 1, "Page number")
	historyCmd.Flags().IntP("size", "n", 10, "Results per page")
	historyCmd.Flags().BoolP("verbose", "v", false, "Show each question")
}
