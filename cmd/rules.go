package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the reward rules that apply to the signed-in learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		client, learner, err := signedInClient(ctx, cmd, st)
		if err != nil {
			return err
		}
		rules, err := client.Rules(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-10s  %-20s  %-20s  %5s  %-10s  %-6s  %s\n",
			"ID", "Name", "Trigger", "Every", "Reward", "Scope", "Applies")
		fmt.Println(strings.Repeat("─", 96))
		shown := 0
		for _, r := range rules {
			applies := r.AppliesTo(learner.UserID)
			if !applies && !all {
				continue
			}
			scope := "some"
			if r.IsGlobal {
				scope = "all"
			}
			mark := "✓"
			if !applies {
				mark = "✗"
			}
			fmt.Printf("%-10s  %-20s  %-20s  %5d  %-10s  %-6s  %s\n",
				truncate(r.ID, 10), truncate(r.Name, 20), r.TriggerType, r.TriggerValue, r.RewardKind, scope, mark)
			shown++
		}
		if shown == 0 {
			fmt.Printf("No reward rules apply to %s.\n", learner.Username)
		}
		return nil
	},
}

func init() {
	rulesCmd.Flags().Bool("all", false, "Also list rules that do not apply to the learner")
}
