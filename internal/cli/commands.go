package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the persona",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	message := strings.Join(args, " ")
	response, delta, err := a.persona.ProcessInteraction(context.Background(), chatUser, message)
	if err != nil {
		return fmt.Errorf("process interaction: %w", err)
	}

	fmt.Println(response)
	rel, err := a.persona.Relationships.GetOrCreate(chatUser)
	if err == nil {
		fmt.Printf("\n[%s | score %.1f | delta %+.1f]\n", rel.Status, rel.Score, delta)
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persona's current state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		state, err := a.persona.CurrentState()
		if err != nil {
			return err
		}

		fmt.Printf("mood: %s (fortune %d/10)\n", state.Mood, state.Fortune.Value)
		if state.Fortune.Breakthrough {
			fmt.Println("breakthrough day!")
		}

		traits := make([]string, 0, len(state.Personality))
		for name := range state.Personality {
			traits = append(traits, name)
		}
		sort.Strings(traits)
		fmt.Println("personality:")
		for _, name := range traits {
			fmt.Printf("  %-12s %.2f\n", name, state.Personality[name])
		}
		fmt.Printf("active memories: %d\n", len(state.ActiveMemoryIDs))
		return nil
	},
}

var fortuneCmd = &cobra.Command{
	Use:   "fortune",
	Short: "Show today's fortune",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.persona.Fortune.Today()
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d/10\n", f.Day, f.Value)
		if f.ConsecutiveGood > 0 {
			fmt.Printf("good streak: %d\n", f.ConsecutiveGood)
		}
		if f.ConsecutiveBad > 0 {
			fmt.Printf("bad streak: %d\n", f.ConsecutiveBad)
		}
		if f.Breakthrough {
			fmt.Println("breakthrough!")
		}
		return nil
	},
}

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "List known users and relationship state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rels, err := a.persona.Relationships.List()
		if err != nil {
			return err
		}
		if len(rels) == 0 {
			fmt.Println("No relationships yet.")
			return nil
		}

		for _, rel := range rels {
			tx := " "
			if rel.TransmissionEnabled {
				tx = "T"
			}
			fmt.Printf("%-24s %-13s score %6.1f  [%s] interactions %d\n",
				rel.UserID, rel.Status, rel.Score, tx, rel.TotalInteractions)
		}
		return nil
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run the daily maintenance pass now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := a.persona.DailyMaintenance(ctx); err != nil {
			return err
		}
		fmt.Println("Maintenance completed.")
		return nil
	},
}

var transmitCmd = &cobra.Command{
	Use:   "transmit",
	Short: "Run a transmission eligibility check now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		eligible, err := a.controller.CheckEligibility()
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			fmt.Println("No users eligible for transmission.")
			return nil
		}

		for userID, rel := range eligible {
			message, err := a.controller.ComposeMessage(userID)
			if err != nil || message == "" {
				continue
			}
			fmt.Printf("-> %s (%s, score %.1f): %s\n", userID, rel.Status, rel.Score, message)
			if err := a.controller.RecordAttempt(userID, message, true); err != nil {
				fmt.Printf("   record attempt: %v\n", err)
			}
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "cli-user", "User identifier")
}
