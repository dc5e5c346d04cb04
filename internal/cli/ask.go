package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cribconcierge/concierge-go/internal/models"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the stored listings",
	Long: `Ask a question about the property listings and get an answer.

Pass --session to continue a multi-turn conversation; the first answer
prints the generated session ID.

Examples:
  concierge ask "What properties are available?"
  concierge ask "How much does it cost?" --session 3f2a...`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session ID for multi-turn conversations")
}

func runAsk(cmd *cobra.Command, args []string) error {
	resp, err := api.Ask(context.Background(), args[0], askSession)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Println(resp.Answer)

	if resp.ShowPropertyCards {
		fmt.Println()
		for _, card := range resp.Properties {
			printCard(card)
		}
	}

	if verbose {
		fmt.Println()
		fmt.Println(labelStyle.Render("source:"), resp.Source)
		fmt.Println(labelStyle.Render("session:"), resp.SessionID)
		fmt.Println(labelStyle.Render("listings known:"), fmt.Sprint(resp.KnowledgeBaseSize))
	}
	return nil
}

func printCard(card models.Card) {
	body := fmt.Sprintf("%s\n%s · %s\n%d bed · %d bath · %s",
		headingStyle.Render(card.Title),
		card.Price, card.Location,
		card.Bedrooms, card.Bathrooms, card.Area)
	if card.HasVRTour {
		body += "\n" + okStyle.Render("3D tour available")
	}
	fmt.Println(cardStyle.Render(body))
}
