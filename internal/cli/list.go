package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [id]",
	Short: "List stored property listings",
	Long: `List all stored property listings, or show one listing in full by ID.

Examples:
  concierge list
  concierge list 7fb1c2...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 1 {
		return showListing(ctx, args[0])
	}

	resp, err := api.Listings(ctx)
	if err != nil {
		return fmt.Errorf("list listings: %w", err)
	}

	if resp.Count == 0 {
		fmt.Println("No listings stored yet.")
		return nil
	}

	fmt.Println(headingStyle.Render(fmt.Sprintf("Listings (%d):", resp.Count)))
	fmt.Println()
	for _, p := range resp.Properties {
		fmt.Printf("- %s  %s\n", valueStyle.Render(p.PropertyName), labelStyle.Render(p.ID))
		if verbose {
			fmt.Printf("  %s · %s\n", p.PropertyAddress, p.PropertyCostRange)
			if len(p.Features) > 0 {
				fmt.Printf("  %s\n", strings.Join(p.Features, ", "))
			}
		}
	}
	return nil
}

func showListing(ctx context.Context, id string) error {
	p, err := api.GetProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("get listing: %w", err)
	}

	fmt.Println(headingStyle.Render(p.PropertyName))
	fmt.Println(labelStyle.Render("id:"), p.ID)
	fmt.Println(labelStyle.Render("address:"), p.PropertyAddress)
	fmt.Println(labelStyle.Render("price:"), p.PropertyCostRange)
	fmt.Println(labelStyle.Render("bedrooms:"), p.Bedrooms)
	fmt.Println(labelStyle.Render("bathrooms:"), p.Bathrooms)
	fmt.Println(labelStyle.Render("area:"), p.Area)
	if len(p.Features) > 0 {
		fmt.Println(labelStyle.Render("features:"), strings.Join(p.Features, ", "))
	}
	if p.Description != "" {
		fmt.Println()
		fmt.Println(p.Description)
	}
	if n := p.PhotoCount(); n > 0 {
		fmt.Println()
		fmt.Println(labelStyle.Render("photos:"), n)
	}
	return nil
}
