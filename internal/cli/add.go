package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cribconcierge/concierge-go/internal/models"
)

var (
	addAddress   string
	addPrice     string
	addDesc      string
	addBedrooms  int
	addBathrooms int
	addArea      string
	addFeatures  []string
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a property listing",
	Long: `Add a property listing to the concierge. The semantic index is
updated incrementally after the listing is stored.

Examples:
  concierge add "Sunset Villa" --address "12 Hill Road, Pune" --price "85L - 95L"
  concierge add "Lake View Flat" -a "Kharadi" -p "1.2Cr" --bedrooms 3 --area "1450 sqft"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addAddress, "address", "a", "", "property address")
	addCmd.Flags().StringVarP(&addPrice, "price", "p", "", "price or price range")
	addCmd.Flags().StringVarP(&addDesc, "description", "d", "", "free-text description")
	addCmd.Flags().IntVar(&addBedrooms, "bedrooms", 0, "number of bedrooms")
	addCmd.Flags().IntVar(&addBathrooms, "bathrooms", 0, "number of bathrooms")
	addCmd.Flags().StringVar(&addArea, "area", "", "floor area, e.g. \"1450 sqft\"")
	addCmd.Flags().StringSliceVarP(&addFeatures, "features", "f", nil, "feature list")
}

func runAdd(cmd *cobra.Command, args []string) error {
	p := models.Property{
		PropertyName:      args[0],
		PropertyAddress:   addAddress,
		PropertyCostRange: addPrice,
		Description:       addDesc,
		Bedrooms:          addBedrooms,
		Bathrooms:         addBathrooms,
		Area:              addArea,
		Features:          addFeatures,
	}

	resp, err := api.AddListing(context.Background(), p)
	if err != nil {
		return fmt.Errorf("add listing: %w", err)
	}

	fmt.Println(okStyle.Render("Listing stored."), labelStyle.Render("id:"), resp.PropertyID)
	return nil
}
