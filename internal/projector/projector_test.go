package projector_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribconcierge/concierge-go/internal/models"
	"github.com/cribconcierge/concierge-go/internal/projector"
)

func sampleProperty() models.Property {
	return models.Property{
		ID:                "prop-1",
		PropertyName:      "Sunset Villa",
		PropertyAddress:   "12 Hill Road, Pune",
		PropertyCostRange: "85L - 95L",
		Description:       "Spacious villa with garden.",
		Bedrooms:          3,
		Bathrooms:         2,
		Area:              "2100 sqft",
		Features:          []string{"garden", "parking"},
		RoomPhotoID:       "photo-room",
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	p := sampleProperty()
	first := projector.Project(p)
	second := projector.Project(p)
	assert.Equal(t, first, second)
}

func TestProjectRendersAllFields(t *testing.T) {
	doc := projector.Project(sampleProperty())

	assert.Equal(t, "prop-1", doc.PropertyID)
	assert.Equal(t, "Sunset Villa", doc.Name)
	assert.Equal(t, "property", doc.Type)

	for _, want := range []string{
		"Property Name: Sunset Villa",
		"Property Address: 12 Hill Road, Pune",
		"Price: " + models.CurrencyPrefix + "85L - 95L",
		"Bedrooms: 3",
		"Bathrooms: 2",
		"Area: 2100 sqft",
		"Features: garden, parking",
		"Description: Spacious villa with garden.",
	} {
		assert.Contains(t, doc.Text, want)
	}
}

func TestProjectMissingFieldsRenderPlaceholder(t *testing.T) {
	doc := projector.Project(models.Property{ID: "empty", PropertyName: "Bare"})

	assert.Contains(t, doc.Text, "Price: "+projector.NotAvailable)
	assert.Contains(t, doc.Text, "Description: "+projector.NotAvailable)
	assert.Contains(t, doc.Text, "Features: "+projector.NotAvailable)
	assert.NotContains(t, doc.Text, "Price: \n", "no field line should be empty")
}

func TestProjectPhotoFlagsNotIdentifiers(t *testing.T) {
	doc := projector.Project(sampleProperty())

	assert.Contains(t, doc.Text, "Room photo: available")
	assert.Contains(t, doc.Text, "Bathroom photo: not available")
	assert.NotContains(t, doc.Text, "photo-room",
		"raw photo IDs must not leak into the projection")
}

func TestProjectAllPreservesOrder(t *testing.T) {
	props := []models.Property{
		{ID: "a", PropertyName: "First"},
		{ID: "b", PropertyName: "Second"},
	}

	docs := projector.ProjectAll(props)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].PropertyID)
	assert.Equal(t, "b", docs[1].PropertyID)
}

func TestMetadataMatchesDocument(t *testing.T) {
	doc := projector.Project(sampleProperty())
	meta := doc.Metadata()

	assert.Equal(t, doc.PropertyID, meta.PropertyID)
	assert.Equal(t, doc.Name, meta.Name)
	assert.Equal(t, doc.Address, meta.Address)
	assert.True(t, strings.HasPrefix(meta.Price, models.CurrencyPrefix))
}
