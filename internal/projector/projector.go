// Package projector turns listing records into canonical text blocks
// for indexing.
package projector

import (
	"fmt"
	"strings"

	"github.com/cribconcierge/concierge-go/internal/models"
)

// NotAvailable is rendered for missing fields so retrieval can match on
// absence instead of silently dropping the line.
const NotAvailable = "not available"

// Document is the ephemeral text projection of one Property. It is
// created fresh on each projection and never mutated.
type Document struct {
	PropertyID string
	Name       string
	Address    string
	Price      string
	Type       string
	Text       string
}

// Metadata labels a chunk with its source document.
type Metadata struct {
	PropertyID string
	Name       string
	Address    string
	Price      string
	Type       string
}

// Metadata returns the document's chunk back-reference fields.
func (d Document) Metadata() Metadata {
	return Metadata{
		PropertyID: d.PropertyID,
		Name:       d.Name,
		Address:    d.Address,
		Price:      d.Price,
		Type:       d.Type,
	}
}

// Project renders one listing into its document. Pure and total: the
// same record always yields the same text, and missing fields render as
// the NotAvailable placeholder. Photo identifiers are rendered as
// present/absent flags so the text stays stable when IDs change.
func Project(p models.Property) Document {
	var b strings.Builder

	writeField(&b, "Property Name", p.PropertyName)
	writeField(&b, "Property Address", p.PropertyAddress)
	writeField(&b, "Price", currency(p.PropertyCostRange))
	writeField(&b, "Bedrooms", intField(p.Bedrooms))
	writeField(&b, "Bathrooms", intField(p.Bathrooms))
	writeField(&b, "Area", p.Area)
	writeField(&b, "Features", strings.Join(p.Features, ", "))
	writeField(&b, "Description", p.Description)
	writeField(&b, "Status", p.Status)

	b.WriteString("Available Images:\n")
	writePhoto(&b, "Room photo", p.RoomPhotoID)
	writePhoto(&b, "Bathroom photo", p.BathroomPhotoID)
	writePhoto(&b, "Drawing room photo", p.DrawingRoomPhotoID)
	writePhoto(&b, "Kitchen photo", p.KitchenPhotoID)

	return Document{
		PropertyID: p.ID,
		Name:       p.PropertyName,
		Address:    p.PropertyAddress,
		Price:      currency(p.PropertyCostRange),
		Type:       "property",
		Text:       b.String(),
	}
}

// ProjectAll renders every record, one document per listing, in input
// order.
func ProjectAll(props []models.Property) []Document {
	docs := make([]Document, 0, len(props))
	for _, p := range props {
		docs = append(docs, Project(p))
	}
	return docs
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = NotAvailable
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func writePhoto(b *strings.Builder, label, id string) {
	if id != "" {
		fmt.Fprintf(b, "%s: available\n", label)
	} else {
		fmt.Fprintf(b, "%s: not available\n", label)
	}
}

func currency(cost string) string {
	if cost == "" {
		return ""
	}
	return models.CurrencyPrefix + cost
}

func intField(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
