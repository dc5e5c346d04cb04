package models

// Card is the display-ready summary of a Property attached to chat
// answers. Field names match what the chat frontend's PropertyCard
// component consumes.
type Card struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Price              string   `json:"price"`
	Location           string   `json:"location"`
	Bedrooms           int      `json:"bedrooms"`
	Bathrooms          int      `json:"bathrooms"`
	Area               string   `json:"area"`
	Features           []string `json:"features"`
	Description        string   `json:"description"`
	HasVRTour          bool     `json:"hasVRTour"`
	RoomPhotoID        string   `json:"roomPhotoId,omitempty"`
	BathroomPhotoID    string   `json:"bathroomPhotoId,omitempty"`
	DrawingRoomPhotoID string   `json:"drawingRoomPhotoId,omitempty"`
	KitchenPhotoID     string   `json:"kitchenPhotoId,omitempty"`
	Image              string   `json:"image"`
}

// Placeholder values substituted for missing listing fields. Card
// formatting is total: it never fails, it only falls back to these.
const (
	UnknownTitle     = "Unknown Property"
	UnknownPrice     = "Price not specified"
	UnknownLocation  = "Location not specified"
	UnknownArea      = "Area not specified"
	DefaultBedrooms  = 2
	DefaultBathrooms = 1
	PlaceholderImage = "/placeholder-property.jpg"
	CurrencyPrefix   = "₹"
	imageRoutePrefix = "/api/images/"
)

// ToCard formats a Property for display. Missing fields become
// placeholders rather than being omitted.
func ToCard(p Property) Card {
	title := p.PropertyName
	if title == "" {
		title = UnknownTitle
	}

	price := p.PropertyCostRange
	if price == "" {
		price = UnknownPrice
	}
	price = CurrencyPrefix + price

	location := p.PropertyAddress
	if location == "" {
		location = UnknownLocation
	}

	area := p.Area
	if area == "" {
		area = UnknownArea
	}

	bedrooms := p.Bedrooms
	if bedrooms == 0 {
		bedrooms = DefaultBedrooms
	}
	bathrooms := p.Bathrooms
	if bathrooms == 0 {
		bathrooms = DefaultBathrooms
	}

	image := PlaceholderImage
	for _, id := range p.PhotoIDs() {
		if id != "" {
			image = imageRoutePrefix + id
			break
		}
	}

	return Card{
		ID:                 p.ID,
		Title:              title,
		Price:              price,
		Location:           location,
		Bedrooms:           bedrooms,
		Bathrooms:          bathrooms,
		Area:               area,
		Features:           p.Features,
		Description:        p.Description,
		HasVRTour:          p.PhotoCount() > 0,
		RoomPhotoID:        p.RoomPhotoID,
		BathroomPhotoID:    p.BathroomPhotoID,
		DrawingRoomPhotoID: p.DrawingRoomPhotoID,
		KitchenPhotoID:     p.KitchenPhotoID,
		Image:              image,
	}
}

// ToCards formats up to limit properties, preserving input order.
// A limit of 0 or less means no cap.
func ToCards(props []Property, limit int) []Card {
	if limit > 0 && len(props) > limit {
		props = props[:limit]
	}
	cards := make([]Card, 0, len(props))
	for _, p := range props {
		cards = append(cards, ToCard(p))
	}
	return cards
}
