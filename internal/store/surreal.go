package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/cribconcierge/concierge-go/internal/models"
)

// schemaSQL defines the property table. Schemaless with a few typed
// fields so malformed writes fail early.
const schemaSQL = `
DEFINE TABLE IF NOT EXISTS property SCHEMALESS;
DEFINE FIELD IF NOT EXISTS propertyName ON property TYPE string;
DEFINE FIELD IF NOT EXISTS created_at ON property TYPE datetime;
DEFINE FIELD IF NOT EXISTS updated_at ON property TYPE datetime;
DEFINE INDEX IF NOT EXISTS property_created ON property FIELDS created_at;
`

// SurrealConfig holds SurrealDB connection configuration.
type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Surreal is a SurrealDB-backed Store.
type Surreal struct {
	db     *surrealdb.DB
	logger *slog.Logger
}

// propertyRow mirrors models.Property with SurrealDB's record ID type.
type propertyRow struct {
	ID                 surrealmodels.RecordID `json:"id"`
	PropertyName       string                 `json:"propertyName"`
	PropertyAddress    string                 `json:"propertyAddress"`
	PropertyCostRange  string                 `json:"propertyCostRange"`
	Description        string                 `json:"description"`
	Bedrooms           int                    `json:"bedrooms"`
	Bathrooms          int                    `json:"bathrooms"`
	Area               string                 `json:"area"`
	Features           []string               `json:"features"`
	RoomPhotoID        string                 `json:"roomPhotoId,omitempty"`
	BathroomPhotoID    string                 `json:"bathroomPhotoId,omitempty"`
	DrawingRoomPhotoID string                 `json:"drawingRoomPhotoId,omitempty"`
	KitchenPhotoID     string                 `json:"kitchenPhotoId,omitempty"`
	Status             string                 `json:"status,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// NewSurreal connects to SurrealDB, authenticates, selects the
// namespace/database and ensures the schema exists.
func NewSurreal(ctx context.Context, cfg SurrealConfig, logger *slog.Logger) (*Surreal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if _, err := db.SignIn(ctx, surrealdb.Auth{
		Username: cfg.Username,
		Password: cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("signin: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("use: %w", err)
	}

	if _, err := surrealdb.Query[any](ctx, db, schemaSQL, nil); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Info("SurrealDB store ready", "url", cfg.URL,
		"namespace", cfg.Namespace, "database", cfg.Database)
	return &Surreal{db: db, logger: logger}, nil
}

// Close closes the database connection.
func (s *Surreal) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

// GetAll returns all listings ordered by creation time, oldest first.
func (s *Surreal) GetAll(ctx context.Context) ([]models.Property, error) {
	results, err := surrealdb.Query[[]propertyRow](ctx, s.db,
		`SELECT * FROM property ORDER BY created_at ASC`, nil)
	if err != nil {
		return nil, fmt.Errorf("select properties: %w", err)
	}

	var rows []propertyRow
	if len(*results) > 0 {
		rows = (*results)[0].Result
	}

	props := make([]models.Property, 0, len(rows))
	for _, row := range rows {
		props = append(props, row.toProperty())
	}
	return props, nil
}

// GetByID returns the listing with the given ID, or nil if absent.
func (s *Surreal) GetByID(ctx context.Context, id string) (*models.Property, error) {
	results, err := surrealdb.Query[[]propertyRow](ctx, s.db,
		`SELECT * FROM property WHERE record::id(id) = $id`,
		map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("select property: %w", err)
	}

	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	p := (*results)[0].Result[0].toProperty()
	return &p, nil
}

// Add stores a new listing, assigning its ID and timestamps.
func (s *Surreal) Add(ctx context.Context, p models.Property) (string, error) {
	results, err := surrealdb.Query[[]propertyRow](ctx, s.db, `
		CREATE property CONTENT {
			propertyName: $name,
			propertyAddress: $address,
			propertyCostRange: $cost,
			description: $description,
			bedrooms: $bedrooms,
			bathrooms: $bathrooms,
			area: $area,
			features: $features,
			roomPhotoId: $room,
			bathroomPhotoId: $bathroom,
			drawingRoomPhotoId: $drawingRoom,
			kitchenPhotoId: $kitchen,
			status: $status,
			created_at: time::now(),
			updated_at: time::now()
		}`,
		map[string]any{
			"name":        p.PropertyName,
			"address":     p.PropertyAddress,
			"cost":        p.PropertyCostRange,
			"description": p.Description,
			"bedrooms":    p.Bedrooms,
			"bathrooms":   p.Bathrooms,
			"area":        p.Area,
			"features":    p.Features,
			"room":        p.RoomPhotoID,
			"bathroom":    p.BathroomPhotoID,
			"drawingRoom": p.DrawingRoomPhotoID,
			"kitchen":     p.KitchenPhotoID,
			"status":      p.Status,
		})
	if err != nil {
		return "", fmt.Errorf("create property: %w", err)
	}

	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("create property: no row returned")
	}
	return recordIDString((*results)[0].Result[0].ID), nil
}

func (r propertyRow) toProperty() models.Property {
	return models.Property{
		ID:                 recordIDString(r.ID),
		PropertyName:       r.PropertyName,
		PropertyAddress:    r.PropertyAddress,
		PropertyCostRange:  r.PropertyCostRange,
		Description:        r.Description,
		Bedrooms:           r.Bedrooms,
		Bathrooms:          r.Bathrooms,
		Area:               r.Area,
		Features:           r.Features,
		RoomPhotoID:        r.RoomPhotoID,
		BathroomPhotoID:    r.BathroomPhotoID,
		DrawingRoomPhotoID: r.DrawingRoomPhotoID,
		KitchenPhotoID:     r.KitchenPhotoID,
		Status:             r.Status,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// recordIDString extracts the string part of a SurrealDB record ID.
func recordIDString(id surrealmodels.RecordID) string {
	if s, ok := id.ID.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", id.ID)
}
