package transport

import "time"

// ProductResponse is a master-data record as the grid consumes it: read-only
// values keyed by profile field name.
type ProductResponse struct {
	WSN       string            `json:"wsn"`
	Fields    map[string]string `json:"fields"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type UpsertProductRequest struct {
	Title    string `json:"title" validate:"required,max=500"`
	Brand    string `json:"brand" validate:"max=200"`
	Category string `json:"category" validate:"max=200"`
	Vertical string `json:"vertical" validate:"max=200"`
	MRPCents int64  `json:"mrpCents" validate:"gte=0"`
	FSPCents int64  `json:"fspCents" validate:"gte=0"`
}
