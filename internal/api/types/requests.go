package types

import "encoding/json"

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type ImageInput struct {
	URL         string          `json:"url" validate:"required"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type GallerySaveRequest struct {
	Images []ImageInput `json:"images" validate:"required,min=1,dive"`
}
