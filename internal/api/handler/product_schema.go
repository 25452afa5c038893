package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// productRequest is the body of create and update. Pointers distinguish an
// omitted field from a zero value.
type productRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Stock       *int     `json:"stock"`
}

type acknowledgementResponse struct {
	Message string `json:"message"`
}
