package dto

type CheckoutRequest struct {
	CourseID  string  `json:"id"` // course id or slug, becomes the external reference
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	UserEmail string  `json:"userEmail"`
}

type CheckoutResponse struct {
	URL          string `json:"url"`
	PreferenceID string `json:"preferenceId"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type RegisterResponse struct {
	Success bool `json:"success"`
	UserID  int  `json:"userId"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CredentialsStatus struct {
	Configured bool   `json:"configured"`
	TokenType  string `json:"tokenType,omitempty"`
	IsTest     bool   `json:"isTest"`
}
