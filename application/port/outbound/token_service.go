package outbound

// TokenClaims identifies the agent or operator behind a request
type TokenClaims struct {
	Actor string `json:"actor"`
	Role  string `json:"role"`
}

type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}
