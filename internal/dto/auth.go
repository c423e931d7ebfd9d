package dto

import "time"

// ==================== Auth DTOs ====================

// NonceResponse bare nonce for clients that assemble the message themselves
type NonceResponse struct {
	Success   bool      `json:"success"`
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageRequest asks the server to build a sign-in message
type MessageRequest struct {
	Address   string   `json:"address" binding:"required"` // wallet address, EIP-55 or lowercase
	ChainID   int64    `json:"chain_id"`                   // EIP-155 chain ID, defaults to the configured chain
	Statement string   `json:"statement"`                  // optional single-line statement
	RequestID string   `json:"request_id"`                 // optional correlation id echoed in the message
	Resources []string `json:"resources"`                  // optional absolute URIs
}

// MessageResponse the message the wallet must sign, byte for byte
type MessageResponse struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	Nonce          string     `json:"nonce"`
	IssuedAt       time.Time  `json:"issued_at"`
	ExpirationTime *time.Time `json:"expiration_time,omitempty"`
}

// VerifyRequest Authentication request structure
type VerifyRequest struct {
	Message   string `json:"message" binding:"required"`   // exact text that was signed
	Signature string `json:"signature" binding:"required"` // 0x-hex personal_sign signature
	Address   string `json:"address"`                      // optional claimed address
}

// VerifyResponse Authentication response structure
type VerifyResponse struct {
	Success   bool       `json:"success"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Address   string     `json:"address,omitempty"`
	ChainID   int64      `json:"chain_id,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Message   string     `json:"message"`
}

// ErrorResponse generic failure body
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
