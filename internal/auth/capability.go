package auth

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the fixed issuer every capability must carry.
const Issuer = "parcel-tracker"

// Capability is the bearer handle returned by Login. It proves nothing on its
// own: it is honored only while the Authenticator holds a live session for
// Username.
type Capability struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewCapability returns a capability for username with the fixed issuer.
func NewCapability(username string) Capability {
	return Capability{
		Username:         username,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer},
	}
}

// Encode returns the wire form {"iss": ..., "username": ...}.
func (c Capability) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode capability: %w", err)
	}
	return string(data), nil
}

// DecodeCapability parses the wire form. Issuer and session checks are left to
// Authenticator.Verify.
func DecodeCapability(data []byte) (Capability, error) {
	var c Capability
	if err := json.Unmarshal(data, &c); err != nil {
		return Capability{}, fmt.Errorf("decode capability: %w", err)
	}
	return c, nil
}
