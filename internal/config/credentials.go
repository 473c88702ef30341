package config

import (
	"os"
	"strings"

	"github.com/rxtech-lab/argo-pilot/pkg/errors"
)

// TokenEnvVar is the environment variable holding the venue API token.
// Tokens never appear in config files.
const TokenEnvVar = "PILOT_API_TOKEN"

// Credentials carries the opaque venue authentication token. Nothing in
// the agent inspects it; it is passed through to the venue's authorize
// call as-is.
type Credentials struct {
	Token string
}

// LoadCredentials reads the API token from the environment. The deriv
// venue requires it; the paper venue never calls this.
func LoadCredentials() (Credentials, error) {
	token := strings.TrimSpace(os.Getenv(TokenEnvVar))
	if token == "" {
		return Credentials{}, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"%s is not set; the deriv venue cannot authenticate without it", TokenEnvVar)
	}

	return Credentials{Token: token}, nil
}
