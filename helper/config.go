package helper

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultSecretKey = "insecure-development-secret"

// ServerConfiguration holds the HTTP server settings read from the environment.
type ServerConfiguration struct {
	Port               string
	SecretKey          string
	Debug              bool
	AllowedHosts       []string
	CORSAllowedOrigins []string
}

// NewServerConfiguration reads SECRET_KEY, DEBUG, ALLOWED_HOSTS,
// CORS_ALLOWED_ORIGINS and PORT. SECRET_KEY may only be omitted in debug mode.
func NewServerConfiguration() (*ServerConfiguration, error) {
	config := &ServerConfiguration{
		Port:               getEnvOrDefault("PORT", "8000"),
		SecretKey:          os.Getenv("SECRET_KEY"),
		AllowedHosts:       splitList(os.Getenv("ALLOWED_HOSTS")),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if debug := os.Getenv("DEBUG"); debug != "" {
		parsed, err := strconv.ParseBool(debug)
		if err != nil {
			return nil, NewError("server configuration", fmt.Errorf("DEBUG must be a boolean: %w", err))
		}
		config.Debug = parsed
	}

	if config.SecretKey == "" {
		if !config.Debug {
			return nil, NewError("server configuration", fmt.Errorf("SECRET_KEY must be set when DEBUG is false"))
		}
		config.SecretKey = defaultSecretKey
	}

	if len(config.AllowedHosts) == 0 && config.Debug {
		config.AllowedHosts = []string{"localhost", "127.0.0.1"}
	}

	return config, nil
}

// HostAllowed reports whether host (without port) is in the allow-list.
// A "*" entry allows every host.
func (c *ServerConfiguration) HostAllowed(host string) bool {
	if len(c.AllowedHosts) == 0 {
		return false
	}
	host = strings.ToLower(host)
	for _, allowed := range c.AllowedHosts {
		allowed = strings.ToLower(allowed)
		if allowed == "*" || allowed == host {
			return true
		}
		if strings.HasPrefix(allowed, ".") && (strings.HasSuffix(host, allowed) || host == allowed[1:]) {
			return true
		}
	}
	return false
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
