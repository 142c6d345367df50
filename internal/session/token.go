// Package session decodes the per-request connection token that tells
// the agent which FTP account to open a transfer session against.
package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultPort is the FTP control port used when the token omits one.
const DefaultPort = 21

// DefaultTimeout bounds dial, login and transfer when the token omits
// timeoutSeconds.
const DefaultTimeout = 30 * time.Second

// Credentials describes one FTP account and session options. The JSON
// field names are the wire format of the connection token.
type Credentials struct {
	Server           string `json:"server"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	Dir              string `json:"dir"`
	SSL              bool   `json:"ssl"`
	Passive          bool   `json:"passive"`
	IgnoreCertErrors bool   `json:"ignoreCertErrors"`
	TimeoutSeconds   int    `json:"timeoutSeconds"`
}

// ParseToken decodes a base64 JSON connection token. Standard and
// URL-safe alphabets are accepted, with or without padding.
func ParseToken(token string) (Credentials, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credentials{}, errors.New("empty connection token")
	}

	raw, err := decodeBase64(token)
	if err != nil {
		return Credentials{}, fmt.Errorf("connection token is not valid base64: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("connection token is not valid JSON: %w", err)
	}

	if creds.Host == "" {
		creds.Host = creds.Server
	}
	if creds.Host == "" {
		return Credentials{}, errors.New("connection token is missing a host")
	}
	if creds.Port == 0 {
		creds.Port = DefaultPort
	}
	if creds.Port < 1 || creds.Port > 65535 {
		return Credentials{}, fmt.Errorf("connection token has invalid port %d", creds.Port)
	}
	if creds.Username == "" {
		creds.Username = "anonymous"
	}

	return creds, nil
}

// Addr returns the host:port dial address.
func (c Credentials) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the session timeout from the token, or the default.
func (c Credentials) Timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return DefaultTimeout
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	return nil, errors.New("unrecognized base64 alphabet or padding")
}
