// Utilities for lifting credentials out of a browser "Copy as cURL" command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	headerFlag = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	cookieFlag = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
)

// Session holds the credentials a logged-in browser sends to the task server.
type Session struct {
	Token  string // Bearer token from an Authorization header
	Cookie string // Raw Cookie header value
}

// ParseSessionFile reads a file containing a cURL command and extracts the session.
func ParseSessionFile(path string) (*Session, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseSession(string(content))
}

// ParseSession extracts the bearer token and cookie from a cURL command.
//
// A -b/--cookie flag takes precedence over a Cookie header.
func ParseSession(curlCmd string) (*Session, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	s := &Session{}
	for _, match := range headerFlag.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "authorization":
			if token, found := strings.CutPrefix(value, "Bearer "); found {
				s.Token = strings.TrimSpace(token)
			}
		case "cookie":
			if s.Cookie == "" {
				s.Cookie = value
			}
		}
	}

	if match := cookieFlag.FindStringSubmatch(curlCmd); match != nil {
		s.Cookie = firstGroup(match)
	}

	if s.Token == "" && s.Cookie == "" {
		return nil, fmt.Errorf("%w: no bearer token or cookie found in curl command", ErrInvalidInput)
	}
	return s, nil
}

// Apply copies the session into the API section of config.
func (s *Session) Apply(config *Config) {
	if s.Token != "" {
		config.API.Token = s.Token
	}
	if s.Cookie != "" {
		config.API.Cookie = s.Cookie
	}
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}
