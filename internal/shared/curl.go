// Utilities for parsing cURL commands copied from browser DevTools.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// CurlSession represents headers and the bearer token extracted from a cURL command.
type CurlSession struct {
	Headers map[string]string
	Token   string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts session data.
func ParseCurlFile(path string) (*CurlSession, error) {
	content, err := VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers, cookies,
// and the Authorization bearer token if present.
//
// Lets an engineer seed a harness session from an existing dashboard login
// without pasting credentials into the config.
func ParseCurlCommand(data []byte) (*CurlSession, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string
	var token string

	headerRegex := regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	matches := headerRegex.FindAllStringSubmatch(curlCmd, -1)

	for _, match := range matches {
		headerLine := match[1]
		if headerLine == "" {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch strings.ToLower(key) {
		case "cookie":
			cookie = value
		case "authorization":
			headers[key] = value
			if bearer, ok := strings.CutPrefix(value, "Bearer "); ok {
				token = bearer
			}
		default:
			headers[key] = value
		}
	}

	cookieRegex := regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	if cookieMatches := cookieRegex.FindStringSubmatch(curlCmd); len(cookieMatches) > 1 {
		if cookieMatches[1] != "" {
			cookie = cookieMatches[1]
		} else {
			cookie = cookieMatches[2]
		}
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlSession{
		Headers: headers,
		Token:   token,
		Cookie:  cookie,
	}, nil
}
