package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads variables from the given .env files into the process environment.
// Missing files are ignored and existing variables are never overwritten.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// envKey extracts the variable name from a placeholder. Accepted forms are
// $env:NAME, $ENV:NAME, $env{NAME}, $ENV{NAME} and ${NAME}.
func envKey(value string) (string, bool) {
	switch {
	case strings.HasPrefix(value, "$env:"), strings.HasPrefix(value, "$ENV:"):
		return value[len("$env:"):], true
	case (strings.HasPrefix(value, "$env{") || strings.HasPrefix(value, "$ENV{")) && strings.HasSuffix(value, "}"):
		return value[len("$env{") : len(value)-1], true
	case strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}"):
		return value[len("${") : len(value)-1], true
	}
	return "", false
}

// ResolveValue trims value and, when it is a placeholder, replaces it with the variable.
// An unset variable resolves to "".
func ResolveValue(value string, lookup LookupFunc) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	trimmed := strings.TrimSpace(value)
	if key, ok := envKey(trimmed); ok {
		v, _ := lookup(key)
		return v
	}
	return trimmed
}

// ResolveHeaders resolves every header value. Headers that resolve to "" are dropped.
func ResolveHeaders(headers map[string]string, lookup LookupFunc) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if resolved := ResolveValue(v, lookup); resolved != "" {
			out[k] = resolved
		}
	}
	return out
}
