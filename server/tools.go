package madrigal

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	githubPrefix  = "github:"
	githubRaw     = "https://raw.githubusercontent.com/"
	sampleMapFile = "strudel.json"
)

// FillEnvVar returns the value of a runtime Environment Variable
func FillEnvVar(ev string) string {
	// If the EnvVar doesn't exist return a default string
	value := os.Getenv(ev)
	if value == "" {
		value = "ENOENT"
	}
	return value
}

// FillEnvVarInt returns an integer Environment Variable,
// def when it is unset or not a number
func FillEnvVarInt(ev string, def int) int {
	value := FillEnvVar(ev)
	if value == "ENOENT" {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Environment variable is not a number", slog.String("var", ev), slog.String("value", value))
		return def
	}
	return i
}

// UrlCat is variadic, concatenating any set of strings into a URL.
// It can be used to embed a dynamic string alongside static parts of a URI.
// /u/ is a slice of strings used to build completeURL
func UrlCat(u ...string) string {
	var completeURL string
	for _, p := range u {
		completeURL = completeURL + p
	}
	slog.Debug("New endpoint", slog.String("URL", completeURL))
	return completeURL
}

// SampleMapURL expands the "github:user/repo[/branch]" shorthand
// into the raw URL of the repo's strudel.json.
// Anything else is returned as is.
func SampleMapURL(ref string) string {
	if !strings.HasPrefix(ref, githubPrefix) {
		return ref
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(ref, githubPrefix), "/"), "/")
	branch := "main"
	if len(parts) > 2 {
		branch = strings.Join(parts[2:], "/")
		parts = parts[:2]
	}
	return UrlCat(githubRaw, strings.Join(parts, "/"), "/", branch, "/", sampleMapFile)
}
