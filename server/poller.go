package madrigal

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	Mp "github.com/maroda/madrigal/plugin"
)

const (
	webTimeout = 10 * time.Second
)

type HTTPClient interface {
	Get(string) (*http.Response, error)
}

// Shared HTTP Client
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}

// SingleFetchWithClient handles the messy business of the HTTP connection
// and is testable with dependency injection, called by SingleFetch
func SingleFetchWithClient(url string, c HTTPClient) (int, []byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		slog.Error("Fetch Error", slog.Any("Error", err))
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("Error", err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Could not read body", slog.Any("Error", err))
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

// SingleFetch returns the Response Code, raw byte stream body, and error
// This uses a Shared HTTP Client:
// - to reuse existing endpoint connections
// - to avoid stale connections that eat up OS FDs
func SingleFetch(url string) (int, []byte, error) {
	return SingleFetchWithClient(url, sharedHTTPClient)
}

// FetchSampleMap reads one strudel.json, from the web when ref is a URL
// (or github: shorthand), from disk otherwise.
// The returned source is the resolved location.
func FetchSampleMap(ref string, c HTTPClient) ([]byte, string, error) {
	source := SampleMapURL(ref)
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, source, fmt.Errorf("could not read sample map: %w", err)
		}
		return data, source, nil
	}

	code, body, err := SingleFetchWithClient(source, c)
	if err != nil {
		return nil, source, fmt.Errorf("could not fetch sample map: %w", err)
	}
	if code != http.StatusOK {
		return nil, source, fmt.Errorf("could not fetch sample map %s: status %d", source, code)
	}
	return body, source, nil
}

// LoadSampleBank builds one bank from every ref in order,
// later maps replace sounds of the same name.
func LoadSampleBank(refs []string) (*Mp.SampleBank, error) {
	return LoadSampleBankWithClient(refs, sharedHTTPClient)
}

func LoadSampleBankWithClient(refs []string, c HTTPClient) (*Mp.SampleBank, error) {
	bank := Mp.NewSampleBank()
	for _, ref := range refs {
		data, source, err := FetchSampleMap(ref, c)
		if err != nil {
			slog.Error("Sample map unavailable", slog.String("ref", ref), slog.Any("Error", err))
			return nil, err
		}
		if err := bank.Load(data, source); err != nil {
			return nil, err
		}
	}
	return bank, nil
}
