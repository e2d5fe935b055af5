package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 32 << 20

// fetch performs a single GET. There are no retries, failures are left to
// the caller's fallback policy.
func fetch(ctx context.Context, client *http.Client, rawURL string) (body []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, text/html;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer closeWithError(resp.Body, &err)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if isHTML(resp.Header.Get("Content-Type"), body) {
		return preformattedText(body)
	}
	return body, nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// preformattedText returns the contents of all <pre> elements, which is
// where the line tables live in HTML responses.
func preformattedText(body []byte) ([]byte, error) {
	var out bytes.Buffer
	depth := 0

	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenizing html: %w", err)
			}
			return out.Bytes(), nil
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "pre" {
				depth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "pre" && depth > 0 {
				depth--
				out.WriteByte('\n')
			}
		case html.TextToken:
			if depth > 0 {
				out.Write(z.Text())
			}
		}
	}
}

// parseLineTable reads the first two numeric columns of a text table.
// Separator rows starting with "|" or "-" and rows whose leading columns
// are not numbers are skipped.
func parseLineTable(body []byte) (wavelength, intensity []float64) {
	for _, line := range strings.Split(string(body), "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "|") || strings.HasPrefix(line, "-") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\r' || r == '|' || r == ','
		})
		if len(fields) < 2 {
			continue
		}

		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		i, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		wavelength = append(wavelength, w)
		intensity = append(intensity, i)
	}
	return wavelength, intensity
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
