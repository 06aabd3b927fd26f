package middleware

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
)

// DecompressMiddleware inflates response bodies the transport left
// compressed. The scrape clients send an explicit Accept-Encoding header:
// brotli always arrives raw, while gzip bodies are normally inflated by
// resty before this hook runs, so the gzip branch sniffs the magic bytes
// rather than trusting the Content-Encoding header alone.
func DecompressMiddleware(c *resty.Client, resp *resty.Response) error {
	switch resp.Header().Get("Content-Encoding") {
	case "br":
		body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(resp.Body())))
		if err != nil {
			return err
		}
		resp.SetBody(body)
	case "gzip":
		raw := resp.Body()
		if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
			return nil
		}
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		defer zr.Close()
		body, err := io.ReadAll(zr)
		if err != nil {
			return err
		}
		resp.SetBody(body)
	}
	return nil
}
