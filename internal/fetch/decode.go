package fetch

import (
	"bufio"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// decodeBody wraps body with a decompressor for the given Content-Encoding.
// Unknown or empty encodings pass through unchanged.
func decodeBody(body io.Reader, contentEncoding string) (io.Reader, error) {
	enc := strings.ToLower(contentEncoding)
	switch {
	case strings.Contains(enc, "br"):
		return brotli.NewReader(body), nil
	case strings.Contains(enc, "gzip"):
		return gzip.NewReader(body)
	case strings.Contains(enc, "deflate"):
		return newDeflateReader(body)
	default:
		return body, nil
	}
}

// newDeflateReader accepts both zlib-wrapped streams (what RFC 9110 calls
// "deflate") and raw DEFLATE, which some servers send instead.
func newDeflateReader(body io.Reader) (io.Reader, error) {
	br := bufio.NewReader(body)
	head, err := br.Peek(2)
	if err != nil {
		return nil, err
	}
	if isZlibHeader(head[0], head[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
