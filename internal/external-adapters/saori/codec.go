// Package saori encodes and decodes SAORI/1.0 request and response texts.
package saori

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
)

// Charsets used when a request carries no Charset header
const (
	CharsetUTF8     = "UTF-8"
	CharsetShiftJIS = "Shift_JIS"
)

const argumentPrefix = "Argument"

// charsetAliases covers names hosts send that the WHATWG index lacks
var charsetAliases = map[string]encoding.Encoding{
	"cp932":     japanese.ShiftJIS,
	"shift-jis": japanese.ShiftJIS,
}

var headerSanitizer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Codec converts between wire bytes and SAORI entities
type Codec struct{}

// NewCodec creates a new codec
func NewCodec() *Codec {
	return &Codec{}
}

// ParseRequest decodes raw request bytes. The Charset header is located in
// the raw bytes and the whole text is decoded with it; without one the text
// is read as UTF-8 when valid and as Shift_JIS otherwise.
func (c *Codec) ParseRequest(raw []byte) (*entities.SaoriRequest, error) {
	charset := DetectCharset(raw)
	enc, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode request as %s: %w", charset, err)
	}

	text := strings.TrimPrefix(string(decoded), "\ufeff")
	lines := strings.Split(text, "\n")

	req := &entities.SaoriRequest{
		Charset: charset,
		Headers: make(map[string]string),
	}
	if err := parseRequestLine(strings.TrimSuffix(lines[0], "\r"), req); err != nil {
		return nil, err
	}

	args := make(map[int]string)
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			break
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimPrefix(value, " ")

		switch {
		case strings.EqualFold(key, "Charset"):
			// already applied
		case strings.EqualFold(key, "Sender"):
			req.Sender = value
		case strings.EqualFold(key, "SecurityLevel"):
			req.SecurityLevel = value
		case strings.HasPrefix(key, argumentPrefix):
			n, err := strconv.Atoi(key[len(argumentPrefix):])
			if err != nil || n < 0 {
				req.Headers[key] = value
				continue
			}
			args[n] = value
		default:
			req.Headers[key] = value
		}
	}

	for i := 0; ; i++ {
		arg, ok := args[i]
		if !ok {
			break
		}
		req.Arguments = append(req.Arguments, arg)
	}

	return req, nil
}

// parseRequestLine accepts "EXECUTE SAORI/1.0" and "GET Version SAORI/1.0"
func parseRequestLine(line string, req *entities.SaoriRequest) error {
	line = strings.TrimSpace(line)
	i := strings.LastIndexByte(line, ' ')
	if i < 0 {
		return fmt.Errorf("malformed request line: %q", line)
	}

	method, protocol := strings.TrimSpace(line[:i]), line[i+1:]
	if protocol != entities.SaoriProtocol {
		return fmt.Errorf("unsupported protocol: %q", protocol)
	}
	switch method {
	case entities.SaoriMethodExecute, entities.SaoriMethodGetVersion:
	default:
		return fmt.Errorf("unsupported method: %q", method)
	}

	req.Method = method
	req.Protocol = protocol
	return nil
}

// BuildResponse renders resp in its charset with CRLF line endings.
// Characters the charset cannot represent are replaced.
func (c *Codec) BuildResponse(resp *entities.SaoriResponse) ([]byte, error) {
	charset := resp.Charset
	if charset == "" {
		charset = CharsetUTF8
	}
	enc, err := LookupCharset(charset)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s\r\n", entities.SaoriProtocol, resp.Status, entities.SaoriStatusText(resp.Status))
	fmt.Fprintf(&b, "Charset: %s\r\n", charset)
	if resp.Status == entities.SaoriStatusOK {
		fmt.Fprintf(&b, "Result: %s\r\n", headerSanitizer.Replace(resp.Result))
	}
	for i, v := range resp.Values {
		fmt.Fprintf(&b, "Value%d: %s\r\n", i, headerSanitizer.Replace(v))
	}
	b.WriteString("\r\n")

	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(b.String())
	if err != nil {
		return nil, fmt.Errorf("failed to encode response as %s: %w", charset, err)
	}
	return []byte(out), nil
}

// BuildErrorResponse renders a bare status response, falling back to UTF-8
// when the charset is unusable
func (c *Codec) BuildErrorResponse(status int, charset string) []byte {
	out, err := c.BuildResponse(&entities.SaoriResponse{Status: status, Charset: charset})
	if err != nil {
		out, _ = c.BuildResponse(&entities.SaoriResponse{Status: status, Charset: CharsetUTF8})
	}
	return out
}

// DetectCharset returns the Charset header value found in raw, or the
// default for the bytes when there is none
func DetectCharset(raw []byte) string {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			break
		}
		key, value, ok := bytes.Cut(line, []byte(":"))
		if ok && strings.EqualFold(string(bytes.TrimSpace(key)), "Charset") {
			if name := string(bytes.TrimSpace(value)); name != "" {
				return name
			}
		}
	}

	if utf8.Valid(raw) {
		return CharsetUTF8
	}
	return CharsetShiftJIS
}

// LookupCharset resolves a charset name case-insensitively
func LookupCharset(name string) (encoding.Encoding, error) {
	if enc, ok := charsetAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", name, err)
	}
	return enc, nil
}
