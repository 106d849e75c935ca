package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"whitepaper-guard/analysis/domain"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

const (
	DefaultFetchTimeout  = 30 * time.Second
	DefaultFetchMaxChars = 50_000
	MinExtractedChars    = 100
	FetchUserAgent       = "Mozilla/5.0 (compatible; WhitepaperGuard/1.0)"

	// limite de download; documentos maiores que isso não valem a extração
	maxDocumentBytes = 32 << 20
)

const (
	MsgURLRequired    = "url is required"
	MsgURLInvalid     = "url is not valid"
	MsgURLScheme      = "only http and https URLs are supported"
	MsgUnsupported    = "unsupported document type (PDF, HTML or plain text only)"
	MsgTooLittleText  = "the document does not contain enough text to analyze"
	MsgPDFUnreadable  = "could not extract text from the PDF"
	MsgURLBlocked     = "url must point to a public address"
)

// Document é o texto extraído de uma URL ou arquivo.
type Document struct {
	Text        string `json:"text"`
	ContentType string `json:"contentType"`
	Length      int    `json:"length"`
}

// Fetcher busca documentos remotos e extrai o texto.
//
// Sem Client, só endereços públicos são aceitos (NewFetchClient);
// AllowPrivateHosts libera rede interna e loopback.
type Fetcher struct {
	Client            *http.Client
	Timeout           time.Duration
	MaxChars          int
	AllowPrivateHosts bool
}

func invalid(msg string) *domain.ClassifiedError {
	return domain.InvalidInput(domain.ValidationResult{Valid: false, Errors: []string{msg}})
}

// Fetch aceita só http/https. Status não-2xx vira erro 502 com o status do
// servidor remoto; prazo esgotado vira 504.
func (f *Fetcher) Fetch(ctx context.Context, raw any) (Document, error) {
	rawURL, ok := raw.(string)
	if !ok || strings.TrimSpace(rawURL) == "" {
		return Document{}, invalid(MsgURLRequired)
	}
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || target.Host == "" {
		return Document{}, invalid(MsgURLInvalid)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return Document{}, invalid(MsgURLScheme)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Document{}, invalid(MsgURLInvalid)
	}
	req.Header.Set("User-Agent", FetchUserAgent)

	client := f.Client
	switch {
	case client != nil:
	case f.AllowPrivateHosts:
		client = http.DefaultClient
	default:
		client = publicOnlyClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fetchError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, domain.UpstreamFailed(resp.Status, target.Redacted())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return Document{}, fetchError(ctx, err)
	}

	contentType := resp.Header.Get("Content-Type")
	text, err := extract(body, contentType, target.Path)
	if err != nil {
		return Document{}, err
	}
	return f.finish(text, contentType)
}

// ExtractFile lê um arquivo local (.pdf, .html/.htm ou texto).
func ExtractFile(path string, maxChars int) (Document, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "text/plain"
	}
	text, err := extract(body, contentType, path)
	if err != nil {
		return Document{}, err
	}
	return (&Fetcher{MaxChars: maxChars}).finish(text, contentType)
}

func (f *Fetcher) finish(text, contentType string) (Document, error) {
	maxChars := f.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultFetchMaxChars
	}
	text = cut(text, maxChars)
	n := utf8.RuneCountInString(text)
	if n < MinExtractedChars {
		return Document{}, invalid(MsgTooLittleText)
	}
	return Document{Text: text, ContentType: contentType, Length: n}, nil
}

func fetchError(ctx context.Context, err error) error {
	if errors.Is(err, ErrBlockedAddress) {
		e := invalid(MsgURLBlocked)
		e.Err = err
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.UpstreamTimeout(err)
	}
	return domain.Internal(fmt.Errorf("fetch document: %w", err))
}

func extract(body []byte, contentType, path string) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/pdf" || strings.HasSuffix(strings.ToLower(path), ".pdf"):
		text, err := pdfText(body)
		if err != nil {
			return "", domain.Internal(err)
		}
		if utf8.RuneCountInString(text) < MinExtractedChars {
			return "", invalid(MsgPDFUnreadable)
		}
		return text, nil
	case mediaType == "text/html":
		return htmlText(body), nil
	case mediaType == "text/plain":
		return string(body), nil
	default:
		return "", invalid(MsgUnsupported)
	}
}

func pdfText(body []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return collapseSpace(b.String()), nil
}

// htmlText junta os nós de texto, ignorando script e style.
func htmlText(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpace(b.String())
		case html.StartTagToken:
			if isHiddenTag(z) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if isHiddenTag(z) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHiddenTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return string(name) == "script" || string(name) == "style"
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cut(s string, maxChars int) string {
	n := 0
	for pos := range s {
		if n == maxChars {
			return s[:pos]
		}
		n++
	}
	return s
}
