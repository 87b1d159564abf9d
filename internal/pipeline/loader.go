package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"

	"github.com/flowgenius/flowdex/internal/domain"
	"github.com/flowgenius/flowdex/internal/storage"
)

// ObjectStore fetches raw document bytes for s3:// source paths.
// Satisfied by storage.S3Client.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, *storage.ObjectMetadata, error)
	Bucket() string
}

// Loader resolves a source path into raw text plus source metadata,
// dispatching on the declared source type.
type Loader struct {
	httpClient *http.Client
	objects    ObjectStore
}

func NewLoader(fetchTimeout time.Duration, objects ObjectStore) *Loader {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Loader{
		httpClient: &http.Client{Timeout: fetchTimeout},
		objects:    objects,
	}
}

// Load reads the document behind sourcePath and returns its plain text.
// The returned text is non-empty; a document with no extractable text fails
// with an EMPTY_DOCUMENT error.
func (l *Loader) Load(ctx context.Context, sourcePath string, sourceType domain.SourceType) (string, *domain.SourceMetadata, error) {
	if err := domain.ValidateSourceType(sourceType); err != nil {
		return "", nil, err
	}

	var (
		text string
		meta *domain.SourceMetadata
		err  error
	)

	switch sourceType {
	case domain.SourceTypePDF:
		text, meta, err = l.loadPDF(ctx, sourcePath)
	case domain.SourceTypeURL:
		text, meta, err = l.loadURL(ctx, sourcePath)
	case domain.SourceTypeText, domain.SourceTypeMarkdown:
		text, meta, err = l.loadTextFile(ctx, sourcePath)
	}
	if err != nil {
		return "", nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, domain.ErrEmptyDocument
	}

	meta.SourceType = sourceType
	meta.ContentLength = len(text)
	return text, meta, nil
}

func (l *Loader) loadPDF(ctx context.Context, sourcePath string) (string, *domain.SourceMetadata, error) {
	data, meta, err := l.readSource(ctx, sourcePath)
	if err != nil {
		return "", nil, err
	}

	res, err := docconv.Convert(bytes.NewReader(data), "application/pdf", true)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeLoad, "pdf extraction failed", err)
	}

	if pages, ok := res.Meta["PageCount"]; ok {
		fmt.Sscanf(pages, "%d", &meta.PageCount)
	}
	return res.Body, meta, nil
}

func (l *Loader) loadURL(ctx context.Context, sourcePath string) (string, *domain.SourceMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourcePath, nil)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeLoad, "invalid source URL", err)
	}
	req.Header.Set("User-Agent", "flowdex-indexer/1.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeLoad, "failed to fetch remote document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, domain.NewDomainError(domain.ErrCodeLoad,
			fmt.Sprintf("failed to fetch remote document: HTTP %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", nil, domain.NewDomainErrorWithCause(domain.ErrCodeLoad, "failed to parse document markup", err)
	}

	// Strip non-content markup before flattening to text.
	doc.Find("script, style, nav, header, footer, noscript").Remove()
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	return text, &domain.SourceMetadata{HTTPStatus: resp.StatusCode}, nil
}

func (l *Loader) loadTextFile(ctx context.Context, sourcePath string) (string, *domain.SourceMetadata, error) {
	data, meta, err := l.readSource(ctx, sourcePath)
	if err != nil {
		return "", nil, err
	}
	if !utf8.Valid(data) {
		return "", nil, domain.NewDomainError(domain.ErrCodeLoad, "failed to decode document text: invalid UTF-8")
	}
	meta.Encoding = "utf-8"
	return string(data), meta, nil
}

// readSource reads raw bytes from a local file or, for s3:// paths, from the
// configured object store.
func (l *Loader) readSource(ctx context.Context, sourcePath string) ([]byte, *domain.SourceMetadata, error) {
	if strings.HasPrefix(sourcePath, "s3://") {
		return l.readObject(ctx, sourcePath)
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, nil, domain.NewDomainErrorWithCause(domain.ErrCodeLoad, "failed to read source file", err)
	}
	return data, &domain.SourceMetadata{}, nil
}

func (l *Loader) readObject(ctx context.Context, sourcePath string) ([]byte, *domain.SourceMetadata, error) {
	if l.objects == nil {
		return nil, nil, domain.NewDomainError(domain.ErrCodeConfig, "s3 source requires object storage configuration")
	}

	u, err := url.Parse(sourcePath)
	if err != nil {
		return nil, nil, domain.NewDomainErrorWithCause(domain.ErrCodeLoad, "invalid s3 source path", err)
	}
	if u.Host != "" && u.Host != l.objects.Bucket() {
		return nil, nil, domain.NewDomainError(domain.ErrCodeLoad,
			fmt.Sprintf("s3 source bucket %q does not match configured bucket %q", u.Host, l.objects.Bucket()))
	}

	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return nil, nil, domain.NewDomainError(domain.ErrCodeLoad, "s3 source path has no object key")
	}

	data, info, err := l.objects.GetObject(ctx, key)
	if err != nil {
		return nil, nil, domain.NewDomainErrorWithCause(domain.ErrCodeLoad, "failed to fetch s3 document", err)
	}

	meta := &domain.SourceMetadata{}
	if info != nil && info.ContentType != "" {
		meta.Extra = map[string]interface{}{"content_type": info.ContentType}
	}
	return data, meta, nil
}

// TitleFromPath derives a human label from a source path or URL when the
// caller did not provide one.
func TitleFromPath(sourcePath string) string {
	if strings.HasPrefix(sourcePath, "http://") || strings.HasPrefix(sourcePath, "https://") {
		if u, err := url.Parse(sourcePath); err == nil {
			segments := strings.Split(strings.Trim(u.Path, "/"), "/")
			if last := segments[len(segments)-1]; last != "" {
				return last
			}
			return u.Host
		}
		return sourcePath
	}

	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
