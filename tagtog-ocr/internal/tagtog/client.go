// Package tagtog uploads documents to the tagtog document API.
package tagtog

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
)

const (
	DefaultDomain = "https://www.tagtog.net"
	documentsPath = "/-api/documents/v1"
	filesField    = "files"
)

// Options configure a Client.
type Options struct {
	Domain             string
	Credentials        models.Credentials
	Target             models.Target
	InsecureSkipVerify bool
	Timeout            time.Duration
	HTTPClient         *http.Client // overrides transport settings when set
}

// Client talks to one tagtog instance for one upload target.
type Client struct {
	domain string
	creds  models.Credentials
	target models.Target
	http   *http.Client
}

// New builds a client. Basic auth is sent on every request; when a token is
// configured uploads use it as a bearer token instead.
func New(opts Options) (*Client, error) {
	domain := strings.TrimRight(opts.Domain, "/")
	if domain == "" {
		domain = DefaultDomain
	}
	if _, err := url.Parse(domain); err != nil {
		return nil, models.Wrap(models.ErrConfiguration, err, "invalid domain")
	}
	if opts.Credentials.Username == "" {
		return nil, models.Errorf(models.ErrConfiguration, "username is required")
	}

	hc := opts.HTTPClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed tagtog installs
		}
		hc = &http.Client{Transport: transport, Timeout: opts.Timeout}
	}
	if opts.Credentials.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Credentials.Token, TokenType: "Bearer"})
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc = &http.Client{
			Transport:     &oauth2.Transport{Source: ts, Base: base},
			Timeout:       hc.Timeout,
			CheckRedirect: hc.CheckRedirect,
			Jar:           hc.Jar,
		}
	}

	return &Client{
		domain: domain,
		creds:  opts.Credentials,
		target: opts.Target,
		http:   hc,
	}, nil
}

// VerifyCredentials requests the user's page once. Anything but 200 means the
// credentials are not usable.
func (c *Client) VerifyCredentials(ctx context.Context) error {
	userPage := c.domain + "/" + url.PathEscape(c.creds.Username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userPage, nil)
	if err != nil {
		return models.Wrap(models.ErrConfiguration, err, "building credential check")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Wrap(models.ErrAuthentication, err, "credential check failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return models.Errorf(models.ErrAuthentication, "credential check %s returned %s", userPage, resp.Status)
	}
	return nil
}

// Upload posts one file as a multipart document. The remote side sees
// desiredFilename, not the local path's name. The file is streamed, not
// buffered.
func (c *Client) Upload(ctx context.Context, filePath, desiredFilename string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return models.Wrap(models.ErrFilesystem, err, "opening upload")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer f.Close()
		pw.CloseWithError(writeBody(mw, f, desiredFilename))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.documentsURL(), pr)
	if err != nil {
		pr.Close()
		return models.Wrap(models.ErrTransport, err, "building upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		var fsErr *bodyReadError
		if errors.As(err, &fsErr) {
			return models.Wrap(models.ErrFilesystem, fsErr.err, "reading upload")
		}
		return models.Wrap(models.ErrTransport, err, "upload request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Errorf(models.ErrTransport, "upload of %s returned %s: %s",
			desiredFilename, resp.Status, strings.TrimSpace(string(excerpt)))
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return nil
}

// bodyReadError marks a failure reading the local file while streaming.
type bodyReadError struct{ err error }

func (e *bodyReadError) Error() string { return e.err.Error() }
func (e *bodyReadError) Unwrap() error { return e.err }

type fileReader struct{ r io.Reader }

func (f fileReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err != nil && err != io.EOF {
		err = &bodyReadError{err: err}
	}
	return n, err
}

// writeBody writes the single "files" part. CreateFormFile escapes the
// filename and sets application/octet-stream.
func writeBody(mw *multipart.Writer, r io.Reader, filename string) error {
	part, err := mw.CreateFormFile(filesField, filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, fileReader{r}); err != nil {
		return err
	}
	return mw.Close()
}

// Close releases idle connections and forgets the credentials.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
	c.creds = models.Credentials{}
}

func (c *Client) documentsURL() string {
	q := url.Values{}
	q.Set("owner", c.target.Owner)
	q.Set("project", c.target.Project)
	q.Set("folder", c.target.Folder)
	q.Set("output", "null")
	return c.domain + documentsPath + "?" + q.Encode()
}

func (c *Client) authorize(req *http.Request) {
	// oauth2.Transport sets the header itself in token mode
	if c.creds.Token != "" {
		return
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
}

// DesiredFilename is the name the remote system stores a document under.
// OCR always yields a PDF, so non-PDF inputs get ".pdf" appended.
func DesiredFilename(inputPath string, src models.Source) string {
	name := filepath.Base(inputPath)
	if src == models.SourcePDF {
		return name
	}
	return name + ".pdf"
}
