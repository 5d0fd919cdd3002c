// Package render consumes a streamed completion and keeps a view showing the
// markdown rendering of everything received so far.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const defaultChunkSize = 4096

// Frame is what the view displays after a chunk: the accumulated source text
// and its rendering.
type Frame struct {
	Source string
	HTML   string
}

// View is the display the renderer drives. Calls happen on the goroutine that
// called Submit or Render.
type View interface {
	ShowLoading()
	HideLoading()
	ShowResponse(Frame)
	ClearResponse()
	ShowError(message string)
	ClearError()
}

type Renderer struct {
	md        goldmark.Markdown
	view      View
	chunkSize int
}

type Option func(*Renderer)

// WithChunkSize bounds how many bytes are read from the stream per chunk.
func WithChunkSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

func New(view View, opts ...Option) *Renderer {
	r := &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		view:      view,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Markdown renders src to HTML. Raw HTML in src is escaped.
func (r *Renderer) Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Submit posts prompt to endpoint as a form and renders the streamed reply.
func (r *Renderer) Submit(ctx context.Context, client *http.Client, endpoint, prompt string) error {
	return r.run(ctx, func() (io.ReadCloser, error) {
		return post(ctx, client, endpoint, prompt)
	})
}

// Render renders an already open stream.
func (r *Renderer) Render(ctx context.Context, body io.Reader) error {
	return r.run(ctx, func() (io.ReadCloser, error) {
		return io.NopCloser(body), nil
	})
}

func (r *Renderer) run(ctx context.Context, open func() (io.ReadCloser, error)) (err error) {
	r.view.ClearResponse()
	r.view.ClearError()
	r.view.ShowLoading()
	defer r.view.HideLoading()
	defer func() {
		if err != nil {
			r.view.ClearResponse()
			r.view.ShowError(fmt.Sprintf("Error: %v. Make sure the server is running and the inference service has the model downloaded.", err))
		}
	}()

	body, err := open()
	if err != nil {
		return err
	}
	defer body.Close()

	return r.consume(ctx, body)
}

func (r *Renderer) consume(ctx context.Context, body io.Reader) error {
	dec := newStreamDecoder()
	var acc strings.Builder
	buf := make([]byte, r.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		atEOF := readErr == io.EOF
		if n > 0 || atEOF {
			text, err := dec.Decode(buf[:n], atEOF)
			if err != nil {
				return fmt.Errorf("decoding stream: %w", err)
			}
			if text != "" {
				acc.WriteString(text)
				if err := r.show(acc.String()); err != nil {
					return err
				}
			}
		}

		switch {
		case atEOF:
			return nil
		case readErr != nil:
			return readErr
		}
	}
}

func (r *Renderer) show(src string) error {
	html, err := r.Markdown(src)
	if err != nil {
		return err
	}
	r.view.ShowResponse(Frame{Source: src, HTML: html})
	return nil
}

func post(ctx context.Context, client *http.Client, endpoint, prompt string) (io.ReadCloser, error) {
	form := url.Values{"prompt": {prompt}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}
