package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

// Request is the engine-independent request representation.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response carries only what the client needs back from an engine.
type Response struct {
	Status int
	Body   []byte
}

// Doer executes one HTTP exchange. A non-nil error means no usable
// response was received (dial failure, timeout, cancellation); the
// client maps that to NETWORK_ERROR. Adapters exist for net/http and
// fasthttp so the engine can be swapped without touching callers.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

type netHTTPDoer struct {
	c *http.Client
}

// NewNetHTTPDoer returns the default engine backed by net/http.
// Per-request deadlines come from the context; timeout is a hard
// backstop on the underlying client.
func NewNetHTTPDoer(timeout time.Duration) Doer {
	return &netHTTPDoer{c: &http.Client{Timeout: timeout}}
}

func (d *netHTTPDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vv := range req.Header {
		for _, v := range vv {
			hr.Header.Add(k, v)
		}
	}
	resp, err := d.c.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{Status: resp.StatusCode, Body: b}, nil
}

type fastHTTPDoer struct {
	c       *fasthttp.Client
	timeout time.Duration
}

// NewFastHTTPDoer returns an engine backed by fasthttp. fasthttp does
// not take a context, so the request deadline is enforced through
// DoTimeout and the context is only checked up front.
func NewFastHTTPDoer(timeout time.Duration) Doer {
	return &fastHTTPDoer{c: &fasthttp.Client{}, timeout: timeout}
}

func (d *fastHTTPDoer) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	freq.Header.SetMethod(req.Method)
	freq.SetRequestURI(req.URL)
	for k, vv := range req.Header {
		for _, v := range vv {
			freq.Header.Add(k, v)
		}
	}
	if len(req.Body) > 0 {
		freq.SetBody(req.Body)
	}

	timeout := d.timeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < timeout {
			timeout = until
		}
	}
	if err := d.c.DoTimeout(freq, fresp, timeout); err != nil {
		return nil, err
	}
	body := make([]byte, len(fresp.Body()))
	copy(body, fresp.Body())
	return &Response{Status: fresp.StatusCode(), Body: body}, nil
}
