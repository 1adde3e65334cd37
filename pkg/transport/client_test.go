package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// memTokens is an in-memory TokenSource for exercising the refresh flow.
type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func (m *memTokens) AccessToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, nil
}

func (m *memTokens) RefreshToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh, nil
}

func (m *memTokens) StoreTokens(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	return nil
}

func (m *memTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
	return nil
}

func TestGetDecodesEnvelopeData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok1" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{"success":true,"data":{"name":"armchair"}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, &memTokens{access: "tok1", refresh: "r1"})
	var out struct {
		Name string `json:"name"`
	}
	if err := c.Get(context.Background(), "/thing", nil, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "armchair" {
		t.Fatalf("out.Name = %q", out.Name)
	}
}

func TestNonGetWithoutBodySendsEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if string(b) != "{}" {
			t.Errorf("body = %q", b)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if err := c.Post(context.Background(), "/thing", nil, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRefreshOnceThenRetry(t *testing.T) {
	var refreshCalls, dataCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh-token":
			refreshCalls++
			fmt.Fprint(w, `{"success":true,"data":{"access_token":"tok2","refresh_token":"r2"}}`)
		case "/thing":
			dataCalls++
			if r.Header.Get("Authorization") == "Bearer tok2" {
				fmt.Fprint(w, `{"success":true,"data":{"ok":true}}`)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"error_code":"UNAUTHORIZED"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	tokens := &memTokens{access: "expired", refresh: "r1"}
	c := New(srv.URL, tokens)
	if err := c.Get(context.Background(), "/thing", nil, nil); err != nil {
		t.Fatal(err)
	}
	if refreshCalls != 1 {
		t.Fatalf("refreshCalls = %d", refreshCalls)
	}
	if dataCalls != 2 {
		t.Fatalf("dataCalls = %d", dataCalls)
	}
	if tokens.access != "tok2" || tokens.refresh != "r2" {
		t.Fatalf("rotated tokens not stored: %q %q", tokens.access, tokens.refresh)
	}
}

// A 401 on the retried request must surface RequireLogin, not loop.
func TestSecond401RequiresLogin(t *testing.T) {
	var refreshCalls, dataCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			refreshCalls++
			fmt.Fprint(w, `{"success":true,"data":{"access_token":"tok2","refresh_token":"r2"}}`)
			return
		}
		dataCalls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"error_code":"UNAUTHORIZED"}`)
	}))
	defer srv.Close()

	tokens := &memTokens{access: "expired", refresh: "r1"}
	c := New(srv.URL, tokens)
	err := c.Get(context.Background(), "/thing", nil, nil)
	te, ok := AsError(err)
	if !ok {
		t.Fatalf("want *Error, got %v", err)
	}
	if !te.RequireLogin || te.Code != CodeUnauthorized {
		t.Fatalf("want RequireLogin UNAUTHORIZED, got %+v", te)
	}
	if refreshCalls != 1 {
		t.Fatalf("refreshCalls = %d, refresh must not loop", refreshCalls)
	}
	if dataCalls != 2 {
		t.Fatalf("dataCalls = %d", dataCalls)
	}
	if tokens.access != "" || tokens.refresh != "" {
		t.Fatal("credentials not cleared")
	}
}

func TestRefreshFailureClearsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"error_code":"UNAUTHORIZED"}`)
	}))
	defer srv.Close()

	tokens := &memTokens{access: "expired", refresh: "stale"}
	c := New(srv.URL, tokens)
	err := c.Get(context.Background(), "/thing", nil, nil)
	te, ok := AsError(err)
	if !ok || !te.RequireLogin {
		t.Fatalf("want RequireLogin, got %v", err)
	}
	if tokens.refresh != "" {
		t.Fatal("refresh token not cleared")
	}
}

// A 401 from the login endpoint is a credential failure, never a
// refresh trigger.
func TestLogin401IsInvalidCredentials(t *testing.T) {
	var refreshCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh-token" {
			refreshCalls++
		}
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"message":"Invalid email or password","error_code":"INVALID_CREDENTIALS"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, &memTokens{})
	err := c.Post(context.Background(), "/auth/login", map[string]string{"email": "a", "password": "b"}, nil)
	if !IsCode(err, CodeInvalidCredentials) {
		t.Fatalf("want INVALID_CREDENTIALS, got %v", err)
	}
	if refreshCalls != 0 {
		t.Fatal("login must not trigger a refresh")
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   string
	}{
		{http.StatusNotFound, `{"success":false}`, CodeNotFound},
		{http.StatusBadRequest, `{"success":false,"message":"bad"}`, CodeValidationError},
		{http.StatusInternalServerError, `oops`, CodeServerError},
		{http.StatusBadGateway, ``, CodeServerError},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			fmt.Fprint(w, tc.body)
		}))
		c := New(srv.URL, nil)
		err := c.Get(context.Background(), "/thing", nil, nil)
		if !IsCode(err, tc.code) {
			t.Errorf("status %d: want %s, got %v", tc.status, tc.code, err)
		}
		srv.Close()
	}
}

func TestForbiddenFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"success":false,"message":"Premium feature","error_code":"SUBSCRIPTION_REQUIRED"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	err := c.Get(context.Background(), "/thing", nil, nil)
	te, ok := AsError(err)
	if !ok {
		t.Fatalf("want *Error, got %v", err)
	}
	if !te.RequireSubscription || te.LimitExceeded {
		t.Fatalf("flags wrong: %+v", te)
	}
}

func TestFalseEnvelopeOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"nope","error_code":"VALIDATION_ERROR"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	err := c.Get(context.Background(), "/thing", nil, nil)
	if !IsCode(err, CodeValidationError) {
		t.Fatalf("want VALIDATION_ERROR, got %v", err)
	}
}

func TestUnreachableHostIsNetworkError(t *testing.T) {
	// Reserved TEST-NET address, nothing listens there.
	c := New("http://192.0.2.1:9", nil, WithTimeout(200*time.Millisecond))
	err := c.Get(context.Background(), "/thing", nil, nil)
	if !IsCode(err, CodeNetworkError) {
		t.Fatalf("want NETWORK_ERROR, got %v", err)
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, WithTimeout(50*time.Millisecond))
	err := c.Get(context.Background(), "/thing", nil, nil)
	if !IsCode(err, CodeNetworkError) {
		t.Fatalf("want NETWORK_ERROR, got %v", err)
	}
}

func TestFastHTTPDoer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"ok":true}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, WithDoer(NewFastHTTPDoer(5*time.Second)))
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Get(context.Background(), "/thing", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !out.OK {
		t.Fatal("data not decoded")
	}
}

func TestRateLimitStillDelivers(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, WithRateLimit(100, 1))
	for i := 0; i < 3; i++ {
		if err := c.Get(context.Background(), "/thing", nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}
