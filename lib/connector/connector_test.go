package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"webharvest/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("username") != "scraper" || r.FormValue("password") != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `<html><body><h1>Login failed</h1></body></html>`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
		fmt.Fprint(w, `<html><body><h1>Welcome</h1></body></html>`)
	})
	mux.HandleFunc("GET /logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		fmt.Fprint(w, `<html><body><h1>Goodbye</h1></body></html>`)
	})
	mux.HandleFunc("GET /private", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "abc123" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `<html><body><h1>Forbidden</h1></body></html>`)
			return
		}
		fmt.Fprintf(w, `<html><body>
			<h1>Secret</h1>
			<span class="token">%s</span>
		</body></html>`, r.Header.Get("X-Api-Key"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseUrl string) *Client {
	cleanup := telemetry.SetupForTesting(t, "connector")
	t.Cleanup(cleanup)

	client, err := NewClient(context.Background(), ClientOptions{
		BaseUrl:  baseUrl,
		Username: "scraper",
		Password: "hunter2",
	})
	require.NoError(t, err)
	return client
}

func TestLoginReusesSessionCookies(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	// before login the session holds no cookies
	res, err := client.Do(ctx, http.MethodGet, "/private")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, res.StatusCode())

	res, err = client.Login(ctx, "/login", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, res, client.LastResponse())

	res, err = client.Do(ctx, http.MethodGet, "/private")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	heading, err := client.ExtractOne(`//h1/text()`)
	require.NoError(t, err)
	require.Equal(t, "Secret", heading)
}

func TestLoginExplicitForm(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)

	res, err := client.Login(context.Background(), "/login", map[string]string{
		"username": "scraper",
		"password": "wrong",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode())
}

func TestLogout(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, "/login", nil)
	require.NoError(t, err)

	res, err := client.Logout(ctx, "/logout")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, res, client.LastResponse())

	// the server expired the session cookie
	res, err = client.Do(ctx, http.MethodGet, "/private")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, res.StatusCode())
}

func TestSetHeadersAppearOnRequests(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	client.SetHeaders(map[string]string{"X-Api-Key": "secret-key"})

	_, err := client.Login(ctx, "/login", nil)
	require.NoError(t, err)
	_, err = client.Do(ctx, http.MethodGet, "/private")
	require.NoError(t, err)

	token, err := client.ExtractOne(`//span[@class="token"]/text()`)
	require.NoError(t, err)
	require.Equal(t, "secret-key", token)
}

func TestExtractShapes(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.Login(ctx, "/login", nil)
	require.NoError(t, err)
	res, err := client.Do(ctx, http.MethodGet, "/private",
		WithHeaders(map[string]string{"X-Api-Key": "k1"}))
	require.NoError(t, err)

	named, err := client.ExtractNamed(map[string]string{
		"heading": `//h1/text()`,
		"token":   `//span[@class="token"]/text()`,
		"missing": `//div[@class="nope"]/text()`,
	}, res)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"heading": "Secret",
		"token":   "k1",
		"missing": "",
	}, named)

	ordered, err := client.ExtractOrdered([]string{
		`//h1/text()`,
		`//span[@class="token"]/text()`,
	}, res)
	require.NoError(t, err)
	require.Equal(t, []string{"Secret", "k1"}, ordered)
}

func TestExtractWithoutResponse(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)

	_, err := client.ExtractOne(`//h1/text()`)
	require.ErrorIs(t, err, ErrNoResponse)
}

func TestDoQueryParams(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><p class="q">%s</p></body></html>`, r.URL.Query().Get("q"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL)

	res, err := client.Do(context.Background(), http.MethodGet, "/search",
		WithQueryParams(map[string]string{"q": "widgets"}))
	require.NoError(t, err)

	q, err := client.ExtractOne(`//p[@class="q"]/text()`, res)
	require.NoError(t, err)
	require.Equal(t, "widgets", q)
}
