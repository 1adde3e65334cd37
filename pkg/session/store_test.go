package session

import (
	"path/filepath"
	"testing"

	"roundbuy/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "session"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStoreTokensRoundTrip(t *testing.T) {
	st := openTestStore(t)

	if err := st.StoreTokens("at1", "rt1"); err != nil {
		t.Fatal(err)
	}
	at, err := st.AccessToken()
	if err != nil {
		t.Fatal(err)
	}
	if at != "at1" {
		t.Fatalf("access = %q", at)
	}
	rt, err := st.RefreshToken()
	if err != nil {
		t.Fatal(err)
	}
	if rt != "rt1" {
		t.Fatalf("refresh = %q", rt)
	}
}

func TestStoreTokensRequiresBoth(t *testing.T) {
	st := openTestStore(t)
	if err := st.StoreTokens("at1", ""); err == nil {
		t.Fatal("partial token pair accepted")
	}
	if err := st.StoreTokens("", "rt1"); err == nil {
		t.Fatal("partial token pair accepted")
	}
}

func TestMissingKeysReadEmpty(t *testing.T) {
	st := openTestStore(t)
	at, err := st.AccessToken()
	if err != nil {
		t.Fatal(err)
	}
	if at != "" {
		t.Fatalf("access = %q", at)
	}
	u, err := st.User()
	if err != nil {
		t.Fatal(err)
	}
	if u != nil {
		t.Fatalf("user = %+v", u)
	}
}

func TestUserRoundTrip(t *testing.T) {
	st := openTestStore(t)
	in := models.User{ID: "u1", FullName: "Demo Buyer", Email: "buyer@example.com"}
	if err := st.SaveUser(in); err != nil {
		t.Fatal(err)
	}
	out, err := st.User()
	if err != nil {
		t.Fatal(err)
	}
	if out == nil || out.ID != "u1" || out.Email != "buyer@example.com" {
		t.Fatalf("user = %+v", out)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	st := openTestStore(t)
	if err := st.StoreTokens("at1", "rt1"); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveUser(models.User{ID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}
	if at, _ := st.AccessToken(); at != "" {
		t.Fatal("access token survived clear")
	}
	if rt, _ := st.RefreshToken(); rt != "" {
		t.Fatal("refresh token survived clear")
	}
	if u, _ := st.User(); u != nil {
		t.Fatal("user survived clear")
	}
}

// Tokens must survive a close and reopen of the same path.
func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")

	st, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.StoreTokens("at1", "rt1"); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer st2.Close()
	at, err := st2.AccessToken()
	if err != nil {
		t.Fatal(err)
	}
	if at != "at1" {
		t.Fatalf("access after reopen = %q", at)
	}
}
