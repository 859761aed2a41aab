package browser

import "testing"

func TestIsSystemURL(t *testing.T) {
	for url, want := range map[string]bool{
		"":                          true,
		"about:blank":               true,
		"moz-extension://abc/x":     true,
		"chrome://settings":         true,
		"https://example.com/":      false,
		"http://localhost:8080/a":   false,
		"file:///Users/me/doc.html": false,
	} {
		if got := IsSystemURL(url); got != want {
			t.Errorf("IsSystemURL(%q) = %t, want %t", url, got, want)
		}
	}
}
