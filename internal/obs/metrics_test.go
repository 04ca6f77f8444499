package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                  "/",
		"/metrics":                          "/metrics",
		"/v1/documents":                     "/v1/documents",
		"/v1/documents?department_id=d1":    "/v1/documents",
		"/v1/documents/abc":                 "/v1/documents/:id",
		"/v1/documents/abc/archive":         "/v1/documents/:id/archive",
		"/v1/documents/abc/unarchive":       "/v1/documents/:id/unarchive",
		"/v1/documents/abc/comments":        "/v1/documents/:id/comments",
		"/v1/documents/abc/sections/s9":     "/v1/documents/:id/sections/:sid",
		"/v1/comments/c7":                   "/v1/comments/:id",
		"/v1/activity/stream":               "/v1/activity/stream",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
