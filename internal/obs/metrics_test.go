package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                "/",
		"/metrics":                        "/metrics",
		"/v1/organizations":               "/v1/organizations",
		"/v1/organizations/org-1":         "/v1/organizations/:id",
		"/v1/organizations/org-1/members": "/v1/organizations/:id/members",
		"/v1/data-inventory/sources":      "/v1/data-inventory/sources",
		"/v1/data-inventory/sources?organizationId=o1": "/v1/data-inventory/sources",
		"/v1/data-inventory/flows?graph=true":          "/v1/data-inventory/flows",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
