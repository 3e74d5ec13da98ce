package env

import "testing"

func TestGet(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		if got := Get("ENV_TEST_UNSET", "json"); got != "json" {
			t.Fatalf("expected fallback, got %q", got)
		}
	})

	t.Run("bare name", func(t *testing.T) {
		t.Setenv("ENV_TEST_BARE", "console")
		if got := Get("ENV_TEST_BARE", "json"); got != "console" {
			t.Fatalf("expected bare value, got %q", got)
		}
	})

	t.Run("prefixed name wins", func(t *testing.T) {
		t.Setenv("ENV_TEST_BOTH", "bare")
		t.Setenv("BODENHAUS_ENV_TEST_BOTH", "prefixed")
		if got := Get("ENV_TEST_BOTH", "json"); got != "prefixed" {
			t.Fatalf("expected prefixed value, got %q", got)
		}
	})
}
