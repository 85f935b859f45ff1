package registry

import (
	"strings"
	"testing"
)

const sampleConfig = `
targets:
  pyxis:
    name: Pyxis staging
    url: https://pyxis.example.com
  vega:
    name: Vega production
    url: https://vega.example.com
    description: primary storefront
  altair:
    url: https://altair.example.com
`

func TestResolve_EmptyReturnsAllInOrder(t *testing.T) {
	// WHAT: An empty request resolves every configured target in file order.
	// WHY: Zero CLI arguments means "benchmark everything", and comparable
	// reports need a stable target order.
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	targets, errs := cfg.Resolve(nil)
	if len(errs) != 0 {
		t.Fatalf("Resolve: unexpected errors: %v", errs)
	}

	want := []string{"pyxis", "vega", "altair"}
	if len(targets) != len(want) {
		t.Fatalf("Resolve: got %d targets, want %d", len(targets), len(want))
	}
	for i, key := range want {
		if targets[i].Key != key {
			t.Errorf("Resolve[%d]: got %q, want %q", i, targets[i].Key, key)
		}
	}
}

func TestResolve_MixedValidAndUnknown(t *testing.T) {
	// WHAT: Unknown keys produce one error each and are skipped; valid
	// keys survive in request order.
	// WHY: A typo in one target name must not cancel the whole run.
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	targets, errs := cfg.Resolve([]string{"vega", "nope", "pyxis", "bogus"})
	if len(targets) != 2 {
		t.Fatalf("Resolve: got %d targets, want 2", len(targets))
	}
	if targets[0].Key != "vega" || targets[1].Key != "pyxis" {
		t.Errorf("Resolve: got order %q, %q", targets[0].Key, targets[1].Key)
	}
	if len(errs) != 2 {
		t.Fatalf("Resolve: got %d errors, want 2", len(errs))
	}
	if !strings.Contains(errs[0].Error(), "nope") {
		t.Errorf("Resolve: first error %q does not name the unknown key", errs[0])
	}
}

func TestParse_NameDefaultsToKey(t *testing.T) {
	// WHAT: A target without a display name falls back to its key.
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	targets, _ := cfg.Resolve([]string{"altair"})
	if targets[0].Name != "altair" {
		t.Errorf("Name = %q, want %q", targets[0].Name, "altair")
	}
}

func TestParse_MissingTargets(t *testing.T) {
	// WHAT: A config without a targets map is fatal.
	// WHY: The harness cannot run with nothing to benchmark.
	if _, err := Parse([]byte("other: value\n")); err == nil {
		t.Fatal("Parse: expected error for missing targets map")
	}
}

func TestParse_TargetsNotAMap(t *testing.T) {
	// WHAT: A targets field that is not a map is fatal.
	if _, err := Parse([]byte("targets:\n  - one\n  - two\n")); err == nil {
		t.Fatal("Parse: expected error for sequence targets")
	}
}

func TestParse_TargetWithoutURL(t *testing.T) {
	// WHAT: A target without a URL is rejected at load time.
	// WHY: Failing at config load is clearer than a probe against "".
	bad := "targets:\n  pyxis:\n    name: Pyxis\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatal("Parse: expected error for target without url")
	}
}

func TestParse_Malformed(t *testing.T) {
	// WHAT: Invalid YAML is fatal.
	if _, err := Parse([]byte("targets: [unclosed")); err == nil {
		t.Fatal("Parse: expected error for malformed YAML")
	}
}
