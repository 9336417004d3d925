package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Über Uns", "uber uns"},
		{"Notre Équipe!", "notre equipe"},
		{"team-page", "team page"},
		{"Hello,  World", "hello world"},
		{"  spaced\t\nout  ", "spaced out"},
		{"dogs,cats/horses", "dogs cats horses"},
		{"Tierärzte & Co.", "tierarzte co"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Über Uns", "équipe vétérinaire", "team-page/sub-page",
		"Praxis für Kleintiere", "​zero​width​",
		"Unsere Tierarztpraxis behandelt Hunde, Katzen und Pferde",
	}
	for _, s := range inputs {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}

func TestLoose(t *testing.T) {
	if got := Loose("Über-Uns "); got != "uber uns" {
		t.Errorf("Loose = %q, want %q", got, "uber uns")
	}
	if got := Loose("l'équipe"); got != "l'equipe" {
		t.Errorf("Loose = %q, want %q", got, "l'equipe")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Tierklinik Dr. Müller & Partner", "Tierklinik Dr Müller  Partner"},
		{"clinic/with\\slashes", "clinicwithslashes"},
		{"trailing   ", "trailing"},
		{"ok_name-1", "ok_name-1"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
