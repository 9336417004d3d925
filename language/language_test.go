package language

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Unsere Tierarztpraxis behandelt Hunde, Katzen und Pferde in der ganzen Region", "de"},
		{"Notre clinique vétérinaire soigne les chiens, les chats et les chevaux depuis vingt ans", "fr"},
		{"Il nostro ambulatorio veterinario cura cani, gatti e cavalli di tutta la regione", "it"},
		{"Our veterinary clinic treats dogs, cats and horses across the whole region", "en"},
	}
	for _, c := range cases {
		if got := Detect(c.text); got != c.want {
			t.Errorf("Detect(%.30q...) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestDetectEmpty(t *testing.T) {
	if got := Detect("   "); got != Fallback {
		t.Errorf("Detect(blank) = %q, want %q", got, Fallback)
	}
}
