package language

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Code
	}{
		{"arabic greeting", "مرحبا", Arabic},
		{"arabic inside latin", "Hello مرحبا there", Arabic},
		{"french greeting", "Bonjour, merci!", French},
		{"french uppercase", "BONJOUR", French},
		{"french question", "Quel est le prix pour un mariage?", French},
		{"accented politeness", "Un devis s'il vous plaît", French},
		{"curly apostrophe", "Un devis s’il vous plaît.", French},
		{"english", "Hello there", English},
		{"empty", "", English},
		{"marker inside word", "nonetheless we need a photographer", English},
		{"unmarked french falls through", "Je voudrais organiser une fête", English},
		{"arabic wins over french", "bonjour مرحبا", Arabic},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.text); got != tc.want {
				t.Fatalf("Detect(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	text := "Salut, c'est pour un mariage"
	first := Detect(text)
	for i := 0; i < 50; i++ {
		if got := Detect(text); got != first {
			t.Fatalf("run %d returned %s, first run %s", i, got, first)
		}
	}
}

func TestParse(t *testing.T) {
	cases := map[string]struct {
		want Code
		ok   bool
	}{
		"fr":    {French, true},
		"fr-FR": {French, true},
		" AR ":  {Arabic, true},
		"en_US": {English, true},
		"de":    {English, false},
		"":      {English, false},
	}
	for raw, tc := range cases {
		got, ok := Parse(raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Parse(%q) = %s,%v want %s,%v", raw, got, ok, tc.want, tc.ok)
		}
	}
}
