package pipeline

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestDefault(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	again, _ := Default()
	if p != again {
		t.Error("Default should return the shared instance")
	}

	if got := p.Lemma("is"); got != "be" {
		t.Errorf(`Lemma("is") = %q, want "be"`, got)
	}
	for phrase, want := range map[string]string{
		"Apple":         "ORG",
		"U.K.":          "GPE",
		"New York City": "GPE",
	} {
		if got, ok := p.EntityLabel(phrase); !ok || got != want {
			t.Errorf("EntityLabel(%q) = %q, %v; want %q", phrase, got, ok, want)
		}
	}
	if p.MaxEntityTokens() < 3 {
		t.Errorf("MaxEntityTokens = %d, want >= 3", p.MaxEntityTokens())
	}
	if e, ok := p.Sentiment("LOVE"); !ok || e.Polarity <= 0 {
		t.Errorf(`Sentiment("LOVE") = %+v, %v`, e, ok)
	}
	if e, ok := p.Sentiment("very"); !ok || !e.IsIntensifier() {
		t.Errorf(`"very" should be an intensifier, got %+v, %v`, e, ok)
	}
	if !p.IsNegation("not") || !p.IsNegation("n’t") {
		t.Error("negations not loaded")
	}
	if !p.IsStopWord("The") || p.IsStopWord("summary") {
		t.Error("stop words not loaded")
	}
}

func TestLoadEmptyDirIsDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	d, _ := Default()
	if p != d {
		t.Error(`Load("") should return the default pipeline`)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	lexicon := "# word\tpolarity\tsubjectivity\tintensity\nsplendiferous\t0.9\t0.8\t1.0\n"
	if err := os.WriteFile(filepath.Join(dir, FileSentiment), []byte(lexicon), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e, ok := p.Sentiment("splendiferous"); !ok || e.Polarity != 0.9 {
		t.Errorf("override entry = %+v, %v", e, ok)
	}
	if _, ok := p.Sentiment("love"); ok {
		t.Error("override file should replace the embedded lexicon")
	}
	if got := p.Lemma("is"); got != "be" {
		t.Errorf("files absent from the override dir should come from the defaults, Lemma(is) = %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("not a dir", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file")
		os.WriteFile(f, nil, 0o600)
		if _, err := Load(f); err == nil {
			t.Error("expected error")
		}
	})
	t.Run("wrong column count", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, FileLemmas), []byte("went\n"), 0o600)
		if _, err := Load(dir); err == nil {
			t.Error("expected error for malformed lemma table")
		}
	})
	t.Run("bad number", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, FileSentiment), []byte("good\thigh\t0.5\t1.0\n"), 0o600)
		if _, err := Load(dir); err == nil {
			t.Error("expected error for non-numeric polarity")
		}
	})
}

func TestConcurrentUse(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				for _, s := range p.Sentences("Apple bought it. The U.K. approved!") {
					for _, tk := range s.Tokens {
						_ = p.Lemma(tk.Text)
						_, _ = p.Sentiment(tk.Text)
					}
				}
			}
		}()
	}
	wg.Wait()
}
