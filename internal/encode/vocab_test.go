package encode

import (
	"os"
	"path/filepath"
	"testing"
)

func writeVocabFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadVocab(t *testing.T) {
	path := writeVocabFile(t, "[UNK]\nname\n##:\njohn\n")

	v, err := LoadVocab(path)
	if err != nil {
		t.Fatalf("LoadVocab: %v", err)
	}
	if v.Size() != 4 {
		t.Errorf("Size = %d, want 4", v.Size())
	}
	for i, tok := range []string{"[UNK]", "name", "##:", "john"} {
		id, ok := v.ID(tok)
		if !ok || id != i {
			t.Errorf("ID(%q) = %d,%v, want %d,true", tok, id, ok, i)
		}
	}
	if _, ok := v.ID("missing"); ok {
		t.Error("ID reported a token that is not in the vocabulary")
	}
}

func TestLoadVocabMissingUnknownToken(t *testing.T) {
	path := writeVocabFile(t, "name\njohn\n")

	if _, err := LoadVocab(path); err == nil {
		t.Fatal("expected error for vocabulary without [UNK]")
	}
}

func TestLoadVocabMissingFile(t *testing.T) {
	if _, err := LoadVocab(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
