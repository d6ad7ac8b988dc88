package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/rs/zerolog"
)

func newRepo(t *testing.T) (*ProgressRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	return NewProgressRepository(path, zerolog.Nop()), path
}

func TestProgressRepository_LoadMissingIsEmpty(t *testing.T) {
	repo, path := newRepo(t)
	if repo.Path() != path {
		t.Fatalf("Path: want %q, got %q", path, repo.Path())
	}
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Watched) != 0 || got.Resume != nil {
		t.Fatalf("expected empty record, got %+v", got)
	}
	if got.Watched == nil {
		t.Fatalf("expected non-nil watched slice")
	}
}

func TestProgressRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	records := map[string]domain.ProgressRecord{
		"empty":    domain.EmptyProgress(),
		"multiple": {Watched: []string{"2-Intro/a.mp4", "2-Intro/b.mp4", "10-Advanced/c.mkv"}},
		"resume": {
			Watched: []string{"2-Intro/a.mp4"},
			Resume:  &domain.Resume{VideoID: "2-Intro/b.mp4", TimeSeconds: 42.5},
		},
		"resume only": {Watched: []string{}, Resume: &domain.Resume{VideoID: "x.mp4", TimeSeconds: 0}},
	}
	for name, want := range records {
		repo, _ := newRepo(t)
		if err := repo.Save(ctx, want); err != nil {
			t.Fatalf("%s: Save: %v", name, err)
		}
		got, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("%s: Load: %v", name, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: want %+v, got %+v", name, want, got)
		}
		for i := range want.Watched {
			if got.Watched[i] != want.Watched[i] {
				t.Fatalf("%s: watched order: want %v, got %v", name, want.Watched, got.Watched)
			}
		}
	}
}

func TestProgressRepository_FileShape(t *testing.T) {
	repo, path := newRepo(t)
	rec := domain.ProgressRecord{
		Watched: []string{"2-Intro/a.mp4"},
		Resume:  &domain.Resume{VideoID: "2-Intro/b.mp4", TimeSeconds: 42},
	}
	if err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := `{
  "watched": [
    "2-Intro/a.mp4"
  ],
  "resume": {
    "video": "2-Intro/b.mp4",
    "time": 42
  }
}`
	if string(b) != want {
		t.Fatalf("file content:\nwant %s\ngot  %s", want, b)
	}
}

func TestProgressRepository_LoadSaveIsByteStable(t *testing.T) {
	repo, path := newRepo(t)
	// Forme écrite par l'ancien lecteur (json.dump indent=2).
	original := "{\n  \"watched\": [\n    \"1-Intro/a & b.mp4\",\n    \"1-Intro/c.mp4\"\n  ]\n}"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ctx := context.Background()
	rec, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != original {
		t.Fatalf("load/save changed the file:\nwant %s\ngot  %s", original, b)
	}
}

func TestProgressRepository_CorruptIsEmpty(t *testing.T) {
	for _, content := range []string{"{not json", `{"watched": "nope"}`, "[1,2,3]", "\x00\x01"} {
		repo, path := newRepo(t)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		got, err := repo.Load(context.Background())
		if err != nil {
			t.Fatalf("Load(%q): %v", content, err)
		}
		if len(got.Watched) != 0 || got.Resume != nil {
			t.Fatalf("Load(%q): expected empty record, got %+v", content, got)
		}
	}
}

func TestProgressRepository_LoadDropsDuplicatesAndInvalidResume(t *testing.T) {
	repo, path := newRepo(t)
	content := `{"watched": ["a.mp4", "a.mp4", "", "b\\c.mp4"], "resume": {"video": "a.mp4", "time": -3}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Les ids stockés sont gardés tels quels.
	if len(got.Watched) != 2 || got.Watched[0] != "a.mp4" || got.Watched[1] != "b\\c.mp4" {
		t.Fatalf("watched: got %v", got.Watched)
	}
	if got.Resume != nil {
		t.Fatalf("expected negative resume to be dropped, got %+v", got.Resume)
	}
}

func TestProgressRepository_SaveFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	repo := NewProgressRepository(filepath.Join(blocker, DefaultFileName), zerolog.Nop())
	err := repo.Save(context.Background(), domain.ProgressRecord{Watched: []string{"a.mp4"}})
	if err == nil {
		t.Fatalf("expected error when parent path is a file")
	}
	if !strings.Contains(err.Error(), "mkdir") {
		t.Fatalf("expected mkdir error, got %v", err)
	}
}

func TestProgressRepository_UnreadableFileIsAnError(t *testing.T) {
	repo, path := newRepo(t)
	// Un dossier à la place du fichier : la lecture échoue sans ENOENT.
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatalf("expected error for unreadable progress file")
	}

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	repo = NewProgressRepository(filepath.Join(blocker, DefaultFileName), zerolog.Nop())
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatalf("expected error when parent path is a file")
	}
}

func TestProgressRepository_ResetEmpties(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	if err := repo.Save(ctx, domain.ProgressRecord{Watched: []string{"a.mp4"}, Resume: &domain.Resume{VideoID: "a.mp4", TimeSeconds: 1}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ := repo.Load(ctx)
	if len(got.Watched) != 0 || got.Resume != nil {
		t.Fatalf("expected empty record after reset, got %+v", got)
	}
}

func TestProgressRepository_ConcurrentSavesLeaveWholeRecord(t *testing.T) {
	repo, path := newRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids := []string{"a.mp4"}
			if i%2 == 0 {
				ids = []string{"b.mp4", "c.mp4"}
			}
			if err := repo.Save(ctx, domain.ProgressRecord{Watched: ids}); err != nil {
				t.Errorf("Save: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Watched) != 1 && len(got.Watched) != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}
