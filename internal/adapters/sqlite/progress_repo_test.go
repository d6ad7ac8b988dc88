package sqlite

import (
	"context"
	"testing"

	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/rs/zerolog"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestProgressRepository_EmptyAndPersist(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewProgressRepository(db.SQL, "/courses/go", zerolog.Nop())

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load(empty): %v", err)
	}
	if len(got.Watched) != 0 || got.Resume != nil {
		t.Fatalf("expected empty record, got %+v", got)
	}

	want := domain.ProgressRecord{
		Watched: []string{"2-Intro/a.mp4", "10-Advanced/b.mp4"},
		Resume:  &domain.Resume{VideoID: "10-Advanced/b.mp4", TimeSeconds: 42},
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load(after Save): %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("want %+v, got %+v", want, got)
	}

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ = repo.Load(ctx)
	if len(got.Watched) != 0 || got.Resume != nil {
		t.Fatalf("expected empty record after Reset, got %+v", got)
	}
}

func TestProgressRepository_IsolatedPerCourse(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a := NewProgressRepository(db.SQL, "/courses/a", zerolog.Nop())
	b := NewProgressRepository(db.SQL, "/courses/b", zerolog.Nop())

	if err := a.Save(ctx, domain.ProgressRecord{Watched: []string{"x.mp4"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := b.Load(ctx)
	if len(got.Watched) != 0 {
		t.Fatalf("course b sees course a progress: %+v", got)
	}
}

func TestProgressRepository_CorruptRowIsEmpty(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewProgressRepository(db.SQL, "k", zerolog.Nop())

	if _, err := db.SQL.ExecContext(ctx, `INSERT INTO progress(course_key, value_json, updated_at) VALUES('k', '{oops', 'now')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Watched) != 0 || got.Resume != nil {
		t.Fatalf("expected empty record, got %+v", got)
	}
}

func TestDB_MigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
