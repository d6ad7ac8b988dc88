package app

import (
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Guilhem-Bonnet/course-player/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/course-player/internal/domain"
	"github.com/Guilhem-Bonnet/course-player/internal/ports"
	"github.com/rs/zerolog"
)

func TestMediaURL_EscapesSpecialCharacters(t *testing.T) {
	cases := map[string]string{
		"a/b.mp4":            "/media/a/b.mp4",
		"1 - Intro/v #1.mp4": "/media/1%20-%20Intro/v%20%231.mp4",
		"q?.mp4":             "/media/q%3F.mp4",
	}
	for in, want := range cases {
		if got := MediaURL(in); got != want {
			t.Fatalf("MediaURL(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestToCourseDTO_JoinsWatchedFlags(t *testing.T) {
	c, err := NewScanner(courseFS(), "course").Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	dto := ToCourseDTO(&c, domain.ProgressRecord{Watched: []string{"2-Intro/a.mp4", "deleted.mp4"}})

	var watched []string
	for _, s := range dto.Sections {
		for _, v := range s.Videos {
			if v.Watched {
				watched = append(watched, v.ID)
			}
		}
	}
	if len(watched) != 1 || watched[0] != "2-Intro/a.mp4" {
		t.Fatalf("watched: want [2-Intro/a.mp4], got %v", watched)
	}

	intro := dto.Sections[1]
	if intro.Videos[2].Subtitle == nil || intro.Videos[2].Subtitle.URL != "/media/2-Intro/a.srt" {
		t.Fatalf("subtitle dto: %+v", intro.Videos[2].Subtitle)
	}
	if intro.Resources[2].URL != "/media/2-Intro/resources/slides%202.pdf" {
		t.Fatalf("resource url: got %q", intro.Resources[2].URL)
	}

	// Les listes vides restent des tableaux JSON.
	b, err := json.Marshal(ToCourseDTO(&domain.Course{}, domain.EmptyProgress()))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(b, &raw)
	if _, ok := raw["sections"].([]any); !ok {
		t.Fatalf("sections should be an array, got %s", b)
	}
}

func TestCourseService_RescanKeepsSnapshotOnFailure(t *testing.T) {
	fsys := failingFS{MapFS: courseFS(), deny: map[string]bool{}}
	bus := memorybus.New()
	defer bus.Close()
	ch, cancel := bus.Subscribe()
	defer cancel()

	svc := NewCourseService(zerolog.Nop(), NewScanner(fsys, "course"), bus)
	first, err := svc.Rescan(context.Background())
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	if !svc.HasVideo("2-Intro/a.mp4") {
		t.Fatalf("expected HasVideo after scan")
	}
	select {
	case ev := <-ch:
		if ev.Topic != ports.TopicCourseRescanned {
			t.Fatalf("topic: want %q, got %q", ports.TopicCourseRescanned, ev.Topic)
		}
	case <-time.After(time.Second):
		t.Fatalf("no rescan event")
	}

	fsys.deny["."] = true
	if _, err := svc.Rescan(context.Background()); ErrorCode(err) != CodeScanFailed {
		t.Fatalf("code: want %q, got %v", CodeScanFailed, err)
	}
	if svc.Current() != first {
		t.Fatalf("snapshot replaced after failed rescan")
	}
}

func TestCourseService_CurrentNilBeforeScan(t *testing.T) {
	svc := NewCourseService(zerolog.Nop(), NewScanner(fstest.MapFS{}, "x"), nil)
	if svc.Current() != nil || svc.HasVideo("a.mp4") {
		t.Fatalf("expected empty service")
	}
}

func TestToCourseDTO_JoinKeepsSurroundingSpaces(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		" 1-Intro/a.mp4": file(),
		"2-Next/b .mp4":  file(),
		"2-Next/c.mp4":   file(),
	}
	course := NewCourseService(zerolog.Nop(), NewScanner(fsys, "course"), nil)
	c, err := course.Rescan(ctx)
	if err != nil {
		t.Fatalf("Rescan: %v", err)
	}
	repo := &memProgressRepo{rec: domain.EmptyProgress()}
	svc := NewSyncService(zerolog.Nop(), repo, nil, course)

	for _, id := range []string{" 1-Intro/a.mp4", "2-Next/b .mp4"} {
		if !course.HasVideo(id) {
			t.Fatalf("scanner id %q missing", id)
		}
		if _, err := svc.MarkWatched(ctx, id); err != nil {
			t.Fatalf("MarkWatched(%q): %v", id, err)
		}
	}
	rec, err := svc.Record(ctx)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !rec.IsWatched(" 1-Intro/a.mp4") || !rec.IsWatched("2-Next/b .mp4") {
		t.Fatalf("stored ids changed: %v", rec.Watched)
	}

	dto := ToCourseDTO(c, rec)
	got := map[string]bool{}
	for _, s := range dto.Sections {
		for _, v := range s.Videos {
			got[v.ID] = v.Watched
		}
	}
	want := map[string]bool{" 1-Intro/a.mp4": true, "2-Next/b .mp4": true, "2-Next/c.mp4": false}
	for id, w := range want {
		if got[id] != w {
			t.Fatalf("watched[%q]: want %v, got %v (all: %v)", id, w, got[id], got)
		}
	}
}
