package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"airflow/model"
)

func openTemp(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	saved, err := s.SaveRun(ctx, Run{
		FanName:    "Wall Mount Fan",
		FanCount:   4,
		FansPlaced: 3,
		ACH:        5.52,
		Payload:    []byte(`{"ok":true}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("SaveRun did not assign id/time: %+v", saved)
	}

	got, err := s.GetRun(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FanName != "Wall Mount Fan" || got.FanCount != 4 || got.FansPlaced != 3 || got.ACH != 5.52 || got.Compliant {
		t.Errorf("GetRun() = %+v", got)
	}
	if string(got.Payload) != `{"ok":true}` {
		t.Errorf("payload = %s", got.Payload)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.GetRun(context.Background(), "nope")
	if !model.IsCode(err, model.CodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.SaveRun(ctx, Run{
			FanName:   "HVLS",
			FanCount:  i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Compliant: i%2 == 0,
		}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ListRuns(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("len = %d, want 3", len(runs))
	}
	for i, want := range []int{5, 4, 3} {
		if runs[i].FanCount != want {
			t.Errorf("runs[%d].FanCount = %d, want %d", i, runs[i].FanCount, want)
		}
		if runs[i].Payload != nil {
			t.Errorf("list should not load payloads")
		}
	}
	if !runs[0].Compliant || runs[1].Compliant {
		t.Errorf("compliant flags not round-tripped: %+v", runs[:2])
	}

	n, err := s.CountRuns(ctx)
	if err != nil || n != 5 {
		t.Errorf("CountRuns() = %d, %v", n, err)
	}
}

func TestDuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	if _, err := s.SaveRun(ctx, Run{ID: "fixed", FanName: "a"}); err != nil {
		t.Fatal(err)
	}
	_, err := s.SaveRun(ctx, Run{ID: "fixed", FanName: "b"})
	if !model.IsCode(err, model.CodeInternal) {
		t.Errorf("error = %v, want INTERNAL", err)
	}
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	r, err := s.SaveRun(ctx, Run{FanName: "Pedestal Fan", FanCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRun(ctx, r.ID); err != nil {
		t.Errorf("GetRun after save: %v", err)
	}
}
