package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "medremind-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func TestReminderCRUDAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	second := Reminder{
		ID:        "rem-b",
		Text:      "Evening pills",
		DueAt:     parseRFC3339(t, "2026-02-09T20:00:00Z"),
		Status:    "pending",
		CreatedAt: created,
	}
	first := Reminder{
		ID:        "rem-a",
		Text:      "Morning walk",
		DueAt:     parseRFC3339(t, "2026-02-10T07:00:00Z"),
		Status:    "pending",
		CreatedAt: created,
	}
	for _, in := range []Reminder{second, first} {
		if err := repo.CreateReminder(ctx, in); err != nil {
			t.Fatalf("create reminder %s: %v", in.ID, err)
		}
	}

	got, err := repo.GetReminder(ctx, "rem-b")
	if err != nil {
		t.Fatalf("get reminder: %v", err)
	}
	if got.Text != "Evening pills" || !got.DueAt.Equal(second.DueAt) || got.Status != "pending" {
		t.Fatalf("unexpected reminder: %#v", got)
	}

	all, err := repo.ListReminders(ctx, ReminderListFilter{})
	if err != nil {
		t.Fatalf("list reminders: %v", err)
	}
	if len(all) != 2 || all[0].ID != "rem-b" || all[1].ID != "rem-a" {
		t.Fatalf("expected insertion order, got %#v", all)
	}

	if err := repo.UpdateReminderStatus(ctx, "rem-b", "fired"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	pending, err := repo.ListReminders(ctx, ReminderListFilter{Status: "pending"})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "rem-a" {
		t.Fatalf("unexpected pending list: %#v", pending)
	}

	if err := repo.DeleteReminder(ctx, "rem-a"); err != nil {
		t.Fatalf("delete reminder: %v", err)
	}
	if _, err := repo.GetReminder(ctx, "rem-a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteReminder(ctx, "rem-a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := repo.UpdateReminderStatus(ctx, "missing", "fired"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on missing update, got %v", err)
	}
}

func TestCreateReminderDuplicateID(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	in := Reminder{
		ID:        "rem-dup",
		Text:      "Check blood pressure",
		DueAt:     parseRFC3339(t, "2026-02-09T13:00:00Z"),
		Status:    "pending",
		CreatedAt: parseRFC3339(t, "2026-02-09T12:00:00Z"),
	}
	if err := repo.CreateReminder(ctx, in); err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	if err := repo.CreateReminder(ctx, in); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateReminderRejectsBadRows(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := Reminder{
		ID:        "rem-bad",
		Text:      "   ",
		DueAt:     parseRFC3339(t, "2026-02-09T13:00:00Z"),
		Status:    "pending",
		CreatedAt: parseRFC3339(t, "2026-02-09T12:00:00Z"),
	}
	if err := repo.CreateReminder(ctx, base); err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected check constraint failure for blank text, got %v", err)
	}
	base.Text = "ok"
	base.Status = "snoozed"
	if err := repo.CreateReminder(ctx, base); err == nil {
		t.Fatal("expected check constraint failure for unknown status")
	}
}

func TestListRemindersPagination(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")
	for _, id := range []string{"r1", "r2", "r3"} {
		if err := repo.CreateReminder(ctx, Reminder{ID: id, Text: id, DueAt: created.Add(time.Hour), Status: "pending", CreatedAt: created}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	page, err := repo.ListReminders(ctx, ReminderListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "r2" {
		t.Fatalf("unexpected page: %#v", page)
	}
	tail, err := repo.ListReminders(ctx, ReminderListFilter{Offset: 2})
	if err != nil {
		t.Fatalf("list tail: %v", err)
	}
	if len(tail) != 1 || tail[0].ID != "r3" {
		t.Fatalf("unexpected tail: %#v", tail)
	}
}

func TestSettingsUpsert(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "notifications.permission"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing setting, got %v", err)
	}
	if err := repo.PutSetting(ctx, Setting{Key: "notifications.permission", Value: "denied"}); err != nil {
		t.Fatalf("put setting: %v", err)
	}
	if err := repo.PutSetting(ctx, Setting{Key: "notifications.permission", Value: "granted"}); err != nil {
		t.Fatalf("overwrite setting: %v", err)
	}
	got, err := repo.GetSetting(ctx, "notifications.permission")
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	if got.Value != "granted" || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected setting: %#v", got)
	}
	if err := repo.DeleteSetting(ctx, "notifications.permission"); err != nil {
		t.Fatalf("delete setting: %v", err)
	}
	if err := repo.DeleteSetting(ctx, "notifications.permission"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestOpenSQLiteMigratesAndCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "medremind.db")
	repo, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer repo.Close()

	items, err := repo.ListReminders(t.Context(), ReminderListFilter{})
	if err != nil {
		t.Fatalf("list after open: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty database, got %d rows", len(items))
	}
}
