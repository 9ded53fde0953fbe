package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subelo/subelo/internal/plan"
	"github.com/subelo/subelo/internal/quota"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, planID string) *User {
	t.Helper()
	u := &User{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@example.com",
		Plan:  planID,
		Role:  "normal",
	}
	require.NoError(t, s.CreateUser(u))
	return u
}

func newTestFile(t *testing.T, s *Store, userID string, size int64) *File {
	t.Helper()
	f := &File{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        "doc.pdf",
		Size:        size,
		ContentType: "application/pdf",
		CreatedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
		StorageKey:  uuid.NewString(),
	}
	require.NoError(t, s.CreateFile(f))
	return f
}

func TestUsage_RecountsFromRecords(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "free")

	f1 := newTestFile(t, s, u.ID, 100)
	f2 := newTestFile(t, s, u.ID, 250)
	newTestFile(t, s, u.ID, 50)

	require.NoError(t, s.SetPassword(f1.ID, "$2a$10$hash"))
	require.NoError(t, s.SetCustomLink(f2.ID, "my-slug"))
	require.NoError(t, s.CreateFolder(&Folder{ID: uuid.NewString(), UserID: u.ID, Name: "Docs"}))

	got, err := s.Usage(u.ID)
	require.NoError(t, err)
	assert.Equal(t, quota.Usage{
		Files:        3,
		Protected:    1,
		CustomLinks:  1,
		StorageBytes: 400,
		Folders:      1,
	}, got)

	// Deleting a file is reflected on the next recount.
	require.NoError(t, s.DeleteFile(f1.ID))
	got, err = s.Usage(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Files)
	assert.Equal(t, 0, got.Protected)
	assert.Equal(t, int64(300), got.StorageBytes)
}

func TestUsage_DoesNotCountOtherUsers(t *testing.T) {
	s := newTestStore(t)
	a := newTestUser(t, s, "free")
	b := newTestUser(t, s, "free")

	newTestFile(t, s, a.ID, 100)
	newTestFile(t, s, b.ID, 999)

	got, err := s.Usage(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Files)
	assert.Equal(t, int64(100), got.StorageBytes)
}

func TestCustomLink_GloballyUnique(t *testing.T) {
	s := newTestStore(t)
	a := newTestUser(t, s, "plus")
	b := newTestUser(t, s, "plus")

	fa := newTestFile(t, s, a.ID, 1)
	fb := newTestFile(t, s, b.ID, 1)

	require.NoError(t, s.SetCustomLink(fa.ID, "report"))

	// The probe sees the other user's slug.
	taken, err := s.CustomLinkTaken("report", fb.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	// The unique index backstops a race past the probe, and the
	// violation surfaces as a conflict, not a bare driver error.
	var conflict *quota.ConflictError
	assert.ErrorAs(t, s.SetCustomLink(fb.ID, "report"), &conflict)

	dup := &File{
		ID:         uuid.NewString(),
		UserID:     b.ID,
		Name:       "dup.pdf",
		Size:       1,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(time.Hour),
		CustomLink: "report",
		StorageKey: uuid.NewString(),
	}
	assert.ErrorAs(t, s.CreateFile(dup), &conflict)

	// A file never collides with its own slug.
	taken, err = s.CustomLinkTaken("report", fa.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	// Clearing frees the slug.
	require.NoError(t, s.SetCustomLink(fa.ID, ""))
	taken, err = s.CustomLinkTaken("report", fb.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCustomLink_MultipleEmptyAllowed(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "free")

	// Empty slugs are stored as NULL, so any number of files may have
	// no custom link.
	newTestFile(t, s, u.ID, 1)
	newTestFile(t, s, u.ID, 1)

	got, err := s.Usage(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CustomLinks)
}

func TestCustomLink_CannotCaptureAnotherFilesID(t *testing.T) {
	s := newTestStore(t)
	victim := newTestUser(t, s, "plus")
	attacker := newTestUser(t, s, "plus")

	vf := newTestFile(t, s, victim.ID, 1)
	af := newTestFile(t, s, attacker.ID, 1)

	// A uuid is lowercase hex and hyphens, so it passes slug format;
	// the probe must still treat another file's id as taken.
	taken, err := s.CustomLinkTaken(vf.ID, af.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	// Even a link written behind the probe cannot capture the id:
	// resolution gives the id precedence.
	require.NoError(t, s.SetCustomLink(af.ID, vf.ID))
	got, err := s.GetFileByRef(vf.ID)
	require.NoError(t, err)
	assert.Equal(t, vf.ID, got.ID)
	assert.Equal(t, victim.ID, got.UserID)

	// A file never collides with its own id.
	taken, err = s.CustomLinkTaken(af.ID, af.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestGetFileByRef(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "plus")
	f := newTestFile(t, s, u.ID, 1)
	require.NoError(t, s.SetCustomLink(f.ID, "informe-2024"))

	byID, err := s.GetFileByRef(f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, byID.ID)

	bySlug, err := s.GetFileByRef("informe-2024")
	require.NoError(t, err)
	assert.Equal(t, f.ID, bySlug.ID)

	_, err = s.GetFileByRef("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFolders_UniquePerOwner(t *testing.T) {
	s := newTestStore(t)
	a := newTestUser(t, s, "free")
	b := newTestUser(t, s, "free")

	require.NoError(t, s.CreateFolder(&Folder{ID: uuid.NewString(), UserID: a.ID, Name: "Invoices"}))

	taken, err := s.FolderNameTaken(a.ID, "Invoices")
	require.NoError(t, err)
	assert.True(t, taken)

	// Trimming applies before the uniqueness probe.
	taken, err = s.FolderNameTaken(a.ID, "  Invoices ")
	require.NoError(t, err)
	assert.True(t, taken)

	// Same name for a different user is fine.
	taken, err = s.FolderNameTaken(b.ID, "Invoices")
	require.NoError(t, err)
	assert.False(t, taken)
	assert.NoError(t, s.CreateFolder(&Folder{ID: uuid.NewString(), UserID: b.ID, Name: "Invoices"}))

	// The unique index rejects a duplicate that races past the probe.
	assert.Error(t, s.CreateFolder(&Folder{ID: uuid.NewString(), UserID: a.ID, Name: "Invoices"}))
}

func TestDeleteFolder_DetachesFiles(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "plus")
	folder := &Folder{ID: uuid.NewString(), UserID: u.ID, Name: "Projects"}
	require.NoError(t, s.CreateFolder(folder))

	f := newTestFile(t, s, u.ID, 1)
	require.NoError(t, s.SetFolder(f.ID, folder.ID))

	require.NoError(t, s.DeleteFolder(folder.ID))

	got, err := s.GetFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FolderID, "file must be detached, not deleted")

	_, err = s.GetFolder(folder.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAPIWindows_SingleUpdateCoversBothCounters(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "plus")

	now := time.Now().UTC().Truncate(time.Second)
	req := quota.Window{Count: 7, Start: now}
	up := quota.Window{Count: 2, Start: now.Add(-time.Hour)}
	require.NoError(t, s.UpdateAPIWindows(u.ID, req, up))

	got, err := s.GetUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.APIRequests.Count)
	assert.True(t, got.APIRequests.Start.Equal(now))
	assert.Equal(t, 2, got.APIUploads.Count)
	assert.True(t, got.APIUploads.Start.Equal(now.Add(-time.Hour)))
}

func TestGetUserByAPIKey(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "pro")
	require.NoError(t, s.SetAPIKey(u.ID, "sk-test-123"))

	got, err := s.GetUserByAPIKey("sk-test-123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByAPIKey("wrong")
	assert.ErrorIs(t, err, ErrNotFound)

	// Users without a key never match an empty header.
	_, err = s.GetUserByAPIKey("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEffectivePlan(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		user User
		want plan.Plan
	}{
		{"active plus", User{Plan: "plus", PlanExpiresAt: &future}, plan.Plus},
		{"expired plus reverts to free", User{Plan: "plus", PlanExpiresAt: &past}, plan.Free},
		{"paid plan without expiry reverts to free", User{Plan: "pro"}, plan.Free},
		{"free has no expiry", User{Plan: "free"}, plan.Free},
		{"unknown identifier degrades to free", User{Plan: "legacy-vip", PlanExpiresAt: &future}, plan.Free},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.EffectivePlan(now))
		})
	}
}

func TestHistory_SurvivesFileDeletion(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "free")
	f := newTestFile(t, s, u.ID, 123)

	require.NoError(t, s.AddHistory(&HistoryEntry{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		FileID:      f.ID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		UploadedAt:  time.Now(),
	}))

	// A rename after upload is not reflected in history.
	require.NoError(t, s.RenameFile(f.ID, "renamed.pdf"))
	require.NoError(t, s.DeleteFile(f.ID))

	entries, err := s.ListHistory(u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.pdf", entries[0].Name)
	assert.Equal(t, f.ID, entries[0].FileID)
}

func TestUploadReservationLifecycle(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "plus")

	up := &Upload{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		Name:        "video.mp4",
		Size:        1 << 20,
		ContentType: "video/mp4",
		CustomLink:  "mi-video",
		StorageKey:  uuid.NewString(),
	}
	require.NoError(t, s.CreateUpload(up))

	got, err := s.GetUpload(up.ID)
	require.NoError(t, err)
	assert.Equal(t, "mi-video", got.CustomLink)
	assert.Equal(t, up.StorageKey, got.StorageKey)

	require.NoError(t, s.DeleteUpload(up.ID))
	_, err = s.GetUpload(up.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "free")
	require.NoError(t, s.CreateSession("tok-1", u.ID))

	got, err := s.GetUserBySession("tok-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserBySession("")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteSession("tok-1"))
	_, err = s.GetUserBySession("tok-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
