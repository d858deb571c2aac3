package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/store"
	"github.com/nhle/mailcompose/tests/testutil"
)

func TestMigrationsApplied(t *testing.T) {
	s := testutil.NewTestStore(t)

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestContacts(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.CreateContact(ctx, model.Contact{ID: "c1", Name: "Ann Lee", Email: "ann@x.test"}))
	require.NoError(t, s.CreateContact(ctx, model.Contact{ID: "c2", Name: "Bob", Email: "bob@x.test", Nickname: "bobby"}))
	require.Error(t, s.CreateContact(ctx, model.Contact{Email: "  "}))
	require.Error(t, s.CreateContact(ctx, model.Contact{Email: "ANN@x.test"}), "emails are unique regardless of case")

	all, err := s.GetContacts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ann Lee", all[0].Name)
	assert.Nil(t, all[0].LastUsedAt)

	found, err := s.SearchContacts(ctx, "bo", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "c2", found[0].ID)

	found, err = s.SearchContacts(ctx, "BOBBY", 0)
	require.NoError(t, err)
	assert.Len(t, found, 1, "nickname match is case-insensitive")

	found, err = s.SearchContacts(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, found, "LIKE wildcards are escaped")

	require.NoError(t, s.UpdateContact(ctx, model.Contact{ID: "c1", Name: "Ann Q. Lee", Email: "ann@x.test"}))
	assert.ErrorIs(t, s.UpdateContact(ctx, model.Contact{ID: "nope", Email: "z@x.test"}), store.ErrNotFound)

	require.NoError(t, s.DeleteContact(ctx, "c2"))
	assert.ErrorIs(t, s.DeleteContact(ctx, "c2"), store.ErrNotFound)
}

func TestRecordContactUse(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.CreateContact(ctx, model.Contact{ID: "c1", Email: "known@x.test"}))
	require.NoError(t, s.RecordContactUse(ctx, []model.Contact{
		{Name: "Known", Email: "known@x.test"},
		{Name: "New Person", Email: "new@x.test"},
		{Email: ""},
	}))
	require.NoError(t, s.RecordContactUse(ctx, []model.Contact{{Email: "new@x.test"}}))

	all, err := s.GetContacts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "new@x.test", all[0].Email, "most used contact comes first")
	assert.Equal(t, 2, all[0].UseCount)
	assert.Equal(t, "New Person", all[0].Name)
	assert.NotNil(t, all[0].LastUsedAt)

	assert.Equal(t, "Known", all[1].Name, "empty name is filled from the message")
	assert.Equal(t, 1, all[1].UseCount)
}

func TestMailingLists(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.CreateMailingList(ctx, model.MailingList{
		ID:      "l1",
		Name:    "Team",
		Members: []string{"Ann <ann@x.test>", " ", "bob@x.test"},
	}))
	require.Error(t, s.CreateMailingList(ctx, model.MailingList{Name: "team"}), "names are unique regardless of case")
	require.Error(t, s.CreateMailingList(ctx, model.MailingList{Name: "bad@name"}))

	l, err := s.GetMailingListByName(ctx, "TEAM")
	require.NoError(t, err)
	assert.Equal(t, "l1", l.ID)
	assert.Equal(t, []string{"Ann <ann@x.test>", "bob@x.test"}, l.Members)

	l.Members = []string{"carol@x.test"}
	l.Description = "core"
	require.NoError(t, s.UpdateMailingList(ctx, *l))

	lists, err := s.GetMailingLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "core", lists[0].Description)
	assert.Equal(t, []string{"carol@x.test"}, lists[0].Members)

	require.NoError(t, s.DeleteMailingList(ctx, "l1"))
	_, err = s.GetMailingListByName(ctx, "Team")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDrafts(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	d := &model.Draft{
		IdentityID: "work",
		Subject:    "Hello",
		Body:       "Hi all",
		Headers: []model.DraftHeader{
			{Kind: "to", Value: "a@x.test"},
			{Kind: "cc", Value: "Bob <bob@x.test>,carol@x.test"},
		},
		Rows: []string{"to", "cc", "bcc"},
	}
	require.NoError(t, s.SaveDraft(ctx, d))
	require.NotEmpty(t, d.ID)
	created := d.CreatedAt

	got, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Subject)
	assert.Equal(t, "Bob <bob@x.test>,carol@x.test", got.Header("cc"))
	assert.Equal(t, []string{"to", "cc", "bcc"}, got.Rows)
	assert.False(t, got.NewsMode)

	d.Subject = "Hello again"
	d.NewsMode = true
	require.NoError(t, s.SaveDraft(ctx, d))
	assert.Equal(t, created, d.CreatedAt)

	drafts, err := s.GetDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Hello again", drafts[0].Subject)
	assert.True(t, drafts[0].NewsMode)

	require.NoError(t, s.DeleteDraft(ctx, d.ID))
	_, err = s.GetDraft(ctx, d.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPrefs(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, err := s.GetPref(ctx, store.PrefLastIdentity)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetPref(ctx, store.PrefLastIdentity, "home"))
	require.NoError(t, s.SetPref(ctx, store.PrefLastIdentity, "work"))

	v, err := s.GetPref(ctx, store.PrefLastIdentity)
	require.NoError(t, err)
	assert.Equal(t, "work", v)
}
