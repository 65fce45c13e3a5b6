package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/preschool-social/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db, true))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedUsers(t *testing.T, repo UserRepository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		p := &models.Profile{ID: id, DisplayName: "Teacher " + id, Email: id + "@example.com"}
		p.Normalize()
		require.NoError(t, repo.CreateUser(context.Background(), p))
	}
}

func TestUserRepository_CreateGetSave(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLUserRepository(db)
	ctx := context.Background()

	seedUsers(t, repo, "u1")
	assert.ErrorIs(t, repo.CreateUser(ctx, &models.Profile{ID: "u1"}), ErrConflict)

	got, err := repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Teacher u1", got.DisplayName)
	assert.Equal(t, "teacheru1", got.Handle)
	assert.Empty(t, got.FollowerIDs)
	assert.Empty(t, got.FollowingIDs)

	got.Bio = "Kindergarten, room 3"
	got.Location = ""
	require.NoError(t, repo.SaveUser(ctx, got))

	again, err := repo.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Kindergarten, room 3", again.Bio)
	assert.Empty(t, again.Location)

	_, err = repo.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SaveUser(ctx, &models.Profile{ID: "missing"}), ErrNotFound)
}

func TestUserRepository_Search(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLUserRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, &models.Profile{ID: "a", DisplayName: "Maria Lopez", Handle: "marial"}))
	require.NoError(t, repo.CreateUser(ctx, &models.Profile{ID: "b", DisplayName: "John Smith", Handle: "johns"}))

	users, err := repo.SearchUsers(ctx, "MARIA", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a", users[0].ID)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestUserRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLUserRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.CreateUser(ctx, &models.Profile{ID: "a", DisplayName: "Maria Lopez", Handle: "marial"}))
	require.NoError(t, repo.CreateUser(ctx, &models.Profile{ID: "b", DisplayName: "John Smith", Handle: "johns"}))
	require.NoError(t, repo.CreateUser(ctx, &models.Profile{ID: "c", DisplayName: "Room 100% Fun", Handle: "room_100"}))

	for _, term := range []string{"%", "_"} {
		users, err := repo.SearchUsers(ctx, term, 10)
		require.NoError(t, err, term)
		require.Len(t, users, 1, term)
		assert.Equal(t, "c", users[0].ID, term)
	}

	users, err := repo.SearchUsers(ctx, `\`, 10)
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = repo.SearchUsers(ctx, "m_ria", 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFollowRepository_RoundTripIsSymmetric(t *testing.T) {
	db := setupTestDB(t)
	users := NewSQLUserRepository(db)
	follows := NewSQLFollowRepository(db)
	ctx := context.Background()
	seedUsers(t, users, "a", "b")

	created, err := follows.CreateFollow(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = follows.CreateFollow(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, created)

	a, err := users.GetUserByID(ctx, "a")
	require.NoError(t, err)
	b, err := users.GetUserByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, a.FollowerIDs)
	assert.Equal(t, []string{"a"}, b.FollowingIDs)

	deleted, err := follows.DeleteFollow(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	a, err = users.GetUserByID(ctx, "a")
	require.NoError(t, err)
	b, err = users.GetUserByID(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, a.FollowerIDs)
	assert.Empty(t, b.FollowingIDs)

	_, err = follows.CreateFollow(ctx, "b", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newShare(author, text string, at time.Time) *models.ContentItem {
	item := &models.ContentItem{
		Kind:      models.KindShare,
		AuthorID:  author,
		CreatedAt: at,
		Share:     &models.ShareBody{Text: text, Tags: []string{"art"}},
	}
	item.Prepare()
	return item
}

func TestContentRepository_CreateRecentSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLContentRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateItem(ctx, newShare("a", fmt.Sprintf("Finger painting day %d", i), base.Add(time.Duration(i)*time.Minute))))
	}
	project := &models.ContentItem{
		Kind:      models.KindProject,
		AuthorID:  "b",
		CreatedAt: base,
		Project:   &models.ProjectBody{Title: "Garden Club", Description: "Grow beans", ParticipantIDs: []string{"b"}},
	}
	project.Prepare()
	require.NoError(t, repo.CreateItem(ctx, project))
	require.NotEmpty(t, project.ID)

	recent, err := repo.RecentItems(ctx, models.KindShare, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "Finger painting day 4", recent[0].Share.Text)
	assert.Equal(t, []string{"art"}, recent[0].Share.Tags)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))

	got, err := repo.GetItem(ctx, models.KindProject, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garden Club", got.Project.Title)

	_, err = repo.GetItem(ctx, models.KindShare, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := repo.SearchItems(ctx, models.KindProject, "garden", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	found, err = repo.SearchItems(ctx, models.KindShare, "PAINTING", 10)
	require.NoError(t, err)
	assert.Len(t, found, 5)
	found, err = repo.SearchItems(ctx, models.KindShare, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	byAuthor, err := repo.ItemsByAuthor(ctx, models.KindShare, "b", 10)
	require.NoError(t, err)
	assert.Empty(t, byAuthor)

	n, err := repo.CountItems(ctx, models.KindShare)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestContentRepository_AdjustCounterFloorsAtZero(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLContentRepository(db)
	ctx := context.Background()
	item := newShare("a", "hello", time.Now().UTC())
	require.NoError(t, repo.CreateItem(ctx, item))

	require.NoError(t, repo.AdjustCounter(ctx, models.KindShare, item.ID, models.CounterLikes, 1))
	require.NoError(t, repo.AdjustCounter(ctx, models.KindShare, item.ID, models.CounterLikes, -1))
	assert.ErrorIs(t, repo.AdjustCounter(ctx, models.KindShare, item.ID, models.CounterLikes, -1), ErrCounterFloor)

	got, err := repo.GetItem(ctx, models.KindShare, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.LikeCount)

	assert.ErrorIs(t, repo.AdjustCounter(ctx, models.KindShare, "missing", models.CounterLikes, 1), ErrNotFound)
	assert.ErrorIs(t, repo.AdjustCounter(ctx, models.KindShare, "missing", models.CounterLikes, -1), ErrNotFound)
	assert.Error(t, repo.AdjustCounter(ctx, models.KindShare, item.ID, "title", 1))
}

func TestContentRepository_AdjustCounterConcurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLContentRepository(db)
	ctx := context.Background()
	item := newShare("a", "hello", time.Now().UTC())
	require.NoError(t, repo.CreateItem(ctx, item))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AdjustCounter(ctx, models.KindShare, item.ID, models.CounterComments, 1))
		}()
	}
	wg.Wait()

	got, err := repo.GetItem(ctx, models.KindShare, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 20, got.CommentCount)
}

func TestLikeRepository_UniquePerIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLLikeRepository(db)
	ctx := context.Background()

	created, err := repo.CreateLike(ctx, models.KindShare, "s1", "u1")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.CreateLike(ctx, models.KindShare, "s1", "u1")
	require.NoError(t, err)
	assert.False(t, created)

	// the same id in another collection is a different item
	created, err = repo.CreateLike(ctx, models.KindProject, "s1", "u1")
	require.NoError(t, err)
	assert.True(t, created)

	count, err := repo.CountLikes(ctx, models.KindShare, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	liked, err := repo.LikedItemIDs(ctx, models.KindShare, []string{"s1", "s2"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"s1": true}, liked)

	deleted, err := repo.DeleteLike(ctx, models.KindShare, "s1", "u1")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.DeleteLike(ctx, models.KindShare, "s1", "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCommentRepository_OldestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLCommentRepository(db)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.CreateComment(ctx, &models.Comment{ItemKind: models.KindActivity, ItemID: "x", AuthorID: "u2", Body: "second", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{ItemKind: models.KindActivity, ItemID: "x", AuthorID: "u1", Body: "first", CreatedAt: base}))
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{ItemKind: models.KindShare, ItemID: "x", AuthorID: "u1", Body: "elsewhere", CreatedAt: base}))

	comments, err := repo.GetCommentsByItem(ctx, models.KindActivity, "x")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "second", comments[1].Body)

	require.NoError(t, repo.DeleteCommentsByItem(ctx, models.KindActivity, "x"))
	n, err := repo.CountComments(ctx, models.KindActivity, "x")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNotificationRepository_ReadDismissClear(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLNotificationRepository(db)
	ctx := context.Background()
	base := time.Now().UTC()

	var ids []string
	for i := 0; i < 3; i++ {
		n := &models.Notification{RecipientID: "u2", Kind: models.NotificationLike, SenderID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, repo.CreateNotification(ctx, n))
		ids = append(ids, n.ID)
	}
	require.NoError(t, repo.CreateNotification(ctx, &models.Notification{RecipientID: "u3", Kind: models.NotificationFollow, SenderID: "u1", CreatedAt: base}))

	list, err := repo.GetByRecipientID(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)

	changed, err := repo.MarkAsRead(ctx, "u2", ids[:1])
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)
	unread, err := repo.GetUnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	changed, err = repo.MarkAsRead(ctx, "u2", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	assert.ErrorIs(t, repo.DeleteNotification(ctx, "u3", ids[0]), ErrNotFound)
	require.NoError(t, repo.DeleteNotification(ctx, "u2", ids[0]))

	cleared, err := repo.DeleteAll(ctx, "u2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, cleared)

	total, err := repo.CountNotifications(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestMessageRepository_ThreadAndReceipts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLMessageRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: "a", ReceiverID: "b", Body: "hi", SentAtMillis: 100}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: "b", ReceiverID: "a", Body: "hello", SentAtMillis: 200}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: "a", ReceiverID: "b", Body: "how are you", SentAtMillis: 300}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: "c", ReceiverID: "b", Body: "other thread", SentAtMillis: 150}))

	thread, err := repo.GetThread(ctx, "b", "a")
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, []string{"hi", "hello", "how are you"}, []string{thread[0].Body, thread[1].Body, thread[2].Body})

	unread, err := repo.GetUnreadCount(ctx, "b")
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	changed, err := repo.MarkThreadRead(ctx, "b", "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	unread, err = repo.GetUnreadCount(ctx, "b")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
	unread, err = repo.GetUnreadCount(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestDeviceRepository_TokenMovesBetweenIdentities(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLDeviceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveDevice(ctx, "a", "tok-1"))
	require.NoError(t, repo.SaveDevice(ctx, "b", "tok-1"))
	require.NoError(t, repo.SaveDevice(ctx, "b", "tok-2"))

	tokens, err := repo.GetTokens(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, tokens)
	tokens, err = repo.GetTokens(ctx, "b")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tok-1", "tok-2"}, tokens)

	require.NoError(t, repo.DeleteDevice(ctx, "tok-1"))
	tokens, err = repo.GetTokens(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-2"}, tokens)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("op", nil))
	assert.ErrorIs(t, classify("op", gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, classify("op", gorm.ErrDuplicatedKey), ErrConflict)

	err := classify("op", context.DeadlineExceeded)
	assert.True(t, IsTransient(err))
	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Retryable())

	assert.False(t, IsTransient(classify("op", fmt.Errorf("boom"))))
}
