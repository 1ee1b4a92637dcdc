package pg

import (
	"context"
	"log"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/kotoba-dev/kotoba/internal/config"
	"github.com/kotoba-dev/kotoba/internal/domain"
	"github.com/kotoba-dev/kotoba/internal/engine"
	internal_errors "github.com/kotoba-dev/kotoba/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var storage *Storage

func TestMain(m *testing.M) {
	ctx := context.Background()
	var container *postgres.PostgresContainer
	storage, container = mustSetup(ctx)
	defer teardown(ctx, storage, container)

	exitCode := m.Run()
	os.Exit(exitCode)
}

func mustSetup(ctx context.Context) (*Storage, *postgres.PostgresContainer) {
	dbName := "kotoba"
	dbUser := "user"
	dbPassword := "password"
	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithInitScripts(filepath.Join("migrations", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// First, we wait for the container to log readiness twice.
			// This is because it will restart itself after the first startup.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}
	containerPort, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to obtain container port: %s", err)
	}
	port, err := strconv.Atoi(containerPort.Port())
	if err != nil {
		log.Fatalf("failed to obtain int container port: %s", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("failed to obtain container host: %s", err)
	}

	storage, err := New(&config.Config{
		Public:  config.Public{DefaultBumpLimit: 3},
		Private: config.Private{Pg: config.Pg{Host: host, Port: port, User: dbUser, Password: dbPassword, Dbname: dbName}},
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	return storage, container
}

func teardown(ctx context.Context, storage *Storage, container *postgres.PostgresContainer) {
	if err := storage.Cleanup(); err != nil {
		log.Printf("failed to close storage connection: %s", err)
	}
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
}

// mustCreateCategory sets up a fresh board and category for one test.
func mustCreateCategory(t *testing.T, alias string, bumpLimit int) domain.Category {
	t.Helper()
	ctx := context.Background()

	boardId, err := storage.CreateBoard(ctx, "kotoba")
	require.NoError(t, err)

	_, err = storage.CreateCategory(ctx, domain.CategoryCreationData{
		BoardId:          boardId,
		Alias:            alias,
		Name:             "Category " + alias,
		DefaultBumpLimit: bumpLimit,
	})
	require.NoError(t, err)

	category, err := storage.GetCategoryByAlias(ctx, alias)
	require.NoError(t, err)
	return category
}

func mustCreateThread(t *testing.T, category domain.Category, title string) (domain.ThreadId, domain.PostId) {
	t.Helper()
	threadId, postId, err := storage.CreateThread(context.Background(), domain.ThreadCreationData{
		Title:         title,
		CategoryAlias: category.Alias,
		OpPost:        domain.PostCreationData{Message: "op of " + title},
	}, category, nil, time.Now().UTC())
	require.NoError(t, err)
	return threadId, postId
}

func submitPost(t *testing.T, threadId domain.ThreadId, message string, sage bool, at time.Time) domain.PostId {
	t.Helper()
	ctx := context.Background()

	thread, err := storage.GetThread(ctx, threadId)
	require.NoError(t, err)

	bump := engine.ApplyBump(&thread, sage, at)
	postId, err := storage.CreatePost(ctx, domain.PostCreationData{
		ThreadId:      threadId,
		Message:       message,
		IsSageEnabled: sage,
	}, nil, bump, at)
	require.NoError(t, err)
	return postId
}

func TestCategoryRoundtrip(t *testing.T) {
	category := mustCreateCategory(t, "tech", 100)

	assert.Equal(t, domain.CategoryAlias("tech"), category.Alias)
	assert.Equal(t, 100, category.DefaultBumpLimit)
	assert.False(t, category.IsDeleted)

	_, err := storage.GetCategoryByAlias(context.Background(), "no-such-alias")
	assert.ErrorIs(t, err, internal_errors.NotFound)
}

func TestCreateCategory_DuplicateAlias(t *testing.T) {
	category := mustCreateCategory(t, "dup", 100)

	_, err := storage.CreateCategory(context.Background(), domain.CategoryCreationData{
		BoardId:          category.BoardId,
		Alias:            "dup",
		Name:             "Duplicate",
		DefaultBumpLimit: 100,
	})
	require.Error(t, err)
	var withStatus *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &withStatus)
	assert.Equal(t, 409, withStatus.StatusCode)
	assert.Contains(t, withStatus.Message, "alias")
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	category := mustCreateCategory(t, "dup-name", 100)

	_, err := storage.CreateCategory(context.Background(), domain.CategoryCreationData{
		BoardId:          category.BoardId,
		Alias:            "dup-name-other",
		Name:             category.Name,
		DefaultBumpLimit: 100,
	})
	require.Error(t, err)
	var withStatus *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &withStatus)
	assert.Equal(t, 409, withStatus.StatusCode)
	assert.Contains(t, withStatus.Message, "name")
}

func TestCreateThread_SeedsOrderingState(t *testing.T) {
	category := mustCreateCategory(t, "seed", 5)
	threadId, opId := mustCreateThread(t, category, "first thread")

	thread, err := storage.GetThread(context.Background(), threadId)
	require.NoError(t, err)

	assert.Equal(t, 5, thread.BumpLimit)
	assert.Equal(t, 0, thread.BumpCount)
	assert.Equal(t, 1, thread.PostCount)
	assert.Equal(t, category.Id, thread.CategoryId)
	assert.Equal(t, domain.CategoryAlias("seed"), thread.CategoryAlias)

	full, err := storage.GetThreadWithPosts(context.Background(), threadId)
	require.NoError(t, err)
	require.Len(t, full.Posts, 1)
	assert.Equal(t, opId, full.Posts[0].Id)
}

func TestCreatePost_BumpAndSage(t *testing.T) {
	category := mustCreateCategory(t, "bump", 5)
	threadId, _ := mustCreateThread(t, category, "bump thread")
	ctx := context.Background()

	bumpAt := time.Now().UTC().Add(time.Minute).Round(time.Microsecond)
	submitPost(t, threadId, "regular reply", false, bumpAt)

	thread, err := storage.GetThread(ctx, threadId)
	require.NoError(t, err)
	assert.Equal(t, 1, thread.BumpCount)
	assert.Equal(t, 2, thread.PostCount)
	assert.True(t, thread.LastBumpedAt.Equal(bumpAt))

	sageAt := bumpAt.Add(time.Minute)
	submitPost(t, threadId, "quiet reply", true, sageAt)

	thread, err = storage.GetThread(ctx, threadId)
	require.NoError(t, err)
	assert.Equal(t, 1, thread.BumpCount, "sage must not consume a bump")
	assert.Equal(t, 3, thread.PostCount, "sage still counts as a post")
	assert.True(t, thread.LastBumpedAt.Equal(bumpAt), "sage must not move the ordering key")
}

func TestCreatePost_SaturationFreezesOrderingKey(t *testing.T) {
	category := mustCreateCategory(t, "saturate", 2)
	threadId, _ := mustCreateThread(t, category, "short-lived thread")
	ctx := context.Background()

	at := time.Now().UTC().Round(time.Microsecond)
	for i := 0; i < 2; i++ {
		at = at.Add(time.Minute)
		submitPost(t, threadId, "reply", false, at)
	}

	thread, err := storage.GetThread(ctx, threadId)
	require.NoError(t, err)
	require.Equal(t, 2, thread.BumpCount)
	frozenAt := thread.LastBumpedAt

	submitPost(t, threadId, "past the limit", false, at.Add(time.Hour))

	thread, err = storage.GetThread(ctx, threadId)
	require.NoError(t, err)
	assert.Equal(t, 2, thread.BumpCount, "bump count is capped at the limit")
	assert.Equal(t, 4, thread.PostCount, "post count keeps growing")
	assert.True(t, thread.LastBumpedAt.Equal(frozenAt))
}

func TestCreatePost_ClosedThreadRejectedUnderLock(t *testing.T) {
	category := mustCreateCategory(t, "closed", 5)
	threadId, _ := mustCreateThread(t, category, "to be closed")
	ctx := context.Background()

	require.NoError(t, storage.SetThreadClosed(ctx, threadId, true))

	_, err := storage.CreatePost(ctx, domain.PostCreationData{
		ThreadId: threadId,
		Message:  "too late",
	}, nil, engine.BumpResult{}, time.Now().UTC())
	assert.True(t, internal_errors.Is[*internal_errors.ThreadClosedError](err))

	thread, err := storage.GetThread(ctx, threadId)
	require.NoError(t, err)
	assert.Equal(t, 1, thread.PostCount, "rejected post must leave no trace")
}

func TestCreatePost_MissingThread(t *testing.T) {
	category := mustCreateCategory(t, "missing", 5)
	threadId, _ := mustCreateThread(t, category, "victim")
	ctx := context.Background()

	require.NoError(t, storage.SoftDeleteThread(ctx, threadId))

	_, err := storage.CreatePost(ctx, domain.PostCreationData{
		ThreadId: threadId,
		Message:  "into the void",
	}, nil, engine.BumpResult{}, time.Now().UTC())
	assert.True(t, internal_errors.Is[*internal_errors.ThreadNotFoundError](err))
}

func TestCreatePost_WithAttachments(t *testing.T) {
	category := mustCreateCategory(t, "files", 5)
	threadId, _ := mustCreateThread(t, category, "file thread")
	ctx := context.Background()

	width, height := 800, 600
	attachments := []domain.Attachment{
		{Kind: domain.MediaPicture, FileName: "cat.png", FileExtension: "png", Hash: "abc", SizeBytes: 1234, Width: &width, Height: &height},
		{Kind: domain.MediaAudio, FileName: "song.mp3", FileExtension: "mp3", Hash: "def", SizeBytes: 5678},
	}
	postId, err := storage.CreatePost(ctx, domain.PostCreationData{
		ThreadId: threadId,
		Message:  "with files",
	}, attachments, engine.BumpResult{}, time.Now().UTC())
	require.NoError(t, err)

	full, err := storage.GetThreadWithPosts(ctx, threadId)
	require.NoError(t, err)
	require.Len(t, full.Posts, 2)

	post := full.Posts[1]
	require.Equal(t, postId, post.Id)
	require.Len(t, post.Attachments, 2)
	assert.Equal(t, domain.MediaPicture, post.Attachments[0].Kind)
	require.NotNil(t, post.Attachments[0].Width)
	assert.Equal(t, 800, *post.Attachments[0].Width)
	assert.Nil(t, post.Attachments[1].Width)
}

func TestSoftDeletePost_HiddenFromReads(t *testing.T) {
	category := mustCreateCategory(t, "erase", 5)
	threadId, _ := mustCreateThread(t, category, "erase thread")
	ctx := context.Background()

	postId := submitPost(t, threadId, "doomed", false, time.Now().UTC())
	require.NoError(t, storage.SoftDeletePost(ctx, postId))

	full, err := storage.GetThreadWithPosts(ctx, threadId)
	require.NoError(t, err)
	require.Len(t, full.Posts, 1, "only the opening post survives")

	assert.ErrorIs(t, storage.SoftDeletePost(ctx, postId), internal_errors.NotFound)
}

func TestThreadsInCategory_ExcludesDeleted(t *testing.T) {
	category := mustCreateCategory(t, "list", 5)
	aliveId, _ := mustCreateThread(t, category, "alive")
	deadId, _ := mustCreateThread(t, category, "dead")
	ctx := context.Background()

	require.NoError(t, storage.SoftDeleteThread(ctx, deadId))

	threads, err := storage.ThreadsInCategory(ctx, category.Id)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, aliveId, threads[0].Id)
}

func TestBans_ScopeAndWindowFiltering(t *testing.T) {
	categoryA := mustCreateCategory(t, "ban-a", 5)
	categoryB := mustCreateCategory(t, "ban-b", 5)
	ctx := context.Background()
	now := time.Now().UTC()

	mkBan := func(scope domain.BanScope, start, end time.Time) domain.BanId {
		id, err := storage.CreateBan(ctx, domain.BanCreationData{
			Scope:          scope,
			LowerIpAddress: netip.MustParseAddr("10.0.0.0"),
			UpperIpAddress: netip.MustParseAddr("10.0.0.255"),
			Start:          start,
			End:            end,
			Reason:         "spam",
		})
		require.NoError(t, err)
		return id
	}

	scopedId := mkBan(domain.CategoryScope(categoryA.Id), now.Add(-time.Hour), now.Add(time.Hour))
	globalId := mkBan(domain.GlobalScope(), now.Add(-time.Hour), now.Add(2*time.Hour))
	mkBan(domain.GlobalScope(), now.Add(-2*time.Hour), now.Add(-time.Hour)) // expired

	bansA, err := storage.ActiveBansFor(ctx, categoryA.Id, now)
	require.NoError(t, err)
	require.Len(t, bansA, 2, "scoped and site-wide bans both apply in category A")

	bansB, err := storage.ActiveBansFor(ctx, categoryB.Id, now)
	require.NoError(t, err)
	require.Len(t, bansB, 1, "only the site-wide ban applies in category B")
	assert.Equal(t, globalId, bansB[0].Id)
	assert.True(t, bansB[0].Scope.IsGlobal())

	require.NoError(t, storage.SoftDeleteBan(ctx, scopedId))
	bansA, err = storage.ActiveBansFor(ctx, categoryA.Id, now)
	require.NoError(t, err)
	require.Len(t, bansA, 1)
}

func TestBans_AddressRoundtrip(t *testing.T) {
	category := mustCreateCategory(t, "ban-addr", 5)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := storage.CreateBan(ctx, domain.BanCreationData{
		Scope:          domain.CategoryScope(category.Id),
		LowerIpAddress: netip.MustParseAddr("2001:db8::1"),
		UpperIpAddress: netip.MustParseAddr("2001:db8::ffff"),
		Start:          now.Add(-time.Minute),
		End:            now.Add(time.Hour),
		Reason:         "flood",
	})
	require.NoError(t, err)

	bans, err := storage.ActiveBansFor(ctx, category.Id, now)
	require.NoError(t, err)
	require.Len(t, bans, 1)

	ban := bans[0]
	assert.True(t, ban.Active(netip.MustParseAddr("2001:db8::42"), now))
	assert.False(t, ban.Active(netip.MustParseAddr("10.0.0.1"), now), "v4 address never matches a v6 range")
}

func TestSearchCandidates(t *testing.T) {
	category := mustCreateCategory(t, "search", 5)
	ctx := context.Background()

	matchingThreadId, matchingOpId := mustCreateThread(t, category, "all about golang here")
	otherThreadId, _ := mustCreateThread(t, category, "unrelated")

	hitId := submitPost(t, otherThreadId, "golang is fine", false, time.Now().UTC().Add(time.Second))
	submitPost(t, otherThreadId, "nothing to see", false, time.Now().UTC().Add(2*time.Second))
	inheritId := submitPost(t, matchingThreadId, "me too", false, time.Now().UTC().Add(3*time.Second))

	candidates, err := storage.SearchCandidates(ctx, "golang")
	require.NoError(t, err)

	ids := make(map[domain.PostId]domain.PostSummary, len(candidates))
	for _, c := range candidates {
		ids[c.Id] = c
	}
	assert.Contains(t, ids, hitId, "message match")
	assert.Contains(t, ids, matchingOpId, "opening post of a title-matching thread")
	assert.NotContains(t, ids, inheritId, "non-opening posts do not inherit the title match")

	op := ids[matchingOpId]
	assert.True(t, op.IsOpeningPost)
	assert.Equal(t, domain.ThreadTitle("all about golang here"), op.ThreadTitle)
}

func TestNotices(t *testing.T) {
	category := mustCreateCategory(t, "notice", 5)
	threadId, opId := mustCreateThread(t, category, "notice thread")
	ctx := context.Background()

	_, err := storage.CreateNotice(ctx, opId, "mod", "keep it civil")
	require.NoError(t, err)

	full, err := storage.GetThreadWithPosts(ctx, threadId)
	require.NoError(t, err)
	require.Len(t, full.Posts, 1)
	require.Len(t, full.Posts[0].Notices, 1)
	assert.Equal(t, "keep it civil", full.Posts[0].Notices[0].Text)
}
