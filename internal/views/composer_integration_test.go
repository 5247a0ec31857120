package views

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestComposerChannelStatsEmptyChannel(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	user := seedUser(t, users, "lonely")

	composer := NewComposer(testPool)
	stats, err := composer.ChannelStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("channel stats must not fail on an empty channel: %v", err)
	}
	if stats != (ChannelStats{}) {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
}

func TestComposerChannelStatsAggregates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	videos := repositories.NewPostgresVideoRepository(testPool)
	likes := repositories.NewPostgresLikeRepository(testPool)
	subs := repositories.NewPostgresSubscriptionRepository(testPool)

	channel := seedUser(t, users, "channel")
	fan := seedUser(t, users, "fan")

	first := seedVideo(t, videos, channel.ID, "First", true)
	second := seedVideo(t, videos, channel.ID, "Second", true)
	bumpViews(t, videos, first.ID, 3)
	bumpViews(t, videos, second.ID, 2)

	if _, err := subs.Toggle(ctx, fan.ID, channel.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := likes.ToggleVideo(ctx, first.ID, channel.ID); err != nil {
		t.Fatalf("like video: %v", err)
	}

	composer := NewComposer(testPool)
	stats, err := composer.ChannelStats(ctx, channel.ID)
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if stats.Subscribers != 1 || stats.TotalVideos != 2 || stats.TotalVideoViews != 5 || stats.TotalVideoLikes != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestComposerChannelProfile(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	subs := repositories.NewPostgresSubscriptionRepository(testPool)

	channel := seedUser(t, users, "creator")
	fan := seedUser(t, users, "fan")
	other := seedUser(t, users, "other")

	if _, err := subs.Toggle(ctx, fan.ID, channel.ID); err != nil {
		t.Fatalf("subscribe fan: %v", err)
	}
	if _, err := subs.Toggle(ctx, other.ID, channel.ID); err != nil {
		t.Fatalf("subscribe other: %v", err)
	}

	composer := NewComposer(testPool)

	// Lookup is case-insensitive on the stored lowercase username.
	profile, err := composer.ChannelProfile(ctx, "CREATOR", fan.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 2 || !profile.IsSubscribed {
		t.Fatalf("unexpected profile for subscriber: %+v", profile)
	}

	profile, err = composer.ChannelProfile(ctx, "creator", "")
	if err != nil {
		t.Fatalf("anonymous channel profile: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatal("anonymous viewer must not read as subscribed")
	}

	if _, err := composer.ChannelProfile(ctx, "ghost", ""); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}
}

func TestComposerWatchHistoryOrder(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	videos := repositories.NewPostgresVideoRepository(testPool)

	owner := seedUser(t, users, "owner")
	viewer := seedUser(t, users, "viewer")
	first := seedVideo(t, videos, owner.ID, "First", true)
	second := seedVideo(t, videos, owner.ID, "Second", true)

	if err := users.RecordWatch(ctx, viewer.ID, first.ID); err != nil {
		t.Fatalf("record first watch: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := users.RecordWatch(ctx, viewer.ID, second.ID); err != nil {
		t.Fatalf("record second watch: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	// Rewatching the first video moves it to the front instead of
	// duplicating the entry.
	if err := users.RecordWatch(ctx, viewer.ID, first.ID); err != nil {
		t.Fatalf("record rewatch: %v", err)
	}

	composer := NewComposer(testPool)
	history, err := composer.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Video.ID != first.ID || history[1].Video.ID != second.ID {
		t.Fatalf("unexpected history order: %s then %s", history[0].Video.ID, history[1].Video.ID)
	}
	if history[0].Owner.Username != "owner" {
		t.Fatalf("expected owner join, got %+v", history[0].Owner)
	}
}

func TestComposerLikedVideos(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	videos := repositories.NewPostgresVideoRepository(testPool)
	likes := repositories.NewPostgresLikeRepository(testPool)

	owner := seedUser(t, users, "owner")
	fan := seedUser(t, users, "fan")
	liked := seedVideo(t, videos, owner.ID, "Keeper", true)
	seedVideo(t, videos, owner.ID, "Ignored", true)

	if _, err := likes.ToggleVideo(ctx, liked.ID, fan.ID); err != nil {
		t.Fatalf("like video: %v", err)
	}

	composer := NewComposer(testPool)
	got, err := composer.LikedVideos(ctx, fan.ID)
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if len(got) != 1 || got[0].ID != liked.ID || got[0].Title != "Keeper" {
		t.Fatalf("unexpected liked videos: %+v", got)
	}
}

func TestComposerListVideos(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	videos := repositories.NewPostgresVideoRepository(testPool)

	owner := seedUser(t, users, "owner")
	for i := 0; i < 3; i++ {
		seedVideo(t, videos, owner.ID, fmt.Sprintf("Go tutorial %d", i), true)
	}
	hidden := seedVideo(t, videos, owner.ID, "Unlisted draft", false)

	composer := NewComposer(testPool)

	got, err := composer.ListVideos(ctx, VideoListParams{Page: 1, Limit: 2, SortBy: "title"})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected page of 2, got %d", len(got))
	}
	if got[0].Owner.Username != "owner" {
		t.Fatalf("expected owner join, got %+v", got[0].Owner)
	}

	// A page past the end is empty, not an error.
	got, err = composer.ListVideos(ctx, VideoListParams{Page: 50, Limit: 10})
	if err != nil {
		t.Fatalf("list videos past end: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty page past the end, got %d entries", len(got))
	}

	// Unpublished videos are hidden from strangers but visible to the owner.
	got, err = composer.ListVideos(ctx, VideoListParams{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("anonymous list: %v", err)
	}
	for _, video := range got {
		if video.ID == hidden.ID {
			t.Fatal("unpublished video leaked into the anonymous listing")
		}
	}

	got, err = composer.ListVideos(ctx, VideoListParams{Page: 1, Limit: 10, ViewerID: owner.ID})
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	found := false
	for _, video := range got {
		if video.ID == hidden.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("owner must see their own unpublished video")
	}

	// Free-text search matches title substrings case-insensitively.
	got, err = composer.ListVideos(ctx, VideoListParams{Page: 1, Limit: 10, Query: "TUTORIAL"})
	if err != nil {
		t.Fatalf("search list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 search matches, got %d", len(got))
	}
}

func TestComposerListComments(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	videos := repositories.NewPostgresVideoRepository(testPool)
	comments := repositories.NewPostgresCommentRepository(testPool)

	owner := seedUser(t, users, "owner")
	video := seedVideo(t, videos, owner.ID, "Commented", true)

	for i := 0; i < 3; i++ {
		comment := models.Comment{
			ID:        uuid.NewString(),
			Content:   fmt.Sprintf("comment %d", i),
			VideoID:   video.ID,
			OwnerID:   owner.ID,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
			UpdatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := comments.Create(ctx, comment); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	composer := NewComposer(testPool)
	got, err := composer.ListComments(ctx, video.ID, 1, 2)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected page of 2, got %d", len(got))
	}
	// Newest first.
	if got[0].Content != "comment 2" {
		t.Fatalf("unexpected first comment: %+v", got[0])
	}
	if got[0].Owner.Username != "owner" {
		t.Fatalf("expected owner join, got %+v", got[0].Owner)
	}
}

func TestComposerChannelVideosIncludesUnpublished(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	videos := repositories.NewPostgresVideoRepository(testPool)

	owner := seedUser(t, users, "owner")
	seedVideo(t, videos, owner.ID, "Published", true)
	seedVideo(t, videos, owner.ID, "Draft", false)

	composer := NewComposer(testPool)
	got, err := composer.ChannelVideos(ctx, owner.ID)
	if err != nil {
		t.Fatalf("channel videos: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both videos, got %d", len(got))
	}
}

func TestComposerSubscriberLists(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := repositories.NewPostgresUserRepository(testPool)
	subs := repositories.NewPostgresSubscriptionRepository(testPool)

	channel := seedUser(t, users, "channel")
	fan := seedUser(t, users, "fan")

	if _, err := subs.Toggle(ctx, fan.ID, channel.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	composer := NewComposer(testPool)

	subscribers, err := composer.ChannelSubscribers(ctx, channel.ID)
	if err != nil {
		t.Fatalf("channel subscribers: %v", err)
	}
	if len(subscribers) != 1 || subscribers[0].Username != "fan" {
		t.Fatalf("unexpected subscribers: %+v", subscribers)
	}

	channels, err := composer.SubscribedChannels(ctx, fan.ID)
	if err != nil {
		t.Fatalf("subscribed channels: %v", err)
	}
	if len(channels) != 1 || channels[0].Username != "channel" {
		t.Fatalf("unexpected channels: %+v", channels)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `TRUNCATE TABLE playlist_videos, playlists, subscriptions,
        likes, tweets, comments, watch_history, videos, users CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func seedUser(t *testing.T, repo *repositories.PostgresUserRepository, username string) models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Test " + username,
		Password:  "password-hash",
		Avatar:    models.MediaAsset{URL: "https://media.test/" + username + ".png", StorageID: "images/" + username + ".png"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func seedVideo(t *testing.T, repo *repositories.PostgresVideoRepository, ownerID, title string, published bool) models.Video {
	t.Helper()
	now := time.Now().UTC()
	video := models.Video{
		ID:          uuid.NewString(),
		VideoFile:   models.MediaAsset{URL: "https://media.test/v.mp4", StorageID: "videos/v.mp4"},
		Thumbnail:   models.MediaAsset{URL: "https://media.test/t.png", StorageID: "thumbnails/t.png"},
		Title:       title,
		Description: title + " description",
		Duration:    30,
		IsPublished: published,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}

func bumpViews(t *testing.T, repo *repositories.PostgresVideoRepository, videoID string, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		if err := repo.IncrementViews(context.Background(), videoID); err != nil {
			t.Fatalf("increment views: %v", err)
		}
	}
}
