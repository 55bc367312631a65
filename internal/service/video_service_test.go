package service_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/logging"
	"github.com/dom/watchnest/internal/media"
	"github.com/dom/watchnest/internal/repository"
	"github.com/dom/watchnest/internal/repository/postgres"
	"github.com/dom/watchnest/internal/service"
	"github.com/dom/watchnest/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type videoFixture struct {
	testDB   *testutil.TestDB
	repos    *repository.Repositories
	videos   *service.VideoService
	users    *service.UserService
	comments *service.CommentService
	notifier *recordingNotifier
}

func newVideoFixture(t *testing.T) *videoFixture {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	uploader, err := media.NewDiskUploader(t.TempDir(), "http://localhost:8000/static", logging.Discard())
	require.NoError(t, err)
	notifier := &recordingNotifier{}

	return &videoFixture{
		testDB:   testDB,
		repos:    repos,
		videos:   service.NewVideoService(repos.Video, repos.Comment, repos.User, uploader, logging.Discard()),
		users:    service.NewUserService(repos.User, repos.Video, repos.Subscription, uploader),
		comments: service.NewCommentService(repos.Comment, repos.Video, notifier),
		notifier: notifier,
	}
}

func tempUpload(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))
	return path
}

func TestVideoService_Publish(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()
	owner, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	hidden := false

	tests := []struct {
		name          string
		input         func() service.PublishInput
		wantErr       error
		wantPublished bool
	}{
		{
			name: "published by default",
			input: func() service.PublishInput {
				return service.PublishInput{
					Title:         " My first video ",
					Description:   "About things",
					VideoPath:     tempUpload(t, "clip.mp4"),
					ThumbnailPath: tempUpload(t, "thumb.png"),
					Duration:      12.5,
				}
			},
			wantPublished: true,
		},
		{
			name: "unpublished on request",
			input: func() service.PublishInput {
				return service.PublishInput{
					Title:       "Draft",
					Description: "Not yet",
					VideoPath:   tempUpload(t, "clip.mp4"),
					IsPublished: &hidden,
				}
			},
			wantPublished: false,
		},
		{
			name: "missing title",
			input: func() service.PublishInput {
				return service.PublishInput{Description: "x", VideoPath: tempUpload(t, "clip.mp4")}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "missing file",
			input: func() service.PublishInput {
				return service.PublishInput{Title: "x", Description: "x"}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "NaN duration",
			input: func() service.PublishInput {
				return service.PublishInput{Title: "x", Description: "x", VideoPath: tempUpload(t, "clip.mp4"), Duration: math.NaN()}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "infinite duration",
			input: func() service.PublishInput {
				return service.PublishInput{Title: "x", Description: "x", VideoPath: tempUpload(t, "clip.mp4"), Duration: math.Inf(1)}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "negative duration",
			input: func() service.PublishInput {
				return service.PublishInput{Title: "x", Description: "x", VideoPath: tempUpload(t, "clip.mp4"), Duration: -1}
			},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video, err := f.videos.Publish(ctx, owner.ID, tt.input())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, owner.ID, video.OwnerID)
			require.NotNil(t, video.Owner)
			assert.Equal(t, owner.Username, video.Owner.Username)
			assert.Equal(t, tt.wantPublished, video.IsPublished)
			assert.Contains(t, video.VideoFile, "/static/media/")
			assert.Zero(t, video.Views)
		})
	}
}

func TestVideoService_Ownership(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	bob, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	video := testutil.NewVideoBuilder().WithOwner(alice).Build(t, f.testDB.DB)
	id := video.ID.String()

	_, err := f.videos.Update(ctx, id, bob.ID, service.UpdateVideoInput{Title: "hijack", Description: "x"})
	require.ErrorIs(t, err, domain.ErrForbidden)
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, "You can only update your own videos", msg)

	_, err = f.videos.TogglePublish(ctx, id, bob.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	err = f.videos.Delete(ctx, id, bob.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
	msg, _ = domain.PublicMessage(err)
	assert.Equal(t, "You can only delete your own videos", msg)

	unchanged, err := f.videos.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, video.Title, unchanged.Title)

	updated, err := f.videos.Update(ctx, id, alice.ID, service.UpdateVideoInput{Title: "Renamed", Description: "New text"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	toggled, err := f.videos.TogglePublish(ctx, id, alice.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublished)

	testutil.NewCommentBuilder().WithVideo(video).Build(t, f.testDB.DB)
	require.NoError(t, f.videos.Delete(ctx, id, alice.ID))

	_, err = f.videos.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, total, err := f.repos.Comment.ListByVideo(ctx, video.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total, "comments go with their video")
}

func TestVideoService_List(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	base := time.Now().Add(-time.Hour)
	testutil.NewVideoBuilder().WithOwner(owner).WithTitle("Go concurrency").WithViews(5).CreatedAt(base).Build(t, f.testDB.DB)
	testutil.NewVideoBuilder().WithOwner(owner).WithTitle("Rust ownership").WithViews(50).CreatedAt(base.Add(time.Minute)).Build(t, f.testDB.DB)
	testutil.NewVideoBuilder().WithOwner(owner).WithTitle("GO generics").WithViews(20).CreatedAt(base.Add(2*time.Minute)).Build(t, f.testDB.DB)
	testutil.NewVideoBuilder().WithOwner(owner).WithTitle("Go secrets").Unpublished().Build(t, f.testDB.DB)

	tests := []struct {
		name       string
		input      service.ListVideosInput
		wantTitles []string
		wantTotal  int64
		wantErr    error
	}{
		{
			name:       "newest first by default",
			input:      service.ListVideosInput{},
			wantTitles: []string{"GO generics", "Rust ownership", "Go concurrency"},
			wantTotal:  3,
		},
		{
			name:       "query is case-insensitive and hides unpublished",
			input:      service.ListVideosInput{Query: "go", SortBy: "views", SortType: "asc"},
			wantTitles: []string{"Go concurrency", "GO generics"},
			wantTotal:  2,
		},
		{
			name:       "paged",
			input:      service.ListVideosInput{Page: service.Page{Page: 2, Limit: 2}, SortBy: "views"},
			wantTitles: []string{"Go concurrency"},
			wantTotal:  3,
		},
		{
			name:    "unknown sort field",
			input:   service.ListVideosInput{SortBy: "password"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown sort type",
			input:   service.ListVideosInput{SortType: "sideways"},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.videos.List(ctx, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			titles := make([]string, 0, len(page.Items))
			for _, v := range page.Items {
				titles = append(titles, v.Title)
				require.NotNil(t, v.Owner)
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}

	mine, err := f.videos.ListByOwner(ctx, owner.ID, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), mine.Total, "owners see their unpublished videos")
}

func TestVideoService_RecordView(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()

	viewer, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	first := testutil.NewVideoBuilder().Build(t, f.testDB.DB)
	second := testutil.NewVideoBuilder().Build(t, f.testDB.DB)

	v, err := f.videos.RecordView(ctx, first.ID.String(), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Views)

	_, err = f.videos.RecordView(ctx, first.ID.String(), viewer.ID)
	require.NoError(t, err)
	_, err = f.videos.RecordView(ctx, second.ID.String(), viewer.ID)
	require.NoError(t, err)

	history, err := f.users.GetWatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
	assert.Equal(t, int64(2), history[0].Views)

	_, err = f.videos.RecordView(ctx, uuid.NewString(), viewer.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommentService(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()

	creator, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	fan, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	video := testutil.NewVideoBuilder().WithOwner(creator).Build(t, f.testDB.DB)
	vid := video.ID.String()

	_, err := f.comments.Add(ctx, vid, fan.ID, "   ")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.comments.Add(ctx, uuid.NewString(), fan.ID, "hello")
	require.ErrorIs(t, err, domain.ErrNotFound)

	comment, err := f.comments.Add(ctx, vid, fan.ID, " Great video! ")
	require.NoError(t, err)
	assert.Equal(t, "Great video!", comment.Content)
	require.NotNil(t, comment.Owner)
	assert.Equal(t, fan.Username, comment.Owner.Username)

	_, err = f.comments.Add(ctx, vid, creator.ID, "Thanks")
	require.NoError(t, err)

	assert.Equal(t, []notification{{userID: creator.ID, event: service.EventCommentAdded}}, f.notifier.all(),
		"only comments from other users notify the creator")

	page, err := f.comments.ListForVideo(ctx, vid, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	_, err = f.comments.Update(ctx, comment.ID.String(), creator.ID, "edited")
	require.ErrorIs(t, err, domain.ErrForbidden)
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, "You can only update your own comments", msg)

	err = f.comments.Delete(ctx, comment.ID.String(), creator.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := f.comments.Update(ctx, comment.ID.String(), fan.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, f.comments.Delete(ctx, comment.ID.String(), fan.ID))
	err = f.comments.Delete(ctx, comment.ID.String(), fan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_ChannelProfile(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()

	channel, _ := testutil.NewUserBuilder().WithUsername("studio").Build(t, f.testDB.DB)
	fan, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	stranger, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	testutil.Subscribe(t, f.testDB.DB, fan, channel)
	testutil.Subscribe(t, f.testDB.DB, channel, stranger)

	profile, err := f.users.GetChannelProfile(ctx, " Studio ", fan.ID)
	require.NoError(t, err)
	assert.Equal(t, channel.ID, profile.User.ID)
	assert.Equal(t, int64(1), profile.SubscribersCount)
	assert.Equal(t, int64(1), profile.SubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	anon, err := f.users.GetChannelProfile(ctx, "studio", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)

	_, err = f.users.GetChannelProfile(ctx, "nobody", uuid.Nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, "Channel does not exist", msg)
}

func TestUserService_UpdateAccount(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, f.testDB.DB)
	testutil.NewUserBuilder().WithEmail("used@example.com").Build(t, f.testDB.DB)

	name := "Renamed User"
	email := "Fresh@Example.com"
	updated, err := f.users.UpdateAccount(ctx, user.ID, service.UpdateAccountInput{FullName: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)
	assert.Equal(t, "fresh@example.com", updated.Email)

	taken := "used@example.com"
	_, err = f.users.UpdateAccount(ctx, user.ID, service.UpdateAccountInput{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)

	bad := "not-an-email"
	_, err = f.users.UpdateAccount(ctx, user.ID, service.UpdateAccountInput{Email: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	avatarUser, err := f.users.UpdateAvatar(ctx, user.ID, tempUpload(t, "face.png"))
	require.NoError(t, err)
	assert.Contains(t, avatarUser.Avatar, "/static/media/")
}
