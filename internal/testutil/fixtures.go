package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	fullName string
	password string
}

// NewUserBuilder creates a new UserBuilder with unique defaults
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: "user_" + suffix,
		email:    "user_" + suffix + "@example.com",
		fullName: "Test User " + suffix,
		password: "testpassword123",
	}
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithFullName(name string) *UserBuilder {
	b.fullName = name
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		Email:        b.email,
		FullName:     b.fullName,
		PasswordHash: string(hashedPassword),
		Avatar:       "https://example.com/avatar.png",
		WatchHistory: []uuid.UUID{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// Session is a logged-in API user
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	Cookies      []*http.Cookie
}

// BuildAndAuthenticate registers the user over the API, then logs in
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) *Session {
	t.Helper()

	resp := DoJSON(t, http.MethodPost, ts.APIURL("/users/register"), map[string]string{
		"fullName": b.fullName,
		"email":    b.email,
		"username": b.username,
		"password": b.password,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status code: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = DoJSON(t, http.MethodPost, ts.APIURL("/users/login"), map[string]string{
		"username": b.username,
		"password": b.password,
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	var login struct {
		User         *domain.User `json:"user"`
		AccessToken  string       `json:"accessToken"`
		RefreshToken string       `json:"refreshToken"`
	}
	DecodeData(t, resp, &login)

	return &Session{
		User:         login.User,
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
		Cookies:      resp.Cookies(),
	}
}

// VideoBuilder creates test videos
type VideoBuilder struct {
	owner       *domain.User
	title       string
	description string
	duration    float64
	views       int64
	published   bool
	createdAt   time.Time
}

func NewVideoBuilder() *VideoBuilder {
	return &VideoBuilder{
		title:       fmt.Sprintf("Video %s", uuid.New().String()[:8]),
		description: "A test video",
		duration:    42.5,
		published:   true,
		createdAt:   time.Now(),
	}
}

func (b *VideoBuilder) WithOwner(user *domain.User) *VideoBuilder {
	b.owner = user
	return b
}

func (b *VideoBuilder) WithTitle(title string) *VideoBuilder {
	b.title = title
	return b
}

func (b *VideoBuilder) WithViews(views int64) *VideoBuilder {
	b.views = views
	return b
}

func (b *VideoBuilder) WithDuration(duration float64) *VideoBuilder {
	b.duration = duration
	return b
}

func (b *VideoBuilder) Unpublished() *VideoBuilder {
	b.published = false
	return b
}

func (b *VideoBuilder) CreatedAt(at time.Time) *VideoBuilder {
	b.createdAt = at
	return b
}

// Build creates the video, creating an owner first when none was given
func (b *VideoBuilder) Build(t *testing.T, db *gorm.DB) *domain.Video {
	t.Helper()

	if b.owner == nil {
		b.owner, _ = NewUserBuilder().Build(t, db)
	}

	video := &domain.Video{
		ID:          uuid.New(),
		Title:       b.title,
		Description: b.description,
		VideoFile:   "https://cdn.example.com/" + uuid.New().String() + ".mp4",
		Duration:    b.duration,
		Views:       b.views,
		IsPublished: b.published,
		OwnerID:     b.owner.ID,
		CreatedAt:   b.createdAt,
		UpdatedAt:   b.createdAt,
	}

	if err := db.Create(video).Error; err != nil {
		t.Fatalf("failed to create video: %v", err)
	}

	return video
}

// CommentBuilder creates test comments
type CommentBuilder struct {
	owner   *domain.User
	video   *domain.Video
	content string
}

func NewCommentBuilder() *CommentBuilder {
	return &CommentBuilder{content: "Nice video"}
}

func (b *CommentBuilder) WithOwner(user *domain.User) *CommentBuilder {
	b.owner = user
	return b
}

func (b *CommentBuilder) WithVideo(video *domain.Video) *CommentBuilder {
	b.video = video
	return b
}

func (b *CommentBuilder) WithContent(content string) *CommentBuilder {
	b.content = content
	return b
}

func (b *CommentBuilder) Build(t *testing.T, db *gorm.DB) *domain.Comment {
	t.Helper()

	if b.video == nil {
		b.video = NewVideoBuilder().Build(t, db)
	}
	if b.owner == nil {
		b.owner, _ = NewUserBuilder().Build(t, db)
	}

	comment := &domain.Comment{
		ID:      uuid.New(),
		Content: b.content,
		VideoID: b.video.ID,
		OwnerID: b.owner.ID,
	}

	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}

	return comment
}

// Subscribe stores a subscription edge directly
func Subscribe(t *testing.T, db *gorm.DB, subscriber, channel *domain.User) {
	t.Helper()

	sub := &domain.Subscription{
		ID:           uuid.New(),
		SubscriberID: subscriber.ID,
		ChannelID:    channel.ID,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create subscription: %v", err)
	}
}

// CreateAuthenticatedRequest creates a JSON request with a Bearer token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body any, token string) *http.Request {
	t.Helper()

	bodyReader := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// DoJSON sends a JSON request and returns the response. The caller closes
// the body.
func DoJSON(t *testing.T, method, url string, body any, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, url, body, token))
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

// Minimal file headers that http.DetectContentType recognises.
var (
	PNGHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	MP4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
)

// FormFile is one file part of a multipart request.
type FormFile struct {
	Field   string
	Name    string
	Content []byte
}

// DoMultipart sends fields and files as multipart/form-data. The caller
// closes the body.
func DoMultipart(t *testing.T, method, url string, fields map[string]string, files []FormFile, token string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Name)
		if err != nil {
			t.Fatalf("failed to create part %s: %v", f.Field, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			t.Fatalf("failed to write part %s: %v", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, &body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}
