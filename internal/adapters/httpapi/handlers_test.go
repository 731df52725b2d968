package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubnet/internal/domain"
	"clubnet/internal/usecase/directory"
	"clubnet/internal/usecase/engagement"
	"clubnet/internal/usecase/feed"
	"clubnet/internal/usecase/notifications"
	"clubnet/internal/usecase/profiles"
	"clubnet/internal/usecase/stories"
)

// stubIdentity резолвит токен вида "token:<uuid>" в идентификатор пользователя.
type stubIdentity struct{}

func (stubIdentity) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return uuid.Nil, fmt.Errorf("неизвестный токен")
	}
	return uuid.Parse(raw)
}

// memStore реализует все репозитории ядра в памяти.
type memStore struct {
	profiles      map[uuid.UUID]domain.Profile
	posts         map[uuid.UUID]domain.Post
	postOrder     []uuid.UUID
	likes         map[string]bool
	saves         map[string]bool
	counts        map[uuid.UUID]int
	stories       map[uuid.UUID]domain.Story
	notifications map[uuid.UUID]domain.Notification
}

func newMemStore() *memStore {
	return &memStore{
		profiles:      map[uuid.UUID]domain.Profile{},
		posts:         map[uuid.UUID]domain.Post{},
		likes:         map[string]bool{},
		saves:         map[string]bool{},
		counts:        map[uuid.UUID]int{},
		stories:       map[uuid.UUID]domain.Story{},
		notifications: map[uuid.UUID]domain.Notification{},
	}
}

func pairKey(userID, postID uuid.UUID) string {
	return userID.String() + "/" + postID.String()
}

func (m *memStore) CreateProfile(_ context.Context, p domain.Profile) (domain.Profile, error) {
	for _, existing := range m.profiles {
		if existing.Username == p.Username {
			return domain.Profile{}, fmt.Errorf("%w: profiles_username_key", domain.ErrConflict)
		}
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.profiles[p.ID] = p
	return p, nil
}

func (m *memStore) GetProfile(_ context.Context, userID uuid.UUID) (domain.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memStore) GetProfileByUsername(_ context.Context, username string) (domain.Profile, error) {
	for _, p := range m.profiles {
		if p.Username == username {
			return p, nil
		}
	}
	return domain.Profile{}, domain.ErrNotFound
}

func (m *memStore) UpdateProfile(_ context.Context, userID uuid.UUID, update domain.ProfileUpdate) (domain.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	if update.FullName != nil {
		p.FullName = *update.FullName
	}
	if update.AvatarURL != nil {
		p.AvatarURL = *update.AvatarURL
	}
	m.profiles[userID] = p
	return p, nil
}

func (m *memStore) CreatePost(_ context.Context, post domain.Post) (domain.Post, error) {
	post.CreatedAt = time.Now()
	m.posts[post.ID] = post
	m.postOrder = append(m.postOrder, post.ID)
	return post, nil
}

func (m *memStore) GetPost(_ context.Context, postID uuid.UUID) (domain.Post, error) {
	post, ok := m.posts[postID]
	if !ok {
		return domain.Post{}, domain.ErrNotFound
	}
	post.Author = m.profiles[post.AuthorID]
	post.LikesCount = m.counts[postID]
	return post, nil
}

func (m *memStore) ListPosts(_ context.Context, limit, offset int) ([]domain.Post, error) {
	out := []domain.Post{}
	for i := len(m.postOrder) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		post, _ := m.GetPost(context.Background(), m.postOrder[i])
		out = append(out, post)
	}
	return out, nil
}

// DeletePost удаляет пост и каскадно все факты лайков и закладок по нему,
// как и постгресовый адаптер.
func (m *memStore) DeletePost(_ context.Context, postID uuid.UUID) error {
	if _, ok := m.posts[postID]; !ok {
		return domain.ErrNotFound
	}
	suffix := "/" + postID.String()
	for key := range m.likes {
		if strings.HasSuffix(key, suffix) {
			delete(m.likes, key)
		}
	}
	for key := range m.saves {
		if strings.HasSuffix(key, suffix) {
			delete(m.saves, key)
		}
	}
	delete(m.counts, postID)
	delete(m.posts, postID)
	return nil
}

func (m *memStore) LikePost(_ context.Context, userID, postID uuid.UUID) error {
	if _, ok := m.posts[postID]; !ok {
		return domain.ErrNotFound
	}
	if m.likes[pairKey(userID, postID)] {
		return fmt.Errorf("%w: likes_user_id_post_id_key", domain.ErrConflict)
	}
	m.likes[pairKey(userID, postID)] = true
	m.counts[postID]++
	return nil
}

func (m *memStore) UnlikePost(_ context.Context, userID, postID uuid.UUID) error {
	if !m.likes[pairKey(userID, postID)] {
		return domain.ErrNotFound
	}
	delete(m.likes, pairKey(userID, postID))
	if m.counts[postID] > 0 {
		m.counts[postID]--
	}
	return nil
}

func (m *memStore) IsLiked(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	return m.likes[pairKey(userID, postID)], nil
}

func (m *memStore) SavePost(_ context.Context, userID, postID uuid.UUID) error {
	if m.saves[pairKey(userID, postID)] {
		return fmt.Errorf("%w: saved_posts_pkey", domain.ErrConflict)
	}
	m.saves[pairKey(userID, postID)] = true
	return nil
}

func (m *memStore) UnsavePost(_ context.Context, userID, postID uuid.UUID) error {
	if !m.saves[pairKey(userID, postID)] {
		return domain.ErrNotFound
	}
	delete(m.saves, pairKey(userID, postID))
	return nil
}

func (m *memStore) IsSaved(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	return m.saves[pairKey(userID, postID)], nil
}

func (m *memStore) ListSavedPosts(_ context.Context, userID uuid.UUID) ([]domain.Post, error) {
	out := []domain.Post{}
	for i := len(m.postOrder) - 1; i >= 0; i-- {
		if m.saves[pairKey(userID, m.postOrder[i])] {
			post, _ := m.GetPost(context.Background(), m.postOrder[i])
			out = append(out, post)
		}
	}
	return out, nil
}

func (m *memStore) CreateStory(_ context.Context, story domain.Story) (domain.Story, error) {
	story.CreatedAt = time.Now()
	m.stories[story.ID] = story
	return story, nil
}

func (m *memStore) GetStory(_ context.Context, storyID uuid.UUID) (domain.Story, error) {
	story, ok := m.stories[storyID]
	if !ok {
		return domain.Story{}, domain.ErrNotFound
	}
	return story, nil
}

func (m *memStore) ListActiveStories(_ context.Context, now time.Time) ([]domain.Story, error) {
	out := []domain.Story{}
	for _, story := range m.stories {
		if story.Active(now) {
			out = append(out, story)
		}
	}
	return out, nil
}

func (m *memStore) ListUserStories(_ context.Context, userID uuid.UUID, now time.Time) ([]domain.Story, error) {
	out := []domain.Story{}
	for _, story := range m.stories {
		if story.AuthorID == userID && story.Active(now) {
			out = append(out, story)
		}
	}
	return out, nil
}

func (m *memStore) DeleteStory(_ context.Context, storyID uuid.UUID) error {
	if _, ok := m.stories[storyID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.stories, storyID)
	return nil
}

func (m *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, story := range m.stories {
		if !story.Active(now) {
			delete(m.stories, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) CreateNotification(_ context.Context, n domain.Notification) (domain.Notification, error) {
	n.CreatedAt = time.Now()
	m.notifications[n.ID] = n
	return n, nil
}

func (m *memStore) ListNotifications(_ context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	out := []domain.Notification{}
	for _, n := range m.notifications {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkRead(_ context.Context, notificationID uuid.UUID) error {
	n, ok := m.notifications[notificationID]
	if !ok {
		return domain.ErrNotFound
	}
	n.IsRead = true
	m.notifications[notificationID] = n
	return nil
}

func (m *memStore) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	var affected int64
	for id, n := range m.notifications {
		if n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			m.notifications[id] = n
			affected++
		}
	}
	return affected, nil
}

func (m *memStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memStore) ListDistricts(context.Context) ([]domain.District, error) { return nil, nil }
func (m *memStore) GetDistrict(context.Context, uuid.UUID) (domain.District, error) {
	return domain.District{}, domain.ErrNotFound
}
func (m *memStore) SearchDistricts(context.Context, string) ([]domain.District, error) {
	return nil, nil
}
func (m *memStore) ListClubs(context.Context) ([]domain.Club, error) { return nil, nil }
func (m *memStore) ListClubsByDistrict(context.Context, uuid.UUID) ([]domain.Club, error) {
	return nil, nil
}
func (m *memStore) GetClub(context.Context, uuid.UUID) (domain.Club, error) {
	return domain.Club{}, domain.ErrNotFound
}
func (m *memStore) SearchClubs(context.Context, string) ([]domain.Club, error) { return nil, nil }

func newTestRouter(store *memStore) chi.Router {
	logger := zerolog.Nop()
	handler := NewHandler(
		profiles.NewService(store),
		feed.NewService(store, store, 20, 100),
		engagement.NewService(store, store, nil, logger),
		stories.NewService(store, 24*time.Hour),
		notifications.NewService(store, nil),
		directory.NewService(store),
		logger,
	)
	router := chi.NewRouter()
	handler.Register(router, stubIdentity{})
	return router
}

func doRequest(t *testing.T, router chi.Router, method, target string, userID uuid.UUID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer token:"+userID.String())
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRequireToken(t *testing.T) {
	router := newTestRouter(newMemStore())

	rec := doRequest(t, router, http.MethodGet, "/api/v1/posts", uuid.Nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ожидали 401, получили %d", rec.Code)
	}
}

func TestCreateAndLikePostFlow(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store)
	alice, bob := uuid.New(), uuid.New()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/profiles", alice, `{"username":"alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, router, http.MethodPost, "/api/v1/profiles", bob, `{"username":"bob"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/posts", alice, `{"content":"привет"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	var created postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created.Author.Username != "alice" {
		t.Fatalf("ожидали автора alice, получили %s", created.Author.Username)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/posts/"+created.ID.String()+"/like", bob, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/posts/"+created.ID.String()+"/like", bob, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("повторный лайк должен давать 409, получили %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/posts/"+created.ID.String(), bob, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var got postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.LikesCount != 1 {
		t.Fatalf("ожидали счётчик 1, получили %d", got.LikesCount)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/posts/"+created.ID.String()+"/like", alice, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("снятие чужого лайка должно давать 404, получили %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/posts/"+created.ID.String(), bob, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("удаление чужого поста должно давать 403, получили %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodDelete, "/api/v1/posts/"+created.ID.String(), alice, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d", rec.Code)
	}
}

func TestDeletePostCascadesFacts(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store)
	alice, bob := uuid.New(), uuid.New()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/profiles", alice, `{"username":"alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, router, http.MethodPost, "/api/v1/posts", alice, `{"content":"пост"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	var created postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/posts/"+created.ID.String()+"/like", bob, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, router, http.MethodPost, "/api/v1/posts/"+created.ID.String()+"/save", bob, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/saved-posts", bob, "")
	var saved []postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("ожидали 1 закладку, получили %d", len(saved))
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/posts/"+created.ID.String(), alice, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/saved-posts", bob, "")
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("после удаления поста закладок быть не должно, получили %d", len(saved))
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/posts/"+created.ID.String()+"/like", bob, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var liked map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &liked); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if liked["liked"] {
		t.Fatalf("факт лайка должен исчезнуть вместе с постом")
	}
}

func TestCreatePostInvalidBody(t *testing.T) {
	router := newTestRouter(newMemStore())
	alice := uuid.New()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/posts", alice, "{не json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ожидали 400, получили %d", rec.Code)
	}
}

func TestStoriesEndpoints(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store)
	alice := uuid.New()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/stories", alice, `{"media_url":"https://cdn.example/1.jpg"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d: %s", rec.Code, rec.Body.String())
	}
	var created storyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/stories", alice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var active []storyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &active); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("ожидали 1 историю, получили %d", len(active))
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/stories/"+created.ID.String(), uuid.New(), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("удаление чужой истории должно давать 403, получили %d", rec.Code)
	}
}

func TestNotificationsEndpoints(t *testing.T) {
	store := newMemStore()
	router := newTestRouter(store)
	alice := uuid.New()

	if _, err := notifications.NewService(store, nil).Create(context.Background(), alice, "Новый лайк", "", domain.NotificationTypeLike); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/notifications/unread-count", alice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var count map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if count["unread_count"] != 1 {
		t.Fatalf("ожидали 1 непрочитанное, получили %d", count["unread_count"])
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/notifications/read-all", alice, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/notifications/unread-count", alice, "")
	_ = json.Unmarshal(rec.Body.Bytes(), &count)
	if count["unread_count"] != 0 {
		t.Fatalf("после отметки непрочитанных быть не должно, получили %d", count["unread_count"])
	}
}
