package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clubnet/internal/domain"
	httpinfra "clubnet/internal/infra/http"
	"clubnet/internal/usecase/directory"
	"clubnet/internal/usecase/engagement"
	"clubnet/internal/usecase/feed"
	"clubnet/internal/usecase/notifications"
	"clubnet/internal/usecase/profiles"
	"clubnet/internal/usecase/stories"
)

// Handler привязывает HTTP маршруты к сервисам ядра.
type Handler struct {
	profiles      *profiles.Service
	feed          *feed.Service
	engagement    *engagement.Service
	stories       *stories.Service
	notifications *notifications.Service
	directory     *directory.Service
	log           zerolog.Logger
}

// NewHandler создаёт HTTP обработчик.
func NewHandler(
	profilesSvc *profiles.Service,
	feedSvc *feed.Service,
	engagementSvc *engagement.Service,
	storiesSvc *stories.Service,
	notificationsSvc *notifications.Service,
	directorySvc *directory.Service,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		profiles:      profilesSvc,
		feed:          feedSvc,
		engagement:    engagementSvc,
		stories:       storiesSvc,
		notifications: notificationsSvc,
		directory:     directorySvc,
		log:           logger,
	}
}

// Register вешает маршруты API на роутер; identity защищает все маршруты.
func (h *Handler) Register(r chi.Router, identity domain.Identity) {
	r.Group(func(protected chi.Router) {
		protected.Use(httpinfra.AuthMiddleware(identity))

		protected.Post("/api/v1/profiles", h.createProfile)
		protected.Get("/api/v1/profiles/me", h.getOwnProfile)
		protected.Patch("/api/v1/profiles/me", h.updateProfile)
		protected.Get("/api/v1/profiles/username/{username}", h.getProfileByUsername)
		protected.Get("/api/v1/profiles/{id}", h.getProfile)

		protected.Get("/api/v1/posts", h.listPosts)
		protected.Post("/api/v1/posts", h.createPost)
		protected.Get("/api/v1/posts/{id}", h.getPost)
		protected.Delete("/api/v1/posts/{id}", h.deletePost)

		protected.Post("/api/v1/posts/{id}/like", h.likePost)
		protected.Delete("/api/v1/posts/{id}/like", h.unlikePost)
		protected.Get("/api/v1/posts/{id}/like", h.isLiked)
		protected.Post("/api/v1/posts/{id}/save", h.savePost)
		protected.Delete("/api/v1/posts/{id}/save", h.unsavePost)
		protected.Get("/api/v1/posts/{id}/save", h.isSaved)
		protected.Get("/api/v1/saved-posts", h.listSavedPosts)

		protected.Get("/api/v1/stories", h.listActiveStories)
		protected.Post("/api/v1/stories", h.createStory)
		protected.Delete("/api/v1/stories/{id}", h.deleteStory)
		protected.Get("/api/v1/users/{id}/stories", h.listUserStories)

		protected.Get("/api/v1/notifications", h.listNotifications)
		protected.Get("/api/v1/notifications/unread-count", h.unreadCount)
		protected.Post("/api/v1/notifications/{id}/read", h.markRead)
		protected.Post("/api/v1/notifications/read-all", h.markAllRead)

		protected.Get("/api/v1/districts", h.listDistricts)
		protected.Get("/api/v1/districts/{id}", h.getDistrict)
		protected.Get("/api/v1/districts/{id}/clubs", h.listDistrictClubs)
		protected.Get("/api/v1/clubs", h.listClubs)
		protected.Get("/api/v1/clubs/{id}", h.getClub)
	})
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("некорректный идентификатор")
	}
	return id, nil
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	profile, err := h.profiles.Create(r.Context(), userID, req.Username, req.FullName)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (h *Handler) getOwnProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) getProfileByUsername(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	profile, err := h.profiles.Update(r.Context(), userID, userID, domain.ProfileUpdate{
		FullName:   req.FullName,
		AvatarURL:  req.AvatarURL,
		DistrictID: req.DistrictID,
	})
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	limit := h.feed.DefaultLimit()
	offset := 0
	var err error
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректный limit"))
			return
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректный offset"))
			return
		}
	}
	posts, err := h.feed.ListPosts(r.Context(), limit, offset)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toPostResponses(posts))
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	post, err := h.feed.CreatePost(r.Context(), userID, req.Content, req.MediaURL)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, toPostResponse(post))
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	post, err := h.feed.GetPost(r.Context(), id)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toPostResponse(post))
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.feed.DeletePost(r.Context(), id, userID); err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) engagementAction(w http.ResponseWriter, r *http.Request, action func(userID, postID uuid.UUID) error) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := action(userID, postID); err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) likePost(w http.ResponseWriter, r *http.Request) {
	h.engagementAction(w, r, func(userID, postID uuid.UUID) error {
		return h.engagement.Like(r.Context(), userID, postID)
	})
}

func (h *Handler) unlikePost(w http.ResponseWriter, r *http.Request) {
	h.engagementAction(w, r, func(userID, postID uuid.UUID) error {
		return h.engagement.Unlike(r.Context(), userID, postID)
	})
}

func (h *Handler) savePost(w http.ResponseWriter, r *http.Request) {
	h.engagementAction(w, r, func(userID, postID uuid.UUID) error {
		return h.engagement.Save(r.Context(), userID, postID)
	})
}

func (h *Handler) unsavePost(w http.ResponseWriter, r *http.Request) {
	h.engagementAction(w, r, func(userID, postID uuid.UUID) error {
		return h.engagement.Unsave(r.Context(), userID, postID)
	})
}

func (h *Handler) engagementCheck(w http.ResponseWriter, r *http.Request, field string, check func(userID, postID uuid.UUID) (bool, error)) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	exists, err := check(userID, postID)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]bool{field: exists})
}

func (h *Handler) isLiked(w http.ResponseWriter, r *http.Request) {
	h.engagementCheck(w, r, "liked", func(userID, postID uuid.UUID) (bool, error) {
		return h.engagement.IsLiked(r.Context(), userID, postID)
	})
}

func (h *Handler) isSaved(w http.ResponseWriter, r *http.Request) {
	h.engagementCheck(w, r, "saved", func(userID, postID uuid.UUID) (bool, error) {
		return h.engagement.IsSaved(r.Context(), userID, postID)
	})
}

func (h *Handler) listSavedPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	posts, err := h.engagement.SavedPosts(r.Context(), userID)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toPostResponses(posts))
}

func (h *Handler) listActiveStories(w http.ResponseWriter, r *http.Request) {
	list, err := h.stories.Active(r.Context())
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toStoryResponses(list))
}

func (h *Handler) createStory(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	var req createStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}
	story, err := h.stories.Create(r.Context(), userID, req.MediaURL)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, toStoryResponse(story))
}

func (h *Handler) deleteStory(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.stories.Delete(r.Context(), id, userID); err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUserStories(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.stories.ForUser(r.Context(), id)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toStoryResponses(list))
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	list, err := h.notifications.List(r.Context(), userID)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toNotificationResponses(list))
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := httpinfra.UserID(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	affected, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]int64{"affected": affected})
}

func (h *Handler) listDistricts(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.SearchDistricts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toDistrictResponses(list))
}

func (h *Handler) getDistrict(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	district, err := h.directory.District(r.Context(), id)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toDistrictResponse(district))
}

func (h *Handler) listDistrictClubs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.directory.ClubsByDistrict(r.Context(), id)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toClubResponses(list))
}

func (h *Handler) listClubs(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.SearchClubs(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toClubResponses(list))
}

func (h *Handler) getClub(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	club, err := h.directory.Club(r.Context(), id)
	if err != nil {
		httpinfra.WriteDomainError(w, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, toClubResponse(club))
}
