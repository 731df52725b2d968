package httpapi

import (
	"time"

	"github.com/google/uuid"

	"clubnet/internal/domain"
)

type createProfileRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type updateProfileRequest struct {
	FullName   *string    `json:"full_name"`
	AvatarURL  *string    `json:"avatar_url"`
	DistrictID *uuid.UUID `json:"district_id"`
}

type createPostRequest struct {
	Content  string `json:"content"`
	MediaURL string `json:"media_url"`
}

type createStoryRequest struct {
	MediaURL string `json:"media_url"`
}

type profileResponse struct {
	ID         uuid.UUID         `json:"id"`
	Username   string            `json:"username"`
	FullName   string            `json:"full_name"`
	AvatarURL  string            `json:"avatar_url,omitempty"`
	DistrictID *uuid.UUID        `json:"district_id,omitempty"`
	District   *districtResponse `json:"district,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type profileSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

type postResponse struct {
	ID         uuid.UUID      `json:"id"`
	AuthorID   uuid.UUID      `json:"user_id"`
	Author     profileSummary `json:"author"`
	Content    string         `json:"content"`
	MediaURL   string         `json:"media_url,omitempty"`
	LikesCount int            `json:"likes_count"`
	CreatedAt  time.Time      `json:"created_at"`
}

type storyResponse struct {
	ID        uuid.UUID      `json:"id"`
	AuthorID  uuid.UUID      `json:"user_id"`
	Author    profileSummary `json:"author"`
	MediaURL  string         `json:"media_url"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type notificationResponse struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Type        string    `json:"type"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type districtResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type clubResponse struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Location   string            `json:"location,omitempty"`
	DistrictID *uuid.UUID        `json:"district_id,omitempty"`
	District   *districtResponse `json:"district,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func toProfileResponse(p domain.Profile) profileResponse {
	resp := profileResponse{
		ID:         p.ID,
		Username:   p.Username,
		FullName:   p.FullName,
		AvatarURL:  p.AvatarURL,
		DistrictID: p.DistrictID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.District != nil {
		d := toDistrictResponse(*p.District)
		resp.District = &d
	}
	return resp
}

func toProfileSummary(p domain.Profile) profileSummary {
	return profileSummary{ID: p.ID, Username: p.Username, FullName: p.FullName, AvatarURL: p.AvatarURL}
}

func toPostResponse(p domain.Post) postResponse {
	return postResponse{
		ID:         p.ID,
		AuthorID:   p.AuthorID,
		Author:     toProfileSummary(p.Author),
		Content:    p.Content,
		MediaURL:   p.MediaURL,
		LikesCount: p.LikesCount,
		CreatedAt:  p.CreatedAt,
	}
}

func toPostResponses(posts []domain.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

func toStoryResponse(s domain.Story) storyResponse {
	return storyResponse{
		ID:        s.ID,
		AuthorID:  s.AuthorID,
		Author:    toProfileSummary(s.Author),
		MediaURL:  s.MediaURL,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func toStoryResponses(stories []domain.Story) []storyResponse {
	out := make([]storyResponse, 0, len(stories))
	for _, s := range stories {
		out = append(out, toStoryResponse(s))
	}
	return out
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Body:        n.Body,
		Type:        n.Type,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}

func toNotificationResponses(list []domain.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNotificationResponse(n))
	}
	return out
}

func toDistrictResponse(d domain.District) districtResponse {
	return districtResponse{ID: d.ID, Name: d.Name, Location: d.Location, CreatedAt: d.CreatedAt}
}

func toDistrictResponses(list []domain.District) []districtResponse {
	out := make([]districtResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDistrictResponse(d))
	}
	return out
}

func toClubResponse(c domain.Club) clubResponse {
	resp := clubResponse{ID: c.ID, Name: c.Name, Location: c.Location, DistrictID: c.DistrictID, CreatedAt: c.CreatedAt}
	if c.District != nil {
		d := toDistrictResponse(*c.District)
		resp.District = &d
	}
	return resp
}

func toClubResponses(list []domain.Club) []clubResponse {
	out := make([]clubResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toClubResponse(c))
	}
	return out
}
