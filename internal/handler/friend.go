package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/josh-kwaku/khata/internal/domain"
	"github.com/josh-kwaku/khata/internal/ledger"
	"github.com/josh-kwaku/khata/internal/logging"
)

const maxNameLen = 100

type friendService interface {
	AddFriend(ctx context.Context, req ledger.NewFriend) (*domain.Friend, error)
	ListFriends(ctx context.Context) ([]domain.Friend, error)
	DeleteFriend(ctx context.Context, id int64) error
	Summaries(ctx context.Context, friendID *int64) ([]domain.FriendSummary, error)
}

type FriendHandler struct {
	friends friendService
}

func NewFriendHandler(friends friendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

type createFriendRequest struct {
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

func (r createFriendRequest) Validate() []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(r.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	} else if len([]rune(name)) > maxNameLen {
		errs = append(errs, FieldError{Field: "name", Message: "must be at most 100 characters"})
	}

	if r.AvatarURL != nil && *r.AvatarURL != "" {
		u, err := url.ParseRequestURI(*r.AvatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, FieldError{Field: "avatar_url", Message: "must be an http or https URL"})
		}
	}

	return errs
}

func (h *FriendHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	avatar := req.AvatarURL
	if avatar != nil && *avatar == "" {
		avatar = nil
	}

	friend, err := h.friends.AddFriend(r.Context(), ledger.NewFriend{Name: req.Name, AvatarURL: avatar})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to add friend", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toFriendDTO(friend))
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friends.ListFriends(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list friends", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]friendDTO, len(friends))
	for i := range friends {
		dtos[i] = toFriendDTO(&friends[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *FriendHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.friends.DeleteFriend(r.Context(), id); err != nil {
		logging.FromContext(r.Context()).Error("failed to delete friend", "error", err, "friend_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]int64{"deleted_id": id})
}

func (h *FriendHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	summaries, err := h.friends.Summaries(r.Context(), &id)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load friend summary", "error", err, "friend_id", id)
		RespondDomainError(w, err)
		return
	}
	if len(summaries) == 0 {
		RespondAppError(w, ErrFriendNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, toSummaryDTO(summaries[0]))
}

func (h *FriendHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.friends.Summaries(r.Context(), nil)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load summaries", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]summaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toSummaryDTO(s)
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
