package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"creator-marketplace-service/internal/http/middleware"
	"creator-marketplace-service/internal/http/response"
	"creator-marketplace-service/internal/observability"
	"creator-marketplace-service/internal/repository"
	"creator-marketplace-service/internal/service"
)

type UserHandler struct {
	users    repository.UserRepository
	sessions service.SessionServiceInterface
	storage  service.StorageService
	logger   *slog.Logger
}

func NewUserHandler(users repository.UserRepository, sessions service.SessionServiceInterface, storage service.StorageService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, storage: storage, logger: logger}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required", nil)
		return
	}

	payload := map[string]interface{}{"user": identity.User}
	if identity.User.AvatarKey != "" && h.storage != nil {
		if url, err := h.storage.AvatarURL(r.Context(), identity.User.AvatarKey); err == nil {
			payload["avatar_url"] = url
		} else {
			h.logger.WarnContext(r.Context(), "presign avatar url", "user_id", identity.User.ID, "error", err)
		}
	}
	response.JSON(w, r, http.StatusOK, payload)
}

func (h *UserHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required", nil)
		return
	}

	views, err := h.sessions.ListActiveSessions(identity.User.ID, identity.Session.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list sessions", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"sessions": views})
}

// RevokeSession revokes one of the caller's own sessions by id. A
// session belonging to someone else is a 403 and stays untouched.
func (h *UserHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required", nil)
		return
	}

	sessionID, err := strconv.ParseUint(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid session id", nil)
		return
	}

	status, err := h.sessions.RevokeSession(identity.User.ID, uint(sessionID))
	if err != nil {
		switch {
		case service.IsNotFound(err):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "session not found", nil)
		case errors.Is(err, service.ErrSessionForbidden):
			response.Error(w, r, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "cannot revoke another user's session", nil)
		default:
			h.logger.ErrorContext(r.Context(), "revoke session", "error", err)
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		}
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "session.revoke",
		ActorUserID: observability.ActorUserID(identity.User.ID),
		TargetType:  "session",
		TargetID:    strconv.FormatUint(sessionID, 10),
		Action:      "revoke",
		Outcome:     status,
	})
	response.JSON(w, r, http.StatusOK, map[string]string{"status": status})
}

// UploadAvatar accepts a multipart upload under the "avatar" field,
// stores it and replaces any previous avatar object.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required", nil)
		return
	}
	if h.storage == nil {
		response.Error(w, r, http.StatusServiceUnavailable, "INTERNAL", "avatar storage is not configured", nil)
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form", nil)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "avatar file is required", nil)
		return
	}
	defer file.Close()

	key, err := h.storage.UploadAvatar(r.Context(), identity.User.ID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooBig), errors.Is(err, service.ErrInvalidFileType):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			h.logger.ErrorContext(r.Context(), "upload avatar", "error", err)
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		}
		return
	}

	oldKey := identity.User.AvatarKey
	if err := h.users.UpdateAvatarKey(identity.User.ID, key); err != nil {
		h.logger.ErrorContext(r.Context(), "persist avatar key", "error", err)
		if delErr := h.storage.DeleteAvatar(r.Context(), key); delErr != nil {
			h.logger.WarnContext(r.Context(), "clean up orphaned avatar", "key", key, "error", delErr)
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	if oldKey != "" {
		if err := h.storage.DeleteAvatar(r.Context(), oldKey); err != nil {
			h.logger.WarnContext(r.Context(), "delete previous avatar", "key", oldKey, "error", err)
		}
	}

	url, err := h.storage.AvatarURL(r.Context(), key)
	if err != nil {
		h.logger.WarnContext(r.Context(), "presign avatar url", "key", key, "error", err)
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"avatar_key": key, "avatar_url": url})
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required", nil)
		return
	}
	if identity.User.AvatarKey == "" {
		response.JSON(w, r, http.StatusOK, map[string]string{"message": "no avatar set"})
		return
	}

	if h.storage != nil {
		if err := h.storage.DeleteAvatar(r.Context(), identity.User.AvatarKey); err != nil {
			h.logger.WarnContext(r.Context(), "delete avatar object", "error", err)
		}
	}
	if err := h.users.UpdateAvatarKey(identity.User.ID, ""); err != nil {
		h.logger.ErrorContext(r.Context(), "clear avatar key", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "avatar removed"})
}

// AdminListUsers is admin-only; role enforcement happens in the router.
func (h *UserHandler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list users", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"users": users, "count": len(users)})
}
