package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"chatrooms-service/internal/models"
	"chatrooms-service/internal/repositories"
	"chatrooms-service/internal/services"
)

const (
	minTitleLen = 3
	maxTitleLen = 45

	defaultLastCount = 50
	maxLastCount     = 500
)

// ChatHandler manages the chat REST endpoints.
type ChatHandler struct {
	chatRepo repositories.ChatRepository
	guard    services.MembershipGuard
	history  services.MessageHistoryService
	pipeline services.BroadcastPipeline
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, guard services.MembershipGuard, history services.MessageHistoryService, pipeline services.BroadcastPipeline) *ChatHandler {
	return &ChatHandler{
		chatRepo: chatRepo,
		guard:    guard,
		history:  history,
		pipeline: pipeline,
	}
}

// ListChats returns chat previews for the authenticated user. Admins see
// every chat; regular users only chats they belong to.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")
	role := c.GetString("userRole")

	var (
		chats []models.ChatPreview
		err   error
	)
	if role == models.RoleAdmin {
		chats, err = h.chatRepo.ListAllChats(c.Request.Context())
	} else {
		chats, err = h.chatRepo.ListChatsForUser(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	if chats == nil {
		chats = []models.ChatPreview{}
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChatDetails returns a chat with its member list. Admins bypass the
// membership check for this metadata read.
func (h *ChatHandler) GetChatDetails(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	role := c.GetString("userRole")

	if role != models.RoleAdmin {
		if err := h.guard.CheckAccess(c.Request.Context(), chatID, userID); err != nil {
			respondGuardError(c, err)
			return
		}
	}

	details, err := h.chatRepo.GetChatDetails(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}

	c.JSON(http.StatusOK, details)
}

// CreateChat creates a chat with the given title and members.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required"`
		MemberIDs []int  `json:"member_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if n := utf8.RuneCountInString(req.Title); n < minTitleLen || n > maxTitleLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title must be 3-45 characters"})
		return
	}

	distinct := make([]int, 0, len(req.MemberIDs))
	seen := map[int]struct{}{}
	for _, id := range req.MemberIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			distinct = append(distinct, id)
		}
	}
	if len(distinct) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least 2 distinct members required"})
		return
	}

	details, err := h.chatRepo.CreateChat(c.Request.Context(), req.Title, distinct)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "some members are not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusCreated, details)
}

// GetMessages returns messages in a time range, ascending. No admin bypass:
// message reads are always membership-scoped.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	after, err := time.Parse(time.RFC3339, c.Query("after"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after timestamp"})
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before timestamp"})
			return
		}
		before = &parsed
	}

	userID := c.GetInt("userID")
	msgs, err := h.history.GetMessages(c.Request.Context(), chatID, userID, after, before)
	if err != nil {
		respondHistoryError(c, err)
		return
	}

	if msgs == nil {
		msgs = []models.MessageView{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetLastMessages returns the trailing count messages, ascending.
func (h *ChatHandler) GetLastMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	count := defaultLastCount
	if raw := c.Query("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > maxLastCount {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
	}

	userID := c.GetInt("userID")
	msgs, err := h.history.GetLastMessages(c.Request.Context(), chatID, userID, count)
	if err != nil {
		respondHistoryError(c, err)
		return
	}

	if msgs == nil {
		msgs = []models.MessageView{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message through the broadcast pipeline and fans it out
// to the chat's live room.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	view, err := h.pipeline.HandleInbound(c.Request.Context(), chatID, userID, req.Content, nil)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		case errors.Is(err, services.ErrInvalidContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "content must be 1-1024 characters"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	c.JSON(http.StatusCreated, view)
}

func respondGuardError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
}

func respondHistoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
	case errors.Is(err, services.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message range"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
	}
}
