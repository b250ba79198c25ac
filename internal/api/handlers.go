package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/service"
)

// Chat accepts multipart uploads (message plus file<N> parts) or JSON.
func (h *Handler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
			return
		}
		atts, err := attachmentsFromForm(form)
		if err != nil {
			abortWithError(c, err)
			return
		}
		req = service.ChatRequest{
			SessionID:   formValue(form, "session_id"),
			UserID:      formValue(form, "user_id"),
			Message:     formValue(form, "message"),
			Attachments: atts,
			FetchCases:  formBool(form, "fetchCases"),
			FetchNews:   formBool(form, "fetchNews"),
			Summarize:   formBool(form, "summarize"),
		}
	} else {
		var body chatJSONRequest
		if err := bindOptionalJSON(c, &body); err != nil {
			abortWithError(c, err)
			return
		}
		req = service.ChatRequest{
			SessionID:  body.SessionID,
			UserID:     body.UserID,
			Message:    body.Message,
			FetchCases: body.FetchCases,
			FetchNews:  body.FetchNews,
			Summarize:  body.Summarize,
		}
	}

	res, err := h.chat.Send(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{
		SessionID:         res.SessionID,
		Response:          res.Response,
		History:           toTurnDTOs(res.History),
		AdditionalContext: res.Context,
	})
}

func (h *Handler) AnalyzeImage(c *gin.Context) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		abortWithError(c, fmt.Errorf("%w: request must be multipart/form-data", domain.ErrInvalidInput))
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: no image file uploaded", domain.ErrMissingFile))
		return
	}
	att, err := readAttachment(fh)
	if err != nil {
		abortWithError(c, err)
		return
	}
	mode, ok := domain.ParseAnalysisMode(c.PostForm("analysisMode"))
	if !ok {
		abortWithError(c, fmt.Errorf("%w: unknown analysisMode", domain.ErrInvalidInput))
		return
	}
	att.Mode = mode

	res, err := h.chat.AnalyzeImage(c.Request.Context(), service.AnalyzeImageRequest{
		SessionID: c.PostForm("session_id"),
		Prompt:    c.PostForm("prompt"),
		Image:     att,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analyzeImageResponse{
		SessionID:     res.SessionID,
		Response:      res.Response,
		ExtractedText: res.ExtractedText,
		History:       toTurnDTOs(res.History),
	})
}

func (h *Handler) Reset(c *gin.Context) {
	var body sessionRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}
	id, err := h.chat.Reset(c.Request.Context(), body.SessionID, body.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	msg := "Chat history has been reset"
	if id != body.SessionID {
		msg = "New chat session created"
	}
	c.JSON(http.StatusOK, resetResponse{Success: true, Message: msg, SessionID: id})
}

func (h *Handler) History(c *gin.Context) {
	id := c.Query("session_id")
	turns, err := h.chat.History(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{SessionID: id, History: toTurnDTOs(turns)})
}

func (h *Handler) Cleanup(c *gin.Context) {
	n := h.chat.Cleanup()
	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: fmt.Sprintf("Cleaned up %d chat sessions", n),
	})
}

func (h *Handler) UserChats(c *gin.Context) {
	userID := c.Query("user_id")
	recs, err := h.sessions.ListForUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, userChatsResponse{UserID: userID, Chats: toChatSummaries(recs)})
}

func (h *Handler) RenameChat(c *gin.Context) {
	var body sessionRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.sessions.Rename(c.Request.Context(), body.SessionID, body.Title); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true, Message: "Chat title updated"})
}

func (h *Handler) DeleteChat(c *gin.Context) {
	var body sessionRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.sessions.Delete(c.Request.Context(), body.SessionID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse{Success: true, Message: "Chat session deleted"})
}

func (h *Handler) FormUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		abortWithError(c, fmt.Errorf("%w: no file part", domain.ErrMissingFile))
		return
	}
	att, err := readAttachment(fh)
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, err := h.forms.Describe(c.Request.Context(), att)
	if err != nil {
		abortWithError(c, err)
		return
	}
	fields := make([]formFieldDTO, len(res.Fields))
	for i, f := range res.Fields {
		fields[i] = formFieldDTO{Blank: f.Blank, Description: f.Description}
	}
	c.JSON(http.StatusOK, formResponse{SessionID: res.SessionID, Fields: fields})
}

func (h *Handler) Models(c *gin.Context) {
	if h.models == nil {
		abortWithError(c, fmt.Errorf("model catalog: %w", domain.ErrNotSupported))
		return
	}
	models, err := h.models.ListModels(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": toModelDTOs(models)})
}

// bindOptionalJSON decodes a JSON body into dst; an empty body leaves dst
// zero.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
