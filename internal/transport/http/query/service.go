// Package query exposes the voice pipeline over HTTP: file upload, the
// two processing endpoints and the response audio download.
package query

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"envisonet-server-go/internal/app/services"
	"envisonet-server-go/internal/domain/staging"
	"envisonet-server-go/internal/platform/logging"
	"envisonet-server-go/internal/platform/storage"
	httptransport "envisonet-server-go/internal/transport/http"
	"envisonet-server-go/internal/transport/http/webapi"
)

// Handlers wires the pipeline into the HTTP surface.
type Handlers struct {
	logger   *logging.Logger
	pipeline *services.Pipeline
	area     *staging.Area
	states   *storage.StateRepository
	auth     *webapi.Auth
}

func NewHandlers(
	logger *logging.Logger,
	pipeline *services.Pipeline,
	area *staging.Area,
	states *storage.StateRepository,
	auth *webapi.Auth,
) *Handlers {
	return &Handlers{
		logger:   logger,
		pipeline: pipeline,
		area:     area,
		states:   states,
		auth:     auth,
	}
}

// Register mounts the endpoints, all behind authentication.
func (h *Handlers) Register(public, secured *gin.RouterGroup) {
	secured.GET("/service", h.service)
	secured.POST("/upload_files", h.uploadFiles)
	secured.GET("/process_image_audio_query", h.processImageAudioQuery)
	secured.GET("/process_audio_query", h.processAudioQuery)
	secured.GET("/download_response_audio", h.downloadResponseAudio)
}

func (h *Handlers) service(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "envisonet",
		"status":  "ok",
		"endpoints": []string{
			"/upload_files",
			"/process_image_audio_query",
			"/process_audio_query",
			"/download_response_audio",
		},
	})
}

// uploadFiles stages the multipart audio and optional image parts into
// the user's working directory, then hands them straight to the
// matching query pipeline. A recording is required.
func (h *Handlers) uploadFiles(c *gin.Context) {
	userID, username := webapi.CurrentUser(c)

	audioHeader, audioErr := c.FormFile("audio")
	imageHeader, imageErr := c.FormFile("image")
	if audioErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no audio or image file part"})
		return
	}

	src, err := audioHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read audio file"})
		return
	}
	defer src.Close()
	if _, err := h.area.StageAudio(username, audioHeader.Filename, src); err != nil {
		httptransport.RespondError(c, err)
		return
	}

	hasImage := imageErr == nil
	if hasImage {
		img, err := imageHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image file"})
			return
		}
		defer img.Close()
		if _, err := h.area.StageImage(username, imageHeader.Filename, img); err != nil {
			httptransport.RespondError(c, err)
			return
		}
	}

	if err := h.states.BumpCounter(c.Request.Context(), userID, "uploads"); err != nil {
		h.logger.WarnTag("Storage", "failed to bump upload counter for %s: %v", username, err)
	}
	h.logger.InfoTag("HTTP", "user %s uploaded files (image=%t)", username, hasImage)

	var result *services.Result
	if hasImage {
		result, err = h.pipeline.ProcessImageAudioQuery(c.Request.Context(), userID, username)
	} else {
		result, err = h.pipeline.ProcessAudioQuery(c.Request.Context(), userID, username)
	}
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	h.writeResult(c, username, result)
}

func (h *Handlers) processImageAudioQuery(c *gin.Context) {
	userID, username := webapi.CurrentUser(c)

	result, err := h.pipeline.ProcessImageAudioQuery(c.Request.Context(), userID, username)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	h.writeResult(c, username, result)
}

func (h *Handlers) processAudioQuery(c *gin.Context) {
	userID, username := webapi.CurrentUser(c)

	result, err := h.pipeline.ProcessAudioQuery(c.Request.Context(), userID, username)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	h.writeResult(c, username, result)
}

// writeResult renders a pipeline result, handling the voice-triggered
// logout by revoking the session before answering.
func (h *Handlers) writeResult(c *gin.Context, username string, result *services.Result) {
	if result.Action == "logout" {
		if token, ok := c.Get("token"); ok {
			if tokenStr, ok := token.(string); ok && tokenStr != "" {
				if err := h.auth.Revoke(c, tokenStr); err != nil {
					h.logger.WarnTag("Auth", "failed to revoke session for %s: %v", username, err)
				}
			}
		}
		c.SetCookie(webapi.TokenCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"message": result.Message,
			"action":  result.Action,
		})
		return
	}
	httptransport.RespondMessage(c, result.Message, result.AudioURL)
}

// downloadResponseAudio streams the current synthesized reply as an
// attachment. The state record is the source of truth for whether a
// reply exists.
func (h *Handlers) downloadResponseAudio(c *gin.Context) {
	userID, _ := webapi.CurrentUser(c)

	state, err := h.states.Get(c.Request.Context(), userID)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	if state.ResponseAudioPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no response audio available"})
		return
	}
	c.FileAttachment(state.ResponseAudioPath, staging.ResponseAudioName)
}
