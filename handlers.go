package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"timetable/models"
	"timetable/pkg/runner"
	"timetable/pkg/store"
	"timetable/pkg/timetable"
)

const extractedMessage = "Timetable extraction and upload completed successfully."

type server struct {
	cfg    appConfig
	store  *store.Store
	runner *runner.Runner
}

func setupRoutes(r *gin.Engine, s *server) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))
	r.GET("/health", healthHandler)
	r.POST("/register", s.registerHandler)
	r.POST("/login", s.loginHandler)

	authGroup := r.Group("")
	authGroup.Use(s.jwtAuthMiddleware(s.cfg.AuthRequired))
	authGroup.GET("/me", meHandler)
	authGroup.POST("/extract_timetable", s.extractHandler)
	authGroup.GET("/timetable", s.listTimetableHandler)
	authGroup.GET("/extractions/:run_id", s.getExtractionHandler)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// decodeImagePayload accepts standard or URL-safe base64, padded or not, with
// an optional data URL prefix.
func decodeImagePayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	var lastErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *server) extractHandler(c *gin.Context) {
	// base64 inflates by 4/3
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxImageBytes/3*4+4096)
	}
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	raw, err := decodeImagePayload(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is not valid base64"})
		return
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image: " + err.Error()})
		return
	}

	runID := uuid.NewString()
	storePath := filepath.Join(s.cfg.UploadBase, runID+".png")
	if err := imaging.Save(img, storePath); err != nil {
		log.Printf("WARN run %s: failed to keep upload: %v", runID, err)
		storePath = ""
	}

	res, err := s.runner.Run(c.Request.Context(), runID, img, models.SourceUpload, storePath)
	if err != nil {
		log.Printf("ERROR in extract_timetable: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run_id": res.RunID})
		return
	}
	entries := res.Entries
	if entries == nil {
		entries = []timetable.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message": extractedMessage,
		"run_id":  res.RunID,
		"status":  res.Report.Status().String(),
		"entries": entries,
		"stored":  res.Stored,
	})
}

func (s *server) listTimetableHandler(c *gin.Context) {
	rows, err := s.store.ListEntries(c.Request.Context(), c.Query("day"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *server) getExtractionHandler(c *gin.Context) {
	ex, err := s.store.GetExtraction(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, ex)
}
