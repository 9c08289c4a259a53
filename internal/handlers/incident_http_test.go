package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/repository/memory"
	"github.com/mjajones/notifiq-app/internal/service"
	"github.com/mjajones/notifiq-app/internal/utils"
	"github.com/mjajones/notifiq-app/pkg/logger"
)

// failingAttachmentRepo breaks only the attachment-row insert.
type failingAttachmentRepo struct {
	repository.IncidentRepository
}

func (r *failingAttachmentRepo) AddAttachment(ctx context.Context, a *models.Attachment) error {
	return errors.New("insert failed")
}

func TestCreateRemovesFileWhenAttachmentInsertFails(t *testing.T) {
	store := memory.NewStore()
	u := &models.User{Username: "bob@corp.test", Email: "bob@corp.test", IsActive: true}
	require.NoError(t, store.Users().Create(context.Background(), u, "x"))
	claims := &utils.Claims{UserID: u.ID, Username: u.Username, Email: u.Email}

	log := logger.New("test")
	svc := service.NewIncidentService(
		&failingAttachmentRepo{store.Incidents()},
		store.StatusLabels(), store.Users(), nil, log,
	)
	mediaDir := t.TempDir()
	h := NewIncidentHTTP(svc, mediaDir, log)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Broken dock"))
	fw, err := mw.CreateFormFile("attachments", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not-really-a-png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/incidents/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(utils.WithClaims(req.Context(), claims))
	rec := httptest.NewRecorder()
	h.Create()(rec, req)

	// the incident itself still lands; only the upload is dropped
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	leftovers, err := filepath.Glob(filepath.Join(mediaDir, "attachments", "*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "orphan file left after failed attachment insert")
}
