package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// StatusUploaded is the status reported after a successful upload.
const StatusUploaded = "mask_uploaded"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// UploadError describes a non-2xx upload response.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %d - %s", e.StatusCode, e.Body)
}

// Uploader posts the mask as multipart form data, then reports the
// upload through Notify.
type Uploader struct {
	Endpoint string
	Client   *http.Client
	Notify   Messenger
	Log      *slog.Logger
}

// Deliver implements Bridge.
func (u *Uploader) Deliver(ctx context.Context, sub Submission) error {
	if u.Endpoint == "" {
		return errors.New("upload endpoint not configured")
	}
	if len(sub.JPEG) == 0 {
		return errors.New("submission has no encoded mask")
	}

	body, contentType, err := multipartBody(sub)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("network error during upload: %w", err)
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UploadError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(text))}
	}
	u.logger().Info("upload: mask stored", "imageId", sub.ImageID, "bytes", len(sub.JPEG))

	if u.Notify == nil {
		return nil
	}
	data, err := encode(Status{
		Status:  StatusUploaded,
		ImageID: sub.ImageID,
		UserID:  sub.UserID,
	})
	if err != nil {
		return err
	}
	return u.Notify.SendData(data)
}

func (u *Uploader) logger() *slog.Logger {
	if u.Log != nil {
		return u.Log
	}
	return slog.Default()
}

func multipartBody(sub Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="mask"; filename="mask_%s.jpg"`, sub.ImageID))
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create mask part: %w", err)
	}
	if _, err := part.Write(sub.JPEG); err != nil {
		return nil, "", fmt.Errorf("failed to write mask part: %w", err)
	}
	if err := mw.WriteField("imageId", sub.ImageID); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("userId", sub.UserID); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
