package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []string
	err  error
}

func (r *recorder) SendData(data string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, data)
	return nil
}

func TestWriterEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.Deliver(context.Background(), Submission{
		MaskData: "QUJD",
		ImageID:  "abc123",
		UserID:   "7",
		JPEG:     []byte{1, 2, 3},
	})
	require.NoError(t, err)

	line := buf.String()
	require.True(t, strings.HasSuffix(line, "\n"))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, map[string]any{"maskData": "QUJD", "imageId": "abc123"}, got)
}

func TestWriterHonoursCancelledContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewWriter(&buf).Deliver(ctx, Submission{}), context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestDirect(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, Direct{M: rec}.Deliver(context.Background(), Submission{MaskData: "x", ImageID: "id"}))
	require.Len(t, rec.sent, 1)
	assert.JSONEq(t, `{"maskData":"x","imageId":"id"}`, rec.sent[0])

	require.ErrorIs(t, Direct{}.Deliver(context.Background(), Submission{}), ErrUnavailable)

	rec.err = errors.New("host gone")
	require.Error(t, Direct{M: rec}.Deliver(context.Background(), Submission{}))
}

func TestUploaderPostsMultipart(t *testing.T) {
	var gotMask []byte
	var gotFilename, gotImageID, gotUserID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		f, hdr, err := r.FormFile("mask")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		gotMask, _ = io.ReadAll(f)
		gotFilename = hdr.Filename
		gotImageID = r.FormValue("imageId")
		gotUserID = r.FormValue("userId")
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	rec := &recorder{}
	up := &Uploader{Endpoint: srv.URL + "/upload-mask", Client: srv.Client(), Notify: rec}
	err := up.Deliver(context.Background(), Submission{
		MaskData: "ignored",
		ImageID:  "abc123",
		UserID:   "42",
		JPEG:     []byte{0xff, 0xd8, 0xff, 0xd9},
	})
	require.NoError(t, err)

	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xd9}, gotMask)
	assert.Equal(t, "mask_abc123.jpg", gotFilename)
	assert.Equal(t, "abc123", gotImageID)
	assert.Equal(t, "42", gotUserID)

	require.Len(t, rec.sent, 1)
	assert.JSONEq(t, `{"status":"mask_uploaded","imageId":"abc123","userId":"42"}`, rec.sent[0])
}

func TestUploaderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "disk full", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	rec := &recorder{}
	up := &Uploader{Endpoint: srv.URL, Client: srv.Client(), Notify: rec}
	err := up.Deliver(context.Background(), Submission{ImageID: "a", JPEG: []byte{1}})

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusInsufficientStorage, upErr.StatusCode)
	assert.Equal(t, "disk full", upErr.Body)
	assert.Empty(t, rec.sent, "no status message after a failed upload")
}

func TestUploaderValidation(t *testing.T) {
	require.Error(t, (&Uploader{}).Deliver(context.Background(), Submission{JPEG: []byte{1}}))
	require.Error(t, (&Uploader{Endpoint: "http://x"}).Deliver(context.Background(), Submission{}))
}

func TestWebAppUnavailableOutsideBrowser(t *testing.T) {
	_, err := NewWebApp()
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, LaunchFragment())
}
