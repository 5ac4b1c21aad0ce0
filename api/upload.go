package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadMessagesPhoto runs the three-step photo pipeline
// (photos.getMessagesUploadServer -> multipart POST -> photos.saveMessagesPhoto)
// and returns the attachment string for messages.send.
func (c *Client) UploadMessagesPhoto(ctx context.Context, peerID int64, photo io.Reader) (string, error) {
	uploadURL, err := c.uploadServerURL(ctx, "photos.getMessagesUploadServer", peerID)
	if err != nil {
		return "", err
	}

	var uploaded struct {
		Server int64  `json:"server"`
		Photo  string `json:"photo"`
		Hash   string `json:"hash"`
	}
	if err := c.uploadMultipart(ctx, uploadURL, "photo", "photo.jpg", photo, &uploaded); err != nil {
		return "", err
	}
	if uploaded.Photo == "" || uploaded.Photo == "[]" {
		return "", fmt.Errorf("%w: photo", ErrUploadRejected)
	}

	p := Params{}.
		Set("photo", uploaded.Photo).
		SetInt("server", uploaded.Server).
		Set("hash", uploaded.Hash)
	raw, err := c.Call(ctx, "photos.saveMessagesPhoto", p)
	if err != nil {
		return "", err
	}
	var saved []struct {
		ID        int64  `json:"id"`
		OwnerID   int64  `json:"owner_id"`
		AccessKey string `json:"access_key"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		return "", fmt.Errorf("api: decode saveMessagesPhoto: %w", err)
	}
	if len(saved) == 0 {
		return "", fmt.Errorf("%w: save returned no photos", ErrUploadRejected)
	}
	attachment := fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID)
	if saved[0].AccessKey != "" {
		attachment += "_" + saved[0].AccessKey
	}
	return attachment, nil
}

// UploadMessagesDoc runs the document pipeline
// (docs.getMessagesUploadServer -> multipart POST -> docs.save).
func (c *Client) UploadMessagesDoc(ctx context.Context, peerID int64, filename, title string, doc io.Reader) (string, error) {
	uploadURL, err := c.uploadServerURL(ctx, "docs.getMessagesUploadServer", peerID)
	if err != nil {
		return "", err
	}

	if filename == "" {
		filename = "document.dat"
	}
	var uploaded struct {
		File string `json:"file"`
	}
	if err := c.uploadMultipart(ctx, uploadURL, "file", filename, doc, &uploaded); err != nil {
		return "", err
	}
	if uploaded.File == "" {
		return "", fmt.Errorf("%w: document", ErrUploadRejected)
	}

	p := Params{}.Set("file", uploaded.File)
	if title != "" {
		p.Set("title", title)
	}
	raw, err := c.Call(ctx, "docs.save", p)
	if err != nil {
		return "", err
	}
	var saved struct {
		Type string `json:"type"`
		Doc  struct {
			ID        int64  `json:"id"`
			OwnerID   int64  `json:"owner_id"`
			AccessKey string `json:"access_key"`
		} `json:"doc"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		return "", fmt.Errorf("api: decode docs.save: %w", err)
	}
	if saved.Doc.ID == 0 {
		return "", fmt.Errorf("%w: save returned no document", ErrUploadRejected)
	}
	attachment := fmt.Sprintf("doc%d_%d", saved.Doc.OwnerID, saved.Doc.ID)
	if saved.Doc.AccessKey != "" {
		attachment += "_" + saved.Doc.AccessKey
	}
	return attachment, nil
}

func (c *Client) uploadServerURL(ctx context.Context, method string, peerID int64) (string, error) {
	p := Params{}
	if peerID != 0 {
		p.SetInt("peer_id", peerID)
	}
	raw, err := c.Call(ctx, method, p)
	if err != nil {
		return "", err
	}
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("api: decode upload server: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("api: %s returned no upload_url", method)
	}
	return out.UploadURL, nil
}

// uploadMultipart POSTs one file to an upload host and decodes the answer.
// Upload hosts answer outside the method envelope.
func (c *Client) uploadMultipart(ctx context.Context, uploadURL, field, filename string, r io.Reader, out any) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("api: build multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("api: read upload payload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("api: finalize multipart: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return fmt.Errorf("api: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("api: upload: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode upload response: %w", err)
	}
	return nil
}
