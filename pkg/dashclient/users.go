package dashclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"kolboard/internal/models"
)

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateSettings sends only the non-nil fields of the update.
func (c *Client) UpdateSettings(ctx context.Context, update models.SettingsUpdate) (*models.User, error) {
	var user models.User
	if err := c.send(ctx, http.MethodPut, "/users/me", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadAvatar posts the image as the multipart field "avatar" and returns the new public URL.
func (c *Client) UploadAvatar(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out struct {
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.doRaw(ctx, http.MethodPost, "/users/me/avatar", nil, &buf, mw.FormDataContentType(), &out); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

// ProfileCard looks a user up by id or @username.
func (c *Client) ProfileCard(ctx context.Context, idOrUsername string) (*models.ProfileCard, error) {
	var card models.ProfileCard
	if err := c.get(ctx, "/users/"+url.PathEscape(idOrUsername)+"/card", nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}
