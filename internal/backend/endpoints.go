package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"regdesk/internal/subject/imaging"
	"regdesk/internal/subject/mapping"
	"regdesk/pkg/domain"
)

// Register uploads a built submission to the category's endpoint.
func (c *Client) Register(ctx context.Context, sub *mapping.Submission) (*RegistrationResult, error) {
	var buf bytes.Buffer
	contentType, err := sub.Encode(&buf)
	if err != nil {
		return nil, newAPIError(ErrorBadData, "register", 0, "encoding submission", err)
	}
	raw, err := c.do(ctx, request{
		op:          "register",
		method:      http.MethodPost,
		path:        c.Endpoint(sub.Category),
		body:        buf.Bytes(),
		contentType: contentType,
		progress:    true,
	})
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := decode("register", raw, &env); err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, newAPIError(ErrorBadRequest, "register", http.StatusOK, env.Message, nil)
	}
	return resultFrom(env), nil
}

// GetUser fetches one subject.
func (c *Client) GetUser(ctx context.Context, id domain.SubjectID) (Record, error) {
	raw, err := c.do(ctx, request{op: "get_user", method: http.MethodGet, path: "/users/" + url.PathEscape(id.String())})
	if err != nil {
		return nil, err
	}
	var env Envelope
	if err := decode("get_user", raw, &env); err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, newAPIError(ErrorNotFound, "get_user", http.StatusOK, env.Message, nil)
	}
	if env.User != nil {
		return env.User, nil
	}
	// Some deployments return the record without the envelope.
	var rec Record
	if err := decode("get_user", raw, &rec); err != nil {
		return nil, err
	}
	if idOf(rec) == "" {
		return nil, newAPIError(ErrorNotFound, "get_user", http.StatusOK, "subject not found", nil)
	}
	return rec, nil
}

// DeleteUser removes a subject.
func (c *Client) DeleteUser(ctx context.Context, id domain.SubjectID) error {
	raw, err := c.do(ctx, request{op: "delete_user", method: http.MethodDelete, path: "/users/" + url.PathEscape(id.String())})
	if err != nil {
		return err
	}
	var env Envelope
	if err := decode("delete_user", raw, &env); err != nil {
		return err
	}
	if env.failed() {
		return newAPIError(ErrorBadRequest, "delete_user", http.StatusOK, env.Message, nil)
	}
	return nil
}

// SearchQuery filters a registry search. Empty fields are omitted.
type SearchQuery struct {
	Query    string
	FormType string
	Limit    int
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.FormType != "" {
		v.Set("form_type", q.FormType)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Search queries the registry.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	path := "/search"
	if enc := q.values().Encode(); enc != "" {
		path += "?" + enc
	}
	raw, err := c.do(ctx, request{op: "search", method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Users   []Record `json:"users"`
		Results []Record `json:"results"`
		Total   *int     `json:"total"`
		Count   *int     `json:"count"`
	}
	if err := decode("search", raw, &payload); err != nil {
		return nil, err
	}
	res := &SearchResult{Users: payload.Users}
	if res.Users == nil {
		res.Users = payload.Results
	}
	if res.Users == nil {
		res.Users = []Record{}
	}
	switch {
	case payload.Total != nil:
		res.Total = *payload.Total
	case payload.Count != nil:
		res.Total = *payload.Count
	default:
		res.Total = len(res.Users)
	}
	return res, nil
}

// Count returns registry totals.
func (c *Client) Count(ctx context.Context) (*Counts, error) {
	raw, err := c.do(ctx, request{op: "count", method: http.MethodGet, path: "/count"})
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := decode("count", raw, &payload); err != nil {
		return nil, err
	}
	counts := &Counts{ByCategory: map[string]int{}}
	for key, v := range payload {
		n, ok := v.(float64)
		if !ok {
			continue
		}
		switch key {
		case "count", "total", "total_users":
			counts.Total = int(n)
		default:
			counts.ByCategory[key] = int(n)
		}
	}
	if counts.Total == 0 {
		for _, n := range counts.ByCategory {
			counts.Total += n
		}
	}
	return counts, nil
}

// Recognize asks the registry to match a face photo.
func (c *Client) Recognize(ctx context.Context, img *imaging.Image) (*Recognition, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, imaging.ErrNoImage
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, mapping.FilePart, img.Filename))
	h.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(h)
	if err == nil {
		_, err = part.Write(img.Data)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		return nil, newAPIError(ErrorBadData, "recognize", 0, "encoding image", err)
	}
	return c.recognize(ctx, request{
		op:          "recognize",
		method:      http.MethodPost,
		path:        "/recognize",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		progress:    true,
	})
}

// RecognizeBase64 sends a camera capture as base64 JSON.
func (c *Client) RecognizeBase64(ctx context.Context, data string) (*Recognition, error) {
	req, err := jsonRequest("recognize", http.MethodPost, "/recognize", map[string]string{"image": data})
	if err != nil {
		return nil, err
	}
	return c.recognize(ctx, req)
}

func (c *Client) recognize(ctx context.Context, req request) (*Recognition, error) {
	raw, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Envelope
		Matched    *bool    `json:"matched"`
		Confidence float64  `json:"confidence"`
		Similarity *float64 `json:"similarity"`
	}
	if err := decode(req.op, raw, &payload); err != nil {
		return nil, err
	}
	if payload.failed() {
		return nil, newAPIError(ErrorBadRequest, req.op, http.StatusOK, payload.Message, nil)
	}
	rec := &Recognition{
		UserID:     payload.UserID.String(),
		User:       payload.User,
		Confidence: payload.Confidence,
		Message:    payload.Message,
	}
	if payload.Similarity != nil && rec.Confidence == 0 {
		rec.Confidence = *payload.Similarity
	}
	if rec.UserID == "" && rec.User != nil {
		rec.UserID = idOf(rec.User)
	}
	if payload.Matched != nil {
		rec.Matched = *payload.Matched
	} else {
		rec.Matched = rec.UserID != ""
	}
	return rec, nil
}

// Health checks the registry is up.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, request{op: "health", method: http.MethodGet, path: "/health"})
	return err
}

// ClearCache asks the registry to drop its search cache.
func (c *Client) ClearCache(ctx context.Context) error {
	_, err := c.do(ctx, request{op: "clear_cache", method: http.MethodPost, path: "/cache/clear"})
	return err
}
