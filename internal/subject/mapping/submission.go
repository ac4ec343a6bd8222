package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"regdesk/internal/subject/form"
	"regdesk/internal/subject/imaging"
	"regdesk/pkg/domain"
	dErrors "regdesk/pkg/domain-errors"
	"regdesk/pkg/requestcontext"
)

// FilePart is the multipart field carrying the subject photo.
const FilePart = "file"

// Field is one discrete top-level multipart field.
type Field struct {
	Name  string
	Value string
}

// Submission is a registration payload ready to encode. It is built once and
// never modified.
type Submission struct {
	Category domain.Category
	Fields   []Field
	BlobKey  string
	Blob     map[string]string
	Image    *imaging.Image
}

// Get returns a top-level field value.
func (s *Submission) Get(name string) (string, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// BlobJSON returns the encoded blob. Keys are sorted by encoding/json.
func (s *Submission) BlobJSON() ([]byte, error) {
	return json.Marshal(s.Blob)
}

// Encode writes the submission as multipart/form-data and returns the
// content type including the boundary.
func (s *Submission) Encode(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for _, f := range s.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return "", fmt.Errorf("writing field %s: %w", f.Name, err)
		}
	}
	blob, err := s.BlobJSON()
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", s.BlobKey, err)
	}
	if err := mw.WriteField(s.BlobKey, string(blob)); err != nil {
		return "", fmt.Errorf("writing %s: %w", s.BlobKey, err)
	}
	if s.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FilePart, s.Image.Filename))
		h.Set("Content-Type", s.Image.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(s.Image.Data); err != nil {
			return "", fmt.Errorf("writing file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return mw.FormDataContentType(), nil
}

// Build maps a form snapshot into a submission. The form is not modified and
// the same form, image and request time yield the same submission.
func Build(ctx context.Context, f *form.Form, img *imaging.Image) (*Submission, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, imaging.ErrNoImage
	}
	category := f.Category()
	rules := Rules(category)
	if rules == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported category")
	}
	snapshot := f.Snapshot()
	contract := ContractFor(category)

	sub := &Submission{
		Category: category,
		BlobKey:  BlobKey(category),
		Blob:     map[string]string{},
		Image:    img,
	}
	emit := func(name, value string) {
		sub.Fields = append(sub.Fields, Field{Name: name, Value: value})
		sub.Blob[name] = value
	}

	mapped := map[string]struct{}{}
	for _, rule := range rules {
		mapped[rule.UIField] = struct{}{}
		mapped[rule.BackendField] = struct{}{}
	}
	for _, rule := range rules {
		if rule.Gate != "" && !gateOpen(snapshot, rule.Gate) {
			continue
		}
		raw := valueAt(snapshot, rule.UIField)
		value := rule.Transform.toBackend(raw)
		if value == "" && rule.Transform != Flag {
			continue
		}
		emit(rule.BackendField, value)
	}

	// Keys outside the table travel in the blob only, and only when the
	// backend accepts them. Backend names typed directly into the form are
	// ignored so they cannot bypass a gate.
	var extra []string
	for key := range snapshot {
		if _, ok := mapped[key]; ok || key == form.FieldMedical {
			continue
		}
		if contract.Allows(key) && key != KeyFormType && key != KeyTimestamp {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		if v := text(snapshot[key]); v != "" {
			sub.Blob[key] = v
		}
	}

	emit(KeyFormType, category.String())
	emit(KeyTimestamp, requestcontext.Now(ctx).UTC().Format(time.RFC3339))

	for _, key := range Denylist {
		delete(sub.Blob, key)
	}
	if err := contract.Check(sub.Blob); err != nil {
		return nil, err
	}
	return sub, nil
}

// ToForm pre-populates a form from a backend record for edit mode, applying
// the table in reverse.
func ToForm(ctx context.Context, category domain.Category, record map[string]any) (*form.Form, error) {
	rules := Rules(category)
	if rules == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported category")
	}
	f := form.New(category)
	for _, rule := range rules {
		v, ok := record[rule.BackendField]
		if !ok || v == nil {
			continue
		}
		if err := f.Apply(ctx, rule.UIField, rule.Transform.fromBackend(v)); err != nil {
			return nil, err
		}
	}
	if notes, ok := record[KeyNotes]; ok && notes != nil {
		if err := f.Apply(ctx, KeyNotes, text(notes)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func gateOpen(r form.Record, gate string) bool {
	on, _ := valueAt(r, gate).(bool)
	return on
}

func valueAt(r form.Record, path string) any {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return r[path]
	}
	child, ok := r[head].(map[string]any)
	if !ok {
		return nil
	}
	return valueAt(child, rest)
}
