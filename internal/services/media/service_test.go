package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeStorage struct {
	putCalls    int
	failPuts    int
	deleteCalls int
	presignErr  error
	lastKey     string
	lastType    string
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeStorage) PutAttachment(_ context.Context, key string, _ io.Reader, _ int64, contentType string) error {
	f.putCalls++
	f.lastKey = key
	f.lastType = contentType
	if f.putCalls <= f.failPuts {
		return errors.New("s3 timeout")
	}
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://signed.local/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, _ string) error {
	f.deleteCalls++
	return nil
}

func newTestService(storage *fakeStorage) *Service {
	svc := NewService(storage, nil)
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestUploadAttachment(t *testing.T) {
	storage := &fakeStorage{}
	svc := newTestService(storage)

	att, err := svc.UploadAttachment(context.Background(), 1, "pic.jpg", "image/jpeg", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload attachment: %v", err)
	}

	if !strings.HasPrefix(att.URL, "https://signed.local/users/1/attachments/") {
		t.Fatalf("unexpected attachment url: %s", att.URL)
	}
	if !strings.HasSuffix(att.ObjectKey, ".jpg") {
		t.Fatalf("unexpected object key: %s", att.ObjectKey)
	}
	if storage.lastType != "image/jpeg" {
		t.Fatalf("unexpected stored content type: %s", storage.lastType)
	}
}

func TestUploadAttachmentRejectsNonImage(t *testing.T) {
	svc := newTestService(&fakeStorage{})

	_, err := svc.UploadAttachment(context.Background(), 1, "doc.pdf", "application/pdf", strings.NewReader("abc"), 3)
	if !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("expected ErrNotAnImage, got %v", err)
	}
}

func TestUploadAttachmentRejectsOversized(t *testing.T) {
	svc := newTestService(&fakeStorage{})

	_, err := svc.UploadAttachment(context.Background(), 1, "pic.jpg", "image/jpeg", strings.NewReader("abc"), MaxAttachmentSize()+1)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestUploadAttachmentRetriesTransientFailures(t *testing.T) {
	storage := &fakeStorage{failPuts: 2}
	svc := newTestService(storage)

	if _, err := svc.UploadAttachment(context.Background(), 1, "pic.png", "image/png", strings.NewReader("abc"), 3); err != nil {
		t.Fatalf("upload must survive two transient failures: %v", err)
	}
	if storage.putCalls != 3 {
		t.Fatalf("expected 3 put attempts, got %d", storage.putCalls)
	}
}

func TestUploadAttachmentGivesUpAfterThreeAttempts(t *testing.T) {
	storage := &fakeStorage{failPuts: 3}
	svc := newTestService(storage)

	if _, err := svc.UploadAttachment(context.Background(), 1, "pic.png", "image/png", strings.NewReader("abc"), 3); err == nil {
		t.Fatalf("expected upload to fail after exhausting retries")
	}
	if storage.putCalls != 3 {
		t.Fatalf("expected exactly 3 put attempts, got %d", storage.putCalls)
	}
}

func TestUploadAttachmentCleansUpOnPresignFailure(t *testing.T) {
	storage := &fakeStorage{presignErr: errors.New("presign down")}
	svc := newTestService(storage)

	if _, err := svc.UploadAttachment(context.Background(), 1, "pic.jpg", "image/jpeg", strings.NewReader("abc"), 3); err == nil {
		t.Fatalf("expected presign failure to surface")
	}
	if storage.deleteCalls != 1 {
		t.Fatalf("expected orphaned object cleanup, got %d deletes", storage.deleteCalls)
	}
}
