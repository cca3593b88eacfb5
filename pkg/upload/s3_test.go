package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/thbase/pkg/upload"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, errors.New("NotFound")
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Store_SaveAndRemove(t *testing.T) {
	fake := newFakeS3()
	store := upload.NewS3Store(fake, "bases", "image/", "https://cdn.example.com/", 1024)
	ctx := context.Background()

	file, err := store.Save(ctx, "1-1.png", "image/png", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := fake.objects["bases/image/1-1.png"]; !bytes.Equal(got, pngBytes) {
		t.Fatal("object content mismatch")
	}
	if fake.types["bases/image/1-1.png"] != "image/png" {
		t.Errorf("content type = %q", fake.types["bases/image/1-1.png"])
	}
	if file.URL != "https://cdn.example.com/image/1-1.png" {
		t.Errorf("URL = %q", file.URL)
	}

	if err := store.Remove(ctx, "1-1.png"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(fake.objects) != 0 {
		t.Fatal("expected object deleted")
	}
	if err := store.Remove(ctx, "1-1.png"); !errors.Is(err, upload.ErrNotFound) {
		t.Fatalf("Remove(missing) = %v, want ErrNotFound", err)
	}
}

func TestS3Store_SaveTooLarge(t *testing.T) {
	fake := newFakeS3()
	store := upload.NewS3Store(fake, "bases", "", "", 4)

	_, err := store.Save(context.Background(), "1-1.png", "image/png", bytes.NewReader([]byte("12345")))
	if !errors.Is(err, upload.ErrTooLarge) {
		t.Fatalf("Save = %v, want ErrTooLarge", err)
	}
	if len(fake.objects) != 0 {
		t.Fatal("expected nothing uploaded")
	}
}

func TestS3Store_SaveWrapsClientError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	store := upload.NewS3Store(fake, "bases", "", "", 0)

	_, err := store.Save(context.Background(), "1-1.png", "image/png", bytes.NewReader(pngBytes))
	if err == nil || upload.IsUploadError(err) {
		t.Fatalf("Save = %v, want a storage error", err)
	}
}

func TestS3Store_URLWithoutPublicURL(t *testing.T) {
	store := upload.NewS3Store(newFakeS3(), "bases", "image/", "", 0)
	if got := store.URL("1-1.png"); got != "s3://bases/image/1-1.png" {
		t.Errorf("URL() = %q", got)
	}
}

func TestNewS3Client(t *testing.T) {
	client := upload.NewS3Client(upload.S3ClientOptions{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	opts := client.Options()
	if opts.Region != "us-east-1" || !opts.UsePathStyle {
		t.Errorf("options = %+v", opts)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "key" {
		t.Errorf("AccessKeyID = %q", creds.AccessKeyID)
	}
}
