package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap/zaptest"
)

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	headErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func newFakeStore(t *testing.T, fake *fakeS3) *S3Store {
	t.Helper()
	if fake.objects == nil {
		fake.objects = make(map[string][]byte)
	}
	return newS3Store(fake, S3Config{Bucket: "scores", Folder: "/NCAA Basketball/"}, zaptest.NewLogger(t))
}

func TestS3UploadOrUpdate(t *testing.T) {
	fake := &fakeS3{}
	store := newFakeStore(t, fake)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "basketball_men_d1_2025_01_12.csv")
	if err := os.WriteFile(local, []byte("GAMEID\n401\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	folder, err := store.EnsureFolderPath(ctx, "2025", "01", "men", "d1")
	if err != nil {
		t.Fatalf("EnsureFolderPath() error = %v", err)
	}
	if folder.Path != "NCAA Basketball/2025/01/men/d1/" {
		t.Fatalf("folder = %q", folder.Path)
	}

	id, err := store.UploadOrUpdate(ctx, local, folder)
	if err != nil {
		t.Fatalf("UploadOrUpdate() error = %v", err)
	}
	wantKey := "NCAA Basketball/2025/01/men/d1/basketball_men_d1_2025_01_12.csv"
	if id != wantKey {
		t.Errorf("remote id = %q, want %q", id, wantKey)
	}

	// A second upload of the same name replaces the object.
	if err := os.WriteFile(local, []byte("GAMEID,DUPLICATE_ACROSS_DIVISIONS\n401,TRUE\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.UploadOrUpdate(ctx, local, folder); err != nil {
		t.Fatal(err)
	}
	if len(fake.objects) != 1 || string(fake.objects[wantKey]) != "GAMEID,DUPLICATE_ACROSS_DIVISIONS\n401,TRUE\n" {
		t.Errorf("objects = %v", fake.objects)
	}

	gotID, ok, err := store.FileExists(ctx, "basketball_men_d1_2025_01_12.csv", folder)
	if err != nil || !ok || gotID != wantKey {
		t.Errorf("FileExists() = %q, %v, %v", gotID, ok, err)
	}
	if _, ok, err := store.FileExists(ctx, "missing.csv", folder); err != nil || ok {
		t.Errorf("FileExists(missing) = %v, %v", ok, err)
	}
}

func TestS3ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, KindRemoteAuth},
		{"bad key", &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, KindRemoteAuth},
		{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, KindRemoteIO},
		{"network", errors.New("connection reset"), KindRemoteIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeS3{putErr: tt.err, headErr: tt.err}
			store := newFakeStore(t, fake)
			local := filepath.Join(t.TempDir(), "f.csv")
			if err := os.WriteFile(local, []byte("x\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			folder, _ := store.EnsureFolderPath(context.Background(), "2025", "01", "men", "d1")

			_, err := store.UploadOrUpdate(context.Background(), local, folder)
			if KindOf(err) != tt.want {
				t.Errorf("UploadOrUpdate kind = %q, want %q (err %v)", KindOf(err), tt.want, err)
			}
			_, _, err = store.FileExists(context.Background(), "f.csv", folder)
			if KindOf(err) != tt.want {
				t.Errorf("FileExists kind = %q, want %q", KindOf(err), tt.want)
			}
		})
	}
}

func TestS3UploadMissingLocalFile(t *testing.T) {
	store := newFakeStore(t, &fakeS3{})
	_, err := store.UploadOrUpdate(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Folder{Path: "x/"})
	if KindOf(err) != KindRemoteIO {
		t.Errorf("kind = %q, want %q", KindOf(err), KindRemoteIO)
	}
}

func TestEnsureFolderPathRejectsBadComponents(t *testing.T) {
	store := newFakeStore(t, &fakeS3{})
	if _, err := store.EnsureFolderPath(context.Background(), "2025", "", "men", "d1"); err == nil {
		t.Error("expected error for empty month")
	}
	if _, err := store.EnsureFolderPath(context.Background(), "2025", "01", "men/x", "d1"); err == nil {
		t.Error("expected error for slash in component")
	}
}
