package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestClean(t *testing.T) {
	valid := map[string]string{
		"firmas_pedidos/a.png":      "firmas_pedidos/a.png",
		" firmas_pedidos//b.png ":   "firmas_pedidos/b.png",
		"firmas_pedidos\\c.png":     "firmas_pedidos/c.png",
		"firmas_pedidos/x/../d.png": "firmas_pedidos/d.png",
	}
	for in, want := range valid {
		got, err := Clean(in)
		if err != nil || got != want {
			t.Fatalf("Clean(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
	for _, in := range []string{"", "/etc/passwd", "..", "../secret", "a/../../b", "."} {
		if _, err := Clean(in); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Clean(%q): expected ErrInvalidPath, got %v", in, err)
		}
	}
}

func TestLocalDisk(t *testing.T) {
	disk, err := NewLocalDisk(t.TempDir())
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	ctx := context.Background()

	if err := disk.Store(ctx, "firmas_usuarios/1.png", strings.NewReader("firma")); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := disk.Copy(ctx, "firmas_usuarios/1.png", "firmas_pedidos/copia.png"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	content, err := ReadAll(ctx, disk, "firmas_pedidos/copia.png")
	if err != nil || string(content) != "firma" {
		t.Fatalf("unexpected copy content %q (%v)", content, err)
	}

	if err := disk.Delete(ctx, "firmas_pedidos/copia.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := disk.Delete(ctx, "firmas_pedidos/copia.png"); err != nil {
		t.Fatalf("deleting a missing file must not fail: %v", err)
	}
	if ok, _ := disk.Exists(ctx, "firmas_pedidos/copia.png"); ok {
		t.Fatalf("file should be gone")
	}
	if ok, _ := disk.Exists(ctx, "firmas_usuarios"); ok {
		t.Fatalf("directories are not files")
	}
	if _, err := disk.Open(ctx, "nada.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := disk.Store(ctx, "../escape.png", strings.NewReader("x")); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

// memS3 keeps objects in a map
type memS3 struct {
	objects map[string]string
}

func (m *memS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := m.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *memS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(m.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	src := strings.TrimPrefix(aws.ToString(in.CopySource), aws.ToString(in.Bucket)+"/")
	body, ok := m.objects[src]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	m.objects[aws.ToString(in.Key)] = body
	return &s3.CopyObjectOutput{}, nil
}

func (m *memS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Disk(t *testing.T) {
	client := &memS3{objects: map[string]string{}}
	disk := &S3Disk{Client: client, Bucket: "firmas"}
	ctx := context.Background()

	if err := disk.Store(ctx, "firmas_usuarios/2.jpg", strings.NewReader("jpg")); err != nil {
		t.Fatalf("store: %v", err)
	}
	if ok, err := disk.Exists(ctx, "firmas_usuarios/2.jpg"); err != nil || !ok {
		t.Fatalf("expected object, got %v (%v)", ok, err)
	}
	if ok, err := disk.Exists(ctx, "firmas_usuarios/3.jpg"); err != nil || ok {
		t.Fatalf("expected missing object, got %v (%v)", ok, err)
	}
	if err := disk.Copy(ctx, "firmas_usuarios/2.jpg", "firmas_entregas/e.jpg"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if client.objects["firmas_entregas/e.jpg"] != "jpg" {
		t.Fatalf("copy not stored")
	}
	if err := disk.Copy(ctx, "firmas_usuarios/9.jpg", "firmas_entregas/f.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := disk.Open(ctx, "firmas_usuarios/9.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := disk.Delete(ctx, "firmas_usuarios/2.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(client.objects) != 1 {
		t.Fatalf("expected one object left, got %v", client.objects)
	}
}
