package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/apperror"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/model"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/repository"
	"github.com/JuniorArias02/deparsistemasapiv2-sub000/internal/storage"

	"github.com/google/uuid"
)

const (
	FolderFirmasPedidos  = "firmas_pedidos"
	FolderFirmasUsuarios = "firmas_usuarios"
	FolderFirmasEntregas = "firmas_entregas"

	MaxSignatureSize = 2 << 20
)

var allowedSignatureExt = map[string]bool{"png": true, "jpg": true, "jpeg": true}

// SignatureResolver turns a SignatureSource into a file on the storage disk
type SignatureResolver struct {
	disk  storage.Disk
	users repository.UserRepository
	now   func() time.Time
}

func NewSignatureResolver(disk storage.Disk, users repository.UserRepository) *SignatureResolver {
	return &SignatureResolver{disk: disk, users: users, now: time.Now}
}

// readSignature validates extension, size and content of an uploaded image
func readSignature(up *Upload) (string, []byte, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(up.Filename), "."))
	if !allowedSignatureExt[ext] {
		return "", nil, apperror.ValidationFields("La firma no es válida", map[string][]string{
			"firma": {"la firma debe ser una imagen png, jpg o jpeg"},
		})
	}
	if up.Size > MaxSignatureSize {
		return "", nil, tooLarge()
	}
	content, err := io.ReadAll(io.LimitReader(up.Content, MaxSignatureSize+1))
	if err != nil {
		return "", nil, apperror.Internal("no se pudo leer la firma", err)
	}
	if len(content) > MaxSignatureSize {
		return "", nil, tooLarge()
	}
	if len(content) == 0 {
		return "", nil, apperror.ValidationFields("La firma no es válida", map[string][]string{
			"firma": {"la firma está vacía"},
		})
	}
	switch http.DetectContentType(content) {
	case "image/png", "image/jpeg":
	default:
		return "", nil, apperror.ValidationFields("La firma no es válida", map[string][]string{
			"firma": {"el archivo no es una imagen png o jpeg"},
		})
	}
	return ext, content, nil
}

func tooLarge() error {
	return apperror.ValidationFields("La firma no es válida", map[string][]string{
		"firma": {"la firma no puede superar 2 MB"},
	})
}

// uniqueName builds {prefix}_{yyyyMMddHHmmss}_{uuid8}
func (r *SignatureResolver) uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%s_%s", prefix, r.now().Format("20060102150405"), uuid.NewString()[:8])
}

// Resolve stores the signature chosen by src under folder and returns its
// path. An empty source resolves to an empty path.
func (r *SignatureResolver) Resolve(ctx context.Context, folder, prefix string, userID uint, src SignatureSource) (model.StoragePath, error) {
	if src.Upload != nil && src.UseStored {
		return "", apperror.Validation("Envíe una firma o use la firma guardada, no ambas")
	}
	switch {
	case src.Upload != nil:
		ext, content, err := readSignature(src.Upload)
		if err != nil {
			return "", err
		}
		name := fmt.Sprintf("%s/%s.%s", folder, r.uniqueName(prefix), ext)
		if err := r.disk.Store(ctx, name, bytes.NewReader(content)); err != nil {
			return "", apperror.Internal("no se pudo guardar la firma", err)
		}
		return model.StoragePath(name), nil
	case src.UseStored:
		return r.copyStored(ctx, folder, prefix, userID)
	}
	return "", nil
}

// copyStored copies the user's profile signature into folder
func (r *SignatureResolver) copyStored(ctx context.Context, folder, prefix string, userID uint) (model.StoragePath, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return "", apperror.FromDB(err, "Usuario")
	}
	if user.FirmaDigital.IsZero() {
		return "", apperror.NotFound("El usuario no tiene una firma digital registrada")
	}
	exists, err := r.disk.Exists(ctx, user.FirmaDigital.String())
	if err != nil {
		return "", apperror.Internal("no se pudo verificar la firma guardada", err)
	}
	if !exists {
		return "", apperror.NotFound("La firma digital guardada no existe en el almacenamiento")
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(user.FirmaDigital.String()), "."))
	if ext == "" {
		ext = "png"
	}
	name := fmt.Sprintf("%s/%s_stored.%s", folder, r.uniqueName(prefix), ext)
	if err := r.disk.Copy(ctx, user.FirmaDigital.String(), name); err != nil {
		return "", apperror.Internal("no se pudo copiar la firma guardada", err)
	}
	return model.StoragePath(name), nil
}

// StoreProfile saves a profile signature upload as firmas_usuarios/{userID}_{ts}.{ext}
func (r *SignatureResolver) StoreProfile(ctx context.Context, userID uint, up *Upload) (model.StoragePath, error) {
	ext, content, err := readSignature(up)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s/%d_%s.%s", FolderFirmasUsuarios, userID, r.now().Format("20060102150405"), ext)
	if err := r.disk.Store(ctx, name, bytes.NewReader(content)); err != nil {
		return "", apperror.Internal("no se pudo guardar la firma", err)
	}
	return model.StoragePath(name), nil
}

// Discard removes files stored by Resolve when the surrounding operation fails
func (r *SignatureResolver) Discard(ctx context.Context, paths ...model.StoragePath) {
	removeFiles(ctx, r.disk, paths...)
}

// DiscardOwned removes p only when it lives under folder. Profile originals
// referenced from elsewhere are never touched.
func (r *SignatureResolver) DiscardOwned(ctx context.Context, folder string, paths ...model.StoragePath) {
	for _, p := range paths {
		if p.Under(folder) {
			removeFiles(ctx, r.disk, p)
		}
	}
}
